package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightlang/knight-vm/pkg/compiler"
	"github.com/knightlang/knight-vm/pkg/environment"
	"github.com/knightlang/knight-vm/pkg/options"
	"github.com/knightlang/knight-vm/pkg/value"
	"github.com/knightlang/knight-vm/pkg/vm"
)

func runSource(t *testing.T, src string, opts options.Options) (value.Value, string, error) {
	t.Helper()
	g := value.NewGc()
	prog, err := compiler.Compile([]byte(src), g, opts)
	require.NoError(t, err)

	var out bytes.Buffer
	env := environment.New(g, opts, strings.NewReader(""), &out)
	m := vm.New(prog, env)
	result, err := m.Run()
	return result, out.String(), err
}

func TestOutputAddition(t *testing.T) {
	_, out, err := runSource(t, "OUTPUT + 1 2", options.Options{})
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestBlockAndCall(t *testing.T) {
	result, _, err := runSource(t, "; = f BLOCK + 1 1 CALL f", options.Options{})
	require.NoError(t, err)
	n, ok := result.AsInteger()
	require.True(t, ok)
	assert.EqualValues(t, 2, n)
}

func TestQuitReturnsSentinelError(t *testing.T) {
	_, _, err := runSource(t, "QUIT 7", options.Options{})
	qe, ok := err.(*vm.QuitError)
	require.True(t, ok)
	assert.Equal(t, 7, qe.Code)
}

func TestWhileLoopAccumulates(t *testing.T) {
	result, _, err := runSource(t, "; = i 0 ; = acc 0 ; W < i 5 ; = acc + acc i = i + i 1 acc", options.Options{})
	require.NoError(t, err)
	n, _ := result.AsInteger()
	assert.EqualValues(t, 10, n) // 0+1+2+3+4
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	_, _, err := runSource(t, "OUTPUT x", options.Options{})
	require.Error(t, err)
	re, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	assert.Equal(t, vm.ErrUndefinedVariable, re.Kind)
}

func TestDivisionByZero(t *testing.T) {
	_, _, err := runSource(t, "/ 1 0", options.Options{})
	re, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	assert.Equal(t, vm.ErrInteger, re.Kind)
}

func TestHandleCatchesError(t *testing.T) {
	opts := options.Options{}
	opts.Extensions.ControlFlow.Handle = true
	result, _, err := runSource(t, `HANDLE (/ 1 0) 99`, opts)
	require.NoError(t, err)
	n, _ := result.AsInteger()
	assert.EqualValues(t, 99, n)
}

func TestYeetCaughtByHandle(t *testing.T) {
	opts := options.Options{}
	opts.Extensions.ControlFlow.Handle = true
	opts.Extensions.Yeet = true
	result, _, err := runSource(t, `HANDLE (YEET "oops") _`, opts)
	require.NoError(t, err)
	s, ok := result.AsString()
	require.True(t, ok)
	assert.Equal(t, "oops", string(value.StringBytes(s)))
}

func TestLengthCoercesNullAndBoolean(t *testing.T) {
	result, _, err := runSource(t, "+ + LENGTH NULL LENGTH TRUE LENGTH FALSE", options.Options{})
	require.NoError(t, err)
	n, _ := result.AsInteger()
	assert.EqualValues(t, 1, n) // 0 + 1 + 0
}

func TestNegateCoercesNonInteger(t *testing.T) {
	result, _, err := runSource(t, "~ TRUE", options.Options{})
	require.NoError(t, err)
	n, _ := result.AsInteger()
	assert.EqualValues(t, -1, n)

	result, _, err = runSource(t, `~ "5"`, options.Options{})
	require.NoError(t, err)
	n, _ = result.AsInteger()
	assert.EqualValues(t, -5, n)
}

func TestArgvIsPrePopulatedGlobal(t *testing.T) {
	opts := options.Options{}
	opts.Extensions.Argv = true

	g := value.NewGc()
	prog, err := compiler.Compile([]byte("LENGTH ARGV"), g, opts)
	require.NoError(t, err)

	var out bytes.Buffer
	env := environment.New(g, opts, strings.NewReader(""), &out)
	env.Argv = []string{"one", "two", "three"}
	m := vm.New(prog, env)
	result, err := m.Run()
	require.NoError(t, err)
	n, _ := result.AsInteger()
	assert.EqualValues(t, 3, n)
}

func TestStringInterpolationDesugarsToConcatenation(t *testing.T) {
	opts := options.Options{}
	opts.Extensions.StringInterpolation = true

	result, _, err := runSource(t, "; = x 5 `a${x}b`", opts)
	require.NoError(t, err)
	s, ok := result.AsString()
	require.True(t, ok)
	assert.Equal(t, "a5b", string(value.StringBytes(s)))
}

func TestStackTraceRecordsBlockName(t *testing.T) {
	opts := options.Options{}
	opts.QoL.Stacktrace = true
	_, _, err := runSource(t, "; = broken BLOCK / 1 0 CALL broken", opts)
	re, ok := err.(*vm.RuntimeError)
	require.True(t, ok)
	require.NotEmpty(t, re.Stack)
	assert.Equal(t, "broken", re.Stack[0].Name)
}
