package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightlang/knight-vm/pkg/bytecode"
	"github.com/knightlang/knight-vm/pkg/compiler"
	"github.com/knightlang/knight-vm/pkg/options"
	"github.com/knightlang/knight-vm/pkg/value"
)

func compile(t *testing.T, src string, opts options.Options) *bytecode.Program {
	t.Helper()
	g := value.NewGc()
	p, err := compiler.Compile([]byte(src), g, opts)
	require.NoError(t, err)
	return p
}

func TestCompileSimpleArithmetic(t *testing.T) {
	p := compile(t, "+ 1 2", options.Options{})
	ops := opcodes(p)
	assert.Equal(t, []bytecode.Opcode{
		bytecode.OpPushConstant, bytecode.OpPushConstant, bytecode.OpAdd, bytecode.OpReturn,
	}, ops)
}

func TestCompileConstantPoolDedup(t *testing.T) {
	p := compile(t, "+ 1 1", options.Options{})
	assert.Len(t, p.Constants, 1)
}

func TestCompileAssignmentAndVariable(t *testing.T) {
	p := compile(t, "; = n 10 n", options.Options{})
	assert.Equal(t, 1, p.NumVariables)
	assert.Equal(t, []string{"n"}, p.VariableNames)

	ops := opcodes(p)
	assert.Contains(t, ops, bytecode.OpSetVar)
	assert.Contains(t, ops, bytecode.OpGetVar)
}

func TestCompileIfEmitsTwoJumps(t *testing.T) {
	p := compile(t, "I T 1 2", options.Options{})
	ops := opcodes(p)
	assert.Contains(t, ops, bytecode.OpJumpIfFalse)
	assert.Contains(t, ops, bytecode.OpJump)
}

func TestCompileWhileJumpsBackward(t *testing.T) {
	p := compile(t, "W F 1", options.Options{})
	var backward bool
	for i, inst := range p.Instructions {
		if inst.Op == bytecode.OpJump && inst.Operand < i {
			backward = true
		}
	}
	assert.True(t, backward, "WHILE must emit a backward jump to re-check its condition")
}

func TestCompileBlockDoesNotExecuteBody(t *testing.T) {
	p := compile(t, "B + 1 2", options.Options{})
	// The first instruction must jump over the block body.
	require.Equal(t, bytecode.OpJump, p.Instructions[0].Op)
}

func TestCompileExtensionRequiresOptIn(t *testing.T) {
	g := value.NewGc()
	_, err := compiler.Compile([]byte("VALUE 1"), g, options.Options{})
	assert.Error(t, err)

	opts := options.Options{}
	opts.Extensions.Functions.Value = true
	_, err = compiler.Compile([]byte("VALUE 1"), g, opts)
	assert.NoError(t, err)
}

func TestCompileForbidTrailingTokens(t *testing.T) {
	opts := options.Options{}
	opts.Compliance.ForbidTrailingTokens = true
	g := value.NewGc()
	_, err := compiler.Compile([]byte("1 2"), g, opts)
	assert.Error(t, err)
}

func TestCompileXbreakOutsideLoopIsError(t *testing.T) {
	opts := options.Options{}
	opts.Extensions.ControlFlow.Break = true
	g := value.NewGc()
	_, err := compiler.Compile([]byte("XBREAK"), g, opts)
	assert.Error(t, err)
}

func TestCompileHandleRequiresExtension(t *testing.T) {
	g := value.NewGc()
	_, err := compiler.Compile([]byte("HANDLE 1 2"), g, options.Options{})
	assert.Error(t, err)
}

func opcodes(p *bytecode.Program) []bytecode.Opcode {
	ops := make([]bytecode.Opcode, len(p.Instructions))
	for i, inst := range p.Instructions {
		ops[i] = inst.Op
	}
	return ops
}
