package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureStdout(t *testing.T, fn func() int) (string, int) {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	code := fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out), code
}

func TestRunEvaluatesExpression(t *testing.T) {
	out, code := captureStdout(t, func() int {
		return run([]string{"-e", "OUTPUT + 1 2"})
	})
	assert.Equal(t, 0, code)
	assert.Equal(t, "3\n", out)
}

func TestRunQuitMapsExitCode(t *testing.T) {
	_, code := captureStdout(t, func() int {
		return run([]string{"-e", "QUIT 7"})
	})
	assert.Equal(t, 7, code)
}

func TestRunDisassemble(t *testing.T) {
	out, code := captureStdout(t, func() int {
		return run([]string{"-e", "+ 1 2", "-disassemble"})
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "ADD")
}

func TestRunNoSourceIsUsageError(t *testing.T) {
	var errBuf bytes.Buffer
	orig := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w
	code := run(nil)
	os.Stderr = orig
	w.Close()
	io.Copy(&errBuf, r)
	assert.Equal(t, 2, code)
}
