package environment_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightlang/knight-vm/pkg/environment"
	"github.com/knightlang/knight-vm/pkg/options"
	"github.com/knightlang/knight-vm/pkg/value"
)

func TestPromptReadsOneLine(t *testing.T) {
	g := value.NewGc()
	env := environment.New(g, options.Options{}, strings.NewReader("hello\nworld\n"), &bytes.Buffer{})

	v, err := env.Prompt()
	require.NoError(t, err)
	c, _ := v.AsString()
	assert.Equal(t, "hello", string(value.StringBytes(c)))

	v, err = env.Prompt()
	require.NoError(t, err)
	c, _ = v.AsString()
	assert.Equal(t, "world", string(value.StringBytes(c)))
}

func TestPromptAtEOFYieldsEmptyString(t *testing.T) {
	g := value.NewGc()
	env := environment.New(g, options.Options{}, strings.NewReader(""), &bytes.Buffer{})

	v, err := env.Prompt()
	require.NoError(t, err)
	c, _ := v.AsString()
	assert.Equal(t, "", string(value.StringBytes(c)))
}

func TestOutputAppendsNewline(t *testing.T) {
	var out bytes.Buffer
	env := environment.New(value.NewGc(), options.Options{}, strings.NewReader(""), &out)
	require.NoError(t, env.Output("hi"))
	assert.Equal(t, "hi\n", out.String())
}

func TestOutputTrailingBackslashSuppressesNewline(t *testing.T) {
	var out bytes.Buffer
	env := environment.New(value.NewGc(), options.Options{}, strings.NewReader(""), &out)
	require.NoError(t, env.Output("no newline\\"))
	assert.Equal(t, "no newline", out.String())
}

func TestRandomRespectsLimitRandRange(t *testing.T) {
	opts := options.Options{}
	opts.Compliance.LimitRandRange = true
	env := environment.New(value.NewGc(), opts, strings.NewReader(""), &bytes.Buffer{})

	for i := 0; i < 50; i++ {
		n := env.Random()
		assert.True(t, n >= 0 && n < 0x8000)
	}
}
