package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLexerNumbersAndWhitespace(t *testing.T) {
	l := NewLexer([]byte("  123   456"))
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenNumber, tok.Kind)
	assert.EqualValues(t, 123, tok.Value)

	tok, err = l.Next()
	require.NoError(t, err)
	assert.EqualValues(t, 456, tok.Value)

	tok, err = l.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenEOF, tok.Kind)
}

func TestLexerWordConsumesUppercaseRun(t *testing.T) {
	l := NewLexer([]byte("OUTPUT+1"))
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenWord, tok.Kind)
	assert.Equal(t, "OUTPUT", tok.Text)

	tok, err = l.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenSymbol, tok.Kind)
	assert.Equal(t, "+", tok.Text)
}

func TestLexerFirstLetterSignificant(t *testing.T) {
	l := NewLexer([]byte("O 1"))
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenWord, tok.Kind)
	assert.Equal(t, "O", tok.Text)
}

func TestLexerStringLiteral(t *testing.T) {
	l := NewLexer([]byte(`"hello world"`))
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenString, tok.Kind)
	assert.Equal(t, "hello world", tok.Text)
}

func TestLexerUnterminatedString(t *testing.T) {
	l := NewLexer([]byte(`"oops`))
	_, err := l.Next()
	assert.Error(t, err)
}

func TestLexerCommentsAndParens(t *testing.T) {
	l := NewLexer([]byte("# a comment\n(+ 1 2)"))
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenSymbol, tok.Kind)
	assert.Equal(t, "+", tok.Text)
}

func TestLexerIdentifier(t *testing.T) {
	l := NewLexer([]byte("my_var2"))
	tok, err := l.Next()
	require.NoError(t, err)
	assert.Equal(t, TokenIdentifier, tok.Kind)
	assert.Equal(t, "my_var2", tok.Text)
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	l := NewLexer([]byte("`"))
	_, err := l.Next()
	assert.Error(t, err)
}

func TestLexerInterpolationDesugarsToPlusChain(t *testing.T) {
	l := NewLexer([]byte("`a${x}b`"))
	l.interpolation = true

	var kinds []TokenKind
	var texts []string
	for {
		tok, err := l.Next()
		require.NoError(t, err)
		if tok.Kind == TokenEOF {
			break
		}
		kinds = append(kinds, tok.Kind)
		texts = append(texts, tok.Text)
	}

	assert.Equal(t, []TokenKind{TokenSymbol, TokenSymbol, TokenString, TokenIdentifier, TokenString}, kinds)
	assert.Equal(t, []string{"+", "+", "a", "x", "b"}, texts)
}

func TestLexerInterpolationDisabledTreatsBacktickAsError(t *testing.T) {
	l := NewLexer([]byte("`a${x}b`"))
	_, err := l.Next()
	assert.Error(t, err)
}
