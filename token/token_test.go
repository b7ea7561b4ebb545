package token_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ozanh/ulua/token"
)

func TestKindString(t *testing.T) {
	require.Equal(t, "EOF", token.EOF.String())
	require.Equal(t, "NAME", token.Name.String())
	require.Equal(t, "STRING", token.String.String())
	require.Equal(t, "ILLEGAL", token.Illegal.String())
	require.Equal(t, "kind(99)", token.Kind(99).String())
}

func TestKindIsLiteral(t *testing.T) {
	require.True(t, token.Name.IsLiteral())
	require.True(t, token.String.IsLiteral())
	require.False(t, token.EOF.IsLiteral())
	require.False(t, token.Illegal.IsLiteral())
}

func TestTokenString(t *testing.T) {
	require.Equal(t, "print", token.Token{Kind: token.Name, Literal: "print"}.String())
	require.Equal(t, `"a b"`, token.Token{Kind: token.String, Literal: "a b"}.String())
	require.Equal(t, "EOF", token.Token{Kind: token.EOF}.String())
	require.Equal(t, `ILLEGAL("$")`, token.Token{Kind: token.Illegal, Literal: "$"}.String())
	require.True(t, token.Token{Kind: token.EOF}.Is(token.EOF))
}
