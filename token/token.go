// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package token

import "strconv"

// Kind represents the kind of a lexical token.
type Kind int

// List of token kinds.
const (
	Illegal Kind = iota
	EOF
	_literalBeg
	Name
	String
	_literalEnd
)

var kinds = [...]string{
	Illegal: "ILLEGAL",
	EOF:     "EOF",
	Name:    "NAME",
	String:  "STRING",
}

func (k Kind) String() string {
	s := ""
	if 0 <= k && k < Kind(len(kinds)) {
		s = kinds[k]
	}
	if s == "" {
		s = "kind(" + strconv.Itoa(int(k)) + ")"
	}
	return s
}

// IsLiteral returns true if the kind carries literal text.
func (k Kind) IsLiteral() bool {
	return _literalBeg < k && k < _literalEnd
}

// Token is a single lexical unit produced by the scanner. Literal holds the
// identifier text for Name and the unquoted text for String; for Illegal it
// holds the offending input. Pos is the file set offset of the first byte.
type Token struct {
	Kind    Kind
	Literal string
	Pos     int
}

// Is reports whether the token is of kind k.
func (t Token) Is(k Kind) bool {
	return t.Kind == k
}

func (t Token) String() string {
	switch t.Kind {
	case Name:
		return t.Literal
	case String:
		return strconv.Quote(t.Literal)
	case Illegal:
		return "ILLEGAL(" + strconv.Quote(t.Literal) + ")"
	}
	return t.Kind.String()
}
