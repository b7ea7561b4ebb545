// Copyright (c) 2020-2023 Ozan Hacıbekiroğlu.
// Use of this source code is governed by a MIT License
// that can be found in the LICENSE file.

package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ozanh/ulua/token"
)

// Scanner errors reported to ScannerErrorHandler. Reported errors wrap one
// of these values.
var (
	ErrIllegalCharacter   = errors.New("unexpected character")
	ErrUnterminatedString = errors.New("unterminated string")
	ErrRead               = errors.New("read error")
)

// ScannerErrorHandler is an error handler for the scanner.
type ScannerErrorHandler func(pos SourceFilePos, err error)

// Scanner reads the source one byte at a time and produces tokens on
// demand. Once the source is exhausted every call to Next returns an EOF
// token.
type Scanner struct {
	file       *SourceFile
	src        *bufio.Reader
	errHandler ScannerErrorHandler
	offset     int
	eof        bool
	errorCount int
}

// NewScanner creates a Scanner reading src. The scanner takes ownership of
// src; nothing else should read from it while scanning. File positions are
// recorded in file, which may be open ended (see SourceFileSet.AddFile).
func NewScanner(
	file *SourceFile,
	src io.Reader,
	errHandler ScannerErrorHandler,
) *Scanner {
	br, ok := src.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(src)
	}
	return &Scanner{
		file:       file,
		src:        br,
		errHandler: errHandler,
	}
}

// ErrorCount returns the number of errors reported so far.
func (s *Scanner) ErrorCount() int {
	return s.errorCount
}

// Next returns the next token.
func (s *Scanner) Next() token.Token {
	s.skipWhitespace()

	pos := s.file.FileSetPos(s.offset)
	ch, ok := s.read()
	if !ok {
		return token.Token{Kind: token.EOF, Pos: int(pos)}
	}

	switch {
	case isNameChar(ch):
		return token.Token{
			Kind:    token.Name,
			Literal: s.scanName(ch),
			Pos:     int(pos),
		}
	case ch == '"':
		lit, terminated := s.scanString()
		if !terminated {
			s.error(pos, ErrUnterminatedString)
			return token.Token{
				Kind:    token.Illegal,
				Literal: `"` + lit,
				Pos:     int(pos),
			}
		}
		return token.Token{Kind: token.String, Literal: lit, Pos: int(pos)}
	}

	s.error(pos, fmt.Errorf("%w %q", ErrIllegalCharacter, rune(ch)))
	return token.Token{Kind: token.Illegal, Literal: string(ch), Pos: int(pos)}
}

func (s *Scanner) read() (byte, bool) {
	if s.eof {
		return 0, false
	}
	ch, err := s.src.ReadByte()
	if err != nil {
		if err != io.EOF {
			s.error(s.file.FileSetPos(s.offset), fmt.Errorf("%w: %v", ErrRead, err))
		}
		s.eof = true
		return 0, false
	}
	s.offset++
	s.file.grow(s.offset)
	if ch == '\n' {
		s.file.AddLine(s.offset)
	}
	return ch, true
}

// unread pushes back the last byte returned by read.
func (s *Scanner) unread() {
	if err := s.src.UnreadByte(); err != nil {
		panic(err)
	}
	s.offset--
}

func (s *Scanner) skipWhitespace() {
	for {
		ch, ok := s.read()
		if !ok {
			return
		}
		if !isSpace(ch) {
			s.unread()
			return
		}
	}
}

func (s *Scanner) scanName(first byte) string {
	var sb strings.Builder
	sb.WriteByte(first)
	for {
		ch, ok := s.read()
		if !ok {
			break
		}
		if !isNameChar(ch) {
			s.unread()
			break
		}
		sb.WriteByte(ch)
	}
	return sb.String()
}

// scanString reads up to and including the closing quote. The opening quote
// is already consumed.
func (s *Scanner) scanString() (lit string, terminated bool) {
	var sb strings.Builder
	for {
		ch, ok := s.read()
		if !ok {
			return sb.String(), false
		}
		if ch == '"' {
			return sb.String(), true
		}
		sb.WriteByte(ch)
	}
}

func (s *Scanner) error(pos Pos, err error) {
	s.errorCount++
	if s.errHandler != nil {
		s.errHandler(s.file.Position(pos), err)
	}
}

func isSpace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

func isNameChar(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' ||
		'0' <= ch && ch <= '9' || ch == '_'
}
