// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

// Package scanner provides a streaming rune-by-rune lexer for payscript.
package scanner

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"payscript/internal/token"
)

// Scanner tokenizes payscript input rune-by-rune.
type Scanner struct {
	reader *bufio.Reader
	buf    strings.Builder
	peeked *Item
	line   int // Current line number (1-based)
}

// Item represents a scanned token with its value.
type Item struct {
	Token  token.Token
	Value  string  // Raw text for identifiers, strings, operators
	Number float64 // Parsed value when Token is NUMBER
	Line   int     // Line number where this token started
}

// New creates a new Scanner from an io.Reader.
func New(r io.Reader) *Scanner {
	return &Scanner{
		reader: bufio.NewReader(r),
		line:   1,
	}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string) *Scanner {
	return New(strings.NewReader(s))
}

// Line returns the current line number (1-based).
func (s *Scanner) Line() int {
	return s.line
}

// Peek returns the next item without consuming it.
func (s *Scanner) Peek() (*Item, error) {
	if s.peeked != nil {
		return s.peeked, nil
	}
	item, err := s.Next()
	if err != nil {
		return nil, err
	}
	s.peeked = item
	return item, nil
}

// Tokenize drains the scanner and returns every item up to, but not
// including, the EOF marker.
func (s *Scanner) Tokenize() ([]*Item, error) {
	var items []*Item
	for {
		item, err := s.Next()
		if err != nil {
			return nil, err
		}
		if item.Token == token.EOF {
			return items, nil
		}
		items = append(items, item)
	}
}

// Next returns the next token from the input.
func (s *Scanner) Next() (*Item, error) {
	if s.peeked != nil {
		item := s.peeked
		s.peeked = nil
		return item, nil
	}

	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			return &Item{Token: token.EOF, Line: s.line}, nil
		}
		if err != nil {
			return nil, err
		}

		switch {
		case r == '\n':
			item := &Item{Token: token.NEWLINE, Value: "\n", Line: s.line}
			s.line++
			return item, nil
		case unicode.IsSpace(r):
			continue
		case r == '#':
			// Comment runs to end of line; the newline itself is
			// still reported as a separator.
			if err := s.skipComment(); err != nil {
				return nil, err
			}
			continue
		case unicode.IsDigit(r) || r == '.':
			return s.scanNumber(r)
		case unicode.IsLetter(r) || r == '_':
			return s.scanIdent(r)
		case r == '"':
			return s.scanString()
		default:
			return s.scanOperator(r)
		}
	}
}

// skipComment consumes input up to, but not including, the next newline.
func (s *Scanner) skipComment() error {
	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if r == '\n' {
			return s.reader.UnreadRune()
		}
	}
}

// scanNumber scans a numeric literal starting with the given rune.
func (s *Scanner) scanNumber(first rune) (*Item, error) {
	s.buf.Reset()
	s.buf.WriteRune(first)
	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !unicode.IsDigit(r) && r != '.' {
			s.reader.UnreadRune()
			break
		}
		s.buf.WriteRune(r)
	}

	text := s.buf.String()
	n, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("line %d: invalid number %q: %w", s.line, text, err)
	}
	return &Item{Token: token.NUMBER, Value: text, Number: n, Line: s.line}, nil
}

// scanIdent scans an identifier or keyword starting with the given rune.
func (s *Scanner) scanIdent(first rune) (*Item, error) {
	s.buf.Reset()
	s.buf.WriteRune(first)
	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			s.reader.UnreadRune()
			break
		}
		s.buf.WriteRune(r)
	}

	text := s.buf.String()
	return &Item{Token: token.Keyword(text), Value: text, Line: s.line}, nil
}

// scanString scans a double-quoted string literal. The opening quote has
// already been consumed; the closing quote is consumed but not included.
func (s *Scanner) scanString() (*Item, error) {
	s.buf.Reset()
	startLine := s.line
	for {
		r, _, err := s.reader.ReadRune()
		if err == io.EOF {
			return nil, fmt.Errorf("line %d: unterminated string literal", startLine)
		}
		if err != nil {
			return nil, err
		}
		if r == '"' {
			return &Item{Token: token.STRING, Value: s.buf.String(), Line: startLine}, nil
		}
		if r == '\n' {
			s.line++
		}
		s.buf.WriteRune(r)
	}
}

// scanOperator scans operator and punctuation tokens, using one rune of
// lookahead for the two-character forms.
func (s *Scanner) scanOperator(first rune) (*Item, error) {
	one := func(t token.Token) (*Item, error) {
		return &Item{Token: t, Value: string(first), Line: s.line}, nil
	}

	switch first {
	case '+':
		return one(token.PLUS)
	case '-':
		return one(token.MINUS)
	case '/':
		return one(token.SLASH)
	case '(':
		return one(token.LPAREN)
	case ')':
		return one(token.RPAREN)
	case '{':
		return one(token.LBRACE)
	case '}':
		return one(token.RBRACE)
	case ',':
		return one(token.COMMA)
	case ';':
		return one(token.SEMICOLON)
	case '*':
		if s.nextIs('*') {
			return &Item{Token: token.POWER, Value: "**", Line: s.line}, nil
		}
		return one(token.STAR)
	case '=':
		if s.nextIs('=') {
			return &Item{Token: token.EQUAL, Value: "==", Line: s.line}, nil
		}
		return one(token.ASSIGN)
	case '!':
		if s.nextIs('=') {
			return &Item{Token: token.NOTEQUAL, Value: "!=", Line: s.line}, nil
		}
		return nil, fmt.Errorf("line %d: invalid token '!'", s.line)
	case '>':
		if s.nextIs('=') {
			return &Item{Token: token.GTEQUAL, Value: ">=", Line: s.line}, nil
		}
		return one(token.GREATER)
	case '<':
		if s.nextIs('=') {
			return &Item{Token: token.LTEQUAL, Value: "<=", Line: s.line}, nil
		}
		return one(token.LESSER)
	}
	return nil, fmt.Errorf("line %d: invalid character %q", s.line, first)
}

// nextIs consumes the next rune if it matches want, otherwise leaves the
// input untouched.
func (s *Scanner) nextIs(want rune) bool {
	r, _, err := s.reader.ReadRune()
	if err != nil {
		return false
	}
	if r == want {
		return true
	}
	s.reader.UnreadRune()
	return false
}
