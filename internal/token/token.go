// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

// Package token defines payscript token types and keyword tables.
package token

// Token represents a payscript token type.
type Token int

const (
	EOF Token = iota

	// Literals and names
	NUMBER
	STRING
	IDENT
	TRUE
	FALSE

	// Operators
	PLUS     // +
	MINUS    // -
	STAR     // *
	SLASH    // /
	POWER    // **
	ASSIGN   // =
	EQUAL    // ==
	NOTEQUAL // !=
	GREATER  // >
	LESSER   // <
	GTEQUAL  // >=
	LTEQUAL  // <=

	// Keywords
	IF
	THEN
	ELSE
	END
	AND
	OR
	NOT
	FOR
	PAYS

	// Punctuation
	LPAREN    // (
	RPAREN    // )
	LBRACE    // {
	RBRACE    // }
	COMMA     // ,
	SEMICOLON // ;
	NEWLINE   // \n
)

// keywords maps reserved identifier text to its token.
var keywords = map[string]Token{
	"if":    IF,
	"then":  THEN,
	"else":  ELSE,
	"end":   END,
	"and":   AND,
	"or":    OR,
	"not":   NOT,
	"for":   FOR,
	"pays":  PAYS,
	"true":  TRUE,
	"false": FALSE,
}

// Keyword returns the keyword token for an identifier, or IDENT if the
// text is not reserved. Matching is exact; keywords are lowercase only.
func Keyword(text string) Token {
	if t, ok := keywords[text]; ok {
		return t
	}
	return IDENT
}

// IsComparison returns true for the relational operator tokens.
func (t Token) IsComparison() bool {
	switch t {
	case EQUAL, NOTEQUAL, GREATER, LESSER, GTEQUAL, LTEQUAL:
		return true
	}
	return false
}

// IsAdditive returns true for + and -. "and"/"or" are not additive;
// they join whole comparisons at the condition level.
func (t Token) IsAdditive() bool {
	return t == PLUS || t == MINUS
}

// IsMultiplicative returns true for * and /.
func (t Token) IsMultiplicative() bool {
	return t == STAR || t == SLASH
}

// IsSeparator returns true for statement separators.
func (t Token) IsSeparator() bool {
	return t == NEWLINE || t == SEMICOLON
}

// String returns the string representation of a token.
func (t Token) String() string {
	switch t {
	case EOF:
		return "EOF"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case IDENT:
		return "IDENT"
	case TRUE:
		return "TRUE"
	case FALSE:
		return "FALSE"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case STAR:
		return "STAR"
	case SLASH:
		return "SLASH"
	case POWER:
		return "POWER"
	case ASSIGN:
		return "ASSIGN"
	case EQUAL:
		return "EQUAL"
	case NOTEQUAL:
		return "NOTEQUAL"
	case GREATER:
		return "GREATER"
	case LESSER:
		return "LESSER"
	case GTEQUAL:
		return "GTEQUAL"
	case LTEQUAL:
		return "LTEQUAL"
	case IF:
		return "IF"
	case THEN:
		return "THEN"
	case ELSE:
		return "ELSE"
	case END:
		return "END"
	case AND:
		return "AND"
	case OR:
		return "OR"
	case NOT:
		return "NOT"
	case FOR:
		return "FOR"
	case PAYS:
		return "PAYS"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	case COMMA:
		return "COMMA"
	case SEMICOLON:
		return "SEMICOLON"
	case NEWLINE:
		return "NEWLINE"
	}
	return "UNKNOWN"
}
