// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

// Package parser builds payscript expression trees from scanned tokens.
//
// The grammar is recursive descent with explicit precedence climbing:
//
//	cond    := element ( ("and"|"or") element )*
//	element := "not" element | expr comparator expr
//	expr    := expr_l2 ( ("+"|"-") expr_l2 )*
//	expr_l2 := expr_l3 ( ("*"|"/") expr_l3 )*
//	expr_l3 := atom ( "**" atom )*
//	atom    := ("+"|"-") atom | "(" expr ")" | literal
//	         | function-call | spot-call | "pays" expr | variable
//
// "**" associates left, matching the language definition rather than the
// usual mathematical convention.
package parser

import (
	"fmt"
	"strings"

	"payscript/internal/expr"
	"payscript/internal/market"
	"payscript/internal/scanner"
	"payscript/internal/token"
)

// Parser consumes a token slice with a cursor that never moves backward.
type Parser struct {
	items []*scanner.Item
	pos   int
}

// New creates a Parser over a scanned token slice.
func New(items []*scanner.Item) *Parser {
	return &Parser{items: items}
}

// ParseString tokenizes and parses a complete script.
func ParseString(src string) (*expr.Node, error) {
	items, err := scanner.NewFromString(src).Tokenize()
	if err != nil {
		return nil, err
	}
	return New(items).Parse()
}

// current returns the token at the cursor, or a synthetic EOF item once
// the input is exhausted.
func (p *Parser) current() *scanner.Item {
	if p.pos >= len(p.items) {
		line := 1
		if n := len(p.items); n > 0 {
			line = p.items[n-1].Line
		}
		return &scanner.Item{Token: token.EOF, Line: line}
	}
	return p.items[p.pos]
}

func (p *Parser) advance() {
	p.pos++
}

// expect consumes the current token if it matches want, otherwise fails.
func (p *Parser) expect(want token.Token) (*scanner.Item, error) {
	item := p.current()
	if item.Token != want {
		return nil, fmt.Errorf("line %d: expected %s, got %s", item.Line, want, item.Token)
	}
	p.advance()
	return item, nil
}

// skipSeparators consumes any run of newlines and semicolons.
func (p *Parser) skipSeparators() {
	for p.current().Token.IsSeparator() {
		p.advance()
	}
}

// Parse consumes the whole token stream and returns the statement list
// root. The first structural violation aborts with no partial tree.
func (p *Parser) Parse() (*expr.Node, error) {
	base := expr.NewBase()
	p.skipSeparators()
	for p.current().Token != token.EOF {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		base.AddChild(stmt)
		p.skipSeparators()
	}
	return base, nil
}

// parseStatement parses one if block or one assignment.
func (p *Parser) parseStatement() (*expr.Node, error) {
	item := p.current()
	switch item.Token {
	case token.IF:
		return p.parseIf()
	case token.FOR:
		return nil, fmt.Errorf("line %d: for loops are not supported", item.Line)
	case token.IDENT:
		variable := expr.NewVariable(item.Value)
		p.advance()
		if _, err := p.expect(token.ASSIGN); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return expr.NewAssign(variable, value), nil
	}
	return nil, fmt.Errorf("line %d: unexpected token %s, expected a statement", item.Line, item.Token)
}

// parseIf parses a conditional. Both block styles are accepted:
// "if cond { ... } else { ... }" and "if cond then ... else ... end".
func (p *Parser) parseIf() (*expr.Node, error) {
	p.advance() // if

	cond, err := p.parseCondition()
	if err != nil {
		return nil, err
	}

	item := p.current()
	switch item.Token {
	case token.LBRACE:
		p.advance()
		then, err := p.parseBlock(token.RBRACE)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACE); err != nil {
			return nil, err
		}
		p.skipSeparators()
		if p.current().Token != token.ELSE {
			return expr.NewIf(cond, then, nil), nil
		}
		p.advance() // else
		p.skipSeparators()
		if _, err := p.expect(token.LBRACE); err != nil {
			return nil, err
		}
		els, err := p.parseBlock(token.RBRACE)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACE); err != nil {
			return nil, err
		}
		return expr.NewIf(cond, then, els), nil

	case token.THEN:
		p.advance()
		then, err := p.parseBlock(token.END, token.ELSE)
		if err != nil {
			return nil, err
		}
		if p.current().Token == token.ELSE {
			p.advance()
			els, err := p.parseBlock(token.END)
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.END); err != nil {
				return nil, err
			}
			return expr.NewIf(cond, then, els), nil
		}
		if _, err := p.expect(token.END); err != nil {
			return nil, err
		}
		return expr.NewIf(cond, then, nil), nil
	}
	return nil, fmt.Errorf("line %d: expected '{' or 'then', got %s", item.Line, item.Token)
}

// parseBlock parses statements until one of the closing tokens appears.
// The closer is left unconsumed.
func (p *Parser) parseBlock(closers ...token.Token) ([]*expr.Node, error) {
	var stmts []*expr.Node
	for {
		p.skipSeparators()
		cur := p.current().Token
		if cur == token.EOF {
			return nil, fmt.Errorf("line %d: unexpected end of if statement", p.current().Line)
		}
		for _, c := range closers {
			if cur == c {
				return stmts, nil
			}
		}
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
}

// parseCondition parses one or more comparison clauses left-folded with
// "and"/"or" into a single boolean tree.
func (p *Parser) parseCondition() (*expr.Node, error) {
	left, err := p.parseConditionElement()
	if err != nil {
		return nil, err
	}
	for {
		var kind expr.Kind
		switch p.current().Token {
		case token.AND:
			kind = expr.And
		case token.OR:
			kind = expr.Or
		default:
			return left, nil
		}
		p.advance()
		right, err := p.parseConditionElement()
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(kind, left, right)
	}
}

// binaryKinds maps binary operator tokens to their node kinds. The
// precedence level of each operator is decided by the token class
// predicates, not by this map.
var binaryKinds = map[token.Token]expr.Kind{
	token.PLUS:     expr.Add,
	token.MINUS:    expr.Subtract,
	token.STAR:     expr.Multiply,
	token.SLASH:    expr.Divide,
	token.EQUAL:    expr.Equal,
	token.NOTEQUAL: expr.NotEqual,
	token.GREATER:  expr.Greater,
	token.LESSER:   expr.Lesser,
	token.GTEQUAL:  expr.GtEqual,
	token.LTEQUAL:  expr.LtEqual,
}

// parseConditionElement parses a single comparison, optionally negated.
func (p *Parser) parseConditionElement() (*expr.Node, error) {
	if p.current().Token == token.NOT {
		p.advance()
		operand, err := p.parseConditionElement()
		if err != nil {
			return nil, err
		}
		return expr.NewUnary(expr.Not, operand), nil
	}

	left, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	item := p.current()
	if !item.Token.IsComparison() {
		return nil, fmt.Errorf("line %d: expected comparison operator, got %s", item.Line, item.Token)
	}
	kind := binaryKinds[item.Token]
	p.advance()

	right, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return expr.NewBinary(kind, left, right), nil
}

// parseExpr parses the lowest binary precedence level: + and -.
// "and"/"or" join whole comparisons and bind in parseCondition instead.
func (p *Parser) parseExpr() (*expr.Node, error) {
	left, err := p.parseExprL2()
	if err != nil {
		return nil, err
	}
	for p.current().Token.IsAdditive() {
		kind := binaryKinds[p.current().Token]
		p.advance()
		right, err := p.parseExprL2()
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(kind, left, right)
	}
	return left, nil
}

// parseExprL2 parses the * and / level.
func (p *Parser) parseExprL2() (*expr.Node, error) {
	left, err := p.parseExprL3()
	if err != nil {
		return nil, err
	}
	for p.current().Token.IsMultiplicative() {
		kind := binaryKinds[p.current().Token]
		p.advance()
		right, err := p.parseExprL3()
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(kind, left, right)
	}
	return left, nil
}

// parseExprL3 parses the ** level. Left-associative on purpose.
func (p *Parser) parseExprL3() (*expr.Node, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.current().Token == token.POWER {
		p.advance()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = expr.NewBinary(expr.Power, left, right)
	}
	return left, nil
}

// functions maps callable names, matched case-insensitively, to their
// node kind and arity bounds.
var functions = map[string]struct {
	kind     expr.Kind
	min, max int
}{
	"ln":  {expr.Ln, 1, 1},
	"exp": {expr.Exp, 1, 1},
	"pow": {expr.Pow, 2, 2},
	"min": {expr.Min, 2, 100},
	"max": {expr.Max, 2, 100},
}

// parseAtom parses one operand: a literal, a call, a parenthesized
// expression, a pays expression, or a variable reference.
func (p *Parser) parseAtom() (*expr.Node, error) {
	item := p.current()
	switch item.Token {
	case token.PLUS:
		// Unary plus is the identity.
		p.advance()
		return p.parseAtom()
	case token.MINUS:
		p.advance()
		operand, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return expr.NewUnary(expr.Negate, operand), nil
	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case token.NUMBER:
		p.advance()
		return expr.NewNumber(item.Number), nil
	case token.STRING:
		p.advance()
		return expr.NewString(item.Value), nil
	case token.TRUE:
		p.advance()
		return expr.NewBoolean(true), nil
	case token.FALSE:
		p.advance()
		return expr.NewBoolean(false), nil
	case token.PAYS:
		p.advance()
		amount, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return expr.NewPays(amount), nil
	case token.IDENT:
		return p.parseCallOrVariable(item)
	}
	return nil, fmt.Errorf("line %d: unexpected token %s in expression", item.Line, item.Token)
}

// parseCallOrVariable resolves an identifier at atom position. Known
// function names followed by "(" become calls; anything else is a plain
// variable reference.
func (p *Parser) parseCallOrVariable(item *scanner.Item) (*expr.Node, error) {
	name := strings.ToLower(item.Value)

	next := token.EOF
	if p.pos+1 < len(p.items) {
		next = p.items[p.pos+1].Token
	}
	if next != token.LPAREN {
		p.advance()
		return expr.NewVariable(item.Value), nil
	}

	if name == "spot" {
		p.advance() // name
		p.advance() // (
		ccy, err := p.expect(token.STRING)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr.NewSpot(market.Currency(ccy.Value)), nil
	}

	fn, ok := functions[name]
	if !ok {
		p.advance()
		return expr.NewVariable(item.Value), nil
	}

	p.advance() // name
	p.advance() // (
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	if len(args) < fn.min || len(args) > fn.max {
		return nil, fmt.Errorf("line %d: wrong number of arguments for %s: got %d",
			item.Line, name, len(args))
	}
	return expr.NewCall(fn.kind, args...), nil
}

// parseArgs parses comma-separated call arguments up to the closing
// parenthesis, which is consumed.
func (p *Parser) parseArgs() ([]*expr.Node, error) {
	var args []*expr.Node
	for p.current().Token != token.RPAREN {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		switch p.current().Token {
		case token.COMMA:
			p.advance()
		case token.RPAREN:
		default:
			return nil, fmt.Errorf("line %d: expected ',' or ')', got %s",
				p.current().Line, p.current().Token)
		}
	}
	p.advance() // )
	return args, nil
}
