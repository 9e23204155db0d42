// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

// Package eval runs indexed payscript expression trees: single-scenario
// stack evaluation, slot indexing, and parallel aggregation over
// Monte-Carlo scenarios.
package eval

import (
	"fmt"
	"math"

	"payscript/internal/expr"
	"payscript/internal/market"
)

// epsilon is the machine epsilon for float64. Equality of script numbers
// is |l-r| < epsilon, which makes == and != exact complements.
var epsilon = math.Nextafter(1, 2) - 1

// Evaluator executes one indexed tree against at most one scenario. It
// is single-use state: create a fresh Evaluator per evaluation run. An
// Evaluator is not safe for concurrent use; parallel scenario runs each
// own their own instance.
type Evaluator struct {
	variables []Value
	numbers   []float64
	booleans  []bool
	strings   []string

	lhsActive bool
	lhs       *expr.Node

	scenario    market.Scenario
	hasScenario bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithVariables sizes the variable vector, every slot starting Null.
func WithVariables(n int) Option {
	return func(e *Evaluator) {
		e.variables = make([]Value, n)
	}
}

// WithScenario binds the market scenario Spot and Pays nodes read from.
func WithScenario(s market.Scenario) Option {
	return func(e *Evaluator) {
		e.scenario = s
		e.hasScenario = true
	}
}

// New creates an Evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Variables returns a copy of the variable vector.
func (e *Evaluator) Variables() []Value {
	out := make([]Value, len(e.variables))
	copy(out, e.variables)
	return out
}

// Run evaluates an indexed tree, mutating the variable vector.
func (e *Evaluator) Run(tree *expr.Node) error {
	return e.visit(tree)
}

func (e *Evaluator) popNumber() (float64, error) {
	if len(e.numbers) == 0 {
		return 0, fmt.Errorf("numeric stack underflow")
	}
	v := e.numbers[len(e.numbers)-1]
	e.numbers = e.numbers[:len(e.numbers)-1]
	return v, nil
}

func (e *Evaluator) popBoolean() (bool, error) {
	if len(e.booleans) == 0 {
		return false, fmt.Errorf("boolean stack underflow")
	}
	v := e.booleans[len(e.booleans)-1]
	e.booleans = e.booleans[:len(e.booleans)-1]
	return v, nil
}

func (e *Evaluator) popString() (string, error) {
	if len(e.strings) == 0 {
		return "", fmt.Errorf("string stack underflow")
	}
	v := e.strings[len(e.strings)-1]
	e.strings = e.strings[:len(e.strings)-1]
	return v, nil
}

// popPair pops right then left off the numeric stack.
func (e *Evaluator) popPair() (left, right float64, err error) {
	if right, err = e.popNumber(); err != nil {
		return 0, 0, err
	}
	if left, err = e.popNumber(); err != nil {
		return 0, 0, err
	}
	return left, right, nil
}

func (e *Evaluator) visitChildren(n *expr.Node) error {
	for _, child := range n.Children {
		if err := e.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) visit(n *expr.Node) error {
	switch n.Kind {
	case expr.Base:
		return e.visitChildren(n)

	case expr.Number:
		e.numbers = append(e.numbers, n.Num)
		return nil
	case expr.Boolean:
		e.booleans = append(e.booleans, n.Truth)
		return nil
	case expr.String:
		e.strings = append(e.strings, n.Text)
		return nil

	case expr.Variable:
		return e.visitVariable(n)
	case expr.Assign:
		return e.visitAssign(n)
	case expr.If:
		return e.visitIf(n)
	case expr.Spot:
		return e.visitSpot(n)
	case expr.Pays:
		return e.visitPays(n)

	case expr.Add, expr.Subtract, expr.Multiply, expr.Divide,
		expr.Power, expr.Pow, expr.Min, expr.Max:
		if err := e.visitChildren(n); err != nil {
			return err
		}
		left, right, err := e.popPair()
		if err != nil {
			return err
		}
		var v float64
		switch n.Kind {
		case expr.Add:
			v = left + right
		case expr.Subtract:
			v = left - right
		case expr.Multiply:
			v = left * right
		case expr.Divide:
			v = left / right
		case expr.Power, expr.Pow:
			v = math.Pow(left, right)
		case expr.Min:
			v = math.Min(left, right)
		case expr.Max:
			v = math.Max(left, right)
		}
		e.numbers = append(e.numbers, v)
		return nil

	case expr.Ln, expr.Exp, expr.Negate:
		if err := e.visitChildren(n); err != nil {
			return err
		}
		v, err := e.popNumber()
		if err != nil {
			return err
		}
		switch n.Kind {
		case expr.Ln:
			v = math.Log(v)
		case expr.Exp:
			v = math.Exp(v)
		case expr.Negate:
			v = -v
		}
		e.numbers = append(e.numbers, v)
		return nil

	case expr.Equal, expr.NotEqual, expr.Greater, expr.Lesser,
		expr.GtEqual, expr.LtEqual:
		if err := e.visitChildren(n); err != nil {
			return err
		}
		left, right, err := e.popPair()
		if err != nil {
			return err
		}
		var v bool
		switch n.Kind {
		case expr.Equal:
			v = math.Abs(left-right) < epsilon
		case expr.NotEqual:
			v = math.Abs(left-right) >= epsilon
		case expr.Greater:
			v = left > right
		case expr.Lesser:
			v = left < right
		case expr.GtEqual:
			v = left >= right
		case expr.LtEqual:
			v = left <= right
		}
		e.booleans = append(e.booleans, v)
		return nil

	case expr.And, expr.Or:
		// Both operands always run; no short circuit, so side effects
		// inside either operand are unconditional.
		if err := e.visitChildren(n); err != nil {
			return err
		}
		right, err := e.popBoolean()
		if err != nil {
			return err
		}
		left, err := e.popBoolean()
		if err != nil {
			return err
		}
		if n.Kind == expr.And {
			e.booleans = append(e.booleans, left && right)
		} else {
			e.booleans = append(e.booleans, left || right)
		}
		return nil

	case expr.Not:
		if err := e.visitChildren(n); err != nil {
			return err
		}
		v, err := e.popBoolean()
		if err != nil {
			return err
		}
		e.booleans = append(e.booleans, !v)
		return nil
	}
	return fmt.Errorf("cannot evaluate %s node", n.Kind)
}

// visitVariable either captures the pending assignment target or pushes
// the slot's current value onto the matching typed stack.
func (e *Evaluator) visitVariable(n *expr.Node) error {
	if e.lhsActive {
		e.lhs = n
		return nil
	}

	slot, ok := n.Slot()
	if !ok {
		return fmt.Errorf("variable %s not indexed", n.Name)
	}
	if slot >= len(e.variables) {
		return fmt.Errorf("variable %s slot %d out of range", n.Name, slot)
	}

	v := e.variables[slot]
	switch {
	case v.kind == kindNumber:
		e.numbers = append(e.numbers, v.num)
	case v.kind == kindBool:
		e.booleans = append(e.booleans, v.b)
	case v.kind == kindString:
		e.strings = append(e.strings, v.str)
	default:
		return fmt.Errorf("variable %s not initialized", n.Name)
	}
	return nil
}

// visitAssign stores the right-hand side into the captured variable
// slot. The RHS type is whichever typed stack it landed on, preferring
// boolean, then string, then numeric.
func (e *Evaluator) visitAssign(n *expr.Node) error {
	e.lhsActive = true
	if err := e.visit(n.Children[0]); err != nil {
		e.lhsActive = false
		return err
	}
	e.lhsActive = false
	if err := e.visit(n.Children[1]); err != nil {
		return err
	}

	if e.lhs == nil || e.lhs.Kind != expr.Variable {
		return fmt.Errorf("invalid assignment target")
	}
	slot, ok := e.lhs.Slot()
	if !ok {
		return fmt.Errorf("variable %s not indexed", e.lhs.Name)
	}
	if slot >= len(e.variables) {
		return fmt.Errorf("variable %s slot %d out of range", e.lhs.Name, slot)
	}

	switch {
	case len(e.booleans) > 0:
		v, _ := e.popBoolean()
		e.variables[slot] = NewBool(v)
	case len(e.strings) > 0:
		v, _ := e.popString()
		e.variables[slot] = NewString(v)
	default:
		v, err := e.popNumber()
		if err != nil {
			return err
		}
		e.variables[slot] = NewNumber(v)
	}
	return nil
}

// visitIf evaluates the condition, then exactly one branch. Children are
// [condition, then..., else...]; ElseIndex marks where the else branch
// starts.
func (e *Evaluator) visitIf(n *expr.Node) error {
	if err := e.visit(n.Children[0]); err != nil {
		return err
	}
	taken, err := e.popBoolean()
	if err != nil {
		return err
	}

	start, end := 1, n.ElseIndex
	if !taken {
		start, end = n.ElseIndex, len(n.Children)
	}
	for _, child := range n.Children[start:end] {
		if err := e.visit(child); err != nil {
			return err
		}
	}
	return nil
}

func (e *Evaluator) snapshot(n *expr.Node, what string) (market.Data, error) {
	slot, ok := n.Slot()
	if !ok {
		return market.Data{}, fmt.Errorf("%s not indexed", what)
	}
	if !e.hasScenario {
		return market.Data{}, fmt.Errorf("no scenario set")
	}
	if slot >= len(e.scenario) {
		return market.Data{}, fmt.Errorf("%s request %d missing from scenario", what, slot)
	}
	return e.scenario[slot], nil
}

func (e *Evaluator) visitSpot(n *expr.Node) error {
	data, err := e.snapshot(n, "spot")
	if err != nil {
		return err
	}
	e.numbers = append(e.numbers, data.Fx())
	return nil
}

// visitPays evaluates the amount children, then replaces the numeric top
// of stack with amount / numeraire. With no children it degrades to a
// pure postfix discount of whatever amount is already on the stack.
func (e *Evaluator) visitPays(n *expr.Node) error {
	if err := e.visitChildren(n); err != nil {
		return err
	}
	data, err := e.snapshot(n, "pays")
	if err != nil {
		return err
	}
	amount, err := e.popNumber()
	if err != nil {
		return err
	}
	e.numbers = append(e.numbers, amount/data.Numeraire())
	return nil
}
