// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

// Package expr defines payscript expression tree nodes.
//
// A parsed script is a Base node whose children are statements. Variable,
// Spot, and Pays nodes carry a write-once slot cell that indexing fills
// in before evaluation: a dense variable index for Variable, a market
// request id for Spot and Pays.
package expr

import (
	"fmt"

	"payscript/internal/market"
)

// Kind discriminates Node variants.
type Kind int

const (
	Base Kind = iota // statement list root

	// Leaves
	Number
	Boolean
	String
	Variable
	Spot

	// Binary operators
	Add
	Subtract
	Multiply
	Divide
	Power
	Equal
	NotEqual
	Greater
	Lesser
	GtEqual
	LtEqual
	And
	Or

	// Unary
	Not
	Negate

	Assign
	If
	Pays

	// Functions
	Ln
	Exp
	Pow
	Min
	Max
)

// String returns the node kind name for diagnostics.
func (k Kind) String() string {
	switch k {
	case Base:
		return "Base"
	case Number:
		return "Number"
	case Boolean:
		return "Boolean"
	case String:
		return "String"
	case Variable:
		return "Variable"
	case Spot:
		return "Spot"
	case Add:
		return "Add"
	case Subtract:
		return "Subtract"
	case Multiply:
		return "Multiply"
	case Divide:
		return "Divide"
	case Power:
		return "Power"
	case Equal:
		return "Equal"
	case NotEqual:
		return "NotEqual"
	case Greater:
		return "Greater"
	case Lesser:
		return "Lesser"
	case GtEqual:
		return "GtEqual"
	case LtEqual:
		return "LtEqual"
	case And:
		return "And"
	case Or:
		return "Or"
	case Not:
		return "Not"
	case Negate:
		return "Negate"
	case Assign:
		return "Assign"
	case If:
		return "If"
	case Pays:
		return "Pays"
	case Ln:
		return "Ln"
	case Exp:
		return "Exp"
	case Pow:
		return "Pow"
	case Min:
		return "Min"
	case Max:
		return "Max"
	}
	return "Unknown"
}

// isLeaf reports whether the kind never carries children.
func (k Kind) isLeaf() bool {
	switch k {
	case Number, Boolean, String, Variable, Spot:
		return true
	}
	return false
}

// slotCell is a write-once index binding. Rebinding is an accepted no-op
// so that indexing the same tree twice is safe.
type slotCell struct {
	set bool
	idx int
}

// Node is one expression tree node. Payload fields are meaningful only
// for the matching Kind; the rest stay zero.
type Node struct {
	Kind     Kind
	Children []*Node

	Num      float64         // Number
	Truth    bool            // Boolean
	Text     string          // String
	Name     string          // Variable
	Currency market.Currency // Spot

	// ElseIndex is the child index of the first else-branch statement of
	// an If node. Children are [condition, then..., else...]; a node with
	// no else branch has ElseIndex == len(Children).
	ElseIndex int

	slot slotCell // Variable, Spot, Pays
}

// NewBase creates a statement list root.
func NewBase(stmts ...*Node) *Node {
	return &Node{Kind: Base, Children: stmts}
}

// NewNumber creates a numeric literal.
func NewNumber(v float64) *Node {
	return &Node{Kind: Number, Num: v}
}

// NewBoolean creates a boolean literal.
func NewBoolean(v bool) *Node {
	return &Node{Kind: Boolean, Truth: v}
}

// NewString creates a string literal.
func NewString(v string) *Node {
	return &Node{Kind: String, Text: v}
}

// NewVariable creates a named variable reference with an unbound slot.
func NewVariable(name string) *Node {
	return &Node{Kind: Variable, Name: name}
}

// NewSpot creates an exchange rate observation with an unbound slot.
func NewSpot(ccy market.Currency) *Node {
	return &Node{Kind: Spot, Currency: ccy}
}

// NewBinary creates a binary operator node.
func NewBinary(kind Kind, left, right *Node) *Node {
	return &Node{Kind: kind, Children: []*Node{left, right}}
}

// NewUnary creates a Not or Negate node.
func NewUnary(kind Kind, operand *Node) *Node {
	return &Node{Kind: kind, Children: []*Node{operand}}
}

// NewAssign creates an assignment of value to the named variable.
func NewAssign(variable, value *Node) *Node {
	return &Node{Kind: Assign, Children: []*Node{variable, value}}
}

// NewIf creates a conditional. Children are laid out as
// [condition, then..., else...] with ElseIndex marking the branch split.
func NewIf(condition *Node, then, els []*Node) *Node {
	children := make([]*Node, 0, 1+len(then)+len(els))
	children = append(children, condition)
	children = append(children, then...)
	elseIndex := len(children)
	children = append(children, els...)
	return &Node{Kind: If, Children: children, ElseIndex: elseIndex}
}

// NewPays creates a payment of the amount expression, with an unbound
// numeraire request slot.
func NewPays(amount *Node) *Node {
	return &Node{Kind: Pays, Children: []*Node{amount}}
}

// NewCall creates a function node (Ln, Exp, Pow, Min, Max).
func NewCall(kind Kind, args ...*Node) *Node {
	return &Node{Kind: kind, Children: args}
}

// AddChild appends a child. It panics on leaf kinds; attaching children
// to a literal is a programmer error, not an input error.
func (n *Node) AddChild(child *Node) {
	if n.Kind.isLeaf() {
		panic(fmt.Sprintf("expr: %s node cannot have children", n.Kind))
	}
	n.Children = append(n.Children, child)
}

// Slot returns the bound index, if any.
func (n *Node) Slot() (int, bool) {
	return n.slot.idx, n.slot.set
}

// BindSlot binds the node's index. A second bind is ignored so repeated
// indexing passes observe the first binding.
func (n *Node) BindSlot(idx int) {
	if n.slot.set {
		return
	}
	n.slot = slotCell{set: true, idx: idx}
}
