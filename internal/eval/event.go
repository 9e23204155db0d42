// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

package eval

import (
	"fmt"

	"payscript/internal/expr"
	"payscript/internal/market"
	"payscript/internal/parser"
)

// CodedEvent is the wire form of one scheduled action: a reference date
// and the script text describing what happens on it.
type CodedEvent struct {
	ReferenceDate market.Date `json:"referenceDate"`
	Script        string      `json:"script"`
}

// Compile runs the script through the scanner and parser.
func (c CodedEvent) Compile() (*Event, error) {
	tree, err := parser.ParseString(c.Script)
	if err != nil {
		return nil, fmt.Errorf("event %s: %w", c.ReferenceDate, err)
	}
	return NewEvent(c.ReferenceDate, tree), nil
}

// Event is a compiled scheduled action.
type Event struct {
	referenceDate market.Date
	tree          *expr.Node
}

// NewEvent pairs a reference date with a parsed expression tree.
func NewEvent(date market.Date, tree *expr.Node) *Event {
	return &Event{referenceDate: date, tree: tree}
}

// ReferenceDate returns the date the event's market requests key on.
func (e *Event) ReferenceDate() market.Date {
	return e.referenceDate
}

// Tree returns the event's expression tree.
func (e *Event) Tree() *expr.Node {
	return e.tree
}

// EventStream is an ordered schedule of events sharing one global
// variable slot space.
type EventStream struct {
	events []*Event
}

// NewEventStream builds a stream over the given events, kept in order.
func NewEventStream(events ...*Event) *EventStream {
	return &EventStream{events: events}
}

// CompileEvents compiles a wire-form event list into a stream.
func CompileEvents(coded []CodedEvent) (*EventStream, error) {
	events := make([]*Event, 0, len(coded))
	for _, c := range coded {
		event, err := c.Compile()
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return NewEventStream(events...), nil
}

// Events returns the ordered event list.
func (s *EventStream) Events() []*Event {
	return s.events
}

// EventDates returns the ordered reference dates.
func (s *EventStream) EventDates() []market.Date {
	dates := make([]market.Date, len(s.events))
	for i, e := range s.events {
		dates[i] = e.referenceDate
	}
	return dates
}
