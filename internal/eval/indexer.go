// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

package eval

import (
	"fmt"

	"payscript/internal/expr"
	"payscript/internal/market"
)

// Indexer walks trees once, single-threaded, binding write-once slots:
// a dense first-use index per distinct variable name, and a market
// request id per Spot and Pays node. After indexing the tree is
// read-only and safe to share across evaluator goroutines.
type Indexer struct {
	slots map[string]int
	names []string // variable names in slot order
	reqs  []market.MarketRequest

	eventDate market.Date
	hasDate   bool
	localCcy  market.Currency
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLocalCurrency sets the pricing currency exchange rate requests are
// quoted against.
func WithLocalCurrency(ccy market.Currency) IndexerOption {
	return func(ix *Indexer) {
		ix.localCcy = ccy
	}
}

// WithEventDate sets the reference date market requests are keyed by.
func WithEventDate(d market.Date) IndexerOption {
	return func(ix *Indexer) {
		ix.SetEventDate(d)
	}
}

// NewIndexer creates an Indexer.
func NewIndexer(opts ...IndexerOption) *Indexer {
	ix := &Indexer{slots: make(map[string]int)}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// SetEventDate rebinds the current reference date. Call before indexing
// each event of a stream; slots stay shared across the whole stream
// while requests carry the date bound at their indexing time.
func (ix *Indexer) SetEventDate(d market.Date) {
	ix.eventDate = d
	ix.hasDate = true
}

// VariableCount returns the number of distinct variable slots.
func (ix *Indexer) VariableCount() int {
	return len(ix.names)
}

// VariableNames returns the variable names in slot order.
func (ix *Indexer) VariableNames() []string {
	out := make([]string, len(ix.names))
	copy(out, ix.names)
	return out
}

// Requests returns the accumulated market request list, id-aligned with
// the slots bound into Spot and Pays nodes.
func (ix *Indexer) Requests() []market.MarketRequest {
	out := make([]market.MarketRequest, len(ix.reqs))
	copy(out, ix.reqs)
	return out
}

// Visit indexes one tree. Children are walked before each node;
// already-set slots are left untouched, so a second pass over the same
// tree allocates nothing.
func (ix *Indexer) Visit(n *expr.Node) error {
	for _, child := range n.Children {
		if err := ix.Visit(child); err != nil {
			return err
		}
	}

	switch n.Kind {
	case expr.Variable:
		if slot, ok := n.Slot(); ok {
			// Already bound, possibly by an earlier pass. Keep the
			// table consistent with the binding.
			if _, seen := ix.slots[n.Name]; !seen {
				ix.slots[n.Name] = slot
				ix.recordName(n.Name, slot)
			}
			return nil
		}
		slot, seen := ix.slots[n.Name]
		if !seen {
			slot = len(ix.names)
			ix.slots[n.Name] = slot
			ix.names = append(ix.names, n.Name)
		}
		n.BindSlot(slot)
		return nil

	case expr.Spot:
		if _, ok := n.Slot(); ok {
			return nil
		}
		if !ix.hasDate {
			return fmt.Errorf("cannot index spot(%q): no event date set", n.Currency)
		}
		id := len(ix.reqs)
		ix.reqs = append(ix.reqs, market.MarketRequest{
			ID: id,
			ExchangeRate: &market.ExchangeRateRequest{
				Currency:      n.Currency,
				LocalCurrency: ix.localCcy,
				Date:          ix.eventDate,
			},
		})
		n.BindSlot(id)
		return nil

	case expr.Pays:
		if _, ok := n.Slot(); ok {
			return nil
		}
		if !ix.hasDate {
			return fmt.Errorf("cannot index pays: no event date set")
		}
		id := len(ix.reqs)
		ix.reqs = append(ix.reqs, market.MarketRequest{
			ID:        id,
			Numeraire: &market.NumeraireRequest{Date: ix.eventDate},
		})
		n.BindSlot(id)
		return nil
	}
	return nil
}

// recordName grows the name table to cover an externally bound slot.
func (ix *Indexer) recordName(name string, slot int) {
	for len(ix.names) <= slot {
		ix.names = append(ix.names, "")
	}
	if ix.names[slot] == "" {
		ix.names[slot] = name
	}
}

// VisitEvents indexes every event of a stream in order, rebinding the
// event date to each event's own reference date first.
func (ix *Indexer) VisitEvents(stream *EventStream) error {
	for _, event := range stream.Events() {
		ix.SetEventDate(event.ReferenceDate())
		if err := ix.Visit(event.Tree()); err != nil {
			return err
		}
	}
	return nil
}
