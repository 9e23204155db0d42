// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

// Package scenario defines market scenario generator interfaces and
// implementations.
package scenario

import (
	"fmt"

	"payscript/internal/market"
)

// Generator produces market scenarios covering a set of indexed requests.
type Generator interface {
	// Generate returns n scenarios, each with one Data entry per request.
	Generate(reqs []market.MarketRequest, n int) ([]market.Scenario, error)
}

// Fixed is a generator that quotes every request at the same levels.
// Useful for deterministic pricing and for testing.
type Fixed struct {
	fx        float64
	numeraire float64
}

// NewFixed creates a generator quoting every exchange rate at fx and the
// numeraire at numeraire.
func NewFixed(fx, numeraire float64) *Fixed {
	return &Fixed{fx: fx, numeraire: numeraire}
}

// Generate returns n identical scenarios.
func (f *Fixed) Generate(reqs []market.MarketRequest, n int) ([]market.Scenario, error) {
	if n < 1 {
		return nil, fmt.Errorf("scenario count must be at least 1, got %d", n)
	}
	scenarios := make([]market.Scenario, n)
	for i := range scenarios {
		scenario := make(market.Scenario, len(reqs))
		for j := range reqs {
			scenario[j] = market.NewData(f.fx, f.numeraire)
		}
		scenarios[i] = scenario
	}
	return scenarios, nil
}
