// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

package eval

import (
	"fmt"
	"runtime"
	"sync"

	"payscript/internal/market"
)

// StreamEvaluator prices an event stream over many Monte-Carlo
// scenarios and returns the element-wise mean of the numeric variable
// slots. Each scenario runs on a private Evaluator; the only shared
// mutable state is the accumulator vector behind one mutex.
type StreamEvaluator struct {
	nVars   int
	workers int
}

// StreamOption configures a StreamEvaluator.
type StreamOption func(*StreamEvaluator)

// WithWorkers caps the number of evaluation goroutines. Defaults to
// GOMAXPROCS.
func WithWorkers(n int) StreamOption {
	return func(se *StreamEvaluator) {
		if n > 0 {
			se.workers = n
		}
	}
}

// NewStreamEvaluator creates a StreamEvaluator for trees indexed to
// nVars variable slots.
func NewStreamEvaluator(nVars int, opts ...StreamOption) *StreamEvaluator {
	se := &StreamEvaluator{
		nVars:   nVars,
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(se)
	}
	return se
}

// runEvents evaluates every event of the stream on one evaluator, in
// order, against its bound scenario.
func runEvents(e *Evaluator, stream *EventStream) error {
	for _, event := range stream.Events() {
		if err := e.Run(event.Tree()); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate runs the stream once per scenario in parallel and averages
// the numeric slots. Non-numeric slots are constant across scenarios
// and pass through from the shape pass. Any scenario error fails the
// whole run; no partial result is returned.
func (se *StreamEvaluator) Evaluate(stream *EventStream, scenarios []market.Scenario) ([]Value, error) {
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios set")
	}

	// Shape pass: one sequential evaluation discovers each slot's type.
	// It binds the first scenario so spot and pays stay well defined;
	// only the resulting tags and non-numeric constants are kept.
	shaper := New(WithVariables(se.nVars), WithScenario(scenarios[0]))
	if err := runEvents(shaper, stream); err != nil {
		return nil, err
	}
	accum := shaper.Variables()
	for i, v := range accum {
		if _, ok := v.Number(); ok {
			accum[i] = NewNumber(0)
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
	)

	workers := se.workers
	if workers > len(scenarios) {
		workers = len(scenarios)
	}
	jobs := make(chan market.Scenario)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for scenario := range jobs {
				local := New(WithVariables(se.nVars), WithScenario(scenario))
				err := runEvents(local, stream)

				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					continue
				}
				for i, v := range local.Variables() {
					g, gok := accum[i].Number()
					l, lok := v.Number()
					if gok && lok {
						accum[i] = NewNumber(g + l)
					}
				}
				mu.Unlock()
			}
		}()
	}

	for _, scenario := range scenarios {
		jobs <- scenario
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	n := float64(len(scenarios))
	for i, v := range accum {
		if sum, ok := v.Number(); ok {
			accum[i] = NewNumber(sum / n)
		}
	}
	return accum, nil
}
