package payscript

import (
	"fmt"
	"time"

	"payscript/internal/eval"
	"payscript/internal/market"
	"payscript/internal/scenario"
)

// Runtime is the payoff scripting runtime.
type Runtime struct {
	store     Store
	localCcy  market.Currency
	valueDate market.Date
	workers   int
	scenarios []market.Scenario
	generator scenario.Generator
	paths     int
}

// New creates a new runtime with the given options.
func New(opts ...Option) *Runtime {
	now := time.Now().UTC()
	r := &Runtime{
		valueDate: market.NewDate(now.Year(), now.Month(), now.Day()),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ValueDate returns the reference date used for scripts run through Run.
func (r *Runtime) ValueDate() market.Date {
	return r.valueDate
}

// Run compiles and evaluates a single script dated at the runtime's
// value date. It returns the final value of every variable slot.
func (r *Runtime) Run(script string) ([]eval.Value, error) {
	return r.RunEvents([]eval.CodedEvent{{
		ReferenceDate: r.valueDate,
		Script:        script,
	}})
}

// RunEvents compiles and evaluates an event stream. Scenarios configured
// on the runtime are averaged; without any, a configured generator is
// asked for paths, and failing that a single flat scenario quoting every
// exchange rate and numeraire at 1 is used.
func (r *Runtime) RunEvents(events []eval.CodedEvent) ([]eval.Value, error) {
	stream, err := eval.CompileEvents(events)
	if err != nil {
		return nil, err
	}

	indexer := r.newIndexer()
	if err := indexer.VisitEvents(stream); err != nil {
		return nil, err
	}

	scenarios := r.scenarios
	if len(scenarios) == 0 && r.generator != nil {
		scenarios, err = r.generator.Generate(indexer.Requests(), r.paths)
		if err != nil {
			return nil, err
		}
	}
	if len(scenarios) == 0 {
		scenarios = []market.Scenario{flatScenario(len(indexer.Requests()))}
	}

	streamOpts := []eval.StreamOption{}
	if r.workers > 0 {
		streamOpts = append(streamOpts, eval.WithWorkers(r.workers))
	}
	evaluator := eval.NewStreamEvaluator(indexer.VariableCount(), streamOpts...)
	return evaluator.Evaluate(stream, scenarios)
}

// MarketRequests compiles an event stream and returns the market data it
// needs, without evaluating it.
func (r *Runtime) MarketRequests(events []eval.CodedEvent) ([]market.MarketRequest, error) {
	stream, err := eval.CompileEvents(events)
	if err != nil {
		return nil, err
	}
	indexer := r.newIndexer()
	if err := indexer.VisitEvents(stream); err != nil {
		return nil, err
	}
	return indexer.Requests(), nil
}

// VariableNames compiles an event stream and returns the variable names
// in slot order. The result lines up with the values from RunEvents.
func (r *Runtime) VariableNames(events []eval.CodedEvent) ([]string, error) {
	stream, err := eval.CompileEvents(events)
	if err != nil {
		return nil, err
	}
	indexer := r.newIndexer()
	if err := indexer.VisitEvents(stream); err != nil {
		return nil, err
	}
	return indexer.VariableNames(), nil
}

// SaveStream persists a named event stream.
func (r *Runtime) SaveStream(name string, events []eval.CodedEvent) error {
	if r.store == nil {
		return fmt.Errorf("no store configured")
	}
	return r.store.Put(name, events)
}

// LoadStream retrieves a named event stream.
func (r *Runtime) LoadStream(name string) ([]eval.CodedEvent, error) {
	if r.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	return r.store.Get(name)
}

// DeleteStream removes a named event stream.
func (r *Runtime) DeleteStream(name string) error {
	if r.store == nil {
		return fmt.Errorf("no store configured")
	}
	return r.store.Delete(name)
}

// ListStreams returns the names of all persisted event streams.
func (r *Runtime) ListStreams() ([]string, error) {
	if r.store == nil {
		return nil, fmt.Errorf("no store configured")
	}
	return r.store.List()
}

// Close releases resources.
func (r *Runtime) Close() error {
	if r.store != nil {
		return r.store.Close()
	}
	return nil
}

func (r *Runtime) newIndexer() *eval.Indexer {
	idxOpts := []eval.IndexerOption{}
	if r.localCcy != "" {
		idxOpts = append(idxOpts, eval.WithLocalCurrency(r.localCcy))
	}
	return eval.NewIndexer(idxOpts...)
}

func flatScenario(n int) market.Scenario {
	flat := make(market.Scenario, n)
	for i := range flat {
		flat[i] = market.NewData(1, 1)
	}
	return flat
}
