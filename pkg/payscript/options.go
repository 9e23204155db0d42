// Package payscript provides the public API for the payoff scripting runtime.
package payscript

import (
	"payscript/internal/eval"
	"payscript/internal/market"
	"payscript/internal/scenario"
	"payscript/internal/store"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithSQLiteStore configures SQLite persistence at the given path.
func WithSQLiteStore(path string) Option {
	return func(r *Runtime) {
		s, err := store.NewSQLite(path)
		if err == nil {
			r.store = s
		}
	}
}

// WithMemoryStore configures an in-memory store (for testing).
func WithMemoryStore() Option {
	return func(r *Runtime) {
		r.store = store.NewMemory()
	}
}

// WithStore configures a custom store.
func WithStore(s Store) Option {
	return func(r *Runtime) {
		r.store = s
	}
}

// WithLocalCurrency sets the local currency recorded on exchange rate
// requests during indexing.
func WithLocalCurrency(ccy Currency) Option {
	return func(r *Runtime) {
		r.localCcy = ccy
	}
}

// WithValueDate sets the reference date used for scripts run through Run.
func WithValueDate(date Date) Option {
	return func(r *Runtime) {
		r.valueDate = date
	}
}

// WithWorkers sets the number of scenario evaluation workers.
func WithWorkers(n int) Option {
	return func(r *Runtime) {
		r.workers = n
	}
}

// WithScenarios sets the market scenarios evaluation averages over.
func WithScenarios(scenarios ...Scenario) Option {
	return func(r *Runtime) {
		r.scenarios = scenarios
	}
}

// WithGenerator sets a scenario generator asked for the given number of
// paths whenever no explicit scenarios are configured.
func WithGenerator(gen Generator, paths int) Option {
	return func(r *Runtime) {
		r.generator = gen
		r.paths = paths
	}
}

// Generator produces market scenarios covering a set of indexed requests.
type Generator = scenario.Generator

// GBMOption configures the geometric Brownian motion generator.
type GBMOption = scenario.GBMOption

// Scenario generator constructors and options.
var (
	NewFixed       = scenario.NewFixed
	NewGBM         = scenario.NewGBM
	WithSpot       = scenario.WithSpot
	WithDrift      = scenario.WithDrift
	WithVolatility = scenario.WithVolatility
	WithRate       = scenario.WithRate
	WithSeed       = scenario.WithSeed
	WithBaseDate   = scenario.WithBaseDate
)

// Store interface for custom stores.
type Store = store.Store

// Value is a script value: a number, boolean, string, or Null.
type Value = eval.Value

// Null is the value of an uninitialized variable.
var Null = eval.Null

// Value constructors.
var (
	NewNumber = eval.NewNumber
	NewBool   = eval.NewBool
	NewString = eval.NewString
)

// CodedEvent is a dated script in source form.
type CodedEvent = eval.CodedEvent

// Market data types.
type (
	Currency      = market.Currency
	Date          = market.Date
	Data          = market.Data
	Scenario      = market.Scenario
	MarketRequest = market.MarketRequest
)

// Market data constructors.
var (
	NewDate   = market.NewDate
	ParseDate = market.ParseDate
	NewData   = market.NewData
)
