// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"payscript/internal/market"
)

// GBM simulates exchange rates as geometric Brownian motion with a flat
// short rate. Each currency follows its own path; the numeraire is the
// money market account exp(rate * t).
type GBM struct {
	spots map[market.Currency]float64
	drift float64
	vol   float64
	rate  float64
	seed  int64
	base  market.Date
}

// GBMOption configures the GBM generator.
type GBMOption func(*GBM)

// WithSpot sets today's exchange rate for a currency. Unlisted currencies
// start at 1.
func WithSpot(ccy market.Currency, spot float64) GBMOption {
	return func(g *GBM) { g.spots[ccy] = spot }
}

// WithDrift sets the annual drift of the simulated rates.
func WithDrift(drift float64) GBMOption {
	return func(g *GBM) { g.drift = drift }
}

// WithVolatility sets the annual volatility of the simulated rates.
func WithVolatility(vol float64) GBMOption {
	return func(g *GBM) { g.vol = vol }
}

// WithRate sets the flat short rate accrued by the numeraire.
func WithRate(rate float64) GBMOption {
	return func(g *GBM) { g.rate = rate }
}

// WithSeed sets the random seed. Runs with the same seed produce the
// same scenarios.
func WithSeed(seed int64) GBMOption {
	return func(g *GBM) { g.seed = seed }
}

// WithBaseDate sets the date the simulation starts from. Without it the
// earliest request date is used.
func WithBaseDate(base market.Date) GBMOption {
	return func(g *GBM) { g.base = base }
}

// NewGBM creates a GBM generator.
func NewGBM(opts ...GBMOption) *GBM {
	g := &GBM{
		spots: make(map[market.Currency]float64),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate simulates n paths over the request dates. Scenario i is fully
// determined by the seed and i.
func (g *GBM) Generate(reqs []market.MarketRequest, n int) ([]market.Scenario, error) {
	if n < 1 {
		return nil, fmt.Errorf("scenario count must be at least 1, got %d", n)
	}

	base := g.base
	if base.IsZero() {
		base = earliestDate(reqs)
	}
	dates := currencyDates(reqs)

	scenarios := make([]market.Scenario, n)
	for i := range scenarios {
		rng := rand.New(rand.NewSource(g.seed + int64(i)))
		levels := g.simulate(rng, base, dates)

		scenario := make(market.Scenario, len(reqs))
		for j, req := range reqs {
			t := math.Max(0, base.YearsUntil(requestDate(req)))
			numeraire := math.Exp(g.rate * t)
			fx := 1.0
			if req.ExchangeRate != nil {
				fx = levels[pathKey{req.ExchangeRate.Currency, req.ExchangeRate.Date.String()}]
			}
			scenario[j] = market.NewData(fx, numeraire)
		}
		scenarios[i] = scenario
	}
	return scenarios, nil
}

type pathKey struct {
	ccy  market.Currency
	date string
}

// simulate walks each currency forward through its sorted request dates,
// applying one lognormal increment per step.
func (g *GBM) simulate(rng *rand.Rand, base market.Date, dates map[market.Currency][]market.Date) map[pathKey]float64 {
	levels := make(map[pathKey]float64)
	ccys := make([]market.Currency, 0, len(dates))
	for ccy := range dates {
		ccys = append(ccys, ccy)
	}
	sort.Slice(ccys, func(i, j int) bool { return ccys[i] < ccys[j] })

	for _, ccy := range ccys {
		level := 1.0
		if spot, ok := g.spots[ccy]; ok {
			level = spot
		}
		prev := base
		for _, date := range dates[ccy] {
			dt := math.Max(0, prev.YearsUntil(date))
			if dt > 0 {
				z := rng.NormFloat64()
				level *= math.Exp((g.drift-0.5*g.vol*g.vol)*dt + g.vol*math.Sqrt(dt)*z)
			}
			levels[pathKey{ccy, date.String()}] = level
			prev = date
		}
	}
	return levels
}

// currencyDates groups the exchange rate request dates by currency,
// sorted and deduplicated.
func currencyDates(reqs []market.MarketRequest) map[market.Currency][]market.Date {
	byCcy := make(map[market.Currency][]market.Date)
	for _, req := range reqs {
		if req.ExchangeRate == nil {
			continue
		}
		byCcy[req.ExchangeRate.Currency] = append(byCcy[req.ExchangeRate.Currency], req.ExchangeRate.Date)
	}
	for ccy, dates := range byCcy {
		sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
		deduped := dates[:0]
		for _, d := range dates {
			if len(deduped) == 0 || !deduped[len(deduped)-1].Equal(d) {
				deduped = append(deduped, d)
			}
		}
		byCcy[ccy] = deduped
	}
	return byCcy
}

func requestDate(req market.MarketRequest) market.Date {
	if req.ExchangeRate != nil {
		return req.ExchangeRate.Date
	}
	return req.Numeraire.Date
}

func earliestDate(reqs []market.MarketRequest) market.Date {
	var earliest market.Date
	for _, req := range reqs {
		date := requestDate(req)
		if earliest.IsZero() || date.Before(earliest) {
			earliest = date
		}
	}
	return earliest
}
