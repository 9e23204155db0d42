// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

// Package market defines the boundary types shared with scenario
// generators: dates, currencies, per-scenario observables, and the
// request records an indexed script emits.
package market

import (
	"fmt"
	"time"
)

// Currency is an ISO-4217 style currency code, e.g. "EUR".
type Currency string

// Date is a civil date. The wire format is "2006-01-02".
type Date struct {
	t time.Time
}

const dateLayout = "2006-01-02"

// NewDate builds a Date from year, month, and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "2006-01-02" date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return Date{t: t}, nil
}

// String returns the date in "2006-01-02" form.
func (d Date) String() string {
	return d.t.Format(dateLayout)
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// Equal reports whether two dates name the same day.
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// YearsUntil returns the ACT/365 year fraction from d to other.
// It is negative when other is earlier than d.
func (d Date) YearsUntil(other Date) float64 {
	return other.t.Sub(d.t).Hours() / (24 * 365)
}

// MarshalJSON encodes the date as a "2006-01-02" JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.t.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON decodes a "2006-01-02" JSON string.
func (d *Date) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("invalid date %s", data)
	}
	parsed, err := ParseDate(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Data is one simulated observable: an exchange rate fixing and the
// numeraire at the same point of the path.
type Data struct {
	fx        float64
	numeraire float64
}

// NewData builds a Data observation.
func NewData(fx, numeraire float64) Data {
	return Data{fx: fx, numeraire: numeraire}
}

// Fx returns the simulated exchange rate.
func (d Data) Fx() float64 {
	return d.fx
}

// Numeraire returns the simulated numeraire value.
func (d Data) Numeraire() float64 {
	return d.numeraire
}

// Scenario is one simulated path. It is indexed by market request id, so
// the generator must produce entries in the exact order of the request
// list handed out by indexing.
type Scenario []Data

// ExchangeRateRequest asks for a currency fixing on a date, quoted
// against the configured local currency when one is set.
type ExchangeRateRequest struct {
	Currency      Currency `json:"currency"`
	LocalCurrency Currency `json:"localCurrency,omitempty"`
	Date          Date     `json:"date"`
}

// NumeraireRequest asks for the numeraire value on a payment date.
type NumeraireRequest struct {
	Date Date `json:"date"`
}

// MarketRequest is one entry of the request list a script produces
// during indexing. Exactly one of ExchangeRate or Numeraire is set.
type MarketRequest struct {
	ID           int                  `json:"id"`
	ExchangeRate *ExchangeRateRequest `json:"exchangeRate,omitempty"`
	Numeraire    *NumeraireRequest    `json:"numeraire,omitempty"`
}

// String renders a request for diagnostics.
func (m MarketRequest) String() string {
	switch {
	case m.ExchangeRate != nil:
		return fmt.Sprintf("request %d: fx %s on %s", m.ID, m.ExchangeRate.Currency, m.ExchangeRate.Date)
	case m.Numeraire != nil:
		return fmt.Sprintf("request %d: numeraire on %s", m.ID, m.Numeraire.Date)
	}
	return fmt.Sprintf("request %d: empty", m.ID)
}
