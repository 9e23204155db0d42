package payscript

import (
	"math"
	"testing"
)

func TestRunSimpleScript(t *testing.T) {
	r := New()
	defer r.Close()

	values, err := r.Run("x = 1\ny = 2\nz = x + y")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []Value{NewNumber(1), NewNumber(2), NewNumber(3)}
	if len(values) != len(want) {
		t.Fatalf("got %d values, want %d", len(values), len(want))
	}
	for i, v := range values {
		if v != want[i] {
			t.Errorf("values[%d] = %v, want %v", i, v, want[i])
		}
	}
}

func TestRunSpotDefaultsToFlatScenario(t *testing.T) {
	r := New()
	defer r.Close()

	values, err := r.Run(`v = pays spot("EUR") * 100`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(values) != 1 || values[0] != NewNumber(100) {
		t.Fatalf("values = %v, want [100]", values)
	}
}

func TestRunEventsAveragesScenarios(t *testing.T) {
	r := New(WithScenarios(
		Scenario{NewData(1.0, 1)},
		Scenario{NewData(1.5, 1)},
	))
	defer r.Close()

	date, err := ParseDate("2026-06-30")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	values, err := r.RunEvents([]CodedEvent{
		{ReferenceDate: date, Script: `v = spot("EUR") * 100`},
	})
	if err != nil {
		t.Fatalf("RunEvents: %v", err)
	}
	if len(values) != 1 {
		t.Fatalf("got %d values, want 1", len(values))
	}
	got, ok := values[0].Number()
	if !ok || math.Abs(got-125) > 1e-12 {
		t.Errorf("values[0] = %v, want 125", values[0])
	}
}

func TestRunWithGenerator(t *testing.T) {
	r := New(WithGenerator(NewFixed(1.25, 1), 4))
	defer r.Close()

	values, err := r.Run(`v = spot("EUR") * 4`)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(values) != 1 || values[0] != NewNumber(5) {
		t.Fatalf("values = %v, want [5]", values)
	}
}

func TestExplicitScenariosBeatGenerator(t *testing.T) {
	r := New(
		WithGenerator(NewFixed(9, 1), 4),
		WithScenarios(Scenario{NewData(2, 1)}),
	)
	defer r.Close()

	date, _ := ParseDate("2026-06-30")
	values, err := r.RunEvents([]CodedEvent{
		{ReferenceDate: date, Script: `v = spot("EUR")`},
	})
	if err != nil {
		t.Fatalf("RunEvents: %v", err)
	}
	if len(values) != 1 || values[0] != NewNumber(2) {
		t.Fatalf("values = %v, want [2]", values)
	}
}

func TestMarketRequests(t *testing.T) {
	r := New(WithLocalCurrency("USD"))
	defer r.Close()

	date, _ := ParseDate("2026-06-30")
	reqs, err := r.MarketRequests([]CodedEvent{
		{ReferenceDate: date, Script: `v = pays spot("EUR")`},
	})
	if err != nil {
		t.Fatalf("MarketRequests: %v", err)
	}
	if len(reqs) != 2 {
		t.Fatalf("got %d requests, want 2", len(reqs))
	}
	if reqs[0].ExchangeRate == nil || reqs[0].ExchangeRate.Currency != "EUR" {
		t.Errorf("request 0 = %v, want EUR exchange rate", reqs[0])
	}
	if reqs[0].ExchangeRate != nil && reqs[0].ExchangeRate.LocalCurrency != "USD" {
		t.Errorf("request 0 local currency = %q, want USD", reqs[0].ExchangeRate.LocalCurrency)
	}
	if reqs[1].Numeraire == nil {
		t.Errorf("request 1 = %v, want numeraire", reqs[1])
	}
}

func TestVariableNames(t *testing.T) {
	r := New()
	defer r.Close()

	date, _ := ParseDate("2026-06-30")
	names, err := r.VariableNames([]CodedEvent{
		{ReferenceDate: date, Script: "x = 1\ny = x"},
	})
	if err != nil {
		t.Fatalf("VariableNames: %v", err)
	}
	if len(names) != 2 || names[0] != "x" || names[1] != "y" {
		t.Errorf("names = %v, want [x y]", names)
	}
}

func TestStreamPersistence(t *testing.T) {
	r := New(WithMemoryStore())
	defer r.Close()

	date, _ := ParseDate("2026-06-30")
	events := []CodedEvent{{ReferenceDate: date, Script: "x = 1"}}

	if err := r.SaveStream("swap", events); err != nil {
		t.Fatalf("SaveStream: %v", err)
	}
	got, err := r.LoadStream("swap")
	if err != nil {
		t.Fatalf("LoadStream: %v", err)
	}
	if len(got) != 1 || got[0].Script != "x = 1" {
		t.Errorf("LoadStream = %v", got)
	}

	names, err := r.ListStreams()
	if err != nil {
		t.Fatalf("ListStreams: %v", err)
	}
	if len(names) != 1 || names[0] != "swap" {
		t.Errorf("ListStreams = %v, want [swap]", names)
	}

	if err := r.DeleteStream("swap"); err != nil {
		t.Fatalf("DeleteStream: %v", err)
	}
	if names, _ := r.ListStreams(); len(names) != 0 {
		t.Errorf("ListStreams after delete = %v, want empty", names)
	}
}

func TestNoStoreConfigured(t *testing.T) {
	r := New()
	defer r.Close()

	if err := r.SaveStream("swap", nil); err == nil {
		t.Fatal("expected an error without a store")
	}
	if _, err := r.LoadStream("swap"); err == nil {
		t.Fatal("expected an error without a store")
	}
}

func TestRunReportsParseErrors(t *testing.T) {
	r := New()
	defer r.Close()

	if _, err := r.Run("x = (1 + 2"); err == nil {
		t.Fatal("expected a parse error")
	}
}
