package eval

import (
	"strings"
	"testing"

	"payscript/internal/market"
)

func compileStream(t *testing.T, scripts ...string) (*EventStream, *Indexer) {
	t.Helper()
	coded := make([]CodedEvent, len(scripts))
	for i, s := range scripts {
		coded[i] = CodedEvent{ReferenceDate: market.NewDate(2024, 6, 1+i), Script: s}
	}
	stream, err := CompileEvents(coded)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	ix := NewIndexer()
	if err := ix.VisitEvents(stream); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	return stream, ix
}

func TestStreamSingleScenario(t *testing.T) {
	stream, ix := compileStream(t, `
		x = 1;
		y = 2;
		z = x + y;
	`)
	se := NewStreamEvaluator(ix.VariableCount())
	got, err := se.Evaluate(stream, []market.Scenario{{}})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	want := []Value{NewNumber(1), NewNumber(2), NewNumber(3)}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("slot %d: expected %v, got %v", i, w, got[i])
		}
	}
}

func TestStreamMeanOfIdenticalScenarios(t *testing.T) {
	stream, ix := compileStream(t, `
		x = 1;
		y = 2;
		z = x + y;
	`)
	se := NewStreamEvaluator(ix.VariableCount())
	scenarios := make([]market.Scenario, 10)
	got, err := se.Evaluate(stream, scenarios)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	// Mean of N identical results is exactly that result.
	want := []Value{NewNumber(1), NewNumber(2), NewNumber(3)}
	for i, w := range want {
		if got[i] != w {
			t.Errorf("slot %d: expected %v, got %v", i, w, got[i])
		}
	}
}

func TestStreamZeroScenariosIsAnError(t *testing.T) {
	stream, ix := compileStream(t, "x = 1;")
	se := NewStreamEvaluator(ix.VariableCount())
	_, err := se.Evaluate(stream, nil)
	if err == nil || !strings.Contains(err.Error(), "no scenarios") {
		t.Errorf("expected no-scenarios error, got %v", err)
	}
}

func TestStreamAveragesSpotAcrossScenarios(t *testing.T) {
	stream, ix := compileStream(t, `v = spot("EUR");`)
	se := NewStreamEvaluator(ix.VariableCount())

	scenarios := []market.Scenario{
		{market.NewData(1.0, 1)},
		{market.NewData(1.2, 1)},
		{market.NewData(1.4, 1)},
		{market.NewData(1.8, 1)},
	}
	got, err := se.Evaluate(stream, scenarios)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	v, ok := got[0].Number()
	if !ok {
		t.Fatalf("expected a number, got %v", got[0])
	}
	want := (1.0 + 1.2 + 1.4 + 1.8) / 4
	if diff := v - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("expected about %v, got %v", want, v)
	}
}

func TestStreamDiscountsByNumeraire(t *testing.T) {
	stream, ix := compileStream(t, "v = pays 100;")
	se := NewStreamEvaluator(ix.VariableCount())

	scenarios := []market.Scenario{
		{market.NewData(0, 2)},
		{market.NewData(0, 4)},
	}
	got, err := se.Evaluate(stream, scenarios)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	v, _ := got[0].Number()
	if v != (100.0/2+100.0/4)/2 {
		t.Errorf("expected 37.5, got %v", v)
	}
}

func TestStreamNonNumericSlotsPassThrough(t *testing.T) {
	stream, ix := compileStream(t, `
		label = "knock-in";
		armed = true;
		x = 1;
	`)
	se := NewStreamEvaluator(ix.VariableCount())
	got, err := se.Evaluate(stream, make([]market.Scenario, 3))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got[0] != NewString("knock-in") {
		t.Errorf("string slot should pass through, got %v", got[0])
	}
	if got[1] != NewBool(true) {
		t.Errorf("boolean slot should pass through, got %v", got[1])
	}
	if got[2] != NewNumber(1) {
		t.Errorf("numeric slot should average, got %v", got[2])
	}
}

func TestStreamScenarioErrorFailsEverything(t *testing.T) {
	stream, ix := compileStream(t, `v = spot("EUR");`)
	se := NewStreamEvaluator(ix.VariableCount())

	// The second scenario is missing the spot snapshot.
	scenarios := []market.Scenario{
		{market.NewData(1.1, 1)},
		{},
		{market.NewData(1.2, 1)},
	}
	_, err := se.Evaluate(stream, scenarios)
	if err == nil || !strings.Contains(err.Error(), "missing from scenario") {
		t.Errorf("expected missing-snapshot error, got %v", err)
	}
}

func TestStreamMultipleEvents(t *testing.T) {
	stream, ix := compileStream(t,
		"x = 1;",
		"x = x + 1; y = x * 10;",
	)
	se := NewStreamEvaluator(ix.VariableCount())
	got, err := se.Evaluate(stream, []market.Scenario{{}})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got[0] != NewNumber(2) || got[1] != NewNumber(20) {
		t.Errorf("events should evaluate in order on shared slots, got %v", got)
	}
}

func TestStreamWorkerOption(t *testing.T) {
	stream, ix := compileStream(t, "x = 1;")
	se := NewStreamEvaluator(ix.VariableCount(), WithWorkers(2))
	got, err := se.Evaluate(stream, make([]market.Scenario, 100))
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if got[0] != NewNumber(1) {
		t.Errorf("expected 1, got %v", got[0])
	}
}

func TestEventDates(t *testing.T) {
	stream, _ := compileStream(t, "x = 1;", "x = 2;", "x = 3;")
	dates := stream.EventDates()
	if len(dates) != 3 {
		t.Fatalf("expected 3 dates, got %d", len(dates))
	}
	for i, d := range dates {
		want := market.NewDate(2024, 6, 1+i)
		if !d.Equal(want) {
			t.Errorf("date %d: expected %s, got %s", i, want, d)
		}
	}
}
