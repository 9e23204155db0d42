package eval

import (
	"math"
	"strings"
	"testing"

	"payscript/internal/expr"
	"payscript/internal/market"
	"payscript/internal/parser"
)

// run parses, indexes, and evaluates a script with no scenario bound.
func run(t *testing.T, script string) []Value {
	t.Helper()
	tree, err := parser.ParseString(script)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ix := NewIndexer()
	if err := ix.Visit(tree); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	e := New(WithVariables(ix.VariableCount()))
	if err := e.Run(tree); err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	return e.Variables()
}

// wantNumbers compares within a small relative tolerance: constant
// expressions in expectations fold exactly while the evaluator rounds
// per operation, so decimal operands like 1.1 differ in the last ulps.
func wantNumbers(t *testing.T, got []Value, want ...float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d variables, got %d", len(want), len(got))
	}
	for i, w := range want {
		n, ok := got[i].Number()
		if !ok || math.Abs(n-w) > 1e-9*math.Max(1, math.Abs(w)) {
			t.Errorf("variable %d: expected %v, got %v", i, w, got[i])
		}
	}
}

func TestSimpleAddition(t *testing.T) {
	vars := run(t, `
		x = 1;
		y = 2;
		z = x + y;
	`)
	wantNumbers(t, vars, 1, 2, 3)
}

func TestArithmetic(t *testing.T) {
	vars := run(t, "a = (1 + 2) * 3 - 8 / 2")
	wantNumbers(t, vars, 5)
}

func TestPowerLeftAssociative(t *testing.T) {
	// (2 ** 3) ** 2 = 64, not 2 ** 9 = 512.
	vars := run(t, "a = 2 ** 3 ** 2")
	wantNumbers(t, vars, 64)
}

func TestFunctions(t *testing.T) {
	vars := run(t, `
		a = min(1, 2);
		b = max(1, 2);
		c = pow(2, 3);
		d = exp(0);
		e = ln(1);
	`)
	wantNumbers(t, vars, 1, 2, 8, 1, 0)
}

func TestUnaryMinus(t *testing.T) {
	vars := run(t, "a = -3 + 1")
	wantNumbers(t, vars, -2)
}

func TestIfConditionNotTaken(t *testing.T) {
	vars := run(t, `
		x = 2;
		y = 2;
		z = x + y;
		if x == 1 {
			z = 3;
		}
	`)
	wantNumbers(t, vars, 2, 2, 4)
}

func TestIfConditionTaken(t *testing.T) {
	vars := run(t, `
		x = 1;
		z = 0;
		if x == 1 {
			z = 3;
		}
	`)
	wantNumbers(t, vars, 1, 3)
}

func TestIfElse(t *testing.T) {
	vars := run(t, `
		x = 2;
		y = 2;
		z = x + y;
		if x == 1 {
			z = 3;
		} else {
			z = 4;
		}
	`)
	wantNumbers(t, vars, 2, 2, 4)
}

func TestNestedIfElse(t *testing.T) {
	vars := run(t, `
		x = 2;
		y = 2;
		z = x + y;
		if x == 1 {
			z = 3;
		} else {
			if y == 1 {
				z = 4;
			} else {
				z = 5;
			}
		}
	`)
	wantNumbers(t, vars, 2, 2, 5)
}

func TestSequentialIfs(t *testing.T) {
	vars := run(t, `
		x = 2;
		y = 2;
		z = x + y;
		if x == 1 {
			z = 3;
		}
		if y == 1 {
			z = 4;
		} else {
			z = 5;
		}
	`)
	wantNumbers(t, vars, 2, 2, 5)
}

func TestUntakenBranchVariableStaysNull(t *testing.T) {
	vars := run(t, `
		x = 2;
		y = 2;
		z = x + y;
		if x == 1 {
			z = 3;
			w = 4;
		}
	`)
	if len(vars) != 4 {
		t.Fatalf("expected 4 variables, got %d", len(vars))
	}
	wantNumbers(t, vars[:3], 2, 2, 4)
	if !vars[3].IsNull() {
		t.Errorf("w should stay Null, got %v", vars[3])
	}

	vars = run(t, `
		x = 2;
		y = 2;
		z = x + y;
		if x == 2 {
			z = 3;
			w = 4;
		}
	`)
	wantNumbers(t, vars, 2, 2, 3, 4)
}

func TestStringAssignment(t *testing.T) {
	vars := run(t, `x = "Hello world";`)
	if len(vars) != 1 || vars[0] != NewString("Hello world") {
		t.Fatalf("expected String(\"Hello world\"), got %v", vars)
	}
}

func TestVariableReassignmentChangesType(t *testing.T) {
	vars := run(t, `
		x = 1;
		x = "String";
	`)
	if vars[0] != NewString("String") {
		t.Errorf("expected String, got %v", vars[0])
	}

	vars = run(t, `
		x = "String";
		x = 1;
		x = "Again";
	`)
	if vars[0] != NewString("Again") {
		t.Errorf("expected most recent assignment, got %v", vars[0])
	}
}

func TestBooleanAssignment(t *testing.T) {
	vars := run(t, "x = true; y = false")
	if vars[0] != NewBool(true) || vars[1] != NewBool(false) {
		t.Errorf("unexpected booleans: %v", vars)
	}
}

func TestComparisons(t *testing.T) {
	vars := run(t, `
		hit = 0;
		if 2 > 1 and 1 < 2 and 2 >= 2 and 2 <= 2 and 1 == 1 and 1 != 2 {
			hit = 1;
		}
	`)
	wantNumbers(t, vars, 1)
}

func TestEqualNotEqualAreComplements(t *testing.T) {
	pairs := [][2]float64{
		{1, 1}, {1, 2}, {0, 0}, {-1.5, -1.5}, {1e300, 1e300}, {1, 1 + 1e-9},
	}
	for _, p := range pairs {
		eq := New()
		if err := eq.Run(expr.NewBase(expr.NewBinary(expr.Equal,
			expr.NewNumber(p[0]), expr.NewNumber(p[1])))); err != nil {
			t.Fatalf("eval failed: %v", err)
		}
		ne := New()
		if err := ne.Run(expr.NewBase(expr.NewBinary(expr.NotEqual,
			expr.NewNumber(p[0]), expr.NewNumber(p[1])))); err != nil {
			t.Fatalf("eval failed: %v", err)
		}
		if eq.booleans[0] == ne.booleans[0] {
			t.Errorf("%v == %v and %v != %v agree; they must be complements", p[0], p[1], p[0], p[1])
		}
	}
}

func TestAndRequiresBothSides(t *testing.T) {
	vars := run(t, `
		x = 0;
		hit = 0;
		if x == 1 and x == 0 {
			hit = 1;
		}
	`)
	wantNumbers(t, vars, 0, 0)
}

func TestPurityRoundTrip(t *testing.T) {
	script := "a = ln(exp(min(2 ** 3, max(4.5, 1)) * 3 + 1 / 7))"
	first := run(t, script)
	second := run(t, script)
	if first[0] != second[0] {
		t.Errorf("two fresh evaluations differ: %v vs %v", first[0], second[0])
	}
}

func TestSpotAndPays(t *testing.T) {
	tr, err := parser.ParseString(`v = pays spot("EUR") * 100;`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ix := NewIndexer(WithLocalCurrency("USD"), WithEventDate(market.NewDate(2024, 6, 1)))
	if err := ix.Visit(tr); err != nil {
		t.Fatalf("index failed: %v", err)
	}

	// Request 0 is the spot fixing, request 1 the numeraire.
	scenario := market.Scenario{
		market.NewData(1.1, 1),
		market.NewData(0, 2),
	}
	e := New(WithVariables(ix.VariableCount()), WithScenario(scenario))
	if err := e.Run(tr); err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	vars := e.Variables()
	wantNumbers(t, vars, 1.1*100/2)
}

func TestSpotWithoutScenarioFails(t *testing.T) {
	tr, err := parser.ParseString(`v = spot("EUR");`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ix := NewIndexer(WithEventDate(market.NewDate(2024, 6, 1)))
	if err := ix.Visit(tr); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	e := New(WithVariables(ix.VariableCount()))
	err = e.Run(tr)
	if err == nil || !strings.Contains(err.Error(), "no scenario") {
		t.Errorf("expected no-scenario error, got %v", err)
	}
}

func TestUnindexedVariableFails(t *testing.T) {
	tr := expr.NewBase(expr.NewAssign(expr.NewVariable("x"), expr.NewVariable("y")))
	e := New(WithVariables(2))
	err := e.Run(tr)
	if err == nil || !strings.Contains(err.Error(), "not indexed") {
		t.Errorf("expected not-indexed error, got %v", err)
	}
}

func TestUninitializedReadFails(t *testing.T) {
	tr, err := parser.ParseString("y = x + 1")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	ix := NewIndexer()
	if err := ix.Visit(tr); err != nil {
		t.Fatalf("index failed: %v", err)
	}
	e := New(WithVariables(ix.VariableCount()))
	err = e.Run(tr)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Errorf("expected not-initialized error, got %v", err)
	}
}

func TestStackUnderflowIsAnError(t *testing.T) {
	// A malformed tree: Add with a single child.
	add := expr.NewBinary(expr.Add, expr.NewNumber(1), nil)
	add.Children = add.Children[:1]
	e := New()
	err := e.Run(expr.NewBase(add))
	if err == nil || !strings.Contains(err.Error(), "underflow") {
		t.Errorf("expected underflow error, got %v", err)
	}
}
