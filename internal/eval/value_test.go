package eval

import (
	"encoding/json"
	"testing"
)

func TestValueArithmetic(t *testing.T) {
	if got := NewNumber(1).Add(NewNumber(2)); got != NewNumber(3) {
		t.Errorf("1 + 2: got %v", got)
	}
	if got := NewNumber(3).Sub(NewNumber(1)); got != NewNumber(2) {
		t.Errorf("3 - 1: got %v", got)
	}
	if got := NewNumber(2).Mul(NewNumber(4)); got != NewNumber(8) {
		t.Errorf("2 * 4: got %v", got)
	}
	if got := NewNumber(8).Div(NewNumber(2)); got != NewNumber(4) {
		t.Errorf("8 / 2: got %v", got)
	}
	if got := NewString("Hello").Add(NewString(" World")); got != NewString("Hello World") {
		t.Errorf("string concat: got %v", got)
	}
}

func TestValueMismatchDegradesToNull(t *testing.T) {
	num := NewNumber(1)
	str := NewString("Hello")
	cases := []Value{
		num.Add(str),
		num.Sub(str),
		num.Mul(str),
		num.Div(str),
		str.Sub(str),
		NewBool(true).Add(NewBool(false)),
		Null.Add(num),
	}
	for i, got := range cases {
		if !got.IsNull() {
			t.Errorf("case %d: expected Null, got %v", i, got)
		}
	}
}

func TestValueJSON(t *testing.T) {
	cases := []struct {
		value Value
		wire  string
	}{
		{NewBool(true), `{"Bool":true}`},
		{NewNumber(1.5), `{"Number":1.5}`},
		{NewString("hi"), `{"String":"hi"}`},
		{Null, `"Null"`},
	}
	for _, c := range cases {
		data, err := json.Marshal(c.value)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", c.value, err)
		}
		if string(data) != c.wire {
			t.Errorf("Marshal(%v): expected %s, got %s", c.value, c.wire, data)
		}

		var back Value
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", data, err)
		}
		if back != c.value {
			t.Errorf("round trip of %v: got %v", c.value, back)
		}
	}
}

func TestValueJSONVector(t *testing.T) {
	in := []Value{NewNumber(1), NewNumber(2), Null}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `[{"Number":1},{"Number":2},"Null"]`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestValueJSONRejectsUnknownTag(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`{"Float":1}`), &v); err == nil {
		t.Error("expected error for unknown tag")
	}
	if err := json.Unmarshal([]byte(`"nope"`), &v); err == nil {
		t.Error("expected error for bad null tag")
	}
}
