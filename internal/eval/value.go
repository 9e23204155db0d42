// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2024-2026 The payscript authors

package eval

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindNumber
	kindString
)

// Value is the dynamically typed result of a script variable: a boolean,
// a number, a string, or Null for "never assigned / unknown quantity".
// The zero value is Null. Values are comparable with ==.
type Value struct {
	kind valueKind
	b    bool
	num  float64
	str  string
}

// Null is the absent value.
var Null = Value{}

// NewBool wraps a boolean.
func NewBool(v bool) Value {
	return Value{kind: kindBool, b: v}
}

// NewNumber wraps a float.
func NewNumber(v float64) Value {
	return Value{kind: kindNumber, num: v}
}

// NewString wraps a string.
func NewString(v string) Value {
	return Value{kind: kindString, str: v}
}

// IsNull reports whether the value is Null.
func (v Value) IsNull() bool { return v.kind == kindNull }

// Bool returns the boolean payload and whether the value is a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == kindBool }

// Number returns the numeric payload and whether the value is a number.
func (v Value) Number() (float64, bool) { return v.num, v.kind == kindNumber }

// Str returns the string payload and whether the value is a string.
func (v Value) Str() (string, bool) { return v.str, v.kind == kindString }

// Add returns the sum of two numbers or the concatenation of two
// strings. Any other pairing degrades to Null; an unknown financial
// quantity is data, not a programming error.
func (v Value) Add(other Value) Value {
	switch {
	case v.kind == kindNumber && other.kind == kindNumber:
		return NewNumber(v.num + other.num)
	case v.kind == kindString && other.kind == kindString:
		return NewString(v.str + other.str)
	}
	return Null
}

// Sub returns the difference of two numbers, Null otherwise.
func (v Value) Sub(other Value) Value {
	if v.kind == kindNumber && other.kind == kindNumber {
		return NewNumber(v.num - other.num)
	}
	return Null
}

// Mul returns the product of two numbers, Null otherwise.
func (v Value) Mul(other Value) Value {
	if v.kind == kindNumber && other.kind == kindNumber {
		return NewNumber(v.num * other.num)
	}
	return Null
}

// Div returns the quotient of two numbers, Null otherwise.
func (v Value) Div(other Value) Value {
	if v.kind == kindNumber && other.kind == kindNumber {
		return NewNumber(v.num / other.num)
	}
	return Null
}

// String renders the value for CLI output.
func (v Value) String() string {
	switch v.kind {
	case kindBool:
		return strconv.FormatBool(v.b)
	case kindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case kindString:
		return strconv.Quote(v.str)
	}
	return "Null"
}

// MarshalJSON encodes a value as an externally tagged union:
// {"Bool":b}, {"Number":f}, {"String":s}, or the bare string "Null".
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case kindBool:
		return json.Marshal(map[string]bool{"Bool": v.b})
	case kindNumber:
		return json.Marshal(map[string]float64{"Number": v.num})
	case kindString:
		return json.Marshal(map[string]string{"String": v.str})
	}
	return json.Marshal("Null")
}

// UnmarshalJSON decodes the tagged union produced by MarshalJSON.
func (v *Value) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != "Null" {
			return fmt.Errorf("invalid value tag %q", tag)
		}
		*v = Null
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("invalid value %s", data)
	}
	if len(fields) != 1 {
		return fmt.Errorf("value must carry exactly one tag, got %d", len(fields))
	}
	for tag, raw := range fields {
		switch tag {
		case "Bool":
			var b bool
			if err := json.Unmarshal(raw, &b); err != nil {
				return err
			}
			*v = NewBool(b)
		case "Number":
			var n float64
			if err := json.Unmarshal(raw, &n); err != nil {
				return err
			}
			*v = NewNumber(n)
		case "String":
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return err
			}
			*v = NewString(s)
		default:
			return fmt.Errorf("invalid value tag %q", tag)
		}
	}
	return nil
}
