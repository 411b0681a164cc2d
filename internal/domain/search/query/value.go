package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Kind tags the type of a structured query value.
type Kind int

const (
	// KindString is a plain string value.
	KindString Kind = iota
	// KindNumber is a numeric value.
	KindNumber
	// KindTime is an already parsed instant.
	KindTime
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindTime:
		return "time"
	default:
		return "string"
	}
}

// Value is a single, explicitly tagged filter value.
type Value struct {
	kind Kind
	str  string
	num  float64
	at   time.Time
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Time creates a time value.
func Time(t time.Time) Value { return Value{kind: KindTime, at: t} }

// Strings turns a list of strings into string values.
func Strings(ss ...string) []Value {
	out := make([]Value, len(ss))
	for i, s := range ss {
		out[i] = String(s)
	}
	return out
}

// Numbers turns a list of numbers into numeric values.
func Numbers(ns ...float64) []Value {
	out := make([]Value, len(ns))
	for i, n := range ns {
		out[i] = Number(n)
	}
	return out
}

// Kind returns the value tag.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload (empty for non-string values).
func (v Value) Str() string { return v.str }

// Num returns the numeric payload (zero for non-numeric values).
func (v Value) Num() float64 { return v.num }

// At returns the time payload (zero for non-time values).
func (v Value) At() time.Time { return v.at }

// IsNumber reports whether the value is tagged numeric.
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Raw returns the untagged payload as it goes into a clause.
func (v Value) Raw() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindTime:
		return v.at
	default:
		return v.str
	}
}

// Text renders the value as a string for logging and free-text terms.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTime:
		return v.at.UTC().Format(time.RFC3339)
	default:
		return v.str
	}
}

// MarshalJSON encodes the payload without the tag.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Raw())
}

// UnmarshalJSON tags JSON numbers as numbers and JSON strings as strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("empty value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decode string value: %w", err)
		}
		*v = String(s)
		return nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("decode number value: %w", err)
		}
		*v = Number(n)
		return nil
	default:
		return fmt.Errorf("unsupported value %s: only strings and numbers are accepted", data)
	}
}
