package query

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is one structured query entry: a field name and its filter values.
type Field struct {
	Name   string
	Values []Value
}

// Structured is an ordered field -> values mapping.
// Each name appears at most once; setting an existing name keeps its position.
type Structured struct {
	fields []Field
}

// New builds a structured query from fields in the given order.
func New(fields ...Field) Structured {
	var q Structured
	for _, f := range fields {
		q.Set(f.Name, f.Values...)
	}
	return q
}

// Set stores values for name.
func (q *Structured) Set(name string, values ...Value) {
	vals := append([]Value{}, values...)
	for i := range q.fields {
		if q.fields[i].Name == name {
			q.fields[i].Values = vals
			return
		}
	}
	q.fields = append(q.fields, Field{Name: name, Values: vals})
}

// Get returns the values stored for name.
func (q Structured) Get(name string) ([]Value, bool) {
	for _, f := range q.fields {
		if f.Name == name {
			return f.Values, true
		}
	}
	return nil, false
}

// Fields returns the entries in insertion order.
func (q Structured) Fields() []Field {
	out := make([]Field, len(q.fields))
	copy(out, q.fields)
	return out
}

// Len returns the number of fields.
func (q Structured) Len() int { return len(q.fields) }

// IsEmpty reports whether no field is set.
func (q Structured) IsEmpty() bool { return len(q.fields) == 0 }

// MarshalJSON encodes the query as a JSON object, preserving field order.
func (q Structured) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range q.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		vals := f.Values
		if vals == nil {
			vals = []Value{}
		}
		data, err := json.Marshal(vals)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, preserving key order.
// A scalar value is accepted as a one-element list.
func (q *Structured) UnmarshalJSON(data []byte) error {
	var out Structured
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		vals, err := decodeValues(raw)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		out.Set(key, vals...)
		return nil
	})
	if err != nil {
		return err
	}
	*q = out
	return nil
}

func decodeValues(raw json.RawMessage) ([]Value, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var vals []Value
		if err := json.Unmarshal(raw, &vals); err != nil {
			return nil, err
		}
		if vals == nil {
			vals = []Value{}
		}
		return vals, nil
	}
	var v Value
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return []Value{v}, nil
}

// decodeObject walks the members of a JSON object in document order.
func decodeObject(data []byte, fn func(key string, raw json.RawMessage) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decode object: %w", err)
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decode object: expected '{', got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decode object key: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("decode object: expected string key, got %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		if err := fn(key, raw); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decode object end: %w", err)
	}
	return nil
}
