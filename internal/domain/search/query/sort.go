package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Ascending is the direction value for ascending order; anything else sorts descending.
const Ascending = 1

// Descending is the conventional descending direction value.
const Descending = -1

// SortKey is a single sort entry.
type SortKey struct {
	Field     string
	Direction int
}

// IsAscending reports whether the key sorts ascending.
func (k SortKey) IsAscending() bool { return k.Direction == Ascending }

// Sort is an ordered sort spec; the first key has the highest precedence.
type Sort []SortKey

// By starts a sort spec with a single key.
func By(field string, direction int) Sort {
	return Sort{{Field: field, Direction: direction}}
}

// Then appends a lower-precedence key.
func (s Sort) Then(field string, direction int) Sort {
	return append(s, SortKey{Field: field, Direction: direction})
}

// Fields returns the sort keys' field names in order.
func (s Sort) Fields() []string {
	out := make([]string, len(s))
	for i, k := range s {
		out[i] = k.Field
	}
	return out
}

// String renders the spec like the JSON object it was decoded from.
func (s Sort) String() string {
	parts := make([]string, len(s))
	for i, k := range s {
		parts[i] = strconv.Quote(k.Field) + ": " + strconv.Itoa(k.Direction)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// MarshalJSON encodes the spec as an ordered JSON object.
func (s Sort) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(k.Direction))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes {"field": direction, ...} preserving key order.
func (s *Sort) UnmarshalJSON(data []byte) error {
	var out Sort
	err := decodeObject(data, func(key string, raw json.RawMessage) error {
		var dir int
		if err := json.Unmarshal(raw, &dir); err != nil {
			return fmt.Errorf("sort %q: direction must be an integer: %w", key, err)
		}
		out = append(out, SortKey{Field: key, Direction: dir})
		return nil
	})
	if err != nil {
		return err
	}
	*s = out
	return nil
}
