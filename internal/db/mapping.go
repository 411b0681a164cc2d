package db

import (
	"errors"
	"strings"
)

// FieldType is a store field datatype.
type FieldType string

const (
	// FieldText is an analyzed text field.
	FieldText FieldType = "text"
	// FieldKeyword is an exact-match field.
	FieldKeyword FieldType = "keyword"
	// FieldDate is a date field.
	FieldDate FieldType = "date"
	// FieldLong is an integer field.
	FieldLong FieldType = "long"
	// FieldDouble is a floating point field.
	FieldDouble FieldType = "double"
	// FieldBoolean is a boolean field.
	FieldBoolean FieldType = "boolean"
	// FieldObject is a nested object.
	FieldObject FieldType = "object"
)

// FieldMapping describes one mapped path.
type FieldMapping struct {
	Path string
	Type FieldType
	// Keyword adds an exact-match "keyword" sub-field (text fields only).
	Keyword bool
}

// Mapping is the field schema a collection is bootstrapped with.
type Mapping struct {
	Fields []FieldMapping
}

// Validate checks that the mapping is well-formed.
func (m *Mapping) Validate() error {
	seen := make(map[string]bool, len(m.Fields))
	for i := range m.Fields {
		f := &m.Fields[i]
		if f.Path == "" {
			return errors.New("field path is required")
		}
		if strings.HasPrefix(f.Path, ".") || strings.HasSuffix(f.Path, ".") {
			return errors.New("field path must not start or end with a dot: " + f.Path)
		}
		if seen[f.Path] {
			return errors.New("duplicate field path: " + f.Path)
		}
		seen[f.Path] = true
		if f.Type == "" {
			return errors.New("field type is required for " + f.Path)
		}
		if f.Keyword && f.Type != FieldText {
			return errors.New("keyword sub-field requires a text field: " + f.Path)
		}
	}
	return nil
}

// Lookup returns the mapping for path.
func (m *Mapping) Lookup(path string) (FieldMapping, bool) {
	for _, f := range m.Fields {
		if f.Path == path {
			return f, true
		}
	}
	return FieldMapping{}, false
}

// Properties renders the mapping as a nested "properties" tree.
func (m *Mapping) Properties() map[string]any {
	root := map[string]any{}
	for _, f := range m.Fields {
		insertProperty(root, strings.Split(f.Path, "."), f)
	}
	return root
}

// Property renders a single field definition.
func (f FieldMapping) Property() map[string]any {
	p := map[string]any{"type": string(f.Type)}
	if f.Keyword {
		p["fields"] = map[string]any{"keyword": map[string]any{"type": string(FieldKeyword)}}
	}
	return p
}

func insertProperty(props map[string]any, segments []string, f FieldMapping) {
	if len(segments) == 1 {
		props[segments[0]] = f.Property()
		return
	}
	node, ok := props[segments[0]].(map[string]any)
	if !ok {
		node = map[string]any{"properties": map[string]any{}}
		props[segments[0]] = node
	}
	children, ok := node["properties"].(map[string]any)
	if !ok {
		children = map[string]any{}
		node["properties"] = children
	}
	insertProperty(children, segments[1:], f)
}
