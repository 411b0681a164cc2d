package clause

import (
	"encoding/json"
	"fmt"
)

// Kind enumerates the node types of a clause tree.
type Kind int

const (
	// KindAll is a conjunction: {"bool": {"must": [...]}}.
	KindAll Kind = iota
	// KindAny is a disjunction: {"bool": {"should": [...]}}. An empty disjunction matches nothing.
	KindAny
	// KindMatch is {"match": {path: value}}.
	KindMatch
	// KindRange is {"range": {path: {"gte": lo, "lte": hi}}}.
	KindRange
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAll:
		return "must"
	case KindAny:
		return "should"
	case KindMatch:
		return "match"
	case KindRange:
		return "range"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Clause is an immutable node of a boolean query tree.
type Clause struct {
	kind     Kind
	children []Clause
	path     string
	value    any
	gte      any
	lte      any
}

// All conjoins clauses.
func All(children ...Clause) Clause {
	return Clause{kind: KindAll, children: nonNil(children)}
}

// Any disjoins clauses.
func Any(children ...Clause) Clause {
	return Clause{kind: KindAny, children: nonNil(children)}
}

// Match matches path against value.
func Match(path string, value any) Clause {
	return Clause{kind: KindMatch, path: path, value: value}
}

// Range bounds path inclusively on both ends.
func Range(path string, gte, lte any) Clause {
	return Clause{kind: KindRange, path: path, gte: gte, lte: lte}
}

// Kind returns the node type.
func (c Clause) Kind() Kind { return c.kind }

// Children returns the sub-clauses of an All/Any node.
func (c Clause) Children() []Clause {
	out := make([]Clause, len(c.children))
	copy(out, c.children)
	return out
}

// Len returns the number of sub-clauses.
func (c Clause) Len() int { return len(c.children) }

// Path returns the document path of a Match/Range node.
func (c Clause) Path() string { return c.path }

// Value returns the operand of a Match node.
func (c Clause) Value() any { return c.value }

// Bounds returns the inclusive bounds of a Range node.
func (c Clause) Bounds() (gte, lte any) { return c.gte, c.lte }

// IsMatchNothing reports whether the clause is an empty disjunction.
func (c Clause) IsMatchNothing() bool { return c.kind == KindAny && len(c.children) == 0 }

// MarshalJSON renders the clause in bool/match/range query DSL form.
func (c Clause) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case KindAll:
		return json.Marshal(map[string]any{"bool": map[string]any{"must": c.children}})
	case KindAny:
		return json.Marshal(map[string]any{"bool": map[string]any{"should": c.children}})
	case KindMatch:
		return json.Marshal(map[string]any{"match": map[string]any{c.path: c.value}})
	case KindRange:
		return json.Marshal(map[string]any{"range": map[string]any{c.path: map[string]any{"gte": c.gte, "lte": c.lte}}})
	default:
		return nil, fmt.Errorf("clause: unknown kind %d", int(c.kind))
	}
}

func nonNil(cs []Clause) []Clause {
	if cs == nil {
		return []Clause{}
	}
	return cs
}
