package db

import "github.com/kailas-cloud/oceandb/internal/domain/search/clause"

// Reserved sort fields.
const (
	FieldID    = "_id"
	FieldScore = "_score"
)

// KeywordSuffix addresses the exact-match sub-field of a text field.
const KeywordSuffix = ".keyword"

// SortClause is a single store-native sort entry.
type SortClause struct {
	Field      string
	Descending bool
}

// Order returns "asc" or "desc".
func (s SortClause) Order() string {
	if s.Descending {
		return "desc"
	}
	return "asc"
}

// SearchQuery is the input for a windowed search.
type SearchQuery struct {
	Collection string
	// Query is the boolean filter; nil matches every document.
	Query *clause.Clause
	Sort  []SortClause
	From  int
	Size  int
	// Text is an optional free-text term evaluated by the relevance path.
	Text string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total int
	Hits  []Hit
}

// Hit is a single matching document.
type Hit struct {
	ID     string
	Score  float64
	Source []byte
}
