package oceandb

import (
	"github.com/kailas-cloud/oceandb/internal/domain"
	"github.com/kailas-cloud/oceandb/internal/domain/search/query"
)

// Query building blocks.
type (
	// StructuredQuery is an ordered list of field filters.
	StructuredQuery = query.Structured
	// Field is one filter of a StructuredQuery.
	Field = query.Field
	// Value is a tagged query value: number, string or time.
	Value = query.Value
	// Sort is an ordered list of sort keys.
	Sort = query.Sort
)

// Sort directions.
const (
	Ascending  = query.Ascending
	Descending = query.Descending
)

// Constructors.
var (
	NewQuery = query.New
	String   = query.String
	Number   = query.Number
	Time     = query.Time
	Strings  = query.Strings
	Numbers  = query.Numbers
	SortBy   = query.By
)

// Errors returned by Plugin operations. Match them with errors.Is.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrAlreadyExists    = domain.ErrAlreadyExists
	ErrUnsupportedField = domain.ErrUnsupportedField
	ErrInvalidSort      = domain.ErrInvalidSort
	ErrInvalidPage      = domain.ErrInvalidPage
)

// Document is a stored body with its id.
type Document struct {
	ID   string
	Body map[string]any
}

// Page is one window of search hits and the total match count.
type Page struct {
	Documents []Document
	Total     int
}

// ListOptions bounds List. From and To are inclusive offsets in id order;
// Limit, when set, overrides the window length.
type ListOptions struct {
	From  *int
	To    *int
	Limit *int
}

// QueryRequest is a structured search. Page is 1-indexed; PageSize <= 0 selects the default.
type QueryRequest struct {
	Query    StructuredQuery
	Sort     Sort
	Page     int
	PageSize int
}

// TextQueryRequest is a free-text search.
type TextQueryRequest struct {
	Text     string
	Sort     Sort
	Page     int
	PageSize int
}
