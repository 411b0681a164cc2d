package document

import (
	domdoc "github.com/kailas-cloud/oceandb/internal/domain/document"
	"github.com/kailas-cloud/oceandb/internal/domain/search/query"
)

// Request is a structured search: field filters, optional sort, 1-indexed page.
type Request struct {
	Query query.Structured `json:"query"`
	Sort  query.Sort       `json:"sort,omitempty"`
	Page  int              `json:"page"`
	// Offset is the page size; zero or less selects the default.
	Offset int `json:"offset"`
}

// TextRequest is a free-text search.
type TextRequest struct {
	Text   string     `json:"text"`
	Sort   query.Sort `json:"sort,omitempty"`
	Page   int        `json:"page"`
	Offset int        `json:"offset"`
}

// Page is one window of search hits with the total match count.
type Page struct {
	Documents []domdoc.Document
	Total     int
}

// ListOptions bounds a listing. From and To are inclusive offsets in id order;
// Limit, when set, overrides the window length.
type ListOptions struct {
	From  *int
	To    *int
	Limit *int
}
