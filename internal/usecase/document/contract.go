package document

import (
	"context"

	"github.com/kailas-cloud/oceandb/internal/db"
	domdoc "github.com/kailas-cloud/oceandb/internal/domain/document"
	"github.com/kailas-cloud/oceandb/internal/domain/search/query"
	"github.com/kailas-cloud/oceandb/internal/domain/search/translate"
)

// Repository defines the storage contract for one collection's documents.
//
//nolint:interfacebloat // facade covers the full document lifecycle
type Repository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (domdoc.Document, error)
	Create(ctx context.Context, doc domdoc.Document) (string, error)
	Replace(ctx context.Context, doc domdoc.Document) (string, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	// Search ignores q.Collection; the repository is bound to one.
	Search(ctx context.Context, q db.SearchQuery) ([]domdoc.Document, int, error)
}

// QueryTranslator turns structured queries into clause trees.
type QueryTranslator interface {
	Translate(q query.Structured) (translate.Result, error)
}

// SortResolver turns sort specs into store-native sort clauses.
type SortResolver interface {
	Resolve(ctx context.Context, sort query.Sort) ([]db.SortClause, error)
}
