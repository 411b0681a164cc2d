// Package sorting turns sort specs into store-native sort clauses.
package sorting

import (
	"context"
	"errors"
	"fmt"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/domain"
	"github.com/kailas-cloud/oceandb/internal/domain/search/query"
	"github.com/kailas-cloud/oceandb/internal/domain/search/registry"
)

// mappings is the consumer interface for field mappings (ISP).
type mappings interface {
	FieldType(ctx context.Context, collection, path string) (db.FieldType, error)
	PutFieldMapping(ctx context.Context, collection string, m db.FieldMapping) error
}

// Resolver maps sort keys to paths and picks the keyword sub-field for text fields.
type Resolver struct {
	store      mappings
	collection string
	reg        registry.Registry
}

// New creates a resolver for one collection.
func New(s mappings, collection string, reg registry.Registry) *Resolver {
	return &Resolver{store: s, collection: collection, reg: reg}
}

// Resolve registers missing mappings, then builds the sort clauses.
func (r *Resolver) Resolve(ctx context.Context, sort query.Sort) ([]db.SortClause, error) {
	if err := r.Ensure(ctx, sort); err != nil {
		return nil, err
	}
	return r.Clauses(ctx, sort)
}

// Ensure maps every unmapped sort field as text with a keyword sub-field, so it can be sorted on.
func (r *Resolver) Ensure(ctx context.Context, sort query.Sort) error {
	for _, k := range sort {
		path := r.reg.Resolve(k.Field)
		if reserved(path) {
			continue
		}
		_, err := r.store.FieldType(ctx, r.collection, path)
		if err == nil || !errors.Is(err, db.ErrFieldNotMapped) {
			// Other lookup failures surface from Clauses as an invalid sort.
			continue
		}
		m := db.FieldMapping{Path: path, Type: db.FieldText, Keyword: true}
		if err := r.store.PutFieldMapping(ctx, r.collection, m); err != nil {
			return fmt.Errorf("map sort field %s: %w", path, err)
		}
	}
	return nil
}

// Clauses builds one sort clause per key. Text fields sort on their keyword sub-field.
func (r *Resolver) Clauses(ctx context.Context, sort query.Sort) ([]db.SortClause, error) {
	out := make([]db.SortClause, 0, len(sort))
	for _, k := range sort {
		path := r.reg.Resolve(k.Field)
		if !reserved(path) {
			ft, err := r.store.FieldType(ctx, r.collection, path)
			if err != nil {
				return nil, &domain.InvalidSortError{Sort: sort.String(), Err: err}
			}
			if ft == db.FieldText {
				path += db.KeywordSuffix
			}
		}
		out = append(out, db.SortClause{Field: path, Descending: !k.IsAscending()})
	}
	return out, nil
}

func reserved(path string) bool {
	return path == db.FieldID || path == db.FieldScore
}
