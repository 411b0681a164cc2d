package redis

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/db/eval"
)

// Search loads the collection and evaluates the query client-side.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}
	docs, err := s.load(ctx, q.Collection)
	if err != nil {
		return nil, err
	}
	return eval.Search(q, docs), nil
}

// load fetches every tracked document with one MGET. Ids whose key vanished are skipped.
func (s *Store) load(ctx context.Context, collection string) ([]eval.Doc, error) {
	ids, err := s.ids(ctx, collection)
	if err != nil || len(ids) == 0 {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.docKey(collection, id)
	}

	cmd := s.b().Mget().Key(keys...).Build()
	vals, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpLoadSources, Err: err}
	}

	docs := make([]eval.Doc, 0, len(vals))
	for i := range vals {
		if vals[i].IsNil() {
			continue
		}
		raw, err := vals[i].ToString()
		if err != nil {
			return nil, &db.Error{Op: db.OpLoadSources, Err: fmt.Errorf("key %s: %w", keys[i], err)}
		}
		d, err := eval.Decode(ids[i], []byte(raw))
		if err != nil {
			return nil, &db.Error{Op: db.OpDecode, Err: fmt.Errorf("doc %s: %w", ids[i], err)}
		}
		docs = append(docs, d)
	}
	return docs, nil
}
