package document

import (
	"context"
	"testing"

	"github.com/kailas-cloud/oceandb/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	existsFn    func(ctx context.Context, collection, id string) (bool, error)
	getFn       func(ctx context.Context, collection, id string) ([]byte, error)
	putFn       func(ctx context.Context, collection, id string, body []byte) (string, error)
	indexFn     func(ctx context.Context, collection, id string, body []byte) (string, error)
	deleteFn    func(ctx context.Context, collection, id string) error
	deleteAllFn func(ctx context.Context, collection string) error
	countFn     func(ctx context.Context, collection string) (int, error)
	searchFn    func(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	bootstrapFn func(ctx context.Context, collection string, def *db.Mapping) error
}

func (m *mockStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	if m.existsFn != nil {
		return m.existsFn(ctx, collection, id)
	}
	return false, nil
}

func (m *mockStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, collection, id)
	}
	return nil, db.ErrKeyNotFound
}

func (m *mockStore) Put(ctx context.Context, collection, id string, body []byte) (string, error) {
	if m.putFn != nil {
		return m.putFn(ctx, collection, id, body)
	}
	return id, nil
}

func (m *mockStore) Index(ctx context.Context, collection, id string, body []byte) (string, error) {
	if m.indexFn != nil {
		return m.indexFn(ctx, collection, id, body)
	}
	return id, nil
}

func (m *mockStore) Delete(ctx context.Context, collection, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, collection, id)
	}
	return nil
}

func (m *mockStore) DeleteAll(ctx context.Context, collection string) error {
	if m.deleteAllFn != nil {
		return m.deleteAllFn(ctx, collection)
	}
	return nil
}

func (m *mockStore) Count(ctx context.Context, collection string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, collection)
	}
	return 0, nil
}

func (m *mockStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (m *mockStore) Bootstrap(ctx context.Context, collection string, def *db.Mapping) error {
	if m.bootstrapFn != nil {
		return m.bootstrapFn(ctx, collection, def)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	return New(ms, "oceandb"), ms
}
