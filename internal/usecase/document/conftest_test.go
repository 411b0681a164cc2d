package document

import (
	"context"
	"strconv"
	"testing"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/db/memory"
	domdoc "github.com/kailas-cloud/oceandb/internal/domain/document"
	"github.com/kailas-cloud/oceandb/internal/domain/search/registry"
	"github.com/kailas-cloud/oceandb/internal/domain/search/translate"
	repodoc "github.com/kailas-cloud/oceandb/internal/repository/document"
	"github.com/kailas-cloud/oceandb/internal/repository/sorting"
)

const testCollection = "oceandb"

// countingRepo wraps a Repository and records every search it forwards.
type countingRepo struct {
	Repository
	searches []db.SearchQuery
	calls    int
}

func (c *countingRepo) Search(ctx context.Context, q db.SearchQuery) ([]domdoc.Document, int, error) {
	c.calls++
	c.searches = append(c.searches, q)
	return c.Repository.Search(ctx, q)
}

func (c *countingRepo) Count(ctx context.Context) (int, error) {
	c.calls++
	return c.Repository.Count(ctx)
}

func (c *countingRepo) Exists(ctx context.Context, id string) (bool, error) {
	c.calls++
	return c.Repository.Exists(ctx, id)
}

// newTestService wires the service over an in-memory store, the current registry and the real
// translator and sort resolver.
func newTestService(t *testing.T) (*Service, *countingRepo) {
	t.Helper()
	store := memory.NewStore()
	reg := registry.Current()
	repo := &countingRepo{Repository: repodoc.New(store, testCollection)}
	svc := New(repo, translate.New(reg, nil), sorting.New(store, testCollection, reg), nil)
	return svc, repo
}

// seed writes n documents with ids "0".."n-1" and a "value" field "test<i>".
func seed(t *testing.T, svc *Service, n int) {
	t.Helper()
	for i := range n {
		id := strconv.Itoa(i)
		if _, err := svc.Write(context.Background(), map[string]any{"value": "test" + id}, id); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}
}

func ids(docs []domdoc.Document) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID()
	}
	return out
}

func ptr(n int) *int { return &n }
