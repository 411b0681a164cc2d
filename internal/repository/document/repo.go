// Package document persists documents of one collection through a db.Store.
package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/domain"
	domdoc "github.com/kailas-cloud/oceandb/internal/domain/document"
)

// store is the consumer interface for documents (ISP).
//
//nolint:interfacebloat // document repo needs CRUD, search and bootstrap
type store interface {
	Exists(ctx context.Context, collection, id string) (bool, error)
	Get(ctx context.Context, collection, id string) ([]byte, error)
	Put(ctx context.Context, collection, id string, body []byte) (string, error)
	Index(ctx context.Context, collection, id string, body []byte) (string, error)
	Delete(ctx context.Context, collection, id string) error
	DeleteAll(ctx context.Context, collection string) error
	Count(ctx context.Context, collection string) (int, error)
	Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error)
	Bootstrap(ctx context.Context, collection string, def *db.Mapping) error
}

// Repo implements usecase/document.Repository.
type Repo struct {
	store      store
	collection string
}

// New creates a document repository bound to one collection.
func New(s store, collection string) *Repo {
	return &Repo{store: s, collection: collection}
}

// Collection returns the bound collection name.
func (r *Repo) Collection() string { return r.collection }

// Bootstrap creates the collection with def. An existing collection is left as is.
func (r *Repo) Bootstrap(ctx context.Context, def *db.Mapping) (created bool, err error) {
	if err := r.store.Bootstrap(ctx, r.collection, def); err != nil {
		if errors.Is(err, db.ErrCollectionExists) {
			return false, nil
		}
		return false, fmt.Errorf("bootstrap %s: %w", r.collection, err)
	}
	return true, nil
}

// Exists reports whether id is stored.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := r.store.Exists(ctx, r.collection, id)
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", id, err)
	}
	return ok, nil
}

// Get returns a document by id.
func (r *Repo) Get(ctx context.Context, id string) (domdoc.Document, error) {
	raw, err := r.store.Get(ctx, r.collection, id)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domdoc.Document{}, &domain.NotFoundError{ID: id}
		}
		return domdoc.Document{}, fmt.Errorf("get %s: %w", id, err)
	}
	return decode(id, raw)
}

// Create stores a new document; an empty id lets the store assign one.
func (r *Repo) Create(ctx context.Context, doc domdoc.Document) (string, error) {
	data, err := json.Marshal(doc.Body())
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	id, err := r.store.Put(ctx, r.collection, doc.ID(), data)
	if err != nil {
		if errors.Is(err, db.ErrKeyExists) {
			return "", &domain.AlreadyExistsError{ID: doc.ID()}
		}
		return "", fmt.Errorf("put %s: %w", doc.ID(), err)
	}
	return id, nil
}

// Replace creates or fully replaces a document.
func (r *Repo) Replace(ctx context.Context, doc domdoc.Document) (string, error) {
	data, err := json.Marshal(doc.Body())
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	id, err := r.store.Index(ctx, r.collection, doc.ID(), data)
	if err != nil {
		return "", fmt.Errorf("index %s: %w", doc.ID(), err)
	}
	return id, nil
}

// Delete removes a document.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, r.collection, id); err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return &domain.NotFoundError{ID: id}
		}
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

// DeleteAll removes every document of the collection.
func (r *Repo) DeleteAll(ctx context.Context) error {
	if err := r.store.DeleteAll(ctx, r.collection); err != nil {
		return fmt.Errorf("delete all: %w", err)
	}
	return nil
}

// Count returns the raw store count.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx, r.collection)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return n, nil
}

// Search runs one windowed search over the bound collection and decodes the hits.
func (r *Repo) Search(ctx context.Context, q db.SearchQuery) ([]domdoc.Document, int, error) {
	q.Collection = r.collection
	res, err := r.store.Search(ctx, &q)
	if err != nil {
		return nil, 0, fmt.Errorf("search: %w", err)
	}

	docs := make([]domdoc.Document, 0, len(res.Hits))
	for _, h := range res.Hits {
		d, err := decode(h.ID, h.Source)
		if err != nil {
			return nil, 0, err
		}
		docs = append(docs, d)
	}
	return docs, res.Total, nil
}

func decode(id string, raw []byte) (domdoc.Document, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return domdoc.Document{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return domdoc.New(id, body), nil
}
