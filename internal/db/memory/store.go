// Package memory is an in-process db.Store used by tests and the "memory" driver.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/db/eval"
)

// Kind is the store type identifier.
const Kind = "Memory"

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type collection struct {
	docs     map[string][]byte
	mappings map[string]db.FieldMapping
}

// Store keeps collections in memory. Safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
	newID       func() string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		collections: make(map[string]*collection),
		newID:       uuid.NewString,
	}
}

// Kind returns the store type identifier.
func (s *Store) Kind() string { return Kind }

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Bootstrap creates the collection and records its mapping.
func (s *Store) Bootstrap(_ context.Context, name string, def *db.Mapping) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; ok {
		return db.ErrCollectionExists
	}
	c := s.coll(name)
	if def != nil {
		for _, f := range def.Fields {
			c.mappings[f.Path] = f
		}
	}
	return nil
}

// Exists reports whether id is stored.
func (s *Store) Exists(_ context.Context, name, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return false, nil
	}
	_, ok = c.docs[id]
	return ok, nil
}

// Get returns a copy of the stored body.
func (s *Store) Get(_ context.Context, name, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	body, ok := c.docs[id]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return slices.Clone(body), nil
}

// Put creates a document, assigning a UUID when id is empty.
func (s *Store) Put(_ context.Context, name, id string, body []byte) (string, error) {
	if err := validBody(body); err != nil {
		return "", &db.Error{Op: db.OpPut, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(name)
	if id == "" {
		id = s.newID()
	}
	if _, ok := c.docs[id]; ok {
		return "", db.ErrKeyExists
	}
	c.docs[id] = slices.Clone(body)
	return id, nil
}

// Index creates or replaces a document.
func (s *Store) Index(_ context.Context, name, id string, body []byte) (string, error) {
	if err := validBody(body); err != nil {
		return "", &db.Error{Op: db.OpIndex, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		id = s.newID()
	}
	s.coll(name).docs[id] = slices.Clone(body)
	return id, nil
}

// Delete removes a document.
func (s *Store) Delete(_ context.Context, name, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return db.ErrKeyNotFound
	}
	if _, ok := c.docs[id]; !ok {
		return db.ErrKeyNotFound
	}
	delete(c.docs, id)
	return nil
}

// DeleteAll removes every document, keeping mappings.
func (s *Store) DeleteAll(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.collections[name]; ok {
		c.docs = make(map[string][]byte)
	}
	return nil
}

// Count returns the number of documents in a collection.
func (s *Store) Count(_ context.Context, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return 0, nil
	}
	return len(c.docs), nil
}

// Search evaluates the query over a snapshot of the collection.
func (s *Store) Search(_ context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	docs, err := s.snapshot(q.Collection)
	if err != nil {
		return nil, err
	}
	return eval.Search(q, docs), nil
}

// FieldType prefers explicit mappings and falls back to inferring from stored documents.
func (s *Store) FieldType(_ context.Context, name, path string) (db.FieldType, error) {
	s.mu.RLock()
	c, ok := s.collections[name]
	if ok {
		if m, found := c.mappings[path]; found {
			s.mu.RUnlock()
			return m.Type, nil
		}
	}
	s.mu.RUnlock()

	docs, err := s.snapshot(name)
	if err != nil {
		return "", err
	}
	if t, ok := eval.InferType(docs, path); ok {
		return t, nil
	}
	return "", db.ErrFieldNotMapped
}

// PutFieldMapping records a mapping for path.
func (s *Store) PutFieldMapping(_ context.Context, name string, m db.FieldMapping) error {
	if m.Path == "" {
		return &db.Error{Op: db.OpPutMapping, Err: fmt.Errorf("field path is required")}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.coll(name).mappings[m.Path] = m
	return nil
}

func (s *Store) snapshot(name string) ([]eval.Doc, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return nil, nil
	}
	docs := make([]eval.Doc, 0, len(c.docs))
	for id, src := range c.docs {
		d, err := eval.Decode(id, src)
		if err != nil {
			return nil, &db.Error{Op: db.OpDecode, Err: err}
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// coll returns the named collection, creating it. Caller holds the write lock.
func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{
			docs:     make(map[string][]byte),
			mappings: make(map[string]db.FieldMapping),
		}
		s.collections[name] = c
	}
	return c
}

func validBody(body []byte) error {
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return fmt.Errorf("body must be a JSON object: %w", err)
	}
	return nil
}
