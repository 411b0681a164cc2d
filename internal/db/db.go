package db

import (
	"context"
	"time"
)

// Store is the document store facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	DocumentStore
	Searcher
	MappingManager
	// Kind names the backing engine, e.g. "Elasticsearch".
	Kind() string
	// Bootstrap creates the collection with the given mapping if it does not exist yet.
	Bootstrap(ctx context.Context, collection string, def *Mapping) error
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentStore provides per-id document operations. Bodies are JSON objects.
type DocumentStore interface {
	Exists(ctx context.Context, collection, id string) (bool, error)
	// Get returns ErrKeyNotFound for a missing id.
	Get(ctx context.Context, collection, id string) ([]byte, error)
	// Put creates a document. An empty id lets the store assign one;
	// a taken id returns ErrKeyExists.
	Put(ctx context.Context, collection, id string, body []byte) (string, error)
	// Index creates or fully replaces a document.
	Index(ctx context.Context, collection, id string, body []byte) (string, error)
	// Delete returns ErrKeyNotFound for a missing id.
	Delete(ctx context.Context, collection, id string) error
	DeleteAll(ctx context.Context, collection string) error
	Count(ctx context.Context, collection string) (int, error)
}

// Searcher runs windowed boolean/free-text searches.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
}

// MappingManager reads and extends field mappings.
type MappingManager interface {
	// FieldType returns ErrFieldNotMapped when the path has no mapping.
	FieldType(ctx context.Context, collection, path string) (FieldType, error)
	PutFieldMapping(ctx context.Context, collection string, m FieldMapping) error
}
