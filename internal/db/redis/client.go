// Package redis implements db.Store on plain Redis commands via rueidis.
//
// Documents are JSON strings under "<prefix>{<collection>}:doc:<id>". Each collection keeps
// its ids in a sorted set and its field mappings in a hash; the hash tag pins a collection
// to one cluster slot so multi-key commands stay valid.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/rueidis"

	"github.com/kailas-cloud/oceandb/internal/db"
)

// Kind is the store type identifier.
const Kind = "Redis"

// DefaultPrefix namespaces all keys written by the store.
const DefaultPrefix = "oceandb:"

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a Redis store.
type Config struct {
	Addrs    []string
	Username string
	Password string
	DB       int
	Prefix   string
}

// Store implements db.Store via rueidis.
type Store struct {
	client rueidis.Client
	prefix string
	newID  func() string
}

// NewStore creates a Redis store via rueidis.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return newStore(client, cfg.Prefix), nil
}

func newStore(c rueidis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{client: c, prefix: prefix, newID: uuid.NewString}
}

// Kind returns the store type identifier.
func (s *Store) Kind() string { return Kind }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.client.B().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

func (s *Store) do(ctx context.Context, cmd rueidis.Completed) rueidis.RedisResult {
	return s.client.Do(ctx, cmd)
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

func (s *Store) docKey(collection, id string) string {
	return s.prefix + "{" + collection + "}:doc:" + id
}

func (s *Store) idsKey(collection string) string {
	return s.prefix + "{" + collection + "}:ids"
}

func (s *Store) mappingKey(collection string) string {
	return s.prefix + "{" + collection + "}:mapping"
}

var errPathRequired = errors.New("field path is required")
