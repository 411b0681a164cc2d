package metrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/oceandb/internal/db"
)

// Namespace prefixes every exported metric.
const Namespace = "oceandb"

// Store operation metrics.
var (
	StoreRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "store_requests_total",
			Help:      "Total number of document store operations",
		},
		[]string{"store", "op", "status"},
	)

	StoreRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "store_request_duration_seconds",
			Help:      "Document store operation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"store", "op"},
	)
)

var registerStore sync.Once

// RegisterStoreMetrics registers the store metrics with the default registry. Safe to call repeatedly.
func RegisterStoreMetrics() {
	registerStore.Do(func() {
		prometheus.MustRegister(StoreRequestsTotal, StoreRequestDuration)
	})
}

// Status label values.
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusConflict = "conflict"
	StatusError    = "error"
)

func statusOf(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, db.ErrKeyNotFound), errors.Is(err, db.ErrFieldNotMapped):
		return StatusNotFound
	case errors.Is(err, db.ErrKeyExists), errors.Is(err, db.ErrCollectionExists):
		return StatusConflict
	default:
		return StatusError
	}
}

// Compile-time check: InstrumentedStore implements db.Store.
var _ db.Store = (*InstrumentedStore)(nil)

// InstrumentedStore wraps a db.Store with per-operation metrics and error logging.
type InstrumentedStore struct {
	inner  db.Store
	kind   string
	logger *zap.Logger
}

// NewInstrumentedStore wraps inner. logger may be nil.
func NewInstrumentedStore(inner db.Store, logger *zap.Logger) *InstrumentedStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstrumentedStore{inner: inner, kind: inner.Kind(), logger: logger}
}

func (s *InstrumentedStore) observe(op string, start time.Time, err error) {
	status := statusOf(err)
	StoreRequestsTotal.WithLabelValues(s.kind, op, status).Inc()
	StoreRequestDuration.WithLabelValues(s.kind, op).Observe(time.Since(start).Seconds())
	if status == StatusError {
		s.logger.Warn("Store operation failed",
			zap.String("store", s.kind),
			zap.String("op", op),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
	}
}

// Kind returns the wrapped store's kind.
func (s *InstrumentedStore) Kind() string { return s.kind }

// Close closes the wrapped store.
func (s *InstrumentedStore) Close() { s.inner.Close() }

// WaitForReady delegates unrecorded.
func (s *InstrumentedStore) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return s.inner.WaitForReady(ctx, timeout)
}

// Ping delegates and records the outcome.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.inner.Ping(ctx)
	s.observe(db.OpPing, start, err)
	return err
}

// Bootstrap delegates and records the outcome.
func (s *InstrumentedStore) Bootstrap(ctx context.Context, collection string, def *db.Mapping) error {
	start := time.Now()
	err := s.inner.Bootstrap(ctx, collection, def)
	s.observe(db.OpBootstrap, start, err)
	return err
}

func (s *InstrumentedStore) Exists(ctx context.Context, collection, id string) (bool, error) {
	start := time.Now()
	ok, err := s.inner.Exists(ctx, collection, id)
	s.observe(db.OpExists, start, err)
	return ok, err
}

func (s *InstrumentedStore) Get(ctx context.Context, collection, id string) ([]byte, error) {
	start := time.Now()
	body, err := s.inner.Get(ctx, collection, id)
	s.observe(db.OpGet, start, err)
	return body, err
}

func (s *InstrumentedStore) Put(ctx context.Context, collection, id string, body []byte) (string, error) {
	start := time.Now()
	newID, err := s.inner.Put(ctx, collection, id, body)
	s.observe(db.OpPut, start, err)
	return newID, err
}

func (s *InstrumentedStore) Index(ctx context.Context, collection, id string, body []byte) (string, error) {
	start := time.Now()
	newID, err := s.inner.Index(ctx, collection, id, body)
	s.observe(db.OpIndex, start, err)
	return newID, err
}

func (s *InstrumentedStore) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := s.inner.Delete(ctx, collection, id)
	s.observe(db.OpDelete, start, err)
	return err
}

func (s *InstrumentedStore) DeleteAll(ctx context.Context, collection string) error {
	start := time.Now()
	err := s.inner.DeleteAll(ctx, collection)
	s.observe(db.OpDeleteAll, start, err)
	return err
}

func (s *InstrumentedStore) Count(ctx context.Context, collection string) (int, error) {
	start := time.Now()
	n, err := s.inner.Count(ctx, collection)
	s.observe(db.OpCount, start, err)
	return n, err
}

func (s *InstrumentedStore) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	start := time.Now()
	res, err := s.inner.Search(ctx, q)
	s.observe(db.OpSearch, start, err)
	return res, err
}

func (s *InstrumentedStore) FieldType(ctx context.Context, collection, path string) (db.FieldType, error) {
	start := time.Now()
	ft, err := s.inner.FieldType(ctx, collection, path)
	s.observe(db.OpFieldType, start, err)
	return ft, err
}

func (s *InstrumentedStore) PutFieldMapping(ctx context.Context, collection string, m db.FieldMapping) error {
	start := time.Now()
	err := s.inner.PutFieldMapping(ctx, collection, m)
	s.observe(db.OpPutMapping, start, err)
	return err
}
