package metrics

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/db/memory"
)

func TestMain(m *testing.M) {
	RegisterStoreMetrics()
	os.Exit(m.Run())
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, StatusOK},
		{db.ErrKeyNotFound, StatusNotFound},
		{&db.Error{Op: db.OpFieldType, Err: db.ErrFieldNotMapped}, StatusNotFound},
		{db.ErrKeyExists, StatusConflict},
		{db.ErrCollectionExists, StatusConflict},
		{errors.New("boom"), StatusError},
	}
	for _, tc := range tests {
		if got := statusOf(tc.err); got != tc.want {
			t.Errorf("statusOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestInstrumentedStore_CountsOperations(t *testing.T) {
	s := NewInstrumentedStore(memory.NewStore(), nil)
	ctx := context.Background()

	before := testutil.ToFloat64(StoreRequestsTotal.WithLabelValues(memory.Kind, db.OpPut, StatusOK))
	if _, err := s.Put(ctx, "c", "1", []byte(`{}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Put(ctx, "c", "1", []byte(`{}`)); !errors.Is(err, db.ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists, got %v", err)
	}

	if got := testutil.ToFloat64(StoreRequestsTotal.WithLabelValues(memory.Kind, db.OpPut, StatusOK)); got != before+1 {
		t.Errorf("expected ok counter %v, got %v", before+1, got)
	}
	if got := testutil.ToFloat64(StoreRequestsTotal.WithLabelValues(memory.Kind, db.OpPut, StatusConflict)); got < 1 {
		t.Errorf("expected conflict counter >= 1, got %v", got)
	}
}

func TestInstrumentedStore_Delegates(t *testing.T) {
	inner := memory.NewStore()
	s := NewInstrumentedStore(inner, nil)
	ctx := context.Background()

	if s.Kind() != memory.Kind {
		t.Errorf("expected kind %q, got %q", memory.Kind, s.Kind())
	}
	_, _ = s.Index(ctx, "c", "1", []byte(`{"v":1}`))
	if n, _ := inner.Count(ctx, "c"); n != 1 {
		t.Fatalf("expected write to reach inner store, got count %d", n)
	}
	res, err := s.Search(ctx, &db.SearchQuery{Collection: "c", Size: 10})
	if err != nil || res.Total != 1 {
		t.Fatalf("unexpected search result %+v (%v)", res, err)
	}
	if testutil.CollectAndCount(StoreRequestDuration) == 0 {
		t.Error("expected duration observations")
	}
}
