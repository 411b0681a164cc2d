package chi

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kailas-cloud/oceandb/internal/db/memory"
	domdoc "github.com/kailas-cloud/oceandb/internal/domain/document"
	"github.com/kailas-cloud/oceandb/internal/domain/search/registry"
	"github.com/kailas-cloud/oceandb/internal/domain/search/translate"
	repodoc "github.com/kailas-cloud/oceandb/internal/repository/document"
	"github.com/kailas-cloud/oceandb/internal/repository/sorting"
	documentuc "github.com/kailas-cloud/oceandb/internal/usecase/document"
	healthuc "github.com/kailas-cloud/oceandb/internal/usecase/health"
)

const testCollection = "oceandb"

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	store := memory.NewStore()
	reg := registry.Current()
	repo := repodoc.New(store, testCollection)
	docs := documentuc.New(repo, translate.New(reg, nil), sorting.New(store, testCollection, reg), nil)
	health := healthuc.New(store, repo, memory.Kind)
	return NewServer(docs, health, nil).Handler()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, http.NoBody)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rr.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rr.Body.String())
	}
	return v
}

func asset(cost float64) string {
	b, _ := json.Marshal(map[string]any{
		"service": map[string]any{"attributes": map[string]any{"main": map[string]any{"cost": cost}}},
	})
	return string(b)
}

func TestServer_DocumentLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/documents?id=a1", `{"name":"first"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("write: got %d (%s)", rr.Code, rr.Body.String())
	}
	if got := decode[WriteResponse](t, rr); got.ID != "a1" {
		t.Errorf("write id: got %q", got.ID)
	}
	if loc := rr.Header().Get("Location"); loc != "/documents/a1" {
		t.Errorf("location: got %q", loc)
	}

	rr = do(t, h, http.MethodPost, "/documents?id=a1", `{"name":"again"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate write: got %d", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr); got.Code != ErrorCodeAlreadyExists {
		t.Errorf("duplicate code: got %s", got.Code)
	}

	rr = do(t, h, http.MethodGet, "/documents/a1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("read: got %d", rr.Code)
	}
	if got := decode[map[string]any](t, rr); got["name"] != "first" {
		t.Errorf("read body: got %v", got)
	}

	rr = do(t, h, http.MethodPut, "/documents/a1", `{"name":"second"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("update: got %d", rr.Code)
	}
	rr = do(t, h, http.MethodGet, "/documents/a1", "")
	if got := decode[map[string]any](t, rr); got["name"] != "second" {
		t.Errorf("updated body: got %v", got)
	}

	rr = do(t, h, http.MethodGet, "/documents/count", "")
	if got := decode[CountResponse](t, rr); got.Count != 1 {
		t.Errorf("count: got %d", got.Count)
	}

	if rr = do(t, h, http.MethodDelete, "/documents/a1", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: got %d", rr.Code)
	}
	rr = do(t, h, http.MethodGet, "/documents/a1", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("read deleted: got %d", rr.Code)
	}
	if got := decode[ErrorResponse](t, rr); got.Code != ErrorCodeNotFound || !strings.Contains(got.Message, "a1") {
		t.Errorf("not found response: got %+v", got)
	}
	if rr = do(t, h, http.MethodDelete, "/documents/a1", ""); rr.Code != http.StatusNotFound {
		t.Errorf("delete missing: got %d", rr.Code)
	}
}

func TestServer_WriteWithoutID(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/documents", `{"name":"anon"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("write: got %d", rr.Code)
	}
	if got := decode[WriteResponse](t, rr); got.ID == "" {
		t.Error("expected a generated id")
	}
}

func TestServer_BadBodies(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name, method, target, body string
	}{
		{"write not json", http.MethodPost, "/documents", `{not json`},
		{"write array", http.MethodPost, "/documents", `[1,2]`},
		{"write null", http.MethodPost, "/documents", `null`},
		{"update not json", http.MethodPut, "/documents/x", `"str"`},
		{"query not json", http.MethodPost, "/query", `{`},
		{"text query not json", http.MethodPost, "/text-query", `{`},
		{"list bad limit", http.MethodGet, "/documents?limit=ten", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, tc.method, tc.target, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("got %d, want 400", rr.Code)
			}
			if got := decode[ErrorResponse](t, rr); got.Code != ErrorCodeBadRequest {
				t.Errorf("code: got %s", got.Code)
			}
		})
	}
}

func TestServer_List(t *testing.T) {
	h := newTestHandler(t)
	for _, id := range []string{"0", "1", "2", "3", "4"} {
		if rr := do(t, h, http.MethodPost, "/documents?id="+id, `{"n":"`+id+`"}`); rr.Code != http.StatusCreated {
			t.Fatalf("seed %s: got %d", id, rr.Code)
		}
	}

	tests := []struct {
		target string
		want   []string
	}{
		{"/documents", []string{"0", "1", "2", "3", "4"}},
		{"/documents?from=1&to=3", []string{"1", "2", "3"}},
		{"/documents?from=2&limit=2", []string{"2", "3"}},
		{"/documents?to=0", []string{"0"}},
	}
	for _, tc := range tests {
		t.Run(tc.target, func(t *testing.T) {
			rr := do(t, h, http.MethodGet, tc.target, "")
			if rr.Code != http.StatusOK {
				t.Fatalf("got %d", rr.Code)
			}
			items := decode[[]map[string]any](t, rr)
			got := make([]string, len(items))
			for i, it := range items {
				got[i], _ = it["n"].(string)
			}
			if strings.Join(got, ",") != strings.Join(tc.want, ",") {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestServer_ListEmptyIsArray(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/documents", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("expected empty array, got %q", rr.Body.String())
	}
}

func TestServer_DeleteAll(t *testing.T) {
	h := newTestHandler(t)
	do(t, h, http.MethodPost, "/documents?id=a", `{}`)
	do(t, h, http.MethodPost, "/documents?id=b", `{}`)

	if rr := do(t, h, http.MethodDelete, "/documents", ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete all: got %d", rr.Code)
	}
	rr := do(t, h, http.MethodGet, "/documents/count", "")
	if got := decode[CountResponse](t, rr); got.Count != 0 {
		t.Errorf("count after delete all: got %d", got.Count)
	}
}

func TestServer_Query(t *testing.T) {
	h := newTestHandler(t)
	for i, cost := range []float64{1, 5, 10, 20} {
		id := string(rune('a' + i))
		if rr := do(t, h, http.MethodPost, "/documents?id="+id, asset(cost)); rr.Code != http.StatusCreated {
			t.Fatalf("seed: got %d", rr.Code)
		}
	}

	rr := do(t, h, http.MethodPost, "/query", `{"query":{"price":[5,10]},"page":1,"offset":10}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("query: got %d (%s)", rr.Code, rr.Body.String())
	}
	page := decode[PageResponse](t, rr)
	if page.Total != 2 || len(page.Documents) != 2 {
		t.Errorf("expected 2 hits, got total=%d docs=%d", page.Total, len(page.Documents))
	}
}

func TestServer_QueryErrors(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name, target, body string
		code               ErrorCode
	}{
		{"unsupported field", "/query", `{"query":{"_id":["x"]},"page":1}`, ErrorCodeUnsupportedField},
		{"page zero", "/query", `{"query":{},"page":0}`, ErrorCodeInvalidPage},
		{"text page zero", "/text-query", `{"text":"water","page":0}`, ErrorCodeInvalidPage},
		{"bad sort direction", "/query", `{"query":{},"sort":{"price":"up"},"page":1}`, ErrorCodeBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(t, h, http.MethodPost, tc.target, tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("got %d (%s), want 400", rr.Code, rr.Body.String())
			}
			if got := decode[ErrorResponse](t, rr); got.Code != tc.code {
				t.Errorf("code: got %s, want %s", got.Code, tc.code)
			}
		})
	}
}

func TestServer_TextQuery(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodPost, "/text-query", `{"text":"water","page":1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("text query: got %d (%s)", rr.Code, rr.Body.String())
	}
	if page := decode[PageResponse](t, rr); page.Documents == nil {
		t.Error("expected documents array, got null")
	}
}

func TestServer_Health(t *testing.T) {
	h := newTestHandler(t)

	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health: got %d", rr.Code)
	}
	got := decode[HealthResponse](t, rr)
	if got.Status != healthuc.Healthy || got.Store != memory.Kind {
		t.Errorf("unexpected health %+v", got)
	}
}

func TestServer_Metrics(t *testing.T) {
	h := newTestHandler(t)

	if rr := do(t, h, http.MethodGet, "/metrics", ""); rr.Code != http.StatusOK {
		t.Fatalf("metrics: got %d", rr.Code)
	}
}

// failingDocuments answers every call with a store failure.
type failingDocuments struct{ Documents }

var errStoreDown = errors.New("connection refused")

func (failingDocuments) Read(context.Context, string) (domdoc.Document, error) {
	return domdoc.Document{}, errStoreDown
}

func (failingDocuments) List(context.Context, documentuc.ListOptions) iter.Seq2[domdoc.Document, error] {
	return func(yield func(domdoc.Document, error) bool) { yield(domdoc.Document{}, errStoreDown) }
}

func TestServer_InternalErrorHidesCause(t *testing.T) {
	h := NewServer(failingDocuments{}, nil, nil).Handler()

	for _, target := range []string{"/documents/x", "/documents"} {
		rr := do(t, h, http.MethodGet, target, "")
		if rr.Code != http.StatusInternalServerError {
			t.Fatalf("%s: got %d", target, rr.Code)
		}
		got := decode[ErrorResponse](t, rr)
		if got.Code != ErrorCodeInternal || strings.Contains(got.Message, "refused") {
			t.Errorf("%s: leaked or wrong error %+v", target, got)
		}
	}
}
