// Package chi serves the document facade over HTTP with a chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"iter"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/oceandb/internal/domain"
	domdoc "github.com/kailas-cloud/oceandb/internal/domain/document"
	"github.com/kailas-cloud/oceandb/internal/logger"
	documentuc "github.com/kailas-cloud/oceandb/internal/usecase/document"
	healthuc "github.com/kailas-cloud/oceandb/internal/usecase/health"
)

// Documents is the facade the server exposes.
//
//nolint:interfacebloat // one method per route
type Documents interface {
	Write(ctx context.Context, body map[string]any, id string) (string, error)
	Read(ctx context.Context, id string) (domdoc.Document, error)
	Update(ctx context.Context, body map[string]any, id string) (string, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, opts documentuc.ListOptions) iter.Seq2[domdoc.Document, error]
	Query(ctx context.Context, req documentuc.Request) (documentuc.Page, error)
	TextQuery(ctx context.Context, req documentuc.TextRequest) (documentuc.Page, error)
}

// HealthChecker reports service health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server maps HTTP routes onto the document facade.
type Server struct {
	documents     Documents
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(documents Documents, health HealthChecker, l *zap.Logger) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	return &Server{
		documents: documents,
		health:    health,
		logger:    l,
		errorHandlers: []errorHandler{
			sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
			sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, ErrorCodeAlreadyExists),
			sentinelHandler(domain.ErrUnsupportedField, http.StatusBadRequest, ErrorCodeUnsupportedField),
			sentinelHandler(domain.ErrInvalidSort, http.StatusBadRequest, ErrorCodeInvalidSort),
			sentinelHandler(domain.ErrInvalidPage, http.StatusBadRequest, ErrorCodeInvalidPage),
		},
	}
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Route("/documents", func(r chi.Router) {
		r.Post("/", s.WriteDocument)
		r.Get("/", s.ListDocuments)
		r.Delete("/", s.DeleteAllDocuments)
		r.Get("/count", s.CountDocuments)
		r.Get("/{id}", s.ReadDocument)
		r.Put("/{id}", s.UpdateDocument)
		r.Delete("/{id}", s.DeleteDocument)
	})
	r.Post("/query", s.Query)
	r.Post("/text-query", s.TextQuery)
	r.Get("/health", s.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// Handler returns a bare router serving every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

// WriteDocument handles POST /documents[?id=].
func (s *Server) WriteDocument(w http.ResponseWriter, r *http.Request) {
	var id *string
	if err := runtime.BindQueryParameter("form", true, false, "id", r.URL.Query(), &id); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid id parameter: "+err.Error())
		return
	}

	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	newID, err := s.documents.Write(r.Context(), body, deref(id))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", "/documents/"+newID)
	writeJSON(w, http.StatusCreated, WriteResponse{ID: newID})
}

// ReadDocument handles GET /documents/{id}.
func (s *Server) ReadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	doc, err := s.documents.Read(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, doc.Body())
}

// UpdateDocument handles PUT /documents/{id}.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	body, ok := decodeBody(w, r)
	if !ok {
		return
	}

	newID, err := s.documents.Update(r.Context(), body, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, WriteResponse{ID: newID})
}

// DeleteDocument handles DELETE /documents/{id}.
func (s *Server) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.documents.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllDocuments handles DELETE /documents.
func (s *Server) DeleteAllDocuments(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.DeleteAll(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CountDocuments handles GET /documents/count.
func (s *Server) CountDocuments(w http.ResponseWriter, r *http.Request) {
	n, err := s.documents.Count(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, CountResponse{Count: n})
}

// ListDocuments handles GET /documents?from=&to=&limit=.
func (s *Server) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var opts documentuc.ListOptions
	params := []struct {
		name string
		dest **int
	}{
		{"from", &opts.From},
		{"to", &opts.To},
		{"limit", &opts.Limit},
	}
	for _, p := range params {
		if err := runtime.BindQueryParameter("form", true, false, p.name, r.URL.Query(), p.dest); err != nil {
			writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid "+p.name+" parameter: "+err.Error())
			return
		}
	}

	items := make([]map[string]any, 0)
	for doc, err := range s.documents.List(r.Context(), opts) {
		if err != nil {
			s.handleDomainError(w, r, err)
			return
		}
		items = append(items, doc.Body())
	}

	writeJSON(w, http.StatusOK, items)
}

// Query handles POST /query.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	var req documentuc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	page, err := s.documents.Query(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PageResponse{Documents: bodies(page.Documents), Total: page.Total})
}

// TextQuery handles POST /text-query.
func (s *Server) TextQuery(w http.ResponseWriter, r *http.Request) {
	var req documentuc.TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	page, err := s.documents.TextQuery(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, PageResponse{Documents: bodies(page.Documents), Total: page.Total})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, HealthResponse{
		Status:    report.Status,
		Store:     report.Store,
		Documents: report.Documents,
		Checks:    report.Checks,
	})
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid id parameter: "+err.Error())
		return "", false
	}
	return id, true
}

// decodeBody reads a JSON object; anything else is answered with 400.
func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return nil, false
	}
	if body == nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: expected a JSON object")
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// clientMessage describes a domain error without leaking store internals.
func clientMessage(err error) string {
	var (
		notFound    *domain.NotFoundError
		exists      *domain.AlreadyExistsError
		unsupported *domain.UnsupportedFieldError
		badSort     *domain.InvalidSortError
		badPage     *domain.InvalidPageError
	)
	switch {
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &exists):
		return exists.Error()
	case errors.As(err, &unsupported):
		return unsupported.Error()
	case errors.As(err, &badSort):
		return (&domain.InvalidSortError{Sort: badSort.Sort}).Error()
	case errors.As(err, &badPage):
		return badPage.Error()
	}
	for _, s := range []error{
		domain.ErrNotFound, domain.ErrAlreadyExists, domain.ErrUnsupportedField,
		domain.ErrInvalidSort, domain.ErrInvalidPage,
	} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, clientMessage(err))
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContextOr(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			l.Debug("domain error", zap.Error(err))
			return
		}
	}
	l.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternal, "internal error")
}
