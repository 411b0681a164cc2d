package chi

import (
	domdoc "github.com/kailas-cloud/oceandb/internal/domain/document"
	healthuc "github.com/kailas-cloud/oceandb/internal/usecase/health"
)

// ErrorCode is the machine-readable error kind of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeAlreadyExists    ErrorCode = "already_exists"
	ErrorCodeUnsupportedField ErrorCode = "unsupported_field"
	ErrorCodeInvalidSort      ErrorCode = "invalid_sort"
	ErrorCodeInvalidPage      ErrorCode = "invalid_page"
	ErrorCodeInternal         ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// WriteResponse answers a create or update.
type WriteResponse struct {
	ID string `json:"id"`
}

// CountResponse answers GET /documents/count.
type CountResponse struct {
	Count int `json:"count"`
}

// PageResponse answers a query or a text query.
type PageResponse struct {
	Documents []map[string]any `json:"documents"`
	Total     int              `json:"total"`
}

// HealthResponse answers GET /health.
type HealthResponse struct {
	Status    healthuc.Status                 `json:"status"`
	Store     string                          `json:"store"`
	Documents int                             `json:"documents"`
	Checks    map[string]healthuc.CheckResult `json:"checks"`
}

func bodies(docs []domdoc.Document) []map[string]any {
	out := make([]map[string]any, len(docs))
	for i, d := range docs {
		out[i] = d.Body()
	}
	return out
}
