package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrKeyExists        = errors.New("db: key already exists")
	ErrFieldNotMapped   = errors.New("db: field not mapped")
	ErrCollectionExists = errors.New("db: collection already exists")
)

// Op constants name store operations for error context.
const (
	OpPing        = "PING"
	OpBootstrap   = "BOOTSTRAP"
	OpExists      = "EXISTS"
	OpGet         = "GET"
	OpPut         = "PUT"
	OpIndex       = "INDEX"
	OpDelete      = "DELETE"
	OpDeleteAll   = "DELETE_ALL"
	OpCount       = "COUNT"
	OpSearch      = "SEARCH"
	OpFieldType   = "GET_FIELD_MAPPING"
	OpPutMapping  = "PUT_MAPPING"
	OpRefresh     = "REFRESH"
	OpDecode      = "DECODE"
	OpListIDs     = "LIST_IDS"
	OpLoadSources = "LOAD_SOURCES"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
