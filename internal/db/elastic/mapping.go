package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/oceandb/internal/db"
)

const errAlreadyExists = "resource_already_exists_exception"

// Bootstrap creates the index with the given mapping plus the id keyword field.
func (s *Store) Bootstrap(ctx context.Context, index string, def *db.Mapping) error {
	props := map[string]any{}
	if def != nil {
		props = def.Properties()
	}
	props[idField] = map[string]any{"type": string(db.FieldKeyword)}
	body, err := json.Marshal(map[string]any{"mappings": map[string]any{"properties": props}})
	if err != nil {
		return &db.Error{Op: db.OpBootstrap, Err: err}
	}

	res, err := s.perform(ctx, db.OpBootstrap, esapi.IndicesCreateRequest{Index: index, Body: bytes.NewReader(body)})
	if err != nil {
		return err
	}
	defer drain(res)

	if !res.IsError() {
		return nil
	}
	typ, reason := errorType(res)
	if typ == errAlreadyExists {
		return db.ErrCollectionExists
	}
	return &db.Error{Op: db.OpBootstrap, Err: fmt.Errorf("status %d: %s: %s", res.StatusCode, typ, reason)}
}

// fieldMappingResponse is keyed by concrete index name, then by full field path,
// then by the leaf name.
type fieldMappingResponse map[string]struct {
	Mappings map[string]struct {
		Mapping map[string]struct {
			Type string `json:"type"`
		} `json:"mapping"`
	} `json:"mappings"`
}

// FieldType reads the mapped datatype of path.
func (s *Store) FieldType(ctx context.Context, index, path string) (db.FieldType, error) {
	req := esapi.IndicesGetFieldMappingRequest{Index: []string{index}, Fields: []string{path}}
	res, err := s.perform(ctx, db.OpFieldType, req)
	if err != nil {
		return "", err
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return "", db.ErrFieldNotMapped
	}
	if res.IsError() {
		return "", responseError(db.OpFieldType, res)
	}

	var out fieldMappingResponse
	if err := decode(db.OpFieldType, res, &out); err != nil {
		return "", err
	}

	leaf := path[strings.LastIndex(path, ".")+1:]
	for _, idx := range out {
		f, ok := idx.Mappings[path]
		if !ok {
			continue
		}
		if m, ok := f.Mapping[leaf]; ok && m.Type != "" {
			return db.FieldType(m.Type), nil
		}
	}
	return "", db.ErrFieldNotMapped
}

// PutFieldMapping adds one field to the index mapping.
func (s *Store) PutFieldMapping(ctx context.Context, index string, m db.FieldMapping) error {
	def := db.Mapping{Fields: []db.FieldMapping{m}}
	if err := def.Validate(); err != nil {
		return &db.Error{Op: db.OpPutMapping, Err: err}
	}
	body, err := json.Marshal(map[string]any{"properties": def.Properties()})
	if err != nil {
		return &db.Error{Op: db.OpPutMapping, Err: err}
	}

	req := esapi.IndicesPutMappingRequest{Index: []string{index}, Body: bytes.NewReader(body)}
	res, err := s.perform(ctx, db.OpPutMapping, req)
	if err != nil {
		return err
	}
	defer drain(res)

	if res.IsError() {
		return responseError(db.OpPutMapping, res)
	}
	return nil
}
