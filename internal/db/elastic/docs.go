package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"

	"github.com/kailas-cloud/oceandb/internal/db"
)

const matchAllBody = `{"query":{"match_all":{}}}`

// idField holds a keyword copy of the document id for sorting. It is written
// on every put and index and removed from every _source returned.
const idField = "oceandb_id"

func withID(body []byte, id string) ([]byte, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if m == nil {
		m = map[string]json.RawMessage{}
	}
	raw, err := json.Marshal(id)
	if err != nil {
		return nil, err
	}
	m[idField] = raw
	return json.Marshal(m)
}

func stripID(src json.RawMessage) (json.RawMessage, error) {
	if len(src) == 0 {
		return src, nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(src, &m); err != nil {
		return nil, fmt.Errorf("decode _source: %w", err)
	}
	if _, ok := m[idField]; !ok {
		return src, nil
	}
	delete(m, idField)
	return json.Marshal(m)
}

// Exists issues a HEAD on the document.
func (s *Store) Exists(ctx context.Context, index, id string) (bool, error) {
	res, err := s.perform(ctx, db.OpExists, esapi.ExistsRequest{Index: index, DocumentID: id})
	if err != nil {
		return false, err
	}
	defer drain(res)

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError(db.OpExists, res)
	}
}

// Get returns the document _source.
func (s *Store) Get(ctx context.Context, index, id string) ([]byte, error) {
	res, err := s.perform(ctx, db.OpGet, esapi.GetRequest{Index: index, DocumentID: id})
	if err != nil {
		return nil, err
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return nil, db.ErrKeyNotFound
	}
	if res.IsError() {
		return nil, responseError(db.OpGet, res)
	}

	var doc struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := decode(db.OpGet, res, &doc); err != nil {
		return nil, err
	}
	if !doc.Found {
		return nil, db.ErrKeyNotFound
	}
	src, err := stripID(doc.Source)
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return src, nil
}

// Put creates a document through the _create endpoint, so it never overwrites
// and a taken id fails with 409. An empty id is assigned here.
func (s *Store) Put(ctx context.Context, index, id string, body []byte) (string, error) {
	if id == "" {
		id = uuid.NewString()
	}
	doc, err := withID(body, id)
	if err != nil {
		return "", &db.Error{Op: db.OpPut, Err: err}
	}

	req := esapi.CreateRequest{Index: index, DocumentID: id, Body: bytes.NewReader(doc), Refresh: refreshWaitFor}
	res, err := s.perform(ctx, db.OpPut, req)
	if err != nil {
		return "", err
	}
	defer drain(res)

	if res.StatusCode == http.StatusConflict {
		return "", db.ErrKeyExists
	}
	if res.IsError() {
		return "", responseError(db.OpPut, res)
	}
	return writtenID(db.OpPut, res)
}

// Index creates or fully replaces a document.
func (s *Store) Index(ctx context.Context, index, id string, body []byte) (string, error) {
	doc, err := withID(body, id)
	if err != nil {
		return "", &db.Error{Op: db.OpIndex, Err: err}
	}

	req := esapi.IndexRequest{Index: index, DocumentID: id, Body: bytes.NewReader(doc), Refresh: refreshWaitFor}
	res, err := s.perform(ctx, db.OpIndex, req)
	if err != nil {
		return "", err
	}
	defer drain(res)

	if res.IsError() {
		return "", responseError(db.OpIndex, res)
	}
	return writtenID(db.OpIndex, res)
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, index, id string) error {
	req := esapi.DeleteRequest{Index: index, DocumentID: id, Refresh: refreshWaitFor}
	res, err := s.perform(ctx, db.OpDelete, req)
	if err != nil {
		return err
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return db.ErrKeyNotFound
	}
	if res.IsError() {
		return responseError(db.OpDelete, res)
	}
	return nil
}

// DeleteAll runs a match_all delete-by-query, then refreshes the index.
func (s *Store) DeleteAll(ctx context.Context, index string) error {
	req := esapi.DeleteByQueryRequest{Index: []string{index}, Body: strings.NewReader(matchAllBody)}
	res, err := s.perform(ctx, db.OpDeleteAll, req)
	if err != nil {
		return err
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return responseError(db.OpDeleteAll, res)
	}
	return s.refresh(ctx, index)
}

// Count returns the number of documents in the index; a missing index counts zero.
func (s *Store) Count(ctx context.Context, index string) (int, error) {
	res, err := s.perform(ctx, db.OpCount, esapi.CountRequest{Index: []string{index}})
	if err != nil {
		return 0, err
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return 0, nil
	}
	if res.IsError() {
		return 0, responseError(db.OpCount, res)
	}

	var out struct {
		Count int `json:"count"`
	}
	if err := decode(db.OpCount, res, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (s *Store) refresh(ctx context.Context, index string) error {
	res, err := s.perform(ctx, db.OpRefresh, esapi.IndicesRefreshRequest{Index: []string{index}})
	if err != nil {
		return err
	}
	defer drain(res)

	if res.IsError() {
		return responseError(db.OpRefresh, res)
	}
	return nil
}

func writtenID(op string, res *esapi.Response) (string, error) {
	var out struct {
		ID string `json:"_id"`
	}
	if err := decode(op, res, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}
