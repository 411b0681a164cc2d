package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/domain/search/clause"
)

// Search runs one windowed _search. Free text becomes a query_string clause
// scored alongside the boolean filter.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.Collection == "" {
		return nil, fmt.Errorf("collection is required")
	}

	body, err := json.Marshal(searchBody(q))
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("encode body: %w", err)}
	}

	req := esapi.SearchRequest{Index: []string{q.Collection}, Body: bytes.NewReader(body)}
	res, err := s.perform(ctx, db.OpSearch, req)
	if err != nil {
		return nil, err
	}
	defer drain(res)

	if res.StatusCode == http.StatusNotFound {
		return &db.SearchResult{}, nil
	}
	if res.IsError() {
		return nil, responseError(db.OpSearch, res)
	}

	var raw searchResponse
	if err := decode(db.OpSearch, res, &raw); err != nil {
		return nil, err
	}
	return raw.result()
}

func searchBody(q *db.SearchQuery) map[string]any {
	body := map[string]any{
		"from":             max(q.From, 0),
		"size":             max(q.Size, 0),
		"track_total_hits": true,
	}

	var filter any = map[string]any{"match_all": map[string]any{}}
	if q.Query != nil {
		filter = queryDSL(*q.Query)
	}
	if q.Text != "" {
		body["query"] = map[string]any{"bool": map[string]any{
			"must":   []any{map[string]any{"query_string": map[string]any{"query": q.Text}}},
			"filter": []any{filter},
		}}
	} else {
		body["query"] = filter
	}

	if len(q.Sort) > 0 {
		sort := make([]map[string]any, len(q.Sort))
		for i, c := range q.Sort {
			sort[i] = sortEntry(c)
		}
		body["sort"] = sort
	}
	return body
}

// queryDSL renders a clause tree for Elasticsearch. A bool query without
// clauses matches every document there, so an empty disjunction becomes match_none.
func queryDSL(c clause.Clause) any {
	switch c.Kind() {
	case clause.KindAll:
		return map[string]any{"bool": map[string]any{"must": childrenDSL(c)}}
	case clause.KindAny:
		if c.IsMatchNothing() {
			return map[string]any{"match_none": map[string]any{}}
		}
		return map[string]any{"bool": map[string]any{"should": childrenDSL(c)}}
	default:
		return c
	}
}

func childrenDSL(c clause.Clause) []any {
	children := c.Children()
	out := make([]any, len(children))
	for i, child := range children {
		out[i] = queryDSL(child)
	}
	return out
}

// sortEntry maps the _id sort onto the keyword copy of the id; _id itself has
// no fielddata on 8.x clusters.
func sortEntry(c db.SortClause) map[string]any {
	if c.Field == db.FieldID {
		return map[string]any{idField: map[string]any{"order": c.Order(), "unmapped_type": string(db.FieldKeyword)}}
	}
	return map[string]any{c.Field: c.Order()}
}

type searchResponse struct {
	Hits struct {
		// Total is {"value":n,"relation":..} on 7.x+ and a bare number before.
		Total json.RawMessage `json:"total"`
		Hits  []struct {
			ID     string          `json:"_id"`
			Score  *float64        `json:"_score"`
			Source json.RawMessage `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (r *searchResponse) result() (*db.SearchResult, error) {
	total, err := parseTotal(r.Hits.Total)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	out := &db.SearchResult{Total: total, Hits: make([]db.Hit, 0, len(r.Hits.Hits))}
	for _, h := range r.Hits.Hits {
		src, err := stripID(h.Source)
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		hit := db.Hit{ID: h.ID, Source: src}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

func parseTotal(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	var obj struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Value, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("decode hits.total: %w", err)
	}
	return n, nil
}
