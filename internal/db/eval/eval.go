// Package eval evaluates clause trees, free-text terms and sorts against
// decoded JSON documents. It backs the stores that have no native query engine.
package eval

import (
	"cmp"
	"encoding/json"
	"fmt"
	"math"
	"path"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/domain/search/clause"
)

// Doc is a stored document with its decoded body.
type Doc struct {
	ID     string
	Source []byte
	Body   map[string]any
}

// Decode parses a JSON source into a Doc.
func Decode(id string, src []byte) (Doc, error) {
	var body map[string]any
	if err := json.Unmarshal(src, &body); err != nil {
		return Doc{}, fmt.Errorf("decode document %s: %w", id, err)
	}
	return Doc{ID: id, Source: src, Body: body}, nil
}

// Search filters, scores, sorts and windows docs the way a search engine would.
func Search(q *db.SearchQuery, docs []Doc) *db.SearchResult {
	type scored struct {
		doc   Doc
		score float64
	}

	matched := make([]scored, 0, len(docs))
	for _, d := range docs {
		if q.Query != nil && !Matches(*q.Query, d.Body) {
			continue
		}
		score := 1.0
		if q.Text != "" {
			score = Score(q.Text, d.Body)
			if score == 0 {
				continue
			}
		}
		matched = append(matched, scored{doc: d, score: score})
	}

	slices.SortStableFunc(matched, func(a, b scored) int {
		for _, s := range q.Sort {
			var c int
			switch s.Field {
			case db.FieldID:
				c = strings.Compare(a.doc.ID, b.doc.ID)
			case db.FieldScore:
				c = cmp.Compare(a.score, b.score)
			default:
				av, aok := sortValue(a.doc.Body, s.Field)
				bv, bok := sortValue(b.doc.Body, s.Field)
				// Missing values sort last in both directions.
				switch {
				case !aok && !bok:
					c = 0
				case !aok:
					return 1
				case !bok:
					return -1
				default:
					c = compareValues(av, bv)
				}
			}
			if s.Descending {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return strings.Compare(a.doc.ID, b.doc.ID)
	})

	res := &db.SearchResult{Total: len(matched)}
	from := max(q.From, 0)
	if from >= len(matched) || q.Size <= 0 {
		return res
	}
	end := min(from+q.Size, len(matched))
	res.Hits = make([]db.Hit, 0, end-from)
	for _, m := range matched[from:end] {
		res.Hits = append(res.Hits, db.Hit{ID: m.doc.ID, Score: m.score, Source: m.doc.Source})
	}
	return res
}

// Matches reports whether body satisfies c. An empty disjunction matches nothing.
func Matches(c clause.Clause, body map[string]any) bool {
	switch c.Kind() {
	case clause.KindAll:
		for _, ch := range c.Children() {
			if !Matches(ch, body) {
				return false
			}
		}
		return true
	case clause.KindAny:
		for _, ch := range c.Children() {
			if Matches(ch, body) {
				return true
			}
		}
		return false
	case clause.KindMatch:
		for _, v := range Values(body, c.Path()) {
			if matchValue(v, c.Value()) {
				return true
			}
		}
		return false
	case clause.KindRange:
		gte, lte := c.Bounds()
		for _, v := range Values(body, c.Path()) {
			if inRange(v, gte, lte) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Score counts free-text term hits over every leaf of body.
// Terms are whitespace separated; '?' and '*' act as wildcards.
func Score(text string, body map[string]any) float64 {
	var tokens []string
	collectTokens(body, &tokens)

	var score float64
	for _, term := range strings.Fields(strings.ToLower(text)) {
		if strings.ContainsAny(term, "?*") {
			for _, tok := range tokens {
				if ok, _ := path.Match(term, tok); ok {
					score++
				}
			}
			continue
		}
		for _, sub := range tokenize(term) {
			for _, tok := range tokens {
				if tok == sub {
					score++
				}
			}
		}
	}
	return score
}

// Values returns every leaf value found at a dotted path, flattening arrays.
// A ".keyword" path falls back to its parent field.
func Values(body map[string]any, p string) []any {
	vals := lookup(body, strings.Split(p, "."))
	if len(vals) == 0 && strings.HasSuffix(p, db.KeywordSuffix) {
		return Values(body, strings.TrimSuffix(p, db.KeywordSuffix))
	}
	return vals
}

// InferType guesses a field type from the first document that carries the path.
func InferType(docs []Doc, p string) (db.FieldType, bool) {
	for _, d := range docs {
		for _, v := range lookup(d.Body, strings.Split(p, ".")) {
			switch x := v.(type) {
			case string:
				if _, ok := parseTime(x); ok {
					return db.FieldDate, true
				}
				return db.FieldText, true
			case float64:
				if x == math.Trunc(x) {
					return db.FieldLong, true
				}
				return db.FieldDouble, true
			case bool:
				return db.FieldBoolean, true
			case map[string]any:
				return db.FieldObject, true
			}
		}
	}
	return "", false
}

func lookup(node any, segs []string) []any {
	switch n := node.(type) {
	case nil:
		return nil
	case []any:
		var out []any
		for _, e := range n {
			out = append(out, lookup(e, segs)...)
		}
		return out
	case map[string]any:
		if len(segs) == 0 {
			return []any{n}
		}
		child, ok := n[segs[0]]
		if !ok {
			return nil
		}
		return lookup(child, segs[1:])
	default:
		if len(segs) == 0 {
			return []any{n}
		}
		return nil
	}
}

func sortValue(body map[string]any, p string) (any, bool) {
	for _, v := range Values(body, p) {
		switch v.(type) {
		case map[string]any:
			continue
		default:
			return v, true
		}
	}
	return nil, false
}

func matchValue(field, want any) bool {
	switch w := want.(type) {
	case string:
		switch f := field.(type) {
		case string:
			return tokensOverlap(tokenize(f), tokenize(w))
		case bool:
			b, err := strconv.ParseBool(w)
			return err == nil && b == f
		default:
			fn, ok := toFloat(field)
			wn, err := strconv.ParseFloat(w, 64)
			return ok && err == nil && fn == wn
		}
	case time.Time:
		ft, ok := toTime(field)
		return ok && ft.Equal(w)
	case bool:
		f, ok := field.(bool)
		return ok && f == w
	default:
		wn, ok := toFloat(want)
		if !ok {
			return false
		}
		fn, ok := toFloat(field)
		return ok && fn == wn
	}
}

func inRange(field, gte, lte any) bool {
	_, lowTime := gte.(time.Time)
	_, highTime := lte.(time.Time)
	if lowTime || highTime {
		ft, ok := toTime(field)
		if !ok {
			return false
		}
		if lo, ok := toTime(gte); ok && ft.Before(lo) {
			return false
		}
		if hi, ok := toTime(lte); ok && ft.After(hi) {
			return false
		}
		return true
	}

	if fn, ok := toFloat(field); ok {
		if lo, ok := toFloat(gte); ok && fn < lo {
			return false
		}
		if hi, ok := toFloat(lte); ok && fn > hi {
			return false
		}
		return true
	}

	fs, ok := field.(string)
	if !ok {
		return false
	}
	if lo, ok := gte.(string); ok && fs < lo {
		return false
	}
	if hi, ok := lte.(string); ok && fs > hi {
		return false
	}
	return true
}

func compareValues(a, b any) int {
	an, aNum := toFloat(a)
	bn, bNum := toFloat(b)
	switch {
	case aNum && bNum:
		return cmp.Compare(an, bn)
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		return parseTime(t)
	default:
		return time.Time{}, false
	}
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func tokensOverlap(a, b []string) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

func collectTokens(node any, out *[]string) {
	switch n := node.(type) {
	case map[string]any:
		for _, v := range n {
			collectTokens(v, out)
		}
	case []any:
		for _, v := range n {
			collectTokens(v, out)
		}
	case string:
		*out = append(*out, tokenize(n)...)
	case float64:
		*out = append(*out, strconv.FormatFloat(n, 'f', -1, 64))
	case bool:
		*out = append(*out, strconv.FormatBool(n))
	}
}
