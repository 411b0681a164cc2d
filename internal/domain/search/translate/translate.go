// Package translate turns structured queries into boolean clause trees.
package translate

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/oceandb/internal/domain"
	"github.com/kailas-cloud/oceandb/internal/domain/search/clause"
	"github.com/kailas-cloud/oceandb/internal/domain/search/query"
	"github.com/kailas-cloud/oceandb/internal/domain/search/registry"
)

// TimeLayout is the accepted timestamp format for time-range endpoints.
const TimeLayout = "2006-01-02T15:04:05Z"

// SampleSentinel is the link type asserted by an empty sample filter.
const SampleSentinel = "sample"

// TextField is the reserved free-text key.
const TextField = "text"

// Strategy selects how a field's values become a clause.
type Strategy int

const (
	// StrategyDefault picks NumberRange or MultiMatch from the first value's tag.
	StrategyDefault Strategy = iota
	// StrategyMultiMatch ORs one match clause per value.
	StrategyMultiMatch
	// StrategyNumberRange emits an exact match (1 value) or an inclusive range (2 values).
	StrategyNumberRange
	// StrategyTimeRange parses two timestamps into an inclusive range.
	StrategyTimeRange
	// StrategySample multi-matches, asserting the sentinel when no value is given.
	StrategySample
	// StrategyFreeText moves values out of the tree into free-text terms.
	StrategyFreeText
	// StrategyUnsupported rejects the field.
	StrategyUnsupported
)

// dispatch is matched on the exact field name.
var dispatch = map[string]Strategy{
	registry.Price:           StrategyNumberRange,
	registry.Cost:            StrategyNumberRange,
	registry.License:         StrategyMultiMatch,
	registry.Categories:      StrategyMultiMatch,
	registry.Tags:            StrategyMultiMatch,
	registry.Type:            StrategyMultiMatch,
	registry.UpdateFrequency: StrategyMultiMatch,
	registry.MetadataType:    StrategyMultiMatch,
	registry.Name:            StrategyMultiMatch,
	registry.Description:     StrategyMultiMatch,
	registry.DataToken:       StrategyMultiMatch,
	registry.Created:         StrategyTimeRange,
	registry.DateCreated:     StrategyTimeRange,
	registry.DatePublished:   StrategyTimeRange,
	registry.Sample:          StrategySample,
	TextField:                StrategyFreeText,
	"_id":                    StrategyUnsupported,
	"_index":                 StrategyUnsupported,
	"_score":                 StrategyUnsupported,
	"_source":                StrategyUnsupported,
	"_all":                   StrategyUnsupported,
}

// StrategyFor returns the strategy the translator uses for a field name.
func StrategyFor(field string, values []query.Value) Strategy {
	if s, ok := dispatch[field]; ok {
		return s
	}
	if len(values) > 0 && values[0].IsNumber() {
		return StrategyNumberRange
	}
	return StrategyMultiMatch
}

// Result is a translated structured query.
type Result struct {
	// Query is the conjunction of one clause per non-text field, in input order.
	Query clause.Clause
	// Text holds the free-text terms, untouched.
	Text []string
}

// HasFilter reports whether any field produced a clause.
func (r Result) HasFilter() bool { return r.Query.Len() > 0 }

// Translator converts structured queries using a field registry.
type Translator struct {
	registry registry.Registry
	logger   *zap.Logger
}

// New creates a Translator. logger may be nil.
func New(reg registry.Registry, logger *zap.Logger) *Translator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Translator{registry: reg, logger: logger}
}

// Registry returns the registry paths are resolved through.
func (t *Translator) Registry() registry.Registry { return t.registry }

// Translate builds the clause tree for q. The only error is *domain.UnsupportedFieldError.
func (t *Translator) Translate(q query.Structured) (Result, error) {
	fields := q.Fields()
	clauses := make([]clause.Clause, 0, len(fields))
	var text []string

	for _, f := range fields {
		switch StrategyFor(f.Name, f.Values) {
		case StrategyUnsupported:
			t.logger.Error("Unsupported query key", zap.String("key", f.Name))
			return Result{}, &domain.UnsupportedFieldError{Field: f.Name}
		case StrategyFreeText:
			for _, v := range f.Values {
				text = append(text, v.Text())
			}
		case StrategyNumberRange:
			clauses = append(clauses, t.numberRange(f))
		case StrategyTimeRange:
			clauses = append(clauses, t.timeRange(f))
		case StrategySample:
			clauses = append(clauses, t.sample(f))
		default:
			clauses = append(clauses, t.multiMatch(t.registry.Resolve(f.Name), f.Values))
		}
	}

	return Result{Query: clause.All(clauses...), Text: text}, nil
}

func (t *Translator) multiMatch(path string, values []query.Value) clause.Clause {
	matches := make([]clause.Clause, len(values))
	for i, v := range values {
		matches[i] = clause.Match(path, v.Raw())
	}
	return clause.Any(matches...)
}

func (t *Translator) numberRange(f query.Field) clause.Clause {
	path := t.registry.Resolve(f.Name)
	switch len(f.Values) {
	case 1:
		return clause.Match(path, f.Values[0].Raw())
	case 2:
		return clause.Range(path, f.Values[0].Raw(), f.Values[1].Raw())
	case 0:
		t.logger.Warn("Range filter without values, skipping", zap.String("key", f.Name))
	default:
		t.logger.Warn("Range filter with more than two values, skipping",
			zap.String("key", f.Name),
			zap.Int("values", len(f.Values)),
		)
	}
	return clause.Any()
}

func (t *Translator) timeRange(f query.Field) clause.Clause {
	if len(f.Values) != 2 {
		t.logger.Warn("Time range needs exactly two dates, skipping",
			zap.String("key", f.Name),
			zap.Int("values", len(f.Values)),
		)
		return clause.Any()
	}

	start, err := parseTime(f.Values[0])
	if err != nil {
		t.logger.Warn("Invalid range start, skipping", zap.String("key", f.Name), zap.Error(err))
		return clause.Any()
	}
	end, err := parseTime(f.Values[1])
	if err != nil {
		t.logger.Warn("Invalid range end, skipping", zap.String("key", f.Name), zap.Error(err))
		return clause.Any()
	}
	if end.Before(start) {
		t.logger.Warn("Second date is earlier than the first",
			zap.String("key", f.Name),
			zap.Time("start", start),
			zap.Time("end", end),
		)
	}

	return clause.Range(t.registry.Resolve(f.Name), start, end)
}

func (t *Translator) sample(f query.Field) clause.Clause {
	path := t.registry.Resolve(f.Name)
	if len(f.Values) == 0 {
		return clause.Any(clause.Match(path, SampleSentinel))
	}
	return t.multiMatch(path, f.Values)
}

func parseTime(v query.Value) (time.Time, error) {
	if v.Kind() == query.KindTime {
		return v.At(), nil
	}
	return time.Parse(TimeLayout, v.Text())
}
