package redis

import (
	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/db/eval"
)

// Bootstrap writes the mapping hash unless the collection already has one.
func (s *Store) Bootstrap(ctx context.Context, collection string, def *db.Mapping) error {
	key := s.mappingKey(collection)
	n, err := s.do(ctx, s.b().Exists().Key(key).Build()).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpBootstrap, Err: err}
	}
	if n > 0 {
		return db.ErrCollectionExists
	}
	if def == nil || len(def.Fields) == 0 {
		return nil
	}

	cmd := s.b().Hset().Key(key).FieldValue()
	for _, f := range def.Fields {
		for path, ft := range flatten(f) {
			cmd = cmd.FieldValue(path, string(ft))
		}
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpBootstrap, Err: err}
	}
	return nil
}

// FieldType reads the mapping hash, then falls back to inferring from stored documents.
func (s *Store) FieldType(ctx context.Context, collection, path string) (db.FieldType, error) {
	cmd := s.b().Hget().Key(s.mappingKey(collection)).Field(path).Build()
	ft, err := s.do(ctx, cmd).ToString()
	switch {
	case err == nil:
		return db.FieldType(ft), nil
	case !rueidis.IsRedisNil(err):
		return "", &db.Error{Op: db.OpFieldType, Err: err}
	}

	docs, err := s.load(ctx, collection)
	if err != nil {
		return "", err
	}
	if t, ok := eval.InferType(docs, path); ok {
		return t, nil
	}
	return "", db.ErrFieldNotMapped
}

// PutFieldMapping records the field, and its keyword sub-field when requested.
func (s *Store) PutFieldMapping(ctx context.Context, collection string, m db.FieldMapping) error {
	if m.Path == "" {
		return &db.Error{Op: db.OpPutMapping, Err: errPathRequired}
	}
	cmd := s.b().Hset().Key(s.mappingKey(collection)).FieldValue()
	for path, ft := range flatten(m) {
		cmd = cmd.FieldValue(path, string(ft))
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpPutMapping, Err: err}
	}
	return nil
}

func flatten(m db.FieldMapping) map[string]db.FieldType {
	out := map[string]db.FieldType{m.Path: m.Type}
	if m.Keyword {
		out[m.Path+db.KeywordSuffix] = db.FieldKeyword
	}
	return out
}
