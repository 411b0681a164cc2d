package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/db/eval"
)

// Exists reports whether the document key is present.
func (s *Store) Exists(ctx context.Context, collection, id string) (bool, error) {
	cmd := s.b().Exists().Key(s.docKey(collection, id)).Build()
	count, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return count > 0, nil
}

// Get retrieves a document body.
func (s *Store) Get(ctx context.Context, collection, id string) ([]byte, error) {
	cmd := s.b().Get().Key(s.docKey(collection, id)).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// Put creates a document with SET NX, assigning a UUID when id is empty.
func (s *Store) Put(ctx context.Context, collection, id string, body []byte) (string, error) {
	if _, err := eval.Decode(id, body); err != nil {
		return "", &db.Error{Op: db.OpPut, Err: err}
	}
	if id == "" {
		id = s.newID()
	}

	cmd := s.b().Set().Key(s.docKey(collection, id)).Value(string(body)).Nx().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return "", db.ErrKeyExists
		}
		return "", &db.Error{Op: db.OpPut, Err: err}
	}
	if err := s.track(ctx, collection, id); err != nil {
		return "", err
	}
	return id, nil
}

// Index creates or replaces a document.
func (s *Store) Index(ctx context.Context, collection, id string, body []byte) (string, error) {
	if _, err := eval.Decode(id, body); err != nil {
		return "", &db.Error{Op: db.OpIndex, Err: err}
	}
	if id == "" {
		id = s.newID()
	}

	cmds := []rueidis.Completed{
		s.b().Set().Key(s.docKey(collection, id)).Value(string(body)).Build(),
		s.b().Zadd().Key(s.idsKey(collection)).ScoreMember().ScoreMember(0, id).Build(),
	}
	for _, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return "", &db.Error{Op: db.OpIndex, Err: err}
		}
	}
	return id, nil
}

// Delete removes a document and its id entry.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	cmd := s.b().Del().Key(s.docKey(collection, id)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	if n == 0 {
		return db.ErrKeyNotFound
	}

	zrem := s.b().Zrem().Key(s.idsKey(collection)).Member(id).Build()
	if err := s.do(ctx, zrem).Error(); err != nil {
		return &db.Error{Op: db.OpDelete, Err: err}
	}
	return nil
}

// DeleteAll removes every document of the collection. Mappings are kept.
func (s *Store) DeleteAll(ctx context.Context, collection string) error {
	ids, err := s.ids(ctx, collection)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.docKey(collection, id))
	}
	keys = append(keys, s.idsKey(collection))

	cmd := s.b().Del().Key(keys...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDeleteAll, Err: err}
	}
	return nil
}

// Count returns the cardinality of the id set.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	cmd := s.b().Zcard().Key(s.idsKey(collection)).Build()
	n, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpCount, Err: err}
	}
	return int(n), nil
}

func (s *Store) track(ctx context.Context, collection, id string) error {
	cmd := s.b().Zadd().Key(s.idsKey(collection)).ScoreMember().ScoreMember(0, id).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPut, Err: fmt.Errorf("track id %s: %w", id, err)}
	}
	return nil
}

func (s *Store) ids(ctx context.Context, collection string) ([]string, error) {
	cmd := s.b().Zrange().Key(s.idsKey(collection)).Min("0").Max("-1").Build()
	ids, err := s.do(ctx, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpListIDs, Err: err}
	}
	return ids, nil
}
