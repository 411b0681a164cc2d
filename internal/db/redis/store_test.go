package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/domain/search/clause"
)

const (
	docKey1 = "oceandb:{assets}:doc:1"
	docKey2 = "oceandb:{assets}:doc:2"
	idsKey  = "oceandb:{assets}:ids"
	mapKey  = "oceandb:{assets}:mapping"
)

// --- client.go tests ---

func TestPing_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.Result(mock.RedisString("PONG")))

	s := NewStoreForTest(c)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestPing_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("PING")).
		Return(mock.ErrorResult(context.DeadlineExceeded))

	s := NewStoreForTest(c)
	err := s.Ping(context.Background())
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpPing {
		t.Fatalf("expected db.Error{Op: PING}, got %v", err)
	}
}

func TestNewStore_RequiresAddrs(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error for empty addrs")
	}
}

// --- kv.go tests ---

func TestExists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", docKey1)).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	ok, err := s.Exists(context.Background(), "assets", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected true")
	}
}

func TestGet_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", docKey1)).
		Return(mock.Result(mock.RedisString(`{"value":"test"}`)))

	s := NewStoreForTest(c)
	body, err := s.Get(context.Background(), "assets", "1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"value":"test"}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestGet_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("GET", docKey1)).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	if _, err := s.Get(context.Background(), "assets", "1"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestPut_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	gomock.InOrder(
		c.EXPECT().
			Do(gomock.Any(), mock.Match("SET", docKey1, `{"a":1}`, "NX")).
			Return(mock.Result(mock.RedisString("OK"))),
		c.EXPECT().
			Do(gomock.Any(), mock.Match("ZADD", idsKey, "0", "1")).
			Return(mock.Result(mock.RedisInt64(1))),
	)

	s := NewStoreForTest(c)
	id, err := s.Put(context.Background(), "assets", "1", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "1" {
		t.Errorf("expected id 1, got %q", id)
	}
}

func TestPut_GeneratesID(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("SET", "oceandb:{assets}:doc:gen", `{}`, "NX")).
		Return(mock.Result(mock.RedisString("OK")))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("ZADD", idsKey, "0", "gen")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	s.newID = func() string { return "gen" }
	id, err := s.Put(context.Background(), "assets", "", []byte(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "gen" {
		t.Errorf("expected generated id, got %q", id)
	}
}

func TestPut_Conflict(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	// SET NX replies nil when the key is taken
	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SET" && cmd[1] == docKey1
		})).
		Return(mock.Result(mock.RedisNil()))

	s := NewStoreForTest(c)
	if _, err := s.Put(context.Background(), "assets", "1", []byte(`{}`)); !errors.Is(err, db.ErrKeyExists) {
		t.Fatalf("expected ErrKeyExists, got %v", err)
	}
}

func TestPut_InvalidBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	s := NewStoreForTest(c)
	if _, err := s.Put(context.Background(), "assets", "1", []byte(`not json`)); err == nil {
		t.Fatal("expected error")
	}
}

func TestIndex_Upsert(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		DoMulti(gomock.Any(), gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisString("OK")),
			mock.Result(mock.RedisInt64(0)),
		})

	s := NewStoreForTest(c)
	if _, err := s.Index(context.Background(), "assets", "1", []byte(`{"a":2}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", docKey1)).
		Return(mock.Result(mock.RedisInt64(1)))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("ZREM", idsKey, "1")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	if err := s.Delete(context.Background(), "assets", "1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDelete_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", docKey1)).
		Return(mock.Result(mock.RedisInt64(0)))

	s := NewStoreForTest(c)
	if err := s.Delete(context.Background(), "assets", "1"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestDeleteAll(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("ZRANGE", idsKey, "0", "-1")).
		Return(mock.Result(mock.RedisArray(mock.RedisString("1"), mock.RedisString("2"))))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("DEL", docKey1, docKey2, idsKey)).
		Return(mock.Result(mock.RedisInt64(3)))

	s := NewStoreForTest(c)
	if err := s.DeleteAll(context.Background(), "assets"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCount(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("ZCARD", idsKey)).
		Return(mock.Result(mock.RedisInt64(6)))

	s := NewStoreForTest(c)
	n, err := s.Count(context.Background(), "assets")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 6 {
		t.Errorf("expected 6, got %d", n)
	}
}

// --- search.go tests ---

func expectLoad(c *mock.Client) {
	c.EXPECT().
		Do(gomock.Any(), mock.Match("ZRANGE", idsKey, "0", "-1")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString("1"),
			mock.RedisString("2"),
			mock.RedisString("3"),
		)))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("MGET", docKey1, docKey2, "oceandb:{assets}:doc:3")).
		Return(mock.Result(mock.RedisArray(
			mock.RedisString(`{"license":"CC-BY","rank":2}`),
			mock.RedisString(`{"license":"MIT","rank":1}`),
			mock.RedisNil(),
		)))
}

func TestSearch_Filter(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	expectLoad(c)

	q := clause.All(clause.Any(clause.Match("license", "MIT")))
	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{Collection: "assets", Query: &q, Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 1 || len(res.Hits) != 1 || res.Hits[0].ID != "2" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSearch_SortAndWindow(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)
	expectLoad(c)

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{
		Collection: "assets",
		Sort:       []db.SortClause{{Field: "rank"}},
		From:       0,
		Size:       1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 2 {
		t.Errorf("expected total 2, got %d", res.Total)
	}
	if len(res.Hits) != 1 || res.Hits[0].ID != "2" {
		t.Fatalf("expected lowest rank first, got %+v", res.Hits)
	}
}

func TestSearch_EmptyCollection(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("ZRANGE", idsKey, "0", "-1")).
		Return(mock.Result(mock.RedisArray()))

	s := NewStoreForTest(c)
	res, err := s.Search(context.Background(), &db.SearchQuery{Collection: "assets", Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Total != 0 || len(res.Hits) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

// --- mapping.go tests ---

func TestFieldType_Mapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGET", mapKey, "created")).
		Return(mock.Result(mock.RedisString("date")))

	s := NewStoreForTest(c)
	ft, err := s.FieldType(context.Background(), "assets", "created")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft != db.FieldDate {
		t.Errorf("expected date, got %q", ft)
	}
}

func TestFieldType_Inferred(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGET", mapKey, "license")).
		Return(mock.Result(mock.RedisNil()))
	expectLoad(c)

	s := NewStoreForTest(c)
	ft, err := s.FieldType(context.Background(), "assets", "license")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ft != db.FieldText {
		t.Errorf("expected text, got %q", ft)
	}
}

func TestFieldType_NotMapped(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("HGET", mapKey, "missing")).
		Return(mock.Result(mock.RedisNil()))
	expectLoad(c)

	s := NewStoreForTest(c)
	if _, err := s.FieldType(context.Background(), "assets", "missing"); !errors.Is(err, db.ErrFieldNotMapped) {
		t.Fatalf("expected ErrFieldNotMapped, got %v", err)
	}
}

func TestPutFieldMapping_WithKeyword(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			if cmd[0] != "HSET" || cmd[1] != mapKey || len(cmd) != 6 {
				return false
			}
			got := map[string]string{cmd[2]: cmd[3], cmd[4]: cmd[5]}
			return got["value"] == "text" && got["value.keyword"] == "keyword"
		})).
		Return(mock.Result(mock.RedisInt64(2)))

	s := NewStoreForTest(c)
	err := s.PutFieldMapping(context.Background(), "assets", db.FieldMapping{Path: "value", Type: db.FieldText, Keyword: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBootstrap_Exists(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", mapKey)).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	err := s.Bootstrap(context.Background(), "assets", db.NewMapping().Date("created").MustBuild())
	if !errors.Is(err, db.ErrCollectionExists) {
		t.Fatalf("expected ErrCollectionExists, got %v", err)
	}
}

func TestBootstrap_Creates(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := mock.NewClient(ctrl)

	c.EXPECT().
		Do(gomock.Any(), mock.Match("EXISTS", mapKey)).
		Return(mock.Result(mock.RedisInt64(0)))
	c.EXPECT().
		Do(gomock.Any(), mock.Match("HSET", mapKey, "created", "date")).
		Return(mock.Result(mock.RedisInt64(1)))

	s := NewStoreForTest(c)
	if err := s.Bootstrap(context.Background(), "assets", db.NewMapping().Date("created").MustBuild()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
