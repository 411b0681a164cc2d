package document

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/oceandb/internal/db"
	"github.com/kailas-cloud/oceandb/internal/domain"
	domdoc "github.com/kailas-cloud/oceandb/internal/domain/document"
	"github.com/kailas-cloud/oceandb/internal/logger"
)

const (
	// MaxChunkSize bounds a single list round-trip.
	MaxChunkSize = 25
	// DefaultPageSize applies when a request carries no usable offset.
	DefaultPageSize = 100
	// DefaultTextSortField ranks free-text results when no sort is given.
	DefaultTextSortField = "service.attributes.curation.rating"

	didPrefix = "did:op:"
	hexPrefix = "0x"
)

// Service is the document access facade: CRUD, listing and searches over one collection.
type Service struct {
	repo          Repository
	translator    QueryTranslator
	sorts         SortResolver
	logger        *zap.Logger
	pageSize      int
	chunkSize     int
	textSortField string
}

// New creates a document service. logger may be nil.
func New(repo Repository, translator QueryTranslator, sorts SortResolver, l *zap.Logger) *Service {
	if l == nil {
		l = zap.NewNop()
	}
	return &Service{
		repo:          repo,
		translator:    translator,
		sorts:         sorts,
		logger:        l,
		pageSize:      DefaultPageSize,
		chunkSize:     MaxChunkSize,
		textSortField: DefaultTextSortField,
	}
}

// WithPagination sets the page size used when a request has none.
func (s *Service) WithPagination(defaultPageSize int) *Service {
	if defaultPageSize > 0 {
		s.pageSize = defaultPageSize
	}
	return s
}

// WithChunkSize sets the list chunk size, capped at MaxChunkSize.
func (s *Service) WithChunkSize(n int) *Service {
	if n > 0 {
		s.chunkSize = min(n, MaxChunkSize)
	}
	return s
}

// WithTextSortField sets the default ranking field of text queries.
func (s *Service) WithTextSortField(field string) *Service {
	if field != "" {
		s.textSortField = field
	}
	return s
}

// Write creates a document. A given id that is already taken fails with *domain.AlreadyExistsError;
// an empty id is assigned by the store. The check and the write are not atomic; the store's
// conditional create still rejects a racing duplicate.
func (s *Service) Write(ctx context.Context, body map[string]any, id string) (string, error) {
	s.log(ctx).Debug("write", zap.String("id", id))

	if id != "" {
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if exists {
			return "", &domain.AlreadyExistsError{ID: id}
		}
	}

	newID, err := s.repo.Create(ctx, domdoc.New(id, body))
	if err != nil {
		return "", err
	}
	return newID, nil
}

// Read returns the document body.
func (s *Service) Read(ctx context.Context, id string) (domdoc.Document, error) {
	s.log(ctx).Debug("read", zap.String("id", id))
	return s.repo.Get(ctx, id)
}

// Update fully replaces the document, creating it when absent.
func (s *Service) Update(ctx context.Context, body map[string]any, id string) (string, error) {
	s.log(ctx).Debug("update", zap.String("id", id))
	return s.repo.Replace(ctx, domdoc.New(id, body))
}

// Delete removes the document; a missing id fails with *domain.NotFoundError.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.log(ctx).Debug("delete", zap.String("id", id))
	return s.repo.Delete(ctx, id)
}

// DeleteAll removes every document of the collection.
func (s *Service) DeleteAll(ctx context.Context) error {
	s.log(ctx).Debug("delete all")
	return s.repo.DeleteAll(ctx)
}

// Count returns the number of stored documents. Store failures are logged and count as zero;
// only a cancelled context is reported.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		s.log(ctx).Warn("Count failed, reporting zero", zap.Error(err))
		return 0, nil
	}
	return max(n, 0), nil
}

// List walks documents in id order in bounded chunks. Each range over the
// returned sequence runs the walk again from the start.
func (s *Service) List(ctx context.Context, opts ListOptions) iter.Seq2[domdoc.Document, error] {
	return func(yield func(domdoc.Document, error) bool) {
		count, err := s.Count(ctx)
		if err != nil {
			yield(domdoc.Document{}, err)
			return
		}
		from, limit := window(count, opts)
		if limit <= 0 {
			return
		}
		s.log(ctx).Debug("list", zap.Int("from", from), zap.Int("limit", limit))

		sortByID := []db.SortClause{{Field: db.FieldID}}
		for processed := 0; processed < limit; {
			size := min(s.chunkSize, limit-processed)
			docs, _, err := s.repo.Search(ctx, db.SearchQuery{Sort: sortByID, From: from + processed, Size: size})
			if err != nil {
				yield(domdoc.Document{}, err)
				return
			}
			for _, d := range docs {
				if !yield(d, nil) {
					return
				}
			}
			processed += len(docs)
			if len(docs) < size {
				return
			}
		}
	}
}

// window clamps the requested range to the collection and returns its start and length.
func window(count int, opts ListOptions) (from, limit int) {
	if count <= 0 {
		return 0, 0
	}
	last := count - 1
	if opts.From != nil && *opts.From >= 0 {
		from = min(*opts.From, last)
	}
	to := last
	if opts.To != nil && *opts.To >= 0 {
		to = min(max(*opts.To, from), last)
	}
	limit = to - from + 1
	if opts.Limit != nil {
		limit = min(max(*opts.Limit, 0), count-from)
	}
	return from, limit
}

// Query runs a structured search. Translation and sort errors are returned before any search round-trip.
func (s *Service) Query(ctx context.Context, req Request) (Page, error) {
	if req.Page < 1 {
		return Page{}, &domain.InvalidPageError{Page: req.Page}
	}

	res, err := s.translator.Translate(req.Query)
	if err != nil {
		return Page{}, err
	}

	sort := []db.SortClause{{Field: db.FieldID}}
	if len(req.Sort) > 0 {
		if sort, err = s.sorts.Resolve(ctx, req.Sort); err != nil {
			return Page{}, err
		}
	}

	text := NormalizeText(res.Text)
	if len(text) > 0 {
		sort = append([]db.SortClause{{Field: db.FieldScore, Descending: true}}, sort...)
	}

	q := db.SearchQuery{Sort: sort, Text: strings.Join(text, " ")}
	if res.HasFilter() {
		filter := res.Query
		q.Query = &filter
	}
	s.paginate(&q, req.Page, req.Offset)

	s.log(ctx).Debug("query", zap.Stringer("sort", req.Sort), zap.Int("from", q.From), zap.Int("size", q.Size))
	return s.search(ctx, q)
}

// TextQuery runs a free-text search, ranked by the configured text sort field unless a sort is given.
func (s *Service) TextQuery(ctx context.Context, req TextRequest) (Page, error) {
	if req.Page < 1 {
		return Page{}, &domain.InvalidPageError{Page: req.Page}
	}

	sort := []db.SortClause{{Field: s.textSortField}}
	if len(req.Sort) > 0 {
		var err error
		if sort, err = s.sorts.Resolve(ctx, req.Sort); err != nil {
			return Page{}, err
		}
	}

	q := db.SearchQuery{Sort: sort, Text: strings.TrimSpace(req.Text)}
	s.paginate(&q, req.Page, req.Offset)

	s.log(ctx).Debug("text query", zap.String("text", q.Text), zap.Int("from", q.From), zap.Int("size", q.Size))
	return s.search(ctx, q)
}

func (s *Service) paginate(q *db.SearchQuery, page, offset int) {
	if offset <= 0 {
		offset = s.pageSize
	}
	q.From = (page - 1) * offset
	q.Size = offset
}

func (s *Service) search(ctx context.Context, q db.SearchQuery) (Page, error) {
	docs, total, err := s.repo.Search(ctx, q)
	if err != nil {
		return Page{}, fmt.Errorf("query: %w", err)
	}
	return Page{Documents: docs, Total: total}, nil
}

func (s *Service) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// NormalizeText trims the terms, drops empty ones and rewrites did:op: prefixes to 0x.
func NormalizeText(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, strings.ReplaceAll(t, didPrefix, hexPrefix))
	}
	return out
}
