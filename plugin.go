// Package oceandb is a document storage driver: CRUD, listing and structured or free-text search
// over Elasticsearch, Redis or an in-process store.
package oceandb

import (
	"context"
	"fmt"
	"iter"

	"go.uber.org/zap"

	"github.com/kailas-cloud/oceandb/internal/db"
	domdoc "github.com/kailas-cloud/oceandb/internal/domain/document"
	"github.com/kailas-cloud/oceandb/internal/domain/search/registry"
	"github.com/kailas-cloud/oceandb/internal/domain/search/translate"
	"github.com/kailas-cloud/oceandb/internal/metrics"
	documentrepo "github.com/kailas-cloud/oceandb/internal/repository/document"
	"github.com/kailas-cloud/oceandb/internal/repository/sorting"
	documentuc "github.com/kailas-cloud/oceandb/internal/usecase/document"
)

// Plugin is a connected storage driver bound to one index.
type Plugin struct {
	store  db.Store
	repo   *documentrepo.Repo
	docs   *documentuc.Service
	logger *zap.Logger
}

// Open connects to the configured store, waits until it answers and creates the index if needed.
func Open(ctx context.Context, opts Options) (*Plugin, error) {
	opts.applyDefaults()

	store, err := createStore(&opts)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, opts.ReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("oceandb: database not ready: %w", err)
	}

	p, err := open(ctx, store, opts)
	if err != nil {
		store.Close()
		return nil, err
	}
	return p, nil
}

// open wires a ready store. opts must have defaults applied.
func open(ctx context.Context, store db.Store, opts Options) (*Plugin, error) {
	reg, err := registry.Lookup(opts.Registry)
	if err != nil {
		return nil, fmt.Errorf("oceandb: %w", err)
	}

	if opts.Instrument {
		metrics.RegisterStoreMetrics()
		store = metrics.NewInstrumentedStore(store, opts.Logger)
	}

	repo := documentrepo.New(store, opts.Index)
	if !opts.SkipBootstrap {
		created, err := repo.Bootstrap(ctx, documentrepo.DefaultMapping(reg))
		if err != nil {
			return nil, fmt.Errorf("oceandb: %w", err)
		}
		if created {
			opts.Logger.Info("Index created", zap.String("index", opts.Index), zap.String("store", store.Kind()))
		}
	}

	docs := documentuc.New(
		repo,
		translate.New(reg, opts.Logger),
		sorting.New(store, opts.Index, reg),
		opts.Logger,
	).
		WithPagination(opts.DefaultPageSize).
		WithChunkSize(opts.ListChunkSize).
		WithTextSortField(opts.TextSortField)

	return &Plugin{store: store, repo: repo, docs: docs, logger: opts.Logger}, nil
}

// Type names the backing engine, e.g. "Elasticsearch".
func (p *Plugin) Type() string { return p.store.Kind() }

// Index returns the bound index name.
func (p *Plugin) Index() string { return p.repo.Collection() }

// Close releases the store connection.
func (p *Plugin) Close() {
	if p.store != nil {
		p.store.Close()
	}
}

// Ping checks database connectivity.
func (p *Plugin) Ping(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Write creates a document and returns its id. An empty id lets the store assign one;
// a taken id fails with ErrAlreadyExists.
func (p *Plugin) Write(ctx context.Context, body map[string]any, id string) (string, error) {
	return p.docs.Write(ctx, body, id)
}

// Read returns the body stored under id, or ErrNotFound.
func (p *Plugin) Read(ctx context.Context, id string) (map[string]any, error) {
	doc, err := p.docs.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.Body(), nil
}

// Update replaces the body stored under id, creating it when absent.
func (p *Plugin) Update(ctx context.Context, body map[string]any, id string) (string, error) {
	return p.docs.Update(ctx, body, id)
}

// Delete removes a document, or fails with ErrNotFound.
func (p *Plugin) Delete(ctx context.Context, id string) error {
	return p.docs.Delete(ctx, id)
}

// DeleteAll removes every document of the index.
func (p *Plugin) DeleteAll(ctx context.Context) error {
	return p.docs.DeleteAll(ctx)
}

// Count returns the number of stored documents; store failures count as zero.
func (p *Plugin) Count(ctx context.Context) (int, error) {
	return p.docs.Count(ctx)
}

// List walks documents in id order.
func (p *Plugin) List(ctx context.Context, opts ListOptions) iter.Seq2[Document, error] {
	seq := p.docs.List(ctx, documentuc.ListOptions{From: opts.From, To: opts.To, Limit: opts.Limit})
	return func(yield func(Document, error) bool) {
		for d, err := range seq {
			if err != nil {
				yield(Document{}, err)
				return
			}
			if !yield(fromDomain(d), nil) {
				return
			}
		}
	}
}

// Query runs a structured search.
func (p *Plugin) Query(ctx context.Context, req QueryRequest) (Page, error) {
	page, err := p.docs.Query(ctx, documentuc.Request{
		Query:  req.Query,
		Sort:   req.Sort,
		Page:   req.Page,
		Offset: req.PageSize,
	})
	if err != nil {
		return Page{}, err
	}
	return fromPage(page), nil
}

// TextQuery runs a free-text search.
func (p *Plugin) TextQuery(ctx context.Context, req TextQueryRequest) (Page, error) {
	page, err := p.docs.TextQuery(ctx, documentuc.TextRequest{
		Text:   req.Text,
		Sort:   req.Sort,
		Page:   req.Page,
		Offset: req.PageSize,
	})
	if err != nil {
		return Page{}, err
	}
	return fromPage(page), nil
}

func fromDomain(d domdoc.Document) Document {
	return Document{ID: d.ID(), Body: d.Body()}
}

func fromPage(p documentuc.Page) Page {
	docs := make([]Document, len(p.Documents))
	for i, d := range p.Documents {
		docs[i] = fromDomain(d)
	}
	return Page{Documents: docs, Total: p.Total}
}
