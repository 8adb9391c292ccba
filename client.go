// Package shoplane is the embedded product-search client: the same
// analyze-retrieve-fuse-rank pipeline the HTTP server runs, wired for
// in-process use against a Redis-backed catalog.
package shoplane

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/db"
	dbRedis "github.com/shoplane/shoplane/internal/db/redis"
	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/query"
	"github.com/shoplane/shoplane/internal/ranking"
	catalogrepo "github.com/shoplane/shoplane/internal/repository/catalog"
	"github.com/shoplane/shoplane/internal/retrieval"
	indexinguc "github.com/shoplane/shoplane/internal/usecase/indexing"
	searchuc "github.com/shoplane/shoplane/internal/usecase/search"
	"github.com/shoplane/shoplane/internal/vector"
)

const defaultReadinessTimeout = 10 * time.Second

// Internal interfaces substituted in tests.
type searchUseCase interface {
	Search(ctx context.Context, rawQuery string, limit int) (*searchuc.Response, error)
}

type indexUseCase interface {
	IndexProduct(ctx context.Context, item *domain.CatalogItem) error
	BulkIndex(ctx context.Context, items []domain.CatalogItem) (int, error)
	ClearIndex(ctx context.Context) (int, error)
	SaveSnapshot(ctx context.Context) error
	LoadSnapshot(ctx context.Context) error
	Stats(ctx context.Context) (indexinguc.Stats, error)
}

// Client is the shoplane SDK entry point.
type Client struct {
	store     db.Store
	searchSvc searchUseCase
	indexSvc  indexUseCase
}

// New creates a shoplane Client and connects to the database.
// The provided context is used for the initial readiness check.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	if len(cfg.addrs) == 0 {
		return nil, errors.New("shoplane: database address required (use WithRedis)")
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.addrs,
		Password: cfg.password,
	})
	if err != nil {
		return nil, fmt.Errorf("shoplane: create redis store: %w", err)
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("shoplane: database not ready: %w", err)
	}

	return wireClient(ctx, store, cfg)
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig) (*Client, error) {
	catRepo := catalogrepo.New(store)
	if err := catRepo.EnsureIndex(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("shoplane: ensure product index: %w", err)
	}

	vectorIdx := vector.New(vector.Config{
		MinDimensions: cfg.minDimensions,
		MaxDimensions: cfg.maxDimensions,
		SnapshotPath:  cfg.snapshotPath,
	}, cfg.logger)

	analyzer := query.NewAnalyzer(cfg.logger)
	orchestrator := retrieval.NewOrchestrator(
		retrieval.DefaultConfig(), vectorIdx, catRepo, catRepo, nil, cfg.logger,
	)
	engine := ranking.NewEngine(ranking.DefaultConfig(), cfg.logger)

	searchSvc := searchuc.New(analyzer, orchestrator, engine, cfg.maxCandidates, cfg.logger)
	indexSvc := indexinguc.New(catRepo, vectorIdx, store, cfg.logger)
	if cfg.batchSize > 0 || cfg.workers > 0 {
		indexSvc = indexSvc.WithBatching(cfg.batchSize, cfg.workers)
	}

	return &Client{
		store:     store,
		searchSvc: searchSvc,
		indexSvc:  indexSvc,
	}, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks database connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Search runs one product query. limit caps the returned hits; zero means
// everything ranking kept.
func (c *Client) Search(ctx context.Context, queryText string, limit int) (*SearchResponse, error) {
	resp, err := c.searchSvc.Search(ctx, queryText, limit)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return fromSearchResponse(resp), nil
}

// IndexProduct writes one product into the search indexes.
func (c *Client) IndexProduct(ctx context.Context, p *Product) error {
	item := toInternalItem(p)
	if err := c.indexSvc.IndexProduct(ctx, &item); err != nil {
		return fmt.Errorf("index product: %w", err)
	}
	return nil
}

// BulkIndex writes a batch of products and returns how many were accepted.
func (c *Client) BulkIndex(ctx context.Context, products []Product) (int, error) {
	items := make([]domain.CatalogItem, 0, len(products))
	for i := range products {
		items = append(items, toInternalItem(&products[i]))
	}
	n, err := c.indexSvc.BulkIndex(ctx, items)
	if err != nil {
		return 0, fmt.Errorf("bulk index: %w", err)
	}
	return n, nil
}

// ClearIndex empties both search indexes.
func (c *Client) ClearIndex(ctx context.Context) (int, error) {
	n, err := c.indexSvc.ClearIndex(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear index: %w", err)
	}
	return n, nil
}

// SaveSnapshot persists the vector index to the configured snapshot path.
func (c *Client) SaveSnapshot(ctx context.Context) error {
	if err := c.indexSvc.SaveSnapshot(ctx); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores the vector index from the configured snapshot path.
func (c *Client) LoadSnapshot(ctx context.Context) error {
	if err := c.indexSvc.LoadSnapshot(ctx); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	return nil
}

// Stats reports combined index statistics.
func (c *Client) Stats(ctx context.Context) (Stats, error) {
	stats, err := c.indexSvc.Stats(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("stats: %w", err)
	}
	return fromInternalStats(stats), nil
}
