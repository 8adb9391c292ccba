// Package indexing maintains the two product indexes behind search: the
// catalog hashes with their FT schema and the in-memory vector index. Bulk
// loads can run asynchronously as tracked jobs.
package indexing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/shoplane/shoplane/internal/db"
	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/repository/catalog"
	"github.com/shoplane/shoplane/internal/vector"
)

// Defaults for bulk indexing.
const (
	DefaultBatchSize = 200
	DefaultWorkers   = 4
	DefaultJobTTL    = 24 * time.Hour
)

// Stats combines both index views.
type Stats struct {
	Vector       vector.Stats `json:"vector"`
	CatalogCount int64        `json:"catalog_count"`
}

// Service coordinates writes across the catalog store and the vector index.
type Service struct {
	catalog CatalogWriter
	vectors VectorIndex
	jobs    JobStore

	batchSize int
	workers   int
	jobTTL    time.Duration
	logger    *zap.Logger
}

// New creates an indexing service.
func New(cat CatalogWriter, vectors VectorIndex, jobs JobStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		catalog:   cat,
		vectors:   vectors,
		jobs:      jobs,
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		jobTTL:    DefaultJobTTL,
		logger:    logger,
	}
}

// WithBatching overrides the bulk batch size and worker count.
func (s *Service) WithBatching(batchSize, workers int) *Service {
	if batchSize > 0 {
		s.batchSize = batchSize
	}
	if workers > 0 {
		s.workers = workers
	}
	return s
}

// IndexProduct writes one product to both indexes.
func (s *Service) IndexProduct(ctx context.Context, item *domain.CatalogItem) error {
	if item == nil || item.ID == "" {
		return fmt.Errorf("%w: missing id", domain.ErrInvalidItem)
	}
	if err := s.vectors.IndexProduct(item); err != nil {
		return fmt.Errorf("vector index: %w", err)
	}
	if err := s.catalog.Save(ctx, item); err != nil {
		return fmt.Errorf("catalog save: %w", err)
	}
	return nil
}

// BulkIndex writes a batch to both indexes and returns how many products
// were accepted. Catalog batches are written concurrently; the vector
// index takes the whole set under one vocabulary rebuild.
func (s *Service) BulkIndex(ctx context.Context, items []domain.CatalogItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	valid := make([]domain.CatalogItem, 0, len(items))
	for i := range items {
		if items[i].ID == "" {
			s.logger.Warn("skipping bulk item without id", zap.Int("position", i))
			continue
		}
		valid = append(valid, items[i])
	}
	if len(valid) == 0 {
		return 0, domain.ErrInvalidItem
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for start := 0; start < len(valid); start += s.batchSize {
		end := start + s.batchSize
		if end > len(valid) {
			end = len(valid)
		}
		batch := valid[start:end]
		g.Go(func() error {
			return s.catalog.SaveAll(gctx, batch)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("catalog bulk save: %w", err)
	}

	indexed := s.vectors.BulkIndex(valid)
	s.logger.Info("bulk index completed",
		zap.Int("received", len(items)),
		zap.Int("indexed", indexed),
	)
	return indexed, nil
}

// StartBulkIndex runs BulkIndex in the background and returns a job the
// caller can poll. The job record outlives the request context.
func (s *Service) StartBulkIndex(ctx context.Context, items []domain.CatalogItem) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.New().String(),
		Status:    JobPending,
		Total:     len(items),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.saveJob(ctx, job); err != nil {
		return nil, err
	}

	accepted := *job

	bg := context.WithoutCancel(ctx)
	go func() {
		job.Status = JobRunning
		job.UpdatedAt = time.Now().UTC()
		if err := s.saveJob(bg, job); err != nil {
			s.logger.Warn("job update failed", zap.String("job", job.ID), zap.Error(err))
		}

		indexed, err := s.BulkIndex(bg, items)
		job.Indexed = indexed
		job.UpdatedAt = time.Now().UTC()
		if err != nil {
			job.Status = JobFailed
			job.Error = err.Error()
		} else {
			job.Status = JobCompleted
		}
		if err := s.saveJob(bg, job); err != nil {
			s.logger.Warn("job update failed", zap.String("job", job.ID), zap.Error(err))
		}
	}()

	return &accepted, nil
}

// Job returns the current state of a bulk-index job.
func (s *Service) Job(ctx context.Context, id string) (*Job, error) {
	raw, err := s.jobs.Get(ctx, jobKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	var job Job
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// ClearIndex empties both indexes and reports how many catalog keys were
// removed.
func (s *Service) ClearIndex(ctx context.Context) (int, error) {
	s.vectors.Clear()
	deleted, err := s.catalog.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("catalog clear: %w", err)
	}
	s.logger.Info("index cleared", zap.Int("deleted", deleted))
	return deleted, nil
}

// SaveSnapshot persists the vector index to disk.
func (s *Service) SaveSnapshot(context.Context) error {
	if err := s.vectors.SaveSnapshot(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores the vector index from disk. A corrupt snapshot is
// reported but leaves the service running on an empty index.
func (s *Service) LoadSnapshot(context.Context) error {
	if err := s.vectors.LoadSnapshot(); err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	return nil
}

// Stats reports combined index statistics.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	count, err := s.catalog.Count(ctx, catalog.IndexName)
	if err != nil {
		return Stats{}, fmt.Errorf("catalog count: %w", err)
	}
	return Stats{Vector: s.vectors.Stats(), CatalogCount: count}, nil
}

func (s *Service) saveJob(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}
	if err := s.jobs.SetWithTTL(ctx, jobKey(job.ID), data, s.jobTTL); err != nil {
		return fmt.Errorf("store job %s: %w", job.ID, err)
	}
	return nil
}
