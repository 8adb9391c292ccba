// Package search is the query-to-results pipeline: analyze the raw query,
// retrieve candidates across lanes, fuse duplicates, rank, and report how
// the results were produced.
package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/fusion"
)

// Response is the outcome of one search request.
type Response struct {
	Query         string             `json:"query"`
	Filters       domain.Filters     `json:"-"`
	Products      []domain.Candidate `json:"products"`
	TotalResults  int                `json:"total_results"`
	SearchMethods domain.LaneFlags   `json:"search_methods"`
	IsFallback    bool               `json:"is_fallback"`
	TookMs        int64              `json:"took_ms"`
}

// Service runs the search pipeline.
type Service struct {
	analyzer  Analyzer
	retriever Retriever
	ranker    Ranker

	maxCandidates int
	logger        *zap.Logger
}

// New creates a search service. maxCandidates caps the fused candidate set
// handed to ranking; zero or negative uses the fusion default.
func New(analyzer Analyzer, retriever Retriever, ranker Ranker, maxCandidates int, logger *zap.Logger) *Service {
	if maxCandidates <= 0 {
		maxCandidates = fusion.DefaultMaxCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		analyzer:      analyzer,
		retriever:     retriever,
		ranker:        ranker,
		maxCandidates: maxCandidates,
		logger:        logger,
	}
}

// Search runs the full pipeline for one query. limit caps the returned
// products; zero or negative returns everything ranking kept.
func (s *Service) Search(ctx context.Context, rawQuery string, limit int) (*Response, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	start := time.Now()

	filters := s.analyzer.Analyze(query)

	candidates, flags, err := s.retriever.Retrieve(ctx, query, filters)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	fused := fusion.Fuse(candidates, s.maxCandidates)
	ranked := s.ranker.Rank(fused, filters, query)

	products := ranked.Products
	if limit > 0 && len(products) > limit {
		products = products[:limit]
	}
	if ranked.IsFallback {
		flags.Fallback = true
	}

	s.logger.Info("search completed",
		zap.String("query", query),
		zap.Int("candidates", len(fused)),
		zap.Int("results", len(products)),
		zap.Bool("fallback", flags.Fallback),
		zap.Duration("took", time.Since(start)),
	)

	return &Response{
		Query:         query,
		Filters:       filters,
		Products:      products,
		TotalResults:  len(products),
		SearchMethods: flags,
		IsFallback:    flags.Fallback,
		TookMs:        time.Since(start).Milliseconds(),
	}, nil
}
