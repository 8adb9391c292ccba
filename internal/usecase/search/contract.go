package search

import (
	"context"

	"github.com/shoplane/shoplane/internal/domain"
	"github.com/shoplane/shoplane/internal/ranking"
)

// Analyzer turns a raw query string into structured filters.
type Analyzer interface {
	Analyze(raw string) domain.Filters
}

// Retriever fans the query out across the retrieval lanes and reports
// which lanes contributed.
type Retriever interface {
	Retrieve(ctx context.Context, rawQuery string, filters domain.Filters) ([]domain.Candidate, domain.LaneFlags, error)
}

// Ranker orders fused candidates into the final result list.
type Ranker interface {
	Rank(candidates []domain.Candidate, filters domain.Filters, rawQuery string) ranking.Result
}
