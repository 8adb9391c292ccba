// Package fusion merges multi-lane retrieval candidates by product identity
// and bounds the candidate set handed to ranking.
package fusion

import (
	"sort"

	"github.com/shoplane/shoplane/internal/domain"
)

const (
	// DefaultMaxCandidates bounds downstream ranking cost.
	DefaultMaxCandidates = 60

	// crossLaneBonus rewards products surfaced by both the vector and
	// lexical lanes: agreement between independent signals.
	crossLaneBonus = 0.5
)

// Fuse merges lane results keyed by catalog id: lane tags are unioned,
// shared score fields keep their maximum, the richest copy of the item
// survives, and the combined score sums the normalized per-lane
// contributions. The output is sorted by combined score
// and truncated to maxCandidates (DefaultMaxCandidates when <= 0).
func Fuse(laneResults []domain.Candidate, maxCandidates int) []domain.Candidate {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}

	merged := make(map[string]*domain.Candidate, len(laneResults))
	order := make([]string, 0, len(laneResults))

	for i := range laneResults {
		c := &laneResults[i]
		id := c.Item.ID
		if id == "" {
			continue
		}

		existing, seen := merged[id]
		if !seen {
			cp := *c
			cp.Lanes = append([]domain.Lane(nil), c.Lanes...)
			merged[id] = &cp
			order = append(order, id)
			continue
		}

		for _, lane := range c.Lanes {
			existing.AddLane(lane)
		}
		if itemRichness(&c.Item) > itemRichness(&existing.Item) {
			existing.Item = c.Item
		}
		if c.VectorScore > existing.VectorScore {
			existing.VectorScore = c.VectorScore
		}
		if c.LexicalScore > existing.LexicalScore {
			existing.LexicalScore = c.LexicalScore
		}
		if c.StructuredScore > existing.StructuredScore {
			existing.StructuredScore = c.StructuredScore
		}
	}

	out := make([]domain.Candidate, 0, len(merged))
	for _, id := range order {
		c := merged[id]
		c.CombinedScore = combinedScore(c)
		out = append(out, *c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CombinedScore != out[j].CombinedScore {
			return out[i].CombinedScore > out[j].CombinedScore
		}
		return out[i].Item.ID < out[j].Item.ID
	})

	if len(out) > maxCandidates {
		out = out[:maxCandidates]
	}
	return out
}

// itemRichness counts the populated catalog fields a lane cannot fake: the
// vector lane rebuilds items from denormalized index metadata, which never
// carries a description, tags, or features, so a copy sourced from the
// catalog scores higher and wins the merge.
func itemRichness(item *domain.CatalogItem) int {
	n := 0
	if item.Description != "" {
		n++
	}
	if len(item.Tags) > 0 {
		n++
	}
	if len(item.Features) > 0 {
		n++
	}
	if item.Season != "" {
		n++
	}
	if item.Stocks > 0 {
		n++
	}
	return n
}

// combinedScore sums the per-lane contributions, plus the cross-lane
// agreement bonus when both vector and lexical evidence is present. Lane
// adapters normalize their raw scores before populating the candidate, so
// the sum is never below the strongest single lane.
func combinedScore(c *domain.Candidate) float64 {
	score := c.VectorScore + c.LexicalScore + c.StructuredScore
	if c.HasLane(domain.LaneVector) && c.HasLane(domain.LaneLexical) {
		score += crossLaneBonus
	}
	return score
}
