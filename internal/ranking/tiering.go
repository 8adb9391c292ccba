package ranking

import "sort"

// applyTiering buckets candidates by score and demotes the ones whose score
// is not backed by enough independent signal for their bucket. High scores
// are held to a stricter standard: a candidate at the top without a category
// or feature match is almost always an accumulation artifact, not a good
// answer. Demotion multiplies, it never drops; only the lowest tier is
// capped in size.
func (e *Engine) applyTiering(pool []*ranked) []*ranked {
	tail := make([]*ranked, 0)

	for _, rc := range pool {
		score := rc.cand.FinalScore
		switch {
		case score >= e.cfg.TierTop:
			if !(rc.categorySignal || (rc.featureSignal && rc.matchFraction >= strongMatchFraction)) {
				rc.cand.Scale("tier_demotion", e.cfg.TierDemotion)
			}
		case score >= e.cfg.TierHigh:
			if !(rc.categorySignal || rc.featureSignal || rc.matchFraction >= strongMatchFraction) {
				rc.cand.Scale("tier_demotion", e.cfg.TierDemotion)
			}
		case score >= e.cfg.TierMid:
			if rc.matchFraction == 0 && !rc.categorySignal && !rc.featureSignal {
				rc.cand.Scale("tier_demotion", e.cfg.TierDemotion)
			}
		default:
			tail = append(tail, rc)
		}
	}

	// Cap the tail: beyond a point, weak candidates only dilute the
	// result list, so everything past the cap is cut from the pool.
	if e.cfg.TailCap > 0 && len(tail) > e.cfg.TailCap {
		sort.SliceStable(tail, func(i, j int) bool {
			if tail[i].cand.FinalScore != tail[j].cand.FinalScore {
				return tail[i].cand.FinalScore > tail[j].cand.FinalScore
			}
			return tail[i].cand.Item.ID < tail[j].cand.Item.ID
		})
		drop := make(map[*ranked]struct{}, len(tail)-e.cfg.TailCap)
		for _, rc := range tail[e.cfg.TailCap:] {
			drop[rc] = struct{}{}
		}
		kept := pool[:0]
		for _, rc := range pool {
			if _, gone := drop[rc]; !gone {
				kept = append(kept, rc)
			}
		}
		pool = kept
	}

	e.demoteInconsistentLeaders(pool)
	return pool
}

// demoteInconsistentLeaders runs a consistency pass over the current top 10:
// a leader with no category signal at all gets one more demotion so it does
// not outrank well-grounded results on accumulated bonuses alone.
func (e *Engine) demoteInconsistentLeaders(pool []*ranked) {
	byScore := make([]*ranked, len(pool))
	copy(byScore, pool)
	sort.SliceStable(byScore, func(i, j int) bool {
		if byScore[i].cand.FinalScore != byScore[j].cand.FinalScore {
			return byScore[i].cand.FinalScore > byScore[j].cand.FinalScore
		}
		return byScore[i].cand.Item.ID < byScore[j].cand.Item.ID
	})

	limit := 10
	if len(byScore) < limit {
		limit = len(byScore)
	}
	for _, rc := range byScore[:limit] {
		if !rc.categorySignal && !rc.intentMatch {
			rc.cand.Scale("leader_consistency", 0.8)
		}
	}
}
