package domain

// Lane identifies one retrieval pathway.
type Lane string

// Lane values.
const (
	LaneVector     Lane = "vector"
	LaneLexical    Lane = "lexical"
	LaneStructured Lane = "structured"
)

// LaneFlags records which retrieval pathways contributed to a response.
type LaneFlags struct {
	Vector     bool `json:"vector"`
	Lexical    bool `json:"lexical"`
	Structured bool `json:"structured"`
	Fallback   bool `json:"fallback"`
}

// ScoreDelta is one named adjustment applied by a ranking stage.
type ScoreDelta struct {
	Stage string  `json:"stage"`
	Delta float64 `json:"delta"`
}

// Candidate is a catalog item annotated with retrieval and ranking state.
// Created by fusion, mutated only by the ranking engine, discarded after
// the response is produced.
type Candidate struct {
	Item CatalogItem `json:"item"`

	Lanes []Lane `json:"lanes"`

	VectorScore     float64 `json:"vector_score,omitempty"`
	LexicalScore    float64 `json:"lexical_score,omitempty"`
	StructuredScore float64 `json:"structured_score,omitempty"`

	CombinedScore  float64      `json:"combined_score"`
	ScoreBreakdown []ScoreDelta `json:"score_breakdown,omitempty"`
	FinalScore     float64      `json:"final_score"`

	IsFallbackResult bool `json:"is_fallback_result,omitempty"`
}

// HasLane reports whether the candidate was produced by the given lane.
func (c *Candidate) HasLane(lane Lane) bool {
	for _, l := range c.Lanes {
		if l == lane {
			return true
		}
	}
	return false
}

// AddLane appends a lane tag if not already present.
func (c *Candidate) AddLane(lane Lane) {
	if !c.HasLane(lane) {
		c.Lanes = append(c.Lanes, lane)
	}
}

// Adjust applies a named score delta and records it in the breakdown.
func (c *Candidate) Adjust(stage string, delta float64) {
	if delta == 0 {
		return
	}
	c.FinalScore += delta
	c.ScoreBreakdown = append(c.ScoreBreakdown, ScoreDelta{Stage: stage, Delta: delta})
}

// Scale multiplies the final score and records the resulting delta.
func (c *Candidate) Scale(stage string, factor float64) {
	if factor == 1 {
		return
	}
	before := c.FinalScore
	c.FinalScore *= factor
	c.ScoreBreakdown = append(c.ScoreBreakdown, ScoreDelta{Stage: stage, Delta: c.FinalScore - before})
}
