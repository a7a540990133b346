package classify

import (
	"fmt"
	"sort"

	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/pkg/logger"
)

// Threshold binds a tier to its minimum score (inclusive)
type Threshold struct {
	Tier model.Tier
	Min  float64
}

// Thresholds is an ordered tier ladder, highest minimum first. Scores
// below the lowest rung are excluded rather than bucketed. Ladders are
// data, not code: swapping a ladder never touches classification logic.
type Thresholds []Threshold

// AlertThresholds bucket candidates by signal strength
var AlertThresholds = Thresholds{
	{Tier: model.TierCritical, Min: 0.70},
	{Tier: model.TierDeveloping, Min: 0.40},
	{Tier: model.TierEarly, Min: 0.25},
}

// ActionThresholds bucket candidates by recommended handling. The rungs
// happen to match AlertThresholds today but the ladders are independent
// and tuned separately.
var ActionThresholds = Thresholds{
	{Tier: model.TierTradeReady, Min: 0.70},
	{Tier: model.TierWatchlist, Min: 0.40},
	{Tier: model.TierMonitor, Min: 0.25},
}

// Classify returns the first tier whose minimum the score meets.
// ok is false when the score falls below every rung.
func (t Thresholds) Classify(score float64) (model.Tier, bool) {
	for _, rung := range t {
		if score >= rung.Min {
			return rung.Tier, true
		}
	}
	return "", false
}

// Validate checks the ladder is non-empty, strictly descending, and
// within [0,1].
func (t Thresholds) Validate() error {
	if len(t) == 0 {
		return fmt.Errorf("threshold ladder is empty")
	}
	if !sort.SliceIsSorted(t, func(i, j int) bool { return t[i].Min > t[j].Min }) {
		return fmt.Errorf("threshold ladder must be strictly descending")
	}
	for _, rung := range t {
		if rung.Min < 0 || rung.Min > 1 {
			return fmt.Errorf("threshold %.2f for tier %s out of [0,1]", rung.Min, rung.Tier)
		}
	}
	return nil
}

// Classifier assigns tiers to normalized candidates
type Classifier struct {
	thresholds Thresholds
	logger     *logger.Logger
}

// NewClassifier creates a classifier over the given ladder
func NewClassifier(thresholds Thresholds, log *logger.Logger) *Classifier {
	return &Classifier{thresholds: thresholds, logger: log}
}

// ClassifyAll tiers every candidate and drops the ones below the
// lowest rung. Input order is preserved; the input slice is not
// mutated.
func (c *Classifier) ClassifyAll(candidates []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, 0, len(candidates))

	for _, cand := range candidates {
		tier, ok := c.thresholds.Classify(cand.Score)
		if !ok {
			continue
		}
		cand.Tier = tier
		cand.Rationale = rationale(cand)
		out = append(out, cand)
	}

	if dropped := len(candidates) - len(out); dropped > 0 {
		c.logger.WithField("below_threshold", dropped).Debug("Excluded low-score candidates")
	}

	return out
}

func rationale(c model.Candidate) string {
	r := fmt.Sprintf("score %.2f, %.1fx volume surge", c.Score, c.VolumeSurge)
	if c.Pattern != nil && c.Pattern.Pattern != "" {
		r += fmt.Sprintf(", %.0f%% match to %s", c.Pattern.Similarity*100, c.Pattern.Pattern)
	}
	return r
}
