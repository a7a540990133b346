package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"})
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		wantTier model.Tier
		wantOK   bool
	}{
		{"at critical threshold", 0.70, model.TierCritical, true},
		{"just below critical", 0.6999, model.TierDeveloping, true},
		{"well above critical", 0.85, model.TierCritical, true},
		{"at developing threshold", 0.40, model.TierDeveloping, true},
		{"at early threshold", 0.25, model.TierEarly, true},
		{"just below early", 0.2499, "", false},
		{"zero excluded", 0, "", false},
		{"max score", 1.0, model.TierCritical, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tier, ok := AlertThresholds.Classify(tt.score)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantTier, tier)
		})
	}
}

func TestActionLadderIndependent(t *testing.T) {
	tier, ok := ActionThresholds.Classify(0.85)
	require.True(t, ok)
	assert.Equal(t, model.TierTradeReady, tier)

	tier, ok = ActionThresholds.Classify(0.50)
	require.True(t, ok)
	assert.Equal(t, model.TierWatchlist, tier)

	tier, ok = ActionThresholds.Classify(0.30)
	require.True(t, ok)
	assert.Equal(t, model.TierMonitor, tier)
}

func TestThresholdsValidate(t *testing.T) {
	assert.NoError(t, AlertThresholds.Validate())
	assert.NoError(t, ActionThresholds.Validate())

	assert.Error(t, Thresholds{}.Validate())
	assert.Error(t, Thresholds{
		{Tier: model.TierEarly, Min: 0.25},
		{Tier: model.TierCritical, Min: 0.70},
	}.Validate())
	assert.Error(t, Thresholds{{Tier: model.TierCritical, Min: 1.2}}.Validate())
}

func TestClassifyAll(t *testing.T) {
	c := NewClassifier(AlertThresholds, testLogger())

	in := []model.Candidate{
		{Symbol: "VIGL", Score: 0.85, VolumeSurge: 12.0},
		{Symbol: "AMC", Score: 0.44, VolumeSurge: 5.5},
		{Symbol: "DUST", Score: 0.10},
		{Symbol: "GME", Score: 0.25, VolumeSurge: 3.2},
	}

	out := c.ClassifyAll(in)

	require.Len(t, out, 3)
	assert.Equal(t, model.TierCritical, out[0].Tier)
	assert.Equal(t, model.TierDeveloping, out[1].Tier)
	assert.Equal(t, model.TierEarly, out[2].Tier)
	assert.Equal(t, "GME", out[2].Symbol)

	// input untouched
	assert.Empty(t, in[0].Tier)
}

func TestClassifyAllRationale(t *testing.T) {
	c := NewClassifier(AlertThresholds, testLogger())

	out := c.ClassifyAll([]model.Candidate{{
		Symbol:      "VIGL",
		Score:       0.85,
		VolumeSurge: 12.0,
		Pattern:     &model.PatternMatch{Pattern: "VIGL_2021", Similarity: 0.91},
	}})

	require.Len(t, out, 1)
	assert.Equal(t, "score 0.85, 12.0x volume surge, 91% match to VIGL_2021", out[0].Rationale)
}
