package model

import "time"

// Candidate is the canonical, post-normalization view of one discovery
// record. Within an aggregated snapshot the Symbol is unique and the
// record present is the most-recently-merged one.
type Candidate struct {
	Symbol      string        `json:"symbol"`
	Price       float64       `json:"price"`
	Score       float64       `json:"score"` // normalized to [0,1]
	Tier        Tier          `json:"tier,omitempty"`
	Rationale   string        `json:"rationale,omitempty"`
	VolumeSurge float64       `json:"volume_surge"`
	DollarVol   *float64      `json:"dollar_volume,omitempty"`
	Momentum1D  *float64      `json:"momentum_1d,omitempty"`
	Pattern     *PatternMatch `json:"pattern_match,omitempty"`
	DetectedAt  time.Time     `json:"detected_at"`
}

// PatternMatch carries the upstream pattern-similarity block. A nil
// pointer on Candidate means the upstream omitted it; downstream code
// must not confuse that with a zero-valued match.
type PatternMatch struct {
	Pattern     string  `json:"pattern,omitempty"`
	Similarity  float64 `json:"similarity"` // 0..1
	BonusPoints float64 `json:"bonus_points"`
	Outcome     string  `json:"outcome,omitempty"`
}

// Tier is a discrete actionability bucket assigned by the classifier,
// never by ingestion.
type Tier string

const (
	TierCritical   Tier = "CRITICAL"
	TierDeveloping Tier = "DEVELOPING"
	TierEarly      Tier = "EARLY"

	TierTradeReady Tier = "TRADE_READY"
	TierWatchlist  Tier = "WATCHLIST"
	TierMonitor    Tier = "MONITOR"
)

// Snapshot is a classified, deduplicated candidate set published
// atomically after a successful refresh.
type Snapshot struct {
	Candidates []Candidate `json:"candidates"`
	Dropped    int64       `json:"dropped"` // records rejected by normalization so far
	UpdatedAt  time.Time   `json:"updated_at"`
}
