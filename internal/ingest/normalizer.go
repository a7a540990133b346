package ingest

import (
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/pkg/logger"
)

// Source identifies which upstream endpoint shape a raw record came from
type Source string

const (
	SourceContenders   Source = "contenders"
	SourceContendersV2 Source = "contenders-v2"
	SourceSqueeze      Source = "squeeze-candidates"
)

// Normalizer converts heterogeneous upstream candidate payloads into the
// canonical model.Candidate. Records missing a symbol are dropped, not
// defaulted, and the drop is counted.
type Normalizer struct {
	logger  *logger.Logger
	dropped atomic.Int64
}

// NewNormalizer creates a new normalizer
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{logger: log}
}

// rawCandidate is the alias union of every known upstream shape. Each
// endpoint version populates a different subset; unknown fields are
// ignored by encoding/json.
type rawCandidate struct {
	Symbol string `json:"symbol"`
	Ticker string `json:"ticker"`

	Score                *float64 `json:"score"`
	ExplosionProbability *float64 `json:"explosion_probability"`
	TotalScore           *float64 `json:"total_score"`
	Confidence           *float64 `json:"confidence"`

	Price        *float64 `json:"price"`
	LastPrice    *float64 `json:"last_price"`
	CurrentPrice *float64 `json:"current_price"`

	RVOL        *float64 `json:"rvol"`
	VolumeSurge *float64 `json:"volume_surge"`
	RelVolume   *float64 `json:"rel_volume"`

	Volume       *float64 `json:"volume"`
	DollarVolume *float64 `json:"dollar_volume"`

	Momentum1D     *float64 `json:"momentum_1d"`
	PriceChangePct *float64 `json:"price_change_pct"`

	Snapshot *rawSnapshot `json:"snapshot"`

	PatternMatch *rawPattern `json:"pattern_match"`
	Pattern      *rawPattern `json:"pattern"`

	DetectedAt string `json:"detected_at"`
}

// rawSnapshot is the nested intraday block used by the squeeze endpoint
type rawSnapshot struct {
	IntradayRelVol *float64 `json:"intraday_relvol"`
	Price          *float64 `json:"price"`
	Volume         *float64 `json:"volume"`
}

type rawPattern struct {
	Pattern     *string `json:"pattern"`
	Name        *string `json:"name"`
	Similarity  float64 `json:"similarity"`
	BonusPoints float64 `json:"bonus_points"`
	Outcome     *string `json:"outcome"`
}

// Normalize converts one raw upstream record into a canonical Candidate.
// A record without a symbol yields *model.SchemaMismatchError and is
// counted as dropped.
func (n *Normalizer) Normalize(raw []byte, src Source) (*model.Candidate, error) {
	var rec rawCandidate
	if err := json.Unmarshal(raw, &rec); err != nil {
		n.dropped.Add(1)
		return nil, &model.SchemaMismatchError{Source: string(src), Field: "body"}
	}

	symbol := rec.Symbol
	if symbol == "" {
		symbol = rec.Ticker
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		n.dropped.Add(1)
		n.logger.WithField("source", string(src)).Warn("Dropped candidate without symbol")
		return nil, &model.SchemaMismatchError{Source: string(src), Field: "symbol"}
	}

	c := &model.Candidate{
		Symbol:      symbol,
		Score:       normalizeScore(firstValue(rec.Score, rec.ExplosionProbability, rec.TotalScore, rec.Confidence)),
		Price:       firstValue(rec.Price, rec.LastPrice, rec.CurrentPrice, snapshotPrice(rec.Snapshot)),
		VolumeSurge: firstValue(rec.RVOL, rec.VolumeSurge, rec.RelVolume, snapshotRelVol(rec.Snapshot)),
		Momentum1D:  firstPtr(rec.Momentum1D, rec.PriceChangePct),
		DetectedAt:  parseDetectedAt(rec.DetectedAt),
	}

	if rec.DollarVolume != nil {
		c.DollarVol = rec.DollarVolume
	} else if vol := firstPtr(rec.Volume, snapshotVolume(rec.Snapshot)); vol != nil && c.Price > 0 {
		dv := c.Price * *vol
		c.DollarVol = &dv
	}

	if p := firstPtr(rec.PatternMatch, rec.Pattern); p != nil {
		c.Pattern = &model.PatternMatch{
			Similarity:  p.Similarity,
			BonusPoints: p.BonusPoints,
		}
		if name := firstPtr(p.Pattern, p.Name); name != nil {
			c.Pattern.Pattern = *name
		}
		if p.Outcome != nil {
			c.Pattern.Outcome = *p.Outcome
		}
	}

	return c, nil
}

// NormalizeAll converts a batch, dropping malformed records and keeping
// the rest.
func (n *Normalizer) NormalizeAll(raws []json.RawMessage, src Source) []model.Candidate {
	out := make([]model.Candidate, 0, len(raws))
	for _, raw := range raws {
		c, err := n.Normalize(raw, src)
		if err != nil {
			continue
		}
		out = append(out, *c)
	}
	return out
}

// Dropped returns the cumulative count of records rejected by
// normalization, for observability.
func (n *Normalizer) Dropped() int64 {
	return n.dropped.Load()
}

// normalizeScore maps a raw confidence value onto [0,1]. Upstream shapes
// disagree on scale: anything above 1 is assumed to be a 0-100 percent
// and divided by 100.
func normalizeScore(v float64) float64 {
	if v > 1 {
		return v / 100
	}
	if v < 0 {
		return 0
	}
	return v
}

func firstValue(ptrs ...*float64) float64 {
	for _, p := range ptrs {
		if p != nil {
			return *p
		}
	}
	return 0
}

func firstPtr[T any](ptrs ...*T) *T {
	for _, p := range ptrs {
		if p != nil {
			return p
		}
	}
	return nil
}

func snapshotPrice(s *rawSnapshot) *float64 {
	if s == nil {
		return nil
	}
	return s.Price
}

func snapshotRelVol(s *rawSnapshot) *float64 {
	if s == nil {
		return nil
	}
	return s.IntradayRelVol
}

func snapshotVolume(s *rawSnapshot) *float64 {
	if s == nil {
		return nil
	}
	return s.Volume
}

func parseDetectedAt(raw string) time.Time {
	if raw == "" {
		return time.Now()
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Now()
}
