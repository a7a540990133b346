package risk

import (
	"math"

	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/logger"
)

// PositionPlan is a fully sized entry: whole shares under the capital
// limit plus a volatility-adjusted bracket.
type PositionPlan struct {
	Symbol          string  `json:"symbol"`
	Shares          int     `json:"shares"`
	EntryPrice      float64 `json:"entry_price"`
	Notional        float64 `json:"notional"`
	StopLossPct     float64 `json:"stop_loss_pct"`
	TakeProfitPct   float64 `json:"take_profit_pct"`
	StopLossPrice   float64 `json:"stop_loss_price"`
	TakeProfitPrice float64 `json:"take_profit_price"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
}

// Bracket converts the plan's exit levels into order bracket legs
func (p *PositionPlan) Bracket() *model.Bracket {
	stop := p.StopLossPct
	take := p.TakeProfitPct
	return &model.Bracket{StopLossPct: &stop, TakeProfitPct: &take}
}

// Sizer turns a classified candidate into a position plan bounded by
// the configured per-trade capital limit.
type Sizer struct {
	capitalLimit float64
	logger       *logger.Logger
}

// NewSizer creates a sizer from the trade configuration
func NewSizer(cfg *config.Config, log *logger.Logger) *Sizer {
	return &Sizer{capitalLimit: cfg.Trade.CapitalLimit, logger: log}
}

// Plan sizes an entry for the candidate. Share count is the largest
// whole number of shares the capital limit affords; when that is zero
// the trade is refused with *model.PositionTooSmallError instead of
// being rounded up past the limit.
func (s *Sizer) Plan(c model.Candidate) (*PositionPlan, error) {
	shares := int(math.Floor(s.capitalLimit / c.Price))
	if shares < 1 {
		return nil, &model.PositionTooSmallError{
			Symbol:       c.Symbol,
			Price:        c.Price,
			CapitalLimit: s.capitalLimit,
		}
	}

	stopPct := stopLossPct(c.Score, c.VolumeSurge)
	takePct := round1(stopPct * 2)

	plan := &PositionPlan{
		Symbol:          c.Symbol,
		Shares:          shares,
		EntryPrice:      c.Price,
		Notional:        float64(shares) * c.Price,
		StopLossPct:     stopPct,
		TakeProfitPct:   takePct,
		StopLossPrice:   c.Price * (1 - stopPct/100),
		TakeProfitPrice: c.Price * (1 + takePct/100),
		RiskRewardRatio: takePct / stopPct,
	}

	s.logger.WithFields(map[string]interface{}{
		"symbol":   plan.Symbol,
		"shares":   plan.Shares,
		"stop_pct": plan.StopLossPct,
		"take_pct": plan.TakeProfitPct,
	}).Debug("Sized position")

	return plan, nil
}

// stopLossPct derives the stop distance from conviction and volume.
// High-score names get a tight base stop; extreme relative volume
// tightens it further because such moves unwind fast.
func stopLossPct(score, volumeSurge float64) float64 {
	var base float64
	switch {
	case score >= 0.70:
		base = 5
	case score >= 0.60:
		base = 7
	default:
		base = 10
	}

	switch {
	case volumeSurge >= 10:
		base *= 0.8
	case volumeSurge >= 5:
		base *= 0.9
	}

	return round1(base)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
