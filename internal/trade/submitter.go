package trade

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/pkg/config"
	"github.com/minjaelee/vigil/pkg/httputil"
	"github.com/minjaelee/vigil/pkg/logger"
)

// HealthGate lets the submitter consult the last upstream health
// signal before putting an order on the wire.
type HealthGate interface {
	SafeToTrade() bool
}

// Submitter sends orders to the execution endpoint and classifies
// every outcome into a model.OrderResult. No error crosses the Submit
// boundary; transport failures are surfaced verbatim inside the
// result and never retried automatically.
type Submitter struct {
	http    *httputil.Client
	baseURL string
	gate    HealthGate
	logger  *logger.Logger

	mu        sync.RWMutex
	observers []func(symbol string)
}

// NewSubmitter creates an order submitter. gate may be nil when no
// health signal is available; orders then flow unconditionally.
func NewSubmitter(cfg *config.Config, httpClient *httputil.Client, gate HealthGate, log *logger.Logger) *Submitter {
	// An execution POST must reach the endpoint exactly once per send.
	httpClient.DisableRetry()

	return &Submitter{
		http:    httpClient,
		baseURL: cfg.Trade.BaseURL,
		gate:    gate,
		logger:  log,
	}
}

// OnOrderAccepted registers an observer called with the symbol after
// every accepted order. Observers are notified synchronously and must
// not block.
func (s *Submitter) OnOrderAccepted(fn func(symbol string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// executePayload is the wire shape of the execution endpoint
type executePayload struct {
	Symbol          string   `json:"symbol"`
	Action          string   `json:"action"`
	Mode            string   `json:"mode"`
	OrderType       string   `json:"order_type"`
	TimeInForce     string   `json:"time_in_force"`
	NotionalUSD     *float64 `json:"notional_usd,omitempty"`
	Qty             *float64 `json:"qty,omitempty"`
	Price           *float64 `json:"price,omitempty"`
	StopLossPct     *float64 `json:"stop_loss_pct,omitempty"`
	StopLossPrice   *float64 `json:"stop_loss_price,omitempty"`
	TakeProfitPct   *float64 `json:"take_profit_pct,omitempty"`
	TakeProfitPrice *float64 `json:"take_profit_price,omitempty"`
}

type executeResponse struct {
	Success         bool `json:"success"`
	ExecutionResult *struct {
		OrderID string `json:"order_id"`
		Status  string `json:"status"`
	} `json:"execution_result"`
	Error *struct {
		Code          string   `json:"code"`
		Message       string   `json:"message"`
		Cap           *float64 `json:"cap"`
		ObservedPrice *float64 `json:"observed_price"`
	} `json:"error"`
}

// Submit sends one order. The idempotency key on the request makes a
// network-level re-send of the same logical submission safe; callers
// mint a fresh key only for a fresh user confirmation.
func (s *Submitter) Submit(ctx context.Context, req *model.OrderRequest) *model.OrderResult {
	now := time.Now()

	if err := req.Validate(); err != nil {
		return &model.OrderResult{
			Status:      model.OrderInvalid,
			Reason:      err.Error(),
			SubmittedAt: now,
		}
	}

	if s.gate != nil && !s.gate.SafeToTrade() {
		return &model.OrderResult{
			Status:      model.OrderRejected,
			Reason:      "trading_disabled_stale_data",
			Message:     "upstream reports stale data, execution disabled",
			SubmittedAt: now,
		}
	}

	endpoint := s.baseURL + "/trades/execute?idempotency_key=" + url.QueryEscape(req.IdempotencyKey)
	resp, err := s.http.PostJSON(ctx, endpoint, buildPayload(req))
	if err != nil {
		return &model.OrderResult{
			Status:      model.OrderFailed,
			Message:     err.Error(),
			SubmittedAt: now,
		}
	}
	defer resp.Body.Close()

	result := s.classify(resp, now)

	s.logger.WithFields(map[string]interface{}{
		"symbol":   req.Symbol,
		"status":   string(result.Status),
		"order_id": result.OrderID,
	}).Info("Order submission completed")

	if result.Accepted() {
		s.notify(req.Symbol)
	}

	return result
}

// classify maps an HTTP response onto the three terminal outcomes:
// accepted, domain rejection, transport failure.
func (s *Submitter) classify(resp *http.Response, now time.Time) *model.OrderResult {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &model.OrderResult{
			Status:      model.OrderFailed,
			Message:     fmt.Sprintf("failed to read execution response: %v", err),
			SubmittedAt: now,
		}
	}

	if resp.StatusCode >= 500 {
		return &model.OrderResult{
			Status:      model.OrderFailed,
			Message:     fmt.Sprintf("execution endpoint returned status %d: %s", resp.StatusCode, string(body)),
			SubmittedAt: now,
		}
	}

	var decoded executeResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return &model.OrderResult{
			Status:      model.OrderFailed,
			Message:     fmt.Sprintf("malformed execution response: %v", err),
			SubmittedAt: now,
		}
	}

	if decoded.Success {
		result := &model.OrderResult{Status: model.OrderAccepted, SubmittedAt: now}
		if decoded.ExecutionResult != nil {
			result.OrderID = decoded.ExecutionResult.OrderID
		}
		return result
	}

	if decoded.Error != nil {
		return &model.OrderResult{
			Status:        model.OrderRejected,
			Reason:        decoded.Error.Code,
			Message:       decoded.Error.Message,
			Cap:           decoded.Error.Cap,
			ObservedPrice: decoded.Error.ObservedPrice,
			SubmittedAt:   now,
		}
	}

	return &model.OrderResult{
		Status:      model.OrderFailed,
		Message:     fmt.Sprintf("execution endpoint returned status %d without a result", resp.StatusCode),
		SubmittedAt: now,
	}
}

func (s *Submitter) notify(symbol string) {
	s.mu.RLock()
	observers := make([]func(string), len(s.observers))
	copy(observers, s.observers)
	s.mu.RUnlock()

	for _, fn := range observers {
		fn(symbol)
	}
}

func buildPayload(req *model.OrderRequest) executePayload {
	p := executePayload{
		Symbol:      req.Symbol,
		Action:      actionFor(req.Side),
		Mode:        modeFor(req.SizingMode),
		OrderType:   string(req.OrderType),
		TimeInForce: "day",
		Price:       req.LimitPrice,
	}

	if req.NotionalUSD > 0 {
		notional := req.NotionalUSD
		p.NotionalUSD = &notional
	}
	if req.Qty > 0 {
		qty := req.Qty
		p.Qty = &qty
	}

	if b := req.Bracket; b != nil {
		p.StopLossPct = b.StopLossPct
		p.StopLossPrice = b.StopLossPrice
		p.TakeProfitPct = b.TakeProfitPct
		p.TakeProfitPrice = b.TakeProfitPrice
	}

	return p
}

func actionFor(side model.OrderSide) string {
	if side == model.OrderSideSell {
		return "sell"
	}
	return "buy"
}

func modeFor(mode model.SizingMode) string {
	if mode == model.SizingQuantity {
		return "qty"
	}
	return "notional"
}
