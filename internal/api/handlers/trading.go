package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/minjaelee/vigil/internal/ingest"
	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/internal/risk"
	"github.com/minjaelee/vigil/internal/trade"
	"github.com/minjaelee/vigil/pkg/logger"
)

// TradingHandler sizes and submits orders for snapshot candidates
type TradingHandler struct {
	store     *ingest.Store
	sizer     *risk.Sizer
	submitter *trade.Submitter
	journal   *trade.Journal
	logger    *logger.Logger
}

// NewTradingHandler creates a new trading handler. journal may be nil
// when no database is configured.
func NewTradingHandler(
	store *ingest.Store,
	sizer *risk.Sizer,
	submitter *trade.Submitter,
	journal *trade.Journal,
	log *logger.Logger,
) *TradingHandler {
	return &TradingHandler{
		store:     store,
		sizer:     sizer,
		submitter: submitter,
		journal:   journal,
		logger:    log,
	}
}

// ExecuteRequest represents a trade execution request
type ExecuteRequest struct {
	Symbol string `json:"symbol"`
}

// ExecuteResponse carries the sized plan and the submission outcome
type ExecuteResponse struct {
	Plan   *risk.PositionPlan `json:"plan"`
	Result *model.OrderResult `json:"result"`
}

// Execute sizes a position for a snapshot candidate and submits it
// POST /api/trades
func (h *TradingHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required")
		return
	}

	candidate, ok := h.findCandidate(symbol)
	if !ok {
		respondError(w, http.StatusNotFound, "Symbol not in current candidate snapshot")
		return
	}

	plan, err := h.sizer.Plan(candidate)
	if err != nil {
		var tooSmall *model.PositionTooSmallError
		if errors.As(err, &tooSmall) {
			respondError(w, http.StatusUnprocessableEntity, tooSmall.Error())
			return
		}
		h.logger.WithError(err).WithField("symbol", symbol).Error("Failed to size position")
		respondError(w, http.StatusInternalServerError, "Failed to size position")
		return
	}

	order := &model.OrderRequest{
		Symbol:         symbol,
		Side:           model.OrderSideBuy,
		SizingMode:     model.SizingQuantity,
		Qty:            float64(plan.Shares),
		OrderType:      model.OrderTypeMarket,
		Bracket:        plan.Bracket(),
		IdempotencyKey: model.NewIdempotencyKey(symbol),
	}

	result := h.submitter.Submit(r.Context(), order)

	if h.journal != nil {
		h.journal.Record(r.Context(), order, result)
	}

	respondJSON(w, http.StatusOK, ExecuteResponse{Plan: plan, Result: result})
}

// Recent returns the latest journaled orders
// GET /api/orders/recent
func (h *TradingHandler) Recent(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		respondError(w, http.StatusServiceUnavailable, "Order journal not configured")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			respondError(w, http.StatusBadRequest, "Invalid limit (valid: 1-200)")
			return
		}
		limit = parsed
	}

	entries, err := h.journal.Recent(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to read order journal")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve recent orders")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"orders": entries,
		"count":  len(entries),
	})
}

func (h *TradingHandler) findCandidate(symbol string) (model.Candidate, bool) {
	for _, c := range h.store.Snapshot().Candidates {
		if c.Symbol == symbol {
			return c, true
		}
	}
	return model.Candidate{}, false
}
