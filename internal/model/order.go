package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderSide represents buy or sell
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents market or limit order
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// SizingMode selects between dollar-notional and share-quantity sizing
type SizingMode string

const (
	SizingNotional SizingMode = "NOTIONAL"
	SizingQuantity SizingMode = "QUANTITY"
)

// Bracket defines automatic exit legs attached to the primary order.
// Each leg may be expressed as a percentage or an absolute price; a
// bracket with neither leg set is invalid.
type Bracket struct {
	StopLossPct     *float64 `json:"stop_loss_pct,omitempty"`
	StopLossPrice   *float64 `json:"stop_loss_price,omitempty"`
	TakeProfitPct   *float64 `json:"take_profit_pct,omitempty"`
	TakeProfitPrice *float64 `json:"take_profit_price,omitempty"`
}

func (b *Bracket) empty() bool {
	return b.StopLossPct == nil && b.StopLossPrice == nil &&
		b.TakeProfitPct == nil && b.TakeProfitPrice == nil
}

// OrderRequest is created once per user-confirmed trade action and
// submitted exactly once; the idempotency key guards network-level
// retries of the same logical submission.
type OrderRequest struct {
	Symbol         string     `json:"symbol"`
	Side           OrderSide  `json:"side"`
	SizingMode     SizingMode `json:"sizing_mode"`
	NotionalUSD    float64    `json:"notional_usd,omitempty"`
	Qty            float64    `json:"qty,omitempty"`
	OrderType      OrderType  `json:"order_type"`
	LimitPrice     *float64   `json:"limit_price,omitempty"`
	Bracket        *Bracket   `json:"bracket,omitempty"`
	IdempotencyKey string     `json:"idempotency_key"`
}

// Validate enforces the caller contract before any network call:
// exactly one sizing field set, limit orders carry a price, brackets
// carry at least one leg.
func (r *OrderRequest) Validate() error {
	if r.Symbol == "" {
		return &InvalidRequestError{Reason: "symbol is required"}
	}

	hasNotional := r.NotionalUSD > 0
	hasQty := r.Qty > 0

	switch {
	case hasNotional && hasQty:
		return &InvalidRequestError{Reason: "both notional and qty set, exactly one allowed"}
	case !hasNotional && !hasQty:
		return &InvalidRequestError{Reason: "neither notional nor qty set"}
	case hasNotional && r.SizingMode != SizingNotional:
		return &InvalidRequestError{Reason: "notional set but sizing mode is not NOTIONAL"}
	case hasQty && r.SizingMode != SizingQuantity:
		return &InvalidRequestError{Reason: "qty set but sizing mode is not QUANTITY"}
	}

	if r.OrderType == OrderTypeLimit && (r.LimitPrice == nil || *r.LimitPrice <= 0) {
		return &InvalidRequestError{Reason: "limit order requires a positive limit price"}
	}

	if r.Bracket != nil && r.Bracket.empty() {
		return &InvalidRequestError{Reason: "bracket present but defines no stop-loss or take-profit"}
	}

	if r.IdempotencyKey == "" {
		return &InvalidRequestError{Reason: "idempotency key is required"}
	}

	return nil
}

// NewIdempotencyKey mints a key for one logical submission. The caller
// keeps the key for the lifetime of that submission: re-sends after a
// transient failure reuse it, a fresh user confirmation mints a new one.
func NewIdempotencyKey(symbol string) string {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return fmt.Sprintf("%s-%d-%s", strings.ToUpper(symbol), time.Now().UnixMilli(), suffix)
}

// OrderStatus classifies a submission outcome
type OrderStatus string

const (
	// OrderAccepted means the upstream accepted the order
	OrderAccepted OrderStatus = "ACCEPTED"
	// OrderRejected is a recoverable domain rejection the user can correct
	OrderRejected OrderStatus = "REJECTED"
	// OrderFailed is a transport-level failure, surfaced verbatim
	OrderFailed OrderStatus = "FAILED"
	// OrderInvalid is a caller contract violation caught before the network
	OrderInvalid OrderStatus = "INVALID"
)

// OrderResult is the single outcome type returned by the submitter;
// no error crosses that boundary.
type OrderResult struct {
	Status        OrderStatus `json:"status"`
	OrderID       string      `json:"order_id,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Cap           *float64    `json:"cap,omitempty"`
	ObservedPrice *float64    `json:"observed_price,omitempty"`
	Message       string      `json:"message,omitempty"`
	SubmittedAt   time.Time   `json:"submitted_at"`
}

// Accepted reports whether the order reached the book
func (r *OrderResult) Accepted() bool {
	return r.Status == OrderAccepted
}
