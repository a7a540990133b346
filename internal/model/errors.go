package model

import "fmt"

// SchemaMismatchError marks an upstream record whose mandatory fields
// are missing. The record is dropped and counted; ingestion continues.
type SchemaMismatchError struct {
	Source string
	Field  string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch from %s: missing %s", e.Source, e.Field)
}

// PositionTooSmallError means the capital limit cannot buy a single
// share at the current price. No order is attempted.
type PositionTooSmallError struct {
	Symbol       string
	Price        float64
	CapitalLimit float64
}

func (e *PositionTooSmallError) Error() string {
	return fmt.Sprintf("position too small: %s at %.2f exceeds capital limit %.2f",
		e.Symbol, e.Price, e.CapitalLimit)
}

// InvalidRequestError is a caller-side order contract violation,
// detected before any network call.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid order request: %s", e.Reason)
}
