package trade

import (
	"context"
	"fmt"
	"time"

	"github.com/minjaelee/vigil/internal/model"
	"github.com/minjaelee/vigil/pkg/database"
	"github.com/minjaelee/vigil/pkg/logger"
)

// JournalEntry is one persisted submission outcome
type JournalEntry struct {
	ID             int64     `json:"id"`
	Symbol         string    `json:"symbol"`
	Side           string    `json:"side"`
	Qty            float64   `json:"qty"`
	NotionalUSD    float64   `json:"notional_usd"`
	Status         string    `json:"status"`
	OrderID        string    `json:"order_id,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	IdempotencyKey string    `json:"idempotency_key"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// Journal persists order outcomes for audit. Persistence is optional:
// construct it only when a database is configured.
type Journal struct {
	db     *database.DB
	logger *logger.Logger
}

// NewJournal creates an order journal over the connection pool
func NewJournal(db *database.DB, log *logger.Logger) *Journal {
	return &Journal{db: db, logger: log}
}

// EnsureSchema creates the journal table if it does not exist
func (j *Journal) EnsureSchema(ctx context.Context) error {
	_, err := j.db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS order_journal (
			id              BIGSERIAL PRIMARY KEY,
			symbol          TEXT        NOT NULL,
			side            TEXT        NOT NULL,
			qty             DOUBLE PRECISION NOT NULL DEFAULT 0,
			notional_usd    DOUBLE PRECISION NOT NULL DEFAULT 0,
			status          TEXT        NOT NULL,
			order_id        TEXT        NOT NULL DEFAULT '',
			reason          TEXT        NOT NULL DEFAULT '',
			idempotency_key TEXT        NOT NULL,
			submitted_at    TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to ensure order journal schema: %w", err)
	}
	return nil
}

// Record writes one submission outcome. Journal failures are logged
// and swallowed: bookkeeping must never break the order flow.
func (j *Journal) Record(ctx context.Context, req *model.OrderRequest, result *model.OrderResult) {
	_, err := j.db.Pool.Exec(ctx, `
		INSERT INTO order_journal
			(symbol, side, qty, notional_usd, status, order_id, reason, idempotency_key, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		req.Symbol, string(req.Side), req.Qty, req.NotionalUSD,
		string(result.Status), result.OrderID, result.Reason,
		req.IdempotencyKey, result.SubmittedAt)
	if err != nil {
		j.logger.WithError(err).WithField("symbol", req.Symbol).Error("Failed to journal order")
	}
}

// Recent returns the latest entries, newest first
func (j *Journal) Recent(ctx context.Context, limit int) ([]JournalEntry, error) {
	rows, err := j.db.Pool.Query(ctx, `
		SELECT id, symbol, side, qty, notional_usd, status, order_id, reason, idempotency_key, submitted_at
		FROM order_journal
		ORDER BY submitted_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query order journal: %w", err)
	}
	defer rows.Close()

	entries := make([]JournalEntry, 0, limit)
	for rows.Next() {
		var e JournalEntry
		if err := rows.Scan(&e.ID, &e.Symbol, &e.Side, &e.Qty, &e.NotionalUSD,
			&e.Status, &e.OrderID, &e.Reason, &e.IdempotencyKey, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Prune deletes entries older than the retention window and returns
// the number removed.
func (j *Journal) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := j.db.Pool.Exec(ctx,
		`DELETE FROM order_journal WHERE submitted_at < $1`,
		time.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("failed to prune order journal: %w", err)
	}
	return tag.RowsAffected(), nil
}
