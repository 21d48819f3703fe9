package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/courtside/internal/models"
)

// HistoryWriter appends check-in events to the checkin_history table.
type HistoryWriter struct {
	pool *pgxpool.Pool
}

// NewHistoryWriter wraps pool.
func NewHistoryWriter(pool *pgxpool.Pool) *HistoryWriter {
	return &HistoryWriter{pool: pool}
}

// WriteEvents inserts events in a single transaction.
func (h *HistoryWriter) WriteEvents(ctx context.Context, events []models.CheckInEvent) error {
	if len(events) == 0 {
		return nil
	}
	q := `
		INSERT INTO checkin_history (
			user_id, court_id, previous_court_id, checked_in_at, player_counts
		) VALUES ($1, $2, $3, $4, $5)
	`
	return pgx.BeginTxFunc(ctx, h.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, ev := range events {
			counts, err := json.Marshal(ev.PlayerCounts)
			if err != nil {
				return fmt.Errorf("encode player counts: %w", err)
			}
			batch.Queue(q, ev.UserID, ev.CourtID, ev.PreviousCourtID, ev.Timestamp, counts)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		return nil
	})
}
