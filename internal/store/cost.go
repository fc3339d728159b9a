package store

import (
	"context"
	"time"
)

// LogCost records executor cost metadata for one invocation. The values are
// opaque to everything but reporting.
func (s *SQLiteStore) LogCost(ctx context.Context, channelID string, costUnits float64, turns int, model string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cost_log (channel_id, cost_units, turns, model, created_at) VALUES (?, ?, ?, ?, ?)`,
		channelID, costUnits, turns, model, formatTime(time.Now()))
	return err
}

// TotalCost sums all recorded cost units for a channel.
func (s *SQLiteStore) TotalCost(ctx context.Context, channelID string) (float64, error) {
	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(cost_units), 0) FROM cost_log WHERE channel_id = ?`, channelID).Scan(&total)
	return total, err
}

// TodayCost sums cost units recorded since local midnight.
func (s *SQLiteStore) TodayCost(ctx context.Context, channelID string) (float64, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var total float64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(cost_units), 0) FROM cost_log WHERE channel_id = ? AND created_at >= ?`,
		channelID, formatTime(midnight)).Scan(&total)
	return total, err
}
