package store

import (
	"context"
	"os"
)

// Stats holds database statistics for the status command.
type Stats struct {
	DBPath      string         `json:"db_path"`
	DBSizeBytes int64          `json:"db_size_bytes"`
	Memories    int            `json:"memories"`
	Channels    []ChannelStats `json:"channels"`
	Tasks       TaskStats      `json:"tasks"`
}

// ChannelStats holds per-channel memory counts and cost totals.
type ChannelStats struct {
	ChannelID string  `json:"channel_id"`
	Memories  int     `json:"memories"`
	CostUnits float64 `json:"cost_units"`
}

// TaskStats holds task counts by status.
type TaskStats struct {
	Active  int `json:"active"`
	Paused  int `json:"paused"`
	Deleted int `json:"deleted"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{DBPath: s.path}

	if info, err := os.Stat(s.path); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&st.Memories)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scheduled_tasks WHERE status = 'active'`).Scan(&st.Tasks.Active)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scheduled_tasks WHERE status = 'paused'`).Scan(&st.Tasks.Paused)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scheduled_tasks WHERE status = 'deleted'`).Scan(&st.Tasks.Deleted)

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.channel_id, COUNT(*) AS cnt,
		       COALESCE((SELECT SUM(cost_units) FROM cost_log c WHERE c.channel_id = m.channel_id), 0)
		FROM memories m
		GROUP BY m.channel_id ORDER BY cnt DESC`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var cs ChannelStats
		rows.Scan(&cs.ChannelID, &cs.Memories, &cs.CostUnits)
		st.Channels = append(st.Channels, cs)
	}

	return st, rows.Err()
}
