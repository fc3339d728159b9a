package store

import (
	"context"
	"strings"

	"github.com/hearthd/hearth/internal/model"
)

// ExportMemories returns all entries, optionally filtered by channel,
// ordered for a stable dump.
func (s *SQLiteStore) ExportMemories(ctx context.Context, channelID string) ([]model.MemoryEntry, error) {
	where := []string{"1=1"}
	args := []interface{}{}

	if channelID != "" {
		where = append(where, "channel_id = ?")
		args = append(args, channelID)
	}

	query := `SELECT id, channel_id, topic_key, content, sector, salience, created_at, accessed_at
	          FROM memories WHERE ` + strings.Join(where, " AND ") + ` ORDER BY channel_id, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}
