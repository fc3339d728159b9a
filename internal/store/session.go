package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Session returns the stored executor session id for a channel, or "" if
// the channel has none.
func (s *SQLiteStore) Session(ctx context.Context, channelID string) (string, error) {
	var sessionID string
	err := s.db.QueryRowContext(ctx,
		`SELECT session_id FROM sessions WHERE channel_id = ?`, channelID).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return sessionID, err
}

// SaveSession upserts a channel's executor session id.
func (s *SQLiteStore) SaveSession(ctx context.Context, channelID, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (channel_id, session_id, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET session_id = excluded.session_id, updated_at = excluded.updated_at`,
		channelID, sessionID, formatTime(time.Now()))
	return err
}

// ClearSession drops a channel's session row.
func (s *SQLiteStore) ClearSession(ctx context.Context, channelID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE channel_id = ?`, channelID)
	return err
}
