package store

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hearthd/hearth/internal/model"
)

// Decay constants. A salience of 1.0 crosses the deletion threshold after
// roughly 114 daily sweeps without reinforcement; a fully reinforced 5.0
// survives roughly 194.
const (
	decayFactor = 0.98
	decayMinAge = 24 * time.Hour
	ftsLimit    = 3
	recentLimit = 5
)

var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// SaveMemory inserts one memory entry. The FTS index row is written by
// trigger inside the same transaction.
func (s *SQLiteStore) SaveMemory(ctx context.Context, channelID, content string, sector model.Sector, topicKey string) error {
	if !model.ValidSectors[sector] {
		return fmt.Errorf("invalid sector %q", sector)
	}

	now := formatTime(time.Now())
	return s.Transact(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO memories (id, channel_id, topic_key, content, sector, salience, created_at, accessed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			s.newID(), channelID, topicKey, content, string(sector), model.DefaultSalience, now, now)
		if err != nil {
			return fmt.Errorf("insert memory: %w", err)
		}
		return nil
	})
}

// SearchMemories runs the full-text branch of retrieval: the query is
// sanitized to word/space characters, each token gets a prefix wildcard,
// and the top matches for the channel come back in relevance order.
// A query that sanitizes to nothing contributes no results.
func (s *SQLiteStore) SearchMemories(ctx context.Context, channelID, query string, limit int) ([]model.MemoryEntry, error) {
	if limit <= 0 {
		limit = ftsLimit
	}

	sanitized := strings.TrimSpace(nonWordRe.ReplaceAllString(query, " "))
	if sanitized == "" {
		return nil, nil
	}

	var tokens []string
	for _, w := range strings.Fields(sanitized) {
		tokens = append(tokens, w+"*")
	}
	ftsQuery := strings.Join(tokens, " ")

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.channel_id, m.topic_key, m.content, m.sector, m.salience, m.created_at, m.accessed_at
		 FROM memories m
		 JOIN memories_fts f ON f.rowid = m.rowid
		 WHERE m.channel_id = ? AND memories_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		channelID, ftsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("fts query: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// RecentMemories returns the channel's most recently accessed entries,
// plain recency order, no relevance involved.
func (s *SQLiteStore) RecentMemories(ctx context.Context, channelID string, limit int) ([]model.MemoryEntry, error) {
	if limit <= 0 {
		limit = recentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_id, topic_key, content, sector, salience, created_at, accessed_at
		 FROM memories WHERE channel_id = ?
		 ORDER BY accessed_at DESC LIMIT ?`,
		channelID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// TouchMemories applies retrieval-time reinforcement to the given entries
// as one batched update: accessed_at moves to now and salience gains 0.1,
// clamped at the maximum.
func (s *SQLiteStore) TouchMemories(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]interface{}, 0, len(ids)+2)
	args = append(args, formatTime(time.Now()), model.MaxSalience)
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE memories SET accessed_at = ?, salience = MIN(salience + 0.1, ?)
		 WHERE id IN (%s)`, placeholders),
		args...)
	return err
}

// MemoryCount returns the number of entries stored for a channel.
func (s *SQLiteStore) MemoryCount(ctx context.Context, channelID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE channel_id = ?`, channelID).Scan(&n)
	return n, err
}

// DeleteChannelMemories purges every entry for a channel, index rows
// included. Returns the number of deleted entries.
func (s *SQLiteStore) DeleteChannelMemories(ctx context.Context, channelID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE channel_id = ?`, channelID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SweepResult reports what a decay sweep did.
type SweepResult struct {
	Decayed int64 `json:"decayed"`
	Deleted int64 `json:"deleted"`
}

// DecaySweep ages every entry older than 24 hours by multiplying its
// salience by 0.98, then deletes entries whose salience fell below the
// deletion threshold. Both steps run in one transaction.
func (s *SQLiteStore) DecaySweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	cutoff := formatTime(time.Now().Add(-decayMinAge))

	err := s.Transact(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE memories SET salience = salience * ? WHERE created_at < ?`,
			decayFactor, cutoff)
		if err != nil {
			return fmt.Errorf("decay: %w", err)
		}
		result.Decayed, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx,
			`DELETE FROM memories WHERE salience < ?`, model.MinSalience)
		if err != nil {
			return fmt.Errorf("prune: %w", err)
		}
		result.Deleted, _ = res.RowsAffected()
		return nil
	})
	return result, err
}

func scanEntries(rows *sql.Rows) ([]model.MemoryEntry, error) {
	var entries []model.MemoryEntry
	for rows.Next() {
		var e model.MemoryEntry
		var sector, createdAt, accessedAt string
		if err := rows.Scan(&e.ID, &e.ChannelID, &e.TopicKey, &e.Content, &sector,
			&e.Salience, &createdAt, &accessedAt); err != nil {
			return nil, err
		}
		e.Sector = model.Sector(sector)
		e.CreatedAt = parseTime(createdAt)
		e.AccessedAt = parseTime(accessedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
