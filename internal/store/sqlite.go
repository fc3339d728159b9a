// Package store provides the durable SQLite-backed store shared by the
// memory and scheduler subsystems. All multi-statement writes go through
// Transact so partial writes are never observable after a failure.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// SQLiteStore owns the database handle. It is safe for concurrent use;
// SQLite's WAL mode keeps readers unblocked by a concurrent writer.
type SQLiteStore struct {
	db   *sql.DB
	path string

	entropyMu sync.Mutex
	entropy   *ulid.MonotonicEntropy
}

// Open opens or creates the database at the given path, enables WAL mode,
// and applies the schema.
func Open(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		path:    dbPath,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// newID returns a unique, lexicographically monotonic entry id. The
// entropy source is not safe for concurrent use, so it is serialized here.
func (s *SQLiteStore) newID() string {
	s.entropyMu.Lock()
	defer s.entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		channel_id  TEXT NOT NULL,
		topic_key   TEXT NOT NULL DEFAULT '',
		content     TEXT NOT NULL,
		sector      TEXT NOT NULL CHECK(sector IN ('semantic', 'episodic')),
		salience    REAL NOT NULL DEFAULT 1.0,
		created_at  TEXT NOT NULL,
		accessed_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_memories_channel ON memories(channel_id);
	CREATE INDEX IF NOT EXISTS idx_memories_salience ON memories(salience);
	CREATE INDEX IF NOT EXISTS idx_memories_accessed ON memories(channel_id, accessed_at DESC);

	CREATE VIRTUAL TABLE IF NOT EXISTS memories_fts USING fts5(
		content,
		content='memories',
		content_rowid='rowid',
		tokenize='porter unicode61'
	);

	CREATE TABLE IF NOT EXISTS scheduled_tasks (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		channel_id  TEXT NOT NULL,
		prompt      TEXT NOT NULL,
		schedule    TEXT NOT NULL,
		timezone    TEXT NOT NULL,
		next_run    TEXT,
		last_run    TEXT,
		last_result TEXT,
		status      TEXT NOT NULL DEFAULT 'active' CHECK(status IN ('active', 'paused', 'deleted')),
		created_at  TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_status_next ON scheduled_tasks(status, next_run);

	CREATE TABLE IF NOT EXISTS sessions (
		channel_id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cost_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		channel_id TEXT NOT NULL,
		cost_units REAL NOT NULL DEFAULT 0,
		turns      INTEGER NOT NULL DEFAULT 0,
		model      TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_cost_channel ON cost_log(channel_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 sync triggers. The index must never hold stale or missing rows,
	// so every insert/update/delete on memories maintains it in the same
	// statement scope.
	triggers := []string{
		`CREATE TRIGGER IF NOT EXISTS memories_ai AFTER INSERT ON memories BEGIN
			INSERT INTO memories_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS memories_ad AFTER DELETE ON memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, content) VALUES('delete', old.rowid, old.content);
		END`,
		`CREATE TRIGGER IF NOT EXISTS memories_au AFTER UPDATE OF content ON memories BEGIN
			INSERT INTO memories_fts(memories_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			INSERT INTO memories_fts(rowid, content) VALUES (new.rowid, new.content);
		END`,
	}
	for _, t := range triggers {
		if _, err := s.db.Exec(t); err != nil {
			return err
		}
	}

	return nil
}

// Transact runs fn inside a transaction. If fn returns an error (or panics),
// every statement executed so far in the transaction is rolled back.
func (s *SQLiteStore) Transact(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// Checkpoint flushes and truncates the write-ahead log. Run this
// periodically so the WAL file does not grow unbounded.
func (s *SQLiteStore) Checkpoint(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`)
	return err
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}
