package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hearthd/hearth/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDBPathCreation(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "sub", "dir", "test.db")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("expected db file to be created")
	}
}

func TestTransactRollback(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	boom := errors.New("boom")
	err := s.Transact(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO memories (id, channel_id, content, sector, created_at, accessed_at)
			 VALUES ('x1', 'u1', 'partial write', 'semantic', '2024-01-01T00:00:00Z', '2024-01-01T00:00:00Z')`); err != nil {
			t.Fatalf("insert: %v", err)
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	// Partial writes are never observable after a failed transaction.
	n, err := s.MemoryCount(ctx, "u1")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 rows after rollback, got %d", n)
	}
}

func TestCheckpoint(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for i := 0; i < 10; i++ {
		if err := s.SaveMemory(ctx, "u1", fmt.Sprintf("entry number %d", i), model.SectorEpisodic, ""); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	if err := s.Checkpoint(ctx); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}

	// Data survives the checkpoint.
	n, _ := s.MemoryCount(ctx, "u1")
	if n != 10 {
		t.Errorf("expected 10 entries after checkpoint, got %d", n)
	}
}

func TestMonotonicIDs(t *testing.T) {
	s := newTestStore(t)

	prev := ""
	for i := 0; i < 100; i++ {
		id := s.newID()
		if id <= prev {
			t.Fatalf("ids not monotonic: %q after %q", id, prev)
		}
		prev = id
	}
}
