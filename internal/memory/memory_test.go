package memory

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hearthd/hearth/internal/model"
	"github.com/hearthd/hearth/internal/store"
)

func newTestManager(t *testing.T) (*Manager, *store.SQLiteStore) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return NewManager(s), s
}

func TestClassify(t *testing.T) {
	tests := []struct {
		msg    string
		sector model.Sector
		stored bool
	}{
		{"my favorite color is blue", model.SectorSemantic, true},
		{"what is the weather today", model.SectorEpisodic, true},
		{"I prefer tea over coffee in the morning", model.SectorSemantic, true},
		{"remember to water the plants on fridays", model.SectorSemantic, true},
		{"call me Ishmael whenever you reply", model.SectorSemantic, true},
		{"tell me about the roman empire please", model.SectorEpisodic, true},
		{"short message", "", false},                  // at most 20 chars
		{"/reset all my stored preferences", "", false}, // command invocation
		{"", "", false},
	}

	for _, tt := range tests {
		sector, stored := Classify(tt.msg)
		if stored != tt.stored {
			t.Errorf("Classify(%q) stored = %v, want %v", tt.msg, stored, tt.stored)
			continue
		}
		if stored && sector != tt.sector {
			t.Errorf("Classify(%q) sector = %s, want %s", tt.msg, sector, tt.sector)
		}
	}
}

func TestSaveTurnTruncation(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(t)

	longUser := "my story begins with " + strings.Repeat("a", 400)
	longAssistant := strings.Repeat("b", 600)
	m.SaveTurn(ctx, "u1", longUser, longAssistant)

	entries, err := s.ExportMemories(ctx, "u1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	lines := strings.SplitN(entries[0].Content, "\n", 2)
	if len(lines) != 2 {
		t.Fatalf("expected two-line record, got %q", entries[0].Content)
	}
	if got := len(strings.TrimPrefix(lines[0], "User: ")); got != 300 {
		t.Errorf("user text truncated to %d, want 300", got)
	}
	if got := len(strings.TrimPrefix(lines[1], "Assistant: ")); got != 500 {
		t.Errorf("assistant text truncated to %d, want 500", got)
	}
	if entries[0].Sector != model.SectorSemantic {
		t.Errorf("expected semantic from 'my' signal, got %s", entries[0].Sector)
	}
}

func TestSaveTurnSkipsShortAndCommands(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(t)

	m.SaveTurn(ctx, "u1", "ok thanks", "you're welcome")
	m.SaveTurn(ctx, "u1", "/schedule 0 9 * * * do the thing", "scheduled")

	n, _ := s.MemoryCount(ctx, "u1")
	if n != 0 {
		t.Errorf("expected nothing stored, got %d entries", n)
	}
}

func TestBuildContextNoDuplicates(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	// One entry matching the query is also among the most recent, so it
	// appears in both retrieval branches.
	m.SaveTurn(ctx, "u1", "my favorite beverage is oolong tea", "noted")
	m.SaveTurn(ctx, "u1", "we talked about the marathon route today", "sounds fun")

	out := m.BuildContext(ctx, "u1", "oolong tea")
	if out == "" {
		t.Fatal("expected memory context")
	}
	if n := strings.Count(out, "oolong"); n != 1 {
		t.Errorf("expected entry to appear once, appeared %d times", n)
	}
	if !strings.HasPrefix(out, "<memory>") || !strings.HasSuffix(out, "</memory>") {
		t.Errorf("context not wrapped: %q", out)
	}
}

func TestBuildContextTags(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(t)

	s.SaveMemory(ctx, "u1", "durable fact content", model.SectorSemantic, "")
	s.SaveMemory(ctx, "u1", "situational episode content", model.SectorEpisodic, "")

	out := m.BuildContext(ctx, "u1", "content")
	if !strings.Contains(out, "[fact] durable fact content") {
		t.Errorf("semantic entry not tagged as fact: %q", out)
	}
	if !strings.Contains(out, "[memory] situational episode content") {
		t.Errorf("episodic entry not tagged as memory: %q", out)
	}
}

func TestBuildContextEmpty(t *testing.T) {
	m, _ := newTestManager(t)

	// No stored memory is a valid, common case, not an error.
	if out := m.BuildContext(context.Background(), "empty-channel", "anything at all"); out != "" {
		t.Errorf("expected empty context, got %q", out)
	}
}

func TestBuildContextReinforces(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(t)

	s.SaveMemory(ctx, "u1", "reinforceable entry", model.SectorSemantic, "")

	m.BuildContext(ctx, "u1", "reinforceable")

	entries, _ := s.ExportMemories(ctx, "u1")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want := model.DefaultSalience + 0.1
	if entries[0].Salience < want-1e-9 || entries[0].Salience > want+1e-9 {
		t.Errorf("expected salience %f after retrieval, got %f", want, entries[0].Salience)
	}
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	m, s := newTestManager(t)

	s.SaveMemory(ctx, "u1", "to be purged", model.SectorEpisodic, "")
	s.SaveMemory(ctx, "u2", "to be kept", model.SectorEpisodic, "")
	s.SaveSession(ctx, "u1", "sess-1")

	n, err := m.Reset(ctx, "u1")
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deleted, got %d", n)
	}

	if c, _ := s.MemoryCount(ctx, "u2"); c != 1 {
		t.Errorf("other channel affected by reset")
	}
	if id, _ := s.Session(ctx, "u1"); id != "" {
		t.Errorf("session not cleared, got %q", id)
	}
}
