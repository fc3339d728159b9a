package store

import (
	"context"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.Session(ctx, "c1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if id != "" {
		t.Errorf("expected empty session, got %q", id)
	}

	if err := s.SaveSession(ctx, "c1", "sess-abc"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.SaveSession(ctx, "c1", "sess-def"); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	id, _ = s.Session(ctx, "c1")
	if id != "sess-def" {
		t.Errorf("expected upserted session, got %q", id)
	}

	if err := s.ClearSession(ctx, "c1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	id, _ = s.Session(ctx, "c1")
	if id != "" {
		t.Errorf("expected cleared session, got %q", id)
	}
}

func TestCostSums(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.LogCost(ctx, "c1", 0.5, 3, "model-a")
	s.LogCost(ctx, "c1", 0.25, 1, "model-a")
	s.LogCost(ctx, "c2", 9.0, 5, "model-b")

	total, err := s.TotalCost(ctx, "c1")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 0.75 {
		t.Errorf("expected 0.75, got %f", total)
	}

	// Everything was logged just now, so today's cost equals the total.
	today, err := s.TodayCost(ctx, "c1")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if today != 0.75 {
		t.Errorf("expected 0.75 today, got %f", today)
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.SaveMemory(ctx, "c1", "entry one for stats", "semantic", "")
	s.SaveMemory(ctx, "c1", "entry two for stats", "episodic", "")
	s.SaveMemory(ctx, "c2", "entry three for stats", "episodic", "")
	s.LogCost(ctx, "c1", 1.5, 2, "m")

	id, _ := s.CreateTask(ctx, "c1", "p", "0 9 * * *", "UTC")
	s.UpdateTaskStatus(ctx, id, "paused")
	s.CreateTask(ctx, "c2", "p", "0 9 * * *", "UTC")

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Memories != 3 {
		t.Errorf("expected 3 memories, got %d", stats.Memories)
	}
	if stats.Tasks.Active != 1 || stats.Tasks.Paused != 1 {
		t.Errorf("unexpected task stats: %+v", stats.Tasks)
	}
	if len(stats.Channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(stats.Channels))
	}
	if stats.Channels[0].ChannelID != "c1" || stats.Channels[0].CostUnits != 1.5 {
		t.Errorf("unexpected channel stats: %+v", stats.Channels[0])
	}
	if stats.DBSizeBytes == 0 {
		t.Error("expected non-zero db size")
	}
}
