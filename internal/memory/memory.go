// Package memory implements salience-weighted conversational memory:
// classification of conversation turns, hybrid retrieval, and rendering of
// the memory context injected into each prompt.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/hearthd/hearth/internal/logger"
	"github.com/hearthd/hearth/internal/model"
	"github.com/hearthd/hearth/internal/store"
)

const (
	ftsLimit    = 3
	recentLimit = 5

	// Turns at or below this length carry no durable signal.
	minTurnLength = 20
	// CommandPrefix marks command invocations; those turns are never stored.
	CommandPrefix = "/"

	userTruncate      = 300
	assistantTruncate = 500
)

// First-person declarative and preference phrases that mark a turn as a
// durable fact rather than a situational episode.
var semanticSignals = regexp.MustCompile(`(?i)\b(my|i am|i'm|i prefer|remember|always|never|i like|i hate|i need|i want|my name|call me)\b`)

// Manager owns memory reads and writes for the conversation path.
type Manager struct {
	store *store.SQLiteStore
	log   *slog.Logger
}

func NewManager(s *store.SQLiteStore) *Manager {
	return &Manager{
		store: s,
		log:   logger.ForComponent("memory"),
	}
}

// BuildContext performs hybrid retrieval for a channel and returns the
// rendered memory block for the prompt. The full-text branch contributes up
// to three relevance-ranked entries, the recency branch up to five; the
// merge preserves encounter order and drops duplicate ids, so the full-text
// ordering wins on overlap. Every surviving entry is reinforced in one
// batched update. An empty result returns "", which is a valid, common case.
func (m *Manager) BuildContext(ctx context.Context, channelID, userMessage string) string {
	ftsResults, err := m.store.SearchMemories(ctx, channelID, userMessage, ftsLimit)
	if err != nil {
		m.log.Error("memory search failed", "err", err, "channel", channelID)
	}
	recents, err := m.store.RecentMemories(ctx, channelID, recentLimit)
	if err != nil {
		m.log.Error("recent memories failed", "err", err, "channel", channelID)
	}

	seen := make(map[string]bool)
	var combined []model.MemoryEntry
	for _, e := range append(ftsResults, recents...) {
		if !seen[e.ID] {
			seen[e.ID] = true
			combined = append(combined, e)
		}
	}

	if len(combined) == 0 {
		return ""
	}

	ids := make([]string, len(combined))
	for i, e := range combined {
		ids[i] = e.ID
	}
	if err := m.store.TouchMemories(ctx, ids); err != nil {
		m.log.Error("touch memories failed", "err", err, "channel", channelID)
	}

	var b strings.Builder
	b.WriteString("<memory>\n")
	for _, e := range combined {
		tag := "[memory]"
		if e.Sector == model.SectorSemantic {
			tag = "[fact]"
		}
		fmt.Fprintf(&b, "%s %s\n", tag, e.Content)
	}
	b.WriteString("</memory>")

	m.log.Debug("memory context built", "count", len(combined), "channel", channelID)
	return b.String()
}

// Classify decides whether a conversation turn should be stored and, if so,
// under which sector. Short turns and command invocations are skipped.
func Classify(userMsg string) (model.Sector, bool) {
	if len(userMsg) <= minTurnLength || strings.HasPrefix(userMsg, CommandPrefix) {
		return "", false
	}
	if semanticSignals.MatchString(userMsg) {
		return model.SectorSemantic, true
	}
	return model.SectorEpisodic, true
}

// SaveTurn stores a qualifying conversation turn as a two-line record,
// truncating the user text to 300 characters and the reply to 500. Failures
// are logged, never propagated: memory must not block a response.
func (m *Manager) SaveTurn(ctx context.Context, channelID, userMsg, assistantMsg string) {
	sector, ok := Classify(userMsg)
	if !ok {
		return
	}

	content := fmt.Sprintf("User: %s\nAssistant: %s",
		truncate(userMsg, userTruncate), truncate(assistantMsg, assistantTruncate))

	if err := m.store.SaveMemory(ctx, channelID, content, sector, ""); err != nil {
		m.log.Error("failed to save conversation turn", "err", err, "channel", channelID)
		return
	}
	m.log.Debug("conversation turn saved", "channel", channelID, "sector", string(sector))
}

// Reset purges a channel's memory and its executor session. Returns the
// number of deleted entries.
func (m *Manager) Reset(ctx context.Context, channelID string) (int64, error) {
	n, err := m.store.DeleteChannelMemories(ctx, channelID)
	if err != nil {
		return 0, err
	}
	if err := m.store.ClearSession(ctx, channelID); err != nil {
		m.log.Warn("clear session failed", "err", err, "channel", channelID)
	}
	return n, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
