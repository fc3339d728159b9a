// Package model defines the core data types shared by the store, memory,
// and scheduler subsystems.
package model

import "time"

// Sector classifies a memory entry.
type Sector string

const (
	// SectorSemantic marks durable facts and preferences.
	SectorSemantic Sector = "semantic"
	// SectorEpisodic marks situational conversation episodes.
	SectorEpisodic Sector = "episodic"
)

// ValidSectors are the allowed memory sectors.
var ValidSectors = map[Sector]bool{
	SectorSemantic: true,
	SectorEpisodic: true,
}

// Salience bounds. Reinforcement never raises salience above MaxSalience;
// the decay sweep deletes entries once salience drops below MinSalience.
const (
	DefaultSalience = 1.0
	MaxSalience     = 5.0
	MinSalience     = 0.1
)

// MemoryEntry is one stored conversational fact or episode.
type MemoryEntry struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channel_id"`
	TopicKey   string    `json:"topic_key,omitempty"`
	Content    string    `json:"content"`
	Sector     Sector    `json:"sector"`
	Salience   float64   `json:"salience"`
	CreatedAt  time.Time `json:"created_at"`
	AccessedAt time.Time `json:"accessed_at"`
}

// TaskStatus is the persisted lifecycle state of a scheduled task.
type TaskStatus string

const (
	TaskActive  TaskStatus = "active"
	TaskPaused  TaskStatus = "paused"
	TaskDeleted TaskStatus = "deleted" // terminal; the row is kept for audit
)

// ScheduledTask is a persisted recurring prompt.
type ScheduledTask struct {
	ID         int64      `json:"id"`
	ChannelID  string     `json:"channel_id"`
	Prompt     string     `json:"prompt"`
	Schedule   string     `json:"schedule"` // cron expression, 5 or 6 fields
	Timezone   string     `json:"timezone"` // IANA zone name
	NextRun    *time.Time `json:"next_run,omitempty"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	LastResult string     `json:"last_result,omitempty"`
	Status     TaskStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
}
