package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hearthd/hearth/internal/model"
)

// CreateTask persists a new scheduled task as active and returns its id.
// Validation of the cron expression and timezone happens in the scheduler,
// before this is called; the store only writes.
func (s *SQLiteStore) CreateTask(ctx context.Context, channelID, prompt, schedule, timezone string) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO scheduled_tasks (channel_id, prompt, schedule, timezone, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		channelID, prompt, schedule, timezone, string(model.TaskActive), formatTime(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("insert task: %w", err)
	}
	return res.LastInsertId()
}

// GetTask returns one task by id, any status.
func (s *SQLiteStore) GetTask(ctx context.Context, id int64) (*model.ScheduledTask, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, channel_id, prompt, schedule, timezone, next_run, last_run, last_result, status, created_at
		 FROM scheduled_tasks WHERE id = ?`, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// ActiveTasks returns every task with status = active. This is the sole
// recovery source on startup.
func (s *SQLiteStore) ActiveTasks(ctx context.Context) ([]model.ScheduledTask, error) {
	return s.queryTasks(ctx,
		`SELECT id, channel_id, prompt, schedule, timezone, next_run, last_run, last_result, status, created_at
		 FROM scheduled_tasks WHERE status = ? ORDER BY id`, string(model.TaskActive))
}

// TasksForChannel returns a channel's non-deleted tasks.
func (s *SQLiteStore) TasksForChannel(ctx context.Context, channelID string) ([]model.ScheduledTask, error) {
	return s.queryTasks(ctx,
		`SELECT id, channel_id, prompt, schedule, timezone, next_run, last_run, last_result, status, created_at
		 FROM scheduled_tasks WHERE channel_id = ? AND status != ? ORDER BY id`,
		channelID, string(model.TaskDeleted))
}

// UpdateTaskStatus persists a status transition. Deleted is terminal but
// that is enforced by the scheduler, not here.
func (s *SQLiteStore) UpdateTaskStatus(ctx context.Context, id int64, status model.TaskStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_tasks SET status = ? WHERE id = ?`, string(status), id)
	return err
}

// UpdateTaskRun records the outcome of a firing: last_run moves to now and
// last_result holds the (already truncated) result or error text.
func (s *SQLiteStore) UpdateTaskRun(ctx context.Context, id int64, result string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_tasks SET last_run = ?, last_result = ? WHERE id = ?`,
		formatTime(time.Now()), result, id)
	return err
}

// UpdateTaskNextRun records the advisory next fire instant. Recovery never
// trusts this value; it exists for listing and observability.
func (s *SQLiteStore) UpdateTaskNextRun(ctx context.Context, id int64, next time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_tasks SET next_run = ? WHERE id = ?`,
		formatTime(next), id)
	return err
}

func (s *SQLiteStore) queryTasks(ctx context.Context, query string, args ...interface{}) ([]model.ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []model.ScheduledTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

func scanTask(row scanner) (*model.ScheduledTask, error) {
	var t model.ScheduledTask
	var status, createdAt string
	var nextRun, lastRun, lastResult sql.NullString

	err := row.Scan(&t.ID, &t.ChannelID, &t.Prompt, &t.Schedule, &t.Timezone,
		&nextRun, &lastRun, &lastResult, &status, &createdAt)
	if err != nil {
		return nil, err
	}

	t.Status = model.TaskStatus(status)
	t.CreatedAt = parseTime(createdAt)
	if nextRun.Valid {
		v := parseTime(nextRun.String)
		t.NextRun = &v
	}
	if lastRun.Valid {
		v := parseTime(lastRun.String)
		t.LastRun = &v
	}
	if lastResult.Valid {
		t.LastResult = lastResult.String
	}
	return &t, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}
