// Package scheduler owns scheduled task definitions and the in-process
// registry of live cron entries. The registry mirrors the persisted set of
// active tasks: exactly one entry per task with status = active, none for
// paused or deleted tasks.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hearthd/hearth/internal/agent"
	"github.com/hearthd/hearth/internal/logger"
	"github.com/hearthd/hearth/internal/model"
	"github.com/hearthd/hearth/internal/notify"
	"github.com/hearthd/hearth/internal/store"
)

// ErrTaskDeleted is returned when a transition would resurrect a deleted
// task. Deleted is terminal.
var ErrTaskDeleted = errors.New("task is deleted")

const resultTruncate = 1000

// taskParser accepts standard 5-field expressions plus an optional leading
// seconds field.
var taskParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ValidateSpec checks a cron expression and IANA timezone without touching
// the store. Creation never persists a row that fails this.
func ValidateSpec(expr, timezone string) error {
	if timezone == "" {
		return fmt.Errorf("timezone is required")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	if _, err := taskParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}
	return nil
}

// Scheduler fires persisted tasks on their cron cadence against an
// externally supplied executor and notifier.
type Scheduler struct {
	store    *store.SQLiteStore
	executor agent.Executor
	notifier notify.Notifier
	cron     *cron.Cron
	log      *slog.Logger

	mu      sync.Mutex
	entries map[int64]entry // task id -> live cron entry; owned solely by this component
}

type entry struct {
	cronID cron.EntryID
	sched  cron.Schedule
}

func New(s *store.SQLiteStore, executor agent.Executor, notifier notify.Notifier) *Scheduler {
	log := logger.ForComponent("scheduler")
	return &Scheduler{
		store:    s,
		executor: executor,
		notifier: notifier,
		cron: cron.New(
			cron.WithParser(taskParser),
			cron.WithLogger(cronLogger{log}),
		),
		log:     log,
		entries: make(map[int64]entry),
	}
}

// Start loads every persisted active task, arms it, and starts the cron
// runner. This is the sole recovery path after a crash or restart: the
// next fire of each task is the next future occurrence of its expression,
// so firings missed while the process was down are skipped, not backfilled.
func (s *Scheduler) Start(ctx context.Context) error {
	tasks, err := s.store.ActiveTasks(ctx)
	if err != nil {
		return fmt.Errorf("load active tasks: %w", err)
	}
	s.log.Info("loading scheduled tasks", "count", len(tasks))

	for i := range tasks {
		if err := s.arm(ctx, &tasks[i]); err != nil {
			// A bad row must not take down recovery for the rest.
			s.log.Error("failed to arm task", "err", err, "task", tasks[i].ID,
				"schedule", tasks[i].Schedule)
		}
	}

	s.cron.Start()
	return nil
}

// Create validates the cron expression and timezone, persists the task as
// active, and arms its timer. Invalid input fails before any row is
// written.
func (s *Scheduler) Create(ctx context.Context, channelID, prompt, expr, timezone string) (int64, error) {
	if err := ValidateSpec(expr, timezone); err != nil {
		return 0, err
	}

	id, err := s.store.CreateTask(ctx, channelID, prompt, expr, timezone)
	if err != nil {
		return 0, err
	}

	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return 0, err
	}
	if err := s.arm(ctx, task); err != nil {
		return 0, err
	}

	s.log.Info("task created", "task", id, "channel", channelID, "schedule", expr, "tz", timezone)
	return id, nil
}

// arm registers a live cron entry for the task, replacing any existing
// one, and records the advisory next fire instant. Re-arming after each
// fire is intrinsic to the cron entry; arm is only needed on create,
// resume, and startup recovery.
func (s *Scheduler) arm(ctx context.Context, task *model.ScheduledTask) error {
	spec := "CRON_TZ=" + task.Timezone + " " + task.Schedule
	sched, err := taskParser.Parse(spec)
	if err != nil {
		return fmt.Errorf("parse schedule: %w", err)
	}

	t := *task
	job := cron.NewChain(cron.DelayIfStillRunning(cronLogger{s.log})).
		Then(cron.FuncJob(func() { s.fire(t) }))
	cronID := s.cron.Schedule(sched, job)

	s.mu.Lock()
	if old, ok := s.entries[task.ID]; ok {
		s.cron.Remove(old.cronID)
	}
	s.entries[task.ID] = entry{cronID: cronID, sched: sched}
	s.mu.Unlock()

	s.updateNextRun(ctx, task.ID, sched)
	return nil
}

// fire runs one scheduled execution. The executor call may take
// arbitrarily long and may fail; a failed firing never disables the task,
// and the cron cadence governs the next firing regardless of outcome.
func (s *Scheduler) fire(task model.ScheduledTask) {
	ctx := context.Background()
	s.log.Info("task fired", "task", task.ID, "prompt", truncate(task.Prompt, 50))

	res, err := s.executor.Execute(ctx, task.Prompt)
	if err != nil {
		if uerr := s.store.UpdateTaskRun(ctx, task.ID, "ERROR: "+err.Error()); uerr != nil {
			s.log.Error("failed to record task failure", "err", uerr, "task", task.ID)
		}
		// Delivery is best effort; the error is deliberately discarded.
		_ = s.notifier.Send(ctx, task.ChannelID,
			fmt.Sprintf("⏰ Task #%d failed: %s", task.ID, err))
		s.log.Error("task execution failed", "err", err, "task", task.ID)
		s.recordNextRun(ctx, task.ID)
		return
	}

	if err := s.store.UpdateTaskRun(ctx, task.ID, truncate(res.Text, resultTruncate)); err != nil {
		s.log.Error("failed to record task run", "err", err, "task", task.ID)
	}
	if err := s.store.LogCost(ctx, task.ChannelID, res.CostUnits, res.Turns, res.Model); err != nil {
		s.log.Warn("failed to log cost", "err", err, "task", task.ID)
	}
	if res.SessionID != "" {
		if err := s.store.SaveSession(ctx, task.ChannelID, res.SessionID); err != nil {
			s.log.Warn("failed to save session", "err", err, "task", task.ID)
		}
	}

	// Delivery is best effort; the error is deliberately discarded.
	_ = s.notifier.Send(ctx, task.ChannelID,
		fmt.Sprintf("⏰ Scheduled Task #%d\n\n%s", task.ID, res.Text))

	s.log.Info("task completed", "task", task.ID, "cost", res.CostUnits, "turns", res.Turns)
	s.recordNextRun(ctx, task.ID)
}

// List returns active tasks, or a channel's non-deleted tasks when a
// channel id is given.
func (s *Scheduler) List(ctx context.Context, channelID string) ([]model.ScheduledTask, error) {
	if channelID == "" {
		return s.store.ActiveTasks(ctx)
	}
	return s.store.TasksForChannel(ctx, channelID)
}

// Pause stops the task's timer and persists the paused status. Pausing a
// task whose timer is not tracked (a registry lost to restart) still
// succeeds against the persisted state.
func (s *Scheduler) Pause(ctx context.Context, id int64) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.Status == model.TaskDeleted {
		return fmt.Errorf("task %d: %w", id, ErrTaskDeleted)
	}

	s.disarm(id)
	if err := s.store.UpdateTaskStatus(ctx, id, model.TaskPaused); err != nil {
		return err
	}
	s.log.Info("task paused", "task", id)
	return nil
}

// Resume persists the active status and re-arms the timer from the stored
// schedule. An untracked id re-arms rather than no-ops, so a resume issued
// after a restart that lost the registry behaves the same as one issued
// against a live process.
func (s *Scheduler) Resume(ctx context.Context, id int64) error {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.Status == model.TaskDeleted {
		return fmt.Errorf("task %d: %w", id, ErrTaskDeleted)
	}

	if err := s.store.UpdateTaskStatus(ctx, id, model.TaskActive); err != nil {
		return err
	}
	task.Status = model.TaskActive
	if err := s.arm(ctx, task); err != nil {
		return err
	}
	s.log.Info("task resumed", "task", id)
	return nil
}

// Delete stops the timer if one exists and soft-deletes the row. The row
// is kept for audit; the id is never reused and the task is never
// rescheduled. Deleting an already deleted task is a no-op success.
func (s *Scheduler) Delete(ctx context.Context, id int64) error {
	if _, err := s.store.GetTask(ctx, id); err != nil {
		return err
	}

	s.disarm(id)
	if err := s.store.UpdateTaskStatus(ctx, id, model.TaskDeleted); err != nil {
		return err
	}
	s.log.Info("task deleted", "task", id)
	return nil
}

// StopAll stops every live timer without changing persisted statuses, so
// scheduled work resumes unchanged on the next startup's recovery pass.
// The returned context is done once in-flight firings finish.
func (s *Scheduler) StopAll() context.Context {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = make(map[int64]entry)
	s.mu.Unlock()

	s.log.Info("stopping scheduler", "tasks", n)
	return s.cron.Stop()
}

// Armed reports whether the task currently has a live timer.
func (s *Scheduler) Armed(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

func (s *Scheduler) disarm(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		s.cron.Remove(e.cronID)
		delete(s.entries, id)
	}
}

// recordNextRun refreshes the advisory next_run after a fire.
func (s *Scheduler) recordNextRun(ctx context.Context, id int64) {
	s.mu.Lock()
	e, ok := s.entries[id]
	s.mu.Unlock()
	if ok {
		s.updateNextRun(ctx, id, e.sched)
	}
}

func (s *Scheduler) updateNextRun(ctx context.Context, id int64, sched cron.Schedule) {
	next := sched.Next(time.Now())
	if next.IsZero() {
		return
	}
	if err := s.store.UpdateTaskNextRun(ctx, id, next); err != nil {
		s.log.Warn("failed to record next run", "err", err, "task", id)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// cronLogger adapts slog to the cron logger interface.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, kv ...interface{}) {
	l.log.Debug(msg, kv...)
}

func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.log.Error(msg, append(kv, "err", err)...)
}
