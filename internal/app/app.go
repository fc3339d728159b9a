// Package app wires the daemon together: lock file, store, maintenance
// timers, and the scheduler, with an ordered graceful shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hearthd/hearth/internal/agent"
	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/internal/lockfile"
	"github.com/hearthd/hearth/internal/logger"
	"github.com/hearthd/hearth/internal/notify"
	"github.com/hearthd/hearth/internal/policy"
	"github.com/hearthd/hearth/internal/scheduler"
	"github.com/hearthd/hearth/internal/store"
)

// Run starts the daemon and blocks until ctx is cancelled. Shutdown order
// matters: timers stop first, in-flight transactions finish, then the
// store closes, and the lock releases last so a second instance can only
// start once everything is released.
func Run(ctx context.Context, cfg *config.Config) error {
	log := logger.ForComponent("app")

	// Second-instance protection. A live PID in the lock file is the only
	// hard startup failure; a stale one is reclaimed.
	lock := lockfile.New(cfg.LockPath())
	if err := lock.Acquire(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer lock.Release()

	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	log.Info("store opened", "path", cfg.DBPath())

	// Initial decay sweep, then on the configured interval.
	runSweep(ctx, st, log)

	executor, err := buildExecutor(cfg)
	if err != nil {
		return err
	}
	notifier := buildNotifier(cfg)

	sched := scheduler.New(st, executor, notifier)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	decayTicker := time.NewTicker(cfg.DecayInterval)
	defer decayTicker.Stop()
	checkpointTicker := time.NewTicker(cfg.CheckpointInterval)
	defer checkpointTicker.Stop()

	log.Info("hearth is running",
		"decay_interval", cfg.DecayInterval, "checkpoint_interval", cfg.CheckpointInterval)

	for {
		select {
		case <-decayTicker.C:
			runSweep(ctx, st, log)
		case <-checkpointTicker.C:
			if err := st.Checkpoint(ctx); err != nil {
				log.Error("wal checkpoint failed", "err", err)
			} else {
				log.Debug("wal checkpoint complete")
			}
		case <-ctx.Done():
			log.Info("shutting down")
			// Stop future firings, then wait for in-flight ones so their
			// store writes commit or roll back before the store closes.
			<-sched.StopAll().Done()
			return nil
		}
	}
}

func runSweep(ctx context.Context, st *store.SQLiteStore, log *slog.Logger) {
	res, err := st.DecaySweep(ctx)
	if err != nil {
		log.Error("decay sweep failed", "err", err)
		return
	}
	log.Info("memory decay sweep", "decayed", res.Decayed, "deleted", res.Deleted)
}

func buildExecutor(cfg *config.Config) (agent.Executor, error) {
	if cfg.Executor.Command == "" {
		return nil, fmt.Errorf("config: executor.command is required to run the daemon")
	}
	return agent.NewCommandExecutor(cfg.Executor.Command, cfg.Executor.Timeout, policy.Default())
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	if cfg.Notifier.Command == "" {
		return notify.NewLogNotifier()
	}
	n, err := notify.NewCommandNotifier(cfg.Notifier.Command)
	if err != nil {
		return notify.NewLogNotifier()
	}
	return n
}
