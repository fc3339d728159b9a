package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.DecayInterval != 24*time.Hour {
		t.Errorf("decay interval default = %v, want 24h", cfg.DecayInterval)
	}
	if cfg.CheckpointInterval != 6*time.Hour {
		t.Errorf("checkpoint interval default = %v, want 6h", cfg.CheckpointInterval)
	}
	if cfg.DefaultTimezone != "UTC" {
		t.Errorf("default timezone = %q, want UTC", cfg.DefaultTimezone)
	}
	if !strings.HasSuffix(cfg.DBPath(), "hearth.db") {
		t.Errorf("unexpected db path %q", cfg.DBPath())
	}
	if !strings.HasSuffix(cfg.LockPath(), "hearth.pid") {
		t.Errorf("unexpected lock path %q", cfg.LockPath())
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty data_dir")
	}

	cfg = DefaultConfig()
	cfg.DefaultTimezone = "Nowhere/Special"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bad timezone")
	}

	cfg = DefaultConfig()
	cfg.LogFormat = "xml"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for bad log format")
	}
}

func TestValidateFillsBadIntervals(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DecayInterval = -time.Hour
	cfg.CheckpointInterval = 0
	cfg.Executor.Timeout = 0

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.DecayInterval != 24*time.Hour {
		t.Errorf("decay interval not repaired: %v", cfg.DecayInterval)
	}
	if cfg.CheckpointInterval != 6*time.Hour {
		t.Errorf("checkpoint interval not repaired: %v", cfg.CheckpointInterval)
	}
	if cfg.Executor.Timeout != 2*time.Minute {
		t.Errorf("executor timeout not repaired: %v", cfg.Executor.Timeout)
	}
}
