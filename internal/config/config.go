// Package config loads daemon configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DataDir            string        `yaml:"data_dir" mapstructure:"data_dir"`
	LogLevel           string        `yaml:"log_level" mapstructure:"log_level"`
	LogFormat          string        `yaml:"log_format" mapstructure:"log_format"`
	DefaultTimezone    string        `yaml:"default_timezone" mapstructure:"default_timezone"`
	DecayInterval      time.Duration `yaml:"decay_interval" mapstructure:"decay_interval"`
	CheckpointInterval time.Duration `yaml:"checkpoint_interval" mapstructure:"checkpoint_interval"`
	Executor           ExecutorConfig `yaml:"executor" mapstructure:"executor"`
	Notifier           NotifierConfig `yaml:"notifier" mapstructure:"notifier"`
}

type ExecutorConfig struct {
	Command string        `yaml:"command" mapstructure:"command"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

type NotifierConfig struct {
	Command string `yaml:"command" mapstructure:"command"`
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir:            filepath.Join(home, ".hearth"),
		LogLevel:           "info",
		LogFormat:          "text",
		DefaultTimezone:    "UTC",
		DecayInterval:      24 * time.Hour,
		CheckpointInterval: 6 * time.Hour,
		Executor: ExecutorConfig{
			Timeout: 2 * time.Minute,
		},
	}
}

// DBPath returns the database file path under the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "hearth.db")
}

// LockPath returns the PID lock file path under the data directory.
func (c *Config) LockPath() string {
	return filepath.Join(c.DataDir, "hearth.pid")
}

func Load() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "hearth"))
	}
	home, _ := os.UserHomeDir()
	viper.AddConfigPath(filepath.Join(home, ".config", "hearth"))

	viper.SetEnvPrefix("HEARTH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file; defaults plus environment apply.
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for errors and fills bad intervals
// back in with defaults.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir is required")
	}
	if _, err := time.LoadLocation(c.DefaultTimezone); err != nil {
		return fmt.Errorf("config: invalid default_timezone %q: %w", c.DefaultTimezone, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: log_format must be text or json, got %q", c.LogFormat)
	}
	if c.DecayInterval <= 0 {
		c.DecayInterval = 24 * time.Hour
	}
	if c.CheckpointInterval <= 0 {
		c.CheckpointInterval = 6 * time.Hour
	}
	if c.Executor.Timeout <= 0 {
		c.Executor.Timeout = 2 * time.Minute
	}
	return nil
}
