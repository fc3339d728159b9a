// Package cli implements the hearth command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/internal/logger"
	"github.com/hearthd/hearth/internal/store"
)

var dataDirFlag string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "hearth",
	Short: "Durable memory and scheduling engine for a personal assistant",
	Long: "Hearth keeps a salience-weighted conversational memory and a crash-recoverable\n" +
		"recurring task scheduler in a single SQLite store.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dataDirFlag, "data-dir", "d", "",
		"Data directory (default: $HEARTH_DATA_DIR or ~/.hearth)")
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		exitErr("load config", err)
	}
	if dataDirFlag != "" {
		cfg.DataDir = dataDirFlag
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg
}

func openStore(cfg *config.Config) *store.SQLiteStore {
	s, err := store.Open(cfg.DBPath())
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
