package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearth/internal/app"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hearth daemon",
		Long: "Run the daemon: acquires the instance lock, opens the store, starts the\n" +
			"decay and checkpoint timers, and arms all active scheduled tasks.",
		Run: runDaemon,
	}

	RootCmd.AddCommand(cmd)
}

func runDaemon(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg); err != nil {
		exitErr("run", err)
	}
}
