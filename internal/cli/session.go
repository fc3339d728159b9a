package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage per-channel executor sessions",
	}

	showCmd := &cobra.Command{
		Use:   "show <channel>",
		Short: "Show a channel's session id",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionShow,
	}

	clearCmd := &cobra.Command{
		Use:   "clear <channel>",
		Short: "Clear a channel's session",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionClear,
	}

	sessionCmd.AddCommand(showCmd, clearCmd)
	RootCmd.AddCommand(sessionCmd)
}

func runSessionShow(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	id, err := s.Session(cmd.Context(), args[0])
	if err != nil {
		exitErr("session", err)
	}
	if id == "" {
		fmt.Println("No session.")
		return
	}
	fmt.Println(id)
}

func runSessionClear(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	if err := s.ClearSession(cmd.Context(), args[0]); err != nil {
		exitErr("session clear", err)
	}
	fmt.Printf("Session cleared for channel %s\n", args[0])
}
