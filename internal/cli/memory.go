package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearth/internal/memory"
)

func init() {
	memoryCmd := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and manage stored memory",
	}

	contextCmd := &cobra.Command{
		Use:   "context <channel> <query>...",
		Short: "Show the memory context that would be built for a message",
		Args:  cobra.MinimumNArgs(2),
		Run:   runMemoryContext,
	}

	resetCmd := &cobra.Command{
		Use:   "reset <channel>",
		Short: "Purge a channel's memory and session",
		Args:  cobra.ExactArgs(1),
		Run:   runMemoryReset,
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Dump memory entries as JSON",
		Run:   runMemoryExport,
	}
	exportCmd.Flags().StringP("channel", "c", "", "Only export this channel")

	memoryCmd.AddCommand(contextCmd, resetCmd, exportCmd)
	RootCmd.AddCommand(memoryCmd)
}

func runMemoryContext(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	mgr := memory.NewManager(s)
	out := mgr.BuildContext(cmd.Context(), args[0], strings.Join(args[1:], " "))
	if out == "" {
		fmt.Println("(no memory context)")
		return
	}
	fmt.Println(out)
}

func runMemoryReset(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	mgr := memory.NewManager(s)
	n, err := mgr.Reset(cmd.Context(), args[0])
	if err != nil {
		exitErr("reset", err)
	}
	fmt.Printf("Deleted %d memories for channel %s\n", n, args[0])
}

func runMemoryExport(cmd *cobra.Command, args []string) {
	channel, _ := cmd.Flags().GetString("channel")

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	entries, err := s.ExportMemories(cmd.Context(), channel)
	if err != nil {
		exitErr("export", err)
	}

	b, _ := json.MarshalIndent(entries, "", "  ")
	fmt.Println(string(b))
}
