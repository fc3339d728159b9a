package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hearthd/hearth/internal/model"
	"github.com/hearthd/hearth/internal/scheduler"
)

// Task commands edit the persisted rows directly; a running daemon picks
// status changes up on its next startup recovery pass.

func init() {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage scheduled tasks",
	}

	createCmd := &cobra.Command{
		Use:   "create <channel> <cron> <timezone> <prompt>...",
		Short: "Create a scheduled task",
		Long: "Create a scheduled task. The cron expression (5 or 6 fields) and the IANA\n" +
			"timezone are validated before anything is written.\n\n" +
			"Example:\n  hearth task create 12345 \"0 9 * * *\" America/Chicago Good morning summary",
		Args: cobra.MinimumNArgs(4),
		Run:  runTaskCreate,
	}

	listCmd := &cobra.Command{
		Use:   "list [channel]",
		Short: "List scheduled tasks",
		Args:  cobra.MaximumNArgs(1),
		Run:   runTaskList,
	}

	pauseCmd := &cobra.Command{
		Use:   "pause <id>",
		Short: "Pause a task",
		Args:  cobra.ExactArgs(1),
		Run:   runTaskStatus(model.TaskPaused, "paused"),
	}

	resumeCmd := &cobra.Command{
		Use:   "resume <id>",
		Short: "Resume a paused task",
		Args:  cobra.ExactArgs(1),
		Run:   runTaskStatus(model.TaskActive, "resumed"),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		Run:   runTaskStatus(model.TaskDeleted, "deleted"),
	}

	taskCmd.AddCommand(createCmd, listCmd, pauseCmd, resumeCmd, deleteCmd)
	RootCmd.AddCommand(taskCmd)
}

func runTaskCreate(cmd *cobra.Command, args []string) {
	channelID, cronExpr, timezone := args[0], args[1], args[2]
	prompt := strings.Join(args[3:], " ")

	if err := scheduler.ValidateSpec(cronExpr, timezone); err != nil {
		exitErr("create", err)
	}

	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	id, err := s.CreateTask(cmd.Context(), channelID, prompt, cronExpr, timezone)
	if err != nil {
		exitErr("create", err)
	}
	fmt.Printf("Created task #%d\n", id)
}

func runTaskList(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s := openStore(cfg)
	defer s.Close()

	var (
		tasks []model.ScheduledTask
		err   error
	)
	if len(args) > 0 {
		tasks, err = s.TasksForChannel(cmd.Context(), args[0])
	} else {
		tasks, err = s.ActiveTasks(cmd.Context())
	}
	if err != nil {
		exitErr("list", err)
	}

	if len(tasks) == 0 {
		fmt.Println("No tasks found.")
		return
	}
	for _, t := range tasks {
		fmt.Printf("#%d [%s] channel=%s cron=%q tz=%s\n", t.ID, t.Status, t.ChannelID, t.Schedule, t.Timezone)
		fmt.Printf("  prompt: %s\n", truncate(t.Prompt, 100))
		if t.LastRun != nil {
			fmt.Printf("  last_run: %s\n", t.LastRun.Format("2006-01-02T15:04:05Z07:00"))
		}
		if t.NextRun != nil {
			fmt.Printf("  next_run: %s\n", t.NextRun.Format("2006-01-02T15:04:05Z07:00"))
		}
		fmt.Println()
	}
}

func runTaskStatus(status model.TaskStatus, verb string) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			exitErr("parse id", err)
		}

		cfg := loadConfig()
		s := openStore(cfg)
		defer s.Close()

		task, err := s.GetTask(cmd.Context(), id)
		if err != nil {
			exitErr(verb, err)
		}
		// Deleted is terminal: only another delete is a no-op success.
		if task.Status == model.TaskDeleted && status != model.TaskDeleted {
			exitErr(verb, fmt.Errorf("task %d: %w", id, scheduler.ErrTaskDeleted))
		}

		if err := s.UpdateTaskStatus(cmd.Context(), id, status); err != nil {
			exitErr(verb, err)
		}
		fmt.Printf("Task #%d %s\n", id, verb)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
