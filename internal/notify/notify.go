// Package notify defines the outbound delivery contract. Callers treat
// delivery as best effort and discard the returned error, so
// implementations must never panic past this boundary.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/hearthd/hearth/internal/logger"
)

// Notifier delivers text to a channel.
type Notifier interface {
	Send(ctx context.Context, channelID, text string) error
}

// LogNotifier writes notifications to the log. Used when no delivery
// command is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.ForComponent("notify")}
}

func (n *LogNotifier) Send(ctx context.Context, channelID, text string) error {
	n.log.Info("notification", "channel", channelID, "text", text)
	return nil
}

// CommandNotifier pipes the text to a configured command, passing the
// channel id as the final argument.
type CommandNotifier struct {
	command []string
	log     *slog.Logger
}

func NewCommandNotifier(command string) (*CommandNotifier, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("notifier command is empty")
	}
	return &CommandNotifier{
		command: argv,
		log:     logger.ForComponent("notify"),
	}, nil
}

func (n *CommandNotifier) Send(ctx context.Context, channelID, text string) error {
	argv := append(append([]string{}, n.command[1:]...), channelID)
	cmd := exec.CommandContext(ctx, n.command[0], argv...)
	cmd.Stdin = strings.NewReader(text)

	if out, err := cmd.CombinedOutput(); err != nil {
		n.log.Error("notification delivery failed", "err", err, "channel", channelID,
			"output", strings.TrimSpace(string(out)))
		return fmt.Errorf("notify %s: %w", channelID, err)
	}
	return nil
}
