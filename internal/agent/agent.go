// Package agent defines the prompt executor contract and a subprocess
// implementation for wiring a real agent runtime into the daemon.
package agent

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/hearthd/hearth/internal/logger"
	"github.com/hearthd/hearth/internal/policy"
)

// Result is what an executor reports back for one prompt. The scheduler
// treats everything but Text as opaque metadata for logging.
type Result struct {
	Text      string
	CostUnits float64
	Turns     int
	SessionID string
	Model     string
}

// Executor runs a prompt against an external agent runtime. Execute may
// take arbitrarily long; callers bound it with the context.
type Executor interface {
	Execute(ctx context.Context, prompt string) (*Result, error)
}

// CommandExecutor runs a configured command with the prompt on stdin and
// returns its stdout as the result text. The command is checked against
// the execution policy before every run.
type CommandExecutor struct {
	command []string
	timeout time.Duration
	policy  *policy.Policy
	log     *slog.Logger
}

func NewCommandExecutor(command string, timeout time.Duration, pol *policy.Policy) (*CommandExecutor, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("executor command is empty")
	}
	if pol == nil {
		pol = policy.Default()
	}
	return &CommandExecutor{
		command: argv,
		timeout: timeout,
		policy:  pol,
		log:     logger.ForComponent("agent"),
	}, nil
}

func (e *CommandExecutor) Execute(ctx context.Context, prompt string) (*Result, error) {
	if d := e.policy.Check(policy.CategoryExec, strings.Join(e.command, " ")); !d.Allowed {
		e.log.Warn("executor command denied", "reason", d.Reason)
		return nil, fmt.Errorf("policy: %s", d.Reason)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, e.command[0], e.command[1:]...)
	cmd.Stdin = strings.NewReader(prompt)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("executor timed out after %s", e.timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("executor: %s", msg)
	}

	e.log.Debug("executor finished", "elapsed", time.Since(start))
	return &Result{Text: strings.TrimSpace(stdout.String())}, nil
}
