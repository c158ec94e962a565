package format

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/harrison/bfind/internal/entry"
)

// Executor runs a command for each match, substituting {path} and {name}
// placeholders in the argv. The child inherits stdio and receives the
// pipeline run ID in BFIND_RUN_ID so spawned commands can be correlated
// with the run that produced them.
//
// A child's non-zero exit is reported as an error from Emit; the pipeline
// treats that as a warning, not a fatal failure, so one misbehaving command
// never aborts the traversal.
type Executor struct {
	ctx   context.Context
	argv  []string
	runID string
}

// NewExecutor builds an executor from the action tokens given after the
// exec verb. At least a command name is required.
func NewExecutor(ctx context.Context, argv []string, runID string) (*Executor, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("exec requires a command")
	}
	return &Executor{ctx: ctx, argv: argv, runID: runID}, nil
}

// Emit runs the command for one entry and waits for it to finish.
func (x *Executor) Emit(e *entry.Entry) error {
	argv := make([]string, len(x.argv))
	for i, arg := range x.argv {
		arg = strings.ReplaceAll(arg, "{path}", e.Path)
		arg = strings.ReplaceAll(arg, "{name}", e.Name)
		argv[i] = arg
	}
	cmd := exec.CommandContext(x.ctx, argv[0], argv[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "BFIND_RUN_ID="+x.runID)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("exec %s on %s: %w", argv[0], e.Path, err)
	}
	return nil
}

// Close is a no-op; each command is waited on inside Emit.
func (x *Executor) Close() error { return nil }
