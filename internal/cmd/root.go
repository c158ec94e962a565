// Package cmd builds the bfind command-line interface.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/harrison/bfind/internal/config"
	"github.com/harrison/bfind/internal/format"
	"github.com/harrison/bfind/internal/fsys"
	"github.com/harrison/bfind/internal/logger"
	"github.com/harrison/bfind/internal/pipeline"
	"github.com/harrison/bfind/internal/query"
	"github.com/harrison/bfind/internal/walker"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// rootFlags holds the flag values for one invocation.
type rootFlags struct {
	hidden     bool
	follow     bool
	depth      int
	ignore     string
	maxResults int
	output     string
	buffer     int
	queueMem   int
	logLevel   string
	configPath string
}

// NewRootCommand creates and returns the root cobra command for bfind
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "bfind [flags] [DIR ...] [print [TEMPLATE] | exec CMD [ARG ...]] [-- EXPR ...]",
		Short: "Breadth-first filesystem search",
		Long: `bfind walks directory trees level by level (breadth-first, unlike the
depth-first order of traditional find) and evaluates a boolean expression
against every entry.

Directories listed before an action verb are traversal roots (default: the
current directory). The optional action is either "print" with a template
({path}, {name}, {depth}, {size}, {type}, width as {name:20}) or "exec" with
a command run once per match ({path} and {name} substituted in its
arguments). Everything after "--" is the match expression:

    name glob '*.go'            shell-style wildcard on the base name
    name match '^[a-z]+\.log$'  regular expression on the base name
    type is dir                 kind test (file, dir, symlink, other)
    size gt 1MiB                byte-size comparison (gt, lt, eq)

Tests combine with "not" (binds tightest), "and", then "or", all
left-associative; parentheses group. Example:

    bfind /var/log -- name glob '*.log' and size gt 10MiB`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		Args:         cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.hidden, "hidden", "H", false, "include entries whose names start with a dot")
	cmd.Flags().BoolVarP(&flags.follow, "follow", "L", false, "follow symlinks that resolve to directories")
	cmd.Flags().IntVarP(&flags.depth, "depth", "d", 0, "maximum traversal depth (must be > 0; 0 = unlimited)")
	cmd.Flags().StringVarP(&flags.ignore, "ignore", "I", "", "comma-separated base names to skip entirely")
	cmd.Flags().IntVarP(&flags.maxResults, "max-results", "n", 0, "stop after this many matches (0 = unlimited)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "append matches to this file instead of stdout")
	cmd.Flags().IntVar(&flags.buffer, "buffer", 0, "pipeline stage buffer capacity")
	cmd.Flags().IntVar(&flags.queueMem, "queue-mem", 0, "in-memory frontier limit before spilling to disk")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "diagnostic verbosity (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.configPath, "config", "", "config file (default ~/.bfind.yaml)")

	return cmd
}

// invocation is the fully resolved shape of one run: roots, action, query.
type invocation struct {
	roots  []string
	verb   string // "print" or "exec"
	action []string
	expr   []string
}

// splitArgs separates positional arguments into roots, an optional action
// and the expression tokens after "--". The print verb takes at most one
// template token; exec consumes everything up to the delimiter.
func splitArgs(args []string, lenAtDash int) (*invocation, error) {
	inv := &invocation{verb: "print"}

	positional := args
	if lenAtDash >= 0 {
		positional = args[:lenAtDash]
		inv.expr = args[lenAtDash:]
	}

	const (
		stateRoots = iota
		stateAction
	)
	state := stateRoots
	for _, arg := range positional {
		switch state {
		case stateRoots:
			if arg == "print" || arg == "exec" {
				inv.verb = arg
				state = stateAction
				continue
			}
			inv.roots = append(inv.roots, arg)
		case stateAction:
			inv.action = append(inv.action, arg)
		}
	}

	if inv.verb == "print" && len(inv.action) > 1 {
		return nil, fmt.Errorf("print takes at most one template argument, got %d", len(inv.action))
	}
	if state == stateAction && inv.verb == "exec" && len(inv.action) == 0 {
		return nil, fmt.Errorf("exec requires a command")
	}
	return inv, nil
}

func run(cmd *cobra.Command, args []string, flags *rootFlags) (retErr error) {
	if cmd.Flags().Changed("depth") && flags.depth < 1 {
		return fmt.Errorf("depth must be > 0")
	}

	configPath := flags.configPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, flags, cfg)

	inv, err := splitArgs(args, cmd.ArgsLenAtDash())
	if err != nil {
		return err
	}

	pred, err := query.Parse(inv.expr)
	if err != nil {
		return fmt.Errorf("invalid expression: %w", err)
	}

	if inv.verb == "exec" && flags.output != "" {
		return fmt.Errorf("--output applies to the print action, not exec")
	}

	log := logger.NewConsole(cmd.ErrOrStderr(), cfg.LogLevel)
	runID := uuid.NewString()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink, err := buildSink(ctx, cmd, inv, flags, runID)
	if err != nil {
		return err
	}
	// The printer buffers rendered matches and flushes in Close, so a write
	// failure can surface only here. It must not be swallowed.
	defer func() {
		if cerr := sink.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("flushing output: %w", cerr)
		}
	}()

	var pipe *pipeline.Pipeline
	sched, err := walker.New(fsys.NewOS(), inv.roots, walker.Options{
		ShowHidden:     cfg.ShowHidden,
		FollowSymlinks: cfg.FollowSymlinks,
		MaxDepth:       cfg.MaxDepth,
		Ignores:        cfg.Ignore,
		QueueMemLimit:  cfg.QueueMemLimit,
		// The pipeline is constructed right after the scheduler; the
		// callback only fires once Run starts.
		Warn: func(err error) { pipe.Warn(err) },
	})
	if err != nil {
		return err
	}

	pipe = pipeline.New(sched, pred, sink, pipeline.Options{
		BufferSize: cfg.BufferSize,
		MaxResults: flags.maxResults,
		RunID:      runID,
		Log:        log,
	})

	result, err := pipe.Run(ctx)
	if err != nil {
		return err
	}
	if len(result.Warnings) > 0 {
		log.Infof("completed with %d matches and %d warnings", result.Matches, len(result.Warnings))
	}
	return nil
}

// applyFlags overrides config file values with explicitly set flags.
func applyFlags(cmd *cobra.Command, flags *rootFlags, cfg *config.Config) {
	if cmd.Flags().Changed("hidden") {
		cfg.ShowHidden = flags.hidden
	}
	if cmd.Flags().Changed("follow") {
		cfg.FollowSymlinks = flags.follow
	}
	if cmd.Flags().Changed("depth") {
		cfg.MaxDepth = flags.depth
	}
	if cmd.Flags().Changed("ignore") {
		cfg.Ignore = splitIgnore(flags.ignore)
	}
	if cmd.Flags().Changed("buffer") {
		cfg.BufferSize = flags.buffer
	}
	if cmd.Flags().Changed("queue-mem") {
		cfg.QueueMemLimit = flags.queueMem
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
}

// splitIgnore splits a comma-separated ignore list, dropping empty names.
func splitIgnore(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// buildSink constructs the output sink for the requested action.
func buildSink(ctx context.Context, cmd *cobra.Command, inv *invocation, flags *rootFlags, runID string) (format.Sink, error) {
	switch inv.verb {
	case "exec":
		return format.NewExecutor(ctx, inv.action, runID)
	default:
		text := format.DefaultTemplate
		if len(inv.action) == 1 {
			text = inv.action[0]
		}
		tmpl, err := format.CompileTemplate(text)
		if err != nil {
			return nil, err
		}
		if flags.output != "" {
			return format.NewFilePrinter(tmpl, flags.output)
		}
		return format.NewPrinter(tmpl, cmd.OutOrStdout()), nil
	}
}
