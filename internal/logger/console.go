// Package logger provides the leveled console logger used for traversal
// diagnostics. Matches are written to stdout by the output sink; the logger
// writes to stderr so warnings never interleave with match output.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Console logs timestamped, level-filtered messages to a writer. It is safe
// for concurrent use; the pipeline stages share one instance. Color output
// is enabled automatically when the writer is a TTY and NO_COLOR is unset.
type Console struct {
	writer   io.Writer
	logLevel string
	mutex    sync.Mutex
	colored  bool
}

// NewConsole creates a Console writing to w. If w is nil, messages are
// silently discarded. Valid levels: trace, debug, info, warn, error
// (case-insensitive); empty or invalid levels default to "info".
func NewConsole(w io.Writer, logLevel string) *Console {
	return &Console{
		writer:   w,
		logLevel: normalizeLevel(logLevel),
		colored:  isTerminal(w),
	}
}

// isTerminal reports whether w is a TTY that should receive color codes.
// Respects the color library's NO_COLOR handling.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) && !color.NoColor
}

// normalizeLevel lowercases and validates a level string, defaulting to info.
func normalizeLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

func levelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func (c *Console) shouldLog(messageLevel string) bool {
	return levelToInt(messageLevel) >= levelToInt(c.logLevel)
}

// Tracef logs at trace level (most verbose).
func (c *Console) Tracef(format string, args ...any) { c.logf("TRACE", format, args...) }

// Debugf logs at debug level.
func (c *Console) Debugf(format string, args ...any) { c.logf("DEBUG", format, args...) }

// Infof logs at info level.
func (c *Console) Infof(format string, args ...any) { c.logf("INFO", format, args...) }

// Warnf logs at warn level. Every non-fatal traversal error passes through
// here, so a run with warnings is visibly distinguishable from a clean one.
func (c *Console) Warnf(format string, args ...any) { c.logf("WARN", format, args...) }

// Errorf logs at error level.
func (c *Console) Errorf(format string, args ...any) { c.logf("ERROR", format, args...) }

// logf formats and writes one message if the configured level allows it.
// Format: "[HH:MM:SS] [LEVEL] <message>"
func (c *Console) logf(level, format string, args ...any) {
	if c.writer == nil {
		return
	}
	if !c.shouldLog(strings.ToLower(level)) {
		return
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	ts := time.Now().Format("15:04:05")
	message := fmt.Sprintf(format, args...)
	if c.colored {
		fmt.Fprintf(c.writer, "[%s] [%s] %s\n", ts, colorLevel(level), message)
		return
	}
	fmt.Fprintf(c.writer, "[%s] [%s] %s\n", ts, level, message)
}

// colorLevel wraps a level tag in its ANSI color.
func colorLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}
