package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// OutputMode controls how the sync engine reports per-entry failures.
//
// The mode is applied uniformly across registration, runs and applies:
//   - ModeQuiet swallows errors and continues.
//   - ModeVerbose logs errors and continues with the next entry.
//   - ModeDebug propagates errors to the caller, aborting the remainder
//     of the current run. Debug also forces every evaluation to be due.
type OutputMode int

const (
	ModeQuiet OutputMode = iota
	ModeVerbose
	ModeDebug
)

// String makes OutputMode satisfy the fmt.Stringer interface.
func (m OutputMode) String() string {
	switch m {
	case ModeQuiet:
		return "quiet"
	case ModeVerbose:
		return "verbose"
	case ModeDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseOutputMode maps a configuration string to an OutputMode.
// Unknown values fall back to verbose, the safe middle ground.
func ParseOutputMode(s string) OutputMode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quiet":
		return ModeQuiet
	case "debug":
		return ModeDebug
	default:
		return ModeVerbose
	}
}

// SlogLevel returns the minimum slog level that should be emitted for the mode.
func (m OutputMode) SlogLevel() slog.Level {
	switch m {
	case ModeQuiet:
		return slog.LevelError
	case ModeDebug:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

var defaultLogger *slog.Logger

// Init configures the process-wide logger for the given output mode.
// This should be called once at application startup.
func Init(mode OutputMode, output io.Writer) {
	if output == nil {
		output = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: mode.SlogLevel(),
	}
	defaultLogger = slog.New(slog.NewTextHandler(output, opts))
	slog.SetDefault(defaultLogger)
}

func logInternal(level slog.Level, subsystem string, err error, messageFmt string, args ...interface{}) {
	if defaultLogger == nil {
		// Not initialized (e.g. library use without Init); default to stderr at info.
		Init(ModeVerbose, os.Stderr)
	}
	if !defaultLogger.Enabled(context.Background(), level) {
		return
	}

	msg := messageFmt
	if len(args) > 0 {
		msg = fmt.Sprintf(messageFmt, args...)
	}

	attrs := []slog.Attr{slog.String("subsystem", subsystem)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}

	defaultLogger.LogAttrs(context.Background(), level, msg, attrs...)
}

// Debug logs a debug message.
func Debug(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(slog.LevelDebug, subsystem, nil, messageFmt, args...)
}

// Info logs an informational message.
func Info(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(slog.LevelInfo, subsystem, nil, messageFmt, args...)
}

// Warn logs a warning message.
func Warn(subsystem string, messageFmt string, args ...interface{}) {
	logInternal(slog.LevelWarn, subsystem, nil, messageFmt, args...)
}

// Error logs an error message.
func Error(subsystem string, err error, messageFmt string, args ...interface{}) {
	logInternal(slog.LevelError, subsystem, err, messageFmt, args...)
}
