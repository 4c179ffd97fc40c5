// Package logging bootstraps the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger and redirects the standard
// library logger through it, so every package logs through one sink
// regardless of which logging API it reaches for.
func Init(logPath string, level string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	log.Logger = log.Output(sink(logPath)).With().Timestamp().Str("component", "genforge").Logger()
	zerolog.SetGlobalLevel(parseLevel(level))

	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}

// sink resolves the configured log output. An empty path writes to stdout;
// a path that can't be opened falls back to stdout with a stderr warning
// rather than failing startup over a logging misconfiguration.
func sink(logPath string) io.Writer {
	if logPath == "" {
		return os.Stdout
	}
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: failed to open log file %q, falling back to stdout: %v\n", logPath, err)
		return os.Stdout
	}
	return f
}

// parseLevel maps a recognized LOG_LEVEL string (spec.md §6) to a zerolog
// level, defaulting to info for an empty or unrecognized value.
func parseLevel(level string) zerolog.Level {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		level = "warn"
	}
	if level == "" {
		return zerolog.InfoLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}
