// Package logger builds the slog handle services pass into their
// components. There is no package-level logger; every consumer receives an
// explicit *slog.Logger.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New constructs a text logger for a service, with the level taken from
// LOG_LEVEL (debug, info, warn, error; default info).
func New(service string) *slog.Logger {
	return NewWithWriter(service, os.Stdout)
}

// NewWithWriter is New with an explicit destination, used by tests.
func NewWithWriter(service string, w io.Writer) *slog.Logger {
	level := parseLevel(os.Getenv("LOG_LEVEL"))
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h).With("service", service)
}

func parseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
