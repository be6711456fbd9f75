// Package logging builds the slog logger shared by the worker process.
// Logs are JSON lines on stdout; every record carries the service name so
// collectors can tell pipeline components apart.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger returns a JSON logger at the given level. Unknown level
// strings fall back to info rather than failing startup.
func NewJSONLogger(service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler).With("service", service)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
