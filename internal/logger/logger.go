// Package logger configures the application's structured logger.
package logger

import (
	"log/slog"
	"os"
	"strings"
)

// New creates a slog.Logger writing to stderr. The level comes from the
// SOUNDLEAF_LOG_LEVEL environment variable (debug, info, warn, error;
// default info); SOUNDLEAF_LOG_FORMAT=json switches to the JSON handler.
func New() *slog.Logger {
	level := parseLevel(os.Getenv("SOUNDLEAF_LOG_LEVEL"))
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(os.Getenv("SOUNDLEAF_LOG_FORMAT"), "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
