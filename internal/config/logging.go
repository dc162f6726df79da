package config

import (
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a config level name onto slog. Unknown names fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// NewLogger builds the process logger. The returned LevelVar can be adjusted
// later, e.g. when the config file is reloaded.
func NewLogger(w io.Writer, level string) (*slog.Logger, *slog.LevelVar) {
	lv := new(slog.LevelVar)
	lv.Set(ParseLevel(level))
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lv}))
	return logger, lv
}
