package cli

import (
	"io"
	"log/slog"

	"countdown-quiz/internal/config"
)

func newLogger(cfg config.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// installLogger builds the configured logger and makes it the process default.
func installLogger(cfg config.Config, w io.Writer) *slog.Logger {
	logger := newLogger(cfg, w)
	slog.SetDefault(logger)
	return logger
}
