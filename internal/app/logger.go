package app

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/scieloorg/articlemeta/internal/config"
)

// NewLogger builds the process logger on stderr, tags it with the application
// name and build version, and installs it as the slog default.
//
// Format "json" is the production format; "text" adds source positions.
// Unknown or empty levels fall back to info.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	logger := slog.New(newHandler(os.Stderr, cfg)).With(
		slog.String("app", "articlemeta"),
		slog.String("version", Version),
	)
	slog.SetDefault(logger)
	return logger
}

func newHandler(w io.Writer, cfg config.LogConfig) slog.Handler {
	text := strings.EqualFold(cfg.Format, "text")
	opts := &slog.HandlerOptions{
		Level:     parseLevel(cfg.Level),
		AddSource: text,
	}
	if text {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
