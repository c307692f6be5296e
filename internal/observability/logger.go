package observability

import (
	"log/slog"
	"os"
	"strings"

	"github.com/uzairgheewala/dsc106-proj3/internal/config"
)

// NewLogger builds the process-wide structured logger from config. Unknown
// level or format strings fall back to info and JSON rather than failing
// startup.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.LogFormat) == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
