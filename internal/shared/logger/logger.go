package logger

import (
	"io"
	"log/slog"
	"os"

	"astro-server/internal/shared/config"

	charmlog "github.com/charmbracelet/log"
)

// Init builds the process logger from the logging config and installs it as
// the slog default.
func Init(cfg *config.Config) *slog.Logger {
	logger := New(os.Stdout, cfg.Logging)
	slog.SetDefault(logger)

	logger.With("component", "logger").Debug("Logger initialized",
		"level", cfg.Logging.Level,
		"json_format", cfg.Logging.JSONFormat,
		"environment", cfg.Server.Environment,
	)

	return logger
}

// New returns a JSON logger or a human-readable charmbracelet logger writing to w.
func New(w io.Writer, logConfig config.LoggingConfig) *slog.Logger {
	level := parseLogLevel(logConfig.Level)

	if logConfig.JSONFormat {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		}))
	}

	handler := charmlog.NewWithOptions(w, charmlog.Options{
		Level:           charmlog.Level(level),
		ReportTimestamp: true,
	})
	return slog.New(handler)
}

func parseLogLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}
