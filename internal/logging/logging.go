// Package logging configures the process logger. Packages log through
// log/slog; Init routes slog records to a zerolog backend.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog/v2"
)

// Config selects the level, encoding and destination.
type Config struct {
	// Level is one of trace, debug, info, warn, error. Default info.
	Level string

	// Format is json or console. Default console.
	Format string

	// Output defaults to os.Stderr.
	Output io.Writer
}

// Init builds a zerolog logger from cfg, installs it as the slog default
// and returns it.
func Init(cfg Config) *slog.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339

	out := cfg.Output
	if cfg.Format != "json" {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05", NoColor: true}
	}

	zl := zerolog.New(out).With().Timestamp().Logger().Level(zerologLevel(cfg.Level))
	logger := slog.New(slogzerolog.Option{Level: slogLevel(cfg.Level), Logger: &zl}.NewZerologHandler())
	slog.SetDefault(logger)
	return logger
}

func zerologLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// slogLevel maps trace onto debug, the lowest slog level.
func slogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace", "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
