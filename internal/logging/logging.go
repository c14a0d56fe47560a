// Package logging configures the process-wide zerolog logger and hands out
// component-scoped child loggers, the same way cuemby-warren's pkg/log
// does for warren.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the global logger instance, initialized by Init.
var Logger zerolog.Logger

func init() {
	// Safe default so packages that log before Init (e.g. in tests) don't
	// panic on a zero-value Logger.
	Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// Config controls how the global logger is constructed.
type Config struct {
	// Level is one of "DEBUG", "INFO", "WARN", "ERROR" (case-insensitive).
	Level string
	// DevMode switches from JSON output to a human-readable console writer.
	DevMode bool
	Output  *os.File
}

// Init builds the global logger from cfg. Call once at startup.
func Init(cfg Config) {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	if cfg.DevMode {
		Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
		return
	}
	Logger = zerolog.New(out).With().Timestamp().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// For returns a child logger tagged with the given component name, e.g.
// "pipeline", "skipstore", "httpapi".
func For(component string) zerolog.Logger {
	return Logger.With().Str("component", component).Logger()
}
