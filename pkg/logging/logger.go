// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	// Ignored when File is set.
	Output io.Writer

	// File redirects output to a file. The terminal browser uses this so
	// log lines do not end up on top of the rendered grid.
	File string
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))

	var output io.Writer = cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// SetupFile configures the global logger to append to cfg.File. The returned
// closer must be called on shutdown.
func SetupFile(cfg Config) (zerolog.Logger, io.Closer, error) {
	if cfg.File == "" {
		return Setup(cfg), io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	cfg.Output = f
	cfg.Pretty = false
	return Setup(cfg), f, nil
}

// ParseLevel converts a level name to zerolog.Level. Unknown names map to info.
func ParseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache lookups (hit/miss/stale, key)
//   - Visibility reveals and page cursor advances
//   - Upstream request flow (conditional requests, ETags)
//
// Info: Normal operation events
//   - Aggregated page served (offset, cards, duration)
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Cache errors (fallback to direct request)
//   - Partial results from batch page fetches
//
// Error: Error conditions requiring attention
//   - Upstream failures surfaced as HTTP 500
//   - Page fetch failures absorbed by the scroll controller
//
// Context Fields:
//   - component: emitting package (pokeapi, aggregate, scroll, cache, ...)
//   - url: upstream URL
//   - offset: listing offset
//   - page: page number
//   - status: HTTP status code
//   - error_class: client, server, network, decode, shape
//   - duration: request duration
