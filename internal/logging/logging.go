// Package logging provides structured logging for the service
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// New creates a structured logger writing to stdout
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a structured logger writing to w. Format "json"
// emits one JSON object per line, anything else a human console format.
func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, info when unknown
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
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

// WithRequestID attaches a request ID to the logger carried by ctx
func WithRequestID(ctx context.Context, requestID string) context.Context {
	logger := L(ctx).With().Str("request_id", requestID).Logger()
	return logger.WithContext(ctx)
}

// L returns the logger carried by ctx. Without one it falls back to a
// disabled logger so library code can always log.
func L(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}
