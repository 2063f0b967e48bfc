// Package logger builds the structured JSON logger shared by every component.
// Each record is one JSON object per line with a "ts" field rendered in the
// configured location.
package logger

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// TimeKey replaces slog's default "time" key.
const TimeKey = "ts"

// New returns a logger writing to w. Format "text" selects slog's text handler;
// anything else produces JSON.
func New(w io.Writer, level, format string, loc *time.Location) *slog.Logger {
	if loc == nil {
		loc = time.UTC
	}

	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String(TimeKey, a.Value.Time().In(loc).Format(time.RFC3339Nano))
			}
			return a
		},
	}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Discard returns a logger that drops everything. Used as a default when no
// logger is injected.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
