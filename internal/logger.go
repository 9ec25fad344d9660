package internal

import (
	"io"
	"log/slog"
	"time"
)

// NewLogger builds the process logger. Production writes JSON with UTC
// RFC 3339 timestamps; everything else writes text, with source locations
// at debug level. An unknown level falls back to info.
func NewLogger(w io.Writer, env string, level string) *slog.Logger {
	var lvl slog.Level
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			slog.Default().Warn("Invalid log level. Using default level: info", slog.String("value", level))
			lvl = slog.LevelInfo
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if env == "prod" {
		opts.ReplaceAttr = utcTimestamps
		h = slog.NewJSONHandler(w, opts)
	} else {
		opts.AddSource = lvl <= slog.LevelDebug
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h).With(slog.String("service", "campusshop"))
}

func utcTimestamps(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && len(groups) == 0 {
		return slog.String(slog.TimeKey, a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}
