package log

import (
	"context"
	"log/slog"
	"strings"
)

// SlogAdapter writes catalog events to an slog.Logger. Rejections log at
// Error, warnings and removals at Warn, loads at Info.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a SlogAdapter that writes to the given logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("load_id", event.LoadID),
		slog.String("kind", event.Kind.String()),
	}

	if event.Source != "" {
		attrs = append(attrs, slog.String("source", event.Source))
	}
	if event.BlockID != "" {
		attrs = append(attrs, slog.String("block", event.BlockID))
	}
	if event.Version != "" {
		attrs = append(attrs, slog.String("version", event.Version))
	}
	if event.Fingerprint != "" {
		attrs = append(attrs, slog.String("fingerprint", event.Fingerprint))
	}
	if event.Changed {
		attrs = append(attrs, slog.Bool("changed", true))
	}
	if len(event.Missing) > 0 {
		attrs = append(attrs, slog.String("missing", strings.Join(event.Missing, ",")))
	}
	if len(event.Violations) > 0 {
		attrs = append(attrs, slog.Int("violations", len(event.Violations)))
	}

	msg := event.Message
	if msg == "" {
		msg = "catalog " + strings.ToLower(event.Kind.String())
	}

	a.logger.LogAttrs(context.Background(), levelFor(event.Kind), msg, attrs...)
}

func levelFor(k Kind) slog.Level {
	switch k {
	case KindRejected:
		return slog.LevelError
	case KindWarning, KindRemoved:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
