// Package logger builds the *slog.Logger values streamchat components log
// through. Packages depend only on slog; the handler behind a logger is
// picked from the options: JSON for the log file, charmbracelet/log for
// --debug output on a terminal, slog text otherwise. Credentials never reach
// a handler (see WithRedactedKeys).
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// New creates a *slog.Logger. Without options it writes text records at
// Info level to os.Stderr.
func New(opts ...Option) *slog.Logger {
	s := newSettings()
	for _, opt := range opts {
		opt(s)
	}

	return slog.New(newRedactHandler(s.handler(), s.redact))
}

func (s *settings) output() io.Writer {
	switch len(s.writers) {
	case 0:
		return os.Stderr
	case 1:
		return s.writers[0]
	default:
		return io.MultiWriter(s.writers...)
	}
}

func (s *settings) handler() slog.Handler {
	w := s.output()

	switch {
	case s.json:
		return slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     s.level,
			AddSource: s.source,
		})

	case s.pretty:
		return charmlog.NewWithOptions(w, charmlog.Options{
			ReportTimestamp: true,
			ReportCaller:    s.source,
			Prefix:          s.prefix,
			Level:           charmlog.Level(s.level),
		})

	default:
		return slog.NewTextHandler(w, &slog.HandlerOptions{
			Level:     s.level,
			AddSource: s.source,
		})
	}
}

// Nop returns a logger that discards everything. Components default to it
// until a logger is injected.
func Nop() *slog.Logger {
	return slog.New(nopHandler{})
}

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (h nopHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h nopHandler) WithGroup(string) slog.Handler           { return h }
