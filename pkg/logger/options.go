package logger

import (
	"io"
	"log/slog"
	"strings"
)

// DefaultRedactedKeys are the attribute keys whose values are always
// replaced before a record is written.
var DefaultRedactedKeys = []string{"password", "token", "access_token", "authorization"}

type settings struct {
	level   slog.Level
	pretty  bool
	json    bool
	source  bool
	prefix  string
	writers []io.Writer
	redact  map[string]struct{}
}

func newSettings() *settings {
	s := &settings{
		level:  slog.LevelInfo,
		redact: map[string]struct{}{},
	}
	for _, k := range DefaultRedactedKeys {
		s.redact[k] = struct{}{}
	}
	return s
}

// Option configures a logger created with New.
type Option func(*settings)

// WithDebug logs Debug records too when debug is set.
func WithDebug(debug bool) Option {
	return func(s *settings) {
		s.level = slog.LevelInfo
		if debug {
			s.level = slog.LevelDebug
		}
	}
}

// WithPretty selects the colorized charmbracelet/log handler meant for a
// terminal. WithJSON wins when both are set.
func WithPretty(pretty bool) Option {
	return func(s *settings) {
		s.pretty = pretty
	}
}

// WithPrefix sets the prefix pretty records start with.
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

// WithJSON selects slog's JSON handler, one object per line.
func WithJSON(json bool) Option {
	return func(s *settings) {
		s.json = json
	}
}

// WithWriter sets the output. Defaults to os.Stderr so logs never mix with
// replies printed to stdout.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		s.writers = []io.Writer{w}
	}
}

// WithWriters writes every record to each of w.
func WithWriters(w ...io.Writer) Option {
	return func(s *settings) {
		s.writers = w
	}
}

// WithSource adds the file:line of the logging call.
func WithSource(source bool) Option {
	return func(s *settings) {
		s.source = source
	}
}

// WithRedactedKeys adds attribute keys, matched case-insensitively, whose
// values are replaced on top of DefaultRedactedKeys.
func WithRedactedKeys(keys ...string) Option {
	return func(s *settings) {
		for _, k := range keys {
			s.redact[strings.ToLower(k)] = struct{}{}
		}
	}
}
