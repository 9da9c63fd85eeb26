// Package session drives one streaming chat request: it opens the stream,
// pushes every content delta into the transcript as it arrives and settles
// the assistant placeholder when the stream ends. A Session is single use.
//
//	┌──────────────┐   ┌─────────────┐   ┌────────────┐   ┌───────────┐
//	│ body.Read()  │──▶│ sse.Decoder │──▶│ sse.Framer │──▶│ sse.Parse │
//	└──────────────┘   └─────────────┘   └────────────┘   └───────────┘
//	                                                            │
//	                                                            ▼
//	                                              ┌──────────────────────────┐
//	                                              │ Transcript.AppendDelta() │
//	                                              └──────────────────────────┘
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/streamchat/pkg/client"
	"github.com/papercomputeco/streamchat/pkg/llm"
	"github.com/papercomputeco/streamchat/pkg/logger"
	"github.com/papercomputeco/streamchat/pkg/sse"
	"github.com/papercomputeco/streamchat/pkg/transcript"
	"github.com/papercomputeco/streamchat/pkg/utils"
)

const defaultChunkSize = 4096

// Opener opens the response stream of a chat request. The returned body is
// closed by the Session. *client.Client implements it.
type Opener interface {
	OpenStream(ctx context.Context, req *llm.ChatRequest) (io.ReadCloser, error)
}

// Stats counts what a Session saw on the wire.
type Stats struct {
	Chunks    int
	Bytes     int64
	Lines     int
	Deltas    int
	Malformed int
	Duration  time.Duration
}

// Session is one streaming request. Create it with New, call Run once.
type Session struct {
	id         string
	opener     Opener
	transcript *transcript.Transcript
	logger     *slog.Logger
	chunkSize  int
	raw        io.Writer

	state atomic.Int32

	mu        sync.Mutex
	cancel    context.CancelCauseFunc
	cancelled bool
	stats     Stats

	placeholder int
}

// Option configures a Session created with New.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithChunkSize sets the size of the read buffer, i.e. the largest chunk
// handed to the decoder at once.
func WithChunkSize(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithRawWriter tees every byte read from the stream, verbatim, to w. It is
// used to capture raw streams for debugging.
func WithRawWriter(w io.Writer) Option {
	return func(s *Session) {
		s.raw = w
	}
}

// New creates an idle Session that streams into t.
func New(opener Opener, t *transcript.Transcript, opts ...Option) *Session {
	s := &Session{
		id:          uuid.NewString(),
		opener:      opener,
		transcript:  t,
		logger:      logger.Nop(),
		chunkSize:   defaultChunkSize,
		placeholder: -1,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("component", "session", "session_id", s.id)

	return s
}

// ID returns the session's unique ID.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state. It is safe to call from any goroutine.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Placeholder returns the transcript index of the assistant placeholder, or
// -1 before Run.
func (s *Session) Placeholder() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.placeholder
}

// Stats returns a copy of the wire counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stats
}

// Cancel abandons the stream. A pending read is aborted and Run fails with
// ErrCancelled. Cancelling before Run makes Run fail immediately; cancelling
// after the session ended does nothing.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelled = true
	if s.cancel != nil {
		s.cancel(ErrCancelled)
	}
}

// Run streams the reply to req into the transcript and blocks until the
// stream ends. A placeholder assistant message is appended first; on
// success it holds the complete reply, on failure it is removed again and
// the error is returned.
func (s *Session) Run(ctx context.Context, req *llm.ChatRequest) error {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateStreaming)) {
		return ErrSessionUsed
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	s.mu.Lock()
	s.cancel = cancel
	if s.cancelled {
		cancel(ErrCancelled)
	}
	s.placeholder = s.transcript.BeginPlaceholder()
	s.mu.Unlock()

	start := time.Now()
	s.logger.Debug("stream session started",
		"placeholder", s.placeholder,
		"model", req.Model,
		"message_count", len(req.Messages),
	)

	err := s.stream(ctx, req)

	s.mu.Lock()
	s.stats.Duration = time.Since(start)
	stats := s.stats
	s.mu.Unlock()

	if err != nil {
		return s.fail(err, stats)
	}

	s.state.Store(int32(StateCompleted))
	s.logger.Debug("stream session completed",
		"deltas", stats.Deltas,
		"malformed", stats.Malformed,
		"bytes", stats.Bytes,
		"duration", stats.Duration,
	)

	return nil
}

// fail rolls back the placeholder and moves to StateFailed.
func (s *Session) fail(err error, stats Stats) error {
	if rmErr := s.transcript.Remove(s.placeholder); rmErr != nil {
		err = errors.Join(err, fmt.Errorf("rolling back placeholder: %w", rmErr))
	}

	s.state.Store(int32(StateFailed))
	s.logger.Debug("stream session failed",
		"error", err,
		"deltas", stats.Deltas,
		"duration", stats.Duration,
	)

	return err
}

func (s *Session) stream(ctx context.Context, req *llm.ChatRequest) error {
	if ctx.Err() != nil {
		return fmt.Errorf("opening stream: %w", context.Cause(ctx))
	}

	body, err := s.opener.OpenStream(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("opening stream: %w", context.Cause(ctx))
		}
		return fmt.Errorf("opening stream: %w", err)
	}
	if body == nil {
		return fmt.Errorf("opening stream: %w", client.ErrStreamUnsupported)
	}
	defer body.Close()

	// Openers are not required to bind the body to ctx. Closing it on
	// cancellation unblocks a pending Read either way.
	stop := context.AfterFunc(ctx, func() { _ = body.Close() })
	defer stop()

	var src io.Reader = body
	if s.raw != nil {
		src = io.TeeReader(body, s.raw)
	}

	dec := sse.NewDecoder()
	framer := sse.NewFramer()
	buf := make([]byte, s.chunkSize)

	for {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			s.countChunk(n)

			text, err := dec.Decode(buf[:n], false)
			if err != nil {
				return fmt.Errorf("decoding stream: %w", err)
			}

			done, err := s.consume(framer.Feed(text))
			if err != nil || done {
				return err
			}
		}

		if readErr == nil {
			continue
		}

		if ctx.Err() != nil {
			return context.Cause(ctx)
		}

		if errors.Is(readErr, io.EOF) {
			return s.finish(dec, framer)
		}

		return fmt.Errorf("reading stream: %w", readErr)
	}
}

// finish drains the decoder and framer after the stream physically ended.
// A last line without a trailing newline is still parsed.
func (s *Session) finish(dec *sse.Decoder, framer *sse.Framer) error {
	tail, err := dec.Decode(nil, true)
	if err != nil {
		return fmt.Errorf("decoding stream: %w", err)
	}

	lines := framer.Feed(tail)
	if rest, ok := framer.Flush(); ok {
		lines = append(lines, rest)
	}

	_, err = s.consume(lines)
	return err
}

// consume applies the events of complete lines in order. done reports that
// the stream has ended and nothing after it may be applied.
func (s *Session) consume(lines []string) (done bool, err error) {
	for _, line := range lines {
		s.mu.Lock()
		s.stats.Lines++
		s.mu.Unlock()

		ev := sse.Parse(line)
		if ev == nil {
			continue
		}

		switch ev.Kind {
		case sse.KindDelta:
			if err := s.transcript.AppendDelta(s.placeholder, ev.Text); err != nil {
				return true, fmt.Errorf("appending delta: %w", err)
			}

			s.mu.Lock()
			s.stats.Deltas++
			s.mu.Unlock()

			if ev.Final {
				return true, nil
			}

		case sse.KindMalformed:
			s.mu.Lock()
			s.stats.Malformed++
			s.mu.Unlock()

			s.logger.Warn("skipping malformed stream payload",
				"payload", utils.Truncate(ev.Raw, 120),
				"error", ev.Err,
			)

		case sse.KindFinished:
			if ev.ServerError != "" {
				return true, &ServerError{Message: ev.ServerError}
			}
			return true, nil
		}
	}

	return false, nil
}

func (s *Session) countChunk(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Chunks++
	s.stats.Bytes += int64(n)
}
