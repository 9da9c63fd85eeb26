// Package conversation ties a transcript to a chat server. It sends user
// messages, streams or fetches the replies and keeps at most one request in
// flight.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/papercomputeco/streamchat/pkg/llm"
	"github.com/papercomputeco/streamchat/pkg/logger"
	"github.com/papercomputeco/streamchat/pkg/session"
	"github.com/papercomputeco/streamchat/pkg/transcript"
)

// GenericErrorMessage is appended as an assistant message when a reply
// could not be obtained.
const GenericErrorMessage = "Sorry, something went wrong. Please try again."

var (
	// ErrBusy is returned when a request is already in flight.
	ErrBusy = errors.New("a reply is still in progress")

	// ErrEmptyMessage is returned by Send for blank input.
	ErrEmptyMessage = errors.New("message is empty")
)

// Client is the part of the chat server API a Conversation uses.
// *client.Client implements it.
type Client interface {
	session.Opener
	Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)
	History(ctx context.Context) ([]llm.Message, error)
	ClearHistory(ctx context.Context) error
}

// Settings are the per-request knobs sent with every chat request.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Stream      bool
}

// DefaultSettings returns the settings the chat server itself defaults to.
func DefaultSettings() Settings {
	return Settings{
		Model:       "qwen3-max",
		Temperature: 0.7,
		MaxTokens:   2000,
		Stream:      true,
	}
}

// Conversation is safe for concurrent use. Send blocks for the duration of
// a request; State and Cancel may be called from other goroutines meanwhile.
type Conversation struct {
	client      Client
	transcript  *transcript.Transcript
	logger      *slog.Logger
	sessionOpts []session.Option

	mu       sync.Mutex
	settings Settings
	busy     bool
	chatting bool
	active   *session.Session
	last     session.State

	// notices holds the transcript indexes of GenericErrorMessage entries.
	// They are shown to the user but never sent back to the server.
	notices map[int]struct{}
}

// Option configures a Conversation created with New.
type Option func(*Conversation)

// WithLogger sets the logger. It is handed down to every session.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conversation) {
		c.logger = l
	}
}

// WithSettings sets the initial request settings.
func WithSettings(s Settings) Option {
	return func(c *Conversation) {
		c.settings = s
	}
}

// WithTranscript uses t instead of a new, empty transcript.
func WithTranscript(t *transcript.Transcript) Option {
	return func(c *Conversation) {
		c.transcript = t
	}
}

// WithSessionOptions adds options applied to every streaming session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(c *Conversation) {
		c.sessionOpts = append(c.sessionOpts, opts...)
	}
}

// New creates a Conversation talking to client.
func New(client Client, opts ...Option) *Conversation {
	c := &Conversation{
		client:   client,
		logger:   logger.Nop(),
		settings: DefaultSettings(),
		last:     session.StateIdle,
		notices:  map[int]struct{}{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.transcript == nil {
		c.transcript = transcript.New()
	}
	c.logger = c.logger.With("component", "conversation")

	return c
}

// Transcript returns the transcript observers subscribe to.
func (c *Conversation) Transcript() *transcript.Transcript {
	return c.transcript
}

// Settings returns the current request settings.
func (c *Conversation) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.settings
}

// SetSettings replaces the request settings. A request already in flight
// keeps the settings it started with.
func (c *Conversation) SetSettings(s Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.settings = s
}

// State reports the state of the current request, or of the last one when
// none is in flight. It is StateIdle before the first Send.
func (c *Conversation) State() session.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		return c.active.State()
	}
	if c.chatting {
		return session.StateStreaming
	}

	return c.last
}

// Cancel abandons the streaming request in flight, if any.
func (c *Conversation) Cancel() {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active != nil {
		active.Cancel()
	}
}

// Send appends text as a user message and obtains the assistant reply,
// streamed into the transcript when Settings.Stream is set. If the reply
// fails, GenericErrorMessage is appended in its place and the error is
// returned. A cancelled reply is rolled back without a notice.
func (c *Conversation) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	settings := c.settings

	c.transcript.AppendUser(text)
	req := &llm.ChatRequest{
		Messages:    c.requestMessagesLocked(),
		Model:       settings.Model,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
		Stream:      settings.Stream,
	}

	var s *session.Session
	if settings.Stream {
		opts := append([]session.Option{session.WithLogger(c.logger)}, c.sessionOpts...)
		s = session.New(c.client, c.transcript, opts...)
		c.active = s
	} else {
		c.chatting = true
	}
	c.mu.Unlock()

	var err error
	if s != nil {
		err = s.Run(ctx, req)
	} else {
		err = c.chat(ctx, req)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.busy = false
	c.chatting = false
	c.active = nil
	c.last = session.StateCompleted

	if err != nil {
		c.last = session.StateFailed

		if cancelled(err) {
			c.logger.Debug("chat request cancelled", "model", settings.Model, "stream", settings.Stream)
			return err
		}

		c.logger.Error("chat request failed", "error", err, "model", settings.Model, "stream", settings.Stream)

		idx := c.transcript.AppendAssistant(GenericErrorMessage)
		c.notices[idx] = struct{}{}

		return err
	}

	return nil
}

// cancelled reports whether err comes from Cancel or a cancelled context,
// as opposed to a failure of the server or the stream. Deadlines count as
// failures.
func cancelled(err error) bool {
	return errors.Is(err, session.ErrCancelled) || errors.Is(err, context.Canceled)
}

func (c *Conversation) chat(ctx context.Context, req *llm.ChatRequest) error {
	resp, err := c.client.Chat(ctx, req)
	if err != nil {
		return err
	}

	c.transcript.AppendAssistant(resp.Message.Content)

	return nil
}

// requestMessagesLocked returns the transcript without error notices and
// without timestamps.
func (c *Conversation) requestMessagesLocked() []llm.Message {
	snap := c.transcript.Snapshot()
	msgs := make([]llm.Message, 0, len(snap))

	for i, m := range snap {
		if _, ok := c.notices[i]; ok {
			continue
		}
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	return msgs
}

// LoadHistory replaces the transcript with the history the server keeps.
func (c *Conversation) LoadHistory(ctx context.Context) error {
	return c.replace(ctx, func(ctx context.Context) ([]llm.Message, error) {
		msgs, err := c.client.History(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading history: %w", err)
		}
		return msgs, nil
	})
}

// ClearHistory deletes the server-side history and empties the transcript.
func (c *Conversation) ClearHistory(ctx context.Context) error {
	return c.replace(ctx, func(ctx context.Context) ([]llm.Message, error) {
		if err := c.client.ClearHistory(ctx); err != nil {
			return nil, fmt.Errorf("clearing history: %w", err)
		}
		return nil, nil
	})
}

// replace swaps the transcript contents for what fetch returns. It claims
// the busy slot so no reply can stream into a transcript being replaced.
func (c *Conversation) replace(ctx context.Context, fetch func(context.Context) ([]llm.Message, error)) error {
	c.mu.Lock()
	if c.busy {
		c.mu.Unlock()
		return ErrBusy
	}
	c.busy = true
	c.mu.Unlock()

	msgs, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.busy = false
	if err != nil {
		return err
	}

	c.transcript.Replace(msgs)
	c.notices = map[int]struct{}{}

	return nil
}
