// Package transcript holds the ordered list of chat messages shown to the
// user. A Transcript is the only thing that mutates the list: streaming
// sessions append deltas to an open assistant placeholder, and observers
// read immutable snapshots after a change notification.
package transcript

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/papercomputeco/streamchat/pkg/llm"
)

// ErrIndexOutOfRange is returned when a message index does not exist. In
// correct operation it never happens; seeing it means the transcript was
// mutated behind a session's back.
var ErrIndexOutOfRange = errors.New("transcript index out of range")

// Message is a single entry of the transcript.
type Message = llm.Message

// Transcript is a concurrency-safe, append-mostly list of messages.
type Transcript struct {
	mu       sync.RWMutex
	messages []Message

	subs    map[int]chan struct{}
	nextSub int
}

// New returns a Transcript seeded with the given messages.
func New(initial ...Message) *Transcript {
	return &Transcript{
		messages: slices.Clone(initial),
		subs:     make(map[int]chan struct{}),
	}
}

// AppendUser appends a user message and returns its index.
func (t *Transcript) AppendUser(text string) int {
	return t.append(llm.RoleUser, text)
}

// AppendAssistant appends a complete assistant message and returns its
// index.
func (t *Transcript) AppendAssistant(text string) int {
	return t.append(llm.RoleAssistant, text)
}

// BeginPlaceholder appends an empty assistant message to be filled by
// AppendDelta and returns its index. Keeping at most one placeholder open
// is the caller's job.
func (t *Transcript) BeginPlaceholder() int {
	return t.append(llm.RoleAssistant, "")
}

func (t *Transcript) append(role llm.Role, text string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = append(t.messages, llm.NewTextMessage(role, text))
	t.notifyLocked()

	return len(t.messages) - 1
}

// AppendDelta concatenates text onto the content of the message at index.
func (t *Transcript) AppendDelta(index int, text string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.messages) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(t.messages))
	}

	if text == "" {
		return nil
	}

	t.messages[index].Content += text
	t.notifyLocked()

	return nil
}

// Remove deletes the message at index. It exists to roll back a placeholder
// after a failed stream, so in practice index is always the last one.
func (t *Transcript) Remove(index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index < 0 || index >= len(t.messages) {
		return fmt.Errorf("%w: %d (len %d)", ErrIndexOutOfRange, index, len(t.messages))
	}

	t.messages = slices.Delete(t.messages, index, index+1)
	t.notifyLocked()

	return nil
}

// Replace swaps the whole message list, e.g. after loading the history the
// server keeps for the user.
func (t *Transcript) Replace(messages []Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.messages = slices.Clone(messages)
	t.notifyLocked()
}

// Snapshot returns a copy of the current messages. The copy never changes
// after it is returned.
func (t *Transcript) Snapshot() []Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return slices.Clone(t.messages)
}

// Len returns the number of messages.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return len(t.messages)
}

// Subscribe registers for change notifications. The returned channel
// receives a value after one or more changes; notifications coalesce, so
// observers should Snapshot on every receive. The cancel func unregisters
// and closes the channel.
func (t *Transcript) Subscribe() (<-chan struct{}, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextSub
	t.nextSub++

	ch := make(chan struct{}, 1)
	t.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()

			delete(t.subs, id)
			close(ch)
		})
	}

	return ch, cancel
}

// notifyLocked signals every subscriber without blocking. t.mu must be held.
func (t *Transcript) notifyLocked() {
	for _, ch := range t.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
