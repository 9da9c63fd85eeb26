package testutils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/papercomputeco/streamchat/pkg/llm"
)

// DeltaLine returns the stream line for a content delta, terminated by the
// blank line the server puts between events.
func DeltaLine(content string) string {
	data, _ := json.Marshal(llm.StreamPayload{Content: &content})
	return fmt.Sprintf("data: %s\n\n", data)
}

// DoneLine is the stream line carrying the end-of-stream sentinel.
const DoneLine = "data: [DONE]\n\n"

// StreamOf joins delta lines for each content, optionally followed by the
// sentinel.
func StreamOf(done bool, contents ...string) string {
	var b strings.Builder
	for _, c := range contents {
		b.WriteString(DeltaLine(c))
	}
	if done {
		b.WriteString(DoneLine)
	}
	return b.String()
}

// SplitEvery partitions raw into chunks of n bytes (the last may be
// shorter).
func SplitEvery(raw []byte, n int) [][]byte {
	var chunks [][]byte
	for len(raw) > n {
		chunks = append(chunks, raw[:n])
		raw = raw[n:]
	}
	return append(chunks, raw)
}

// ChunkedBody is an io.ReadCloser that returns one predefined chunk per
// Read, like a network stream delivering packets. After the last chunk it
// returns Err (io.EOF when nil), or blocks until closed when Hang is set.
type ChunkedBody struct {
	Chunks [][]byte
	Err    error
	Hang   bool

	mu     sync.Mutex
	next   int
	closed chan struct{}
	once   sync.Once
}

// NewChunkedBody returns a body that yields chunks in order.
func NewChunkedBody(chunks ...[]byte) *ChunkedBody {
	return &ChunkedBody{
		Chunks: chunks,
		closed: make(chan struct{}),
	}
}

var errBodyClosed = errors.New("read on closed body")

func (b *ChunkedBody) Read(p []byte) (int, error) {
	b.mu.Lock()

	select {
	case <-b.closed:
		b.mu.Unlock()
		return 0, errBodyClosed
	default:
	}

	if b.next < len(b.Chunks) {
		chunk := b.Chunks[b.next]
		n := copy(p, chunk)
		if n < len(chunk) {
			b.Chunks[b.next] = chunk[n:]
		} else {
			b.next++
		}
		b.mu.Unlock()
		return n, nil
	}
	b.mu.Unlock()

	if b.Hang {
		<-b.closed
		return 0, errBodyClosed
	}

	if b.Err != nil {
		return 0, b.Err
	}
	return 0, io.EOF
}

// Close unblocks a hanging Read. It is safe to call more than once.
func (b *ChunkedBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

// Closed reports whether Close was called.
func (b *ChunkedBody) Closed() bool {
	select {
	case <-b.closed:
		return true
	default:
		return false
	}
}

// Remaining reports how many chunks were never read.
func (b *ChunkedBody) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.Chunks) - b.next
}

// MockOpener hands out a fixed body (or error) for every OpenStream call
// and records the requests.
type MockOpener struct {
	Body io.ReadCloser
	Err  error

	mu       sync.Mutex
	Requests []*llm.ChatRequest
}

func (m *MockOpener) OpenStream(_ context.Context, req *llm.ChatRequest) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Body, nil
}
