package cliui

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"github.com/papercomputeco/streamchat/pkg/llm"
	"github.com/papercomputeco/streamchat/pkg/transcript"
)

// StreamPrinter follows a transcript and writes assistant text to w as it
// arrives. Only messages appended after the printer was created are
// followed. A message that disappears or changes under it (a rolled back
// placeholder) ends the current line and printing restarts with whatever
// takes its place. Terminal escape sequences sent by the server are not
// passed through.
type StreamPrinter struct {
	w      io.Writer
	t      *transcript.Transcript
	prefix string

	mu    sync.Mutex
	from  int
	index int
	seen  string
}

// NewStreamPrinter creates a printer for t. prefix is written before the
// first text of every assistant message.
func NewStreamPrinter(w io.Writer, t *transcript.Transcript, prefix string) *StreamPrinter {
	return &StreamPrinter{
		w:      w,
		t:      t,
		prefix: prefix,
		from:   t.Len(),
		index:  -1,
	}
}

// Run prints on every transcript change until ctx is done, then syncs one
// last time.
func (p *StreamPrinter) Run(ctx context.Context) {
	changes, cancel := p.t.Subscribe()
	defer cancel()

	p.Sync()
	for {
		select {
		case <-ctx.Done():
			p.Sync()
			return
		case <-changes:
			p.Sync()
		}
	}
}

// Sync writes whatever text arrived since the last call.
func (p *StreamPrinter) Sync() {
	p.mu.Lock()
	defer p.mu.Unlock()

	snap := p.t.Snapshot()

	if p.index >= 0 {
		if p.index >= len(snap) || snap[p.index].Role != llm.RoleAssistant ||
			!strings.HasPrefix(ansi.Strip(snap[p.index].Content), p.seen) {
			p.endLineLocked()
		}
	}

	target := -1
	for i := len(snap) - 1; i >= p.from; i-- {
		if snap[i].Role == llm.RoleAssistant {
			target = i
			break
		}
	}
	if target < 0 {
		return
	}

	if target != p.index {
		p.endLineLocked()
		p.index = target
	}

	content := ansi.Strip(snap[target].Content)
	delta := content[len(p.seen):]
	if delta == "" {
		return
	}

	if p.seen == "" && p.prefix != "" {
		_, _ = io.WriteString(p.w, p.prefix)
	}
	_, _ = io.WriteString(p.w, delta)
	p.seen = content
}

// Finish ends the current line, if any, and stops following the messages
// seen so far. Call it once the reply is complete.
func (p *StreamPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.endLineLocked()
	p.from = p.t.Len()
	p.index = -1
}

func (p *StreamPrinter) endLineLocked() {
	if p.seen != "" {
		_, _ = io.WriteString(p.w, "\n")
	}
	p.seen = ""
}
