package cliui

import (
	"context"
	"io"

	"github.com/papercomputeco/streamchat/pkg/conversation"
	"github.com/papercomputeco/streamchat/pkg/llm"
)

// Turn sends text through conv and prints the reply to w. Streamed replies
// are printed as they arrive and are never rendered as markdown; complete
// replies are rendered once they are in when markdown is set. An error
// notice that replaces a failed reply is printed either way.
func Turn(ctx context.Context, w io.Writer, conv *conversation.Conversation, text string, markdown bool) error {
	t := conv.Transcript()

	if conv.Settings().Stream {
		p := NewStreamPrinter(w, t, AssistantPrompt+" ")

		printCtx, stop := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			p.Run(printCtx)
		}()

		err := conv.Send(ctx, text)

		stop()
		<-done
		p.Finish()

		return err
	}

	from := t.Len()
	err := conv.Send(ctx, text)

	snap := t.Snapshot()
	if from > len(snap) {
		from = len(snap)
	}

	var replies []llm.Message
	for _, m := range snap[from:] {
		if m.Role == llm.RoleAssistant {
			replies = append(replies, m)
		}
	}

	if renderErr := RenderTranscript(w, replies, markdown); renderErr != nil && err == nil {
		err = renderErr
	}

	return err
}
