package cliui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"github.com/papercomputeco/streamchat/pkg/llm"
)

// RenderMarkdown renders markdown content for display on w using glamour.
// Writers without color support get the plain notty style.
// On failure the content is returned unchanged along with the error.
func RenderMarkdown(w io.Writer, content string) (string, error) {
	style := glamour.WithAutoStyle()
	if termenv.NewOutput(w).EnvColorProfile() == termenv.Ascii {
		style = glamour.WithStandardStyle(styles.NoTTYStyle)
	}

	r, err := glamour.NewTermRenderer(
		style,
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content, err
	}

	rendered, err := r.Render(content)
	if err != nil {
		return content, err
	}

	return rendered, nil
}

// RenderTranscript writes msgs to w. User messages are printed as plain
// text; assistant messages are rendered as markdown when markdown is set.
// Terminal escape sequences in message content are dropped.
func RenderTranscript(w io.Writer, msgs []llm.Message, markdown bool) error {
	for _, m := range msgs {
		var err error
		switch m.Role {
		case llm.RoleUser:
			_, err = fmt.Fprintf(w, "%s %s\n", UserPrompt, ansi.Strip(m.Content))
		default:
			err = renderAssistant(w, ansi.Strip(m.Content), markdown)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func renderAssistant(w io.Writer, content string, markdown bool) error {
	if _, err := fmt.Fprintln(w, AssistantPrompt); err != nil {
		return err
	}

	if markdown {
		// Unrenderable markdown falls back to the raw text.
		content, _ = RenderMarkdown(w, content)
		content = strings.Trim(content, "\n")
	}

	_, err := fmt.Fprintf(w, "%s\n\n", content)
	return err
}
