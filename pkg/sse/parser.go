package sse

import (
	"encoding/json"
	"strings"

	"github.com/papercomputeco/streamchat/pkg/llm"
)

const (
	// DataPrefix marks the lines that carry event payloads.
	DataPrefix = "data:"

	// DoneSentinel is the payload that ends the stream.
	DoneSentinel = "[DONE]"
)

// Parse turns one complete line into an Event. It returns nil for lines that
// carry nothing to act on: blank keep-alive lines, comments, non-data fields
// and payloads without content or a finished flag.
//
// A data line whose payload is empty or the [DONE] sentinel yields a
// KindFinished event. A payload that is not a JSON object yields a
// KindMalformed event rather than an error, so a single bad line never ends
// the stream.
func Parse(line string) *Event {
	line = strings.TrimSpace(line)

	payload, ok := strings.CutPrefix(line, DataPrefix)
	if !ok {
		return nil
	}

	payload = strings.TrimSpace(payload)
	if payload == "" || payload == DoneSentinel {
		return &Event{Kind: KindFinished}
	}

	var p llm.StreamPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return &Event{
			Kind: KindMalformed,
			Raw:  payload,
			Err:  err,
		}
	}

	switch {
	case p.Error != "":
		return &Event{
			Kind:        KindFinished,
			Model:       p.Model,
			ServerError: p.Error,
		}

	case p.Content != nil:
		return &Event{
			Kind:  KindDelta,
			Text:  *p.Content,
			Final: p.Finished,
			Model: p.Model,
		}

	case p.Finished:
		return &Event{
			Kind:  KindFinished,
			Model: p.Model,
		}
	}

	return nil
}
