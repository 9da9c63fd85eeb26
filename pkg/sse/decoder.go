package sse

import (
	"errors"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const defaultDecodeBufSize = 4096

// Decoder converts raw response chunks into text. It is stateful: a
// multi-byte UTF-8 sequence split across two chunks is held back after the
// first call and emitted whole once the rest arrives. Invalid sequences are
// replaced with U+FFFD rather than reported.
type Decoder struct {
	t transform.Transformer

	// pending holds the incomplete trailing sequence of the previous chunk.
	pending []byte
	dst     []byte
}

// NewDecoder returns a Decoder for UTF-8 encoded streams.
func NewDecoder() *Decoder {
	return &Decoder{
		t:   unicode.UTF8.NewDecoder(),
		dst: make([]byte, defaultDecodeBufSize),
	}
}

// Decode returns the text decoded from chunk, prefixed by whatever sequence
// was held back from the previous call. When final is true nothing is held
// back: an incomplete tail is decoded as U+FFFD and the decoder is reset
// for reuse.
func (d *Decoder) Decode(chunk []byte, final bool) (string, error) {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
		d.pending = nil
	}

	var out strings.Builder
	out.Grow(len(src))

	for {
		nDst, nSrc, err := d.t.Transform(d.dst, src, final)
		out.Write(d.dst[:nDst])
		src = src[nSrc:]

		switch {
		case err == nil:
			if final {
				d.t.Reset()
			}
			return out.String(), nil

		case errors.Is(err, transform.ErrShortDst):
			if nDst == 0 && nSrc == 0 {
				d.dst = make([]byte, 2*len(d.dst))
			}

		case errors.Is(err, transform.ErrShortSrc):
			// Copy: src may alias the caller's chunk buffer, which is
			// reused for the next read.
			d.pending = append([]byte(nil), src...)
			return out.String(), nil

		default:
			return out.String(), err
		}
	}
}

// Pending reports how many bytes are held back waiting for the rest of a
// multi-byte sequence.
func (d *Decoder) Pending() int {
	return len(d.pending)
}
