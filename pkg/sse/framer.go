package sse

import "bytes"

// Framer buffers decoded text and splits it into complete newline-terminated
// lines. A trailing fragment without a newline is retained and prefixed to
// the text of the next Feed, so a line is only ever returned once it is
// complete. Between calls the buffer holds at most one partial line.
type Framer struct {
	buf []byte
}

// NewFramer returns an empty Framer.
func NewFramer() *Framer {
	return &Framer{}
}

// Feed appends text to the buffer and returns every line it completes, in
// stream order. The terminating "\n" and an optional preceding "\r" are
// stripped. Feeding text without a newline returns no lines and only grows
// the buffer.
func (f *Framer) Feed(text string) []string {
	f.buf = append(f.buf, text...)

	var lines []string
	start := 0
	for {
		idx := bytes.IndexByte(f.buf[start:], '\n')
		if idx == -1 {
			break
		}

		line := bytes.TrimSuffix(f.buf[start:start+idx], []byte{'\r'})
		lines = append(lines, string(line))
		start += idx + 1
	}

	if start > 0 {
		n := copy(f.buf, f.buf[start:])
		f.buf = f.buf[:n]
	}

	return lines
}

// Flush returns and clears the retained partial line. It is used when the
// stream physically ends without a final newline. ok is false when nothing
// was buffered.
func (f *Framer) Flush() (line string, ok bool) {
	if len(f.buf) == 0 {
		return "", false
	}

	line = string(bytes.TrimSuffix(f.buf, []byte{'\r'}))
	f.buf = f.buf[:0]
	return line, true
}

// Buffered reports the length in bytes of the retained partial line.
func (f *Framer) Buffered() int {
	return len(f.buf)
}
