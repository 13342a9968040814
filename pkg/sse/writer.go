package sse

import (
	"io"
	"strings"
)

// Writer encodes events onto an underlying io.Writer. Each event is written
// with a single Write call so a pipe-backed destination sees whole frames.
type Writer struct {
	dest io.Writer
}

// NewWriter returns a Writer that encodes events to dest.
func NewWriter(dest io.Writer) *Writer {
	return &Writer{dest: dest}
}

// WriteEvent encodes ev. Data containing newlines is split across multiple
// "data:" lines; "\r\n" and lone "\r" are folded to "\n" because SSE treats
// all three as line breaks. Use TextEvent for payloads that must survive
// byte for byte.
func (w *Writer) WriteEvent(ev Event) error {
	_, err := io.WriteString(w.dest, Encode(ev))
	return err
}

// Encode returns the wire form of ev, terminated by a blank line.
func Encode(ev Event) string {
	var b strings.Builder

	if ev.Type != "" {
		b.WriteString("event: ")
		b.WriteString(ev.Type)
		b.WriteByte('\n')
	}
	if ev.ID != "" {
		b.WriteString("id: ")
		b.WriteString(ev.ID)
		b.WriteByte('\n')
	}

	data := strings.ReplaceAll(ev.Data, "\r\n", "\n")
	data = strings.ReplaceAll(data, "\r", "\n")
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	return b.String()
}
