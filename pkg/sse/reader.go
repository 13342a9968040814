package sse

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strings"
)

// maxLineSize bounds a single SSE line. Meta frames carry the full message
// history of a chat on one line.
const maxLineSize = 4 * 1024 * 1024

// ErrLineTooLong is returned by Next when a single line exceeds the reader's
// line limit.
var ErrLineTooLong = errors.New("sse: line too long")

// TeeReader parses events out of a stream and copies every byte it consumes,
// unmodified, to dest. The fair client passes io.Discard; a debugging caller
// can pass a file to capture the wire bytes of a relay.
//
// Lines end in LF or CRLF.
type TeeReader struct {
	src     *bufio.Reader
	dest    io.Writer
	maxLine int

	ev      Event
	data    []string
	pending bool
}

// NewTeeReader returns a TeeReader reading from src. A nil dest discards the
// copy.
func NewTeeReader(src io.Reader, dest io.Writer) *TeeReader {
	if dest == nil {
		dest = io.Discard
	}
	return &TeeReader{
		src:     bufio.NewReaderSize(src, 64*1024),
		dest:    dest,
		maxLine: maxLineSize,
	}
}

// Next blocks until a complete event has been read and returns it. An event
// still open when the source ends is returned as if it had been terminated.
// Next returns nil, nil once the source is exhausted.
func (r *TeeReader) Next() (*Event, error) {
	for {
		line, err := r.readLine()
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		eof := err != nil

		if line != "" {
			r.field(line)
		} else if !eof && r.pending {
			return r.take(), nil
		}

		if eof {
			if r.pending {
				return r.take(), nil
			}
			return nil, nil
		}
	}
}

// readLine returns the next line without its terminator. The raw bytes,
// terminator included, are written to dest first. At the end of the source
// it returns the unterminated remainder (possibly empty) with io.EOF.
func (r *TeeReader) readLine() (string, error) {
	var buf []byte
	for {
		chunk, err := r.src.ReadSlice('\n')
		if len(chunk) > 0 {
			if _, werr := r.dest.Write(chunk); werr != nil {
				return "", werr
			}
			if len(buf)+len(chunk) > r.maxLine {
				return "", ErrLineTooLong
			}
			buf = append(buf, chunk...)
		}

		switch {
		case err == nil:
			buf = bytes.TrimSuffix(buf[:len(buf)-1], []byte{'\r'})
			return string(buf), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		default:
			return string(bytes.TrimSuffix(buf, []byte{'\r'})), err
		}
	}
}

// field applies one non-blank line to the event being built. Comment lines
// start with ':'; a line without a colon is a field with an empty value.
func (r *TeeReader) field(line string) {
	if strings.HasPrefix(line, ":") {
		return
	}

	name, value, _ := strings.Cut(line, ":")
	value = strings.TrimPrefix(value, " ")

	switch name {
	case "data":
		r.data = append(r.data, value)
	case "event":
		r.ev.Type = value
	case "id":
		r.ev.ID = value
	default:
		// retry and unknown fields; the gateway never sends them
		return
	}
	r.pending = true
}

func (r *TeeReader) take() *Event {
	ev := r.ev
	ev.Data = strings.Join(r.data, "\n")

	r.ev = Event{}
	r.data = r.data[:0]
	r.pending = false

	return &ev
}
