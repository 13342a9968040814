package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"unicode/utf8"

	"github.com/burnes-center/fair/pkg/llm"
)

const (
	// markerToken introduces an in-band session metadata payload. The
	// canonical form wraps it in brackets, "[SESSION_META::{...}]"; the bare
	// "SESSION_META::{...}" trailer is accepted too.
	markerToken = "SESSION_META::"

	bracketedToken = "[" + markerToken

	// DefaultMaxMarkerBytes caps how much text a marker candidate may hold
	// back before it is given up on and forwarded literally.
	DefaultMaxMarkerBytes = 1 << 20
)

var errMalformedMeta = errors.New("malformed session metadata")

// Meta is the structured payload carried by a metadata marker.
type Meta struct {
	SessionID int64         `json:"id"`
	ChatID    int64         `json:"chat_id"`
	Messages  []llm.Message `json:"messages"`
}

// Segment is one ordered unit of scanner output: either visible text or an
// extracted Meta, never both.
type Segment struct {
	Text []byte
	Meta *Meta
}

// Scanner separates metadata markers from visible text in a chunked byte
// stream. It keeps a trailing window across Feed calls so markers split at
// any byte offset are still matched, and it never emits a partial UTF-8
// sequence except at Flush.
type Scanner struct {
	buf       []byte
	maxMarker int
	malformed int
}

// NewScanner returns a Scanner. maxMarkerBytes <= 0 selects
// DefaultMaxMarkerBytes.
func NewScanner(maxMarkerBytes int) *Scanner {
	if maxMarkerBytes <= 0 {
		maxMarkerBytes = DefaultMaxMarkerBytes
	}
	return &Scanner{maxMarker: maxMarkerBytes}
}

// Feed consumes the next chunk and returns every segment that is now safe
// to forward.
func (s *Scanner) Feed(chunk []byte) []Segment {
	s.buf = append(s.buf, chunk...)
	return s.scan(false)
}

// Flush releases everything still held back. Incomplete markers are
// returned as literal text.
func (s *Scanner) Flush() []Segment {
	return s.scan(true)
}

// Malformed reports how many marker candidates were forwarded literally
// because their payload did not parse.
func (s *Scanner) Malformed() int {
	return s.malformed
}

func (s *Scanner) scan(final bool) []Segment {
	var out []Segment

	for len(s.buf) > 0 {
		idx := bytes.Index(s.buf, []byte(markerToken))
		if idx < 0 {
			n := len(s.buf)
			if !final {
				n -= partialTokenSuffix(s.buf)
				n = completeRunes(s.buf[:n])
			}
			out = s.emitText(out, n)
			return out
		}

		start := idx
		bracketed := idx > 0 && s.buf[idx-1] == '['
		if bracketed {
			start--
		}
		if start > 0 {
			out = s.emitText(out, start)
			continue
		}

		// s.buf now begins with a marker candidate
		bodyStart := len(markerToken)
		if bracketed {
			bodyStart++
		}

		end, status := matchObject(s.buf[bodyStart:])
		switch status {
		case objectInvalid:
			s.malformed++
			out = s.emitText(out, bodyStart)
			continue

		case objectIncomplete:
			if final {
				s.malformed++
				out = s.emitText(out, len(s.buf))
				return out
			}
			if len(s.buf) > s.maxMarker {
				s.malformed++
				out = s.emitText(out, bodyStart)
				continue
			}
			return out
		}

		objEnd := bodyStart + end
		markerEnd := objEnd
		if bracketed {
			if objEnd >= len(s.buf) {
				if !final {
					return out
				}
				s.malformed++
				out = s.emitText(out, len(s.buf))
				return out
			}
			if s.buf[objEnd] != ']' {
				s.malformed++
				out = s.emitText(out, bodyStart)
				continue
			}
			markerEnd++
		}

		meta, err := decodeMeta(s.buf[bodyStart:objEnd])
		if err != nil {
			s.malformed++
			out = s.emitText(out, markerEnd)
			continue
		}

		out = append(out, Segment{Meta: meta})
		s.consume(markerEnd)
	}

	return out
}

// emitText moves the first n buffered bytes into a text segment.
func (s *Scanner) emitText(out []Segment, n int) []Segment {
	if n <= 0 {
		return out
	}
	text := make([]byte, n)
	copy(text, s.buf[:n])
	s.consume(n)

	// merge adjacent text so callers see one write per scan where possible
	if len(out) > 0 && out[len(out)-1].Meta == nil {
		out[len(out)-1].Text = append(out[len(out)-1].Text, text...)
		return out
	}
	return append(out, Segment{Text: text})
}

func (s *Scanner) consume(n int) {
	s.buf = s.buf[:copy(s.buf, s.buf[n:])]
}

// partialTokenSuffix returns the length of the longest suffix of b that
// could still grow into a marker token.
func partialTokenSuffix(b []byte) int {
	longest := min(len(b), len(bracketedToken)-1)
	for k := longest; k > 0; k-- {
		suffix := b[len(b)-k:]
		if bytes.HasPrefix([]byte(bracketedToken), suffix) || bytes.HasPrefix([]byte(markerToken), suffix) {
			return k
		}
	}
	return 0
}

// completeRunes returns the length of the longest prefix of b that does not
// end in the middle of a UTF-8 sequence.
func completeRunes(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if utf8.RuneStart(b[i]) {
			if utf8.FullRune(b[i:]) {
				return len(b)
			}
			return i
		}
	}
	return len(b)
}

type objectStatus int

const (
	objectComplete objectStatus = iota
	objectIncomplete
	objectInvalid
)

// matchObject finds the end of the single-line JSON object at the start of
// b (after optional blanks). It tracks nesting and string escapes only; full
// validation is left to encoding/json.
func matchObject(b []byte) (int, objectStatus) {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	if i == len(b) {
		return 0, objectIncomplete
	}
	if b[i] != '{' {
		return 0, objectInvalid
	}

	depth := 0
	inString, escaped := false, false
	for ; i < len(b); i++ {
		c := b[i]
		if c == '\n' || c == '\r' {
			return 0, objectInvalid
		}

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1, objectComplete
			}
		}
	}

	return 0, objectIncomplete
}

func decodeMeta(payload []byte) (*Meta, error) {
	var wire struct {
		ID       *int64        `json:"id"`
		ChatID   int64         `json:"chat_id"`
		Messages []llm.Message `json:"messages"`
	}
	if err := json.Unmarshal(payload, &wire); err != nil {
		return nil, err
	}
	if wire.ID == nil {
		return nil, errMalformedMeta
	}

	return &Meta{
		SessionID: *wire.ID,
		ChatID:    wire.ChatID,
		Messages:  wire.Messages,
	}, nil
}
