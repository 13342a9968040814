// Package sse provides a minimal, purpose-built SSE (Server-Sent Events)
// codec for the fair gateway. The Writer encodes the tagged frames the
// gateway emits on its streaming endpoints (text, meta, done, error) and the
// TeeReader parses them back on the client side while optionally tee-ing the
// raw bytes elsewhere.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse

import (
	"encoding/json"
	"fmt"
)

// Event types emitted by the gateway's tagged-frame streams. Text frames
// carry a JSON string (see TextEvent); meta frames a JSON relay.Meta.
const (
	EventText  = "text"
	EventMeta  = "meta"
	EventDone  = "done"
	EventError = "error"
)

// Event represents a single parsed SSE event, delimited by a blank line
// in the upstream byte stream.
type Event struct {
	// Type is the SSE event type from the "event:" field.
	// An empty string means the default "message" type per the SSE spec.
	Type string

	// Data is the concatenated contents of all "data:" lines for this event,
	// joined with "\n" (per the SSE spec, multiple data fields are joined
	// with a single newline).
	Data string

	// ID is the last event ID from the "id:" field, if present.
	ID string
}

// TextEvent frames a chunk of visible text. The payload is a JSON string:
// SSE treats CR, LF and CRLF alike as line breaks, so raw text would come
// back with its line endings rewritten.
func TextEvent(text []byte) Event {
	data, _ := json.Marshal(string(text))
	return Event{Type: EventText, Data: string(data)}
}

// Text decodes the payload of a text event written by TextEvent.
func (e Event) Text() (string, error) {
	var s string
	if err := json.Unmarshal([]byte(e.Data), &s); err != nil {
		return "", fmt.Errorf("decoding text frame: %w", err)
	}
	return s, nil
}
