package storage

import (
	"time"

	"github.com/burnes-center/fair/pkg/relay"
)

// Endpoints that produce relay records.
const (
	EndpointSummarize = "summarize"
	EndpointRevise    = "revise"
	EndpointChat      = "chat"
)

// Record is the persisted outcome of one relay session.
type Record struct {
	ID        string `json:"id"`
	Endpoint  string `json:"endpoint"`
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	State string `json:"state"`
	Error string `json:"error,omitempty"`

	BytesIn   int64 `json:"bytes_in"`
	BytesOut  int64 `json:"bytes_out"`
	Chunks    int   `json:"chunks"`
	Markers   int   `json:"markers"`
	Malformed int   `json:"malformed"`

	// Meta is the last metadata marker extracted from the stream, if any.
	Meta *relay.Meta `json:"meta,omitempty"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	SessionID string
	Endpoint  string

	// Limit caps the number of returned records. Zero means no limit.
	Limit int
}

// Match reports whether rec passes the filter's predicates. Limit is not
// considered.
func (f Filter) Match(rec *Record) bool {
	if f.SessionID != "" && rec.SessionID != f.SessionID {
		return false
	}
	if f.Endpoint != "" && rec.Endpoint != f.Endpoint {
		return false
	}
	return true
}
