package testutils

import (
	"time"

	"github.com/burnes-center/fair/pkg/relay"
	"github.com/burnes-center/fair/pkg/storage"
)

// NewTestRecord creates a completed summarize record for testing
func NewTestRecord(id, sessionID string, startedAt time.Time) *storage.Record {
	return &storage.Record{
		ID:          id,
		Endpoint:    storage.EndpointSummarize,
		UserID:      "u1",
		SessionID:   sessionID,
		State:       string(relay.StateComplete),
		BytesIn:     64,
		BytesOut:    32,
		Chunks:      3,
		Markers:     1,
		StartedAt:   startedAt,
		CompletedAt: startedAt.Add(time.Second),
	}
}
