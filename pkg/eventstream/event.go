package eventstream

import (
	"time"

	"github.com/google/uuid"

	"github.com/burnes-center/fair/pkg/storage"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeRelayCompleted is emitted after a relay session finishes,
	// whether it completed or aborted.
	EventTypeRelayCompleted = "fair.relay.completed"
)

// RelayCompletedEvent is a transport-neutral event payload for a finished relay.
type RelayCompletedEvent struct {
	SchemaVersion int            `json:"schema_version"`
	EventType     string         `json:"event_type"`
	EventID       string         `json:"event_id"`
	EmittedAt     time.Time      `json:"emitted_at"`
	Source        EventSource    `json:"source"`
	Relay         storage.Record `json:"relay"`
}

// EventSource identifies which gateway relayed the stream and to where.
type EventSource struct {
	Gateway  string `json:"gateway,omitempty"`
	Upstream string `json:"upstream"`
}

// NewRelayCompletedEvent wraps rec in a freshly identified event.
func NewRelayCompletedEvent(rec *storage.Record, source EventSource) *RelayCompletedEvent {
	return &RelayCompletedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeRelayCompleted,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Relay:         *rec,
	}
}
