// Package redis publishes relay events to a Redis stream with XADD.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/burnes-center/fair/pkg/eventstream"
)

// Config configures the Redis streams publisher.
type Config struct {
	Addr   string
	Stream string

	// MaxLen approximately trims the stream on every add. Zero keeps
	// everything.
	MaxLen int64
}

type streamClient interface {
	XAdd(ctx context.Context, a *goredis.XAddArgs) *goredis.StringCmd
	Close() error
}

// Publisher is an eventstream.Publisher backed by a Redis stream.
type Publisher struct {
	client streamClient
	stream string
	maxLen int64
}

// NewPublisher creates a Redis streams publisher.
func NewPublisher(c Config) (*Publisher, error) {
	if c.Addr == "" {
		return nil, errors.New("redis publisher requires an address")
	}
	if c.Stream == "" {
		return nil, errors.New("redis publisher requires a stream name")
	}

	client := goredis.NewClient(&goredis.Options{Addr: c.Addr})
	return &Publisher{client: client, stream: c.Stream, maxLen: c.MaxLen}, nil
}

// PublishRelay appends the event to the stream.
func (p *Publisher) PublishRelay(ctx context.Context, event *eventstream.RelayCompletedEvent) error {
	if event == nil {
		return eventstream.ErrNilRelayEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling relay event: %w", err)
	}

	args := &goredis.XAddArgs{
		Stream: p.stream,
		Values: map[string]any{
			"event_type": event.EventType,
			"event_id":   event.EventID,
			"relay_id":   event.Relay.ID,
			"payload":    string(payload),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	if err := p.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("publishing to redis stream %s: %w", p.stream, err)
	}

	return nil
}

// Close closes the Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
