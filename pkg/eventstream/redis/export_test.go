package redis

import (
	"context"

	goredis "github.com/redis/go-redis/v9"
)

// StreamClient exposes the client seam to the external test package.
type StreamClient interface {
	XAdd(ctx context.Context, a *goredis.XAddArgs) *goredis.StringCmd
	Close() error
}

// NewPublisherWithClient builds a Publisher around a test client.
func NewPublisherWithClient(c StreamClient, stream string, maxLen int64) *Publisher {
	return &Publisher{client: c, stream: stream, maxLen: maxLen}
}
