package redis_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	goredis "github.com/redis/go-redis/v9"

	"github.com/burnes-center/fair/pkg/eventstream"
	"github.com/burnes-center/fair/pkg/eventstream/redis"
	"github.com/burnes-center/fair/pkg/storage"
)

type fakeClient struct {
	adds   []*goredis.XAddArgs
	err    error
	closed bool
}

func (c *fakeClient) XAdd(_ context.Context, a *goredis.XAddArgs) *goredis.StringCmd {
	if c.err != nil {
		return goredis.NewStringResult("", c.err)
	}
	c.adds = append(c.adds, a)
	return goredis.NewStringResult("1-0", nil)
}

func (c *fakeClient) Close() error {
	c.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		c     *fakeClient
		event *eventstream.RelayCompletedEvent
	)

	BeforeEach(func() {
		c = &fakeClient{}
		event = eventstream.NewRelayCompletedEvent(&storage.Record{ID: "r1"}, eventstream.EventSource{})
	})

	It("requires an address and a stream", func() {
		_, err := redis.NewPublisher(redis.Config{Stream: "s"})
		Expect(err).To(HaveOccurred())

		_, err = redis.NewPublisher(redis.Config{Addr: "localhost:6379"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects nil events", func() {
		pub := redis.NewPublisherWithClient(c, "fair:relays", 0)
		Expect(pub.PublishRelay(context.Background(), nil)).To(MatchError(eventstream.ErrNilRelayEvent))
	})

	It("adds the event to the stream", func() {
		pub := redis.NewPublisherWithClient(c, "fair:relays", 0)

		Expect(pub.PublishRelay(context.Background(), event)).To(Succeed())
		Expect(c.adds).To(HaveLen(1))
		Expect(c.adds[0].Stream).To(Equal("fair:relays"))
		Expect(c.adds[0].MaxLen).To(BeZero())

		values, ok := c.adds[0].Values.(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(values).To(HaveKeyWithValue("relay_id", "r1"))
		Expect(values).To(HaveKeyWithValue("event_type", eventstream.EventTypeRelayCompleted))
		Expect(values["payload"]).To(ContainSubstring(`"event_id":"` + event.EventID + `"`))
	})

	It("trims approximately when a max length is set", func() {
		pub := redis.NewPublisherWithClient(c, "fair:relays", 1000)

		Expect(pub.PublishRelay(context.Background(), event)).To(Succeed())
		Expect(c.adds[0].MaxLen).To(Equal(int64(1000)))
		Expect(c.adds[0].Approx).To(BeTrue())
	})

	It("wraps client failures", func() {
		c.err = errors.New("connection refused")
		pub := redis.NewPublisherWithClient(c, "fair:relays", 0)

		err := pub.PublishRelay(context.Background(), event)
		Expect(errors.Is(err, c.err)).To(BeTrue())
	})

	It("closes the client", func() {
		pub := redis.NewPublisherWithClient(c, "fair:relays", 0)
		Expect(pub.Close()).To(Succeed())
		Expect(c.closed).To(BeTrue())
	})
})
