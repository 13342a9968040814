package notify_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnes-center/fair/pkg/notify"
)

func messages(ns []notify.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Message)
	}
	return out
}

var _ = Describe("Queue", func() {
	It("returns active notifications oldest first", func() {
		q := notify.NewQueue(5)
		q.Push(notify.KindInfo, "one", time.Minute)
		q.Push(notify.KindSuccess, "two", time.Minute)

		Expect(messages(q.Active(time.Now()))).To(Equal([]string{"one", "two"}))
	})

	It("hides expired notifications", func() {
		q := notify.NewQueue(5)
		short := q.Push(notify.KindError, "short", time.Second)
		q.Push(notify.KindInfo, "long", time.Hour)

		later := short.ExpiresAt
		Expect(messages(q.Active(later))).To(Equal([]string{"long"}))
		Expect(q.Len()).To(Equal(2))
	})

	It("prunes expired notifications", func() {
		q := notify.NewQueue(5)
		n := q.Push(notify.KindInfo, "a", time.Second)
		q.Push(notify.KindInfo, "b", time.Hour)

		Expect(q.Prune(n.ExpiresAt.Add(time.Millisecond))).To(Equal(1))
		Expect(q.Len()).To(Equal(1))
	})

	It("evicts the oldest entry when full", func() {
		q := notify.NewQueue(2)
		q.Push(notify.KindInfo, "a", time.Minute)
		q.Push(notify.KindInfo, "b", time.Minute)
		q.Push(notify.KindInfo, "c", time.Minute)

		Expect(messages(q.Active(time.Now()))).To(Equal([]string{"b", "c"}))
	})

	It("applies the default ttl", func() {
		q := notify.NewQueue(1)
		before := time.Now()
		n := q.Push(notify.KindSuccess, "saved", 0)

		Expect(n.ExpiresAt).To(BeTemporally(">=", before.Add(notify.DefaultTTL)))
	})
})
