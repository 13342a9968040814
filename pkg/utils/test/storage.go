package testutils

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnes-center/fair/pkg/llm"
	"github.com/burnes-center/fair/pkg/relay"
	"github.com/burnes-center/fair/pkg/storage"
)

// DescribeDriver registers the behaviors every storage.Driver must share.
// newDriver is called before each spec; the returned driver is closed after.
func DescribeDriver(newDriver func() storage.Driver) {
	var (
		driver storage.Driver
		ctx    context.Context
		base   time.Time
	)

	BeforeEach(func() {
		ctx = context.Background()
		base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		driver = newDriver()
	})

	AfterEach(func() {
		if driver != nil {
			driver.Close()
		}
	})

	Describe("Put and Get", func() {
		It("round-trips a record with metadata", func() {
			rec := NewTestRecord("r1", "42", base)
			rec.Meta = &relay.Meta{
				SessionID: 42,
				ChatID:    7,
				Messages:  []llm.Message{llm.NewTextMessage(llm.RoleUser, "hi")},
			}

			Expect(driver.Put(ctx, rec)).To(Succeed())

			got, err := driver.Get(ctx, "r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal("r1"))
			Expect(got.Endpoint).To(Equal(storage.EndpointSummarize))
			Expect(got.SessionID).To(Equal("42"))
			Expect(got.State).To(Equal(string(relay.StateComplete)))
			Expect(got.BytesIn).To(Equal(int64(64)))
			Expect(got.Markers).To(Equal(1))
			Expect(got.Meta).To(Equal(rec.Meta))
			Expect(got.StartedAt).To(BeTemporally("~", base, time.Millisecond))
			Expect(got.CompletedAt).To(BeTemporally("~", base.Add(time.Second), time.Millisecond))
		})

		It("keeps a nil meta nil", func() {
			Expect(driver.Put(ctx, NewTestRecord("r1", "", base))).To(Succeed())

			got, err := driver.Get(ctx, "r1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Meta).To(BeNil())
		})

		It("rejects a duplicate id", func() {
			Expect(driver.Put(ctx, NewTestRecord("r1", "", base))).To(Succeed())

			err := driver.Put(ctx, NewTestRecord("r1", "", base))
			Expect(errors.Is(err, storage.ErrDuplicateRecord)).To(BeTrue())
		})

		It("rejects a nil record", func() {
			Expect(driver.Put(ctx, nil)).To(HaveOccurred())
		})

		It("returns NotFoundError for an unknown id", func() {
			_, err := driver.Get(ctx, "missing")

			var notFound storage.NotFoundError
			Expect(errors.As(err, &notFound)).To(BeTrue())
			Expect(notFound.ID).To(Equal("missing"))
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			Expect(driver.Put(ctx, NewTestRecord("a", "1", base))).To(Succeed())
			Expect(driver.Put(ctx, NewTestRecord("b", "2", base.Add(time.Minute)))).To(Succeed())

			chat := NewTestRecord("c", "1", base.Add(2*time.Minute))
			chat.Endpoint = storage.EndpointChat
			Expect(driver.Put(ctx, chat)).To(Succeed())
		})

		ids := func(recs []*storage.Record) []string {
			out := make([]string, 0, len(recs))
			for _, r := range recs {
				out = append(out, r.ID)
			}
			return out
		}

		It("returns every record newest first", func() {
			recs, err := driver.List(ctx, storage.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(recs)).To(Equal([]string{"c", "b", "a"}))
		})

		It("filters by session", func() {
			recs, err := driver.List(ctx, storage.Filter{SessionID: "1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(recs)).To(Equal([]string{"c", "a"}))
		})

		It("filters by endpoint", func() {
			recs, err := driver.List(ctx, storage.Filter{SessionID: "1", Endpoint: storage.EndpointChat})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(recs)).To(Equal([]string{"c"}))
		})

		It("applies the limit", func() {
			recs, err := driver.List(ctx, storage.Filter{Limit: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(ids(recs)).To(Equal([]string{"c", "b"}))
		})
	})
}
