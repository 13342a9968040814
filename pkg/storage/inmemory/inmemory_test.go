package inmemory_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnes-center/fair/pkg/storage"
	"github.com/burnes-center/fair/pkg/storage/inmemory"
	testutils "github.com/burnes-center/fair/pkg/utils/test"
)

var _ = Describe("Driver", func() {
	testutils.DescribeDriver(func() storage.Driver {
		return inmemory.NewDriver()
	})

	It("isolates stored records from later caller mutation", func() {
		ctx := context.Background()
		d := inmemory.NewDriver()
		rec := testutils.NewTestRecord("r1", "1", time.Now())

		Expect(d.Put(ctx, rec)).To(Succeed())
		rec.State = "mutated"

		got, err := d.Get(ctx, "r1")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.State).NotTo(Equal("mutated"))
		Expect(d.Count()).To(Equal(1))
	})
})
