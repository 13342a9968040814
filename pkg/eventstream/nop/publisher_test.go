package nop_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnes-center/fair/pkg/eventstream"
	"github.com/burnes-center/fair/pkg/eventstream/nop"
)

var _ = Describe("Publisher", func() {
	It("creates a non-nil publisher", func() {
		p := nop.NewPublisher()
		Expect(p).NotTo(BeNil())
	})

	It("returns ErrNilRelayEvent for nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishRelay(context.Background(), nil)
		Expect(err).To(MatchError(eventstream.ErrNilRelayEvent))
	})

	It("succeeds for non-nil events", func() {
		p := nop.NewPublisher()
		err := p.PublishRelay(context.Background(), &eventstream.RelayCompletedEvent{})
		Expect(err).NotTo(HaveOccurred())
	})

	It("closes successfully", func() {
		p := nop.NewPublisher()
		Expect(p.Close()).To(Succeed())
	})
})
