package relay_test

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnes-center/fair/pkg/relay"
)

func visible(segs []relay.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.Write(s.Text)
	}
	return b.String()
}

var _ = Describe("Scanner", func() {
	It("holds back a possible token prefix until it is decided", func() {
		s := relay.NewScanner(0)

		Expect(visible(s.Feed([]byte("abc[SESS")))).To(Equal("abc"))
		Expect(visible(s.Feed([]byte("ION")))).To(BeEmpty())
		Expect(visible(s.Feed([]byte(" is over")))).To(Equal("[SESSION is over"))
		Expect(s.Flush()).To(BeEmpty())
	})

	It("gives up on a marker that outgrows the cap", func() {
		s := relay.NewScanner(32)

		out := visible(s.Feed([]byte(`[SESSION_META::{"id":1,"messages":["`)))
		out += visible(s.Feed([]byte(strings.Repeat("x", 64))))
		out += visible(s.Flush())

		Expect(out).To(Equal(`[SESSION_META::{"id":1,"messages":["` + strings.Repeat("x", 64)))
		Expect(s.Malformed()).To(Equal(1))
	})

	It("treats a payload without an id as malformed", func() {
		s := relay.NewScanner(0)

		segs := append(s.Feed([]byte(`[SESSION_META::{"chat_id":3}]`)), s.Flush()...)

		Expect(visible(segs)).To(Equal(`[SESSION_META::{"chat_id":3}]`))
		Expect(s.Malformed()).To(Equal(1))
	})

	It("treats a non-object payload as malformed", func() {
		s := relay.NewScanner(0)

		segs := append(s.Feed([]byte("SESSION_META:: nothing here")), s.Flush()...)

		Expect(visible(segs)).To(Equal("SESSION_META:: nothing here"))
	})

	It("emits the meta segment between the surrounding text", func() {
		s := relay.NewScanner(0)

		segs := append(s.Feed([]byte(`one[SESSION_META::{"id":5}]two`)), s.Flush()...)

		Expect(segs).To(HaveLen(3))
		Expect(string(segs[0].Text)).To(Equal("one"))
		Expect(segs[1].Meta).NotTo(BeNil())
		Expect(segs[1].Meta.SessionID).To(Equal(int64(5)))
		Expect(string(segs[2].Text)).To(Equal("two"))
	})
})
