package sse

import (
	"bytes"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// drain reads every event from input.
func drain(input string) []Event {
	r := NewTeeReader(strings.NewReader(input), nil)
	var out []Event
	for {
		ev, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		if ev == nil {
			return out
		}
		out = append(out, *ev)
	}
}

var _ = Describe("TeeReader", func() {
	DescribeTable("parsing",
		func(input string, want []Event) {
			Expect(drain(input)).To(Equal(want))
		},
		Entry("a single data event", "data: hello world\n\n",
			[]Event{{Data: "hello world"}}),
		Entry("consecutive events", "data: first\n\ndata: second\n\n",
			[]Event{{Data: "first"}, {Data: "second"}}),
		Entry("type and id", "event: done\nid: r1\ndata: r1\n\n",
			[]Event{{Type: EventDone, ID: "r1", Data: "r1"}}),
		Entry("multi-line data", "data: one\ndata: two\ndata: three\n\n",
			[]Event{{Data: "one\ntwo\nthree"}}),
		Entry("a leading empty data line", "event: text\ndata: \ndata: next\n\n",
			[]Event{{Type: EventText, Data: "\nnext"}}),
		Entry("no space after the colon", "data:tight\n\n",
			[]Event{{Data: "tight"}}),
		Entry("an empty data field", "data:\n\n",
			[]Event{{Data: ""}}),
		Entry("a field without a colon", "data\n\n",
			[]Event{{Data: ""}}),
		Entry("comments", ": keep-alive\ndata: hello\n\n",
			[]Event{{Data: "hello"}}),
		Entry("unknown and retry fields", "retry: 3000\nfoo: bar\ndata: hello\n\n",
			[]Event{{Data: "hello"}}),
		Entry("CRLF line endings", "event: text\r\ndata: hi\r\n\r\n",
			[]Event{{Type: EventText, Data: "hi"}}),
		Entry("an unterminated final event", "data: unterminated",
			[]Event{{Data: "unterminated"}}),
		Entry("leading blank lines", "\n\ndata: hello\n\n",
			[]Event{{Data: "hello"}}),
		Entry("empty input", "", nil),
		Entry("blank lines only", "\n\n\n", nil),
	)

	It("parses a full relay stream in order", func() {
		input := "event: text\ndata: ## Summary\ndata: \n\n" +
			"event: meta\ndata: {\"id\":7,\"chat_id\":3,\"messages\":[]}\n\n" +
			"event: done\nid: relay-1\ndata: relay-1\n\n"

		Expect(drain(input)).To(Equal([]Event{
			{Type: EventText, Data: "## Summary\n"},
			{Type: EventMeta, Data: `{"id":7,"chat_id":3,"messages":[]}`},
			{Type: EventDone, ID: "relay-1", Data: "relay-1"},
		}))
	})

	Describe("tee", func() {
		It("copies the consumed bytes verbatim", func() {
			input := ": ping\r\nevent: meta\ndata: {\"id\":1}\n\nevent: done\ndata: r1\n\n"
			var dst bytes.Buffer
			r := NewTeeReader(strings.NewReader(input), &dst)

			for {
				ev, err := r.Next()
				Expect(err).NotTo(HaveOccurred())
				if ev == nil {
					break
				}
			}

			Expect(dst.String()).To(Equal(input))
		})

		It("copies only what has been consumed so far", func() {
			var dst bytes.Buffer
			r := NewTeeReader(strings.NewReader("data: a\n\ndata: b\n\n"), &dst)

			_, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(dst.String()).To(Equal("data: a\n\n"))
		})

		It("stops on a destination error", func() {
			r := NewTeeReader(strings.NewReader("data: a\n\n"), failingWriter{})

			_, err := r.Next()
			Expect(err).To(MatchError("closed"))
		})
	})

	It("rejects a line over the limit", func() {
		r := NewTeeReader(strings.NewReader("data: "+strings.Repeat("x", 64)+"\n\n"), nil)
		r.maxLine = 32

		_, err := r.Next()
		Expect(errors.Is(err, ErrLineTooLong)).To(BeTrue())
	})

	It("reads lines longer than its buffer", func() {
		long := strings.Repeat("y", 200*1024)
		Expect(drain("data: " + long + "\n\n")).To(Equal([]Event{{Data: long}}))
	})
})
