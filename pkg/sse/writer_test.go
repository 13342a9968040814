package sse

import (
	"bytes"
	"errors"
	"io"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

var _ = Describe("Writer", func() {
	It("encodes type, id and data", func() {
		Expect(Encode(Event{Type: EventDone, ID: "r1", Data: "r1"})).To(Equal("event: done\nid: r1\ndata: r1\n\n"))
	})

	It("splits multi-line data across data fields", func() {
		Expect(Encode(Event{Type: EventText, Data: "a\n\nb\n"})).To(Equal("event: text\ndata: a\ndata: \ndata: b\ndata: \n\n"))
	})

	It("folds carriage returns into line feeds", func() {
		Expect(Encode(Event{Data: "a\r\nb\rc"})).To(Equal("data: a\ndata: b\ndata: c\n\n"))
	})

	It("round-trips through the TeeReader", func() {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		frames := []Event{
			{Type: EventText, Data: "Hello, "},
			{Type: EventText, Data: "\nworld!\n"},
			{Type: EventMeta, Data: `{"id":7}`},
			{Type: EventDone, ID: "r1", Data: "r1"},
		}
		for _, ev := range frames {
			Expect(w.WriteEvent(ev)).To(Succeed())
		}

		r := NewTeeReader(&buf, io.Discard)
		for _, want := range frames {
			got, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(*got).To(Equal(want))
		}

		last, err := r.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(last).To(BeNil())
	})

	Describe("text frames", func() {
		It("keep carriage returns byte for byte", func() {
			text := "line1\r\nline2\rline3\n\n  indented\r"

			r := NewTeeReader(strings.NewReader(Encode(TextEvent([]byte(text)))), nil)
			ev, err := r.Next()
			Expect(err).NotTo(HaveOccurred())
			Expect(ev.Type).To(Equal(EventText))
			Expect(ev.Data).NotTo(ContainSubstring("\r"))

			got, err := ev.Text()
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(text))
		})

		It("stay on a single data line", func() {
			Expect(Encode(TextEvent([]byte("a\nb")))).To(Equal("event: text\ndata: \"a\\nb\"\n\n"))
		})

		It("reject a payload that is not a JSON string", func() {
			_, err := Event{Type: EventText, Data: "raw"}.Text()
			Expect(err).To(MatchError(ContainSubstring("decoding text frame")))
		})
	})

	It("surfaces destination errors", func() {
		w := NewWriter(failingWriter{})
		Expect(w.WriteEvent(Event{Data: "x"})).To(MatchError("closed"))
	})
})
