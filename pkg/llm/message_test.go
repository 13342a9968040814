package llm_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/burnes-center/fair/pkg/llm"
)

var _ = Describe("Message", func() {
	decode := func(raw string) llm.Message {
		var m llm.Message
		Expect(json.Unmarshal([]byte(raw), &m)).To(Succeed())
		return m
	}

	Describe("ParseRole", func() {
		It("maps known roles", func() {
			Expect(llm.ParseRole("user")).To(Equal(llm.RoleUser))
			Expect(llm.ParseRole("Assistant")).To(Equal(llm.RoleAssistant))
			Expect(llm.ParseRole(" system ")).To(Equal(llm.RoleSystem))
		})

		It("maps everything else to unknown", func() {
			Expect(llm.ParseRole("tool")).To(Equal(llm.RoleUnknown))
			Expect(llm.ParseRole("")).To(Equal(llm.RoleUnknown))
		})
	})

	Describe("UnmarshalJSON", func() {
		It("keeps structured messages", func() {
			m := decode(`{"role":"assistant","content":"The interviewee said..."}`)
			Expect(m).To(Equal(llm.NewTextMessage(llm.RoleAssistant, "The interviewee said...")))
		})

		It("converts legacy user strings", func() {
			m := decode(`"You:   what happened next?"`)
			Expect(m.Role).To(Equal(llm.RoleUser))
			Expect(m.Content).To(Equal("what happened next?"))
		})

		It("converts legacy assistant strings", func() {
			m := decode(`"Assistant: they left at noon"`)
			Expect(m.Role).To(Equal(llm.RoleAssistant))
			Expect(m.Content).To(Equal("they left at noon"))
		})

		It("tags unprefixed strings as unknown", func() {
			m := decode(`"just text"`)
			Expect(m.Role).To(Equal(llm.RoleUnknown))
			Expect(m.Content).To(Equal("just text"))
		})

		It("keeps objects without content as unknown JSON text", func() {
			m := decode(`{"role":"user"}`)
			Expect(m.Role).To(Equal(llm.RoleUnknown))
			Expect(m.Content).To(Equal(`{"role":"user"}`))
		})

		It("turns null into empty unknown content", func() {
			m := decode(`null`)
			Expect(m.Role).To(Equal(llm.RoleUnknown))
			Expect(m.Content).To(BeEmpty())
		})

		It("stringifies numbers", func() {
			m := decode(`42`)
			Expect(m.Role).To(Equal(llm.RoleUnknown))
			Expect(m.Content).To(Equal("42"))
		})
	})

	Describe("NormalizeMessages", func() {
		It("rewrites mixed message arrays and keeps other fields", func() {
			body := []byte(`{"chat_id":3,"name":"default","messages":["You: hi","Assistant: hello",{"role":"user","content":"next"},7]}`)

			out, err := llm.NormalizeMessages(body)
			Expect(err).NotTo(HaveOccurred())

			var got struct {
				ChatID   int           `json:"chat_id"`
				Name     string        `json:"name"`
				Messages []llm.Message `json:"messages"`
			}
			Expect(json.Unmarshal(out, &got)).To(Succeed())
			Expect(got.ChatID).To(Equal(3))
			Expect(got.Name).To(Equal("default"))
			Expect(got.Messages).To(Equal([]llm.Message{
				{Role: llm.RoleUser, Content: "hi"},
				{Role: llm.RoleAssistant, Content: "hello"},
				{Role: llm.RoleUser, Content: "next"},
				{Role: llm.RoleUnknown, Content: "7"},
			}))
		})

		It("returns bodies without messages unchanged", func() {
			body := []byte(`{"chat_id":3}`)
			out, err := llm.NormalizeMessages(body)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(body))
		})

		It("errors on non-object bodies", func() {
			_, err := llm.NormalizeMessages([]byte(`[1,2]`))
			Expect(err).To(HaveOccurred())
		})
	})
})
