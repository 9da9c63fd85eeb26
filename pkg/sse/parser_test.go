package sse_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/streamchat/pkg/sse"
)

var _ = Describe("Parse", func() {
	Context("with lines that carry nothing", func() {
		DescribeTable("returns nil",
			func(line string) {
				Expect(sse.Parse(line)).To(BeNil())
			},
			Entry("blank line", ""),
			Entry("whitespace", "   "),
			Entry("comment", ": keep-alive"),
			Entry("event field", "event: message"),
			Entry("id field", "id: 7"),
			Entry("no content and not finished", `data: {"model":"qwen3-max"}`),
			Entry("null payload", "data: null"),
		)
	})

	Context("with the end of stream", func() {
		DescribeTable("returns a finished event",
			func(line string) {
				ev := sse.Parse(line)
				Expect(ev).NotTo(BeNil())
				Expect(ev.Kind).To(Equal(sse.KindFinished))
				Expect(ev.ServerError).To(BeEmpty())
			},
			Entry("sentinel", "data: [DONE]"),
			Entry("sentinel without space", "data:[DONE]"),
			Entry("sentinel with padding", "  data:   [DONE]  "),
			Entry("empty payload", "data:"),
			Entry("blank payload", "data:    "),
			Entry("finished flag", `data: {"finished":true}`),
		)
	})

	Context("with content payloads", func() {
		It("returns a delta", func() {
			ev := sse.Parse(`data: {"content":"Hel","finished":false,"model":"qwen3-max","timestamp":"2025-01-01T10:00:00.123456"}`)
			Expect(ev).NotTo(BeNil())
			Expect(ev.Kind).To(Equal(sse.KindDelta))
			Expect(ev.Text).To(Equal("Hel"))
			Expect(ev.Final).To(BeFalse())
			Expect(ev.Model).To(Equal("qwen3-max"))
		})

		It("keeps whitespace inside the content", func() {
			ev := sse.Parse(`data: {"content":"  two spaces\n"}`)
			Expect(ev.Text).To(Equal("  two spaces\n"))
		})

		It("returns a final delta when content and finished are both set", func() {
			ev := sse.Parse(`data: {"content":"!","finished":true}`)
			Expect(ev.Kind).To(Equal(sse.KindDelta))
			Expect(ev.Text).To(Equal("!"))
			Expect(ev.Final).To(BeTrue())
		})

		It("treats an empty content with finished as a final empty delta", func() {
			ev := sse.Parse(`data: {"content":"","finished":true}`)
			Expect(ev.Kind).To(Equal(sse.KindDelta))
			Expect(ev.Text).To(BeEmpty())
			Expect(ev.Final).To(BeTrue())
		})
	})

	Context("with server errors", func() {
		It("returns a finished event carrying the error", func() {
			ev := sse.Parse(`data: {"error":"upstream timeout","finished":true,"timestamp":"2025-01-01T10:00:00"}`)
			Expect(ev.Kind).To(Equal(sse.KindFinished))
			Expect(ev.ServerError).To(Equal("upstream timeout"))
		})
	})

	Context("with malformed payloads", func() {
		DescribeTable("returns a malformed event with the raw payload",
			func(line, raw string) {
				ev := sse.Parse(line)
				Expect(ev).NotTo(BeNil())
				Expect(ev.Kind).To(Equal(sse.KindMalformed))
				Expect(ev.Raw).To(Equal(raw))
				Expect(ev.Err).To(HaveOccurred())
			},
			Entry("truncated JSON", `data: {"content":"Hel`, `{"content":"Hel`),
			Entry("plain text", "data: hello", "hello"),
			Entry("wrong type", `data: {"content":42}`, `{"content":42}`),
			Entry("array", `data: ["a"]`, `["a"]`),
		)
	})

	It("names its kinds", func() {
		Expect(sse.KindDelta.String()).To(Equal("delta"))
		Expect(sse.KindFinished.String()).To(Equal("finished"))
		Expect(sse.KindMalformed.String()).To(Equal("malformed"))
	})
})
