package sse_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/streamchat/pkg/sse"
)

var _ = Describe("Decoder", func() {
	var d *sse.Decoder

	BeforeEach(func() {
		d = sse.NewDecoder()
	})

	It("decodes ASCII chunks as-is", func() {
		text, err := d.Decode([]byte("data: hi\n"), false)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("data: hi\n"))
		Expect(d.Pending()).To(Equal(0))
	})

	It("holds back a multi-byte character split across chunks", func() {
		raw := []byte("é") // 0xC3 0xA9

		first, err := d.Decode(raw[:1], false)
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(BeEmpty())
		Expect(d.Pending()).To(Equal(1))

		second, err := d.Decode(raw[1:], false)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal("é"))
		Expect(d.Pending()).To(Equal(0))
	})

	It("recombines a four byte character fed one byte at a time", func() {
		raw := []byte("a🙂b")

		var out string
		for i := range raw {
			text, err := d.Decode(raw[i:i+1], false)
			Expect(err).NotTo(HaveOccurred())
			out += text
		}

		Expect(out).To(Equal("a🙂b"))
	})

	It("does not keep a reference to the caller's buffer", func() {
		buf := []byte("你")
		_, err := d.Decode(buf[:2], false)
		Expect(err).NotTo(HaveOccurred())

		// Simulate the read buffer being reused for the next chunk.
		buf[0], buf[1] = 'x', 'x'

		text, err := d.Decode([]byte("你")[2:], false)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("你"))
	})

	It("replaces an incomplete tail with U+FFFD on the final call", func() {
		_, err := d.Decode([]byte{0xE4, 0xBD}, false)
		Expect(err).NotTo(HaveOccurred())

		text, err := d.Decode(nil, true)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("�"))
		Expect(d.Pending()).To(Equal(0))
	})

	It("replaces invalid bytes instead of failing", func() {
		text, err := d.Decode([]byte{'o', 'k', 0xFF, '!'}, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("ok�!"))
	})

	It("decodes chunks larger than its internal buffer", func() {
		big := make([]byte, 10000)
		for i := range big {
			big[i] = 'z'
		}
		big = append(big, []byte("ü")...)

		text, err := d.Decode(big, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(HaveLen(len(big)))
		Expect(text).To(HaveSuffix("ü"))
	})
})
