package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Geometry", func() {
	It("should derive sizes", func() {
		g := Geometry{SetIndexBits: 4, Associativity: 2, BlockOffsetBits: 6}

		Expect(g.NumSets()).To(Equal(16))
		Expect(g.BlockSize()).To(Equal(uint64(64)))
		Expect(g.Capacity()).To(Equal(uint64(2048)))
		Expect(g.String()).To(Equal("s=4 E=2 b=6"))
	})

	DescribeTable("validation",
		func(g Geometry, valid bool) {
			err := g.Validate()
			if valid {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(ErrInvalidGeometry))
			}
		},
		Entry("typical", Geometry{4, 2, 4}, true),
		Entry("single set, no offset", Geometry{0, 1, 0}, true),
		Entry("zero associativity", Geometry{4, 0, 4}, false),
		Entry("negative set bits", Geometry{-1, 1, 4}, false),
		Entry("negative offset bits", Geometry{4, 1, -2}, false),
		Entry("too many sets", Geometry{MaxSetIndexBits + 1, 1, 0}, false),
		Entry("no tag bits left", Geometry{20, 1, 44}, false),
	)
})

var _ = Describe("Decoder", func() {
	It("should split address into set index and tag", func() {
		d := NewDecoder(Geometry{SetIndexBits: 4, Associativity: 1,
			BlockOffsetBits: 4})

		setIndex, tag := d.Decode(0x12345)

		Expect(setIndex).To(Equal(0x4))
		Expect(tag).To(Equal(uint64(0x123)))
	})

	It("should ignore block offset bits", func() {
		d := NewDecoder(Geometry{SetIndexBits: 2, Associativity: 1,
			BlockOffsetBits: 3})

		s1, t1 := d.Decode(0x40)
		s2, t2 := d.Decode(0x47)

		Expect(s1).To(Equal(s2))
		Expect(t1).To(Equal(t2))
	})

	It("should map everything to set 0 without set index bits", func() {
		d := NewDecoder(Geometry{SetIndexBits: 0, Associativity: 2,
			BlockOffsetBits: 0})

		setIndex, tag := d.Decode(0xdeadbeef)

		Expect(setIndex).To(Equal(0))
		Expect(tag).To(Equal(uint64(0xdeadbeef)))
	})

	It("should handle the top of the address space", func() {
		d := NewDecoder(Geometry{SetIndexBits: 1, Associativity: 1,
			BlockOffsetBits: 1})

		setIndex, tag := d.Decode(^uint64(0))

		Expect(setIndex).To(Equal(1))
		Expect(tag).To(Equal(^uint64(0) >> 2))
	})
})
