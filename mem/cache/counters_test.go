package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Counters", func() {
	It("should count outcomes", func() {
		c := Counters{}

		c.Record(Hit)
		c.Record(Miss)
		c.Record(MissWithEviction)
		c.Record(Hit)

		Expect(c).To(Equal(Counters{Hits: 2, Misses: 2, Evictions: 1}))
		Expect(c.Accesses()).To(Equal(uint64(4)))
		Expect(c.HitRate()).To(BeNumerically("~", 0.5))
		Expect(c.String()).To(Equal("hits:2 misses:2 evictions:1"))
	})

	It("should report zero hit rate when empty", func() {
		Expect(Counters{}.HitRate()).To(BeZero())
	})

	It("should panic on unknown outcome", func() {
		c := Counters{}

		Expect(func() { c.Record(AccessOutcome(9)) }).To(Panic())
	})
})
