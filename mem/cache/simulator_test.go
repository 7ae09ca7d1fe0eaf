package cache

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

func mustBuild(s, e, b int) *Simulator {
	sim, err := MakeBuilder().
		WithSetIndexBits(s).
		WithAssociativity(e).
		WithBlockOffsetBits(b).
		Build()
	Expect(err).NotTo(HaveOccurred())

	return sim
}

func load(addr uint64) MemoryAccess {
	return MemoryAccess{Kind: Load, Address: addr, Size: 1}
}

// referenceLRU is a straightforward model that the simulator is checked
// against.
type referenceLRU struct {
	g    Geometry
	sets map[int][]uint64
}

func (r *referenceLRU) access(addr uint64) AccessOutcome {
	set, tag := NewDecoder(r.g).Decode(addr)
	lines := r.sets[set]

	for i, t := range lines {
		if t == tag {
			lines = append(lines[:i], lines[i+1:]...)
			r.sets[set] = append([]uint64{tag}, lines...)

			return Hit
		}
	}

	outcome := Miss
	if len(lines) == r.g.Associativity {
		lines = lines[:len(lines)-1]
		outcome = MissWithEviction
	}

	r.sets[set] = append([]uint64{tag}, lines...)

	return outcome
}

var _ = Describe("Simulator", func() {
	Context("scenarios", func() {
		It("should hit on a second access to the same block", func() {
			sim := mustBuild(0, 1, 0)

			Expect(sim.Apply(load(0x10))).To(Equal([]AccessOutcome{Miss}))
			Expect(sim.Apply(load(0x10))).To(Equal([]AccessOutcome{Hit}))
		})

		It("should not collide across sets with identical tags", func() {
			sim := mustBuild(1, 1, 1)

			Expect(sim.Apply(load(0x0))).To(Equal([]AccessOutcome{Miss}))
			Expect(sim.Apply(load(0x2))).To(Equal([]AccessOutcome{Miss}))
			Expect(sim.Counters()).To(Equal(Counters{Misses: 2}))
			Expect(sim.Cache().SetTags(0)).To(Equal([]uint64{0}))
			Expect(sim.Cache().SetTags(1)).To(Equal([]uint64{0}))
		})

		It("should evict the least recently used line", func() {
			sim := mustBuild(0, 2, 0)

			Expect(sim.Apply(load(1))).To(Equal([]AccessOutcome{Miss}))
			Expect(sim.Apply(load(2))).To(Equal([]AccessOutcome{Miss}))
			Expect(sim.Apply(load(3))).
				To(Equal([]AccessOutcome{MissWithEviction}))
			Expect(sim.Apply(load(1))).
				To(Equal([]AccessOutcome{MissWithEviction}))
			Expect(sim.Cache().SetTags(0)).To(Equal([]uint64{1, 3}))
		})

		It("should count a cold modify as a miss and a hit", func() {
			sim := mustBuild(4, 1, 4)

			outcomes := sim.Apply(MemoryAccess{Kind: Modify, Address: 0x20,
				Size: 4})

			Expect(outcomes).To(Equal([]AccessOutcome{Miss, Hit}))
			Expect(sim.Counters()).To(Equal(Counters{Hits: 1, Misses: 1}))
		})
	})

	It("should treat a store like a load", func() {
		sim := mustBuild(2, 1, 2)

		Expect(sim.Apply(MemoryAccess{Kind: Store, Address: 0x4})).
			To(Equal([]AccessOutcome{Miss}))
		Expect(sim.Apply(load(0x5))).To(Equal([]AccessOutcome{Hit}))
	})

	It("should give two hits for a modify of a resident block", func() {
		sim := mustBuild(2, 2, 2)
		sim.Apply(load(0x8))

		outcomes := sim.Apply(MemoryAccess{Kind: Modify, Address: 0x8})

		Expect(outcomes).To(Equal([]AccessOutcome{Hit, Hit}))
	})

	It("should evict then hit for a modify into a full set", func() {
		sim := mustBuild(0, 1, 0)
		sim.Apply(load(0x1))

		outcomes := sim.Apply(MemoryAccess{Kind: Modify, Address: 0x2})

		Expect(outcomes).To(Equal([]AccessOutcome{MissWithEviction, Hit}))
		Expect(sim.Counters()).
			To(Equal(Counters{Hits: 1, Misses: 2, Evictions: 1}))
	})

	It("should replace the sole line when direct mapped", func() {
		sim := mustBuild(1, 1, 0)

		sim.Apply(load(0b10))
		outcomes := sim.Apply(load(0b100))

		Expect(outcomes).To(Equal([]AccessOutcome{MissWithEviction}))
		Expect(sim.Cache().SetTags(0)).To(Equal([]uint64{0b10}))
	})

	It("should promote a hit line in the middle of a set", func() {
		sim := mustBuild(0, 4, 0)
		for addr := uint64(1); addr <= 4; addr++ {
			sim.Apply(load(addr))
		}

		sim.Apply(load(3))

		Expect(sim.Cache().SetTags(0)).To(Equal([]uint64{3, 4, 2, 1}))
	})

	It("should match a reference LRU model on a random trace", func() {
		g := Geometry{SetIndexBits: 2, Associativity: 3, BlockOffsetBits: 2}
		sim, err := MakeBuilder().WithGeometry(g).Build()
		Expect(err).NotTo(HaveOccurred())

		ref := &referenceLRU{g: g, sets: map[int][]uint64{}}
		r := rand.New(rand.NewSource(42))
		numRefs := uint64(0)

		for i := 0; i < 5000; i++ {
			access := MemoryAccess{
				Kind:    AccessKind(r.Intn(3)),
				Address: uint64(r.Intn(512)),
			}

			expected := []AccessOutcome{ref.access(access.Address)}
			if access.Kind == Modify {
				expected = append(expected, ref.access(access.Address))
				Expect(expected[1]).To(Equal(Hit))
			}

			Expect(sim.Apply(access)).To(Equal(expected))
			numRefs += uint64(len(expected))

			for set := 0; set < g.NumSets(); set++ {
				tags := sim.Cache().SetTags(set)
				Expect(len(tags)).To(BeNumerically("<=", g.Associativity))
				Expect(tags).To(Equal(append([]uint64{}, ref.sets[set]...)))
			}
		}

		c := sim.Counters()
		Expect(c.Accesses()).To(Equal(numRefs))
		Expect(c.Evictions).To(BeNumerically("<=", c.Misses))
	})

	Context("hooks", func() {
		var (
			mockCtrl *gomock.Controller
			hook     *MockHook
			sim      *Simulator
		)

		BeforeEach(func() {
			mockCtrl = gomock.NewController(GinkgoT())
			hook = NewMockHook(mockCtrl)
			sim = mustBuild(0, 1, 0)
			sim.AcceptHook(hook)
		})

		AfterEach(func() {
			mockCtrl.Finish()
		})

		It("should invoke hooks after each access", func() {
			access := MemoryAccess{Kind: Modify, Address: 0x3, Size: 8}

			hook.EXPECT().Func(HookCtx{
				Domain: sim,
				Pos:    HookPosAccessApplied,
				Item:   access,
				Detail: []AccessOutcome{Miss, Hit},
			})

			sim.Apply(access)
		})

		It("should refuse a duplicated hook", func() {
			Expect(func() { sim.AcceptHook(hook) }).To(Panic())
			Expect(sim.NumHooks()).To(Equal(1))
		})
	})
})

var _ = Describe("Builder", func() {
	It("should reject invalid geometry", func() {
		_, err := MakeBuilder().WithAssociativity(0).Build()

		Expect(err).To(MatchError(ErrInvalidGeometry))
	})

	It("should reject unknown replace strategies", func() {
		_, err := MakeBuilder().WithReplaceStrategy("random").Build()

		Expect(err).To(MatchError(ErrUnknownReplaceStrategy))
	})

	It("should build a cache with the requested geometry", func() {
		g := Geometry{SetIndexBits: 3, Associativity: 2, BlockOffsetBits: 5}

		sim, err := MakeBuilder().WithGeometry(g).Build()

		Expect(err).NotTo(HaveOccurred())
		Expect(sim.Cache().Geometry()).To(Equal(g))
	})
})

var _ = Describe("AccessOutcome", func() {
	It("should print like the verbose trace", func() {
		Expect(Hit.String()).To(Equal("hit"))
		Expect(Miss.String()).To(Equal("miss"))
		Expect(MissWithEviction.String()).To(Equal("miss eviction"))
		Expect(MissWithEviction.IsMiss()).To(BeTrue())
		Expect(Hit.IsMiss()).To(BeFalse())
	})

	It("should print accesses in trace syntax", func() {
		a := MemoryAccess{Kind: Modify, Address: 0x7ff0, Size: 8}

		Expect(a.String()).To(Equal("M 7ff0,8"))
	})
})
