package cache

import (
	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
)

// A Cache is an indexed collection of sets. It tracks which blocks are
// resident, in recency order, and decides hits, misses and evictions.
type Cache struct {
	geometry Geometry
	decoder  Decoder
	tags     tagging.TagArray
}

func newCache(g Geometry, victimFinder tagging.VictimFinder) *Cache {
	return &Cache{
		geometry: g,
		decoder:  NewDecoder(g),
		tags: tagging.NewTagArray(
			g.NumSets(),
			g.Associativity,
			victimFinder,
		),
	}
}

// Geometry returns the shape of the cache.
func (c *Cache) Geometry() Geometry {
	return c.geometry
}

// Decode splits an address into set index and tag.
func (c *Cache) Decode(addr uint64) (setIndex int, tag uint64) {
	return c.decoder.Decode(addr)
}

// Lookup reports whether the block is resident. On a hit, the block becomes
// the most recently used one of its set.
func (c *Cache) Lookup(setIndex int, tag uint64) bool {
	return c.tags.Lookup(setIndex, tag)
}

// Admit installs a block after a failed lookup.
func (c *Cache) Admit(setIndex int, tag uint64) AccessOutcome {
	_, evicted := c.tags.Admit(setIndex, tag)
	if evicted {
		return MissWithEviction
	}

	return Miss
}

// SetTags returns the tags resident in a set, most recently used first.
func (c *Cache) SetTags(setIndex int) []uint64 {
	return c.tags.GetSet(setIndex).Tags()
}
