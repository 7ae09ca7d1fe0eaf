package cache

import (
	"errors"
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache/internal/tagging"
)

// ErrUnknownReplaceStrategy is returned when the builder is asked for a
// replacement policy that does not exist.
var ErrUnknownReplaceStrategy = errors.New("unknown replace strategy")

// Builder can build cache simulators.
type Builder struct {
	geometry        Geometry
	replaceStrategy string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		geometry: Geometry{
			SetIndexBits:    4,
			Associativity:   1,
			BlockOffsetBits: 4,
		},
		replaceStrategy: "lru",
	}
}

// WithGeometry sets the whole geometry of the cache.
func (b Builder) WithGeometry(g Geometry) Builder {
	b.geometry = g
	return b
}

// Geometry returns the geometry the builder is configured with.
func (b Builder) Geometry() Geometry {
	return b.geometry
}

// WithSetIndexBits sets the number of set-index bits.
func (b Builder) WithSetIndexBits(s int) Builder {
	b.geometry.SetIndexBits = s
	return b
}

// WithAssociativity sets the number of lines per set.
func (b Builder) WithAssociativity(e int) Builder {
	b.geometry.Associativity = e
	return b
}

// WithBlockOffsetBits sets the number of block-offset bits.
func (b Builder) WithBlockOffsetBits(bits int) Builder {
	b.geometry.BlockOffsetBits = bits
	return b
}

// WithReplaceStrategy sets the replacement policy. Only "lru" is supported.
func (b Builder) WithReplaceStrategy(strategy string) Builder {
	b.replaceStrategy = strategy
	return b
}

// Build builds a simulator with an empty cache.
func (b Builder) Build() (*Simulator, error) {
	if err := b.geometry.Validate(); err != nil {
		return nil, err
	}

	victimFinder, err := b.createVictimFinder()
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		cache: newCache(b.geometry, victimFinder),
	}

	return s, nil
}

func (b Builder) createVictimFinder() (tagging.VictimFinder, error) {
	switch b.replaceStrategy {
	case "lru":
		return tagging.NewLRUVictimFinder(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownReplaceStrategy,
			b.replaceStrategy)
	}
}
