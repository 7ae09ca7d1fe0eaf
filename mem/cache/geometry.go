package cache

import (
	"errors"
	"fmt"
)

// MaxSetIndexBits is the largest number of set-index bits a cache can be
// built with. Larger caches would not fit in memory.
const MaxSetIndexBits = 24

// ErrInvalidGeometry is returned when a cache geometry cannot be built.
var ErrInvalidGeometry = errors.New("invalid cache geometry")

// Geometry describes the shape of a set-associative cache.
type Geometry struct {
	// SetIndexBits is s. The cache has 2^s sets.
	SetIndexBits int `yaml:"set_index_bits" json:"set_index_bits"`

	// Associativity is E, the number of lines per set.
	Associativity int `yaml:"associativity" json:"associativity"`

	// BlockOffsetBits is b. A block holds 2^b bytes.
	BlockOffsetBits int `yaml:"block_offset_bits" json:"block_offset_bits"`
}

// NumSets returns the number of sets.
func (g Geometry) NumSets() int {
	return 1 << g.SetIndexBits
}

// BlockSize returns the number of bytes per block.
func (g Geometry) BlockSize() uint64 {
	return 1 << g.BlockOffsetBits
}

// Capacity returns the number of bytes the cache can hold.
func (g Geometry) Capacity() uint64 {
	return uint64(g.NumSets()) * uint64(g.Associativity) * g.BlockSize()
}

// Validate returns an error wrapping ErrInvalidGeometry if the geometry
// cannot be used to build a cache.
func (g Geometry) Validate() error {
	switch {
	case g.Associativity < 1:
		return fmt.Errorf("%w: associativity %d, must be at least 1",
			ErrInvalidGeometry, g.Associativity)
	case g.SetIndexBits < 0:
		return fmt.Errorf("%w: set index bits %d, must not be negative",
			ErrInvalidGeometry, g.SetIndexBits)
	case g.BlockOffsetBits < 0:
		return fmt.Errorf("%w: block offset bits %d, must not be negative",
			ErrInvalidGeometry, g.BlockOffsetBits)
	case g.SetIndexBits > MaxSetIndexBits:
		return fmt.Errorf("%w: set index bits %d, at most %d supported",
			ErrInvalidGeometry, g.SetIndexBits, MaxSetIndexBits)
	case g.SetIndexBits+g.BlockOffsetBits >= 64:
		return fmt.Errorf("%w: %d set index bits and %d block offset bits "+
			"leave no room for a tag in a 64-bit address",
			ErrInvalidGeometry, g.SetIndexBits, g.BlockOffsetBits)
	}

	return nil
}

func (g Geometry) String() string {
	return fmt.Sprintf("s=%d E=%d b=%d", g.SetIndexBits, g.Associativity,
		g.BlockOffsetBits)
}

// A Decoder splits addresses into a set index and a tag.
type Decoder struct {
	setMask  uint64
	setShift uint
	tagShift uint
}

// NewDecoder creates a decoder for the geometry. The geometry is assumed to
// be valid.
func NewDecoder(g Geometry) Decoder {
	return Decoder{
		setMask:  uint64(g.NumSets()) - 1,
		setShift: uint(g.BlockOffsetBits),
		tagShift: uint(g.SetIndexBits + g.BlockOffsetBits),
	}
}

// Decode returns the set index and the tag of an address.
func (d Decoder) Decode(addr uint64) (setIndex int, tag uint64) {
	setIndex = int((addr >> d.setShift) & d.setMask)
	tag = addr >> d.tagShift

	return setIndex, tag
}
