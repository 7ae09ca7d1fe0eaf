package cache

import "fmt"

// AccessKind tells how a data access uses the memory.
type AccessKind int

// Kinds of data accesses.
const (
	Load AccessKind = iota
	Store
	Modify
)

func (k AccessKind) String() string {
	switch k {
	case Load:
		return "L"
	case Store:
		return "S"
	case Modify:
		return "M"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(k))
	}
}

// A MemoryAccess is one data access of a trace. Size is informational only;
// the whole access counts as a single reference to one block.
type MemoryAccess struct {
	Kind    AccessKind
	Address uint64
	Size    int
}

func (a MemoryAccess) String() string {
	return fmt.Sprintf("%s %x,%d", a.Kind, a.Address, a.Size)
}

// AccessOutcome is the result of applying one reference to the cache.
type AccessOutcome int

// Possible outcomes.
const (
	Hit AccessOutcome = iota
	Miss
	MissWithEviction
)

func (o AccessOutcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Miss:
		return "miss"
	case MissWithEviction:
		return "miss eviction"
	default:
		return fmt.Sprintf("AccessOutcome(%d)", int(o))
	}
}

// IsMiss returns true for both kinds of misses.
func (o AccessOutcome) IsMiss() bool {
	return o == Miss || o == MissWithEviction
}
