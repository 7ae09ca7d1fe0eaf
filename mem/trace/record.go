// Package trace reads memory-access traces and records what the cache did
// with every access.
package trace

import (
	"fmt"

	"github.com/sarchlab/cachesim/mem/cache"
)

// Kind identifies the type of a trace record.
type Kind int

// Kinds of trace records.
const (
	Instruction Kind = iota
	Load
	Store
	Modify
)

func (k Kind) String() string {
	switch k {
	case Instruction:
		return "I"
	case Load:
		return "L"
	case Store:
		return "S"
	case Modify:
		return "M"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// A Record is one line of a trace.
type Record struct {
	Kind    Kind
	Address uint64
	Size    int

	// Line is the 1-based line number the record was read from.
	Line int
}

// Access converts a data record into a cache access. Instruction fetches are
// not modeled and report false.
func (r Record) Access() (cache.MemoryAccess, bool) {
	var kind cache.AccessKind

	switch r.Kind {
	case Load:
		kind = cache.Load
	case Store:
		kind = cache.Store
	case Modify:
		kind = cache.Modify
	default:
		return cache.MemoryAccess{}, false
	}

	return cache.MemoryAccess{
		Kind:    kind,
		Address: r.Address,
		Size:    r.Size,
	}, true
}
