package tagging

// A VictimFinder decides which line of a full set should be evicted.
type VictimFinder interface {
	FindVictim(set *Set) (pos int, found bool)
}

// LRUVictimFinder evicts the least recently used line.
type LRUVictimFinder struct {
}

// NewLRUVictimFinder returns a newly constructed lru evictor
func NewLRUVictimFinder() *LRUVictimFinder {
	e := new(LRUVictimFinder)
	return e
}

// FindVictim returns the position of the least recently used line in a set.
func (e *LRUVictimFinder) FindVictim(set *Set) (pos int, found bool) {
	if set.Len() == 0 {
		return -1, false
	}

	return set.Len() - 1, true
}
