// Package cache models a set-associative cache with LRU replacement that is
// driven by a trace of memory accesses.
package cache

// A Simulator applies data accesses to a cache and counts the outcomes.
//
// A Simulator is not safe for concurrent use.
type Simulator struct {
	HookableBase

	cache    *Cache
	counters Counters
}

// Apply runs one data access through the cache. Loads and stores produce one
// outcome. A modify is a load followed by a store to the same block, so it
// produces two outcomes and the second one is always a hit.
func (s *Simulator) Apply(access MemoryAccess) []AccessOutcome {
	outcomes := make([]AccessOutcome, 0, 2)

	outcomes = append(outcomes, s.reference(access.Address))
	if access.Kind == Modify {
		outcomes = append(outcomes, s.reference(access.Address))
	}

	if s.NumHooks() > 0 {
		s.InvokeHook(HookCtx{
			Domain: s,
			Pos:    HookPosAccessApplied,
			Item:   access,
			Detail: outcomes,
		})
	}

	return outcomes
}

func (s *Simulator) reference(addr uint64) AccessOutcome {
	setIndex, tag := s.cache.Decode(addr)

	outcome := Hit
	if !s.cache.Lookup(setIndex, tag) {
		outcome = s.cache.Admit(setIndex, tag)
	}

	s.counters.Record(outcome)

	return outcome
}

// Counters returns the totals recorded so far.
func (s *Simulator) Counters() Counters {
	return s.counters
}

// Cache returns the cache that the simulator drives.
func (s *Simulator) Cache() *Cache {
	return s.cache
}
