package cache

import "fmt"

// Counters accumulates access outcomes.
type Counters struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Record adds one outcome to the totals.
func (c *Counters) Record(outcome AccessOutcome) {
	switch outcome {
	case Hit:
		c.Hits++
	case Miss:
		c.Misses++
	case MissWithEviction:
		c.Misses++
		c.Evictions++
	default:
		panic(fmt.Sprintf("unknown outcome %d", int(outcome)))
	}
}

// Accesses returns the number of recorded references.
func (c Counters) Accesses() uint64 {
	return c.Hits + c.Misses
}

// HitRate returns the fraction of references that hit, or 0 if nothing has
// been recorded.
func (c Counters) HitRate() float64 {
	if c.Accesses() == 0 {
		return 0
	}

	return float64(c.Hits) / float64(c.Accesses())
}

func (c Counters) String() string {
	return fmt.Sprintf("hits:%d misses:%d evictions:%d",
		c.Hits, c.Misses, c.Evictions)
}
