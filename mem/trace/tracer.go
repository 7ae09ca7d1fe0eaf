package trace

import (
	"log"
	"strings"

	"github.com/rs/xid"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
)

// accessEntry represents a data access in the database
type accessEntry struct {
	ID       string
	Seq      uint64
	Kind     string
	Address  uint64
	Size     int
	SetIndex int
	Tag      uint64
	Outcome  string
	Hits     int
	Misses   int
	Evicted  bool
}

// summaryEntry represents the totals of a run in the database
type summaryEntry struct {
	ID              string
	SetIndexBits    int
	Associativity   int
	BlockOffsetBits int
	Hits            uint64
	Misses          uint64
	Evictions       uint64
}

func appliedAccess(
	ctx cache.HookCtx,
) (cache.MemoryAccess, []cache.AccessOutcome, bool) {
	if ctx.Pos != cache.HookPosAccessApplied {
		return cache.MemoryAccess{}, nil, false
	}

	access, ok := ctx.Item.(cache.MemoryAccess)
	if !ok {
		return cache.MemoryAccess{}, nil, false
	}

	outcomes, ok := ctx.Detail.([]cache.AccessOutcome)
	if !ok {
		return cache.MemoryAccess{}, nil, false
	}

	return access, outcomes, true
}

func joinOutcomes(outcomes []cache.AccessOutcome) string {
	words := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		words = append(words, o.String())
	}

	return strings.Join(words, " ")
}

// A VerboseTracer is a hook that prints one line per data access, e.g.
// "M 20,1 miss eviction hit".
type VerboseTracer struct {
	logger *log.Logger
}

// NewVerboseTracer creates a VerboseTracer that prints with the logger.
func NewVerboseTracer(logger *log.Logger) *VerboseTracer {
	return &VerboseTracer{logger: logger}
}

// Func prints the access and its outcomes.
func (t *VerboseTracer) Func(ctx cache.HookCtx) {
	access, outcomes, ok := appliedAccess(ctx)
	if !ok {
		return
	}

	t.logger.Printf("%s %s\n", access, joinOutcomes(outcomes))
}

// A DBTracer is a hook that records every data access into a database
// using the data recorder.
type DBTracer struct {
	dataRecorder datarecording.DataRecorder
	runID        string
	seq          uint64
}

// NewDBTracer creates a new database-based tracer.
func NewDBTracer(dataRecorder datarecording.DataRecorder) *DBTracer {
	t := &DBTracer{
		dataRecorder: dataRecorder,
		runID:        xid.New().String(),
	}

	t.dataRecorder.CreateTable("cache_accesses", accessEntry{})
	t.dataRecorder.CreateTable("cache_summary", summaryEntry{})

	return t
}

// RunID returns the id under which the summary of this run is stored.
func (t *DBTracer) RunID() string {
	return t.runID
}

// Func records one data access.
func (t *DBTracer) Func(ctx cache.HookCtx) {
	access, outcomes, ok := appliedAccess(ctx)
	if !ok {
		return
	}

	entry := accessEntry{
		ID:      xid.New().String(),
		Seq:     t.seq,
		Kind:    access.Kind.String(),
		Address: access.Address,
		Size:    access.Size,
		Outcome: joinOutcomes(outcomes),
	}

	if sim, ok := ctx.Domain.(*cache.Simulator); ok {
		entry.SetIndex, entry.Tag = sim.Cache().Decode(access.Address)
	}

	for _, o := range outcomes {
		if o.IsMiss() {
			entry.Misses++
		} else {
			entry.Hits++
		}

		if o == cache.MissWithEviction {
			entry.Evicted = true
		}
	}

	t.seq++

	t.dataRecorder.InsertData("cache_accesses", entry)
}

// Finish records the totals of the run and flushes the recorder.
func (t *DBTracer) Finish(g cache.Geometry, counters cache.Counters) {
	t.dataRecorder.InsertData("cache_summary", summaryEntry{
		ID:              t.runID,
		SetIndexBits:    g.SetIndexBits,
		Associativity:   g.Associativity,
		BlockOffsetBits: g.BlockOffsetBits,
		Hits:            counters.Hits,
		Misses:          counters.Misses,
		Evictions:       counters.Evictions,
	})

	t.dataRecorder.Flush()
}
