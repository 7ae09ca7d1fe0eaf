// Package simulation drives a memory-access trace through a cache simulator
// and wires the optional recording and monitoring around it.
package simulation

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
)

// A Simulation owns a cache simulator for the duration of one run.
type Simulation struct {
	id string

	// lock serializes the trace loop with the monitor's reads.
	lock      sync.Mutex
	simulator *cache.Simulator

	dataRecorder datarecording.DataRecorder
	dbTracer     *trace.DBTracer
	monitor      *monitoring.Monitor
	monitorURL   string
}

// ID returns the unique id of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// MonitorURL returns the address of the monitoring server, or an empty
// string if monitoring is off.
func (s *Simulation) MonitorURL() string {
	return s.monitorURL
}

// Geometry returns the shape of the simulated cache.
func (s *Simulation) Geometry() cache.Geometry {
	return s.simulator.Cache().Geometry()
}

// Counters returns the totals recorded so far.
func (s *Simulation) Counters() cache.Counters {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.simulator.Counters()
}

// SetTags returns the tags resident in a set, most recently used first.
func (s *Simulation) SetTags(setIndex int) []uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.simulator.Cache().SetTags(setIndex)
}

// Apply runs one access through the simulator.
func (s *Simulation) Apply(access cache.MemoryAccess) []cache.AccessOutcome {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.simulator.Apply(access)
}

// Run reads a trace and applies every data access in order. Instruction
// fetches are skipped. Run stops at the end of the trace, at the first
// malformed record, or when ctx is done, and returns the totals so far.
func (s *Simulation) Run(ctx context.Context, r io.Reader) (cache.Counters, error) {
	progress := s.startProgress(r)
	if progress != nil {
		defer s.monitor.CompleteProgressBar(progress)
		r = &countingReader{r: r, bar: progress}
	}

	reader := trace.NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return s.Counters(), err
		}

		rec, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return s.Counters(), err
		}

		access, ok := rec.Access()
		if !ok {
			continue
		}

		s.Apply(access)
	}

	counters := s.Counters()

	if s.dbTracer != nil {
		s.dbTracer.Finish(s.Geometry(), counters)
	}

	return counters, nil
}

func (s *Simulation) startProgress(r io.Reader) *monitoring.ProgressBar {
	if s.monitor == nil {
		return nil
	}

	total := uint64(0)
	if f, ok := r.(*os.File); ok {
		if info, err := f.Stat(); err == nil && info.Size() > 0 {
			total = uint64(info.Size())
		}
	}

	return s.monitor.CreateProgressBar("Trace bytes", total)
}

// Terminate flushes the recorder and stops the monitor.
func (s *Simulation) Terminate() error {
	var errs []error

	if s.dataRecorder != nil {
		errs = append(errs, s.dataRecorder.Close())
	}

	if s.monitor != nil {
		errs = append(errs, s.monitor.StopServer())
	}

	return errors.Join(errs...)
}

type countingReader struct {
	r   io.Reader
	bar *monitoring.ProgressBar
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.bar.IncrementFinished(uint64(n))

	return n, err
}
