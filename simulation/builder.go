package simulation

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/rs/xid"

	"github.com/sarchlab/cachesim/datarecording"
	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/mem/trace"
	"github.com/sarchlab/cachesim/monitoring"
)

// Builder can be used to build a simulation.
type Builder struct {
	geometry        cache.Geometry
	replaceStrategy string
	verboseWriter   io.Writer
	recordingOn     bool
	outputFileName  string
	monitorOn       bool
	monitorPort     int
	openBrowser     bool
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		geometry:        cache.MakeBuilder().Geometry(),
		replaceStrategy: "lru",
	}
}

// WithGeometry sets the shape of the simulated cache.
func (b Builder) WithGeometry(g cache.Geometry) Builder {
	b.geometry = g
	return b
}

// WithReplaceStrategy sets the replacement policy of the cache.
func (b Builder) WithReplaceStrategy(strategy string) Builder {
	b.replaceStrategy = strategy
	return b
}

// WithVerbose prints one line per data access to w.
func (b Builder) WithVerbose(w io.Writer) Builder {
	b.verboseWriter = w
	return b
}

// WithDataRecording records every data access into a SQLite database.
func (b Builder) WithDataRecording() Builder {
	b.recordingOn = true
	return b
}

// WithOutputFileName sets the custom output file name for the data recorder.
func (b Builder) WithOutputFileName(filename string) Builder {
	b.outputFileName = filename
	return b
}

// WithMonitoring serves the state of the simulation over HTTP.
func (b Builder) WithMonitoring() Builder {
	b.monitorOn = true
	return b
}

// WithoutMonitoring sets the simulation to not use monitoring.
func (b Builder) WithoutMonitoring() Builder {
	b.monitorOn = false
	return b
}

// WithMonitorPort sets the port number for the monitoring server.
func (b Builder) WithMonitorPort(port int) Builder {
	b.monitorPort = port
	return b
}

// WithBrowser opens the monitoring page once the server is up.
func (b Builder) WithBrowser() Builder {
	b.openBrowser = true
	return b
}

func (b Builder) parametersMustBeValid() error {
	if !b.monitorOn && b.monitorPort != 0 {
		return errors.New(
			"monitor port cannot be set when monitoring is disabled")
	}

	if !b.monitorOn && b.openBrowser {
		return errors.New(
			"browser cannot be opened when monitoring is disabled")
	}

	if !b.recordingOn && b.outputFileName != "" {
		return errors.New(
			"output file cannot be set when data recording is disabled")
	}

	return nil
}

// Build builds the simulation.
func (b Builder) Build() (*Simulation, error) {
	if err := b.parametersMustBeValid(); err != nil {
		return nil, err
	}

	simulator, err := cache.MakeBuilder().
		WithGeometry(b.geometry).
		WithReplaceStrategy(b.replaceStrategy).
		Build()
	if err != nil {
		return nil, err
	}

	s := &Simulation{
		id:        xid.New().String(),
		simulator: simulator,
	}

	if b.verboseWriter != nil {
		simulator.AcceptHook(
			trace.NewVerboseTracer(log.New(b.verboseWriter, "", 0)))
	}

	if b.recordingOn {
		err = b.buildRecording(s)
		if err != nil {
			return nil, err
		}
	}

	if b.monitorOn {
		err = b.buildMonitor(s)
		if err != nil {
			s.Terminate()
			return nil, err
		}
	}

	return s, nil
}

func (b Builder) buildRecording(s *Simulation) error {
	outputPath := b.outputFileName
	if outputPath == "" {
		outputPath = "csim_" + s.id
	}

	recorder, err := datarecording.New(outputPath)
	if err != nil {
		return fmt.Errorf("creating data recorder: %w", err)
	}

	s.dataRecorder = recorder
	s.dbTracer = trace.NewDBTracer(recorder)
	s.simulator.AcceptHook(s.dbTracer)

	return nil
}

func (b Builder) buildMonitor(s *Simulation) error {
	s.monitor = monitoring.NewMonitor()
	if b.monitorPort > 0 {
		s.monitor.WithPortNumber(b.monitorPort)
	}

	s.monitor.RegisterTarget(s)

	url, err := s.monitor.StartServer()
	if err != nil {
		return err
	}

	s.monitorURL = url

	if b.openBrowser {
		return s.monitor.OpenInBrowser(url)
	}

	return nil
}
