package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a trace against the cache and print the totals.",
	Long: "`run -s <s> -E <E> -b <b> -t <trace>` simulates a cache with " +
		"2^s sets of E lines holding 2^b-byte blocks.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := buildConfig(cmd)
		if err != nil {
			return err
		}

		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q", cfg.LogLevel)
		}
		logrus.SetLevel(level)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return run(ctx, cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.IntP("set-index-bits", "s", unset,
		"Number of set index bits (2^s sets)")
	flags.IntP("associativity", "E", unset, "Number of lines per set")
	flags.IntP("block-offset-bits", "b", unset,
		"Number of block offset bits (2^b bytes per block)")
	flags.StringP("trace", "t", "", "Valgrind trace to replay")
	flags.BoolP("verbose", "v", false, "Print the outcome of every access")
	flags.String("config", "", "YAML file with the run configuration")
	flags.String("env-file", ".env", "File with CSIM_* variables")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("record", false, "Record every access into a SQLite database")
	flags.String("record-file", "",
		"Database name for --record, without the .sqlite3 suffix")
	flags.String("results-file", "",
		"Also write \"hits misses evictions\" into this file")
	flags.Bool("monitor", false, "Serve the state of the run over HTTP")
	flags.Int("monitor-port", 0, "Port of the monitoring server")
	flags.Bool("open-browser", false, "Open the monitoring page")
}

func buildConfig(cmd *cobra.Command) (Config, error) {
	cfg := DefaultConfig()
	flags := cmd.Flags()

	envFile, _ := flags.GetString("env-file")
	if err := cfg.LoadEnv(envFile); err != nil {
		return cfg, err
	}

	if path, _ := flags.GetString("config"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return cfg, err
		}
	}

	overrideInt(cmd, "set-index-bits", &cfg.Geometry.SetIndexBits)
	overrideInt(cmd, "associativity", &cfg.Geometry.Associativity)
	overrideInt(cmd, "block-offset-bits", &cfg.Geometry.BlockOffsetBits)
	overrideInt(cmd, "monitor-port", &cfg.MonitorPort)
	overrideString(cmd, "trace", &cfg.Trace)
	overrideString(cmd, "log-level", &cfg.LogLevel)
	overrideString(cmd, "record-file", &cfg.RecordFile)
	overrideString(cmd, "results-file", &cfg.ResultsFile)
	overrideBool(cmd, "verbose", &cfg.Verbose)
	overrideBool(cmd, "record", &cfg.Record)
	overrideBool(cmd, "monitor", &cfg.Monitor)
	overrideBool(cmd, "open-browser", &cfg.OpenBrowser)

	return cfg, cfg.Validate()
}

func overrideInt(cmd *cobra.Command, name string, v *int) {
	if cmd.Flags().Changed(name) {
		*v, _ = cmd.Flags().GetInt(name)
	}
}

func overrideString(cmd *cobra.Command, name string, v *string) {
	if cmd.Flags().Changed(name) {
		*v, _ = cmd.Flags().GetString(name)
	}
}

func overrideBool(cmd *cobra.Command, name string, v *bool) {
	if cmd.Flags().Changed(name) {
		*v, _ = cmd.Flags().GetBool(name)
	}
}

func buildSimulation(cfg Config, out io.Writer) (*simulation.Simulation, error) {
	b := simulation.MakeBuilder().WithGeometry(cfg.Geometry)

	if cfg.Verbose {
		b = b.WithVerbose(out)
	}

	if cfg.Record {
		b = b.WithDataRecording()
		if cfg.RecordFile != "" {
			b = b.WithOutputFileName(cfg.RecordFile)
		}
	}

	if cfg.Monitor {
		b = b.WithMonitoring().WithMonitorPort(cfg.MonitorPort)
		if cfg.OpenBrowser {
			b = b.WithBrowser()
		}
	}

	return b.Build()
}

func run(ctx context.Context, cfg Config, out io.Writer) (err error) {
	logrus.Infof("Simulating cache %s (%d sets, %d bytes) on %s",
		cfg.Geometry, cfg.Geometry.NumSets(), cfg.Geometry.Capacity(),
		cfg.Trace)

	f, err := os.Open(cfg.Trace)
	if err != nil {
		return fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()

	sim, err := buildSimulation(cfg, out)
	if err != nil {
		return err
	}
	defer func() {
		if termErr := sim.Terminate(); termErr != nil && err == nil {
			err = termErr
		}
	}()

	start := time.Now()

	counters, err := sim.Run(ctx, f)
	if err != nil {
		return err
	}

	logrus.Debugf("Simulation %s finished in %s", sim.ID(), time.Since(start))

	printSummary(out, counters)

	if cfg.ResultsFile != "" {
		err = writeResults(cfg.ResultsFile, counters)
		if err != nil {
			return err
		}
	}

	logrus.Infof("Hit rate %.2f%% over %d references",
		100*counters.HitRate(), counters.Accesses())

	return nil
}

func printSummary(w io.Writer, c cache.Counters) {
	fmt.Fprintf(w, "hits:%d misses:%d evictions:%d\n",
		c.Hits, c.Misses, c.Evictions)
}

func writeResults(path string, c cache.Counters) error {
	content := fmt.Sprintf("%d %d %d\n", c.Hits, c.Misses, c.Evictions)

	err := os.WriteFile(path, []byte(content), 0o644)
	if err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	return nil
}
