package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cachesim/mem/cache"
)

// unset marks a geometry field that has not been given.
const unset = -1

// Config holds everything a run needs. It is assembled from, in increasing
// priority, built-in defaults, CSIM_* environment variables (a .env file in
// the working directory is loaded first), a YAML file and command-line flags.
type Config struct {
	Geometry cache.Geometry `yaml:",inline"`

	Trace       string `yaml:"trace"`
	Verbose     bool   `yaml:"verbose"`
	LogLevel    string `yaml:"log_level"`
	Record      bool   `yaml:"record"`
	RecordFile  string `yaml:"record_file"`
	ResultsFile string `yaml:"results_file"`
	Monitor     bool   `yaml:"monitor"`
	MonitorPort int    `yaml:"monitor_port"`
	OpenBrowser bool   `yaml:"open_browser"`
}

// DefaultConfig returns a config with no geometry and no trace.
func DefaultConfig() Config {
	return Config{
		Geometry: cache.Geometry{
			SetIndexBits:    unset,
			Associativity:   unset,
			BlockOffsetBits: unset,
		},
		LogLevel: "info",
	}
}

// LoadEnv loads envFile if it exists and applies the CSIM_* variables.
func (c *Config) LoadEnv(envFile string) error {
	err := godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	if v, ok := os.LookupEnv("CSIM_LOG_LEVEL"); ok {
		c.LogLevel = v
	}

	if v, ok := os.LookupEnv("CSIM_TRACE"); ok {
		c.Trace = v
	}

	if v, ok := os.LookupEnv("CSIM_RECORD_FILE"); ok {
		c.RecordFile = v
	}

	if v, ok := os.LookupEnv("CSIM_RESULTS_FILE"); ok {
		c.ResultsFile = v
	}

	if v, ok := os.LookupEnv("CSIM_MONITOR_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CSIM_MONITOR_PORT %q: %w", v, err)
		}

		c.MonitorPort = port
	}

	return nil
}

// LoadFile overlays the fields present in a YAML file. Unknown fields are
// rejected so that typos do not go unnoticed.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	err = decoder.Decode(c)
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	return nil
}

// Validate checks that the config is complete and that every geometry
// field is positive.
func (c *Config) Validate() error {
	if c.Trace == "" {
		return errors.New("no trace file given (-t)")
	}

	if c.Geometry.SetIndexBits == unset {
		return errors.New("number of set index bits not given (-s)")
	}

	if c.Geometry.Associativity == unset {
		return errors.New("number of lines per set not given (-E)")
	}

	if c.Geometry.BlockOffsetBits == unset {
		return errors.New("number of block offset bits not given (-b)")
	}

	if c.Geometry.SetIndexBits < 1 ||
		c.Geometry.Associativity < 1 ||
		c.Geometry.BlockOffsetBits < 1 {
		return fmt.Errorf("%w: -s, -E and -b must be positive, got %s",
			cache.ErrInvalidGeometry, c.Geometry)
	}

	return c.Geometry.Validate()
}
