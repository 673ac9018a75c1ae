package core

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultInitialJobCapacity uint32 = 256
	DefaultExecutorWorkers    int    = 1
	DefaultExecutorQueueSize  int    = 4
	MaxExecutorWorkers        int    = 64
)

/** @brief Logger settings. */
type LogConfig struct {
	Level string `toml:"level"`
}

/** @brief Job graph builder settings. */
type JobGraphConfig struct {
	/** @brief Number of job slots reserved up front. The table grows past it when needed. */
	InitialJobCapacity uint32 `toml:"initial_job_capacity"`
	/** @brief Make the root job depend on every job without children at submission. */
	AutoLinkTerminalJobs bool `toml:"auto_link_terminal_jobs"`
}

/** @brief Frame executor settings. */
type ExecutorConfig struct {
	/** @brief Execute frames on the job system instead of the recording goroutine. */
	Async bool `toml:"async"`
	/** @brief Worker count of the job system. */
	Workers int `toml:"workers"`
	/** @brief Number of frames that can be queued before SubmitRootJob blocks. */
	QueueSize int `toml:"queue_size"`
}

type Config struct {
	Log      LogConfig      `toml:"log"`
	JobGraph JobGraphConfig `toml:"jobgraph"`
	Executor ExecutorConfig `toml:"executor"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
		JobGraph: JobGraphConfig{
			InitialJobCapacity:   DefaultInitialJobCapacity,
			AutoLinkTerminalJobs: true,
		},
		Executor: ExecutorConfig{
			Async:     false,
			Workers:   DefaultExecutorWorkers,
			QueueSize: DefaultExecutorQueueSize,
		},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strictErr *toml.StrictMissingError
		if errors.As(err, &strictErr) {
			return nil, fmt.Errorf("%s: %w", strictErr.String(), ErrInvalidConfig)
		}
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes out of range values and rejects the ones that cannot be fixed.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Executor.QueueSize < 0 {
		return fmt.Errorf("executor.queue_size must be >= 0, got %d: %w", c.Executor.QueueSize, ErrInvalidConfig)
	}
	if c.JobGraph.InitialJobCapacity == 0 {
		c.JobGraph.InitialJobCapacity = DefaultInitialJobCapacity
	}
	workers := Clamp(c.Executor.Workers, 1, MaxExecutorWorkers)
	if workers != c.Executor.Workers {
		LogWarn("executor.workers=%d out of range, using %d", c.Executor.Workers, workers)
		c.Executor.Workers = workers
	}
	return nil
}

// Apply pushes the runtime-tunable parts of the config into the engine globals.
func (c *Config) Apply() {
	level, err := ParseLogLevel(c.Log.Level)
	if err != nil {
		LogWarn("%s", err)
		return
	}
	SetLogLevel(level)
}
