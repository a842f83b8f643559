// Package config loads benchmark run configuration. A run is described by
// a YAML file listing the queue capacity, the per-iteration duration, and
// the producer/consumer combinations to sweep; when no file is given the
// compiled-in defaults are used.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so it can be written as "5s" or "250ms" in
// YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Scenario is one producer/consumer combination to benchmark.
type Scenario struct {
	Producers int `yaml:"producers"`
	Consumers int `yaml:"consumers"`
}

// Config describes a full benchmark run.
type Config struct {
	// Maxsize is the capacity each queue is created with.
	Maxsize int `yaml:"maxsize"`

	// Iterations is how many times each scenario is repeated.
	Iterations int `yaml:"iterations"`

	// Duration is how long each iteration runs.
	Duration Duration `yaml:"duration"`

	// Scenarios are the concurrency combinations to sweep.
	Scenarios []Scenario `yaml:"scenarios"`
}

// Default returns the configuration used when no file is supplied. The
// scenario sweep matches the combinations the project has always
// benchmarked.
func Default() *Config {
	return &Config{
		Maxsize:    1024,
		Iterations: 5,
		Duration:   Duration(5 * time.Second),
		Scenarios: []Scenario{
			{Producers: 2, Consumers: 2},
			{Producers: 10, Consumers: 10},
			{Producers: 50, Consumers: 50},
		},
	}
}

// HighConcurrency returns the extra scenarios enabled by the
// -high-concurrency flag.
func HighConcurrency() []Scenario {
	return []Scenario{
		{Producers: 100, Consumers: 100},
		{Producers: 250, Consumers: 250},
		{Producers: 500, Consumers: 500},
	}
}

// Load reads a YAML configuration file. Fields left out of the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Maxsize < 0 {
		return fmt.Errorf("maxsize must not be negative, got %d", c.Maxsize)
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if time.Duration(c.Duration) <= 0 {
		return fmt.Errorf("duration must be positive, got %s", time.Duration(c.Duration))
	}
	for i, s := range c.Scenarios {
		if s.Producers < 1 || s.Consumers < 1 {
			return fmt.Errorf("scenario %d needs at least one producer and one consumer", i)
		}
	}
	return nil
}
