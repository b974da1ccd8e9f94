package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings in Go's
// duration notation ("30s", "1m30s").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)

	return nil
}

// Std returns the wrapped standard duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// FileConfig is the daemon's YAML configuration.
type FileConfig struct {
	// Listen is the HTTP long-polling listen address.
	Listen string `yaml:"listen"`

	// MetricsListen is the Prometheus /metrics listen address. Empty
	// disables the metrics listener.
	MetricsListen string `yaml:"metricsListen"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`

	// PollTimeout bounds how long a long-poll stays parked.
	PollTimeout Duration `yaml:"pollTimeout"`

	// EvictInterval is the expired-request sweep interval.
	EvictInterval Duration `yaml:"evictInterval"`

	// DefaultWatchActive selects the initial viewport watch state.
	DefaultWatchActive bool `yaml:"defaultWatchActive"`

	// NATS configures the change-event feed. An empty URL runs without an
	// external feed (viewport watches still work).
	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subjectPrefix"`
	} `yaml:"nats"`
}

func defaultConfig() *FileConfig {
	cfg := &FileConfig{
		Listen:        ":8080",
		MetricsListen: ":9090",
		LogLevel:      "info",
		PollTimeout:   Duration(30 * time.Second),
		EvictInterval: Duration(5 * time.Second),
	}

	return cfg
}

// loadConfig reads the YAML file at path over the defaults. An empty path
// returns the defaults unchanged.
func loadConfig(path string) (*FileConfig, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}
