package pushhub

import (
	"fmt"
	"time"
)

// Config controls Manager behavior.
type Config struct {
	// PollTimeout is how long a parked request may stay suspended before the
	// transport completes it as a timeout. The eviction sweeper uses the
	// transport-reported expiry, so this value only needs to agree with the
	// transport's own deadline.
	//
	// Default: 30 seconds
	PollTimeout time.Duration `yaml:"pollTimeout"`

	// EvictInterval is how often the sweeper scans sessions for expired
	// parked requests. Eviction clears the stale request but leaves the
	// session intact so the client can re-attach.
	//
	// Default: 5 seconds
	EvictInterval time.Duration `yaml:"evictInterval"`

	// DefaultWatchActive selects the initial state of a newly created
	// viewport watch. The safe default is false (Inactive): nothing is
	// delivered until the client explicitly activates the watch.
	DefaultWatchActive bool `yaml:"defaultWatchActive"`

	// ClientIDPrefix is prepended to issued client IDs. Useful when several
	// web-tier nodes share one URL space. Empty by default.
	ClientIDPrefix string `yaml:"clientIdPrefix"`
}

// SetDefaults fills in zero-valued fields with defaults.
func SetDefaults(cfg *Config) {
	if cfg.PollTimeout == 0 {
		cfg.PollTimeout = 30 * time.Second
	}
	if cfg.EvictInterval == 0 {
		cfg.EvictInterval = 5 * time.Second
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.PollTimeout < 0 {
		return fmt.Errorf("%w: pollTimeout must be positive", ErrInvalidConfig)
	}
	if c.EvictInterval < 0 {
		return fmt.Errorf("%w: evictInterval must be positive", ErrInvalidConfig)
	}
	if c.EvictInterval > c.PollTimeout {
		return fmt.Errorf("%w: evictInterval %v exceeds pollTimeout %v, expired requests would linger",
			ErrInvalidConfig, c.EvictInterval, c.PollTimeout)
	}

	return nil
}
