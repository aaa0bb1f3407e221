package config

import (
	"fmt"
	"time"
)

// ThresholdConfig holds the inspection cadence, pool sizing and per-status
// re-check frequencies. The orchestrator copies it at the start of each wave.
type ThresholdConfig struct {
	// PollInterval is how often the agent triggers a new wave
	// Default: 60s, Range: 1s-24h
	PollInterval time.Duration `yaml:"poll_interval"`

	// MinWorkers is the lower bound of the worker pool
	// Default: 1, Range: 0-MaxWorkers
	MinWorkers int `yaml:"min_workers"`

	// MaxWorkers is the number of concurrent tasks per wave.
	// One slot runs discovery, the remaining MaxWorkers-1 run inspectors.
	// Default: 4, Range: 1-256
	MaxWorkers int `yaml:"max_workers"`

	// TotalWorkerCapacity bounds the number of tasks that may be submitted
	// (running or waiting for a slot) to the pool at once
	// Default: 10, Range: MaxWorkers-4096
	TotalWorkerCapacity int `yaml:"total_worker_capacity"`

	// ActiveCheckFrequency is how long an Active site stays fresh after a check
	// Default: 8m
	ActiveCheckFrequency time.Duration `yaml:"active_check_frequency"`

	// ProbingCheckFrequency is how long a Probing site stays fresh after a check
	// Default: 5m
	ProbingCheckFrequency time.Duration `yaml:"probing_check_frequency"`

	// BannedCheckFrequency is how long a Banned site stays fresh after a check
	// Default: 8m
	BannedCheckFrequency time.Duration `yaml:"banned_check_frequency"`

	// EnforceRatePerSecond caps policy enforcement calls per second across all inspectors
	// Default: 0 (unlimited)
	EnforceRatePerSecond float64 `yaml:"enforce_rate_per_second"`

	// EnforceBurst is the token bucket size used with EnforceRatePerSecond
	// Default: 1, Range: 1-1000
	EnforceBurst int `yaml:"enforce_burst"`
}

// DefaultThresholdConfig returns the default inspection configuration
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		PollInterval:          60 * time.Second,
		MinWorkers:            1,
		MaxWorkers:            4,
		TotalWorkerCapacity:   10,
		ActiveCheckFrequency:  8 * time.Minute,
		ProbingCheckFrequency: 5 * time.Minute,
		BannedCheckFrequency:  8 * time.Minute,
		EnforceRatePerSecond:  0,
		EnforceBurst:          1,
	}
}

// Validate checks if the configuration has valid values
func (c ThresholdConfig) Validate() error {
	if c.PollInterval < time.Second || c.PollInterval > 24*time.Hour {
		return fmt.Errorf("poll_interval must be between 1s and 24h (got %v)", c.PollInterval)
	}

	if c.MaxWorkers < 1 || c.MaxWorkers > 256 {
		return fmt.Errorf("max_workers must be between 1 and 256 (got %d)", c.MaxWorkers)
	}
	if c.MinWorkers < 0 || c.MinWorkers > c.MaxWorkers {
		return fmt.Errorf("min_workers must be between 0 and max_workers %d (got %d)",
			c.MaxWorkers, c.MinWorkers)
	}
	if c.TotalWorkerCapacity < c.MaxWorkers || c.TotalWorkerCapacity > 4096 {
		return fmt.Errorf("total_worker_capacity must be between max_workers %d and 4096 (got %d)",
			c.MaxWorkers, c.TotalWorkerCapacity)
	}

	frequencies := []struct {
		name  string
		value time.Duration
	}{
		{"active_check_frequency", c.ActiveCheckFrequency},
		{"probing_check_frequency", c.ProbingCheckFrequency},
		{"banned_check_frequency", c.BannedCheckFrequency},
	}
	for _, f := range frequencies {
		if f.value <= 0 {
			return fmt.Errorf("%s must be positive (got %v)", f.name, f.value)
		}
		if f.value > 30*24*time.Hour {
			return fmt.Errorf("%s too large (got %v, max 30 days)", f.name, f.value)
		}
	}

	if c.EnforceRatePerSecond < 0 {
		return fmt.Errorf("enforce_rate_per_second cannot be negative (got %.2f)", c.EnforceRatePerSecond)
	}
	if c.EnforceBurst < 1 || c.EnforceBurst > 1000 {
		return fmt.Errorf("enforce_burst must be between 1 and 1000 (got %d)", c.EnforceBurst)
	}

	return nil
}

// InspectorCount returns how many inspector tasks a wave schedules
func (c ThresholdConfig) InspectorCount() int {
	return max(c.MaxWorkers-1, 0)
}

// String returns a human-readable representation of the config
func (c ThresholdConfig) String() string {
	return fmt.Sprintf(
		"ThresholdConfig{PollInterval: %v, Workers: %d/%d/%d, "+
			"Active: %v, Probing: %v, Banned: %v, EnforceRate: %.2f/s (burst %d)}",
		c.PollInterval, c.MinWorkers, c.MaxWorkers, c.TotalWorkerCapacity,
		c.ActiveCheckFrequency, c.ProbingCheckFrequency, c.BannedCheckFrequency,
		c.EnforceRatePerSecond, c.EnforceBurst,
	)
}
