package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// FromEnv applies SITEINSPECTOR_* environment overrides on top of base
//
// Environment variables:
//   - SITEINSPECTOR_POLL_INTERVAL: wave cadence, Go duration (default: 60s)
//   - SITEINSPECTOR_MIN_WORKERS: pool lower bound (default: 1)
//   - SITEINSPECTOR_MAX_WORKERS: concurrent tasks per wave (default: 4)
//   - SITEINSPECTOR_TOTAL_WORKERS: pool admission capacity (default: 10)
//   - SITEINSPECTOR_ACTIVE_CHECK_FREQUENCY: Active re-check window (default: 8m)
//   - SITEINSPECTOR_PROBING_CHECK_FREQUENCY: Probing re-check window (default: 5m)
//   - SITEINSPECTOR_BANNED_CHECK_FREQUENCY: Banned re-check window (default: 8m)
//   - SITEINSPECTOR_ENFORCE_RATE: enforcement calls per second, 0 = unlimited
//   - SITEINSPECTOR_ENFORCE_BURST: enforcement burst size (default: 1)
//
// Returns an error if any environment variable has an invalid value or the
// merged configuration fails validation.
func FromEnv(base ThresholdConfig) (ThresholdConfig, error) {
	cfg, err := applyEnv(base)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid threshold configuration from environment: %w", err)
	}
	return cfg, nil
}

// applyEnv parses every override without validating the result
func applyEnv(base ThresholdConfig) (ThresholdConfig, error) {
	cfg := base

	if err := parseEnvDuration("SITEINSPECTOR_POLL_INTERVAL", &cfg.PollInterval); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("SITEINSPECTOR_MIN_WORKERS", &cfg.MinWorkers); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("SITEINSPECTOR_MAX_WORKERS", &cfg.MaxWorkers); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("SITEINSPECTOR_TOTAL_WORKERS", &cfg.TotalWorkerCapacity); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("SITEINSPECTOR_ACTIVE_CHECK_FREQUENCY", &cfg.ActiveCheckFrequency); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("SITEINSPECTOR_PROBING_CHECK_FREQUENCY", &cfg.ProbingCheckFrequency); err != nil {
		return cfg, err
	}
	if err := parseEnvDuration("SITEINSPECTOR_BANNED_CHECK_FREQUENCY", &cfg.BannedCheckFrequency); err != nil {
		return cfg, err
	}
	if err := parseEnvFloat("SITEINSPECTOR_ENFORCE_RATE", &cfg.EnforceRatePerSecond); err != nil {
		return cfg, err
	}
	if err := parseEnvInt("SITEINSPECTOR_ENFORCE_BURST", &cfg.EnforceBurst); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// parseEnvInt parses an int from an environment variable
func parseEnvInt(key string, dest *int) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvFloat parses a float64 from an environment variable
func parseEnvFloat(key string, dest *float64) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}

// parseEnvDuration parses a duration ("90s", "5m", "2d") from an environment variable
func parseEnvDuration(key string, dest *time.Duration) error {
	value := os.Getenv(key)
	if value == "" {
		return nil // Use default
	}
	parsed, err := parseDuration(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dest = parsed
	return nil
}
