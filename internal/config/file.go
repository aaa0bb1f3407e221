package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFile represents the structure of .siteinspector/config.yaml.
// Durations are strings ("90s", "8m", "1d"); zero values keep the default.
type ConfigFile struct {
	PollInterval string `yaml:"poll_interval"`

	Workers WorkersConfig `yaml:"workers"`

	CheckFrequency CheckFrequencyConfig `yaml:"check_frequency"`

	Enforce EnforceConfig `yaml:"enforce"`
}

// WorkersConfig defines pool sizing in the config file.
type WorkersConfig struct {
	Min   *int `yaml:"min"`
	Max   int  `yaml:"max"`
	Total int  `yaml:"total"`
}

// CheckFrequencyConfig defines per-status re-check windows in the config file.
type CheckFrequencyConfig struct {
	Active  string `yaml:"active"`
	Probing string `yaml:"probing"`
	Banned  string `yaml:"banned"`
}

// EnforceConfig defines enforcement rate limiting in the config file.
type EnforceConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
}

// LoadFromFile loads configuration from a YAML file.
// Returns the default config if the file doesn't exist. The result is not
// validated: environment overrides may still complete it (see Load).
func LoadFromFile(path string) (ThresholdConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultThresholdConfig(), nil
		}
		return ThresholdConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	var cf ConfigFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return ThresholdConfig{}, fmt.Errorf("parsing config file: %w", err)
	}

	return cf.ToConfig()
}

// Load reads the config file (if any), applies environment overrides and
// validates the merged result
func Load(path string) (ThresholdConfig, error) {
	cfg := DefaultThresholdConfig()
	if path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}
	cfg, err := applyEnv(cfg)
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid threshold configuration: %w", err)
	}
	return cfg, nil
}

// ToConfig converts a ConfigFile to a ThresholdConfig, starting from defaults.
func (cf *ConfigFile) ToConfig() (ThresholdConfig, error) {
	cfg := DefaultThresholdConfig()

	durations := []struct {
		name string
		raw  string
		dest *time.Duration
	}{
		{"poll_interval", cf.PollInterval, &cfg.PollInterval},
		{"check_frequency.active", cf.CheckFrequency.Active, &cfg.ActiveCheckFrequency},
		{"check_frequency.probing", cf.CheckFrequency.Probing, &cfg.ProbingCheckFrequency},
		{"check_frequency.banned", cf.CheckFrequency.Banned, &cfg.BannedCheckFrequency},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := parseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", d.name, err)
		}
		*d.dest = parsed
	}

	if cf.Workers.Min != nil {
		cfg.MinWorkers = *cf.Workers.Min
	}
	if cf.Workers.Max > 0 {
		cfg.MaxWorkers = cf.Workers.Max
	}
	if cf.Workers.Total > 0 {
		cfg.TotalWorkerCapacity = cf.Workers.Total
	}

	if cf.Enforce.RatePerSecond > 0 {
		cfg.EnforceRatePerSecond = cf.Enforce.RatePerSecond
	}
	if cf.Enforce.Burst > 0 {
		cfg.EnforceBurst = cf.Enforce.Burst
	}

	return cfg, nil
}

// parseDuration parses a duration string, supporting a "d" suffix for days
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", s, err)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
