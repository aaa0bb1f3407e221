package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultThresholdConfig(t *testing.T) {
	cfg := DefaultThresholdConfig()

	if cfg.PollInterval != 60*time.Second {
		t.Errorf("Expected PollInterval to be 60s, got %v", cfg.PollInterval)
	}
	if cfg.MaxWorkers != 4 {
		t.Errorf("Expected MaxWorkers to be 4, got %d", cfg.MaxWorkers)
	}
	if cfg.ActiveCheckFrequency != 8*time.Minute {
		t.Errorf("Expected ActiveCheckFrequency to be 8m, got %v", cfg.ActiveCheckFrequency)
	}
	if cfg.ProbingCheckFrequency != 5*time.Minute {
		t.Errorf("Expected ProbingCheckFrequency to be 5m, got %v", cfg.ProbingCheckFrequency)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestThresholdConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*ThresholdConfig)
		wantErr string
	}{
		{
			name:   "default config is valid",
			modify: func(c *ThresholdConfig) {},
		},
		{
			name: "single worker is valid",
			modify: func(c *ThresholdConfig) {
				c.MinWorkers = 1
				c.MaxWorkers = 1
				c.TotalWorkerCapacity = 1
			},
		},
		{
			name:    "poll interval too short",
			modify:  func(c *ThresholdConfig) { c.PollInterval = 500 * time.Millisecond },
			wantErr: "poll_interval",
		},
		{
			name:    "zero max workers",
			modify:  func(c *ThresholdConfig) { c.MaxWorkers = 0 },
			wantErr: "max_workers",
		},
		{
			name:    "min above max",
			modify:  func(c *ThresholdConfig) { c.MinWorkers = 5 },
			wantErr: "min_workers",
		},
		{
			name:    "negative min",
			modify:  func(c *ThresholdConfig) { c.MinWorkers = -1 },
			wantErr: "min_workers",
		},
		{
			name:    "total below max",
			modify:  func(c *ThresholdConfig) { c.TotalWorkerCapacity = 3 },
			wantErr: "total_worker_capacity",
		},
		{
			name:    "zero active frequency",
			modify:  func(c *ThresholdConfig) { c.ActiveCheckFrequency = 0 },
			wantErr: "active_check_frequency",
		},
		{
			name:    "banned frequency too large",
			modify:  func(c *ThresholdConfig) { c.BannedCheckFrequency = 31 * 24 * time.Hour },
			wantErr: "banned_check_frequency",
		},
		{
			name:    "negative enforce rate",
			modify:  func(c *ThresholdConfig) { c.EnforceRatePerSecond = -1 },
			wantErr: "enforce_rate_per_second",
		},
		{
			name:    "zero burst",
			modify:  func(c *ThresholdConfig) { c.EnforceBurst = 0 },
			wantErr: "enforce_burst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultThresholdConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestInspectorCount(t *testing.T) {
	tests := []struct {
		maxWorkers int
		want       int
	}{
		{maxWorkers: 0, want: 0},
		{maxWorkers: 1, want: 0},
		{maxWorkers: 3, want: 2},
		{maxWorkers: 4, want: 3},
	}
	for _, tt := range tests {
		cfg := ThresholdConfig{MaxWorkers: tt.maxWorkers}
		if got := cfg.InspectorCount(); got != tt.want {
			t.Errorf("InspectorCount() with MaxWorkers=%d = %d, want %d", tt.maxWorkers, got, tt.want)
		}
	}
}

func TestThresholdConfigString(t *testing.T) {
	s := DefaultThresholdConfig().String()
	for _, want := range []string{"Workers: 1/4/10", "Active: 8m0s", "Probing: 5m0s"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
}
