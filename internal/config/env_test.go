package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(DefaultThresholdConfig())
	require.NoError(t, err)
	assert.Equal(t, DefaultThresholdConfig(), cfg)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("SITEINSPECTOR_POLL_INTERVAL", "2m")
	t.Setenv("SITEINSPECTOR_MAX_WORKERS", "8")
	t.Setenv("SITEINSPECTOR_TOTAL_WORKERS", "16")
	t.Setenv("SITEINSPECTOR_ACTIVE_CHECK_FREQUENCY", "1d")
	t.Setenv("SITEINSPECTOR_ENFORCE_RATE", "2.5")

	cfg, err := FromEnv(DefaultThresholdConfig())
	require.NoError(t, err)

	assert.Equal(t, 2*time.Minute, cfg.PollInterval)
	assert.Equal(t, 8, cfg.MaxWorkers)
	assert.Equal(t, 16, cfg.TotalWorkerCapacity)
	assert.Equal(t, 24*time.Hour, cfg.ActiveCheckFrequency)
	assert.Equal(t, 2.5, cfg.EnforceRatePerSecond)
	assert.Equal(t, 5*time.Minute, cfg.ProbingCheckFrequency, "unset variables keep the base value")
}

func TestFromEnvInvalidValue(t *testing.T) {
	t.Setenv("SITEINSPECTOR_MAX_WORKERS", "many")

	_, err := FromEnv(DefaultThresholdConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SITEINSPECTOR_MAX_WORKERS")
}

func TestFromEnvFailsValidation(t *testing.T) {
	t.Setenv("SITEINSPECTOR_MAX_WORKERS", "20")

	_, err := FromEnv(DefaultThresholdConfig())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "total_worker_capacity")
}
