package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "dense-binary", cfg.HdcStrategy)
	assert.Equal(t, "symbolicPriority", cfg.ReasoningPriority)
	assert.True(t, cfg.ProofValidationEnabled)
	assert.False(t, cfg.ClosedWorldAssumption)
	require.NoError(t, cfg.Validate())
}

func TestConfigSaveLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.HdcStrategy = "sparse-polynomial"
	cfg.ClosedWorldAssumption = true
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sparse-polynomial", loaded.HdcStrategy)
	assert.True(t, loaded.ClosedWorldAssumption)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().HdcStrategy, cfg.HdcStrategy)
}

func TestValidateRejectsUnknownStrategy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HdcStrategy = "quantum-foam"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsUndersizedFactLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.MaxFactsInKernel = 10
	assert.Error(t, cfg.Validate())
}

func TestReasonerConfigTranslatesPriority(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReasoningPriority = "holographicPriority"
	rc := cfg.ReasonerConfig()
	assert.Equal(t, 1, int(rc.Priority)) // HolographicPriority
}
