package cmd

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/camtrace/sim"
)

func TestLoadRunConfig_KeepsDefaultsForMissingKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	writeFile(t, path, "vehicles: 20\nduration_s: 60\nprofile: Renault\nscenario: Urban\nmodel: Sizes\norder: 5\n")

	cfg, err := LoadRunConfig(path)

	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Vehicles)
	assert.Equal(t, 60.0, cfg.DurationSeconds)
	assert.Equal(t, "Renault", cfg.Profile)
	assert.Equal(t, 5, cfg.Order)
	assert.Equal(t, sim.DefaultBufferFactor, cfg.BufferFactor)
	assert.Equal(t, int64(42), cfg.Seed)
}

func TestLoadRunConfig_UnknownKeyRejected(t *testing.T) {
	// GIVEN a config with a misspelled key
	path := filepath.Join(t.TempDir(), "run.yaml")
	writeFile(t, path, "vehicle: 20\n")

	// WHEN loaded
	_, err := LoadRunConfig(path)

	// THEN strict parsing fails
	assert.ErrorIs(t, err, sim.ErrConfiguration)
}

func TestLoadRunConfig_MissingFile(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestResolveRunConfig_ChangedFlagsOverrideFile(t *testing.T) {
	// GIVEN a config file setting vehicles and seed
	path := filepath.Join(t.TempDir(), "run.yaml")
	writeFile(t, path, "vehicles: 5\nseed: 9\nprofile: Volkswagen\n")

	cmd := &cobra.Command{}
	var flagged RunConfig
	bindRunFlags(cmd, &flagged)

	// WHEN only --seed is given on the command line
	require.NoError(t, cmd.Flags().Set("seed", "11"))
	cfg, err := resolveRunConfig(cmd, path, flagged)

	// THEN the flag wins and the other file values survive
	require.NoError(t, err)
	assert.Equal(t, int64(11), cfg.Seed)
	assert.Equal(t, 5, cfg.Vehicles)
	assert.Equal(t, "Volkswagen", cfg.Profile)
}

func TestResolveRunConfig_NoFileUsesFlags(t *testing.T) {
	cmd := &cobra.Command{}
	var flagged RunConfig
	bindRunFlags(cmd, &flagged)
	require.NoError(t, cmd.Flags().Set("vehicles", "7"))

	cfg, err := resolveRunConfig(cmd, "", flagged)

	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Vehicles)
	assert.Equal(t, DefaultRunConfig().Scenario, cfg.Scenario)
}
