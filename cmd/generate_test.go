package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/camtrace/sim"
	"github.com/inference-sim/camtrace/sim/trace"
)

// writeFile writes content under root, creating parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// writeUniformIntervalsModel writes an order-1 interval model where every class
// follows every other with probability 0.1, under root.
func writeUniformIntervalsModel(t *testing.T, root string) {
	t.Helper()
	var m, pdf strings.Builder
	for from := 1; from <= 10; from++ {
		for to := 1; to <= 10; to++ {
			fmt.Fprintf(&m, "%d,%d,0.1\n", from, to)
		}
		fmt.Fprintf(&pdf, "%d,0.1\n", from)
	}
	writeFile(t, filepath.Join(root, "M_matrix", "M_VolkswagenHighway_IntervalsOnly_m1.csv"), m.String())
	writeFile(t, filepath.Join(root, "PDF", "PDF_VolkswagenHighway_IntervalsOnly_m1.csv"), pdf.String())
}

func intervalsRunConfig(modelsDir, outDir string) RunConfig {
	cfg := DefaultRunConfig()
	cfg.ModelsDir = modelsDir
	cfg.OutputDir = outDir
	cfg.Profile = "Volkswagen"
	cfg.Model = "Intervals"
	cfg.Vehicles = 3
	cfg.DurationSeconds = 5
	return cfg
}

func TestRunGenerate_WritesTracesAndHeader(t *testing.T) {
	// GIVEN an interval model and a 5 s run with the default 10% buffer
	models, out := t.TempDir(), filepath.Join(t.TempDir(), "traces")
	writeUniformIntervalsModel(t, models)

	// WHEN three vehicles are generated
	res, err := runGenerate(context.Background(), intervalsRunConfig(models, out))

	// THEN one trace per vehicle fits the 5.5 s budget and the header describes the run
	require.NoError(t, err)
	assert.Equal(t, 3, res.Vehicles)

	traces, err := trace.ReadDir(out)
	require.NoError(t, err)
	require.Len(t, traces, 3)
	for _, vt := range traces {
		total := 0
		for _, r := range vt.Records {
			total += r.IntervalMs
			assert.Zero(t, r.SizeBytes)
		}
		assert.LessOrEqual(t, total, 5500, "vehicle %d", vt.ID)
		assert.Equal(t, "0.0", vt.Records[0].Timestamp)
	}

	h, err := trace.ReadHeader(out)
	require.NoError(t, err)
	assert.Equal(t, "Intervals", h.Model)
	assert.Equal(t, "Highway", h.Scenario)
	assert.Equal(t, 3, h.Vehicles)
	assert.Equal(t, 56, h.MaxEvents)
}

func TestRunGenerate_SameSeedSameFiles_AnyWorkerCount(t *testing.T) {
	models := t.TempDir()
	writeUniformIntervalsModel(t, models)

	a := intervalsRunConfig(models, t.TempDir())
	a.Workers = 1
	b := intervalsRunConfig(models, t.TempDir())
	b.Workers = 4

	_, err := runGenerate(context.Background(), a)
	require.NoError(t, err)
	_, err = runGenerate(context.Background(), b)
	require.NoError(t, err)

	for id := 1; id <= 3; id++ {
		da, err := os.ReadFile(filepath.Join(a.OutputDir, trace.FileName(id)))
		require.NoError(t, err)
		db, err := os.ReadFile(filepath.Join(b.OutputDir, trace.FileName(id)))
		require.NoError(t, err)
		assert.Equal(t, string(da), string(db), "vehicle %d", id)
	}
}

func TestRunGenerate_MissingModel(t *testing.T) {
	out := t.TempDir()
	_, err := runGenerate(context.Background(), intervalsRunConfig(t.TempDir(), out))

	assert.ErrorIs(t, err, sim.ErrModelNotFound)
	entries, _ := os.ReadDir(out)
	assert.Empty(t, entries, "no trace or header on failure")
}

func TestRunConfig_Plan_DerivesBudgetAndBound(t *testing.T) {
	cfg := intervalsRunConfig("m", "o")
	cfg.DurationSeconds = 10

	p, err := cfg.plan()

	require.NoError(t, err)
	assert.Equal(t, int64(11_000), p.generator.Budget.Milliseconds())
	assert.Equal(t, 111, p.generator.MaxSymbols)
	assert.Equal(t, "VolkswagenHighway_IntervalsOnly_m1.csv", p.key.BaseName())
}

func TestRunConfig_Plan_SizesInterval(t *testing.T) {
	cfg := intervalsRunConfig("m", "o")
	cfg.Model = "SizesOnly"
	cfg.Profile = "ManufacturerB"
	cfg.MaxEvents = 20

	p, err := cfg.plan()

	require.NoError(t, err)
	assert.Equal(t, sim.ProfileRenault, p.key.Profile)
	assert.Equal(t, sim.DefaultSizesIntervalMs, p.generator.SizesIntervalMs)
	assert.Equal(t, sim.DefaultSizesIntervalMs, p.header.SizesIntervalMs)
	assert.Equal(t, 20, p.generator.MaxSymbols)
}

func TestRunConfig_Plan_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RunConfig)
	}{
		{"missing profile", func(c *RunConfig) { c.Profile = "" }},
		{"unknown scenario", func(c *RunConfig) { c.Scenario = "Rural" }},
		{"unknown model", func(c *RunConfig) { c.Model = "Hybrid" }},
		{"order 3", func(c *RunConfig) { c.Order = 3 }},
		{"zero duration", func(c *RunConfig) { c.DurationSeconds = 0 }},
		{"negative buffer", func(c *RunConfig) { c.BufferFactor = -0.5 }},
		{"negative max events", func(c *RunConfig) { c.MaxEvents = -1 }},
		{"zero vehicles", func(c *RunConfig) { c.Vehicles = 0 }},
		{"unknown rng", func(c *RunConfig) { c.RNG = "mt19937" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := intervalsRunConfig("m", "o")
			tt.mutate(&cfg)
			_, err := cfg.plan()
			assert.ErrorIs(t, err, sim.ErrConfiguration)
		})
	}
}
