package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/camtrace/sim"
)

// RunConfig holds every parameter of a generate run. It can be read from a YAML
// file with --config; flags given on the command line take precedence.
type RunConfig struct {
	Vehicles        int     `yaml:"vehicles"`
	DurationSeconds float64 `yaml:"duration_s"`
	OutputDir       string  `yaml:"output_dir"`
	ModelsDir       string  `yaml:"models_dir"`
	Profile         string  `yaml:"profile"`
	Scenario        string  `yaml:"scenario"`
	Model           string  `yaml:"model"`
	Order           int     `yaml:"order"`
	Seed            int64   `yaml:"seed"`
	BufferFactor    float64 `yaml:"buffer_factor"`
	MaxEvents       int     `yaml:"max_events"`        // 0 derives the bound from the duration
	SizesIntervalMs int     `yaml:"sizes_interval_ms"` // 0 means sim.DefaultSizesIntervalMs
	Workers         int     `yaml:"workers"`           // 0 means GOMAXPROCS
	RNG             string  `yaml:"rng"`
}

// DefaultRunConfig returns the flag defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Vehicles:     1,
		OutputDir:    ".",
		ModelsDir:    ".",
		Scenario:     string(sim.ScenarioHighway),
		Model:        string(sim.ModeComplete),
		Order:        1,
		Seed:         42,
		BufferFactor: sim.DefaultBufferFactor,
		RNG:          "math",
	}
}

// LoadRunConfig reads path over DefaultRunConfig. Unknown keys are rejected.
func LoadRunConfig(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading run config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing run config %s: %v", sim.ErrConfiguration, path, err)
	}
	return cfg, nil
}

// bindRunFlags registers the generate flags on cmd, writing into cfg.
func bindRunFlags(cmd *cobra.Command, cfg *RunConfig) {
	def := DefaultRunConfig()
	f := cmd.Flags()
	f.IntVarP(&cfg.Vehicles, "vehicles", "n", def.Vehicles, "Number of vehicles (one trace file each)")
	f.Float64VarP(&cfg.DurationSeconds, "duration", "t", def.DurationSeconds, "Length of the ns-3 simulation [s]")
	f.StringVarP(&cfg.OutputDir, "dir", "p", def.OutputDir, "Output directory for CAMtrace_<id>.csv files")
	f.StringVar(&cfg.ModelsDir, "models-dir", def.ModelsDir, "Directory holding M_matrix/ and PDF/")
	f.StringVar(&cfg.Profile, "profile", def.Profile, "OEM profile (Volkswagen or Renault)")
	f.StringVar(&cfg.Scenario, "scenario", def.Scenario, "Scenario (Highway, Suburban, Urban or Universal)")
	f.StringVar(&cfg.Model, "model", def.Model, "Markov model (Complete, Intervals or Sizes)")
	f.IntVarP(&cfg.Order, "order", "m", def.Order, "Number of symbols in the Markov window (1 or 5)")
	f.Int64Var(&cfg.Seed, "seed", def.Seed, "Seed for random trace generation")
	f.Float64Var(&cfg.BufferFactor, "buffer", def.BufferFactor, "Fraction added to the duration so traces outlast the simulation")
	f.IntVar(&cfg.MaxEvents, "max-events", def.MaxEvents, "Upper bound on events per vehicle (0 = derived from duration)")
	f.IntVar(&cfg.SizesIntervalMs, "sizes-interval-ms", def.SizesIntervalMs, "Fixed interval for the Sizes model [ms] (0 = 300)")
	f.IntVar(&cfg.Workers, "workers", def.Workers, "Vehicles generated concurrently (0 = GOMAXPROCS)")
	f.StringVar(&cfg.RNG, "rng", def.RNG, "Random number generator (math or rngstream)")
}

// resolveRunConfig merges the config file, if any, with the flags that were set.
func resolveRunConfig(cmd *cobra.Command, path string, flagged RunConfig) (RunConfig, error) {
	if path == "" {
		return flagged, nil
	}
	cfg, err := LoadRunConfig(path)
	if err != nil {
		return cfg, err
	}
	overrides := []struct {
		flag  string
		apply func()
	}{
		{"vehicles", func() { cfg.Vehicles = flagged.Vehicles }},
		{"duration", func() { cfg.DurationSeconds = flagged.DurationSeconds }},
		{"dir", func() { cfg.OutputDir = flagged.OutputDir }},
		{"models-dir", func() { cfg.ModelsDir = flagged.ModelsDir }},
		{"profile", func() { cfg.Profile = flagged.Profile }},
		{"scenario", func() { cfg.Scenario = flagged.Scenario }},
		{"model", func() { cfg.Model = flagged.Model }},
		{"order", func() { cfg.Order = flagged.Order }},
		{"seed", func() { cfg.Seed = flagged.Seed }},
		{"buffer", func() { cfg.BufferFactor = flagged.BufferFactor }},
		{"max-events", func() { cfg.MaxEvents = flagged.MaxEvents }},
		{"sizes-interval-ms", func() { cfg.SizesIntervalMs = flagged.SizesIntervalMs }},
		{"workers", func() { cfg.Workers = flagged.Workers }},
		{"rng", func() { cfg.RNG = flagged.RNG }},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			o.apply()
		}
	}
	return cfg, nil
}
