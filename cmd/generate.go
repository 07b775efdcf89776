package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/camtrace/sim"
	"github.com/inference-sim/camtrace/sim/fleet"
	"github.com/inference-sim/camtrace/sim/model"
	"github.com/inference-sim/camtrace/sim/trace"
)

func newGenerateCmd() *cobra.Command {
	var (
		flagged    RunConfig
		configPath string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate one CAM trace per vehicle from a pretrained Markov model",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := resolveRunConfig(cmd, configPath, flagged)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			res, err := runGenerate(cmd.Context(), cfg)
			if err != nil {
				logrus.Fatalf("Trace generation failed: %v", err)
			}
			logrus.Infof("Generated %d traces (%d events) in %s, %v",
				res.Vehicles, res.Events, cfg.OutputDir, res.Elapsed)
		},
	}
	bindRunFlags(cmd, &flagged)
	cmd.Flags().StringVar(&configPath, "config", "", "YAML run configuration; flags given explicitly override it")
	return cmd
}

// runPlan is a RunConfig resolved into the typed parameters of each component.
type runPlan struct {
	key       model.Key
	generator sim.GeneratorConfig
	fleet     fleet.Config
	header    trace.Header
}

// plan validates cfg and derives the budget and event bound.
func (c RunConfig) plan() (*runPlan, error) {
	profile, err := sim.ParseProfile(c.Profile)
	if err != nil {
		return nil, err
	}
	scenario, err := sim.ParseScenario(c.Scenario)
	if err != nil {
		return nil, err
	}
	mode, err := sim.ParseMode(c.Model)
	if err != nil {
		return nil, err
	}
	if err := sim.ValidateOrder(c.Order); err != nil {
		return nil, err
	}
	rng, err := fleet.ParseRNGBackend(c.RNG)
	if err != nil {
		return nil, err
	}
	budget, err := sim.BufferedBudget(c.DurationSeconds, c.BufferFactor)
	if err != nil {
		return nil, err
	}
	decoder, err := sim.NewDecoder(mode, profile, c.SizesIntervalMs)
	if err != nil {
		return nil, err
	}
	maxEvents := c.MaxEvents
	if maxEvents < 0 {
		return nil, fmt.Errorf("%w: max events must be >= 0, got %d", sim.ErrConfiguration, maxEvents)
	}
	if maxEvents == 0 {
		maxEvents = sim.DefaultMaxSymbols(budget, decoder)
	}

	p := &runPlan{
		key:       model.Key{Scenario: scenario, Profile: profile, Mode: mode, Order: c.Order},
		generator: sim.NewGeneratorConfig(mode, profile, decoder.SizesIntervalMs, budget, maxEvents),
		fleet:     fleet.Config{Vehicles: c.Vehicles, Workers: c.Workers, Seed: c.Seed, RNG: rng},
		header: trace.Header{
			Scenario:        string(scenario),
			Profile:         string(profile),
			Model:           string(mode),
			Order:           c.Order,
			Seed:            c.Seed,
			RNG:             string(rng),
			Vehicles:        c.Vehicles,
			DurationSeconds: c.DurationSeconds,
			BufferFactor:    c.BufferFactor,
			MaxEvents:       maxEvents,
		},
	}
	if mode == sim.ModeSizes {
		p.header.SizesIntervalMs = decoder.SizesIntervalMs
	}
	if err := p.fleet.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// runGenerate loads the model, generates every vehicle into cfg.OutputDir and
// writes the run header once all traces are on disk.
func runGenerate(ctx context.Context, cfg RunConfig) (*fleet.Result, error) {
	p, err := cfg.plan()
	if err != nil {
		return nil, err
	}
	m, err := model.NewRepository(cfg.ModelsDir).Load(p.key)
	if err != nil {
		return nil, err
	}
	gen, err := sim.NewGenerator(m, p.generator)
	if err != nil {
		return nil, err
	}
	w, err := trace.NewWriter(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	logrus.Infof("Generating %d vehicles: model %s, budget %v, max %d events, seed %d (%s)",
		p.fleet.Vehicles, p.key, gen.Budget(), gen.MaxSymbols(), p.fleet.Seed, p.fleet.RNG)
	res, err := fleet.Run(ctx, gen, p.fleet, w)
	if err != nil {
		return nil, err
	}
	if err := w.WriteHeader(p.header); err != nil {
		return nil, err
	}
	for reason, n := range res.Stops {
		logrus.Debugf("%d vehicles stopped on %s", n, reason)
	}
	return res, nil
}
