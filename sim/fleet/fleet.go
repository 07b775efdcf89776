// Package fleet generates the traces of many vehicles from one model.
//
// Every vehicle owns its own random source, derived from the run seed and the
// vehicle ID, so the traces do not depend on how many workers run them or in
// which order they finish.
package fleet

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/iti/rngstream"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inference-sim/camtrace/sim"
)

// RNGBackend selects the per-vehicle random number generator.
type RNGBackend string

const (
	// RNGMath derives one math/rand source per vehicle from the seed.
	RNGMath RNGBackend = "math"
	// RNGStream gives every vehicle its own MRG32k3a stream, seeded from the
	// run seed and the vehicle ID.
	RNGStream RNGBackend = "rngstream"
)

// ParseRNGBackend resolves a backend name, case-insensitively. Empty means RNGMath.
func ParseRNGBackend(name string) (RNGBackend, error) {
	switch strings.ToLower(name) {
	case "", string(RNGMath):
		return RNGMath, nil
	case string(RNGStream):
		return RNGStream, nil
	}
	return "", fmt.Errorf("%w: unknown rng backend %q (want math or rngstream)", sim.ErrConfiguration, name)
}

// Config controls one fleet run.
type Config struct {
	Vehicles int        // vehicles 1..Vehicles are generated
	Workers  int        // concurrent walks; 0 means GOMAXPROCS
	Seed     int64      // master seed for RNGMath
	RNG      RNGBackend // empty means RNGMath
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	if c.Vehicles < 1 {
		return fmt.Errorf("%w: vehicles must be >= 1, got %d", sim.ErrConfiguration, c.Vehicles)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", sim.ErrConfiguration, c.Workers)
	}
	_, err := ParseRNGBackend(string(c.RNG))
	return err
}

func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Walker produces the trace of one vehicle. *sim.Generator implements it.
type Walker interface {
	Generate(id int, src sim.Source) (*sim.VehicleTrace, error)
}

// Sink receives finished traces. Put may be called from several goroutines.
type Sink interface {
	Put(t *sim.VehicleTrace) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(t *sim.VehicleTrace) error

// Put calls f(t).
func (f SinkFunc) Put(t *sim.VehicleTrace) error { return f(t) }

// Result summarizes a completed run.
type Result struct {
	Vehicles int
	Events   int
	Stops    map[sim.StopReason]int
	Elapsed  time.Duration
}

// Sources returns the random source of every vehicle, index i serving vehicle i+1.
func Sources(cfg Config) ([]sim.Source, error) {
	backend, err := ParseRNGBackend(string(cfg.RNG))
	if err != nil {
		return nil, err
	}
	sources := make([]sim.Source, cfg.Vehicles)
	switch backend {
	case RNGStream:
		key := sim.NewSimulationKey(cfg.Seed)
		for i := range sources {
			name := sim.SubsystemVehicle(i + 1)
			stream := rngstream.New(name)
			if !stream.SetSeed(streamSeed(key.DeriveSeed(name))) {
				return nil, fmt.Errorf("%w: rejected stream seed for %s", sim.ErrConfiguration, name)
			}
			sources[i] = streamSource{stream}
		}
	default:
		rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
		for i := range sources {
			sources[i] = rng.ForVehicle(i + 1)
		}
	}
	return sources, nil
}

// Run generates every vehicle and hands each trace to sink once its walk is complete.
// The first failure cancels the run: vehicles not yet started are skipped and the
// error is returned. Traces already handed to sink stay there.
func Run(ctx context.Context, w Walker, cfg Config, sink Sink) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sources, err := Sources(cfg)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &Result{Stops: make(map[sim.StopReason]int)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers())
	for i, src := range sources {
		if gctx.Err() != nil {
			break
		}
		id, src := i+1, src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t, err := w.Generate(id, src)
			if err != nil {
				return err
			}
			if err := sink.Put(t); err != nil {
				return fmt.Errorf("vehicle %d: %w", id, err)
			}
			logrus.Debugf("vehicle %d: %d events, %d ms, stop=%s", id, t.Len(), t.ElapsedMs, t.Stop)

			mu.Lock()
			res.Vehicles++
			res.Events += t.Len()
			res.Stops[t.Stop]++
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Elapsed = time.Since(start)
	return res, nil
}

// streamSource adapts an MRG32k3a stream to sim.Source.
type streamSource struct {
	stream *rngstream.RngStream
}

func (s streamSource) Float64() float64 { return s.stream.RandU01() }

// MRG32k3a moduli. The first three seed words must lie below mrgModulus1 and
// the last three below mrgModulus2, and neither triple may be all zero.
const (
	mrgModulus1 = 4294967087
	mrgModulus2 = 4294944443
)

// streamSeed expands seed into the six MRG32k3a seed words with splitmix64.
// Every word is in [1, modulus-1].
func streamSeed(seed int64) []uint64 {
	x := uint64(seed)
	out := make([]uint64, 6)
	for i := range out {
		x += 0x9e3779b97f4a7c15
		z := x
		z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
		z = (z ^ (z >> 27)) * 0x94d049bb133111eb
		z ^= z >> 31
		m := uint64(mrgModulus1)
		if i >= 3 {
			m = mrgModulus2
		}
		out[i] = z%(m-1) + 1
	}
	return out
}
