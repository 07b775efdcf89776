package sim

import (
	"fmt"
	"math"
	"time"
)

// DefaultBufferFactor extends the requested duration so traces outlast the simulation.
const DefaultBufferFactor = 0.1

// GeneratorConfig groups the parameters of one vehicle walk.
type GeneratorConfig struct {
	Mode            GenerationMode
	Profile         Profile
	SizesIntervalMs int           // fixed interval in ModeSizes (0 = DefaultSizesIntervalMs)
	Budget          time.Duration // duration budget, buffer already applied (must be > 0)
	MaxSymbols      int           // upper bound on emitted events (must be > 0)
}

// NewGeneratorConfig builds a GeneratorConfig. Zero values are kept as given.
func NewGeneratorConfig(mode GenerationMode, profile Profile, sizesIntervalMs int, budget time.Duration, maxSymbols int) GeneratorConfig {
	return GeneratorConfig{
		Mode:            mode,
		Profile:         profile,
		SizesIntervalMs: sizesIntervalMs,
		Budget:          budget,
		MaxSymbols:      maxSymbols,
	}
}

// BufferedBudget converts a simulation length in seconds to a budget extended by
// bufferFactor (0.1 = +10%). The float product is converted to an integer duration
// once, so later comparisons against it are exact.
func BufferedBudget(seconds, bufferFactor float64) (time.Duration, error) {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return 0, fmt.Errorf("%w: duration must be a positive finite number of seconds, got %v", ErrConfiguration, seconds)
	}
	if math.IsNaN(bufferFactor) || bufferFactor < 0 {
		return 0, fmt.Errorf("%w: buffer factor must be >= 0, got %v", ErrConfiguration, bufferFactor)
	}
	total := seconds + seconds*bufferFactor
	return time.Duration(math.Round(total * float64(time.Second))), nil
}

// DefaultMaxSymbols returns the number of events that fit in budget at the
// decoder's shortest interval, so the symbol bound never binds before the duration.
func DefaultMaxSymbols(budget time.Duration, d Decoder) int {
	step := time.Duration(d.MinIntervalMs()) * time.Millisecond
	if step <= 0 {
		return 1
	}
	return int(budget/step) + 1
}
