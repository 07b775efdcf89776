package sim

import (
	"fmt"
	"time"

	"golang.org/x/exp/slices"
)

// Generator walks an order-m Markov model and decodes the symbols into CAM events.
// A Generator holds no per-walk state: one instance may serve many vehicles
// concurrently, provided each call gets its own Source.
type Generator struct {
	model      *Model
	decoder    Decoder
	budget     time.Duration
	maxSymbols int
}

// NewGenerator validates cfg against model. Every symbol the model can produce
// must decode under cfg's mode and profile; a model whose alphabet does not fit
// the profile is rejected here rather than miscomputing classes mid-walk.
func NewGenerator(model *Model, cfg GeneratorConfig) (*Generator, error) {
	if model == nil || model.Transitions == nil || model.States == nil {
		return nil, fmt.Errorf("%w: model is incomplete", ErrConfiguration)
	}
	if model.Transitions.Order() != model.States.Order() {
		return nil, fmt.Errorf("%w: transition order %d differs from state PDF order %d",
			ErrModelFormat, model.Transitions.Order(), model.States.Order())
	}
	decoder, err := NewDecoder(cfg.Mode, cfg.Profile, cfg.SizesIntervalMs)
	if err != nil {
		return nil, err
	}
	if cfg.Budget <= 0 {
		return nil, fmt.Errorf("%w: duration budget must be positive, got %v", ErrConfiguration, cfg.Budget)
	}
	if cfg.MaxSymbols <= 0 {
		return nil, fmt.Errorf("%w: max symbols must be positive, got %d", ErrConfiguration, cfg.MaxSymbols)
	}
	if maxSym := int(model.MaxSymbol()); maxSym > decoder.MaxSymbol() {
		return nil, fmt.Errorf("%w: model uses symbols up to %d but %s/%s decodes at most %d",
			ErrConfiguration, maxSym, cfg.Mode, cfg.Profile, decoder.MaxSymbol())
	}
	return &Generator{
		model:      model,
		decoder:    decoder,
		budget:     cfg.Budget,
		maxSymbols: cfg.MaxSymbols,
	}, nil
}

// Decoder returns the symbol decoder in use.
func (g *Generator) Decoder() Decoder { return g.decoder }

// Budget returns the duration budget.
func (g *Generator) Budget() time.Duration { return g.budget }

// MaxSymbols returns the event count bound.
func (g *Generator) MaxSymbols() int { return g.maxSymbols }

// Generate produces the trace of vehicle id, drawing every random number from src.
//
// The initial window is drawn from the state PDF and each of its symbols is emitted
// like any later symbol. The walk ends before the first event whose interval would
// push the elapsed time past the budget, or once MaxSymbols events were emitted.
// A window without outgoing transitions aborts the walk and no trace is returned.
func (g *Generator) Generate(id int, src Source) (*VehicleTrace, error) {
	idx, err := SampleIndex(src, g.model.States.Probabilities())
	if err != nil {
		return nil, fmt.Errorf("vehicle %d: sampling initial window: %w", id, err)
	}
	window := slices.Clone(g.model.States.Window(idx))

	trace := &VehicleTrace{ID: id}
	for _, s := range window {
		done, err := g.emit(trace, s)
		if err != nil || done {
			return finish(trace, err)
		}
	}

	for {
		next, probs, ok := g.model.Transitions.Candidates(window)
		if !ok {
			return nil, fmt.Errorf("%w: vehicle %d, window %v after %d events",
				ErrNoMatchingTransition, id, window, trace.Len())
		}
		i, err := SampleIndex(src, probs)
		if err != nil {
			return nil, fmt.Errorf("vehicle %d, window %v: %w", id, window, err)
		}
		s := next[i]
		done, err := g.emit(trace, s)
		if err != nil || done {
			return finish(trace, err)
		}
		copy(window, window[1:])
		window[len(window)-1] = s
	}
}

// emit decodes s and appends it unless its interval crosses the budget.
// done reports that the walk must stop.
func (g *Generator) emit(trace *VehicleTrace, s Symbol) (done bool, err error) {
	intervalMs, sizeBytes, err := g.decoder.Decode(s)
	if err != nil {
		return true, fmt.Errorf("vehicle %d: %w", trace.ID, err)
	}
	end := trace.ElapsedMs + int64(intervalMs)
	if time.Duration(end)*time.Millisecond > g.budget {
		trace.Stop = StopDuration
		return true, nil
	}
	trace.Events = append(trace.Events, GeneratedEvent{
		TimestampMs: trace.ElapsedMs,
		IntervalMs:  intervalMs,
		SizeBytes:   sizeBytes,
	})
	trace.Symbols = append(trace.Symbols, s)
	trace.ElapsedMs = end
	if len(trace.Events) >= g.maxSymbols {
		trace.Stop = StopMaxSymbols
		return true, nil
	}
	return false, nil
}

func finish(trace *VehicleTrace, err error) (*VehicleTrace, error) {
	if err != nil {
		return nil, err
	}
	return trace, nil
}
