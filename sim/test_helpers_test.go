package sim

import (
	"testing"
	"time"
)

// mustModel builds a Model from CSV-shaped rows: transition rows are
// [prefix..., next, prob] and state rows are [window..., prob].
func mustModel(t *testing.T, order int, transitions, states [][]float64) *Model {
	t.Helper()
	trows := make([]TransitionRow, len(transitions))
	for i, r := range transitions {
		trows[i] = TransitionRow{
			Prefix: toSymbols(r[:order]),
			Next:   Symbol(r[order]),
			Probs:  r[order+1:],
		}
	}
	srows := make([]StateRow, len(states))
	for i, r := range states {
		srows[i] = StateRow{Window: toSymbols(r[:order]), Probs: r[order:]}
	}
	tm, err := NewTransitionMatrix(order, trows)
	if err != nil {
		t.Fatalf("NewTransitionMatrix: %v", err)
	}
	pdf, err := NewStatePDF(order, srows)
	if err != nil {
		t.Fatalf("NewStatePDF: %v", err)
	}
	return &Model{Order: order, Transitions: tm, States: pdf}
}

func toSymbols(vals []float64) []Symbol {
	out := make([]Symbol, len(vals))
	for i, v := range vals {
		out[i] = Symbol(v)
	}
	return out
}

// uniformIntervalsModel is an order-1 model over the ten interval classes where
// every class follows every other with equal probability.
func uniformIntervalsModel(t *testing.T) *Model {
	t.Helper()
	var transitions, states [][]float64
	for from := 1; from <= IntervalClasses; from++ {
		states = append(states, []float64{float64(from), 1.0 / IntervalClasses})
		for to := 1; to <= IntervalClasses; to++ {
			transitions = append(transitions, []float64{float64(from), float64(to), 1.0 / IntervalClasses})
		}
	}
	return mustModel(t, 1, transitions, states)
}

func ms(n int64) time.Duration { return time.Duration(n) * time.Millisecond }
