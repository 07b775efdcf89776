package sim

import (
	"encoding/binary"
	"fmt"
	"math"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
)

// Symbol is the integer code of one discretized (interval, size) class, starting at 1.
type Symbol int

// TransitionRow is one row of a transition matrix:
// [prefix_1..prefix_m, next, probs...]. Only Probs[0] drives sampling.
type TransitionRow struct {
	Prefix []Symbol
	Next   Symbol
	Probs  []float64
}

// StateRow is one row of an initial-state PDF: [window_1..window_m, probs...].
type StateRow struct {
	Window []Symbol
	Probs  []float64
}

// ReferenceRow is one bin of the empirical marginal interval distribution.
type ReferenceRow struct {
	Symbol Symbol
	Prob   float64
}

// candidates are the outgoing transitions of one prefix, in file order.
type candidates struct {
	next  []Symbol
	probs []float64
}

// TransitionMatrix is an order-m transition table indexed by prefix.
// Immutable after construction; safe for concurrent readers.
type TransitionMatrix struct {
	order    int
	rows     []TransitionRow
	index    map[string]*candidates
	prefixes [][]Symbol // distinct prefixes in first-appearance order
}

// NewTransitionMatrix indexes rows by their m-symbol prefix. Rows sharing a
// prefix keep their relative file order: cumulative sampling depends on it.
func NewTransitionMatrix(order int, rows []TransitionRow) (*TransitionMatrix, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: order %d", ErrConfiguration, order)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: transition matrix has no rows", ErrModelFormat)
	}
	tm := &TransitionMatrix{
		order: order,
		rows:  rows,
		index: make(map[string]*candidates),
	}
	for i, r := range rows {
		if len(r.Prefix) != order {
			return nil, fmt.Errorf("%w: transition row %d has prefix of %d symbols, want %d", ErrModelFormat, i, len(r.Prefix), order)
		}
		if len(r.Probs) == 0 {
			return nil, fmt.Errorf("%w: transition row %d has no probability column", ErrModelFormat, i)
		}
		key := windowKey(r.Prefix)
		c, ok := tm.index[key]
		if !ok {
			c = &candidates{}
			tm.index[key] = c
			tm.prefixes = append(tm.prefixes, r.Prefix)
		}
		c.next = append(c.next, r.Next)
		c.probs = append(c.probs, r.Probs[0])
	}
	return tm, nil
}

// Order returns m.
func (tm *TransitionMatrix) Order() int { return tm.order }

// Rows returns the rows in file order. Callers must not modify them.
func (tm *TransitionMatrix) Rows() []TransitionRow { return tm.rows }

// Prefixes returns the distinct prefixes in first-appearance order.
func (tm *TransitionMatrix) Prefixes() [][]Symbol { return tm.prefixes }

// Candidates returns the successors of window and their probabilities, in file order.
// ok is false when no row's prefix equals window exactly.
func (tm *TransitionMatrix) Candidates(window []Symbol) (next []Symbol, probs []float64, ok bool) {
	c, ok := tm.index[windowKey(window)]
	if !ok {
		return nil, nil, false
	}
	return c.next, c.probs, true
}

// StatePDF is the distribution of the initial m-symbol window.
type StatePDF struct {
	order int
	rows  []StateRow
	probs []float64
}

// NewStatePDF validates that every window has order symbols.
func NewStatePDF(order int, rows []StateRow) (*StatePDF, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: state PDF has no rows", ErrModelFormat)
	}
	probs := make([]float64, len(rows))
	for i, r := range rows {
		if len(r.Window) != order {
			return nil, fmt.Errorf("%w: state row %d has %d symbols, want %d", ErrModelFormat, i, len(r.Window), order)
		}
		if len(r.Probs) == 0 {
			return nil, fmt.Errorf("%w: state row %d has no probability column", ErrModelFormat, i)
		}
		probs[i] = r.Probs[0]
	}
	return &StatePDF{order: order, rows: rows, probs: probs}, nil
}

// Order returns m.
func (p *StatePDF) Order() int { return p.order }

// Rows returns the rows in file order. Callers must not modify them.
func (p *StatePDF) Rows() []StateRow { return p.rows }

// Probabilities returns the sampling column of every row. Callers must not modify it.
func (p *StatePDF) Probabilities() []float64 { return p.probs }

// Window returns the window of row i.
func (p *StatePDF) Window(i int) []Symbol { return p.rows[i].Window }

// ReferencePMF is the empirical interval distribution a model was trained from.
// It is only used to validate generated traces.
type ReferencePMF struct {
	Rows []ReferenceRow
}

// Prob returns the reference probability of symbol s, or 0 if absent.
func (r *ReferencePMF) Prob(s Symbol) float64 {
	if r == nil {
		return 0
	}
	for _, row := range r.Rows {
		if row.Symbol == s {
			return row.Prob
		}
	}
	return 0
}

// Model bundles the artifacts of one (scenario, profile, mode, order) key.
type Model struct {
	Order       int
	Transitions *TransitionMatrix
	States      *StatePDF
	Reference   *ReferencePMF // nil when not available
}

// MaxSymbol returns the largest symbol referenced by the transition matrix or state PDF.
func (m *Model) MaxSymbol() Symbol {
	var all []Symbol
	for _, r := range m.Transitions.Rows() {
		all = append(all, r.Prefix...)
		all = append(all, r.Next)
	}
	for _, r := range m.States.Rows() {
		all = append(all, r.Window...)
	}
	if len(all) == 0 {
		return 0
	}
	return slices.Max(all)
}

// PrefixSum is the total outgoing probability of one prefix.
type PrefixSum struct {
	Prefix []Symbol
	Sum    float64
}

// ValidationReport summarizes how well a model satisfies its probability invariants.
type ValidationReport struct {
	Prefixes   int         // distinct prefixes in the transition matrix
	Deviations []PrefixSum // prefixes whose outgoing mass differs from 1 by more than the tolerance
	StateMass  float64     // total mass of the state PDF
	StateOK    bool
	MaxSymbol  Symbol
	Tolerance  float64
}

// OK reports whether every probability sum is within tolerance.
func (r ValidationReport) OK() bool {
	return len(r.Deviations) == 0 && r.StateOK
}

// Validate checks per-prefix transition sums and the total state mass against tol.
func (m *Model) Validate(tol float64) ValidationReport {
	report := ValidationReport{
		Prefixes:  len(m.Transitions.Prefixes()),
		MaxSymbol: m.MaxSymbol(),
		Tolerance: tol,
	}
	for _, prefix := range m.Transitions.Prefixes() {
		_, probs, _ := m.Transitions.Candidates(prefix)
		sum := floats.Sum(probs)
		if math.Abs(sum-1) > tol {
			report.Deviations = append(report.Deviations, PrefixSum{Prefix: prefix, Sum: sum})
		}
	}
	report.StateMass = floats.Sum(m.States.Probabilities())
	report.StateOK = math.Abs(report.StateMass-1) <= tol
	return report
}

// windowKey encodes a window as a map key.
func windowKey(w []Symbol) string {
	buf := make([]byte, 0, len(w)*binary.MaxVarintLen64)
	for _, s := range w {
		buf = binary.AppendVarint(buf, int64(s))
	}
	return string(buf)
}
