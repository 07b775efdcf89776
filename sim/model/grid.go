package model

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/inference-sim/camtrace/sim"
)

// ReadGrid reads a comma-separated numeric file, fully, into rows of floats.
// Every row must have the same width as the first.
func ReadGrid(path string) ([][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if isNotExist(err) {
			return nil, fmt.Errorf("%w: %s", sim.ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, fmt.Errorf("%w: %s line %d: %v", sim.ErrModelFormat, path, perr.Line, perr.Err)
		}
		return nil, fmt.Errorf("%w: %s: %v", sim.ErrModelFormat, path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", sim.ErrModelFormat, path)
	}

	grid := make([][]float64, len(records))
	for i, rec := range records {
		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: %s row %d column %d: %q is not a finite number", sim.ErrModelFormat, path, i+1, j+1, cell)
			}
			row[j] = v
		}
		grid[i] = row
	}
	return grid, nil
}

// ParseTransitions converts rows [s_1..s_m, next, p...] into a TransitionMatrix.
func ParseTransitions(grid [][]float64, order int) (*sim.TransitionMatrix, error) {
	rows := make([]sim.TransitionRow, len(grid))
	for i, g := range grid {
		if len(g) < order+2 {
			return nil, fmt.Errorf("%w: transition row %d has %d columns, want at least m+2 = %d", sim.ErrModelFormat, i+1, len(g), order+2)
		}
		symbols, err := toSymbols(g[:order+1], i)
		if err != nil {
			return nil, err
		}
		rows[i] = sim.TransitionRow{Prefix: symbols[:order], Next: symbols[order], Probs: g[order+1:]}
	}
	return sim.NewTransitionMatrix(order, rows)
}

// ParseStates converts rows [s_1..s_m, p...] into a StatePDF.
func ParseStates(grid [][]float64, order int) (*sim.StatePDF, error) {
	rows := make([]sim.StateRow, len(grid))
	for i, g := range grid {
		if len(g) < order+1 {
			return nil, fmt.Errorf("%w: state row %d has %d columns, want at least m+1 = %d", sim.ErrModelFormat, i+1, len(g), order+1)
		}
		window, err := toSymbols(g[:order], i)
		if err != nil {
			return nil, err
		}
		rows[i] = sim.StateRow{Window: window, Probs: g[order:]}
	}
	return sim.NewStatePDF(order, rows)
}

// ParseReference converts rows [symbol, p] into a ReferencePMF.
func ParseReference(grid [][]float64) (*sim.ReferencePMF, error) {
	ref := &sim.ReferencePMF{Rows: make([]sim.ReferenceRow, len(grid))}
	for i, g := range grid {
		if len(g) < 2 {
			return nil, fmt.Errorf("%w: reference row %d has %d columns, want at least 2", sim.ErrModelFormat, i+1, len(g))
		}
		s, err := toSymbols(g[:1], i)
		if err != nil {
			return nil, err
		}
		ref.Rows[i] = sim.ReferenceRow{Symbol: s[0], Prob: g[1]}
	}
	return ref, nil
}

// toSymbols converts integral, positive cells to symbols.
func toSymbols(cells []float64, row int) ([]sim.Symbol, error) {
	out := make([]sim.Symbol, len(cells))
	for j, v := range cells {
		if v != math.Trunc(v) || v < 1 || v > math.MaxInt32 {
			return nil, fmt.Errorf("%w: row %d column %d: symbol %v is not an integer in [1, %d]", sim.ErrModelFormat, row+1, j+1, v, math.MaxInt32)
		}
		out[j] = sim.Symbol(v)
	}
	return out, nil
}
