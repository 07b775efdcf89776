// Package testutil provides shared test infrastructure for the sim packages:
// model artifact fixtures and float assertion helpers.
package testutil

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// WriteGrid writes rows as a comma-separated file, one row per line.
func WriteGrid(t *testing.T, path string, rows [][]float64) {
	t.Helper()
	var b strings.Builder
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		}
		b.WriteString("\n")
	}
	WriteFile(t, path, b.String())
}

// WriteFile writes raw content, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// WriteModel writes root/M_matrix/M_<name>.csv and root/PDF/PDF_<name>.csv,
// where name is e.g. "VolkswagenHighway_IntervalsOnly_m1".
func WriteModel(t *testing.T, root, name string, transitions, states [][]float64) {
	t.Helper()
	WriteGrid(t, filepath.Join(root, "M_matrix", "M_"+name+".csv"), transitions)
	WriteGrid(t, filepath.Join(root, "PDF", "PDF_"+name+".csv"), states)
}

// AlternatingTransitions is the order-1 chain 1 -> 2 -> 1.
func AlternatingTransitions() [][]float64 {
	return [][]float64{{1, 2, 1.0}, {2, 1, 1.0}}
}

// UniformTransitions returns an order-1 matrix over symbols 1..n where every
// symbol follows every other with probability 1/n.
func UniformTransitions(n int) [][]float64 {
	var rows [][]float64
	for from := 1; from <= n; from++ {
		for to := 1; to <= n; to++ {
			rows = append(rows, []float64{float64(from), float64(to), 1 / float64(n)})
		}
	}
	return rows
}

// UniformStates returns an order-1 state PDF over symbols 1..n.
func UniformStates(n int) [][]float64 {
	var rows [][]float64
	for s := 1; s <= n; s++ {
		rows = append(rows, []float64{float64(s), 1 / float64(n)})
	}
	return rows
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
