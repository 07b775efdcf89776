package sim

import "fmt"

// SampleIndex draws r from src and inverts the cumulative distribution of probs.
// See SampleIndexAt for the inversion rule.
func SampleIndex(src Source, probs []float64) (int, error) {
	return SampleIndexAt(src.Float64(), probs)
}

// SampleIndexAt returns the first index with positive probability whose running
// sum reaches r. Rows are scanned in order, so the result depends on the order of
// probs, not only on their values.
//
// When float rounding leaves the total below r, the last positive-probability
// index is returned instead. Zero and negative entries are never selected.
func SampleIndexAt(r float64, probs []float64) (int, error) {
	last := -1
	cumulative := 0.0
	for i, p := range probs {
		if !(p > 0) {
			continue
		}
		cumulative += p
		last = i
		if cumulative >= r {
			return i, nil
		}
	}
	if last < 0 {
		return 0, fmt.Errorf("%w: %d entries, none positive", ErrEmptyDistribution, len(probs))
	}
	return last, nil
}
