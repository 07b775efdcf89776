package trace

import (
	"fmt"
	"io"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/inference-sim/camtrace/sim"
)

// Bucket is one histogram bin.
type Bucket struct {
	Value    int
	Count    int
	Fraction float64
}

// Histogram counts values into a fixed, ordered set of bins.
// Values outside the bins are counted in Other and excluded from fractions.
type Histogram struct {
	Buckets []Bucket
	Other   int
	index   map[int]int
}

// NewHistogram creates empty bins for values, in the given order.
func NewHistogram(values []int) *Histogram {
	h := &Histogram{index: make(map[int]int, len(values))}
	for _, v := range values {
		if _, dup := h.index[v]; dup {
			continue
		}
		h.index[v] = len(h.Buckets)
		h.Buckets = append(h.Buckets, Bucket{Value: v})
	}
	return h
}

// Add counts one observation.
func (h *Histogram) Add(v int) {
	if i, ok := h.index[v]; ok {
		h.Buckets[i].Count++
		return
	}
	h.Other++
}

// Total returns the number of observations that fell into a bin.
func (h *Histogram) Total() int {
	total := 0
	for _, b := range h.Buckets {
		total += b.Count
	}
	return total
}

// Normalize fills in the fraction of every bin.
func (h *Histogram) Normalize() {
	total := h.Total()
	for i := range h.Buckets {
		if total > 0 {
			h.Buckets[i].Fraction = float64(h.Buckets[i].Count) / float64(total)
		} else {
			h.Buckets[i].Fraction = 0
		}
	}
}

// Fraction returns the normalized share of value v.
func (h *Histogram) Fraction(v int) float64 {
	if i, ok := h.index[v]; ok {
		return h.Buckets[i].Fraction
	}
	return 0
}

// IntervalBins returns the interval classes 100..1000 ms.
func IntervalBins() []int {
	bins := make([]int, sim.IntervalClasses)
	for i := range bins {
		bins[i] = (i + 1) * sim.IntervalStepMs
	}
	return bins
}

// SizeBins returns the bins for payload sizes: 0 (interval-only traces) followed by
// the profile's size table. An invalid profile yields nil.
func SizeBins(p sim.Profile) []int {
	if !p.Valid() {
		return nil
	}
	return append([]int{0}, p.Sizes()...)
}

// TraceSummary aggregates statistics over a set of trace files.
type TraceSummary struct {
	Vehicles int
	Events   int

	Intervals *Histogram
	Sizes     *Histogram

	IntervalMean   float64
	IntervalStdDev float64
	SizeMean       float64
	SizeStdDev     float64
	DurationMean   float64 // mean per-vehicle trace length, seconds
}

// Summarize computes interval and size statistics over traces. Size bins come from
// profile when it is valid, otherwise from the sizes observed, in ascending order.
// Zero intervals are not counted, matching the ns-3 side's reading of trace tails.
func Summarize(traces []VehicleRecords, profile sim.Profile) *TraceSummary {
	sizeBins := SizeBins(profile)
	if sizeBins == nil {
		sizeBins = observedSizes(traces)
	}
	s := &TraceSummary{
		Vehicles:  len(traces),
		Intervals: NewHistogram(IntervalBins()),
		Sizes:     NewHistogram(sizeBins),
	}

	var intervals, sizes, durations []float64
	for _, vt := range traces {
		var elapsed int
		for _, r := range vt.Records {
			s.Events++
			if r.IntervalMs != 0 {
				s.Intervals.Add(r.IntervalMs)
			}
			s.Sizes.Add(r.SizeBytes)
			intervals = append(intervals, float64(r.IntervalMs))
			sizes = append(sizes, float64(r.SizeBytes))
			elapsed += r.IntervalMs
		}
		durations = append(durations, float64(elapsed)/1000)
	}
	s.Intervals.Normalize()
	s.Sizes.Normalize()

	switch {
	case len(intervals) > 1:
		s.IntervalMean, s.IntervalStdDev = stat.MeanStdDev(intervals, nil)
		s.SizeMean, s.SizeStdDev = stat.MeanStdDev(sizes, nil)
	case len(intervals) == 1:
		s.IntervalMean, s.SizeMean = intervals[0], sizes[0]
	}
	if len(durations) > 0 {
		s.DurationMean = stat.Mean(durations, nil)
	}
	return s
}

// ReferenceDistance returns the total variation distance between the generated
// interval distribution and ref, over the interval classes. It returns false when
// ref is nil.
func (s *TraceSummary) ReferenceDistance(ref *sim.ReferencePMF) (float64, bool) {
	if ref == nil {
		return 0, false
	}
	got := make([]float64, sim.IntervalClasses)
	want := make([]float64, sim.IntervalClasses)
	for i := range got {
		class := i + 1
		got[i] = s.Intervals.Fraction(class * sim.IntervalStepMs)
		want[i] = ref.Prob(sim.Symbol(class))
	}
	return floats.Distance(got, want, 1) / 2, true
}

// WriteText prints the summary as aligned plain text.
func (s *TraceSummary) WriteText(out io.Writer) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(out, format, args...)
		}
	}
	printf("Vehicles: %d\n", s.Vehicles)
	printf("Events: %d\n", s.Events)
	printf("Mean trace length (s): %.3f\n", s.DurationMean)
	printf("Interval (ms): mean %.3f, stddev %.3f\n", s.IntervalMean, s.IntervalStdDev)
	printf("Size (bytes): mean %.3f, stddev %.3f\n", s.SizeMean, s.SizeStdDev)
	printf("\nInterval distribution:\n")
	writeHistogram(printf, s.Intervals)
	printf("\nSize distribution:\n")
	writeHistogram(printf, s.Sizes)
	return err
}

func writeHistogram(printf func(string, ...any), h *Histogram) {
	for _, b := range h.Buckets {
		printf("  %6d  %8d  %.4f\n", b.Value, b.Count, b.Fraction)
	}
	if h.Other > 0 {
		printf("  other   %8d\n", h.Other)
	}
}

func observedSizes(traces []VehicleRecords) []int {
	seen := make(map[int]bool)
	var sizes []int
	for _, vt := range traces {
		for _, r := range vt.Records {
			if !seen[r.SizeBytes] {
				seen[r.SizeBytes] = true
				sizes = append(sizes, r.SizeBytes)
			}
		}
	}
	slices.Sort(sizes)
	return sizes
}
