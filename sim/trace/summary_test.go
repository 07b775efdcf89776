package trace

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/camtrace/sim"
)

func TestHistogram_FixedBins(t *testing.T) {
	h := NewHistogram(IntervalBins())
	for _, v := range []int{100, 100, 300, 1000, 1200} {
		h.Add(v)
	}
	h.Normalize()

	assert.Len(t, h.Buckets, 10)
	assert.Equal(t, 4, h.Total())
	assert.Equal(t, 1, h.Other)
	assert.InDelta(t, 0.5, h.Fraction(100), 1e-12)
	assert.InDelta(t, 0.25, h.Fraction(1000), 1e-12)
	assert.Zero(t, h.Fraction(500))
}

func TestHistogram_EmptyNormalizes(t *testing.T) {
	h := NewHistogram([]int{1, 2})
	h.Normalize()
	assert.Zero(t, h.Fraction(1))
}

func TestSizeBins(t *testing.T) {
	assert.Equal(t, []int{0, 200, 300, 360, 455}, SizeBins(sim.ProfileVolkswagen))
	assert.Nil(t, SizeBins("Fiat"))
}

func TestSummarize_CountsAndMoments(t *testing.T) {
	// GIVEN two vehicles with known intervals and sizes
	traces := []VehicleRecords{
		{ID: 1, Records: []Record{{"0.0", 100, 200}, {"0.1", 300, 300}}},
		{ID: 2, Records: []Record{{"0.0", 200, 200}, {"0.2", 0, 455}}},
	}

	// WHEN summarized against the Volkswagen size table
	s := Summarize(traces, sim.ProfileVolkswagen)

	// THEN zero intervals are excluded from the interval histogram only
	assert.Equal(t, 2, s.Vehicles)
	assert.Equal(t, 4, s.Events)
	assert.Equal(t, 3, s.Intervals.Total())
	assert.Equal(t, 4, s.Sizes.Total())
	assert.InDelta(t, 0.5, s.Sizes.Fraction(200), 1e-12)
	assert.InDelta(t, 150.0, s.IntervalMean, 1e-9)
	assert.InDelta(t, 0.3, s.DurationMean, 1e-9)
	assert.InDelta(t, math.Sqrt(5.0e4/3), s.IntervalStdDev, 1e-9)
}

func TestSummarize_ObservedSizesWithoutProfile(t *testing.T) {
	traces := []VehicleRecords{{ID: 1, Records: []Record{{"0.0", 100, 800}, {"0.1", 100, 200}}}}

	s := Summarize(traces, "")

	assert.Equal(t, []int{200, 800}, []int{s.Sizes.Buckets[0].Value, s.Sizes.Buckets[1].Value})
	assert.Zero(t, s.Sizes.Other)
}

func TestSummarize_SingleEvent(t *testing.T) {
	s := Summarize([]VehicleRecords{{ID: 1, Records: []Record{{"0.0", 100, 0}}}}, "")
	assert.Equal(t, 100.0, s.IntervalMean)
	assert.Zero(t, s.IntervalStdDev)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, sim.ProfileRenault)
	assert.Zero(t, s.Events)
	assert.Zero(t, s.IntervalMean)
}

func TestReferenceDistance(t *testing.T) {
	// GIVEN generated intervals split evenly over 100 and 200 ms
	traces := []VehicleRecords{{ID: 1, Records: []Record{{"0.0", 100, 0}, {"0.1", 200, 0}}}}
	s := Summarize(traces, "")

	// WHEN compared with an identical and a disjoint reference
	same := &sim.ReferencePMF{Rows: []sim.ReferenceRow{{Symbol: 1, Prob: 0.5}, {Symbol: 2, Prob: 0.5}}}
	disjoint := &sim.ReferencePMF{Rows: []sim.ReferenceRow{{Symbol: 10, Prob: 1}}}

	d, ok := s.ReferenceDistance(same)
	require.True(t, ok)
	assert.InDelta(t, 0, d, 1e-12)

	d, ok = s.ReferenceDistance(disjoint)
	require.True(t, ok)
	assert.InDelta(t, 1, d, 1e-12)

	_, ok = s.ReferenceDistance(nil)
	assert.False(t, ok)
}

func TestTraceSummary_WriteText(t *testing.T) {
	s := Summarize([]VehicleRecords{{ID: 1, Records: []Record{{"0.0", 100, 200}, {"0.1", 100, 200}}}}, sim.ProfileVolkswagen)

	var buf bytes.Buffer
	require.NoError(t, s.WriteText(&buf))

	out := buf.String()
	assert.Contains(t, out, "Vehicles: 1")
	assert.Contains(t, out, "Events: 2")
	assert.Contains(t, out, "Interval distribution:")
	assert.Contains(t, out, "1.0000")
}
