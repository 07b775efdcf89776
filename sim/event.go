package sim

import "strconv"

// GeneratedEvent is one synthesized CAM.
type GeneratedEvent struct {
	TimestampMs int64 // elapsed time before this CAM, from the start of the trace
	IntervalMs  int   // generation interval following this CAM
	SizeBytes   int   // payload size; 0 in ModeIntervals
}

// TimestampSeconds returns the timestamp in seconds.
func (e GeneratedEvent) TimestampSeconds() float64 {
	return float64(e.TimestampMs) / 1000
}

// FormatSeconds renders seconds as the shortest decimal with at least one
// fractional digit ("0.0", "0.1", "12.3"), the format ns-3 trace readers expect.
func FormatSeconds(s float64) string {
	out := strconv.FormatFloat(s, 'f', -1, 64)
	for i := 0; i < len(out); i++ {
		if out[i] == '.' {
			return out
		}
	}
	return out + ".0"
}

// StopReason records why a walk ended.
type StopReason string

const (
	// StopDuration means the next event would have crossed the duration budget.
	StopDuration StopReason = "duration"
	// StopMaxSymbols means the symbol count limit was reached.
	StopMaxSymbols StopReason = "max_symbols"
)

// VehicleTrace is the ordered CAM sequence of one vehicle.
type VehicleTrace struct {
	ID        int
	Events    []GeneratedEvent
	Symbols   []Symbol // symbol behind each event, same length as Events
	ElapsedMs int64    // sum of emitted intervals
	Stop      StopReason
}

// Len returns the number of events.
func (t *VehicleTrace) Len() int { return len(t.Events) }
