package sim

import (
	"fmt"
	"strings"
)

// GenerationMode selects which quantities a model's symbols encode.
type GenerationMode string

const (
	// ModeIntervals models generation intervals only; sizes are emitted as 0.
	ModeIntervals GenerationMode = "Intervals"
	// ModeSizes models payload sizes only, at a fixed generation interval.
	ModeSizes GenerationMode = "Sizes"
	// ModeComplete models the joint (size, interval) class of every CAM.
	ModeComplete GenerationMode = "Complete"
)

const (
	// IntervalClasses is the number of interval classes G (100 ms .. 1000 ms).
	IntervalClasses = 10
	// IntervalStepMs converts an interval class to milliseconds.
	IntervalStepMs = 100
	// DefaultSizesIntervalMs is the fixed interval used in ModeSizes.
	DefaultSizesIntervalMs = 300
)

var modeAliases = map[string]GenerationMode{
	"intervals":     ModeIntervals,
	"intervalsonly": ModeIntervals,
	"sizes":         ModeSizes,
	"sizesonly":     ModeSizes,
	"complete":      ModeComplete,
	"joint":         ModeComplete,
}

// ParseMode resolves a model kind name, case-insensitively.
func ParseMode(name string) (GenerationMode, error) {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return m, nil
	}
	return "", fmt.Errorf("%w: unknown model %q; valid: Complete, Intervals, Sizes", ErrConfiguration, name)
}

// Valid reports whether m is one of the three canonical modes.
func (m GenerationMode) Valid() bool {
	return m == ModeIntervals || m == ModeSizes || m == ModeComplete
}

// ArtifactSuffix returns the model-kind part of artifact file names ("" for ModeComplete).
func (m GenerationMode) ArtifactSuffix() string {
	switch m {
	case ModeIntervals:
		return "IntervalsOnly"
	case ModeSizes:
		return "SizesOnly"
	default:
		return ""
	}
}

// Scenario names the mobility context a model was trained on.
type Scenario string

const (
	ScenarioHighway   Scenario = "Highway"
	ScenarioSuburban  Scenario = "Suburban"
	ScenarioUrban     Scenario = "Urban"
	ScenarioUniversal Scenario = "Universal"
)

var validScenarios = []Scenario{ScenarioHighway, ScenarioSuburban, ScenarioUrban, ScenarioUniversal}

// ParseScenario resolves a scenario name, case-insensitively.
func ParseScenario(name string) (Scenario, error) {
	for _, s := range validScenarios {
		if strings.EqualFold(strings.TrimSpace(name), string(s)) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: unknown scenario %q; valid: Highway, Suburban, Urban, Universal", ErrConfiguration, name)
}

// ValidOrders lists the Markov orders models are trained for.
var ValidOrders = []int{1, 5}

// ValidateOrder checks that m is a supported Markov order.
func ValidateOrder(m int) error {
	for _, o := range ValidOrders {
		if m == o {
			return nil
		}
	}
	return fmt.Errorf("%w: order m=%d; valid: 1, 5", ErrConfiguration, m)
}

// SplitSymbol decomposes a joint symbol into its 1-based size and interval classes.
func SplitSymbol(s Symbol, sizeClasses int) (sizeClass, intervalClass int) {
	k := int(s) - 1
	return k%sizeClasses + 1, k/sizeClasses + 1
}

// ComposeSymbol is the inverse of SplitSymbol.
func ComposeSymbol(sizeClass, intervalClass, sizeClasses int) Symbol {
	return Symbol((intervalClass-1)*sizeClasses + sizeClass)
}

// Decoder turns symbols into (interval, size) pairs for one mode and profile.
type Decoder struct {
	Mode            GenerationMode
	Profile         Profile
	SizesIntervalMs int // interval emitted in ModeSizes
}

// NewDecoder validates the mode/profile pair. A non-positive sizesIntervalMs
// selects DefaultSizesIntervalMs.
func NewDecoder(mode GenerationMode, profile Profile, sizesIntervalMs int) (Decoder, error) {
	if !mode.Valid() {
		return Decoder{}, fmt.Errorf("%w: unknown model %q", ErrConfiguration, mode)
	}
	if mode != ModeIntervals && !profile.Valid() {
		return Decoder{}, fmt.Errorf("%w: %q", ErrInvalidProfile, string(profile))
	}
	if sizesIntervalMs <= 0 {
		sizesIntervalMs = DefaultSizesIntervalMs
	}
	return Decoder{Mode: mode, Profile: profile, SizesIntervalMs: sizesIntervalMs}, nil
}

// MaxSymbol returns the largest symbol the decoder accepts.
func (d Decoder) MaxSymbol() int {
	switch d.Mode {
	case ModeIntervals:
		return IntervalClasses
	case ModeSizes:
		return d.Profile.SizeClasses()
	default:
		return d.Profile.SizeClasses() * IntervalClasses
	}
}

// MinIntervalMs returns the shortest interval the decoder can emit.
func (d Decoder) MinIntervalMs() int {
	if d.Mode == ModeSizes {
		return d.SizesIntervalMs
	}
	return IntervalStepMs
}

// Decode maps one symbol to its interval (ms) and payload size (bytes).
func (d Decoder) Decode(s Symbol) (intervalMs, sizeBytes int, err error) {
	if s < 1 || int(s) > d.MaxSymbol() {
		return 0, 0, fmt.Errorf("%w: symbol %d outside [1, %d] for %s/%s", ErrIndexOutOfRange, s, d.MaxSymbol(), d.Mode, d.Profile)
	}
	switch d.Mode {
	case ModeIntervals:
		return int(s) * IntervalStepMs, 0, nil
	case ModeSizes:
		size, err := d.Profile.SizeBytes(int(s))
		return d.SizesIntervalMs, size, err
	default:
		sizeClass, intervalClass := SplitSymbol(s, d.Profile.SizeClasses())
		size, err := d.Profile.SizeBytes(sizeClass)
		return intervalClass * IntervalStepMs, size, err
	}
}
