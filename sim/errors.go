package sim

import "errors"

// Error taxonomy. Every failure reflects malformed configuration or malformed model
// artifacts, so none of these are retryable. Callers match with errors.Is.
var (
	// ErrConfiguration reports an invalid profile, scenario, model kind, order or budget.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrModelNotFound reports a missing model artifact.
	ErrModelNotFound = errors.New("model artifact not found")

	// ErrModelFormat reports a model artifact whose rows do not have the expected shape.
	ErrModelFormat = errors.New("malformed model artifact")

	// ErrNoMatchingTransition reports a window with no outgoing row in the transition matrix.
	// The model is incomplete and the vehicle's trace must be discarded.
	ErrNoMatchingTransition = errors.New("no matching transition")

	// ErrInvalidProfile reports an unrecognized manufacturer profile.
	ErrInvalidProfile = errors.New("invalid profile")

	// ErrIndexOutOfRange reports a size class outside the profile's table.
	ErrIndexOutOfRange = errors.New("size class index out of range")

	// ErrEmptyDistribution reports a probability list with no positive mass.
	ErrEmptyDistribution = errors.New("empty probability distribution")
)
