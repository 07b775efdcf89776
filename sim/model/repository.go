// Package model loads pretrained Markov model artifacts from disk.
//
// Artifacts follow the layout of the CAM-model training tools:
//
//	<root>/M_matrix/M_<profile><scenario>[_<suffix>]_m<m>.csv   transition matrix
//	<root>/PDF/PDF_<profile><scenario>[_<suffix>]_m<m>.csv      initial-state PDF
//
// where suffix is IntervalsOnly or SizesOnly and is omitted for the complete model.
package model

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inference-sim/camtrace/sim"
)

const (
	// TransitionDir holds transition matrices under the repository root.
	TransitionDir = "M_matrix"
	// StateDir holds state PDFs under the repository root.
	StateDir = "PDF"
	// SumTolerance bounds the deviation of a probability sum from 1 before a warning is logged.
	SumTolerance = 1e-6
)

// Key identifies one trained model.
type Key struct {
	Scenario sim.Scenario
	Profile  sim.Profile
	Mode     sim.GenerationMode
	Order    int
}

// Validate checks every component of the key.
func (k Key) Validate() error {
	if _, err := sim.ParseScenario(string(k.Scenario)); err != nil {
		return err
	}
	if !k.Profile.Valid() {
		return fmt.Errorf("%w: unknown profile %q", sim.ErrConfiguration, k.Profile)
	}
	if !k.Mode.Valid() {
		return fmt.Errorf("%w: unknown model %q", sim.ErrConfiguration, k.Mode)
	}
	return sim.ValidateOrder(k.Order)
}

// BaseName returns the artifact name shared by the matrix and the PDF,
// e.g. "VolkswagenHighway_IntervalsOnly_m5.csv".
func (k Key) BaseName() string {
	name := string(k.Profile) + string(k.Scenario)
	if suffix := k.Mode.ArtifactSuffix(); suffix != "" {
		name += "_" + suffix
	}
	return fmt.Sprintf("%s_m%d.csv", name, k.Order)
}

// TransitionPath returns the transition matrix path under root.
func (k Key) TransitionPath(root string) string {
	return filepath.Join(root, TransitionDir, "M_"+k.BaseName())
}

// StatePath returns the state PDF path under root.
func (k Key) StatePath(root string) string {
	return filepath.Join(root, StateDir, "PDF_"+k.BaseName())
}

// ReferencePath returns the path of the order-1 interval PDF used as reference
// distribution for interval models.
func (k Key) ReferencePath(root string) string {
	ref := Key{Scenario: k.Scenario, Profile: k.Profile, Mode: sim.ModeIntervals, Order: 1}
	return ref.StatePath(root)
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s/m=%d", k.Profile, k.Scenario, k.Mode, k.Order)
}

// Repository loads models from a directory tree and caches them per key.
// Loaded models are immutable; Repository is safe for concurrent use.
type Repository struct {
	root string

	mu    sync.Mutex
	cache map[Key]*sim.Model
}

// NewRepository creates a Repository rooted at root.
func NewRepository(root string) *Repository {
	return &Repository{
		root:  root,
		cache: make(map[Key]*sim.Model),
	}
}

// Root returns the repository root directory.
func (r *Repository) Root() string { return r.root }

// Load returns the model for key, reading it on first use.
// The reference PMF is only looked up for ModeIntervals and may be absent.
func (r *Repository) Load(key Key) (*sim.Model, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.cache[key]; ok {
		return m, nil
	}

	m, err := r.load(key)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", key, err)
	}
	r.cache[key] = m
	return m, nil
}

func (r *Repository) load(key Key) (*sim.Model, error) {
	grid, err := ReadGrid(key.TransitionPath(r.root))
	if err != nil {
		return nil, err
	}
	transitions, err := ParseTransitions(grid, key.Order)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key.TransitionPath(r.root), err)
	}

	grid, err = ReadGrid(key.StatePath(r.root))
	if err != nil {
		return nil, err
	}
	states, err := ParseStates(grid, key.Order)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key.StatePath(r.root), err)
	}

	m := &sim.Model{Order: key.Order, Transitions: transitions, States: states}

	if key.Mode == sim.ModeIntervals {
		m.Reference, err = r.loadReference(key)
		if err != nil {
			return nil, err
		}
	}

	report := m.Validate(SumTolerance)
	for _, d := range report.Deviations {
		logrus.Warnf("model %s: prefix %v transition probabilities sum to %.9f", key, d.Prefix, d.Sum)
	}
	if !report.StateOK {
		logrus.Warnf("model %s: state PDF mass sums to %.9f", key, report.StateMass)
	}
	logrus.Debugf("loaded model %s: %d transition rows, %d prefixes, %d initial windows",
		key, len(transitions.Rows()), report.Prefixes, len(states.Rows()))
	return m, nil
}

// LoadReference reads only the reference interval PMF of key's scenario and
// profile. It returns nil without error when the PDF is absent.
func (r *Repository) LoadReference(key Key) (*sim.ReferencePMF, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	return r.loadReference(key)
}

func (r *Repository) loadReference(key Key) (*sim.ReferencePMF, error) {
	path := key.ReferencePath(r.root)
	grid, err := ReadGrid(path)
	if errors.Is(err, sim.ErrModelNotFound) {
		logrus.Debugf("model %s: no reference PMF at %s", key, path)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ref, err := ParseReference(grid)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ref, nil
}

// isNotExist reports whether err means a missing file.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
