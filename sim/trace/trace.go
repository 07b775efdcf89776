// Package trace persists generated CAM traces in the layout ns-3 reads, and reads
// them back for statistics and reselection analysis.
//
// A run directory holds one CAMtrace_<id>.csv per vehicle plus a traces.yaml header
// describing how the traces were produced.
package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/inference-sim/camtrace/sim"
)

// HeaderFile is the name of the run header inside a trace directory.
const HeaderFile = "traces.yaml"

// HeaderVersion is the current traces.yaml layout version.
const HeaderVersion = 1

// FileName returns the trace file name of vehicle id.
func FileName(id int) string {
	return fmt.Sprintf("CAMtrace_%d.csv", id)
}

// Header records the parameters of the run that produced a trace directory.
type Header struct {
	Version         int     `yaml:"trace_version"`
	CreatedAt       string  `yaml:"created_at,omitempty"`
	Scenario        string  `yaml:"scenario"`
	Profile         string  `yaml:"profile,omitempty"`
	Model           string  `yaml:"model"`
	Order           int     `yaml:"order"`
	Seed            int64   `yaml:"seed"`
	RNG             string  `yaml:"rng"`
	Vehicles        int     `yaml:"vehicles"`
	DurationSeconds float64 `yaml:"duration_s"`
	BufferFactor    float64 `yaml:"buffer_factor"`
	MaxEvents       int     `yaml:"max_events"`
	SizesIntervalMs int     `yaml:"sizes_interval_ms,omitempty"`
}

// Writer writes vehicle traces into one directory. It is safe for concurrent
// use as long as every vehicle ID is written once.
type Writer struct {
	dir string
}

// NewWriter creates dir if needed. Existing files are never removed.
func NewWriter(dir string) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: output directory is empty", sim.ErrConfiguration)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string { return w.dir }

// Put writes t to CAMtrace_<id>.csv. The file appears only once complete.
func (w *Writer) Put(t *sim.VehicleTrace) error {
	path := filepath.Join(w.dir, FileName(t.ID))
	return writeAtomic(path, func(out io.Writer) error {
		return EncodeEvents(out, t.Events)
	})
}

// WriteHeader writes the run header, stamping the version and creation time.
func (w *Writer) WriteHeader(h Header) error {
	h.Version = HeaderVersion
	if h.CreatedAt == "" {
		h.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := yaml.Marshal(&h)
	if err != nil {
		return fmt.Errorf("marshaling trace header: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, HeaderFile), data, 0o644); err != nil {
		return fmt.Errorf("writing trace header: %w", err)
	}
	return nil
}

// EncodeEvents writes one CRLF-terminated "<seconds>,<intervalMs>,<sizeBytes>" line per event.
func EncodeEvents(out io.Writer, events []sim.GeneratedEvent) error {
	writer := csv.NewWriter(out)
	writer.UseCRLF = true
	for i, e := range events {
		row := []string{
			sim.FormatSeconds(e.TimestampSeconds()),
			strconv.Itoa(e.IntervalMs),
			strconv.Itoa(e.SizeBytes),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing event %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// ReadHeader loads traces.yaml from dir.
func ReadHeader(dir string) (*Header, error) {
	data, err := os.ReadFile(filepath.Join(dir, HeaderFile))
	if err != nil {
		return nil, fmt.Errorf("reading trace header: %w", err)
	}
	var h Header
	if err := yaml.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("parsing trace header: %w", err)
	}
	return &h, nil
}

// writeAtomic writes through a temporary file renamed into place on success.
func writeAtomic(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
