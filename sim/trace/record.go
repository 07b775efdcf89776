package trace

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

// Record is one line of a trace file as read back from disk.
type Record struct {
	Timestamp  string // as written, e.g. "1.3"
	IntervalMs int
	SizeBytes  int
}

// VehicleRecords are the records of one trace file.
type VehicleRecords struct {
	ID      int
	Records []Record
}

// ErrNotTraceFile is returned for names that do not match CAMtrace_<id>.csv.
var ErrNotTraceFile = errors.New("not a CAM trace file")

// ParseFileName extracts the vehicle ID from "CAMtrace_<id>.csv".
func ParseFileName(name string) (int, error) {
	rest, ok := strings.CutPrefix(name, "CAMtrace_")
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotTraceFile, name)
	}
	rest, ok = strings.CutSuffix(rest, ".csv")
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotTraceFile, name)
	}
	id, err := strconv.Atoi(rest)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %s", ErrNotTraceFile, name)
	}
	return id, nil
}

// ReadFile reads one trace file.
func ReadFile(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Decode(f)
}

// Decode parses "<seconds>,<intervalMs>,<sizeBytes>" lines. Extra columns are ignored.
func Decode(in io.Reader) ([]Record, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1

	var records []Record
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading trace line %d: %w", line, err)
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("trace line %d has %d columns, expected 3", line, len(row))
		}
		interval, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("trace line %d: interval: %w", line, err)
		}
		size, err := strconv.Atoi(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("trace line %d: size: %w", line, err)
		}
		records = append(records, Record{Timestamp: row[0], IntervalMs: interval, SizeBytes: size})
	}
	return records, nil
}

// ReadDir reads every CAMtrace_<id>.csv in dir, ordered by vehicle ID.
// Other files, including reselection outputs and the header, are skipped.
func ReadDir(dir string) ([]VehicleRecords, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing traces: %w", err)
	}
	var out []VehicleRecords
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		id, err := ParseFileName(e.Name())
		if err != nil {
			continue
		}
		records, err := ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out = append(out, VehicleRecords{ID: id, Records: records})
	}
	slices.SortFunc(out, func(a, b VehicleRecords) int { return a.ID - b.ID })
	return out, nil
}
