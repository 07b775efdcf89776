package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
)

// Reselection is one line of a reselection file: an event and the number of
// consecutive events, itself included, that keep its interval.
type Reselection struct {
	Timestamp  string
	IntervalMs int
	RunLength  int
}

// ReselectionFileName returns the reselection output name of vehicle id.
func ReselectionFileName(id int) string {
	return strings.TrimSuffix(FileName(id), ".csv") + "Resel.csv"
}

// Reselections computes, for every record, the length of the run of equal
// intervals starting at it.
func Reselections(records []Record) []Reselection {
	out := make([]Reselection, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		run := 1
		if i+1 < len(records) && records[i+1].IntervalMs == records[i].IntervalMs {
			run = out[i+1].RunLength + 1
		}
		out[i] = Reselection{Timestamp: records[i].Timestamp, IntervalMs: records[i].IntervalMs, RunLength: run}
	}
	return out
}

// EncodeReselections writes CRLF-terminated "<timestamp>,<intervalMs>,<runLength>" lines.
func EncodeReselections(out io.Writer, rs []Reselection) error {
	writer := csv.NewWriter(out)
	writer.UseCRLF = true
	for i, r := range rs {
		row := []string{r.Timestamp, strconv.Itoa(r.IntervalMs), strconv.Itoa(r.RunLength)}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing reselection %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Reselect reads CAMtrace_<id>.csv in dir and writes CAMtrace_<id>Resel.csv next to it.
func Reselect(dir string, id int) ([]Reselection, error) {
	records, err := ReadFile(filepath.Join(dir, FileName(id)))
	if err != nil {
		return nil, fmt.Errorf("vehicle %d: %w", id, err)
	}
	rs := Reselections(records)
	err = writeAtomic(filepath.Join(dir, ReselectionFileName(id)), func(out io.Writer) error {
		return EncodeReselections(out, rs)
	})
	if err != nil {
		return nil, fmt.Errorf("vehicle %d: %w", id, err)
	}
	return rs, nil
}
