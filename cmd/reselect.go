package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/camtrace/sim/trace"
)

func newReselectCmd() *cobra.Command {
	var (
		dir      string
		vehicles int
	)
	cmd := &cobra.Command{
		Use:   "reselect",
		Short: "Write CAMtrace_<id>Resel.csv run lengths of unchanged intervals",
		Run: func(cmd *cobra.Command, args []string) {
			n, err := runReselect(dir, vehicles)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			logrus.Infof("Processed %d traces in %s", n, dir)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "p", ".", "Directory holding the traces")
	cmd.Flags().IntVarP(&vehicles, "vehicles", "n", 0, "Process vehicles 1..n (0 = every trace in the directory)")
	return cmd
}

// runReselect processes vehicles 1..n, or every trace file in dir when n is 0.
func runReselect(dir string, n int) (int, error) {
	var ids []int
	if n > 0 {
		for id := 1; id <= n; id++ {
			ids = append(ids, id)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return 0, fmt.Errorf("listing traces: %w", err)
		}
		for _, e := range entries {
			if id, err := trace.ParseFileName(e.Name()); err == nil {
				ids = append(ids, id)
			}
		}
	}
	for _, id := range ids {
		logrus.Debugf("Processing vehicle %d", id)
		if _, err := trace.Reselect(dir, id); err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}
