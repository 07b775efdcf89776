package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/camtrace/sim"
	"github.com/inference-sim/camtrace/sim/model"
	"github.com/inference-sim/camtrace/sim/trace"
)

func newStatsCmd() *cobra.Command {
	var dir, profile, scenario, modelsDir string
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print interval and size distributions of a trace directory",
		Long: "Reads every CAMtrace_<id>.csv in the directory and prints interval and size histograms.\n" +
			"When a models directory is given, the interval distribution is compared with the\n" +
			"reference PDF of the scenario the traces were generated for.",
		Run: func(cmd *cobra.Command, args []string) {
			if err := runStats(cmd.OutOrStdout(), dir, profile, scenario, modelsDir); err != nil {
				logrus.Fatalf("%v", err)
			}
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "p", ".", "Directory holding the traces")
	cmd.Flags().StringVar(&profile, "profile", "", "OEM profile for the size bins (default: from traces.yaml)")
	cmd.Flags().StringVar(&scenario, "scenario", "", "Scenario of the reference PDF (default: from traces.yaml)")
	cmd.Flags().StringVar(&modelsDir, "models-dir", "", "Directory holding PDF/ for the reference comparison")
	return cmd
}

// runStats summarizes dir. Missing profile or scenario fall back to the run header.
func runStats(out io.Writer, dir, profileName, scenarioName, modelsDir string) error {
	if h, err := trace.ReadHeader(dir); err == nil {
		if profileName == "" {
			profileName = h.Profile
		}
		if scenarioName == "" {
			scenarioName = h.Scenario
		}
	} else {
		logrus.Debugf("no run header: %v", err)
	}

	var profile sim.Profile
	if profileName != "" {
		p, err := sim.ParseProfile(profileName)
		if err != nil {
			return err
		}
		profile = p
	}

	traces, err := trace.ReadDir(dir)
	if err != nil {
		return err
	}
	if len(traces) == 0 {
		return fmt.Errorf("%w: no CAMtrace_<id>.csv files in %s", sim.ErrConfiguration, dir)
	}
	summary := trace.Summarize(traces, profile)
	if err := summary.WriteText(out); err != nil {
		return err
	}

	if modelsDir == "" || profile == "" || scenarioName == "" {
		return nil
	}
	scenario, err := sim.ParseScenario(scenarioName)
	if err != nil {
		return err
	}
	ref, err := model.NewRepository(modelsDir).LoadReference(model.Key{Scenario: scenario, Profile: profile, Mode: sim.ModeIntervals, Order: 1})
	if err != nil {
		return err
	}
	if ref == nil {
		logrus.Infof("no reference PDF for %s%s in %s", profile, scenario, modelsDir)
		return nil
	}
	if d, ok := summary.ReferenceDistance(ref); ok {
		_, err = fmt.Fprintf(out, "\nTotal variation distance to reference intervals: %.4f\n", d)
	}
	return err
}
