package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/camtrace/sim"
	"github.com/inference-sim/camtrace/sim/model"
)

// keyFlags are the flags naming one model.
type keyFlags struct {
	modelsDir string
	profile   string
	scenario  string
	model     string
	order     int
}

func (k *keyFlags) bind(cmd *cobra.Command) {
	def := DefaultRunConfig()
	cmd.Flags().StringVar(&k.modelsDir, "models-dir", def.ModelsDir, "Directory holding M_matrix/ and PDF/")
	cmd.Flags().StringVar(&k.profile, "profile", def.Profile, "OEM profile (Volkswagen or Renault)")
	cmd.Flags().StringVar(&k.scenario, "scenario", def.Scenario, "Scenario (Highway, Suburban, Urban or Universal)")
	cmd.Flags().StringVar(&k.model, "model", def.Model, "Markov model (Complete, Intervals or Sizes)")
	cmd.Flags().IntVarP(&k.order, "order", "m", def.Order, "Number of symbols in the Markov window (1 or 5)")
}

func (k *keyFlags) key() (model.Key, error) {
	profile, err := sim.ParseProfile(k.profile)
	if err != nil {
		return model.Key{}, err
	}
	scenario, err := sim.ParseScenario(k.scenario)
	if err != nil {
		return model.Key{}, err
	}
	mode, err := sim.ParseMode(k.model)
	if err != nil {
		return model.Key{}, err
	}
	key := model.Key{Scenario: scenario, Profile: profile, Mode: mode, Order: k.order}
	return key, key.Validate()
}

func newValidateCmd() *cobra.Command {
	var (
		kf        keyFlags
		tolerance float64
	)
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a model's probability sums and symbol alphabet",
		Run: func(cmd *cobra.Command, args []string) {
			key, err := kf.key()
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			if err := runValidate(cmd.OutOrStdout(), model.NewRepository(kf.modelsDir), key, tolerance); err != nil {
				logrus.Fatalf("%v", err)
			}
		},
	}
	kf.bind(cmd)
	cmd.Flags().Float64Var(&tolerance, "tolerance", model.SumTolerance, "Allowed deviation of probability sums from 1")
	return cmd
}

// runValidate prints the validation report of key and fails if any check fails.
func runValidate(out io.Writer, repo *model.Repository, key model.Key, tolerance float64) error {
	m, err := repo.Load(key)
	if err != nil {
		return err
	}
	report := m.Validate(tolerance)
	decoder, err := sim.NewDecoder(key.Mode, key.Profile, 0)
	if err != nil {
		return err
	}
	alphabetOK := int(report.MaxSymbol) <= decoder.MaxSymbol()

	fmt.Fprintf(out, "Model: %s\n", key)
	fmt.Fprintf(out, "Transition rows: %d, prefixes: %d\n", len(m.Transitions.Rows()), report.Prefixes)
	fmt.Fprintf(out, "Initial windows: %d, total mass %.9f\n", len(m.States.Rows()), report.StateMass)
	fmt.Fprintf(out, "Largest symbol: %d (alphabet %d)\n", report.MaxSymbol, decoder.MaxSymbol())
	for _, d := range report.Deviations {
		fmt.Fprintf(out, "  prefix %v sums to %.9f\n", d.Prefix, d.Sum)
	}
	if m.Reference != nil {
		fmt.Fprintf(out, "Reference PMF: %d interval classes\n", len(m.Reference.Rows))
	}

	switch {
	case !alphabetOK:
		return fmt.Errorf("%w: symbol %d exceeds the %s/%s alphabet of %d",
			sim.ErrModelFormat, report.MaxSymbol, key.Mode, key.Profile, decoder.MaxSymbol())
	case !report.OK():
		return fmt.Errorf("%w: %d prefixes and state mass %.9f outside tolerance %g",
			sim.ErrModelFormat, len(report.Deviations), report.StateMass, tolerance)
	}
	fmt.Fprintln(out, "OK")
	return nil
}
