package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inference-sim/camtrace/sim"
	"github.com/inference-sim/camtrace/sim/model"
	"github.com/inference-sim/camtrace/sim/trace"
)

func sizesKey() model.Key {
	return model.Key{Scenario: sim.ScenarioHighway, Profile: sim.ProfileVolkswagen, Mode: sim.ModeSizes, Order: 1}
}

func TestRunValidate_OK(t *testing.T) {
	root := t.TempDir()
	writeUniformIntervalsModel(t, root)
	key := model.Key{Scenario: sim.ScenarioHighway, Profile: sim.ProfileVolkswagen, Mode: sim.ModeIntervals, Order: 1}

	var out bytes.Buffer
	err := runValidate(&out, model.NewRepository(root), key, model.SumTolerance)

	require.NoError(t, err)
	assert.Contains(t, out.String(), "prefixes: 10")
	assert.Contains(t, out.String(), "Reference PMF: 10 interval classes")
	assert.Contains(t, out.String(), "OK")
}

func TestRunValidate_PrefixSumOff(t *testing.T) {
	root := t.TempDir()
	writeFile(t, sizesKey().TransitionPath(root), "1,2,0.5\n2,1,1.0\n")
	writeFile(t, sizesKey().StatePath(root), "1,1.0\n")

	var out bytes.Buffer
	err := runValidate(&out, model.NewRepository(root), sizesKey(), model.SumTolerance)

	assert.ErrorIs(t, err, sim.ErrModelFormat)
	assert.Contains(t, out.String(), "prefix [1] sums to 0.500000000")
}

func TestRunValidate_AlphabetTooLarge(t *testing.T) {
	// GIVEN a sizes model using class 5 with the four-class Volkswagen table
	root := t.TempDir()
	writeFile(t, sizesKey().TransitionPath(root), "1,5,1.0\n5,1,1.0\n")
	writeFile(t, sizesKey().StatePath(root), "1,1.0\n")

	var out bytes.Buffer
	err := runValidate(&out, model.NewRepository(root), sizesKey(), model.SumTolerance)

	assert.ErrorIs(t, err, sim.ErrModelFormat)
}

func TestKeyFlags_Key(t *testing.T) {
	kf := keyFlags{profile: "renault", scenario: "urban", model: "joint", order: 5}
	key, err := kf.key()
	require.NoError(t, err)
	assert.Equal(t, "RenaultUrban_m5.csv", key.BaseName())

	kf.order = 2
	_, err = kf.key()
	assert.ErrorIs(t, err, sim.ErrConfiguration)
}

func TestRunStats_WithReference(t *testing.T) {
	// GIVEN generated traces and the models they came from
	models, out := t.TempDir(), t.TempDir()
	writeUniformIntervalsModel(t, models)
	_, err := runGenerate(context.Background(), intervalsRunConfig(models, out))
	require.NoError(t, err)

	// WHEN stats run without profile or scenario flags
	var buf bytes.Buffer
	err = runStats(&buf, out, "", "", models)

	// THEN the header supplies both and the reference comparison is printed
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Vehicles: 3")
	assert.Contains(t, buf.String(), "Total variation distance to reference intervals")
}

func TestRunStats_ReferenceOnlyModelsDir(t *testing.T) {
	// GIVEN generated traces and a models directory holding only the reference PDF
	models, out := t.TempDir(), t.TempDir()
	writeUniformIntervalsModel(t, models)
	_, err := runGenerate(context.Background(), intervalsRunConfig(models, out))
	require.NoError(t, err)
	refOnly := t.TempDir()
	writeFile(t, filepath.Join(refOnly, "PDF", "PDF_VolkswagenHighway_IntervalsOnly_m1.csv"),
		"1,0.1\n2,0.1\n3,0.1\n4,0.1\n5,0.1\n6,0.1\n7,0.1\n8,0.1\n9,0.1\n10,0.1\n")

	// WHEN stats compare against it
	var buf bytes.Buffer
	err = runStats(&buf, out, "", "", refOnly)

	// THEN the distance is printed without a transition matrix on disk
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Total variation distance to reference intervals")
}

func TestRunStats_NoReferenceSkipsComparison(t *testing.T) {
	// GIVEN generated traces and an empty models directory
	models, out := t.TempDir(), t.TempDir()
	writeUniformIntervalsModel(t, models)
	_, err := runGenerate(context.Background(), intervalsRunConfig(models, out))
	require.NoError(t, err)

	// WHEN stats run against it
	var buf bytes.Buffer
	err = runStats(&buf, out, "", "", t.TempDir())

	// THEN the summary is printed and the comparison is skipped
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Vehicles: 3")
	assert.NotContains(t, buf.String(), "Total variation distance")
}

func TestRunStats_EmptyDir(t *testing.T) {
	var buf bytes.Buffer
	err := runStats(&buf, t.TempDir(), "", "", "")
	assert.ErrorIs(t, err, sim.ErrConfiguration)
}

func TestRunReselect_AllTracesInDir(t *testing.T) {
	models, out := t.TempDir(), t.TempDir()
	writeUniformIntervalsModel(t, models)
	_, err := runGenerate(context.Background(), intervalsRunConfig(models, out))
	require.NoError(t, err)

	n, err := runReselect(out, 0)

	require.NoError(t, err)
	assert.Equal(t, 3, n)
	for id := 1; id <= 3; id++ {
		assert.FileExists(t, filepath.Join(out, trace.ReselectionFileName(id)))
	}

	// a second pass ignores the reselection outputs
	n, err = runReselect(out, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestRunReselect_MissingVehicle(t *testing.T) {
	_, err := runReselect(t.TempDir(), 2)
	assert.Error(t, err)
}
