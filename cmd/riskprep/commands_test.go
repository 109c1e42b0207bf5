package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/reference"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

func writeTrain(t *testing.T, dir string) string {
	t.Helper()
	n := 30
	income := make([]float64, n)
	grade := make([]string, n)
	age := make([]float64, n)
	bad := make([]float64, n)
	for i := 0; i < n; i++ {
		income[i] = float64(i + 1)
		grade[i] = []string{"A", "B", "C"}[i%3]
		age[i] = float64(20 + i)
		if i%4 == 1 || i%7 == 0 {
			bad[i] = 1
		}
	}
	income[5] = math.NaN()
	df := frame.MustNew(
		frame.NewFloatColumn("income", income),
		frame.NewStringColumn("grade", grade, nil),
		frame.NewFloatColumn("age", age),
		frame.NewFloatColumn("bad", bad),
	)
	path := filepath.Join(dir, "train.csv")
	require.NoError(t, df.WriteCSVFile(path))
	return path
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	cfg := reference.MustNewTable([]reference.Row{
		{VarName: "income", VarType: reference.Numerical, IndModel: true, IndCap: true, IndFloor: true,
			MissingImpute: reference.String("mean")},
		{VarName: "grade", VarType: reference.Categorical, IndModel: true, IndWOE: true},
		{VarName: "age", VarType: reference.Numerical, IndModel: true, IndWOE: true, WOEBin: []float64{30, 40}},
	})
	path := filepath.Join(dir, "config.csv")
	require.NoError(t, reference.WriteTableFile(path, cfg))
	return path
}

func TestInferAndCheck(t *testing.T) {
	dir := t.TempDir()
	train := writeTrain(t, dir)
	config := filepath.Join(dir, "inferred.csv")

	_, err := run(t, "infer", "--data", train, "--output", config)
	require.NoError(t, err)
	cfg, err := reference.ReadTableFile(config)
	require.NoError(t, err)
	assert.Equal(t, []string{"income", "grade", "age", "bad"}, cfg.Names())

	out, err := run(t, "check", "--config", config, "--data", train)
	require.NoError(t, err)
	assert.Contains(t, out, "0 error(s)")
}

func TestCheckReportsErrors(t *testing.T) {
	dir := t.TempDir()
	train := writeTrain(t, dir)
	cfg := reference.MustNewTable([]reference.Row{
		{VarName: "absent", VarType: reference.Numerical, IndModel: true},
	})
	config := filepath.Join(dir, "config.csv")
	require.NoError(t, reference.WriteTableFile(config, cfg))

	out, err := run(t, "check", "--config", config, "--data", train)
	assert.Error(t, err)
	assert.Contains(t, out, "1 error(s)")
}

func TestFitApplyCorr(t *testing.T) {
	dir := t.TempDir()
	train := writeTrain(t, dir)
	config := writeConfig(t, dir)
	model := filepath.Join(dir, "pipeline.gob")
	ref := filepath.Join(dir, "reference.csv")
	woeRef := filepath.Join(dir, "woe.csv")

	out, err := run(t, "fit",
		"--config", config,
		"--train", train,
		"--target", "bad",
		"--processes", "Cap,Floor,MissingImpute,Woe",
		"--model", model,
		"--reference", ref,
		"--woe-reference", woeRef,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Cap -----> Floor -----> MissingImpute -----> Woe")
	assert.Contains(t, out, "fitted on 3 variables, 30 rows")

	for _, path := range []string{model, ref, woeRef} {
		_, err := os.Stat(path)
		require.NoError(t, err, path)
	}
	woe, err := reference.ReadWoeTableFile(woeRef)
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "grade"}, woe.Variables())

	transformed := filepath.Join(dir, "out.csv")
	_, err = run(t, "apply", "--model", model, "--data", train, "--output", transformed)
	require.NoError(t, err)
	df, err := frame.ReadCSVFile(transformed)
	require.NoError(t, err)
	assert.True(t, df.Has("nwoe_age"))
	assert.True(t, df.Has("cwoe_grade"))
	assert.False(t, df.Has("age"))
	income, _ := df.Column("income")
	assert.Zero(t, income.MissingCount())

	out, err = run(t, "power", "--data", transformed, "--target", "bad", "nwoe_age", "cwoe_grade")
	require.NoError(t, err)
	assert.Contains(t, out, "nwoe_age")
	assert.Contains(t, out, "cwoe_grade")

	out, err = run(t, "corr", "--data", transformed, "--threshold", "0.99")
	require.NoError(t, err)
	lines := strings.Fields(out)
	require.NotEmpty(t, lines)
	assert.Equal(t, "income", lines[0])
}

func TestFitRequiresSettings(t *testing.T) {
	_, err := run(t, "fit", "--train", "x.csv")
	assert.Error(t, err)
}

func TestShow(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pipeline.yaml", "target: bad\nprocesses: [Woe]\n")
	out, err := run(t, "show", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "target: bad")
	assert.Contains(t, out, "- Woe")
}
