package tactic

import (
	"bytes"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/pkg/log"
	"github.com/YuminosukeSato/riskprep/reference"
)

var nan = math.NaN()

func testLogger() *log.TestLogger {
	l, _ := log.NewTestLogger(log.LevelDebug)
	return l
}

func floats(t *testing.T, df *frame.Frame, name string) []float64 {
	t.Helper()
	col, ok := df.Column(name)
	require.True(t, ok, name)
	return col.Floats()
}

func TestProcessNames(t *testing.T) {
	for _, p := range []Process{Cap, Floor, MissingImpute, Woe, Normalize, Scale} {
		back, err := ParseProcess(strings.ToLower(p.String()))
		require.NoError(t, err)
		assert.Equal(t, p, back)
	}
	_, err := ParseProcess("Bucket")
	assert.Error(t, err)
	assert.Equal(t, "Unknown", Process(42).String())
}

func TestProcessList(t *testing.T) {
	logger := testLogger()
	tc := New(reference.MustNewTable(nil), WithLogger(logger), WithProcesses(Cap, Floor))
	tc.AddProcess(MissingImpute, Cap)

	assert.Equal(t, "Cap -----> Floor -----> MissingImpute", tc.Summary())
	assert.True(t, logger.ContainsMessage("Process already exists"))

	tc.ClearProcess()
	assert.Empty(t, tc.Processes())
	assert.Equal(t, "", tc.Summary())
}

func checkFixture() *frame.Frame {
	return frame.MustNew(
		frame.NewFloatColumn("x", []float64{1, 2, 3}),
		frame.NewStringColumn("g", []string{"a", "b", "a"}, nil),
	)
}

func TestCheckConfig(t *testing.T) {
	valid := func() []reference.Row {
		return []reference.Row{
			{VarName: "x", VarType: reference.Numerical, IndModel: true, IndCap: true, MissingImpute: reference.String("mean")},
			{VarName: "g", VarType: reference.Categorical, IndModel: true, MissingImpute: reference.String("mode")},
		}
	}
	tests := []struct {
		name   string
		mutate func(rows []reference.Row) []reference.Row
		want   int
	}{
		{"valid", func(r []reference.Row) []reference.Row { return r }, 0},
		{"numeric literal impute", func(r []reference.Row) []reference.Row {
			r[0].MissingImpute = reference.String("-1")
			return r
		}, 0},
		{"variable not in dataset", func(r []reference.Row) []reference.Row {
			return append(r, reference.Row{VarName: "z", VarType: reference.Numerical})
		}, 1},
		{"type mismatch", func(r []reference.Row) []reference.Row {
			r[1].VarType = reference.Numerical
			r[1].MissingImpute = nil
			return r
		}, 1},
		{"unknown type", func(r []reference.Row) []reference.Row {
			r[0].VarType = "date"
			return r
		}, 1},
		{"categorical cap", func(r []reference.Row) []reference.Row {
			r[1].IndCap = true
			return r
		}, 1},
		{"categorical floor", func(r []reference.Row) []reference.Row {
			r[1].IndFloor = true
			return r
		}, 1},
		{"bad numerical impute", func(r []reference.Row) []reference.Row {
			r[0].MissingImpute = reference.String("mode")
			return r
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := testLogger()
			cfg := reference.MustNewTable(tt.mutate(valid()))
			tc := New(cfg, WithLogger(logger))
			assert.Equal(t, tt.want, tc.CheckConfig(checkFixture()))
			assert.Equal(t, tt.want, logger.CountLevel("WARN"))
			assert.Same(t, cfg, tc.Reference(), "check does not mutate")
		})
	}
}

func TestCheckConfigHeader(t *testing.T) {
	in := "Var_Name,Var_Type,Preicesion,Ind_Model,Bogus\nx,numerical,2,1,\n"
	cfg, err := reference.ReadTable(strings.NewReader(in))
	require.NoError(t, err)
	tc := New(cfg, WithLogger(testLogger()))
	assert.Equal(t, 1, tc.CheckConfig(checkFixture()))
}

func TestFitRejectsBadConfig(t *testing.T) {
	cfg := reference.MustNewTable([]reference.Row{{VarName: "missing", VarType: reference.Numerical, IndModel: true}})
	tc := New(cfg, WithLogger(testLogger()), WithProcesses(Cap))
	_, err := tc.Fit(checkFixture())

	var ce *errors.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 1, ce.Count)
}

func TestFitRequiresTargetForWoe(t *testing.T) {
	cfg := reference.MustNewTable([]reference.Row{{VarName: "x", VarType: reference.Numerical, IndModel: true}})
	tc := New(cfg, WithLogger(testLogger()), WithProcesses(Woe))
	_, err := tc.Fit(checkFixture())

	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestFitImputesMean(t *testing.T) {
	cfg := reference.MustNewTable([]reference.Row{
		{VarName: "x", VarType: reference.Numerical, IndModel: true, MissingImpute: reference.String("mean")},
	})
	df := frame.MustNew(frame.NewFloatColumn("x", []float64{1, 2, nan, 4}))

	tc := New(cfg, WithLogger(testLogger()), WithProcesses(Cap, Floor, MissingImpute))
	_, err := tc.Fit(df)
	require.NoError(t, err)
	out, err := tc.Apply(df)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 7.0 / 3.0, 4}, floats(t, out, "x"))
	assert.True(t, math.IsNaN(floats(t, df, "x")[2]), "input is not modified")
}

func creditConfig() *reference.Table {
	return reference.MustNewTable([]reference.Row{
		{VarName: "income", VarType: reference.Numerical, IndModel: true, IndCap: true, IndFloor: true,
			MissingImpute: reference.String("median"), IndScale: true},
		{VarName: "grade", VarType: reference.Categorical, IndModel: true, IndWOE: true, IndNorm: true},
		{VarName: "age", VarType: reference.Numerical, IndModel: true, IndWOE: true, WOEBin: []float64{30, 40}, IndNorm: true},
	})
}

func creditFrame() *frame.Frame {
	n := 20
	income := make([]float64, n)
	grade := make([]string, n)
	age := make([]float64, n)
	for i := 0; i < n; i++ {
		income[i] = float64(i + 1)
		grade[i] = []string{"A", "B", "C"}[i%3]
		age[i] = float64(20 + 2*i)
	}
	income[3], income[11] = nan, nan
	income[19] = 500
	bad := []float64{0, 1, 0, 0, 1, 0, 0, 1, 1, 0, 0, 0, 1, 0, 1, 0, 0, 1, 0, 0}
	return frame.MustNew(
		frame.NewFloatColumn("income", income),
		frame.NewStringColumn("grade", grade, nil),
		frame.NewFloatColumn("age", age),
		frame.NewFloatColumn("bad", bad),
	)
}

var allProcesses = []Process{Cap, Floor, MissingImpute, Woe, Normalize, Scale}

func assertSameFrame(t *testing.T, want, got *frame.Frame) {
	t.Helper()
	require.Equal(t, want.Names(), got.Names())
	for _, name := range want.Names() {
		assert.Equal(t, floats(t, want, name), floats(t, got, name), name)
	}
}

func TestFitApplyPipeline(t *testing.T) {
	cfg := creditConfig()
	df := creditFrame()
	tc := New(cfg, WithLogger(testLogger()), WithProcesses(allProcesses...), WithTarget("bad"))

	ref, err := tc.Fit(df)
	require.NoError(t, err)
	assert.Equal(t, 5, ref.Generation(), "one generation per config-schema stage")
	assert.Same(t, ref, tc.Reference())
	assert.Equal(t, []string{"age", "grade"}, tc.WoeReference().Variables())

	income, _ := ref.Row("income")
	require.NotNil(t, income.CapValue)
	require.NotNil(t, income.FloorValue)
	assert.Equal(t, 0.0, *income.FloorValue)
	require.NotNil(t, income.Min)
	grade, _ := ref.Row("grade")
	require.NotNil(t, grade.Mean)
	require.NotNil(t, grade.Std)

	out, err := tc.Apply(df)
	require.NoError(t, err)
	assert.Equal(t, []string{"income", "bad", "cwoe_grade", "nwoe_age"}, out.Names())
	assert.Equal(t, "cwoe_grade", tc.Columns().Resolve("grade"))

	for _, v := range floats(t, out, "income") {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.InDelta(t, 0, mean(floats(t, out, "nwoe_age")), 1e-9)
}

func mean(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s / float64(len(x))
}

func TestPersistedReferenceReplaysApply(t *testing.T) {
	df := creditFrame()
	tc := New(creditConfig(), WithLogger(testLogger()), WithProcesses(allProcesses...), WithTarget("bad"))
	_, err := tc.Fit(df)
	require.NoError(t, err)
	want, err := tc.Apply(df)
	require.NoError(t, err)

	dir := t.TempDir()
	refPath := filepath.Join(dir, "reference_table.csv")
	woePath := filepath.Join(dir, "woe_ref_table.csv")
	require.NoError(t, tc.SaveReference(refPath))
	require.NoError(t, tc.SaveWoeReference(woePath))

	ref, err := reference.ReadTableFile(refPath)
	require.NoError(t, err)
	woeRef, err := reference.ReadWoeTableFile(woePath)
	require.NoError(t, err)

	replay := New(ref, WithLogger(testLogger()), WithProcesses(allProcesses...), WithWoeReference(woeRef))
	got, err := replay.Apply(creditFrame())
	require.NoError(t, err)
	assertSameFrame(t, want, got)
}

func TestSaveLoad(t *testing.T) {
	df := creditFrame()
	tc := New(creditConfig(), WithLogger(testLogger()), WithProcesses(allProcesses...), WithTarget("bad"))
	_, err := tc.Fit(df)
	require.NoError(t, err)
	want, err := tc.Apply(df)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "tactic.gob")
	require.NoError(t, tc.Save(path))
	loaded, err := Load(path, WithLogger(testLogger()))
	require.NoError(t, err)

	assert.Equal(t, tc.Summary(), loaded.Summary())
	assert.Equal(t, "bad", loaded.Target())
	assert.Equal(t, tc.Reference().Generation(), loaded.Reference().Generation())
	assert.Equal(t, tc.Reference().Rows(), loaded.Reference().Rows())

	nVars, nRows, err := loaded.Shape()
	require.NoError(t, err)
	assert.Equal(t, 3, nVars)
	assert.Equal(t, 20, nRows)

	got, err := loaded.Apply(df)
	require.NoError(t, err)
	assertSameFrame(t, want, got)
}

func TestShapeBeforeFit(t *testing.T) {
	tc := New(creditConfig(), WithLogger(testLogger()), WithProcesses(Cap))
	_, _, err := tc.Shape()
	var me *errors.ModelError
	assert.True(t, errors.As(err, &me))

	s, err := tc.Snapshot()
	require.NoError(t, err)
	assert.False(t, s.Fitted)
	restored, err := Restore(s, WithLogger(testLogger()))
	require.NoError(t, err)
	_, _, err = restored.Shape()
	assert.Error(t, err)
}

func TestRestoreRejectsMismatchedShape(t *testing.T) {
	tc := New(creditConfig(), WithLogger(testLogger()), WithProcesses(Cap, Floor), WithTarget("bad"))
	_, err := tc.Fit(creditFrame())
	require.NoError(t, err)

	s, err := tc.Snapshot()
	require.NoError(t, err)
	assert.True(t, s.Fitted)
	assert.Equal(t, 3, s.NVariables)
	assert.Equal(t, 20, s.NSamples)

	s.NVariables = 5
	_, err = Restore(s, WithLogger(testLogger()))
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestSaveWoeReferenceWithoutFit(t *testing.T) {
	tc := New(creditConfig(), WithLogger(testLogger()))
	err := tc.SaveWoeReference(filepath.Join(t.TempDir(), "woe.csv"))
	assert.True(t, errors.Is(err, errors.ErrMissingWoeReference))
}

func TestAddDropVariables(t *testing.T) {
	cfg := reference.MustNewTable([]reference.Row{
		{VarName: "x", VarType: reference.Numerical, IndCap: true},
	})
	df := frame.MustNew(frame.NewFloatColumn("x", []float64{1, 2, 3, 100}))
	tc := New(cfg, WithLogger(testLogger()), WithProcesses(Cap))

	ref, err := tc.Fit(df)
	require.NoError(t, err)
	row, _ := ref.Row("x")
	assert.Nil(t, row.CapValue, "x is not in model")

	require.NoError(t, tc.AddVariables([]string{"x"}, ""))
	ref, err = tc.Fit(df)
	require.NoError(t, err)
	row, _ = ref.Row("x")
	assert.NotNil(t, row.CapValue)

	require.NoError(t, tc.DropVariables([]string{"x"}, reference.ColIndCap))
	row, _ = tc.Reference().Row("x")
	assert.True(t, row.IndModel)
	assert.False(t, row.IndCap)

	assert.Error(t, tc.AddVariables([]string{"x"}, "Bogus"))
	orig, _ := cfg.Row("x")
	assert.False(t, orig.IndModel, "config is never modified")
}

func TestFailedFitKeepsState(t *testing.T) {
	cfg := reference.MustNewTable([]reference.Row{
		{VarName: "x", VarType: reference.Numerical, IndModel: true, IndCap: true, IndNorm: true},
	})
	df := frame.MustNew(frame.NewFloatColumn("x", []float64{5, 5, 5}))
	tc := New(cfg, WithLogger(testLogger()), WithProcesses(Cap, Normalize))

	_, err := tc.Fit(df)
	var dse *errors.DegenerateStatisticError
	require.True(t, errors.As(err, &dse))
	assert.Same(t, cfg, tc.Reference())
}

func TestApplyWithoutFit(t *testing.T) {
	tc := New(creditConfig(), WithLogger(testLogger()), WithProcesses(Cap))
	_, err := tc.Apply(creditFrame())
	var mre *errors.MissingReferenceError
	assert.True(t, errors.As(err, &mre))
}

func TestStageLogsCarryOwnComponent(t *testing.T) {
	var buf bytes.Buffer
	provider := log.NewZerologProviderWithWriter(&buf, log.LevelInfo)
	defer errors.SetZerologWarnFunc(nil)

	tc := New(creditConfig(), WithLogger(provider.GetLogger()), WithProcesses(Cap, Woe), WithTarget("bad"))
	_, err := tc.Fit(creditFrame())
	require.NoError(t, err)

	components := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.LessOrEqual(t, strings.Count(line, `"`+log.ComponentKey+`"`), 1, line)
		assert.LessOrEqual(t, strings.Count(line, `"`+log.EstimatorIDKey+`"`), 1, line)

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if c, ok := entry[log.ComponentKey].(string); ok {
			components[c] = true
		}
	}
	assert.True(t, components["tactic"])
	assert.True(t, components["preprocessing.Cap"])
	assert.True(t, components["preprocessing.Woe"])
}
