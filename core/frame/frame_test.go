package frame

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestNewRejectsMismatchedColumns(t *testing.T) {
	_, err := New(
		NewFloatColumn("a", []float64{1, 2}),
		NewFloatColumn("b", []float64{1}),
	)
	assert.Error(t, err)

	_, err = New(
		NewFloatColumn("a", []float64{1}),
		NewFloatColumn("a", []float64{2}),
	)
	assert.Error(t, err)
}

func TestCloneIsDeep(t *testing.T) {
	f := MustNew(
		NewFloatColumn("x", []float64{1, math.NaN()}),
		NewStringColumn("s", []string{"a", ""}, []bool{true, false}),
	)
	cp := f.Clone()

	col, _ := cp.Column("x")
	col.FillFloat(9)
	scol, _ := cp.Column("s")
	scol.FillString("z")

	orig, _ := f.Column("x")
	assert.True(t, math.IsNaN(orig.Floats()[1]))
	origS, _ := f.Column("s")
	assert.Equal(t, 1, origS.MissingCount())
	assert.Equal(t, []float64{1, 9}, col.Floats())
	assert.Equal(t, []string{"a", "z"}, scol.Strings())
}

func TestDropKeepsOrder(t *testing.T) {
	f := MustNew(
		NewFloatColumn("a", []float64{1}),
		NewFloatColumn("b", []float64{2}),
		NewFloatColumn("c", []float64{3}),
	)
	out := f.Drop("b")
	assert.Equal(t, []string{"a", "c"}, out.Names())
	assert.True(t, f.Has("b"))
}

func TestReadCSVInfersKinds(t *testing.T) {
	in := "id,income,grade,opened\n1,100.5,A,2020-01-02\n2,,B,2021-03-04\n3,7,NA,\n"
	f, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, 3, f.Len())
	income, _ := f.Column("income")
	assert.Equal(t, Float, income.Kind())
	assert.True(t, income.IsMissing(1))

	grade, _ := f.Column("grade")
	assert.Equal(t, String, grade.Kind())
	assert.Equal(t, 1, grade.MissingCount())

	opened, _ := f.Column("opened")
	assert.Equal(t, Time, opened.Kind())
	assert.True(t, opened.IsMissing(2))
}

func TestReadCSVForcedKind(t *testing.T) {
	in := "zip\n02134\n10001\n"
	f, err := ReadCSV(strings.NewReader(in), WithKinds(map[string]Kind{"zip": String}))
	require.NoError(t, err)
	zip, _ := f.Column("zip")
	assert.Equal(t, []string{"02134", "10001"}, zip.Strings())
}

func TestWriteCSVRoundTrip(t *testing.T) {
	f := MustNew(
		NewFloatColumn("x", []float64{7.0 / 3.0, math.NaN(), -0.1}),
		NewStringColumn("s", []string{"a", "", "c"}, []bool{true, false, true}),
	)
	var buf bytes.Buffer
	require.NoError(t, f.WriteCSV(&buf))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	x, _ := back.Column("x")
	assert.Equal(t, 7.0/3.0, x.Floats()[0])
	assert.True(t, math.IsNaN(x.Floats()[1]))
	s, _ := back.Column("s")
	assert.False(t, s.Valid()[1])
}

func TestColumnStatistics(t *testing.T) {
	c := NewFloatColumn("x", []float64{1, 2, math.NaN(), 4})

	assert.InDelta(t, 7.0/3.0, c.Mean(), 1e-12)
	assert.Equal(t, 2.0, c.Median())
	assert.InDelta(t, 1.5275252316519468, c.StdDev(), 1e-12)
	lo, hi := c.MinMax()
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 4.0, hi)
	// pandas: Series([1,2,4]).quantile(0.99) == 3.96
	assert.InDelta(t, 3.96, c.Quantile(0.99), 1e-12)
	assert.InDelta(t, 1.02, c.Quantile(0.01), 1e-12)

	empty := NewFloatColumn("e", []float64{math.NaN()})
	assert.True(t, math.IsNaN(empty.Mean()))
	assert.True(t, math.IsNaN(empty.Quantile(0.5)))
}

func TestColumnMode(t *testing.T) {
	c := NewStringColumn("g", []string{"b", "a", "b", "a", ""}, []bool{true, true, true, true, false})
	mode, ok := c.Mode()
	require.True(t, ok)
	assert.Equal(t, "a", mode)

	none := NewStringColumn("n", []string{""}, []bool{false})
	_, ok = none.Mode()
	assert.False(t, ok)
}

func TestReadExcel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"income", "grade", "note"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"1200.5", "A", "x"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"", "B"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	df, err := ReadExcel(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"income", "grade", "note"}, df.Names())
	assert.Equal(t, 2, df.Len())

	income, _ := df.Column("income")
	assert.Equal(t, Float, income.Kind())
	assert.Equal(t, 1200.5, income.Floats()[0])
	assert.True(t, income.IsMissing(1))

	note, _ := df.Column("note")
	assert.True(t, note.IsMissing(1), "trailing empty cell is padded")

	_, err = ReadExcel(path, "NoSuchSheet")
	assert.Error(t, err)
}
