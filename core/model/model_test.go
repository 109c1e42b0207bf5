package model

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

type doubler struct {
	state  *StateManager
	fitErr error
}

func (d *doubler) Name() string { return "Doubler" }

func (d *doubler) Fit(df *frame.Frame) (int, error) {
	if d.fitErr != nil {
		return 0, d.fitErr
	}
	d.state.SetFitted(df.Width(), df.Len())
	return df.Len(), nil
}

func (d *doubler) Apply(df *frame.Frame) (*frame.Frame, error) {
	if err := d.state.RequireFitted("Doubler.Apply"); err != nil {
		return nil, err
	}
	out := df.Clone()
	col, _ := out.Column("x")
	for i, v := range col.Floats() {
		col.Floats()[i] = 2 * v
	}
	return out, nil
}

func TestFitApply(t *testing.T) {
	df := frame.MustNew(frame.NewFloatColumn("x", []float64{1, 2, 3}))
	d := &doubler{state: NewStateManager()}

	_, err := d.Apply(df)
	require.Error(t, err)
	var me *errors.ModelError
	assert.True(t, errors.As(err, &me))

	n, out, err := FitApply[int](d, df)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	col, _ := out.Column("x")
	assert.Equal(t, []float64{2, 4, 6}, col.Floats())

	nv, ns := d.state.GetDimensions()
	assert.Equal(t, 1, nv)
	assert.Equal(t, 3, ns)
	assert.True(t, d.state.IsFitted())
	assert.NoError(t, d.state.RequireFitted("Doubler.Apply"))
}

func TestFitApplyStopsOnFitError(t *testing.T) {
	df := frame.MustNew(frame.NewFloatColumn("x", []float64{1}))
	d := &doubler{state: NewStateManager(), fitErr: errors.New("boom")}
	_, out, err := FitApply[int](d, df)
	assert.Error(t, err)
	assert.Nil(t, out)
}

type snapshot struct {
	Processes []string
	Target    string
}

func TestSnapshotRoundTrip(t *testing.T) {
	in := snapshot{Processes: []string{"Cap", "Woe"}, Target: "bad"}

	var buf bytes.Buffer
	require.NoError(t, SaveSnapshotToWriter(in, &buf))
	var out snapshot
	require.NoError(t, LoadSnapshotFromReader(&out, &buf))
	assert.Equal(t, in, out)

	path := filepath.Join(t.TempDir(), "snap.gob")
	require.NoError(t, SaveSnapshot(in, path))
	out = snapshot{}
	require.NoError(t, LoadSnapshot(&out, path))
	assert.Equal(t, in, out)

	assert.Error(t, LoadSnapshot(&out, filepath.Join(t.TempDir(), "missing.gob")))
}
