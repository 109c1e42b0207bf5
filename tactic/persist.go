package tactic

import (
	"bytes"

	"github.com/YuminosukeSato/riskprep/core/model"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/reference"
)

// SaveReference はリファレンステーブルをCSVで保存する
func (t *Tactic) SaveReference(path string) error {
	return reference.WriteTableFile(path, t.ref)
}

// SaveWoeReference はWOEリファレンステーブルをCSVで保存する
func (t *Tactic) SaveWoeReference(path string) error {
	if t.woeRef == nil {
		return errors.Wrap(errors.ErrMissingWoeReference, "SaveWoeReference")
	}
	return reference.WriteWoeTableFile(path, t.woeRef)
}

// Snapshot はTacticの保存形式
//
// テーブルはCSVのテキストとして持つ（gobはゼロ値へのポインタをnilとして復元する）。
type Snapshot struct {
	Processes    []string
	Target       string
	Config       string
	Reference    string
	Generation   int
	WoeReference string
	HasWoe       bool
	Fitted       bool
	NVariables   int
	NSamples     int
}

// Snapshot は現在の状態を返す
func (t *Tactic) Snapshot() (*Snapshot, error) {
	s := &Snapshot{
		Target:     t.target,
		Generation: t.ref.Generation(),
	}
	if t.state.IsFitted() {
		s.Fitted = true
		s.NVariables, s.NSamples = t.state.GetDimensions()
	}
	for _, p := range t.processes {
		s.Processes = append(s.Processes, p.String())
	}

	var buf bytes.Buffer
	if err := reference.WriteTable(&buf, t.cfg); err != nil {
		return nil, err
	}
	s.Config = buf.String()

	buf.Reset()
	if err := reference.WriteTable(&buf, t.ref); err != nil {
		return nil, err
	}
	s.Reference = buf.String()

	if t.woeRef != nil {
		buf.Reset()
		if err := reference.WriteWoeTable(&buf, t.woeRef); err != nil {
			return nil, err
		}
		s.WoeReference = buf.String()
		s.HasWoe = true
	}
	return s, nil
}

// Save は状態をgob形式で保存する
func (t *Tactic) Save(path string) error {
	s, err := t.Snapshot()
	if err != nil {
		return err
	}
	return model.SaveSnapshot(s, path)
}

// Restore はスナップショットからTacticを作成する。opts でエンジンやロガーを指定できる
func Restore(s *Snapshot, opts ...Option) (*Tactic, error) {
	processes, err := ParseProcesses(s.Processes)
	if err != nil {
		return nil, err
	}
	cfg, err := reference.ReadTable(bytes.NewBufferString(s.Config))
	if err != nil {
		return nil, errors.Wrap(err, "restore config")
	}
	ref, err := reference.ReadTable(bytes.NewBufferString(s.Reference))
	if err != nil {
		return nil, errors.Wrap(err, "restore reference")
	}

	base := []Option{WithProcesses(processes...), WithTarget(s.Target)}
	if s.HasWoe {
		woeRef, err := reference.ReadWoeTable(bytes.NewBufferString(s.WoeReference))
		if err != nil {
			return nil, errors.Wrap(err, "restore woe reference")
		}
		base = append(base, WithWoeReference(woeRef))
	}
	if s.Fitted && s.NVariables != ref.Len() {
		return nil, errors.NewValidationError("NVariables", "does not match the reference table", s.NVariables)
	}
	t := New(cfg, append(base, opts...)...)
	t.ref = ref.WithGeneration(s.Generation)
	if s.Fitted {
		t.state.SetFitted(s.NVariables, s.NSamples)
	}
	return t, nil
}

// Load はSaveで保存したファイルからTacticを作成する
func Load(path string, opts ...Option) (*Tactic, error) {
	var s Snapshot
	if err := model.LoadSnapshot(&s, path); err != nil {
		return nil, err
	}
	return Restore(&s, opts...)
}
