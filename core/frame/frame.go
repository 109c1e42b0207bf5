// Package frame は前処理パイプラインが扱う列指向のインメモリデータセットを提供する
package frame

import (
	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// Frame は同じ長さの名前付き列を順序付きで保持する
type Frame struct {
	cols  []*Column
	index map[string]int
}

// New は列からFrameを作成する
//
// 戻り値:
//   - *Frame: 新しいFrame
//   - error: 列名の重複または行数の不一致がある場合
func New(cols ...*Column) (*Frame, error) {
	f := &Frame{index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if err := f.AddColumn(c); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// MustNew はNewと同じだがエラー時にpanicする。テストと例で使う
func MustNew(cols ...*Column) *Frame {
	f, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return f
}

// Len は行数を返す
func (f *Frame) Len() int {
	if len(f.cols) == 0 {
		return 0
	}
	return f.cols[0].Len()
}

// Width は列数を返す
func (f *Frame) Width() int { return len(f.cols) }

// Names は列名を順番に返す
func (f *Frame) Names() []string {
	names := make([]string, len(f.cols))
	for i, c := range f.cols {
		names[i] = c.name
	}
	return names
}

// Column は列を名前で取得する
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.cols[i], true
}

// Has は列が存在するかどうかを返す
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// AddColumn は列を末尾に追加する
func (f *Frame) AddColumn(c *Column) error {
	if _, exists := f.index[c.name]; exists {
		return errors.NewValidationError("column", "duplicate column name", c.name)
	}
	if len(f.cols) > 0 && c.Len() != f.Len() {
		return errors.NewDimensionMismatch("Frame.AddColumn", f.Len(), c.Len())
	}
	f.index[c.name] = len(f.cols)
	f.cols = append(f.cols, c)
	return nil
}

// SetColumn は同名の列を置き換える。存在しない場合は追加する
func (f *Frame) SetColumn(c *Column) error {
	i, ok := f.index[c.name]
	if !ok {
		return f.AddColumn(c)
	}
	if c.Len() != f.Len() {
		return errors.NewDimensionMismatch("Frame.SetColumn", f.Len(), c.Len())
	}
	f.cols[i] = c
	return nil
}

// Drop は指定した列を除いた新しいFrameを返す。列データは共有される
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	out := &Frame{index: make(map[string]int, len(f.cols))}
	for _, c := range f.cols {
		if drop[c.name] {
			continue
		}
		out.index[c.name] = len(out.cols)
		out.cols = append(out.cols, c)
	}
	return out
}

// Clone はFrameのディープコピーを返す
func (f *Frame) Clone() *Frame {
	out := &Frame{
		cols:  make([]*Column, len(f.cols)),
		index: make(map[string]int, len(f.cols)),
	}
	for i, c := range f.cols {
		out.cols[i] = c.Clone()
		out.index[c.name] = i
	}
	return out
}

// MissingCounts は列ごとの欠損数を返す
func (f *Frame) MissingCounts() map[string]int {
	counts := make(map[string]int, len(f.cols))
	for _, c := range f.cols {
		counts[c.name] = c.MissingCount()
	}
	return counts
}
