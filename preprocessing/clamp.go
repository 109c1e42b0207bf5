package preprocessing

import (
	"math"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/reference"
)

// CapQuantile はCap_Valueを学習する分位点
const CapQuantile = 0.99

// FloorQuantile はFloor_Valueの学習に使う分位点
const FloorQuantile = 0.01

// Cap は数値変数の上限を丸める
//
// Fitは欠損を除いた99パーセンタイルを学習する。設定テーブルに
// Cap_Valueが既に指定されている場合はその値をそのまま使う。
// Applyは上限を超える値を上限に置き換える。欠損値はそのまま残る。
type Cap struct {
	component
}

// NewCap は新しいCapを作成する。変数の既定値は Ind_Model かつ Ind_Cap の変数
func NewCap(cfg *reference.Table, opts ...Option) *Cap {
	o := newOptions(opts)
	return &Cap{component: newComponent("Cap", cfg, func(r reference.Row) bool { return r.IndCap }, o)}
}

// Fit は変数ごとの上限を学習する
func (c *Cap) Fit(df *frame.Frame) (*reference.Table, error) {
	return c.fitStats(df, func(b *reference.Builder, row reference.Row, col *frame.Column) {
		if row.CapValue != nil {
			return
		}
		q := col.Quantile(CapQuantile)
		b.Update(row.VarName, func(r *reference.Row) { r.CapValue = reference.Float(q) })
	})
}

// Apply は上限を超える値を上限に丸める
func (c *Cap) Apply(df *frame.Frame) (*frame.Frame, error) {
	return c.applyFloats(df, func(row reference.Row, x []float64) error {
		if row.CapValue == nil {
			return errors.NewMissingReferenceError("Cap.Apply", row.VarName, reference.ColCapValue)
		}
		limit := *row.CapValue
		for i, v := range x {
			if v > limit {
				x[i] = limit
			}
		}
		return nil
	})
}

// Floor は数値変数の下限を丸める
//
// Fitは min(5 × 1パーセンタイル, 0) を学習するため、自動で決まる下限は
// 常に0以下になる。Floor_Valueが指定されている場合はその値を使う。
type Floor struct {
	component
}

// NewFloor は新しいFloorを作成する。変数の既定値は Ind_Model かつ Ind_Floor の変数
func NewFloor(cfg *reference.Table, opts ...Option) *Floor {
	o := newOptions(opts)
	return &Floor{component: newComponent("Floor", cfg, func(r reference.Row) bool { return r.IndFloor }, o)}
}

// Fit は変数ごとの下限を学習する
func (f *Floor) Fit(df *frame.Frame) (*reference.Table, error) {
	return f.fitStats(df, func(b *reference.Builder, row reference.Row, col *frame.Column) {
		if row.FloorValue != nil {
			return
		}
		q := math.Min(5*col.Quantile(FloorQuantile), 0)
		b.Update(row.VarName, func(r *reference.Row) { r.FloorValue = reference.Float(q) })
	})
}

// Apply は下限を下回る値を下限に丸める
func (f *Floor) Apply(df *frame.Frame) (*frame.Frame, error) {
	return f.applyFloats(df, func(row reference.Row, x []float64) error {
		if row.FloorValue == nil {
			return errors.NewMissingReferenceError("Floor.Apply", row.VarName, reference.ColFloorValue)
		}
		limit := *row.FloorValue
		for i, v := range x {
			if v < limit {
				x[i] = limit
			}
		}
		return nil
	})
}
