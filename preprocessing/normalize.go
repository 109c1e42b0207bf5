package preprocessing

import (
	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/reference"
)

// Normalize は数値変数を平均0、標準偏差1に標準化する
//
// 統計量はパイプラインのその位置での列から計算する。上流でWOE変換が
// 済んでいる変数は nwoe_/cwoe_ の列が対象になる（WithColumnsで指定）。
// 標準偏差は標本標準偏差（n-1）を使う。
type Normalize struct {
	component
}

// NewNormalize は新しいNormalizeを作成する。変数の既定値は Ind_Model かつ Ind_Norm の変数
func NewNormalize(cfg *reference.Table, opts ...Option) *Normalize {
	o := newOptions(opts)
	return &Normalize{component: newComponent("Normalize", cfg, func(r reference.Row) bool { return r.IndNorm }, o)}
}

// Fit は変数ごとの平均と標準偏差を学習し、Mean/Std列を追加する
func (n *Normalize) Fit(df *frame.Frame) (*reference.Table, error) {
	return n.fitStats(df, func(b *reference.Builder, row reference.Row, col *frame.Column) {
		b.AddColumns(reference.ColMean, reference.ColStd)
		mean, std := col.Mean(), col.StdDev()
		b.Update(row.VarName, func(r *reference.Row) {
			r.Mean = reference.Float(mean)
			r.Std = reference.Float(std)
		})
	})
}

// Apply は (x - mean) / std に変換する
func (n *Normalize) Apply(df *frame.Frame) (*frame.Frame, error) {
	return n.applyFloats(df, func(row reference.Row, x []float64) error {
		if row.Mean == nil {
			return errors.NewMissingReferenceError("Normalize.Apply", row.VarName, reference.ColMean)
		}
		if row.Std == nil {
			return errors.NewMissingReferenceError("Normalize.Apply", row.VarName, reference.ColStd)
		}
		mean, std := *row.Mean, *row.Std
		if std == 0 {
			return errors.NewDegenerateStatisticError("Normalize.Apply", row.VarName, "std == 0")
		}
		for i, v := range x {
			x[i] = (v - mean) / std
		}
		return nil
	})
}

// Scale は数値変数を[0, 1]の範囲に変換する
//
// 学習時の範囲外の値は0または1に丸められる。
type Scale struct {
	component
}

// NewScale は新しいScaleを作成する。変数の既定値は Ind_Model かつ Ind_Scale の変数
func NewScale(cfg *reference.Table, opts ...Option) *Scale {
	o := newOptions(opts)
	return &Scale{component: newComponent("Scale", cfg, func(r reference.Row) bool { return r.IndScale }, o)}
}

// Fit は変数ごとの最小値と最大値を学習し、Min/Max列を追加する
func (s *Scale) Fit(df *frame.Frame) (*reference.Table, error) {
	return s.fitStats(df, func(b *reference.Builder, row reference.Row, col *frame.Column) {
		b.AddColumns(reference.ColMin, reference.ColMax)
		lo, hi := col.MinMax()
		b.Update(row.VarName, func(r *reference.Row) {
			r.Min = reference.Float(lo)
			r.Max = reference.Float(hi)
		})
	})
}

// Apply は (x - min) / (max - min) に変換し、[0, 1]に丸める
func (s *Scale) Apply(df *frame.Frame) (*frame.Frame, error) {
	return s.applyFloats(df, func(row reference.Row, x []float64) error {
		if row.Min == nil {
			return errors.NewMissingReferenceError("Scale.Apply", row.VarName, reference.ColMin)
		}
		if row.Max == nil {
			return errors.NewMissingReferenceError("Scale.Apply", row.VarName, reference.ColMax)
		}
		lo, hi := *row.Min, *row.Max
		if hi == lo {
			return errors.NewDegenerateStatisticError("Scale.Apply", row.VarName, "max == min")
		}
		for i, v := range x {
			x[i] = errors.ClipValue((v-lo)/(hi-lo), 0, 1)
		}
		return nil
	})
}
