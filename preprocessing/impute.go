package preprocessing

import (
	"math"
	"strconv"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/pkg/log"
	"github.com/YuminosukeSato/riskprep/reference"
)

// 補完方法のトークン
const (
	ImputeMean   = "mean"
	ImputeMedian = "median"
	ImputeMode   = "mode"
)

// MissingImpute は欠損値を補完する
//
// 数値変数は mean/median を統計量に、それ以外のトークンを数値に解決する。
// カテゴリ変数は mode を最頻値に解決し、それ以外はそのまま使う。
// 補完値が決まらない変数に欠損があるとMissingImputeWarningを出す。
type MissingImpute struct {
	component
	fitVariables []string
}

// NewMissingImpute は新しいMissingImputeを作成する
//
// Applyの対象は Ind_Model かつ Missing_Impute が指定された変数。
// Fitは Ind_Model の全変数を対象にし、補完値がないのに欠損がある変数を警告する。
func NewMissingImpute(cfg *reference.Table, opts ...Option) *MissingImpute {
	o := newOptions(opts)
	m := &MissingImpute{
		component: newComponent("MissingImpute", cfg, func(r reference.Row) bool { return r.MissingImpute != nil }, o),
	}
	m.fitVariables = o.variables
	if !o.hasVariables {
		m.fitVariables = cfg.Select(func(r reference.Row) bool { return r.IndModel })
	}
	return m
}

// Fit は変数ごとの補完値を解決する
func (m *MissingImpute) Fit(df *frame.Frame) (*reference.Table, error) {
	const op = "MissingImpute.Fit"
	if df.Len() == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	b := m.cfg.Next()
	for _, v := range m.fitVariables {
		row, ok := m.cfg.Row(v)
		if !ok {
			return nil, errors.NewValidationError(op, "variable not in config", v)
		}
		name := m.columns.Resolve(v)
		col, ok := df.Column(name)
		if !ok {
			return nil, errors.NewValidationError(op, "column not found", name)
		}

		value, err := resolveImpute(row, col)
		if err != nil {
			return nil, err
		}
		if value == nil {
			if n := col.MissingCount(); n > 0 {
				errors.Warn(errors.NewMissingImputeWarning(v, n))
			}
		}
		b.Update(v, func(r *reference.Row) { r.MissingImpute = value })
	}
	return m.finishFit(b.Build(), df), nil
}

// resolveImpute は補完トークンを具体的な値に解決する。決まらない場合はnil
func resolveImpute(row reference.Row, col *frame.Column) (*string, error) {
	const op = "MissingImpute.Fit"
	token := row.MissingImpute
	switch row.VarType {
	case reference.Numerical:
		if token == nil {
			return nil, nil
		}
		var v float64
		switch *token {
		case ImputeMean:
			v = col.Mean()
		case ImputeMedian:
			v = col.Median()
		default:
			parsed, err := strconv.ParseFloat(*token, 64)
			if err != nil {
				return nil, errors.NewValueError(op, "impute value of numerical "+row.VarName+" is not a number: "+*token)
			}
			v = parsed
		}
		if math.IsNaN(v) {
			return nil, nil
		}
		return reference.String(reference.FormatFloat(v)), nil
	case reference.Categorical:
		if token == nil {
			return nil, nil
		}
		if *token != ImputeMode {
			return token, nil
		}
		if col.Kind() != frame.String {
			return nil, errors.NewValidationError(op, "mode requires a categorical column", row.VarName)
		}
		if mode, ok := col.Mode(); ok {
			return reference.String(mode), nil
		}
		return nil, nil
	}
	return nil, errors.NewUnknownTypeError(row.VarName, string(row.VarType))
}

// Apply は欠損を含む列だけを補完値で埋める
func (m *MissingImpute) Apply(df *frame.Frame) (*frame.Frame, error) {
	const op = "MissingImpute.Apply"
	out := df.Clone()
	filled := 0
	for _, v := range m.variables {
		name := m.columns.Resolve(v)
		col, ok := out.Column(name)
		if !ok {
			return nil, errors.NewValidationError(op, "column not found", name)
		}
		if col.MissingCount() == 0 {
			continue
		}
		row, _ := m.ref.Row(v)
		if row.MissingImpute == nil {
			return nil, errors.NewMissingReferenceError(op, v, reference.ColMissingImpute)
		}
		token := *row.MissingImpute

		switch col.Kind() {
		case frame.Float:
			if token == ImputeMean || token == ImputeMedian {
				return nil, errors.NewMissingReferenceError(op, v, reference.ColMissingImpute)
			}
			value, err := strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, errors.NewValueError(op, "impute value of "+v+" is not a number: "+token)
			}
			col.FillFloat(value)
		case frame.String:
			if token == ImputeMode {
				return nil, errors.NewMissingReferenceError(op, v, reference.ColMissingImpute)
			}
			col.FillString(token)
		default:
			return nil, errors.NewUnknownTypeError(v, col.Kind().String())
		}
		filled++
	}
	m.logger.Debug("Apply completed",
		log.OperationKey, log.OperationApply,
		log.VariablesKey, filled,
		log.SamplesKey, df.Len(),
	)
	return out, nil
}
