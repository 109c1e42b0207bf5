package preprocessing

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/riskprep/binning"
	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/pkg/log"
	"github.com/YuminosukeSato/riskprep/reference"
)

// Woe は変数をビンに分割し、各値をビンのWOEに置き換える
//
// Fitは数値変数、カテゴリ変数の順にビニングエンジンを呼び出し、
// 変数ごとの結果を連結したWOEリファレンステーブルを返す。
// Applyは nwoe_<変数名>（数値）または cwoe_<変数名>（カテゴリ）の列を
// 追加し、元の列を削除する。
type Woe struct {
	cfg       *reference.Table
	target    string
	variables []string
	columns   reference.Columns
	woeRef    *reference.WoeTable
	engine    binning.Engine
	maxBins   int
	logger    log.Logger

	checkpointPath  string
	checkpointEvery int
	resume          *reference.WoeTable
	chartDir        string
}

// NewWoe は新しいWoeを作成する。変数の既定値は Ind_Model かつ Ind_WOE の変数
//
// パラメータ:
//   - cfg: 設定テーブル
//   - target: 目的変数の列名（1=bad, 0=good）。Applyだけの場合は空でもよい
func NewWoe(cfg *reference.Table, target string, opts ...Option) *Woe {
	o := newOptions(opts)
	variables := o.variables
	if !o.hasVariables {
		variables = cfg.Select(func(r reference.Row) bool { return r.IndModel && r.IndWOE })
	}
	engine := o.engine
	if engine == nil {
		engine = binning.NewDefaultEngine()
	}
	logger := o.logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Woe{
		cfg:             cfg,
		target:          target,
		variables:       variables,
		columns:         o.columns,
		woeRef:          o.woeRef,
		engine:          engine,
		maxBins:         o.maxBins,
		logger:          logger.With(log.ComponentKey, "preprocessing.Woe", log.EstimatorIDKey, uuid.NewString()),
		checkpointPath:  o.checkpointPath,
		checkpointEvery: o.checkpointEvery,
		resume:          o.resume,
		chartDir:        o.chartDir,
	}
}

// Name はコンポーネント名を返す
func (w *Woe) Name() string { return "Woe" }

// Variables は処理対象の変数を返す
func (w *Woe) Variables() []string { return append([]string(nil), w.variables...) }

// Reference はWOEリファレンステーブルを返す（なければnil）
func (w *Woe) Reference() *reference.WoeTable { return w.woeRef }

// Columns はApply後の変数名と列名の対応を返す
func (w *Woe) Columns() reference.Columns { return w.columns }

// Fit は変数ごとにビニングし、WOEリファレンステーブルを返す
func (w *Woe) Fit(df *frame.Frame) (*reference.WoeTable, error) {
	const op = "Woe.Fit"
	if w.target == "" {
		return nil, errors.NewValidationError("target", "required for Woe.Fit", w.target)
	}
	if df.Len() == 0 {
		return nil, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if !df.Has(w.target) {
		return nil, errors.NewValidationError("target", "column not found", w.target)
	}

	var numerical, categorical []reference.Row
	for _, v := range w.variables {
		row, ok := w.cfg.Row(v)
		if !ok {
			return nil, errors.NewValidationError(op, "variable not in config", v)
		}
		switch row.VarType {
		case reference.Numerical:
			numerical = append(numerical, row)
		case reference.Categorical:
			categorical = append(categorical, row)
		default:
			return nil, errors.NewUnknownTypeError(v, string(row.VarType))
		}
	}

	// 文字列の正規化は作業用のFrameだけに行う
	working := df.Drop()
	result := w.resume
	if result == nil {
		result = reference.NewWoeTable(nil)
	}
	processed := 0
	for _, row := range append(numerical, categorical...) {
		v := row.VarName
		if w.resume.Has(v) {
			w.logger.Debug("Skipping resumed variable", log.VariableKey, v)
			continue
		}
		name := w.columns.Resolve(v)
		col, ok := working.Column(name)
		if !ok {
			return nil, errors.NewValidationError(op, "column not found", name)
		}

		start := time.Now()
		var (
			rows []reference.WoeRow
			err  error
		)
		switch {
		case row.VarType == reference.Categorical:
			if err := working.SetColumn(binning.NormalizeString(col, binning.MissingLabel)); err != nil {
				return nil, err
			}
			rows, err = w.engine.AutoBin(working, name, w.target, w.maxBins, binning.CategoricalMissing)
		case len(row.WOEBin) > 0:
			rows, err = w.engine.Bin(working, name, row.WOEBin, w.target)
		default:
			rows, err = w.engine.AutoBin(working, name, w.target, w.maxBins, binning.NumericalMissing)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", op, v)
		}
		for i := range rows {
			rows[i].VarName = v
			rows[i].VarType = row.VarType
		}
		result = result.Append(rows...)
		processed++

		w.logger.Debug("Variable binned",
			log.VariableKey, v,
			"bins", len(rows),
			"iv", result.InformationValue(v),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
		if w.chartDir != "" {
			if err := binning.SaveChart(rows, filepath.Join(w.chartDir, v+".png")); err != nil {
				return nil, err
			}
		}
		if w.checkpointPath != "" && w.checkpointEvery > 0 && processed%w.checkpointEvery == 0 {
			if err := reference.WriteWoeTableFile(w.checkpointPath, result); err != nil {
				return nil, errors.Wrap(err, "write woe checkpoint")
			}
			w.logger.Info("Checkpoint saved", "path", w.checkpointPath, log.VariablesKey, len(result.Variables()))
		}
	}
	if w.checkpointPath != "" {
		if err := reference.WriteWoeTableFile(w.checkpointPath, result); err != nil {
			return nil, errors.Wrap(err, "write woe checkpoint")
		}
	}

	w.woeRef = result
	w.logger.Info("Fit completed",
		log.OperationKey, log.OperationFit,
		log.VariablesKey, len(w.variables),
		log.SamplesKey, df.Len(),
	)
	return result, nil
}

// Apply は各値をWOEに置き換えた列を追加し、元の列を削除したFrameを返す
func (w *Woe) Apply(df *frame.Frame) (*frame.Frame, error) {
	const op = "Woe.Apply"
	if w.woeRef == nil {
		return nil, errors.Wrap(errors.ErrMissingWoeReference, op)
	}

	out := df.Clone()
	columns := w.columns
	var originals []string
	for _, v := range w.variables {
		bins := w.woeRef.ForVariable(v)
		if len(bins) == 0 {
			return nil, errors.NewMissingReferenceError(op, v, reference.ColRefValue)
		}
		varType := bins[0].VarType
		if row, ok := w.cfg.Row(v); ok {
			varType = row.VarType
		}

		name := columns.Resolve(v)
		col, ok := out.Column(name)
		if !ok {
			return nil, errors.NewValidationError(op, "column not found", name)
		}
		if varType == reference.Categorical {
			if err := out.SetColumn(binning.NormalizeString(col, binning.MissingLabel)); err != nil {
				return nil, err
			}
		}
		values, err := w.engine.ApplyBins(out, bins, name)
		if err != nil {
			return nil, errors.Wrapf(err, "%s: %s", op, v)
		}

		woeName := reference.WoeColumn(v, varType)
		if err := out.SetColumn(frame.NewFloatColumn(woeName, values)); err != nil {
			return nil, err
		}
		if woeName != name {
			originals = append(originals, name)
		}
		columns = columns.With(v, woeName)
	}
	w.columns = columns

	w.logger.Debug("Apply completed",
		log.OperationKey, log.OperationApply,
		log.VariablesKey, len(w.variables),
		log.SamplesKey, df.Len(),
	)
	return out.Drop(originals...), nil
}
