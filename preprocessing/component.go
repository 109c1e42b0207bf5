package preprocessing

import (
	"github.com/google/uuid"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/pkg/log"
	"github.com/YuminosukeSato/riskprep/reference"
)

// component は設定スキーマを持つコンポーネントの共通部分
type component struct {
	name      string
	cfg       *reference.Table
	ref       *reference.Table
	variables []string
	columns   reference.Columns
	logger    log.Logger
}

func newComponent(name string, cfg *reference.Table, selected func(reference.Row) bool, o *options) component {
	variables := o.variables
	if !o.hasVariables {
		variables = cfg.Select(func(r reference.Row) bool { return r.IndModel && selected(r) })
	}
	logger := o.logger
	if logger == nil {
		logger = log.GetLogger()
	}
	return component{
		name:      name,
		cfg:       cfg,
		ref:       cfg,
		variables: variables,
		columns:   o.columns,
		logger:    logger.With(log.ComponentKey, "preprocessing."+name, log.EstimatorIDKey, uuid.NewString()),
	}
}

// Name はコンポーネント名を返す
func (c *component) Name() string { return c.name }

// Variables は処理対象の変数を返す
func (c *component) Variables() []string { return append([]string(nil), c.variables...) }

// Reference は最新のリファレンステーブルを返す（Fit前は入力の設定テーブル）
func (c *component) Reference() *reference.Table { return c.ref }

// column は変数の現在の列を取り出す。数値列であることを要求する
func (c *component) column(df *frame.Frame, variable, op string) (*frame.Column, error) {
	name := c.columns.Resolve(variable)
	col, ok := df.Column(name)
	if !ok {
		return nil, errors.NewValidationError(op, "column not found", name)
	}
	if col.Kind() != frame.Float {
		return nil, errors.NewValidationError(op, "numerical column required", name)
	}
	return col, nil
}

// fitStats は変数ごとに learn を呼んで次の世代のリファレンステーブルを作る
func (c *component) fitStats(df *frame.Frame, learn func(b *reference.Builder, row reference.Row, col *frame.Column)) (*reference.Table, error) {
	if df.Len() == 0 {
		return nil, errors.NewModelError(c.name+".Fit", "empty data", errors.ErrEmptyData)
	}
	op := c.name + ".Fit"
	b := c.cfg.Next()
	for _, v := range c.variables {
		row, ok := c.cfg.Row(v)
		if !ok {
			return nil, errors.NewValidationError(op, "variable not in config", v)
		}
		col, err := c.column(df, v, op)
		if err != nil {
			return nil, err
		}
		learn(b, row, col)
	}
	return c.finishFit(b.Build(), df), nil
}

func (c *component) finishFit(ref *reference.Table, df *frame.Frame) *reference.Table {
	c.ref = ref
	c.logger.Info("Fit completed",
		log.OperationKey, log.OperationFit,
		log.VariablesKey, len(c.variables),
		log.SamplesKey, df.Len(),
		log.GenerationKey, ref.Generation(),
	)
	return ref
}

// applyFloats はリファレンスの値を読み出し、変数ごとに列の値を書き換えた新しいFrameを返す
func (c *component) applyFloats(df *frame.Frame, transform func(row reference.Row, x []float64) error) (*frame.Frame, error) {
	op := c.name + ".Apply"
	out := df.Clone()
	for _, v := range c.variables {
		row, ok := c.ref.Row(v)
		if !ok {
			return nil, errors.NewMissingReferenceError(op, v, reference.ColVarName)
		}
		col, err := c.column(out, v, op)
		if err != nil {
			return nil, err
		}
		if err := transform(row, col.Floats()); err != nil {
			return nil, err
		}
	}
	c.logger.Debug("Apply completed",
		log.OperationKey, log.OperationApply,
		log.VariablesKey, len(c.variables),
		log.SamplesKey, df.Len(),
	)
	return out, nil
}
