// Package tactic は前処理コンポーネントを順番に組み合わせるパイプラインを提供する。
//
// Tactic は設定テーブルを検証し、各コンポーネントのFitとApplyを順番に実行して
// 学習結果をひとつのリファレンステーブルにまとめる。保存したリファレンス
// テーブルから作ったTacticは、Applyだけで同じ変換を再現する。
//
// 使用例:
//
//	t := tactic.New(cfg,
//	    tactic.WithProcesses(tactic.Cap, tactic.Floor, tactic.MissingImpute, tactic.Woe),
//	    tactic.WithTarget("bad"),
//	)
//	ref, err := t.Fit(train)
//	out, err := t.Apply(test)
package tactic

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/riskprep/binning"
	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/core/model"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/pkg/log"
	"github.com/YuminosukeSato/riskprep/preprocessing"
	"github.com/YuminosukeSato/riskprep/reference"
)

// SummarySeparator はSummaryで段階をつなぐ文字列
const SummarySeparator = " -----> "

// Tactic は前処理パイプライン
//
// 1つのTacticを複数のgoroutineから同時に使ってはいけない。
type Tactic struct {
	cfg       *reference.Table
	ref       *reference.Table
	woeRef    *reference.WoeTable
	columns   reference.Columns
	processes []Process
	target    string

	engine          binning.Engine
	maxBins         int
	chartDir        string
	checkpointPath  string
	checkpointEvery int
	resume          *reference.WoeTable

	logger      log.Logger
	stageLogger log.Logger // 各段階に渡す装飾前のロガー。nilなら段階ごとの既定
	state       *model.StateManager
}

// Option はTacticの設定を変更する
type Option func(*Tactic)

// WithProcesses は実行する段階を順番に指定する
func WithProcesses(p ...Process) Option {
	return func(t *Tactic) { t.AddProcess(p...) }
}

// WithTarget は目的変数の列名を指定する。Woeを使う場合は必須
func WithTarget(name string) Option {
	return func(t *Tactic) { t.target = name }
}

// WithWoeReference は学習済みのWOEリファレンステーブルを指定する
func WithWoeReference(ref *reference.WoeTable) Option {
	return func(t *Tactic) { t.woeRef = ref }
}

// WithEngine はWoeで使うビニングエンジンを指定する
func WithEngine(e binning.Engine) Option {
	return func(t *Tactic) { t.engine = e }
}

// WithCheckpoint はWoeのFit中に every 変数ごとに途中結果を path に保存する
func WithCheckpoint(path string, every int) Option {
	return func(t *Tactic) {
		t.checkpointPath = path
		t.checkpointEvery = every
	}
}

// WithMaxBins はWoeの自動ビニングのビン数の上限を指定する
func WithMaxBins(n int) Option {
	return func(t *Tactic) { t.maxBins = n }
}

// WithChartDir はWoeのFit時に変数ごとのWOEグラフを dir に保存する
func WithChartDir(dir string) Option {
	return func(t *Tactic) { t.chartDir = dir }
}

// WithResume は途中で保存されたWOEリファレンステーブルからWoeのFitを再開する
func WithResume(partial *reference.WoeTable) Option {
	return func(t *Tactic) { t.resume = partial }
}

// WithLogger はロガーを指定する。各段階のコンポーネントにも引き継がれる
func WithLogger(l log.Logger) Option {
	return func(t *Tactic) { t.logger = l }
}

// New は設定テーブルから新しいTacticを作成する
func New(cfg *reference.Table, opts ...Option) *Tactic {
	t := &Tactic{
		cfg:   cfg,
		ref:   cfg,
		state: model.NewStateManager(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.stageLogger = t.logger
	if t.logger == nil {
		t.logger = log.GetLogger()
	}
	t.logger = t.logger.With(log.ComponentKey, "tactic", log.EstimatorIDKey, uuid.NewString())
	return t
}

// AddProcess は段階を末尾に追加する。既にある段階は追加しない
func (t *Tactic) AddProcess(p ...Process) {
	for _, add := range p {
		exists := false
		for _, have := range t.processes {
			if have == add {
				exists = true
				break
			}
		}
		if exists {
			if t.logger != nil {
				t.logger.Warn("Process already exists", log.StageKey, add.String())
			}
			continue
		}
		t.processes = append(t.processes, add)
	}
}

// ClearProcess は全ての段階を削除する
func (t *Tactic) ClearProcess() {
	t.processes = nil
}

// Processes は段階のリストを返す
func (t *Tactic) Processes() []Process {
	return append([]Process(nil), t.processes...)
}

// Summary は段階を " -----> " でつないだ文字列を返す
func (t *Tactic) Summary() string {
	names := make([]string, len(t.processes))
	for i, p := range t.processes {
		names[i] = p.String()
	}
	return strings.Join(names, SummarySeparator)
}

// Shape はFitしたときの変数の数と行数を返す。Fitしていなければ ModelError
func (t *Tactic) Shape() (nVariables, nSamples int, err error) {
	if err := t.state.RequireFitted("tactic.Shape"); err != nil {
		return 0, 0, err
	}
	nVariables, nSamples = t.state.GetDimensions()
	return nVariables, nSamples, nil
}

// Target は目的変数の列名を返す
func (t *Tactic) Target() string { return t.target }

// Config は作成時の設定テーブルを返す
func (t *Tactic) Config() *reference.Table { return t.cfg }

// Reference は現在のリファレンステーブルを返す
func (t *Tactic) Reference() *reference.Table { return t.ref }

// WoeReference は現在のWOEリファレンステーブルを返す（なければnil）
func (t *Tactic) WoeReference() *reference.WoeTable { return t.woeRef }

// Columns は直近のFit/Applyの後の変数名と列名の対応を返す
func (t *Tactic) Columns() reference.Columns { return t.columns }

// AddVariables は変数のフラグ列を1にする。column が空の場合は Ind_Model
func (t *Tactic) AddVariables(names []string, column string) error {
	return t.setFlag(names, column, true)
}

// DropVariables は変数のフラグ列を0にする。column が空の場合は Ind_Model
func (t *Tactic) DropVariables(names []string, column string) error {
	return t.setFlag(names, column, false)
}

func (t *Tactic) setFlag(names []string, column string, value bool) error {
	if column == "" {
		column = reference.ColIndModel
	}
	next, err := t.ref.SetFlag(names, column, value)
	if err != nil {
		return err
	}
	t.ref = next
	t.logger.Info("Variables updated",
		log.ColumnKey, column,
		log.VariablesKey, len(names),
		"value", value,
	)
	return nil
}

// Fit は設定を検証し、各段階をFitしてから同じデータにApplyする
//
// 段階は直前の段階が返したリファレンステーブルと列名の対応から作られる。
// いずれかの段階が失敗した場合、Tacticの状態は変わらない。
//
// 戻り値:
//   - *reference.Table: 全段階の学習結果をまとめたリファレンステーブル
//   - error: 設定の検証に失敗した場合はConfigError
func (t *Tactic) Fit(df *frame.Frame) (*reference.Table, error) {
	if n := t.CheckConfig(df); n > 0 {
		err := errors.NewConfigError(n)
		t.logger.Error("Fit rejected", err, log.OperationKey, log.OperationFit)
		return nil, err
	}
	if t.hasProcess(Woe) && t.target == "" {
		return nil, errors.NewValidationError("target", "required when the Woe process is used", t.target)
	}

	run, err := t.run(df, true)
	if err != nil {
		return nil, err
	}
	t.ref, t.woeRef, t.columns = run.ref, run.woeRef, run.columns
	t.state.SetFitted(t.ref.Len(), df.Len())
	return t.ref, nil
}

// Apply は学習済みのリファレンステーブルで各段階のApplyだけを実行する
func (t *Tactic) Apply(df *frame.Frame) (*frame.Frame, error) {
	run, err := t.run(df, false)
	if err != nil {
		return nil, err
	}
	t.columns = run.columns
	return run.out, nil
}

func (t *Tactic) hasProcess(p Process) bool {
	for _, have := range t.processes {
		if have == p {
			return true
		}
	}
	return false
}

// pipelineRun は1回のFit/Applyの途中状態。成功した場合だけTacticに反映する
type pipelineRun struct {
	ref     *reference.Table
	woeRef  *reference.WoeTable
	columns reference.Columns
	out     *frame.Frame
}

func (t *Tactic) run(df *frame.Frame, fit bool) (*pipelineRun, error) {
	op := log.OperationApply
	if fit {
		op = log.OperationFit
	}
	run := &pipelineRun{ref: t.ref, woeRef: t.woeRef, out: df}

	for _, p := range t.processes {
		start := time.Now()
		opts := []preprocessing.Option{
			preprocessing.WithColumns(run.columns),
			preprocessing.WithLogger(t.stageLogger),
		}

		var err error
		switch p {
		case Woe:
			err = t.runWoe(run, fit, opts)
		case Cap:
			err = t.runStage(run, fit, preprocessing.NewCap(run.ref, opts...))
		case Floor:
			err = t.runStage(run, fit, preprocessing.NewFloor(run.ref, opts...))
		case MissingImpute:
			err = t.runStage(run, fit, preprocessing.NewMissingImpute(run.ref, opts...))
		case Normalize:
			err = t.runStage(run, fit, preprocessing.NewNormalize(run.ref, opts...))
		case Scale:
			err = t.runStage(run, fit, preprocessing.NewScale(run.ref, opts...))
		default:
			err = errors.NewValidationError("process", "unknown process", int(p))
		}
		if err != nil {
			t.logger.Error("Stage failed", err, log.StageKey, p.String(), log.OperationKey, op)
			return nil, errors.Wrapf(err, "failed to %s stage '%s'", op, p)
		}

		t.logger.Info("Stage completed",
			log.StageKey, p.String(),
			log.OperationKey, op,
			log.GenerationKey, run.ref.Generation(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
	return run, nil
}

func (t *Tactic) runStage(run *pipelineRun, fit bool, stage model.Transformer[*reference.Table]) error {
	if fit {
		ref, out, err := model.FitApply(stage, run.out)
		if err != nil {
			return err
		}
		run.ref, run.out = ref, out
		return nil
	}
	out, err := stage.Apply(run.out)
	if err != nil {
		return err
	}
	run.out = out
	return nil
}

func (t *Tactic) runWoe(run *pipelineRun, fit bool, opts []preprocessing.Option) error {
	opts = append(opts, preprocessing.WithWoeReference(run.woeRef))
	if t.engine != nil {
		opts = append(opts, preprocessing.WithEngine(t.engine))
	}
	if t.maxBins > 0 {
		opts = append(opts, preprocessing.WithMaxBins(t.maxBins))
	}
	if fit {
		if t.checkpointPath != "" {
			opts = append(opts, preprocessing.WithCheckpoint(t.checkpointPath, t.checkpointEvery))
		}
		if t.chartDir != "" {
			opts = append(opts, preprocessing.WithChartDir(t.chartDir))
		}
		if t.resume != nil {
			opts = append(opts, preprocessing.WithResume(t.resume))
		}
	}
	w := preprocessing.NewWoe(run.ref, t.target, opts...)

	if fit {
		woeRef, out, err := model.FitApply[*reference.WoeTable](w, run.out)
		if err != nil {
			return err
		}
		run.woeRef, run.out = woeRef, out
	} else {
		out, err := w.Apply(run.out)
		if err != nil {
			return err
		}
		run.out = out
	}
	run.columns = w.Columns()
	return nil
}
