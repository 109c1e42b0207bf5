// Package preprocessing はリスクモデル用の前処理コンポーネントを提供する。
//
// 各コンポーネント（Cap, Floor, MissingImpute, Normalize, Scale, Woe）は
// Fitで統計量を学習してリファレンステーブルに書き込み、Applyでその値を
// 使って別のデータに同じ変換を再現する。
//
// 使用例:
//
//	c := preprocessing.NewCap(cfg)
//	ref, err := c.Fit(train)
//	out, err := c.Apply(test)
package preprocessing

import (
	"github.com/YuminosukeSato/riskprep/binning"
	"github.com/YuminosukeSato/riskprep/pkg/log"
	"github.com/YuminosukeSato/riskprep/reference"
)

// DefaultMaxBins は自動ビニングの最大ビン数
const DefaultMaxBins = 6

// Option はコンポーネントの設定を変更する
type Option func(*options)

type options struct {
	variables    []string
	hasVariables bool
	columns      reference.Columns
	logger       log.Logger

	woeRef          *reference.WoeTable
	engine          binning.Engine
	maxBins         int
	checkpointPath  string
	checkpointEvery int
	resume          *reference.WoeTable
	chartDir        string
}

func newOptions(opts []Option) *options {
	o := &options{maxBins: DefaultMaxBins}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithVariables は処理する変数を明示的に指定する。
// 指定しない場合は設定テーブルのフラグから決まる。
func WithVariables(names ...string) Option {
	return func(o *options) {
		o.variables = append([]string(nil), names...)
		o.hasVariables = true
	}
}

// WithColumns は変数名から実際の列名への対応を指定する
func WithColumns(cols reference.Columns) Option {
	return func(o *options) { o.columns = cols }
}

// WithLogger はロガーを指定する
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithWoeReference は学習済みのWOEリファレンステーブルを指定する（Applyのみで使う場合）
func WithWoeReference(ref *reference.WoeTable) Option {
	return func(o *options) { o.woeRef = ref }
}

// WithEngine はWOEのビニングエンジンを指定する
func WithEngine(e binning.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithMaxBins は自動ビニングの最大ビン数を指定する
func WithMaxBins(n int) Option {
	return func(o *options) { o.maxBins = n }
}

// WithCheckpoint は every 変数ごとに途中結果を path に保存する
func WithCheckpoint(path string, every int) Option {
	return func(o *options) {
		o.checkpointPath = path
		o.checkpointEvery = every
	}
}

// WithResume は保存済みの途中結果から再開する。含まれる変数はビニングしない
func WithResume(partial *reference.WoeTable) Option {
	return func(o *options) { o.resume = partial }
}

// WithChartDir は変数ごとのWOEチャートを dir に保存する
func WithChartDir(dir string) Option {
	return func(o *options) { o.chartDir = dir }
}
