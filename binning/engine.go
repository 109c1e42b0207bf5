// Package binning は変数をビンに分割してWOE（Weight of Evidence）を計算する
// ビニングエンジンの境界と、そのデフォルト実装を提供する。
//
// preprocessing.Woe は Engine インターフェースだけに依存する。
// エンジンを差し替えることでビニングのアルゴリズムを変更できる。
package binning

import (
	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/reference"
)

// MissingLabel はカテゴリ変数の欠損を表すラベル
const MissingLabel = "-1"

// MissingPolicy は欠損値の扱い
type MissingPolicy struct {
	// Separate が true の場合、欠損値は独立したビンになる
	Separate bool
	// Label はカテゴリ変数で欠損とみなすラベル（空なら有効フラグのみで判定）
	Label string
}

var (
	// NumericalMissing は数値変数の自動ビニングで使う欠損ポリシー
	NumericalMissing = MissingPolicy{Separate: true}
	// CategoricalMissing はカテゴリ変数の自動ビニングで使う欠損ポリシー
	CategoricalMissing = MissingPolicy{Separate: true, Label: MissingLabel}
)

// Engine はWOEコンポーネントが利用するビニングエンジン
type Engine interface {
	// AutoBin は最大 maxBins 個のビンに自動分割し、ビンごとのWOEを返す
	AutoBin(df *frame.Frame, variable, target string, maxBins int, policy MissingPolicy) ([]reference.WoeRow, error)

	// Bin は指定された境界でビンに分割し、ビンごとのWOEを返す
	Bin(df *frame.Frame, variable string, edges []float64, target string) ([]reference.WoeRow, error)

	// ApplyBins は各値を所属するビンのWOEに置き換えた列を返す
	ApplyBins(df *frame.Frame, rows []reference.WoeRow, variable string) ([]float64, error)
}
