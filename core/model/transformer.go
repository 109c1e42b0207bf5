package model

import "github.com/YuminosukeSato/riskprep/core/frame"

// Transformer は二段階（Fit/Apply）の前処理コンポーネントのインターフェース
//
// R はFitが返す学習結果の型。設定スキーマのコンポーネントでは
// *reference.Table、WOEでは *reference.WoeTable になる。
type Transformer[R any] interface {
	// Name はコンポーネント名を返す
	Name() string

	// Fit はデータから統計量を学習し、新しいリファレンスを返す
	Fit(df *frame.Frame) (R, error)

	// Apply は学習済みの値でデータを変換する
	Apply(df *frame.Frame) (*frame.Frame, error)
}

// FitApply はFitの直後に同じデータへApplyを実行する
func FitApply[R any](t Transformer[R], df *frame.Frame) (R, *frame.Frame, error) {
	ref, err := t.Fit(df)
	if err != nil {
		var zero R
		return zero, nil, err
	}
	out, err := t.Apply(df)
	if err != nil {
		var zero R
		return zero, nil, err
	}
	return ref, out, nil
}
