// Package metrics は二値の目的変数に対する変数の識別力を計算する。
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// scored はスコアと目的変数の組
type scored struct {
	score float64
	bad   bool
}

// pairs は入力を検証し、スコアが欠損の行を除いた組を返す
func pairs(op string, yTrue, score *mat.VecDense) ([]scored, int, int, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, 0, 0, errors.NewValueError(op, "empty vector")
	}
	if score.Len() != n {
		return nil, 0, 0, errors.NewDimensionMismatch(op, n, score.Len())
	}

	out := make([]scored, 0, n)
	var nBad, nGood int
	for i := 0; i < n; i++ {
		s, y := score.AtVec(i), yTrue.AtVec(i)
		if math.IsNaN(s) || math.IsNaN(y) {
			continue
		}
		switch y {
		case 1:
			nBad++
		case 0:
			nGood++
		default:
			return nil, 0, 0, errors.NewValidationError("yTrue", "target must be 0 or 1", y)
		}
		out = append(out, scored{score: s, bad: y == 1})
	}
	if nBad == 0 || nGood == 0 {
		return nil, 0, 0, errors.NewValueError(op, "both target classes are required")
	}
	sort.Slice(out, func(a, b int) bool { return out[a].score < out[b].score })
	return out, nBad, nGood, nil
}

// AUC はスコアが大きいほど目的変数が1になりやすいとしたROC曲線下面積を計算する
//
// 同じスコアは平均順位で扱う（Mann-Whitney U）。スコアが欠損の行は除く。
func AUC(yTrue, score *mat.VecDense) (float64, error) {
	rows, nBad, nGood, err := pairs("AUC", yTrue, score)
	if err != nil {
		return 0, err
	}

	// 順位和 = Σ 平均順位（1始まり）
	var rankSum float64
	for i := 0; i < len(rows); {
		j := i
		for j < len(rows) && rows[j].score == rows[i].score {
			j++
		}
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			if rows[k].bad {
				rankSum += avg
			}
		}
		i = j
	}
	u := rankSum - float64(nBad)*float64(nBad+1)/2
	return u / (float64(nBad) * float64(nGood)), nil
}

// Gini は 2·AUC − 1 を返す
func Gini(yTrue, score *mat.VecDense) (float64, error) {
	auc, err := AUC(yTrue, score)
	if err != nil {
		return 0, err
	}
	return 2*auc - 1, nil
}

// KS はKolmogorov-Smirnov統計量（目的変数0と1の累積分布の差の最大値）を計算する
func KS(yTrue, score *mat.VecDense) (float64, error) {
	rows, nBad, nGood, err := pairs("KS", yTrue, score)
	if err != nil {
		return 0, err
	}

	var cumBad, cumGood, ks float64
	for i := 0; i < len(rows); {
		// 同じスコアはまとめて進める
		j := i
		for j < len(rows) && rows[j].score == rows[i].score {
			if rows[j].bad {
				cumBad++
			} else {
				cumGood++
			}
			j++
		}
		ks = math.Max(ks, math.Abs(cumBad/float64(nBad)-cumGood/float64(nGood)))
		i = j
	}
	return ks, nil
}

// Power は1変数の識別力
type Power struct {
	Variable string
	AUC      float64
	Gini     float64
	KS       float64
}

// VariablePower は数値列ごとの識別力を計算する。variables が空なら目的変数以外の全ての数値列
func VariablePower(df *frame.Frame, target string, variables ...string) ([]Power, error) {
	if df.Len() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "VariablePower")
	}
	y, ok := df.Column(target)
	if !ok {
		return nil, errors.NewValidationError("target", "column not found", target)
	}
	if y.Kind() != frame.Float {
		return nil, errors.NewValidationError("target", "numerical 0/1 column required", target)
	}
	if len(variables) == 0 {
		for _, name := range df.Names() {
			if col, _ := df.Column(name); name != target && col.Kind() == frame.Float {
				variables = append(variables, name)
			}
		}
	}

	yVec := mat.NewVecDense(len(y.Floats()), y.Floats())
	out := make([]Power, 0, len(variables))
	for _, v := range variables {
		col, ok := df.Column(v)
		if !ok || col.Kind() != frame.Float {
			return nil, errors.NewValidationError("variables", "numerical column required", v)
		}
		score := mat.NewVecDense(len(col.Floats()), col.Floats())
		auc, err := AUC(yVec, score)
		if err != nil {
			return nil, errors.Wrapf(err, "variable %s", v)
		}
		ks, err := KS(yVec, score)
		if err != nil {
			return nil, errors.Wrapf(err, "variable %s", v)
		}
		out = append(out, Power{Variable: v, AUC: auc, Gini: 2*auc - 1, KS: ks})
	}
	return out, nil
}
