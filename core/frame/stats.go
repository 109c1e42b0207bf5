package frame

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Quantile は欠損を除いた値のp分位点を返す（値がなければNaN）
//
// 順序統計量の間を線形補間する（pandasのデフォルトと同じ定義）。
// gonumのstat.Quantileにはこの定義がないため直接計算する。
func (c *Column) Quantile(p float64) float64 {
	x := c.NonMissingFloats()
	if len(x) == 0 {
		return math.NaN()
	}
	sort.Float64s(x)
	if len(x) == 1 {
		return x[0]
	}
	pos := p * float64(len(x)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return x[int(lo)]
	}
	return x[int(lo)]*(hi-pos) + x[int(hi)]*(pos-lo)
}

// Mean は欠損を除いた平均を返す
func (c *Column) Mean() float64 {
	x := c.NonMissingFloats()
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// Median は欠損を除いた中央値を返す
func (c *Column) Median() float64 {
	return c.Quantile(0.5)
}

// StdDev は欠損を除いた標本標準偏差（n-1）を返す
func (c *Column) StdDev() float64 {
	x := c.NonMissingFloats()
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// MinMax は欠損を除いた最小値と最大値を返す
func (c *Column) MinMax() (float64, float64) {
	x := c.NonMissingFloats()
	if len(x) == 0 {
		return math.NaN(), math.NaN()
	}
	return floats.Min(x), floats.Max(x)
}

// Mode は欠損を除いた最頻値を返す。同数の場合は辞書順で最小の値を返す
func (c *Column) Mode() (string, bool) {
	counts := make(map[string]int)
	for i, s := range c.strs {
		if c.valid[i] {
			counts[s]++
		}
	}
	best, bestN := "", 0
	for s, n := range counts {
		if n > bestN || (n == bestN && s < best) {
			best, bestN = s, n
		}
	}
	return best, bestN > 0
}
