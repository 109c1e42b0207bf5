package binning

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/reference"
)

// smoothing はゼロ件のビンでもWOEが有限になるよう各件数に加える値
const smoothing = 0.5

// DefaultEngine はデフォルトのビニングエンジン
//
// 数値変数は分位点で、カテゴリ変数は不良率の順に並べたラベルを
// 件数が均等になるようにグループ化する。
//
//	WOE = ln(good分布 / bad分布)
//	IV  = (good分布 - bad分布) × WOE
//
// 目的変数は1が不良（bad）、0が良好（good）。
type DefaultEngine struct{}

// NewDefaultEngine は新しいDefaultEngineを作成する
func NewDefaultEngine() *DefaultEngine {
	return &DefaultEngine{}
}

// AutoBin は数値変数を分位点で、カテゴリ変数を不良率でビンに分割する
func (e *DefaultEngine) AutoBin(df *frame.Frame, variable, target string, maxBins int, policy MissingPolicy) (rows []reference.WoeRow, err error) {
	defer errors.Recover(&err, "binning.AutoBin")

	if maxBins < 1 {
		return nil, errors.NewValidationError("maxBins", "must be positive", maxBins)
	}
	col, y, err := e.inputs(df, variable, target)
	if err != nil {
		return nil, err
	}
	switch col.Kind() {
	case frame.Float:
		edges := autoEdges(col, maxBins)
		return numericalRows(variable, col.Floats(), y, edges, policy.Separate)
	case frame.String:
		return categoricalRows(variable, col, y, maxBins, policy)
	}
	return nil, errors.NewUnknownTypeError(variable, col.Kind().String())
}

// Bin は指定された境界で数値変数をビンに分割する。両端には-inf/infが補われる
func (e *DefaultEngine) Bin(df *frame.Frame, variable string, edges []float64, target string) (rows []reference.WoeRow, err error) {
	defer errors.Recover(&err, "binning.Bin")

	col, y, err := e.inputs(df, variable, target)
	if err != nil {
		return nil, err
	}
	if col.Kind() != frame.Float {
		return nil, errors.NewValidationError("edges", "explicit bin edges require a numerical variable", variable)
	}
	return numericalRows(variable, col.Floats(), y, closeEdges(edges), true)
}

// ApplyBins は各値をビンのWOEに置き換える
//
// 数値変数では区間に含まれない値と、欠損ビンがない場合の欠損値はNaNになる。
// カテゴリ変数では学習時に存在しなかったラベルは0になる。
func (e *DefaultEngine) ApplyBins(df *frame.Frame, rows []reference.WoeRow, variable string) ([]float64, error) {
	col, ok := df.Column(variable)
	if !ok {
		return nil, errors.NewValidationError("variable", "column not found", variable)
	}
	out := make([]float64, col.Len())

	switch col.Kind() {
	case frame.Float:
		type bin struct {
			iv  reference.Interval
			woe float64
		}
		var (
			bins       []bin
			missingWoe = math.NaN()
		)
		for _, r := range rows {
			if r.VarValue == reference.MissingBin {
				missingWoe = r.RefValue
				continue
			}
			iv, err := reference.ParseInterval(r.VarValue)
			if err != nil {
				return nil, errors.Wrapf(err, "woe reference of %q", variable)
			}
			bins = append(bins, bin{iv: iv, woe: r.RefValue})
		}
		for i, v := range col.Floats() {
			out[i] = math.NaN()
			if math.IsNaN(v) {
				out[i] = missingWoe
				continue
			}
			for _, b := range bins {
				if b.iv.Contains(v) {
					out[i] = b.woe
					break
				}
			}
		}
	case frame.String:
		woe := make(map[string]float64, len(rows))
		for _, r := range rows {
			woe[r.VarValue] = r.RefValue
		}
		strs := col.Strings()
		for i := range strs {
			label := MissingLabel
			if !col.IsMissing(i) {
				label = strs[i]
			}
			out[i] = woe[label]
		}
	default:
		return nil, errors.NewUnknownTypeError(variable, col.Kind().String())
	}
	return out, nil
}

// inputs は変数列と目的変数（1=bad, 0=good, -1=欠損）を取り出す
func (e *DefaultEngine) inputs(df *frame.Frame, variable, target string) (*frame.Column, []int8, error) {
	col, ok := df.Column(variable)
	if !ok {
		return nil, nil, errors.NewValidationError("variable", "column not found", variable)
	}
	tcol, ok := df.Column(target)
	if !ok {
		return nil, nil, errors.NewValidationError("target", "column not found", target)
	}
	y := make([]int8, tcol.Len())
	for i := range y {
		if tcol.IsMissing(i) {
			y[i] = -1
			continue
		}
		var v float64
		switch tcol.Kind() {
		case frame.Float:
			v = tcol.Floats()[i]
		case frame.String:
			switch tcol.Strings()[i] {
			case "0":
				v = 0
			case "1":
				v = 1
			default:
				v = math.NaN()
			}
		default:
			v = math.NaN()
		}
		switch v {
		case 0:
			y[i] = 0
		case 1:
			y[i] = 1
		default:
			return nil, nil, errors.NewValidationError("target", "must be binary 0/1", target)
		}
	}
	return col, y, nil
}

// autoEdges は分位点から境界を作り、データのない区間を隣と併合する
func autoEdges(col *frame.Column, maxBins int) []float64 {
	xs := col.NonMissingFloats()
	sort.Float64s(xs)
	if len(xs) == 0 {
		return closeEdges(nil)
	}

	var interior []float64
	for k := 1; k < maxBins; k++ {
		q := col.Quantile(float64(k) / float64(maxBins))
		if len(interior) == 0 || q > interior[len(interior)-1] {
			interior = append(interior, q)
		}
	}

	edges := []float64{math.Inf(-1)}
	for _, q := range interior {
		if countIn(xs, edges[len(edges)-1], q) > 0 {
			edges = append(edges, q)
		}
	}
	for len(edges) > 1 && xs[len(xs)-1] <= edges[len(edges)-1] {
		edges = edges[:len(edges)-1]
	}
	return append(edges, math.Inf(1))
}

// closeEdges は境界を昇順に並べ、重複を除き、両端に-inf/infを補う
func closeEdges(edges []float64) []float64 {
	sorted := append([]float64(nil), edges...)
	sort.Float64s(sorted)
	out := []float64{math.Inf(-1)}
	for _, e := range sorted {
		if math.IsNaN(e) || e <= out[len(out)-1] {
			continue
		}
		out = append(out, e)
	}
	if !math.IsInf(out[len(out)-1], 1) {
		out = append(out, math.Inf(1))
	}
	return out
}

// countIn はソート済みのxsのうち(lo, hi]に含まれる件数を返す
func countIn(xs []float64, lo, hi float64) int {
	upper := func(v float64) int {
		return sort.Search(len(xs), func(i int) bool { return xs[i] > v })
	}
	return upper(hi) - upper(lo)
}

type tally struct {
	count, bad int
}

func (t *tally) add(y int8) {
	t.count++
	if y == 1 {
		t.bad++
	}
}

// totals は目的変数の良好件数と不良件数の合計を返す
func totals(y []int8) (good, bad int, err error) {
	for _, v := range y {
		switch v {
		case 0:
			good++
		case 1:
			bad++
		}
	}
	if good == 0 || bad == 0 {
		return 0, 0, errors.NewValidationError("target", "needs both classes", map[string]int{"good": good, "bad": bad})
	}
	return good, bad, nil
}

// woe はビンの件数からWOEとIVを計算する
func woe(t tally, good, bad int) (float64, float64) {
	pg := (float64(t.count-t.bad) + smoothing) / (float64(good) + smoothing)
	pb := (float64(t.bad) + smoothing) / (float64(bad) + smoothing)
	w := math.Log(pg / pb)
	return w, (pg - pb) * w
}

func numericalRows(variable string, x []float64, y []int8, edges []float64, separate bool) ([]reference.WoeRow, error) {
	good, bad, err := totals(y)
	if err != nil {
		return nil, err
	}
	bins := make([]tally, len(edges)-1)
	var missing tally
	for i, v := range x {
		if y[i] < 0 {
			continue
		}
		if math.IsNaN(v) {
			missing.add(y[i])
			continue
		}
		j := sort.SearchFloat64s(edges, v) - 1
		if j < 0 {
			j = 0
		}
		bins[j].add(y[i])
	}

	rows := make([]reference.WoeRow, 0, len(bins)+1)
	for j, t := range bins {
		w, iv := woe(t, good, bad)
		rows = append(rows, reference.WoeRow{
			VarName:  variable,
			VarType:  reference.Numerical,
			VarValue: reference.Interval{Lo: edges[j], Hi: edges[j+1]}.String(),
			RefValue: w,
			Count:    t.count,
			Bad:      t.bad,
			IV:       iv,
		})
	}
	if separate && missing.count > 0 {
		w, iv := woe(missing, good, bad)
		rows = append(rows, reference.WoeRow{
			VarName:  variable,
			VarType:  reference.Numerical,
			VarValue: reference.MissingBin,
			RefValue: w,
			Count:    missing.count,
			Bad:      missing.bad,
			IV:       iv,
		})
	}
	return rows, nil
}

func categoricalRows(variable string, col *frame.Column, y []int8, maxBins int, policy MissingPolicy) ([]reference.WoeRow, error) {
	good, bad, err := totals(y)
	if err != nil {
		return nil, err
	}
	missingLabel := policy.Label
	if missingLabel == "" {
		missingLabel = reference.MissingBin
	}

	labels := make(map[string]*tally)
	var missing tally
	strs := col.Strings()
	for i := range strs {
		if y[i] < 0 {
			continue
		}
		isMissing := col.IsMissing(i) || (policy.Label != "" && strs[i] == policy.Label)
		if isMissing && policy.Separate {
			missing.add(y[i])
			continue
		}
		label := strs[i]
		if col.IsMissing(i) {
			label = missingLabel
		}
		t, ok := labels[label]
		if !ok {
			t = &tally{}
			labels[label] = t
		}
		t.add(y[i])
	}

	type entry struct {
		label string
		tally
	}
	entries := make([]entry, 0, len(labels))
	total := 0
	for l, t := range labels {
		entries = append(entries, entry{label: l, tally: *t})
		total += t.count
	}
	sort.Slice(entries, func(i, j int) bool {
		ri := float64(entries[i].bad) / float64(entries[i].count)
		rj := float64(entries[j].bad) / float64(entries[j].count)
		if ri != rj {
			return ri < rj
		}
		return entries[i].label < entries[j].label
	})

	group := make([]int, len(entries))
	if len(entries) > maxBins {
		cum := 0
		for i, en := range entries {
			group[i] = cum * maxBins / total
			cum += en.count
		}
	} else {
		for i := range group {
			group[i] = i
		}
	}

	rows := make([]reference.WoeRow, 0, len(entries)+1)
	for start := 0; start < len(entries); {
		end := start
		var g tally
		for end < len(entries) && group[end] == group[start] {
			g.count += entries[end].count
			g.bad += entries[end].bad
			end++
		}
		w, iv := woe(g, good, bad)
		for _, en := range entries[start:end] {
			rows = append(rows, reference.WoeRow{
				VarName:  variable,
				VarType:  reference.Categorical,
				VarValue: en.label,
				RefValue: w,
				Count:    en.count,
				Bad:      en.bad,
				IV:       iv * float64(en.count) / float64(g.count),
			})
		}
		start = end
	}
	if missing.count > 0 {
		w, iv := woe(missing, good, bad)
		rows = append(rows, reference.WoeRow{
			VarName:  variable,
			VarType:  reference.Categorical,
			VarValue: missingLabel,
			RefValue: w,
			Count:    missing.count,
			Bad:      missing.bad,
			IV:       iv,
		})
	}
	return rows, nil
}
