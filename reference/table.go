// Package reference は前処理パイプラインの設定テーブル（リファレンステーブル）と
// WOEリファレンステーブルを提供する。
//
// Table は不変のスナップショットとして扱う。Fitは常に新しい世代のTableを返し、
// 受け取った側は古いTableを書き換えない。
package reference

import (
	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// VarType は変数の型
type VarType string

const (
	Numerical   VarType = "numerical"
	Categorical VarType = "categorical"
	Timestamp   VarType = "timestamp"
)

// Config schema column names.
const (
	ColVarName       = "Var_Name"
	ColVarType       = "Var_Type"
	ColIndModel      = "Ind_Model"
	ColIndCap        = "Ind_Cap"
	ColCapValue      = "Cap_Value"
	ColIndFloor      = "Ind_Floor"
	ColFloorValue    = "Floor_Value"
	ColMissingImpute = "Missing_Impute"
	ColIndWOE        = "Ind_WOE"
	ColWOEBin        = "WOE_Bin"
	ColIndNorm       = "Ind_Norm"
	ColIndScale      = "Ind_Scale"
	ColMean          = "Mean"
	ColStd           = "Std"
	ColMin           = "Min"
	ColMax           = "Max"
)

// ConfigColumns は設定テーブルの列（順番通り）
var ConfigColumns = []string{
	ColVarName, ColVarType, ColIndModel, ColIndCap, ColCapValue, ColIndFloor, ColFloorValue,
	ColMissingImpute, ColIndWOE, ColWOEBin, ColIndNorm, ColIndScale,
}

// StatColumns はFitで追加される統計量の列
var StatColumns = []string{ColMean, ColStd, ColMin, ColMax}

// FlagColumns はAddVariables/DropVariablesで切り替えられる列
var FlagColumns = []string{ColIndModel, ColIndCap, ColIndFloor, ColIndWOE, ColIndNorm, ColIndScale}

// Row は1変数分の設定
type Row struct {
	VarName       string
	VarType       VarType
	IndModel      bool
	IndCap        bool
	CapValue      *float64
	IndFloor      bool
	FloorValue    *float64
	MissingImpute *string
	IndWOE        bool
	WOEBin        []float64
	IndNorm       bool
	IndScale      bool
	Mean          *float64
	Std           *float64
	Min           *float64
	Max           *float64
}

// Flag は名前で指定したフラグ列の値を返す
func (r Row) Flag(column string) (bool, error) {
	switch column {
	case ColIndModel:
		return r.IndModel, nil
	case ColIndCap:
		return r.IndCap, nil
	case ColIndFloor:
		return r.IndFloor, nil
	case ColIndWOE:
		return r.IndWOE, nil
	case ColIndNorm:
		return r.IndNorm, nil
	case ColIndScale:
		return r.IndScale, nil
	}
	return false, errors.NewValidationError("column", "not a flag column", column)
}

func (r *Row) setFlag(column string, v bool) error {
	switch column {
	case ColIndModel:
		r.IndModel = v
	case ColIndCap:
		r.IndCap = v
	case ColIndFloor:
		r.IndFloor = v
	case ColIndWOE:
		r.IndWOE = v
	case ColIndNorm:
		r.IndNorm = v
	case ColIndScale:
		r.IndScale = v
	default:
		return errors.NewValidationError("column", "not a flag column", column)
	}
	return nil
}

func (r Row) clone() Row {
	if r.WOEBin != nil {
		r.WOEBin = append([]float64(nil), r.WOEBin...)
	}
	return r
}

// Float returns a pointer to v, for building rows.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s, for building rows.
func String(s string) *string { return &s }

// Table は設定テーブルの不変スナップショット
type Table struct {
	rows       []Row
	index      map[string]int
	header     []string
	generation int
}

// NewTable は行から設定テーブルを作成する
//
// 戻り値:
//   - error: Var_Nameが重複している場合
func NewTable(rows []Row) (*Table, error) {
	return newTable(rows, append([]string(nil), ConfigColumns...), 0)
}

// MustNewTable はNewTableと同じだがエラー時にpanicする
func MustNewTable(rows []Row) *Table {
	t, err := NewTable(rows)
	if err != nil {
		panic(err)
	}
	return t
}

func newTable(rows []Row, header []string, generation int) (*Table, error) {
	t := &Table{
		rows:       make([]Row, len(rows)),
		index:      make(map[string]int, len(rows)),
		header:     header,
		generation: generation,
	}
	for i, r := range rows {
		if _, dup := t.index[r.VarName]; dup {
			return nil, errors.NewValidationError(ColVarName, "duplicate variable", r.VarName)
		}
		t.index[r.VarName] = i
		t.rows[i] = r.clone()
	}
	return t, nil
}

// Len は変数の数を返す
func (t *Table) Len() int { return len(t.rows) }

// Generation はこのスナップショットの世代番号を返す
func (t *Table) Generation() int { return t.generation }

// Header は列名を返す（読み込み時のヘッダー、またはスキーマ＋追加された統計量列）
func (t *Table) Header() []string { return append([]string(nil), t.header...) }

// HasColumn はヘッダーに列が含まれるかどうかを返す
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.header {
		if h == name {
			return true
		}
	}
	return false
}

// Row は変数名で行を取得する
func (t *Table) Row(name string) (Row, bool) {
	i, ok := t.index[name]
	if !ok {
		return Row{}, false
	}
	return t.rows[i].clone(), true
}

// Rows は全行のコピーを返す
func (t *Table) Rows() []Row {
	out := make([]Row, len(t.rows))
	for i, r := range t.rows {
		out[i] = r.clone()
	}
	return out
}

// Names は変数名を順番に返す
func (t *Table) Names() []string {
	names := make([]string, len(t.rows))
	for i, r := range t.rows {
		names[i] = r.VarName
	}
	return names
}

// Select は条件を満たす変数名を順番に返す
func (t *Table) Select(pred func(Row) bool) []string {
	var names []string
	for _, r := range t.rows {
		if pred(r) {
			names = append(names, r.VarName)
		}
	}
	return names
}

// Next は次の世代を作るBuilderを返す
func (t *Table) Next() *Builder {
	rows := t.Rows()
	return &Builder{
		rows:       rows,
		index:      t.index,
		header:     t.Header(),
		generation: t.generation + 1,
	}
}

// SetFlag はフラグ列を切り替えた次の世代を返す。存在しない変数は無視する
func (t *Table) SetFlag(names []string, column string, value bool) (*Table, error) {
	if _, err := (Row{}).Flag(column); err != nil {
		return nil, err
	}
	b := t.Next()
	for _, name := range names {
		b.Update(name, func(r *Row) { _ = r.setFlag(column, value) })
	}
	return b.Build(), nil
}

// Builder は次の世代のTableを組み立てる
type Builder struct {
	rows       []Row
	index      map[string]int
	header     []string
	generation int
}

// Update は変数の行を書き換える。変数が存在しない場合はfalseを返す
func (b *Builder) Update(name string, fn func(*Row)) bool {
	i, ok := b.index[name]
	if !ok {
		return false
	}
	fn(&b.rows[i])
	return true
}

// AddColumns はヘッダーに統計量列を追加する（既にあれば何もしない）
func (b *Builder) AddColumns(cols ...string) {
	for _, c := range cols {
		found := false
		for _, h := range b.header {
			if h == c {
				found = true
				break
			}
		}
		if !found {
			b.header = append(b.header, c)
		}
	}
}

// Build は新しい世代のTableを返す
func (b *Builder) Build() *Table {
	t, _ := newTable(b.rows, b.header, b.generation)
	return t
}

// WithGeneration は世代番号だけを変えたコピーを返す（スナップショットの復元用）
func (t *Table) WithGeneration(generation int) *Table {
	out, _ := newTable(t.rows, t.Header(), generation)
	return out
}
