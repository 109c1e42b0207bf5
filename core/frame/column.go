package frame

import (
	"math"
	"time"
)

// Kind は列のデータ型を表す
type Kind int

const (
	// Float は数値列。欠損はNaNで表す
	Float Kind = iota
	// String は文字列列。欠損は有効フラグで表す
	String
	// Time は日時列。欠損はゼロ値で表す
	Time
)

// String はKindの文字列表現を返す
func (k Kind) String() string {
	switch k {
	case Float:
		return "float64"
	case String:
		return "string"
	case Time:
		return "time"
	default:
		return "unknown"
	}
}

// Column は名前付きの1列
type Column struct {
	name   string
	kind   Kind
	floats []float64
	strs   []string
	valid  []bool
	times  []time.Time
}

// NewFloatColumn は数値列を作成する。values はコピーされない
func NewFloatColumn(name string, values []float64) *Column {
	return &Column{name: name, kind: Float, floats: values}
}

// NewStringColumn は文字列列を作成する
//
// パラメータ:
//   - valid: 各要素が欠損でないかどうか。nil の場合は全て有効
func NewStringColumn(name string, values []string, valid []bool) *Column {
	if valid == nil {
		valid = make([]bool, len(values))
		for i := range valid {
			valid[i] = true
		}
	}
	return &Column{name: name, kind: String, strs: values, valid: valid}
}

// NewTimeColumn は日時列を作成する。ゼロ値は欠損として扱う
func NewTimeColumn(name string, values []time.Time) *Column {
	return &Column{name: name, kind: Time, times: values}
}

// Name は列名を返す
func (c *Column) Name() string { return c.name }

// Kind は列のデータ型を返す
func (c *Column) Kind() Kind { return c.kind }

// Len は行数を返す
func (c *Column) Len() int {
	switch c.kind {
	case Float:
		return len(c.floats)
	case String:
		return len(c.strs)
	default:
		return len(c.times)
	}
}

// Floats は数値列の値を返す。返されたスライスへの書き込みは列に反映される
func (c *Column) Floats() []float64 { return c.floats }

// Strings は文字列列の値を返す
func (c *Column) Strings() []string { return c.strs }

// Valid は文字列列の有効フラグを返す
func (c *Column) Valid() []bool { return c.valid }

// Times は日時列の値を返す
func (c *Column) Times() []time.Time { return c.times }

// IsMissing は i 行目が欠損かどうかを返す
func (c *Column) IsMissing(i int) bool {
	switch c.kind {
	case Float:
		return math.IsNaN(c.floats[i])
	case String:
		return !c.valid[i]
	default:
		return c.times[i].IsZero()
	}
}

// MissingCount は欠損値の数を返す
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// NonMissingFloats は欠損を除いた数値を新しいスライスで返す
func (c *Column) NonMissingFloats() []float64 {
	out := make([]float64, 0, len(c.floats))
	for _, v := range c.floats {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// FillFloat は数値列の欠損を v で埋める
func (c *Column) FillFloat(v float64) {
	for i, x := range c.floats {
		if math.IsNaN(x) {
			c.floats[i] = v
		}
	}
}

// FillString は文字列列の欠損を v で埋める
func (c *Column) FillString(v string) {
	for i, ok := range c.valid {
		if !ok {
			c.strs[i] = v
			c.valid[i] = true
		}
	}
}

// Rename は同じデータを持つ別名の列を返す（データは共有される）
func (c *Column) Rename(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// Clone は列のディープコピーを返す
func (c *Column) Clone() *Column {
	cp := &Column{name: c.name, kind: c.kind}
	if c.floats != nil {
		cp.floats = append([]float64(nil), c.floats...)
	}
	if c.strs != nil {
		cp.strs = append([]string(nil), c.strs...)
		cp.valid = append([]bool(nil), c.valid...)
	}
	if c.times != nil {
		cp.times = append([]time.Time(nil), c.times...)
	}
	return cp
}
