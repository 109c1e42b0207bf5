package reference

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// WOE reference table columns.
const (
	ColVarValue = "Var_Value"
	ColRefValue = "Ref_Value"
	ColCount    = "Count"
	ColBad      = "Bad"
	ColIV       = "IV"
)

// WoeColumns は永続化されるWOEリファレンステーブルの列
var WoeColumns = []string{ColVarName, ColVarType, ColVarValue, ColRefValue, ColCount, ColBad, ColIV}

// MissingBin は数値変数の欠損ビンのVar_Value
const MissingBin = "missing"

// WoeRow は1ビン分のWOE
type WoeRow struct {
	VarName  string
	VarType  VarType
	VarValue string
	RefValue float64
	Count    int
	Bad      int
	IV       float64
}

// Interval は数値ビン (Lo, Hi]
type Interval struct {
	Lo, Hi float64
}

// String は "(lo, hi]" 形式の文字列を返す
func (iv Interval) String() string {
	return fmt.Sprintf("(%s, %s]", FormatFloat(iv.Lo), FormatFloat(iv.Hi))
}

// Contains は x がビンに含まれるかどうかを返す
func (iv Interval) Contains(x float64) bool {
	return x > iv.Lo && x <= iv.Hi
}

// ParseInterval は "(lo, hi]" 形式の文字列を解析する
func ParseInterval(s string) (Interval, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, "]") {
		return Interval{}, errors.NewValueError("ParseInterval", "not an interval: "+s)
	}
	parts := strings.Split(s[1:len(s)-1], ",")
	if len(parts) != 2 {
		return Interval{}, errors.NewValueError("ParseInterval", "not an interval: "+s)
	}
	lo, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	hi, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return Interval{}, errors.NewValueError("ParseInterval", "not an interval: "+s)
	}
	return Interval{Lo: lo, Hi: hi}, nil
}

// WoeTable はWOEリファレンステーブル（変数×ビン）
type WoeTable struct {
	rows []WoeRow
}

// NewWoeTable は行からWOEリファレンステーブルを作成する
func NewWoeTable(rows []WoeRow) *WoeTable {
	return &WoeTable{rows: append([]WoeRow(nil), rows...)}
}

// Len は行数を返す
func (t *WoeTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Rows は全行のコピーを返す
func (t *WoeTable) Rows() []WoeRow {
	if t == nil {
		return nil
	}
	return append([]WoeRow(nil), t.rows...)
}

// ForVariable は変数のビンを返す
func (t *WoeTable) ForVariable(name string) []WoeRow {
	if t == nil {
		return nil
	}
	var out []WoeRow
	for _, r := range t.rows {
		if r.VarName == name {
			out = append(out, r)
		}
	}
	return out
}

// Has は変数のビンが存在するかどうかを返す
func (t *WoeTable) Has(name string) bool {
	if t == nil {
		return false
	}
	for _, r := range t.rows {
		if r.VarName == name {
			return true
		}
	}
	return false
}

// Variables は変数名を出現順に返す
func (t *WoeTable) Variables() []string {
	if t == nil {
		return nil
	}
	seen := make(map[string]bool)
	var names []string
	for _, r := range t.rows {
		if !seen[r.VarName] {
			seen[r.VarName] = true
			names = append(names, r.VarName)
		}
	}
	return names
}

// Append は行を追加した新しいテーブルを返す
func (t *WoeTable) Append(rows ...WoeRow) *WoeTable {
	out := &WoeTable{rows: make([]WoeRow, 0, t.Len()+len(rows))}
	out.rows = append(out.rows, t.Rows()...)
	out.rows = append(out.rows, rows...)
	return out
}

// InformationValue は変数のIV（ビンのIVの合計）を返す
func (t *WoeTable) InformationValue(name string) float64 {
	iv := 0.0
	for _, r := range t.ForVariable(name) {
		iv += r.IV
	}
	return iv
}

// ReadWoeTable reads a WOE reference table from CSV. Count, Bad and IV are
// optional.
func ReadWoeTable(r io.Reader) (*WoeTable, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read woe table")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "read woe table")
	}
	pos := make(map[string]int)
	for j, h := range records[0] {
		pos[strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")] = j
	}
	for _, c := range []string{ColVarName, ColVarType, ColVarValue, ColRefValue} {
		if _, ok := pos[c]; !ok {
			return nil, errors.NewValidationError("header", "missing column", c)
		}
	}

	t := &WoeTable{}
	for line, rec := range records[1:] {
		get := func(col string) string {
			j, ok := pos[col]
			if !ok || j >= len(rec) {
				return ""
			}
			return rec[j]
		}
		row := WoeRow{
			VarName:  get(ColVarName),
			VarType:  VarType(get(ColVarType)),
			VarValue: get(ColVarValue),
		}
		if row.RefValue, err = strconv.ParseFloat(get(ColRefValue), 64); err != nil {
			return nil, errors.Wrapf(err, "line %d: %s", line+2, ColRefValue)
		}
		if s := get(ColCount); s != "" {
			if row.Count, err = strconv.Atoi(s); err != nil {
				return nil, errors.Wrapf(err, "line %d: %s", line+2, ColCount)
			}
		}
		if s := get(ColBad); s != "" {
			if row.Bad, err = strconv.Atoi(s); err != nil {
				return nil, errors.Wrapf(err, "line %d: %s", line+2, ColBad)
			}
		}
		if s := get(ColIV); s != "" {
			if row.IV, err = strconv.ParseFloat(s, 64); err != nil {
				return nil, errors.Wrapf(err, "line %d: %s", line+2, ColIV)
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// ReadWoeTableFile reads a WOE reference table from a CSV file.
func ReadWoeTableFile(path string) (*WoeTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadWoeTable(f)
}

// WriteWoeTable writes the WOE reference table as CSV.
func WriteWoeTable(w io.Writer, t *WoeTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(WoeColumns); err != nil {
		return errors.Wrap(err, "write woe header")
	}
	for _, r := range t.Rows() {
		rec := []string{
			r.VarName,
			string(r.VarType),
			r.VarValue,
			FormatFloat(r.RefValue),
			strconv.Itoa(r.Count),
			strconv.Itoa(r.Bad),
			FormatFloat(r.IV),
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "write woe row")
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWoeTableFile writes the WOE reference table to a CSV file, replacing
// it atomically so an interrupted checkpoint never leaves a torn file.
func WriteWoeTableFile(path string, t *WoeTable) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.Wrapf(err, "create %s", tmp)
	}
	if err := WriteWoeTable(f, t); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, "close %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, path), "rename %s", tmp)
}

