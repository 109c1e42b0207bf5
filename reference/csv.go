package reference

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// ReadTable reads a configuration or reference table from CSV. Columns not
// in the schema are kept in Header() so CheckConfig can report them, but
// their values are ignored.
func ReadTable(r io.Reader) (*Table, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read reference table")
	}
	if len(records) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "read reference table")
	}
	header := make([]string, len(records[0]))
	pos := make(map[string]int, len(header))
	for j, h := range records[0] {
		h = strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		header[j] = h
		pos[h] = j
	}
	if _, ok := pos[ColVarName]; !ok {
		return nil, errors.NewValidationError("header", "missing column", ColVarName)
	}

	rows := make([]Row, 0, len(records)-1)
	for line, rec := range records[1:] {
		get := func(col string) string {
			j, ok := pos[col]
			if !ok || j >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[j])
		}
		row, err := parseRow(get)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line+2)
		}
		rows = append(rows, row)
	}
	return newTable(rows, header, 0)
}

// ReadTableFile reads a reference table from a CSV file.
func ReadTableFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	return ReadTable(f)
}

func parseRow(get func(string) string) (Row, error) {
	var (
		r   Row
		err error
	)
	r.VarName = get(ColVarName)
	r.VarType = VarType(get(ColVarType))
	flags := []struct {
		col string
		dst *bool
	}{
		{ColIndModel, &r.IndModel},
		{ColIndCap, &r.IndCap},
		{ColIndFloor, &r.IndFloor},
		{ColIndWOE, &r.IndWOE},
		{ColIndNorm, &r.IndNorm},
		{ColIndScale, &r.IndScale},
	}
	for _, f := range flags {
		if *f.dst, err = parseBool(get(f.col)); err != nil {
			return r, errors.Wrap(err, f.col)
		}
	}
	values := []struct {
		col string
		dst **float64
	}{
		{ColCapValue, &r.CapValue},
		{ColFloorValue, &r.FloorValue},
		{ColMean, &r.Mean},
		{ColStd, &r.Std},
		{ColMin, &r.Min},
		{ColMax, &r.Max},
	}
	for _, v := range values {
		if *v.dst, err = parseNullableFloat(get(v.col)); err != nil {
			return r, errors.Wrap(err, v.col)
		}
	}
	if s := get(ColMissingImpute); s != "" {
		r.MissingImpute = String(s)
	}
	if r.WOEBin, err = ParseBins(get(ColWOEBin)); err != nil {
		return r, errors.Wrap(err, ColWOEBin)
	}
	return r, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "0", "0.0", "false":
		return false, nil
	case "1", "1.0", "true":
		return true, nil
	}
	return false, errors.NewValueError("parseBool", "not a flag: "+s)
}

func parseNullableFloat(s string) (*float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.NewValueError("parseFloat", "not a number: "+s)
	}
	return &v, nil
}

// ParseBins parses a bin-edge list such as "[0, 10.5, 100]". An empty
// string yields nil.
func ParseBins(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	s = strings.Trim(s, "[] ")
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	edges := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.Trim(p, "[] "), 64)
		if err != nil {
			return nil, errors.NewValueError("ParseBins", "not a number: "+p)
		}
		edges = append(edges, v)
	}
	return edges, nil
}

// FormatBins renders a bin-edge list as "[e1, e2, ...]".
func FormatBins(edges []float64) string {
	if edges == nil {
		return ""
	}
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = FormatFloat(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// FormatFloat writes the shortest representation that parses back to the
// same float64, so a persisted table replays bit-for-bit.
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteTable writes the table as CSV: the config schema followed by the
// stat columns present in the header.
func WriteTable(w io.Writer, t *Table) error {
	cols := append([]string(nil), ConfigColumns...)
	for _, c := range StatColumns {
		if t.HasColumn(c) {
			cols = append(cols, c)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return errors.Wrap(err, "write reference header")
	}
	for _, r := range t.rows {
		rec := make([]string, len(cols))
		for j, c := range cols {
			rec[j] = formatCell(r, c)
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, "write reference row")
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTableFile writes the table to a CSV file.
func WriteTableFile(path string, t *Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := WriteTable(f, t); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func formatCell(r Row, col string) string {
	switch col {
	case ColVarName:
		return r.VarName
	case ColVarType:
		return string(r.VarType)
	case ColMissingImpute:
		if r.MissingImpute == nil {
			return ""
		}
		return *r.MissingImpute
	case ColWOEBin:
		return FormatBins(r.WOEBin)
	case ColCapValue:
		return formatNullable(r.CapValue)
	case ColFloorValue:
		return formatNullable(r.FloorValue)
	case ColMean:
		return formatNullable(r.Mean)
	case ColStd:
		return formatNullable(r.Std)
	case ColMin:
		return formatNullable(r.Min)
	case ColMax:
		return formatNullable(r.Max)
	}
	v, _ := r.Flag(col)
	if v {
		return "1"
	}
	return "0"
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return FormatFloat(*v)
}
