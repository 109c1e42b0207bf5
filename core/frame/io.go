package frame

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// DefaultNullValues are the cell values read as missing.
var DefaultNullValues = []string{"", "NA", "NaN", "nan", "null", "NULL"}

var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

type readOptions struct {
	nulls map[string]bool
	kinds map[string]Kind
}

// ReadOption configures ReadCSV and ReadExcel.
type ReadOption func(*readOptions)

// WithNullValues replaces the set of cell values treated as missing.
func WithNullValues(values ...string) ReadOption {
	return func(o *readOptions) {
		o.nulls = make(map[string]bool, len(values))
		for _, v := range values {
			o.nulls[v] = true
		}
	}
}

// WithKinds forces the kind of the named columns instead of inferring it.
func WithKinds(kinds map[string]Kind) ReadOption {
	return func(o *readOptions) { o.kinds = kinds }
}

func newReadOptions(opts []ReadOption) *readOptions {
	o := &readOptions{kinds: map[string]Kind{}}
	WithNullValues(DefaultNullValues...)(o)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ReadCSV reads a delimited file with a header row. Column kinds are
// inferred: all non-missing cells numeric gives Float, all parseable as a
// date gives Time, anything else String.
func ReadCSV(r io.Reader, opts ...ReadOption) (*Frame, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "read csv")
	}
	return fromRecords(records, newReadOptions(opts))
}

// ReadCSVFile reads a CSV file from disk.
func ReadCSVFile(path string, opts ...ReadOption) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer file.Close()
	return ReadCSV(file, opts...)
}

// ReadExcel reads one sheet of an xlsx workbook. An empty sheet name selects
// the first sheet.
func ReadExcel(path, sheet string, opts ...ReadOption) (*Frame, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.Wrapf(errors.ErrEmptyData, "no sheets in %s", path)
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}
	// excelize trims trailing empty cells
	if len(rows) > 0 {
		width := len(rows[0])
		for i, row := range rows {
			for len(row) < width {
				row = append(row, "")
			}
			rows[i] = row
		}
	}
	return fromRecords(rows, newReadOptions(opts))
}

func fromRecords(records [][]string, o *readOptions) (*Frame, error) {
	if len(records) == 0 {
		return nil, errors.ErrEmptyData
	}
	header := records[0]
	body := records[1:]

	f := &Frame{index: make(map[string]int, len(header))}
	for j, name := range header {
		cells := make([]string, len(body))
		for i, row := range body {
			if j < len(row) {
				cells[i] = strings.TrimSpace(row[j])
			}
		}
		kind, forced := o.kinds[name]
		if !forced {
			kind = inferKind(cells, o.nulls)
		}
		col, err := parseColumn(name, kind, cells, o.nulls)
		if err != nil {
			return nil, err
		}
		if err := f.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func inferKind(cells []string, nulls map[string]bool) Kind {
	numeric, timed, seen := true, true, false
	for _, c := range cells {
		if nulls[c] {
			continue
		}
		seen = true
		if numeric {
			if _, err := strconv.ParseFloat(c, 64); err != nil {
				numeric = false
			}
		}
		if timed {
			if _, ok := parseTime(c); !ok {
				timed = false
			}
		}
		if !numeric && !timed {
			return String
		}
	}
	switch {
	case !seen:
		return Float
	case numeric:
		return Float
	default:
		return Time
	}
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseColumn(name string, kind Kind, cells []string, nulls map[string]bool) (*Column, error) {
	switch kind {
	case Float:
		values := make([]float64, len(cells))
		for i, c := range cells {
			if nulls[c] {
				values[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(c, 64)
			if err != nil {
				return nil, errors.NewValidationError(name, "cell is not numeric", c)
			}
			values[i] = v
		}
		return NewFloatColumn(name, values), nil
	case Time:
		values := make([]time.Time, len(cells))
		for i, c := range cells {
			if nulls[c] {
				continue
			}
			t, ok := parseTime(c)
			if !ok {
				return nil, errors.NewValidationError(name, "cell is not a timestamp", c)
			}
			values[i] = t
		}
		return NewTimeColumn(name, values), nil
	default:
		values := make([]string, len(cells))
		valid := make([]bool, len(cells))
		for i, c := range cells {
			if nulls[c] {
				continue
			}
			values[i] = c
			valid[i] = true
		}
		return NewStringColumn(name, values, valid), nil
	}
}

// WriteCSV writes the frame with a header row. Missing cells are written
// empty; floats use the shortest representation that parses back exactly.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Names()); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	row := make([]string, len(f.cols))
	for i := 0; i < f.Len(); i++ {
		for j, c := range f.cols {
			row[j] = c.format(i)
		}
		if err := cw.Write(row); err != nil {
			return errors.Wrap(err, "write csv row")
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the frame to a CSV file.
func (f *Frame) WriteCSVFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := f.WriteCSV(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (c *Column) format(i int) string {
	if c.IsMissing(i) {
		return ""
	}
	switch c.kind {
	case Float:
		return strconv.FormatFloat(c.floats[i], 'g', -1, 64)
	case String:
		return c.strs[i]
	default:
		return c.times[i].Format(time.RFC3339)
	}
}
