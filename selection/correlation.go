// Package selection removes highly correlated features from a candidate set.
package selection

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/core/parallel"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
	"github.com/YuminosukeSato/riskprep/pkg/log"
)

// MissingSentinel is the value imputation writes for missing numerical
// values. Rows where every variable equals it carry no information and are
// dropped before computing correlations.
const MissingSentinel = -1.0

// parallelThreshold is the number of variable pairs below which correlations
// are computed sequentially.
const parallelThreshold = 64

// Matrix is a symmetric matrix labelled by variable names.
type Matrix struct {
	Names []string
	Data  *mat.SymDense
}

// NewMatrix labels a symmetric matrix. The dimensions must match names.
func NewMatrix(names []string, data *mat.SymDense) (*Matrix, error) {
	if n := data.SymmetricDim(); n != len(names) {
		return nil, errors.NewDimensionMismatch("selection.NewMatrix", len(names), n)
	}
	return &Matrix{Names: append([]string(nil), names...), Data: data}, nil
}

// At returns the cell for a pair of variables.
func (m *Matrix) At(a, b string) (float64, bool) {
	i, j := m.index(a), m.index(b)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Data.At(i, j), true
}

func (m *Matrix) index(name string) int {
	for i, n := range m.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// CorrelationMatrix computes pairwise Pearson correlations between numerical
// columns. With no variables given every float column is used.
//
// Rows where all variables equal MissingSentinel are dropped first; each pair
// then uses the rows where both values are present. Pairs with fewer than two
// such rows get NaN.
func CorrelationMatrix(df *frame.Frame, variables ...string) (*Matrix, error) {
	if len(variables) == 0 {
		for _, name := range df.Names() {
			if col, _ := df.Column(name); col.Kind() == frame.Float {
				variables = append(variables, name)
			}
		}
	}
	if len(variables) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "CorrelationMatrix")
	}
	cols := make([][]float64, len(variables))
	for k, v := range variables {
		col, ok := df.Column(v)
		if !ok {
			return nil, errors.NewValidationError("variables", "column not found", v)
		}
		if col.Kind() != frame.Float {
			return nil, errors.NewValidationError("variables", "numerical column required", v)
		}
		cols[k] = col.Floats()
	}

	keep := make([]int, 0, df.Len())
	for i := 0; i < df.Len(); i++ {
		for _, c := range cols {
			if c[i] != MissingSentinel {
				keep = append(keep, i)
				break
			}
		}
	}

	n := len(variables)
	type pair struct{ a, b int }
	pairs := make([]pair, 0, n*(n-1)/2)
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			pairs = append(pairs, pair{a, b})
		}
	}

	values := make([]float64, len(pairs))
	err := parallel.Chunks(len(pairs), parallelThreshold, func(start, end int) error {
		x := make([]float64, 0, len(keep))
		y := make([]float64, 0, len(keep))
		for k := start; k < end; k++ {
			ca, cb := cols[pairs[k].a], cols[pairs[k].b]
			x, y = x[:0], y[:0]
			for _, i := range keep {
				if math.IsNaN(ca[i]) || math.IsNaN(cb[i]) {
					continue
				}
				x = append(x, ca[i])
				y = append(y, cb[i])
			}
			if len(x) < 2 {
				values[k] = math.NaN()
				continue
			}
			values[k] = stat.Correlation(x, y, nil)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "CorrelationMatrix")
	}

	data := mat.NewSymDense(n, nil)
	for a := 0; a < n; a++ {
		data.SetSym(a, a, 1)
	}
	for k, p := range pairs {
		data.SetSym(p.a, p.b, values[k])
	}
	return NewMatrix(variables, data)
}

// Option configures FilterCorrelation.
type Option func(*filterOptions)

type filterOptions struct {
	logger log.Logger
}

// WithLogger sets the logger eliminations are reported to.
func WithLogger(l log.Logger) Option {
	return func(o *filterOptions) { o.logger = l }
}

// FilterCorrelation greedily removes variables whose absolute correlation
// with another variable exceeds threshold.
//
// Cells are first transformed with f(1) = 0 and f(x) = |x|. A single scan
// then visits rows in order and, within a row, columns in order; a cell over
// the threshold eliminates the column variable, whose row and column are
// skipped from then on. The result is the transformed matrix restricted to
// the surviving variables.
func FilterCorrelation(m *Matrix, threshold float64, opts ...Option) (*Matrix, error) {
	if math.IsNaN(threshold) || threshold < 0 {
		return nil, errors.NewValidationError("threshold", "must be non-negative", threshold)
	}
	o := &filterOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.GetLoggerWithName("selection")
	}

	n := len(m.Names)
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "FilterCorrelation")
	}
	dist := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := m.Data.At(i, j)
			if v == 1 {
				v = 0
			}
			dist.SetSym(i, j, math.Abs(v))
		}
	}

	eliminated := make([]bool, n)
	for i := 0; i < n; i++ {
		if eliminated[i] {
			continue
		}
		for j := 0; j < n; j++ {
			// NaN cells never eliminate
			if eliminated[j] || !(dist.At(i, j) > threshold) {
				continue
			}
			eliminated[j] = true
			o.logger.Debug("Variable eliminated",
				log.VariableKey, m.Names[j],
				"correlated_with", m.Names[i],
				"value", dist.At(i, j),
			)
		}
	}

	var survivors []int
	for i, e := range eliminated {
		if !e {
			survivors = append(survivors, i)
		}
	}
	names := make([]string, len(survivors))
	out := mat.NewSymDense(len(survivors), nil)
	for a, i := range survivors {
		names[a] = m.Names[i]
		for b := a; b < len(survivors); b++ {
			out.SetSym(a, b, dist.At(i, survivors[b]))
		}
	}
	o.logger.Info("Correlation filter completed",
		log.OperationKey, log.OperationFilter,
		log.VariablesKey, len(survivors),
		"eliminated", n-len(survivors),
	)
	return NewMatrix(names, out)
}
