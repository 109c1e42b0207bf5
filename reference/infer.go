package reference

import (
	"github.com/YuminosukeSato/riskprep/core/frame"
	"github.com/YuminosukeSato/riskprep/pkg/errors"
)

// Default impute tokens written by InferConfig.
const (
	DefaultNumericalImpute   = "-1"
	DefaultCategoricalImpute = "missing"
)

// TypeOf maps a frame column kind to a variable type.
func TypeOf(k frame.Kind) (VarType, error) {
	switch k {
	case frame.Float:
		return Numerical, nil
	case frame.String:
		return Categorical, nil
	case frame.Time:
		return Timestamp, nil
	}
	return "", errors.NewUnknownTypeError("", k.String())
}

// InferConfig builds a starting configuration table from a sample dataset.
//
// Every column gets Ind_Model=1. Numerical columns impute -1, categorical
// columns impute "missing" and are WOE-encoded. Ind_Cap is set for a
// numerical column whose maximum exceeds five times its 99th percentile.
// known overrides the inferred type of the named columns.
func InferConfig(df *frame.Frame, known map[string]VarType) (*Table, error) {
	if df.Width() == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "InferConfig")
	}
	rows := make([]Row, 0, df.Width())
	for _, name := range df.Names() {
		col, _ := df.Column(name)
		varType, ok := known[name]
		if !ok {
			var err error
			if varType, err = TypeOf(col.Kind()); err != nil {
				return nil, errors.NewUnknownTypeError(name, col.Kind().String())
			}
		}

		row := Row{
			VarName:       name,
			VarType:       varType,
			IndModel:      true,
			MissingImpute: String(DefaultNumericalImpute),
		}
		if varType == Categorical {
			row.MissingImpute = String(DefaultCategoricalImpute)
			row.IndWOE = true
		}
		if varType == Numerical && col.Kind() == frame.Float {
			_, max := col.MinMax()
			if max > 5*col.Quantile(0.99) {
				row.IndCap = true
			}
		}
		rows = append(rows, row)
	}
	return NewTable(rows)
}
