package reference

// Columns maps a variable name to the physical column it currently lives
// in. The zero value maps every variable to itself. Columns is immutable;
// With returns a modified copy.
type Columns struct {
	m map[string]string
}

// Resolve returns the physical column of a variable.
func (c Columns) Resolve(variable string) string {
	if col, ok := c.m[variable]; ok {
		return col
	}
	return variable
}

// With returns a copy with variable mapped to column.
func (c Columns) With(variable, column string) Columns {
	m := make(map[string]string, len(c.m)+1)
	for k, v := range c.m {
		m[k] = v
	}
	m[variable] = column
	return Columns{m: m}
}

// Renamed reports how many variables are mapped away from their own name.
func (c Columns) Renamed() int {
	n := 0
	for k, v := range c.m {
		if k != v {
			n++
		}
	}
	return n
}

// WoeColumn returns the column name WOE substitution writes for a variable:
// "nwoe_<name>" for numerical and "cwoe_<name>" for categorical variables.
func WoeColumn(name string, t VarType) string {
	if t == Categorical {
		return "cwoe_" + name
	}
	return "nwoe_" + name
}
