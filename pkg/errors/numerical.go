package errors

// ClipValue clips a value to the range [min, max].
// NaN is returned unchanged.
func ClipValue(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
