package errors

import "math"

// maxReportedValues bounds how many offending values an instability error
// carries. Reporting every NaN in a large batch would bloat the message
// without adding information.
const maxReportedValues = 8

// unstable reports whether v is NaN or an infinity.
func unstable(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// CheckNumericalStability scans a value slice for NaN or Inf and returns a
// NumericalInstabilityError carrying the offending values when any are found.
func CheckNumericalStability(operation string, values []float64, chunk int) error {
	var bad []float64
	for _, v := range values {
		if unstable(v) {
			bad = append(bad, v)
			if len(bad) == maxReportedValues {
				break
			}
		}
	}
	if len(bad) > 0 {
		return NewNumericalInstabilityError(operation, bad, chunk)
	}
	return nil
}

// CheckMatrix scans all values of a matrix for NaN or Inf. The scan stops
// early once maxReportedValues offenders have been collected.
func CheckMatrix(operation string, m interface{ At(int, int) float64 }, rows, cols, chunk int) error {
	var bad []float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := m.At(i, j); unstable(v) {
				bad = append(bad, v)
				if len(bad) == maxReportedValues {
					return NewNumericalInstabilityError(operation, bad, chunk)
				}
			}
		}
	}
	if len(bad) > 0 {
		return NewNumericalInstabilityError(operation, bad, chunk)
	}
	return nil
}
