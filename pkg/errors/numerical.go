package errors

import (
	"math"
)

// maxExpArg keeps math.Exp finite.
const maxExpArg = 700.0

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// CheckScalar returns a NumericalInstabilityError when value is NaN or ±Inf.
func CheckScalar(operation string, value float64, iteration int) error {
	if !finite(value) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// CheckFinite is CheckScalar for a whole vector. The error carries every value.
func CheckFinite(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if !finite(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// StabilizeExp returns exp(value) with the argument clamped to ±700.
func StabilizeExp(value float64) float64 {
	return math.Exp(max(-maxExpArg, min(maxExpArg, value)))
}
