// Package money centralises the float arithmetic conventions used for
// all monetary values: amounts are dollars, rounded to cents, with
// comparisons done against a one-cent tolerance.
package money

import "math"

// Tolerance is the maximum absolute difference at which two amounts
// are still considered equal. One cent of drift is accepted to absorb
// client-side float arithmetic.
const Tolerance = 0.01

// Round2 rounds an amount to two decimal places, half away from zero.
func Round2(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// IsClose reports whether two amounts agree within Tolerance.
func IsClose(a, b float64) bool {
	return math.Abs(a-b) < Tolerance
}
