// Package fixed provides a small fixed-point scalar used where the display
// pipeline needs sub-integer precision without floating point.
package fixed

// Shift is the number of fractional bits carried by a Scalar.
const Shift = 10

// One is the scaled representation of 1.
const One Scalar = 1 << Shift

// Scalar is an integer value scaled by 2^Shift.
type Scalar int32

// FromInt scales an integer into a Scalar.
func FromInt(v int) Scalar {
	return Scalar(v) << Shift
}

// Int returns the integer part of s. Negative values round toward
// negative infinity (arithmetic shift).
func (s Scalar) Int() int {
	return int(s >> Shift)
}

// Div divides s by n with truncation toward zero. A zero divisor yields 0.
func (s Scalar) Div(n int) Scalar {
	if n == 0 {
		return 0
	}
	return s / Scalar(n)
}

// Abs returns the absolute value of s.
func (s Scalar) Abs() Scalar {
	if s < 0 {
		return -s
	}
	return s
}
