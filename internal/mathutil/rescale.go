package mathutil

import (
	"math"
	"math/bits"
)

// RescaleCeil returns ⌈a·b / c⌉ computed with a 128-bit intermediate
// product, so a·b never overflows. Results that do not fit in int64
// saturate at math.MaxInt64.
//
// a and b are sample counts and rates: non-positive values yield 0.
// c must be positive.
func RescaleCeil(a, b, c int64) int64 {
	if c <= 0 {
		panic("mathutil: RescaleCeil divisor must be positive")
	}
	if a <= 0 || b <= 0 {
		return 0
	}

	hi, lo := bits.Mul64(uint64(a), uint64(b))

	// Rounding up: add c-1 before the truncating division.
	var carry uint64
	lo, carry = bits.Add64(lo, uint64(c-1), 0)
	hi += carry

	if hi >= uint64(c) {
		return math.MaxInt64
	}

	q, _ := bits.Div64(hi, lo, uint64(c))
	if q > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(q)
}

// GCD returns the greatest common divisor of two positive integers.
func GCD(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}
