// Package simdops provides SIMD kernels for the polyphase engine through
// github.com/tphakala/simd, plus the saturating int16 sample conversions
// that sit at the engine boundary.
package simdops

import (
	"math"

	"github.com/tphakala/simd/f64"
)

// Float is the type constraint for supported floating-point types.
type Float interface {
	float32 | float64
}

// Ops provides SIMD-accelerated operations for type F.
type Ops[F Float] struct {
	// DotProductUnsafe computes the dot product without bounds checking.
	// Use only when slices are guaranteed to have equal length.
	DotProductUnsafe func(a, b []F) F

	// Sum returns the sum of all elements.
	Sum func(a []F) F

	// Scale multiplies each element by scalar s: dst[i] = a[i] * s
	Scale func(dst, a []F, s F)
}

var ops64 = Ops[float64]{
	DotProductUnsafe: f64.DotProductUnsafe,
	Sum:              f64.Sum,
	Scale:            f64.Scale,
}

// Float64Ops returns the float64 SIMD operations.
func Float64Ops() *Ops[float64] {
	return &ops64
}

// AppendChannel appends channel ch of the interleaved int16 frames in src to dst.
func AppendChannel[F Float](dst []F, src []int16, channels, ch int) []F {
	for i := ch; i < len(src); i += channels {
		dst = append(dst, F(src[i]))
	}
	return dst
}

// SaturateS16 rounds v to the nearest integer and clamps it to the int16 range.
func SaturateS16[F Float](v F) int16 {
	r := math.Round(float64(v))
	switch {
	case r > math.MaxInt16:
		return math.MaxInt16
	case r < math.MinInt16:
		return math.MinInt16
	default:
		return int16(r)
	}
}
