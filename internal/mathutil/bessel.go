// Package mathutil provides the numeric helpers shared by the filter design
// and the stream adapter: Bessel I0 for Kaiser windows and exact rational
// rescaling for delay and buffer sizing.
package mathutil

import (
	"math"
)

// BesselI0 computes the modified Bessel function of the first kind, order zero: I₀(x).
// It is the kernel of the Kaiser window.
//
// Polynomial approximations from Abramowitz & Stegun 9.8.1 and 9.8.2:
//   - |x| < 3.75: series in (x/3.75)²
//   - otherwise: asymptotic expansion scaled by eˣ/√x
func BesselI0(x float64) float64 {
	ax := math.Abs(x)

	if ax < besselSmallArgThreshold {
		t := x / besselSmallArgThreshold
		t *= t

		return 1.0 + t*(besselI0Coeff1+t*(besselI0Coeff2+t*(besselI0Coeff3+
			t*(besselI0Coeff4+t*(besselI0Coeff5+t*besselI0Coeff6)))))
	}

	t := besselSmallArgThreshold / ax

	result := besselI0AsympCoeff0 + t*(besselI0AsympCoeff1+t*(besselI0AsympCoeff2+
		t*(besselI0AsympCoeff3+t*(besselI0AsympCoeff4+t*(besselI0AsympCoeff5+
			t*(besselI0AsympCoeff6+t*(besselI0AsympCoeff7+t*besselI0AsympCoeff8)))))))

	return math.Exp(ax) * result / math.Sqrt(ax)
}

// KaiserAttenuation estimates the stopband attenuation in dB reached by a
// Kaiser window with the given β. Inverse of the Kaiser & Schafer high
// attenuation formula β = 0.1102 * (att - 8.7).
func KaiserAttenuation(beta float64) float64 {
	if beta < kaiserBetaMinThreshold {
		return 0.0
	}
	return kaiserBetaHighOffset + beta/kaiserBetaHighCoeff1
}
