// Package filter designs the windowed-sinc polyphase filter banks used by
// the conversion engine.
package filter

import (
	"math"

	"github.com/tphakala/go-audio-afresample/internal/mathutil"
)

const (
	// Window normalization
	windowNormalizationFactor = 2.0

	// Sinc function constants
	sincZeroThreshold = 1e-10

	// DefaultBeta is the Kaiser β used when BankParams.Beta is zero.
	// Roughly 90 dB of stopband attenuation.
	DefaultBeta = 9.0
)

// KaiserWindow generates a Kaiser window of the specified length and β parameter.
//
// w[n] = I₀(β·√(1 - ((n - α)/α)²)) / I₀(β), α = (N-1)/2
//
// The window is symmetric: w[i] = w[length-1-i], with a peak of 1.0.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)
	if length == 1 {
		window[0] = 1.0
		return window
	}

	alpha := float64(length-1) / windowNormalizationFactor
	for n := range length {
		window[n] = kaiserAt((float64(n)-alpha)/alpha, beta)
	}

	return window
}

// kaiserAt evaluates the Kaiser window at normalized position x in [-1, 1].
// Positions outside the interval evaluate to the window edge value.
func kaiserAt(x, beta float64) float64 {
	arg := beta * math.Sqrt(max(1.0-x*x, 0))
	return mathutil.BesselI0(arg) / mathutil.BesselI0(beta)
}

// sinc returns sin(x)/x with the removable singularity at zero filled in.
func sinc(x float64) float64 {
	if math.Abs(x) < sincZeroThreshold {
		return 1.0
	}
	return math.Sin(x) / x
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	const (
		minMagnitude = 1e-10 // Avoid log(0)
		dbMultiplier = 20.0  // 20*log10 for magnitude
	)

	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}
