// Package testutil provides reusable test helpers: PCM signal generators,
// spectral checks and testify-based assertions.
package testutil

import (
	"encoding/binary"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Default tolerances for various test scenarios.
const (
	DefaultTolerance = 1e-10
	DBTolerance      = 0.01
)

const bytesPerS16 = 2

// SineS16 returns an interleaved signed 16-bit sine wave as int16 samples.
// Every channel carries the same tone.
func SineS16(frames, channels, rate int, freq, amplitude float64) []int16 {
	out := make([]int16, frames*channels)
	omega := 2 * math.Pi * freq / float64(rate)
	for i := range frames {
		v := int16(math.Round(amplitude * math.Sin(omega*float64(i))))
		for ch := range channels {
			out[i*channels+ch] = v
		}
	}
	return out
}

// SineS16Bytes is SineS16 encoded as native-endian bytes.
func SineS16Bytes(frames, channels, rate int, freq, amplitude float64) []byte {
	return S16Bytes(SineS16(frames, channels, rate, freq, amplitude))
}

// S16Bytes encodes int16 samples as native-endian bytes.
func S16Bytes(samples []int16) []byte {
	out := make([]byte, len(samples)*bytesPerS16)
	for i, s := range samples {
		binary.NativeEndian.PutUint16(out[i*bytesPerS16:], uint16(s))
	}
	return out
}

// BytesS16 decodes native-endian bytes into int16 samples.
func BytesS16(data []byte) []int16 {
	out := make([]int16, len(data)/bytesPerS16)
	for i := range out {
		out[i] = int16(binary.NativeEndian.Uint16(data[i*bytesPerS16:]))
	}
	return out
}

// Channel extracts one channel of an interleaved int16 signal as float64.
func Channel(samples []int16, channels, ch int) []float64 {
	out := make([]float64, 0, len(samples)/channels)
	for i := ch; i < len(samples); i += channels {
		out = append(out, float64(samples[i]))
	}
	return out
}

// DominantFrequency returns the frequency in Hz of the largest magnitude
// bin of the real FFT of signal, excluding DC.
func DominantFrequency(signal []float64, rate int) float64 {
	n := len(signal)
	if n < 2 {
		return 0
	}
	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, signal)

	best, bestMag := 0, 0.0
	for k := 1; k < len(coeffs); k++ {
		if mag := cmplx.Abs(coeffs[k]); mag > bestMag {
			best, bestMag = k, mag
		}
	}
	return fft.Freq(best) * float64(rate)
}

// RMS returns the root mean square of signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}
	var sum float64
	for _, v := range signal {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(signal)))
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float64, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if math.IsNaN(v) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(v, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertDCGain verifies that the sum of coefficients equals the expected DC gain.
func AssertDCGain(t *testing.T, coeffs []float64, expectedGain, tolerance float64) bool {
	t.Helper()
	var sum float64
	for _, c := range coeffs {
		sum += c
	}
	return assert.InDelta(t, expectedGain, sum, tolerance,
		"DC gain = %f, want %f", sum, expectedGain)
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// AssertInRange verifies that a value is within [min, max].
func AssertInRange(t *testing.T, value, minVal, maxVal float64, msgAndArgs ...any) bool {
	t.Helper()
	if value < minVal || value > maxVal {
		return assert.Fail(t, "value out of range",
			"value %f is outside range [%f, %f]", value, minVal, maxVal)
	}
	return true
}
