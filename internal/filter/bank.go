package filter

import (
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"
)

const (
	maxFilterTaps = 8191

	// MaxPhaseShift bounds the phase table at 2^16 phases.
	MaxPhaseShift = 16

	// Upper bound on the number of coefficients in one bank (32 MiB of float64).
	maxBankCoeffs = 1 << 22
)

// BankParams holds the parameters of a polyphase resampling filter bank.
type BankParams struct {
	// FilterSize is the filter length in taps at full bandwidth. When the
	// bank has to cut below the input Nyquist (downsampling or cutoff < 1)
	// the actual tap count grows by 1/Factor.
	FilterSize int

	// PhaseShift is log2 of the number of polyphase branches.
	PhaseShift int

	// Cutoff is the passband edge relative to the lower Nyquist, (0, 1].
	Cutoff float64

	// Ratio is output rate / input rate.
	Ratio float64

	// Beta is the Kaiser window β. Zero selects DefaultBeta.
	Beta float64
}

// Validate checks if bank parameters are valid.
func (p *BankParams) Validate() error {
	if p.FilterSize < 1 {
		return fmt.Errorf("filter size %d must be positive", p.FilterSize)
	}
	if p.PhaseShift < 0 || p.PhaseShift > MaxPhaseShift {
		return fmt.Errorf("phase shift %d out of range [0, %d]", p.PhaseShift, MaxPhaseShift)
	}
	if p.Cutoff <= 0 || p.Cutoff > 1 {
		return fmt.Errorf("cutoff %f out of range (0, 1]", p.Cutoff)
	}
	if p.Ratio <= 0 || math.IsInf(p.Ratio, 0) || math.IsNaN(p.Ratio) {
		return fmt.Errorf("invalid ratio %f", p.Ratio)
	}
	if p.Beta < 0 {
		return fmt.Errorf("kaiser beta %f must not be negative", p.Beta)
	}
	return nil
}

// Bank is a polyphase filter bank.
//
// Row p holds the taps for a fractional input offset of p/NumPhases.
// There are NumPhases+1 rows so that linear interpolation between phase p
// and p+1 never wraps; the last row is row 0 delayed by one input sample.
type Bank struct {
	// Coeffs stores the rows back to back: Coeffs[p*Taps : (p+1)*Taps].
	Coeffs []float64

	NumPhases int
	Taps      int

	// Center is the tap aligned with the output instant at phase 0.
	Center int

	// Factor is the normalized bandwidth min(Ratio, 1) * Cutoff.
	Factor float64

	Beta float64
}

// DesignBank builds a Kaiser-windowed sinc polyphase bank.
//
// Every row is normalized to unity DC gain.
func DesignBank(params BankParams) (*Bank, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bank parameters: %w", err)
	}

	beta := params.Beta
	if beta == 0 {
		beta = DefaultBeta
	}

	factor := min(params.Ratio, 1.0) * params.Cutoff
	taps := max(int(math.Ceil(float64(params.FilterSize)/factor)), 1)
	if taps > maxFilterTaps {
		return nil, fmt.Errorf("filter too long: %d taps (maximum %d)", taps, maxFilterTaps)
	}

	numPhases := 1 << params.PhaseShift
	rows := numPhases + 1
	if rows*taps > maxBankCoeffs {
		return nil, fmt.Errorf("filter bank too large: %d phases x %d taps", numPhases, taps)
	}

	b := &Bank{
		Coeffs:    make([]float64, rows*taps),
		NumPhases: numPhases,
		Taps:      taps,
		Center:    (taps - 1) / 2,
		Factor:    factor,
		Beta:      beta,
	}

	// Maps the tap span onto the window interval [-1, 1].
	windowScale := windowNormalizationFactor / (factor * float64(taps) * math.Pi)

	for p := range rows {
		row := b.Row(p)
		offset := float64(p) / float64(numPhases)
		for i := range taps {
			x := math.Pi * (float64(i-b.Center) - offset) * factor
			row[i] = sinc(x) * kaiserAt(x*windowScale, beta)
		}

		if sum := f64.Sum(row); math.Abs(sum) > sincZeroThreshold {
			f64.Scale(row, row, 1.0/sum)
		}
	}

	return b, nil
}

// Row returns the taps of phase p, 0 <= p <= NumPhases.
func (b *Bank) Row(p int) []float64 {
	return b.Coeffs[p*b.Taps : (p+1)*b.Taps]
}

// GetMemoryUsage returns the approximate memory usage in bytes.
func (b *Bank) GetMemoryUsage() int64 {
	const bytesPerFloat64 = 8
	return int64(len(b.Coeffs)) * bytesPerFloat64
}
