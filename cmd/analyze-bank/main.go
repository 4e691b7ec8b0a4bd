// Command analyze-bank prints the shape, DC gain and frequency response of
// the polyphase filter bank the filter would design for a conversion.
//
// Usage:
//
//	analyze-bank -in 48000 -out 44100 -filter-size 16 -phase-shift 10
package main

import (
	"flag"
	"fmt"
	"math"
	"math/cmplx"
	"os"

	"gonum.org/v1/gonum/dsp/fourier"

	afresample "github.com/tphakala/go-audio-afresample"
	"github.com/tphakala/go-audio-afresample/internal/filter"
	"github.com/tphakala/go-audio-afresample/internal/mathutil"
	"github.com/tphakala/go-audio-afresample/internal/simdops"
)

const (
	// Zero-padded FFT length for the response plot
	responseFFTSize = 1 << 14

	// Display limits
	maxPhasesToShow = 5
	testIterations  = 1000

	nyquistFraction = 0.5
)

func main() {
	inRate := flag.Int("in", afresample.RateDAT, "Input sample rate in Hz")
	outRate := flag.Int("out", afresample.RateCD, "Output sample rate in Hz")
	filterSize := flag.Int("filter-size", afresample.DefaultFilterSize, "Filter length in taps")
	phaseShift := flag.Int("phase-shift", afresample.DefaultPhaseShift, "log2 of the number of phases")
	cutoff := flag.Float64("cutoff", 0, "Passband edge in (0, 1]; 0 derives it from the filter size")
	flag.Parse()

	if err := analyze(*inRate, *outRate, *filterSize, *phaseShift, *cutoff); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func analyze(inRate, outRate, filterSize, phaseShift int, cutoff float64) error {
	cfg := afresample.Config{
		InRate:     inRate,
		OutRate:    outRate,
		FilterSize: filterSize,
		PhaseShift: phaseShift,
		Cutoff:     cutoff,
	}.Resolved()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if inRate <= 0 || outRate <= 0 {
		return fmt.Errorf("sample rates must be positive: in=%d, out=%d", inRate, outRate)
	}

	ratio := float64(outRate) / float64(inRate)
	bank, err := filter.DesignBank(filter.BankParams{
		FilterSize: cfg.FilterSize,
		PhaseShift: cfg.PhaseShift,
		Cutoff:     cfg.Cutoff,
		Ratio:      ratio,
	})
	if err != nil {
		return err
	}

	fmt.Printf("=== Filter bank for %d Hz -> %d Hz (ratio %.6f) ===\n", inRate, outRate, ratio)
	fmt.Printf("  Cutoff: %.4f, factor: %.4f\n", cfg.Cutoff, bank.Factor)
	fmt.Printf("  Taps: %d, center: %d, phases: %d\n", bank.Taps, bank.Center, bank.NumPhases)
	fmt.Printf("  Kaiser beta: %.1f (~%.0f dB stopband)\n", bank.Beta, mathutil.KaiserAttenuation(bank.Beta))
	if window := filter.KaiserWindow(bank.Taps, bank.Beta); len(window) > 1 {
		fmt.Printf("  Window edge: %.3e (%.1f dB)\n", window[0], filter.MagnitudeDB(window[0]))
	}
	fmt.Printf("  Memory: %d bytes\n", bank.GetMemoryUsage())

	printPhaseUsage(bank, inRate, outRate)
	printResponse(bank, ratio)
	return nil
}

// printPhaseUsage steps through output positions the way the engine does
// and reports the phases hit and their DC gain.
func printPhaseUsage(bank *filter.Bank, inRate, outRate int) {
	g := mathutil.GCD(int64(inRate), int64(outRate))
	inStep, outStep := int64(inRate)/g, int64(outRate)/g
	numPhases := int64(bank.NumPhases)

	fmt.Println("\nPhases used:")
	used := make(map[int]bool)
	var frac int64
	for range testIterations {
		phase := int(frac * numPhases / outStep)
		if !used[phase] {
			used[phase] = true
			if len(used) <= maxPhasesToShow {
				fmt.Printf("  Phase %4d: DC gain = %.10f\n", phase, simdops.Float64Ops().Sum(bank.Row(phase)))
			}
		}
		frac = (frac + inStep) % outStep
	}
	fmt.Printf("  %d unique phases (out of %d)\n", len(used), bank.NumPhases)
}

// printResponse prints the magnitude response of phase 0 at the passband
// edge and the worst level above the lower Nyquist.
func printResponse(bank *filter.Bank, ratio float64) {
	padded := make([]float64, max(responseFFTSize, bank.Taps))
	copy(padded, bank.Row(0))

	fft := fourier.NewFFT(len(padded))
	coeffs := fft.Coefficients(nil, padded)

	passEdge := nyquistFraction * bank.Factor
	stopEdge := nyquistFraction * min(ratio, 1)

	var passDB float64
	worstStop := math.Inf(-1)
	for k, c := range coeffs {
		freq := fft.Freq(k)
		db := filter.MagnitudeDB(cmplx.Abs(c))
		if freq <= passEdge {
			passDB = db
		}
		if freq >= stopEdge && db > worstStop {
			worstStop = db
		}
	}

	fmt.Println("\nResponse of phase 0 (frequency relative to input rate):")
	fmt.Printf("  DC: %.4f dB\n", filter.MagnitudeDB(cmplx.Abs(coeffs[0])))
	fmt.Printf("  Passband edge %.4f: %.2f dB\n", passEdge, passDB)
	fmt.Printf("  Stopband from %.4f: worst %.2f dB\n", stopEdge, worstStop)
}
