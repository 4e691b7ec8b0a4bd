package afresample

import (
	"fmt"
	"math"

	"github.com/tphakala/go-audio-afresample/internal/engine"
)

// Config holds the parameters that define a conversion setup.
//
// A filter keeps two of them: the requested config, which follows options
// and rate negotiation, and the active config the engine was last opened
// with. The engine is reconfigured exactly when the two differ.
type Config struct {
	// InRate is the negotiated input rate in Hz. It is zero in a requested
	// config; reinit fills it in from the input format.
	InRate int

	// OutRate is the output rate in Hz. Zero means unset, which detaches
	// the filter.
	OutRate int

	// FilterSize is the filter length in taps.
	FilterSize int

	// PhaseShift is log2 of the number of polyphase branches.
	PhaseShift int

	// Linear enables linear interpolation between adjacent phases.
	Linear bool

	// Cutoff is the passband edge relative to the lower Nyquist, (0, 1].
	// A value <= 0 is replaced by DefaultCutoff(FilterSize) on Resolved.
	Cutoff float64
}

// DefaultCutoff derives the cutoff for a filter size:
// max(1 - 6.5/(filterSize+8), 0.80).
func DefaultCutoff(filterSize int) float64 {
	return max(1.0-cutoffRolloff/float64(filterSize+cutoffSizeOffset), cutoffFloor)
}

// DefaultConfig returns the requested config of a freshly opened filter.
func DefaultConfig() Config {
	return Config{
		OutRate:    DefaultOutputRate,
		FilterSize: DefaultFilterSize,
		PhaseShift: DefaultPhaseShift,
		Linear:     false,
		Cutoff:     DefaultCutoff(DefaultFilterSize),
	}
}

// Resolved returns c with an unset cutoff replaced by the size-derived default.
func (c Config) Resolved() Config {
	if c.Cutoff <= 0 {
		c.Cutoff = DefaultCutoff(c.FilterSize)
	}
	return c
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.InRate < 0 || c.InRate > maxSampleRate {
		return fmt.Errorf("%w: input rate %d out of range [0, %d]", ErrBadOption, c.InRate, maxSampleRate)
	}

	if c.OutRate < 0 || c.OutRate > maxSampleRate {
		return fmt.Errorf("%w: %s %d out of range [0, %d]", ErrBadOption, optSampleRate, c.OutRate, maxSampleRate)
	}

	if c.FilterSize < 1 || c.FilterSize > maxFilterSize {
		return fmt.Errorf("%w: %s %d out of range [1, %d]", ErrBadOption, optFilterSize, c.FilterSize, maxFilterSize)
	}

	if c.PhaseShift < 0 || c.PhaseShift > maxPhaseShift {
		return fmt.Errorf("%w: %s %d out of range [0, %d]", ErrBadOption, optPhaseShift, c.PhaseShift, maxPhaseShift)
	}

	if math.IsNaN(c.Cutoff) || c.Cutoff > 1 {
		return fmt.Errorf("%w: %s %v must be at most 1", ErrBadOption, optCutoff, c.Cutoff)
	}

	return nil
}

// engineParams maps a resolved config onto engine parameters.
func (c Config) engineParams(channels int) engine.Params {
	return engine.Params{
		Channels:   channels,
		InRate:     c.InRate,
		OutRate:    c.OutRate,
		FilterSize: c.FilterSize,
		PhaseShift: c.PhaseShift,
		Linear:     c.Linear,
		Cutoff:     c.Cutoff,
	}
}
