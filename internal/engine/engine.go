// Package engine implements the sample-rate conversion engine behind a
// filter stage: an allocate/open/convert/close capability working on
// interleaved signed 16-bit frames.
package engine

import (
	"errors"
	"fmt"
)

// Errors returned by engines and handles.
var (
	// ErrAlloc indicates the engine instance could not be allocated.
	ErrAlloc = errors.New("engine allocation failed")

	// ErrInvalidParams indicates Open was called with unusable parameters.
	ErrInvalidParams = errors.New("invalid engine parameters")

	// ErrNotOpen indicates a conversion on an engine that is not open.
	ErrNotOpen = errors.New("engine not open")

	// ErrAlreadyOpen indicates Open on an engine that was not closed first.
	ErrAlreadyOpen = errors.New("engine already open")

	// ErrFrameAlignment indicates a buffer that is not a whole number of frames.
	ErrFrameAlignment = errors.New("buffer length is not a multiple of the channel count")
)

// Params is the full configuration an engine is opened with. Input and
// output share the channel layout and the S16 native-endian sample format.
type Params struct {
	Channels   int
	InRate     int
	OutRate    int
	FilterSize int
	PhaseShift int
	Linear     bool
	Cutoff     float64
}

// Validate checks if the parameters can be applied to an engine.
func (p *Params) Validate() error {
	if p.Channels < 1 || p.Channels > maxChannels {
		return fmt.Errorf("%w: channels %d out of range [1, %d]", ErrInvalidParams, p.Channels, maxChannels)
	}
	if p.InRate <= 0 || p.OutRate <= 0 {
		return fmt.Errorf("%w: sample rates must be positive: in=%d, out=%d", ErrInvalidParams, p.InRate, p.OutRate)
	}
	if p.FilterSize < 1 {
		return fmt.Errorf("%w: filter size %d must be positive", ErrInvalidParams, p.FilterSize)
	}
	if p.PhaseShift < 0 {
		return fmt.Errorf("%w: phase shift %d must not be negative", ErrInvalidParams, p.PhaseShift)
	}
	if p.Cutoff <= 0 || p.Cutoff > 1 {
		return fmt.Errorf("%w: cutoff %f must be resolved to (0, 1]", ErrInvalidParams, p.Cutoff)
	}
	return nil
}

// Engine is a sample-rate conversion engine instance.
//
// An engine is allocated closed. Open finalizes it with a configuration;
// an open engine must be closed before it is opened again.
type Engine interface {
	// Open applies p and makes the engine ready to convert.
	Open(p Params) error

	// Convert pushes the interleaved frames in src and writes up to
	// len(dst)/Channels converted frames to dst, returning the number of
	// frames written. The engine may hold input back while its filter
	// window fills, so the count is not a function of len(src) alone.
	Convert(dst, src []int16) (int, error)

	// Delay returns the number of input-rate frames buffered inside the
	// engine and not yet reflected in the output.
	Delay() int

	// Available returns the number of converted output frames held back
	// because dst was too small on an earlier Convert.
	Available() int

	// Close releases the configuration. Closing a closed engine is a no-op.
	Close()
}

// Allocator creates a closed engine instance.
type Allocator func() (Engine, error)

// DefaultAllocator allocates the pure-Go polyphase engine.
func DefaultAllocator() (Engine, error) {
	return NewPolyphase(), nil
}
