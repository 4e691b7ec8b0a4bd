package afresample

import (
	"fmt"

	"github.com/go-audio/audio"
)

// Common sample rates.
const (
	// RateTelephony is the telephony (PSTN narrowband) sample rate.
	RateTelephony = 8000

	// RateVoIP is the VoIP wideband sample rate.
	RateVoIP = 16000

	// RateSpeech is a common speech sample rate.
	RateSpeech = 22050

	// RateCD is the CD quality sample rate (Red Book standard).
	RateCD = 44100

	// RateDAT is the DAT/DVD and video production sample rate.
	RateDAT = 48000

	// RateHiRes96 is the high-resolution 2x DAT sample rate.
	RateHiRes96 = 96000

	// RateHiRes192 is the very high resolution 4x DAT sample rate.
	RateHiRes192 = 192000
)

// Resample converts a complete buffer to outRate in one go, with optional
// sub-options (see ParseOptions). in is not modified.
//
// There is no end-of-stream flush: the last filter window stays inside
// the engine, so the result is shorter than the exact rescaled length by
// up to the filter delay. When no conversion is needed a copy of in is
// returned.
func Resample(in *Buffer, outRate int, options string, opts ...Option) (*Buffer, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: no input buffer", ErrInvalidFormat)
	}

	f, err := Open(opts...)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if options != "" {
		if _, err := f.CommandLine(options); err != nil {
			return nil, err
		}
	}
	if _, err := f.SetRate(outRate); err != nil {
		return nil, err
	}

	format := in.Format
	st, err := f.Reinit(&format)
	if err != nil {
		return nil, err
	}

	data := make([]byte, len(in.Data))
	copy(data, in.Data)

	switch st {
	case StatusDetach:
		return &Buffer{Format: in.Format, Data: data}, nil
	case StatusFalse:
		return nil, fmt.Errorf("%w: got %v, need %v", ErrInvalidFormat, in.Format, format)
	}

	return f.Process(&Buffer{Format: in.Format, Data: data})
}

// ResampleIntBuffer is Resample for go-audio buffers. The result is S16
// regardless of the source bit depth.
func ResampleIntBuffer(ib *audio.IntBuffer, outRate int, options string, opts ...Option) (*audio.IntBuffer, error) {
	in, err := BufferFromInt(ib)
	if err != nil {
		return nil, err
	}

	out, err := Resample(in, outRate, options, opts...)
	if err != nil {
		return nil, err
	}
	return out.IntBuffer(), nil
}
