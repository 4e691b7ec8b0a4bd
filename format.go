package afresample

import (
	"fmt"
	"time"

	"github.com/go-audio/audio"
)

// Format describes interleaved PCM audio: channel count, sample rate and
// sample width. The filter works in S16 only, so BytesPerSample is 2 for
// every format it produces.
type Format struct {
	audio.Format
	BytesPerSample int
}

// NewFormat returns an S16 format.
func NewFormat(channels, sampleRate int) Format {
	return Format{
		Format:         audio.Format{NumChannels: channels, SampleRate: sampleRate},
		BytesPerSample: BytesPerSample,
	}
}

// FrameSize returns the size in bytes of one frame.
func (f Format) FrameSize() int {
	return f.NumChannels * f.BytesPerSample
}

// Validate checks that f describes usable audio.
func (f Format) Validate() error {
	if f.NumChannels < 1 {
		return fmt.Errorf("%w: %d channels", ErrInvalidFormat, f.NumChannels)
	}
	if f.SampleRate < 1 || f.SampleRate > maxSampleRate {
		return fmt.Errorf("%w: sample rate %d out of range [1, %d]", ErrInvalidFormat, f.SampleRate, maxSampleRate)
	}
	if f.BytesPerSample < 1 {
		return fmt.Errorf("%w: %d bytes per sample", ErrInvalidFormat, f.BytesPerSample)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz %dch %d-bit", f.SampleRate, f.NumChannels, f.BytesPerSample*8)
}

// Buffer is a block of interleaved native-endian PCM frames.
type Buffer struct {
	Format
	Data []byte
}

// Frames returns the number of whole frames in b.
func (b *Buffer) Frames() int {
	size := b.FrameSize()
	if size <= 0 {
		return 0
	}
	return len(b.Data) / size
}

// Duration returns the playback time of b's whole frames.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// IntBuffer converts b to a go-audio buffer. b must hold S16 samples.
func (b *Buffer) IntBuffer() *audio.IntBuffer {
	samples := decodeS16(nil, b.Data[:b.Frames()*b.FrameSize()])
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}

	format := b.Format.Format
	return &audio.IntBuffer{
		Format:         &format,
		Data:           data,
		SourceBitDepth: bitsPerSample,
	}
}

// BufferFromInt converts a go-audio buffer to S16. Samples are rescaled
// from ib.SourceBitDepth, which defaults to 16 when unset.
func BufferFromInt(ib *audio.IntBuffer) (*Buffer, error) {
	if ib == nil || ib.Format == nil {
		return nil, fmt.Errorf("%w: buffer has no format", ErrInvalidFormat)
	}

	format := NewFormat(ib.Format.NumChannels, ib.Format.SampleRate)
	if err := format.Validate(); err != nil {
		return nil, err
	}

	depth := ib.SourceBitDepth
	if depth == 0 {
		depth = bitsPerSample
	}

	frames := len(ib.Data) / format.NumChannels
	samples := make([]int16, frames*format.NumChannels)
	for i := range samples {
		samples[i] = toS16(ib.Data[i], depth)
	}

	return &Buffer{Format: format, Data: encodeS16(nil, samples)}, nil
}

// toS16 rescales one sample of the given bit depth. 8-bit PCM is unsigned.
func toS16(v, depth int) int16 {
	switch {
	case depth == 8:
		v = (v - 128) << 8
	case depth < bitsPerSample:
		v <<= bitsPerSample - depth
	case depth > bitsPerSample:
		v >>= depth - bitsPerSample
	}
	return int16(min(max(v, -1<<15), 1<<15-1))
}
