package pipeline

import (
	"encoding/binary"
	"fmt"

	afresample "github.com/tphakala/go-audio-afresample"
)

// Convert is a stage that changes channel count and sample width at a
// fixed rate. Extra channels are dropped; missing ones repeat the last
// input channel. It reads U8, S16 and S32 and writes S16 or S32.
type Convert struct {
	target afresample.Format
	in     afresample.Format
	out    afresample.Format
}

// NewConvert returns a converter producing target's layout and width.
func NewConvert(target afresample.Format) *Convert {
	return &Convert{target: target}
}

// Name returns "convert".
func (c *Convert) Name() string {
	return "convert"
}

// Reinit accepts any readable format and keeps its rate.
func (c *Convert) Reinit(in *afresample.Format) (afresample.Status, error) {
	if err := in.Validate(); err != nil {
		return afresample.StatusError, err
	}
	if !readable(in.BytesPerSample) {
		return afresample.StatusError, fmt.Errorf("%w: cannot read %d-byte samples", afresample.ErrInvalidFormat, in.BytesPerSample)
	}
	if c.target.BytesPerSample != bytesS16 && c.target.BytesPerSample != bytesS32 {
		return afresample.StatusError, fmt.Errorf("%w: cannot write %d-byte samples", afresample.ErrInvalidFormat, c.target.BytesPerSample)
	}

	c.in = *in
	c.out = c.target
	c.out.SampleRate = in.SampleRate
	return afresample.StatusOK, nil
}

// Process converts one block into a new buffer.
func (c *Convert) Process(in *afresample.Buffer) (*afresample.Buffer, error) {
	if in == nil || in.Format != c.in {
		return nil, fmt.Errorf("%w: converter expects %v", afresample.ErrInvalidFormat, c.in)
	}

	frames := in.Frames()
	inCh, outCh := c.in.NumChannels, c.out.NumChannels
	inBps, outBps := c.in.BytesPerSample, c.out.BytesPerSample

	data := make([]byte, frames*c.out.FrameSize())
	for i := range frames {
		src := in.Data[i*c.in.FrameSize():]
		dst := data[i*c.out.FrameSize():]
		for ch := range outCh {
			v := readS32(src[min(ch, inCh-1)*inBps:], inBps)
			writeS32(dst[ch*outBps:], outBps, v)
		}
	}

	return &afresample.Buffer{Format: c.out, Data: data}, nil
}

// OutputFormat returns the converted format.
func (c *Convert) OutputFormat() afresample.Format {
	return c.out
}

// Delay is always zero.
func (c *Convert) Delay() int {
	return 0
}

// Close is a no-op.
func (c *Convert) Close() error {
	return nil
}

func readable(bps int) bool {
	return bps == bytesU8 || bps == bytesS16 || bps == bytesS32
}

// readS32 reads one sample scaled to the full int32 range.
func readS32(b []byte, bps int) int32 {
	switch bps {
	case bytesU8:
		return (int32(b[0]) - u8Bias) << (s16FromU8Shift + s16FromS32Shift)
	case bytesS16:
		return int32(int16(binary.NativeEndian.Uint16(b))) << s16FromS32Shift
	default:
		return int32(binary.NativeEndian.Uint32(b))
	}
}

func writeS32(b []byte, bps int, v int32) {
	if bps == bytesS16 {
		binary.NativeEndian.PutUint16(b, uint16(v>>s16FromS32Shift))
		return
	}
	binary.NativeEndian.PutUint32(b, uint32(v))
}
