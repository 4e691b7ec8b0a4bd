package afresample

import (
	"fmt"

	"github.com/tphakala/go-audio-afresample/internal/engine"
)

// streamAdapter bridges byte buffers and the engine's sample interface.
// It owns the output storage, which only ever grows while it holds it.
type streamAdapter struct {
	eng *engine.Handle
	in  Format
	out Format

	storage []byte
	src     []int16
	dst     []int16

	delayBytes int
}

func (a *streamAdapter) configure(eng *engine.Handle, in, out Format) {
	a.eng = eng
	a.in = in
	a.out = out
}

// process converts one input block. Ownership of in.Data passes to the
// adapter: it becomes the storage for a later call and in.Data is cleared.
// A trailing partial frame is dropped.
func (a *streamAdapter) process(in *Buffer) (*Buffer, error) {
	channels := a.out.NumChannels
	frameSize := a.out.FrameSize()
	inFrames := len(in.Data) / a.in.FrameSize()

	available := a.eng.Available()
	delay := a.eng.Delay()
	estimate := OutputFrames(available, delay, inFrames, a.in.SampleRate, a.out.SampleRate)

	if cap(a.storage) < estimate*frameSize {
		a.storage = make([]byte, estimate*frameSize)
	}

	// Published before conversion: the delay of what was already buffered.
	a.delayBytes = OutputDelay(delay, a.in.SampleRate, a.out.SampleRate) * frameSize

	a.src = decodeS16(a.src, in.Data[:inFrames*a.in.FrameSize()])
	if cap(a.dst) < estimate*channels {
		a.dst = make([]int16, estimate*channels)
	}
	a.dst = a.dst[:estimate*channels]

	produced, err := a.eng.Convert(a.dst, a.src)
	if err != nil {
		return nil, err
	}
	if produced < 0 || produced > estimate {
		panic(fmt.Sprintf("afresample: engine produced %d frames, capacity was %d", produced, estimate))
	}

	out := &Buffer{
		Format: a.out,
		Data:   encodeS16(a.storage[:0], a.dst[:produced*channels]),
	}

	a.storage = in.Data[:0:len(in.Data)]
	in.Data = nil

	return out, nil
}

func (a *streamAdapter) reset() {
	a.storage = nil
	a.src = nil
	a.dst = nil
	a.delayBytes = 0
}
