package engine

import (
	"fmt"

	"github.com/tphakala/go-audio-afresample/internal/filter"
	"github.com/tphakala/go-audio-afresample/internal/mathutil"
	"github.com/tphakala/go-audio-afresample/internal/simdops"
)

// Polyphase is a pure-Go polyphase FIR resampler with the parameter set of
// libavresample: filter size, 2^phase_shift phases, optional linear
// interpolation between adjacent phases, and a relative cutoff.
//
// Output frame j is placed at input position j·in/out. The position is
// tracked exactly as an integer read index plus a fraction frac/outStep
// with in/out reduced by their GCD, so no drift accumulates over an
// unbounded stream.
type Polyphase struct {
	params Params
	open   bool

	bank *filter.Bank
	ops  *simdops.Ops[float64]

	// Reduced rates: each output frame advances the position by inStep/outStep.
	inStep  int64
	outStep int64

	// Per-channel input history. Window for the next output frame starts at index.
	history [][]float64
	index   int
	frac    int64

	pending *FIFO
	scratch []int16
}

// NewPolyphase allocates a closed polyphase engine.
func NewPolyphase() *Polyphase {
	return &Polyphase{ops: simdops.Float64Ops()}
}

// Open designs the filter bank for p and resets the stream state.
func (e *Polyphase) Open(p Params) error {
	if e.open {
		return ErrAlreadyOpen
	}
	if err := p.Validate(); err != nil {
		return err
	}

	bank, err := filter.DesignBank(filter.BankParams{
		FilterSize: p.FilterSize,
		PhaseShift: p.PhaseShift,
		Cutoff:     p.Cutoff,
		Ratio:      float64(p.OutRate) / float64(p.InRate),
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParams, err)
	}

	g := mathutil.GCD(int64(p.InRate), int64(p.OutRate))

	e.params = p
	e.bank = bank
	e.inStep = int64(p.InRate) / g
	e.outStep = int64(p.OutRate) / g

	// Pre-roll Center zeros so the first output frame lines up with the
	// first input frame.
	e.history = make([][]float64, p.Channels)
	for ch := range e.history {
		e.history[ch] = make([]float64, bank.Center, bank.Center+bank.Taps)
	}
	e.index = 0
	e.frac = 0
	e.pending = NewFIFO(defaultFIFOCapacity)
	e.open = true

	return nil
}

// Convert resamples src into dst. Output held over from previous calls is
// returned first. Frames that do not fit in dst stay queued and are
// reported by Available.
func (e *Polyphase) Convert(dst, src []int16) (int, error) {
	if !e.open {
		return 0, ErrNotOpen
	}

	channels := e.params.Channels
	if len(src)%channels != 0 || len(dst)%channels != 0 {
		return 0, fmt.Errorf("%w: src=%d dst=%d channels=%d", ErrFrameAlignment, len(src), len(dst), channels)
	}

	capacity := len(dst) / channels
	written := e.pending.Read(dst) / channels

	for ch := range channels {
		e.history[ch] = simdops.AppendChannel(e.history[ch], src, channels, ch)
	}

	produced := e.generate()
	n := min(produced, capacity-written)
	copy(dst[written*channels:], e.scratch[:n*channels])
	e.pending.Write(e.scratch[n*channels : produced*channels])
	e.compact()

	return written + n, nil
}

// generate computes every output frame whose filter window is complete
// into e.scratch and returns the frame count.
func (e *Polyphase) generate() int {
	taps := e.bank.Taps
	avail := len(e.history[0])
	numPhases := int64(e.bank.NumPhases)

	e.scratch = e.scratch[:0]
	frames := 0

	for e.index+taps <= avail {
		phasePos := e.frac * numPhases
		phase := int(phasePos / e.outStep)

		var weight float64
		if e.params.Linear {
			weight = float64(phasePos%e.outStep) / float64(e.outStep)
		}

		lo := e.bank.Row(phase)
		for ch := range e.history {
			window := e.history[ch][e.index : e.index+taps]
			v := e.ops.DotProductUnsafe(window, lo)
			if weight > 0 {
				hi := e.ops.DotProductUnsafe(window, e.bank.Row(phase+1))
				v += (hi - v) * weight
			}
			e.scratch = append(e.scratch, simdops.SaturateS16(v))
		}
		frames++

		e.frac += e.inStep
		e.index += int(e.frac / e.outStep)
		e.frac %= e.outStep
	}

	return frames
}

// compact drops history before the read index. The index may run past the
// end of the history when the step exceeds the window; the remainder then
// skips the head of the next input.
func (e *Polyphase) compact() {
	consumed := min(e.index, len(e.history[0]))
	if consumed == 0 {
		return
	}
	for ch, h := range e.history {
		n := copy(h, h[consumed:])
		e.history[ch] = h[:n]
	}
	e.index -= consumed
}

// Delay returns the input frames buffered ahead of the read position.
func (e *Polyphase) Delay() int {
	if !e.open {
		return 0
	}
	return max(len(e.history[0])-e.index, 0)
}

// Available returns the output frames queued by a short dst.
func (e *Polyphase) Available() int {
	if !e.open {
		return 0
	}
	return e.pending.Len() / e.params.Channels
}

// Close releases the filter bank and stream state.
func (e *Polyphase) Close() {
	if !e.open {
		return
	}
	e.open = false
	e.bank = nil
	e.history = nil
	e.pending = nil
	e.scratch = nil
}

// GetInfo describes the open configuration.
func (e *Polyphase) GetInfo() Info {
	if !e.open {
		return Info{}
	}
	return Info{
		Taps:        e.bank.Taps,
		Phases:      e.bank.NumPhases,
		Latency:     e.bank.Center,
		MemoryUsage: e.bank.GetMemoryUsage(),
	}
}

// Info reports the shape of an open engine.
type Info struct {
	Taps        int
	Phases      int
	Latency     int // input frames of filter delay
	MemoryUsage int64
}
