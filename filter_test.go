package afresample

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/go-audio-afresample/internal/testutil"
)

func TestOpen_Defaults(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)

	assert.Equal(t, StateConfigured, f.State())
	assert.Equal(t, DefaultConfig(), f.RequestedConfig())
	assert.Equal(t, Config{}, f.ActiveConfig())
	assert.Zero(t, f.Reconfigurations())
	assert.Zero(t, fake.opens, "engine not opened before reinit")
}

func TestOpen_WithOptions(t *testing.T) {
	f := openFake(t, &fakeEngine{}, WithOptions("srate=48000:filter_size=32"))
	assert.Equal(t, 48000, f.RequestedConfig().OutRate)
	assert.Equal(t, 32, f.RequestedConfig().FilterSize)
	assert.InDelta(t, 0.8375, f.RequestedConfig().Cutoff, 1e-12)

	_, err := Open(WithLogger(quietLogger()), WithOptions("srate=fast"))
	assert.ErrorIs(t, err, ErrBadOption)
}

func TestOpen_EngineInitFailure(t *testing.T) {
	f, err := Open(
		WithLogger(quietLogger()),
		WithEngineAllocator(func() (Engine, error) { return nil, errors.New("no memory") }),
	)
	require.ErrorIs(t, err, ErrEngineInit)
	assert.Contains(t, err.Error(), "no memory")
	assert.Nil(t, f)

	assert.NoError(t, f.Close(), "close on a failed open is safe")
}

func TestReinit_DetachOnMatchingRate(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)

	in := NewFormat(2, 44100)
	st, err := f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, StatusDetach, st)
	assert.Equal(t, NewFormat(2, 44100), in, "format untouched")
	assert.Zero(t, fake.opens)
	assert.Equal(t, StateConfigured, f.State())
}

func TestReinit_DetachOnUnsetRate(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)

	st, err := f.SetRate(0)
	require.NoError(t, err)
	require.Equal(t, StatusOK, st)

	in := NewFormat(2, 48000)
	st, err = f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, StatusDetach, st)
	assert.Zero(t, fake.opens)
}

func TestReinit_Activates(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)

	in := NewFormat(2, 48000)
	st, err := f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, StateActive, f.State())

	assert.Equal(t, NewFormat(2, 44100), f.OutputFormat())
	assert.InDelta(t, 0.91875, f.Ratio(), 1e-12)
	assert.InDelta(t, 2*16/0.91875, f.StaticDelay(), 1e-9)

	want := f.RequestedConfig()
	want.InRate = 48000
	assert.Equal(t, want, f.ActiveConfig())

	assert.Equal(t, EngineParams{
		Channels:   2,
		InRate:     48000,
		OutRate:    44100,
		FilterSize: 16,
		PhaseShift: 10,
		Cutoff:     0.80,
	}, fake.params)
}

func TestReinit_Idempotent(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)

	for range 3 {
		in := NewFormat(2, 48000)
		st, err := f.Reinit(&in)
		require.NoError(t, err)
		require.Equal(t, StatusOK, st)
	}

	assert.Equal(t, 1, fake.opens)
	assert.Zero(t, fake.closes)
	assert.Equal(t, 1, f.Reconfigurations())
}

func TestReinit_ReconfiguresOnChange(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)

	in := NewFormat(2, 48000)
	_, err := f.Reinit(&in)
	require.NoError(t, err)

	_, err = f.CommandLine("filter_size=32:linear")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.opens, "options apply on the next reinit")
	assert.Equal(t, 16, f.ActiveConfig().FilterSize)

	_, err = f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, 2, fake.opens)
	assert.Equal(t, 1, fake.closes, "engine closed before reopening")
	assert.Equal(t, 32, fake.params.FilterSize)
	assert.True(t, fake.params.Linear)

	in = NewFormat(2, 96000)
	_, err = f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, 3, fake.opens, "input rate change")

	in = NewFormat(1, 96000)
	_, err = f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, 4, fake.opens, "channel change")
	assert.Equal(t, 1, fake.params.Channels)
}

func TestReinit_NegotiatesChannels(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake, WithMaxChannels(8))

	in := NewFormat(10, 48000)
	st, err := f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, StatusFalse, st)
	assert.Equal(t, NewFormat(8, 48000), in, "proposal rewritten to what the filter accepts")
	assert.Equal(t, NewFormat(8, 44100), f.OutputFormat())
	assert.Equal(t, 8, fake.params.Channels)

	st, err = f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, 1, fake.opens)
}

func TestReinit_NegotiatesSampleFormat(t *testing.T) {
	f := openFake(t, &fakeEngine{})

	in := NewFormat(2, 48000)
	in.BytesPerSample = 4
	st, err := f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, StatusFalse, st)
	assert.Equal(t, BytesPerSample, in.BytesPerSample)
	assert.Equal(t, 48000, in.SampleRate, "input rate kept")
	assert.Equal(t, 44100, f.OutputFormat().SampleRate, "output rate kept")
}

func TestReinit_InvalidFormat(t *testing.T) {
	f := openFake(t, &fakeEngine{})

	_, err := f.Reinit(nil)
	require.ErrorIs(t, err, ErrInvalidFormat)

	for _, in := range []Format{NewFormat(0, 48000), NewFormat(2, 0)} {
		st, err := f.Reinit(&in)
		require.ErrorIs(t, err, ErrInvalidFormat)
		assert.Equal(t, StatusError, st)
	}
}

func TestReinit_EngineOpenFailure(t *testing.T) {
	f := openReal(t)

	_, err := f.CommandLine("phase_shift=20")
	require.NoError(t, err, "accepted by the option parser")

	in := NewFormat(2, 48000)
	st, err := f.Reinit(&in)
	require.ErrorIs(t, err, ErrEngineOpen)
	assert.Equal(t, StatusError, st)
	assert.Equal(t, StateConfigured, f.State())
	assert.Equal(t, Config{}, f.ActiveConfig())

	_, err = f.Process(stereoBuffer(48000, 10))
	require.ErrorIs(t, err, ErrNotActive)

	_, err = f.CommandLine("phase_shift=10")
	require.NoError(t, err)
	st, err = f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, StateActive, f.State())
}

func TestReinit_FailureAfterActive(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)

	in := NewFormat(2, 48000)
	_, err := f.Reinit(&in)
	require.NoError(t, err)

	fake.openErr = errors.New("rejected")
	_, err = f.SetRate(22050)
	require.NoError(t, err)

	_, err = f.Reinit(&in)
	require.ErrorIs(t, err, ErrEngineOpen)
	assert.Equal(t, StateConfigured, f.State())

	_, err = f.Process(stereoBuffer(48000, 10))
	assert.ErrorIs(t, err, ErrNotActive)
}

func TestReinit_FailureKeepsOutputDescription(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)

	in := NewFormat(2, 48000)
	_, err := f.Reinit(&in)
	require.NoError(t, err)

	out := f.OutputFormat()
	ratio := f.Ratio()
	delay := f.StaticDelay()
	require.Equal(t, 44100, out.SampleRate)

	fake.openErr = errors.New("rejected")
	_, err = f.SetRate(22050)
	require.NoError(t, err)

	_, err = f.Reinit(&in)
	require.ErrorIs(t, err, ErrEngineOpen)
	assert.Equal(t, out, f.OutputFormat())
	assert.InDelta(t, ratio, f.Ratio(), 1e-12)
	assert.InDelta(t, delay, f.StaticDelay(), 1e-12)

	fake.openErr = nil
	_, err = f.Reinit(&in)
	require.NoError(t, err)
	assert.Equal(t, 22050, f.OutputFormat().SampleRate)
	assert.InDelta(t, 22050.0/48000, f.Ratio(), 1e-12)
}

func TestControl(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)

	st, err := f.Control(CommandSetResampleRate, 48000)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, 48000, f.RequestedConfig().OutRate)

	st, err = f.Control(CommandLine, "filter_size=64")
	require.NoError(t, err)
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, 64, f.RequestedConfig().FilterSize)

	in := NewFormat(2, 22050)
	st, err = f.Control(CommandReinit, &in)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, st)
	assert.Equal(t, 64, fake.params.FilterSize)

	st, err = f.Control(Command(99), nil)
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, st)

	bad := []struct {
		cmd Command
		arg any
	}{
		{CommandReinit, in},
		{CommandReinit, (*Format)(nil)},
		{CommandLine, 5},
		{CommandSetResampleRate, "48000"},
	}
	for _, b := range bad {
		st, err := f.Control(b.cmd, b.arg)
		require.ErrorIs(t, err, ErrBadOption, "%s", b.cmd)
		assert.Equal(t, StatusError, st)
	}
}

func TestCommandLine_BadOptionKeepsConfig(t *testing.T) {
	f := openFake(t, &fakeEngine{})

	_, err := f.CommandLine("filter_size=64")
	require.NoError(t, err)
	before := f.RequestedConfig()

	st, err := f.CommandLine("filter_size=64:bogus=1")
	require.ErrorIs(t, err, ErrBadOption)
	assert.Equal(t, StatusError, st)
	assert.Equal(t, before, f.RequestedConfig())

	st, err = f.SetRate(-5)
	require.ErrorIs(t, err, ErrBadOption)
	assert.Equal(t, StatusError, st)
	assert.Equal(t, before, f.RequestedConfig())
}

func TestProcess_SizesOutputFromDelay(t *testing.T) {
	fake := &fakeEngine{produce: func(capacity, _ int) int { return capacity }}
	f := openFake(t, fake)

	in := NewFormat(2, 48000)
	_, err := f.Reinit(&in)
	require.NoError(t, err)

	out, err := f.Process(&Buffer{Format: in, Data: make([]byte, 1000)})
	require.NoError(t, err)
	assert.Equal(t, []int{230}, fake.capacities)
	assert.Equal(t, []int{250}, fake.inputs)
	assert.Len(t, out.Data, 920)
	assert.Equal(t, NewFormat(2, 44100), out.Format)

	fake.delay = 12
	fake.available = 3
	_, err = f.Process(&Buffer{Format: in, Data: make([]byte, 1000)})
	require.NoError(t, err)
	assert.Equal(t, 3+241, fake.capacities[1], "held-back frames plus ceil(262*44100/48000)")
}

func TestProcess_PublishesDelay(t *testing.T) {
	fake := &fakeEngine{delay: 11}
	f := openFake(t, fake)

	in := NewFormat(2, 48000)
	_, err := f.Reinit(&in)
	require.NoError(t, err)
	assert.Zero(t, f.Delay())

	_, err = f.Process(stereoBuffer(48000, 100))
	require.NoError(t, err)
	assert.Equal(t, 11*4, f.Delay(), "ceil(11*44100/48000) frames in bytes")

	fake.convertErr = errors.New("engine fault")
	fake.delay = 48
	_, err = f.Process(stereoBuffer(48000, 100))
	require.Error(t, err)
	assert.Equal(t, 45*4, f.Delay(), "published even when conversion fails")
}

func TestProcess_TransfersOwnership(t *testing.T) {
	f := openFake(t, &fakeEngine{})

	in := NewFormat(1, 48000)
	_, err := f.Reinit(&in)
	require.NoError(t, err)

	first := &Buffer{Format: in, Data: encodeS16(nil, []int16{1, 2, 3, 4})}
	out1, err := f.Process(first)
	require.NoError(t, err)
	assert.Nil(t, first.Data, "input storage taken over")
	assert.Equal(t, []int16{1, 2, 3, 4}, decodeS16(nil, out1.Data))

	second := &Buffer{Format: in, Data: encodeS16(nil, []int16{5, 6, 7, 8})}
	out2, err := f.Process(second)
	require.NoError(t, err)
	assert.Equal(t, []int16{5, 6, 7, 8}, decodeS16(nil, out2.Data))
	assert.Equal(t, []int16{1, 2, 3, 4}, decodeS16(nil, out1.Data), "earlier output untouched")
}

func TestProcess_EmptyOutputIsValid(t *testing.T) {
	fake := &fakeEngine{produce: func(int, int) int { return 0 }}
	f := openFake(t, fake)

	in := NewFormat(2, 48000)
	_, err := f.Reinit(&in)
	require.NoError(t, err)

	out, err := f.Process(stereoBuffer(48000, 64))
	require.NoError(t, err)
	assert.Empty(t, out.Data)
	assert.Zero(t, out.Frames())

	out, err = f.Process(&Buffer{Format: in})
	require.NoError(t, err)
	assert.Empty(t, out.Data)
}

func TestProcess_PanicsOnOverproduction(t *testing.T) {
	fake := &fakeEngine{produce: func(capacity, _ int) int { return capacity + 1 }}
	f := openFake(t, fake)

	in := NewFormat(2, 48000)
	_, err := f.Reinit(&in)
	require.NoError(t, err)

	assert.Panics(t, func() { _, _ = f.Process(stereoBuffer(48000, 250)) })
}

func TestProcess_Rejects(t *testing.T) {
	f := openFake(t, &fakeEngine{})

	_, err := f.Process(stereoBuffer(48000, 10))
	require.ErrorIs(t, err, ErrNotActive, "before reinit")

	in := NewFormat(2, 48000)
	_, err = f.Reinit(&in)
	require.NoError(t, err)

	_, err = f.Process(nil)
	require.ErrorIs(t, err, ErrInvalidFormat)

	_, err = f.Process(stereoBuffer(44100, 10))
	require.ErrorIs(t, err, ErrInvalidFormat)

	_, err = f.Process(&Buffer{Format: NewFormat(1, 48000), Data: make([]byte, 10)})
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestClose(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)

	in := NewFormat(2, 48000)
	_, err := f.Reinit(&in)
	require.NoError(t, err)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.Equal(t, StateClosed, f.State())
	assert.False(t, fake.open)
	assert.Equal(t, 1, fake.closes)

	_, err = f.Process(stereoBuffer(48000, 10))
	require.ErrorIs(t, err, ErrNotActive)
	_, err = f.Reinit(&in)
	require.ErrorIs(t, err, ErrNotActive)
	_, err = f.CommandLine("srate=8000")
	require.ErrorIs(t, err, ErrNotActive)

	var nilFilter *Filter
	assert.NoError(t, nilFilter.Close())
}

func TestClose_WithoutReinit(t *testing.T) {
	fake := &fakeEngine{}
	f := openFake(t, fake)
	require.NoError(t, f.Close())
	assert.Zero(t, fake.closes)
}

// resampleChunks pushes frames of a stereo tone through a fresh filter in
// chunks and returns the concatenated output.
func resampleChunks(t *testing.T, options string, inRate, frames, chunk int) ([]int16, *Filter) {
	t.Helper()
	f := openReal(t, WithOptions(options))

	in := NewFormat(2, inRate)
	st, err := f.Reinit(&in)
	require.NoError(t, err)
	require.Equal(t, StatusOK, st)

	signal := testutil.SineS16Bytes(frames, 2, inRate, 1000, 10000)
	var out []int16
	for off := 0; off < len(signal); off += chunk * 4 {
		end := min(off+chunk*4, len(signal))
		data := make([]byte, end-off)
		copy(data, signal[off:end])

		res, err := f.Process(&Buffer{Format: in, Data: data})
		require.NoError(t, err)
		out = append(out, decodeS16(nil, res.Data)...)
	}
	return out, f
}

func TestFilter_ResamplesTone(t *testing.T) {
	tests := []struct {
		name    string
		options string
		inRate  int
		outRate int
	}{
		{"48k to 44.1k", "srate=44100", 48000, 44100},
		{"44.1k to 48k", "srate=48000", 44100, 48000},
		{"downsample linear", "srate=16000:linear", 48000, 16000},
		{"upsample long filter", "srate=96000:filter_size=64", 44100, 96000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames := tt.inRate
			out, f := resampleChunks(t, tt.options, tt.inRate, frames, 250)

			ratio := float64(tt.outRate) / float64(tt.inRate)
			gotFrames := len(out) / 2
			testutil.AssertInRange(t, float64(gotFrames),
				float64(frames)*ratio-f.StaticDelay(), float64(frames)*ratio+1,
				"output frames")

			left := testutil.Channel(out, 2, 0)
			assert.InDelta(t, 1000.0, testutil.DominantFrequency(left, tt.outRate), 5.0)

			// Skip the filter warm-up before measuring level.
			settled := left[len(left)/4:]
			assert.InDelta(t, 10000/1.41421356, testutil.RMS(settled), 300)
		})
	}
}

func TestFilter_ChunkingDoesNotChangeOutput(t *testing.T) {
	whole, _ := resampleChunks(t, "srate=44100", 48000, 9600, 9600)
	small, _ := resampleChunks(t, "srate=44100", 48000, 9600, 7)
	assertSamplesClose(t, whole, small)
}

// assertSamplesClose allows one LSB of rounding difference between runs
// whose vector sums may be ordered differently.
func assertSamplesClose(t *testing.T, want, got []int16) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		if d := int(want[i]) - int(got[i]); d > 1 || d < -1 {
			assert.Failf(t, "sample mismatch", "index %d: want %d, got %d", i, want[i], got[i])
			return
		}
	}
}

func TestFilter_IndependentInstancesConcurrently(t *testing.T) {
	rates := []int{8000, 22050, 32000, 44100, 96000}

	reference := make([][]int16, len(rates))
	for i, rate := range rates {
		reference[i], _ = resampleChunks(t, "srate=48000", rate, rate/10, 100)
	}

	results := make([][]int16, len(rates))
	var wg sync.WaitGroup
	for i, rate := range rates {
		wg.Go(func() {
			f, err := Open(WithLogger(quietLogger()), WithOptions("srate=48000"))
			if err != nil {
				return
			}
			defer f.Close()

			in := NewFormat(2, rate)
			if _, err := f.Reinit(&in); err != nil {
				return
			}
			signal := testutil.SineS16Bytes(rate/10, 2, rate, 1000, 10000)
			for off := 0; off < len(signal); off += 400 {
				end := min(off+400, len(signal))
				data := make([]byte, end-off)
				copy(data, signal[off:end])
				res, err := f.Process(&Buffer{Format: in, Data: data})
				if err != nil {
					return
				}
				results[i] = append(results[i], decodeS16(nil, res.Data)...)
			}
		})
	}
	wg.Wait()

	for i := range rates {
		assertSamplesClose(t, reference[i], results[i])
	}
}

func TestFilter_MonoBlockScenario(t *testing.T) {
	f := openReal(t)

	in := NewFormat(1, 48000)
	st, err := f.Reinit(&in)
	require.NoError(t, err)
	require.Equal(t, StatusOK, st)

	buf := &Buffer{Format: in, Data: testutil.SineS16Bytes(500, 1, 48000, 440, 3000)}
	require.Len(t, buf.Data, 1000)

	out, err := f.Process(buf)
	require.NoError(t, err)
	assert.Equal(t, 44100, out.SampleRate)
	assert.Zero(t, len(out.Data)%BytesPerSample)

	// ceil(a+b) <= ceil(a)+ceil(b): the published delay plus the rescaled
	// input bounds the pre-sized estimate.
	bound := f.Delay() + OutputFrames(0, 0, 500, 48000, 44100)*BytesPerSample
	assert.LessOrEqual(t, len(out.Data), bound)
}

func TestFilter_ZeroCutoffResolvesToSizeDefault(t *testing.T) {
	f := openReal(t)

	_, err := f.CommandLine("srate=22050:filter_size=32:cutoff=0")
	require.NoError(t, err)

	in := NewFormat(2, 48000)
	_, err = f.Reinit(&in)
	require.NoError(t, err)

	active := f.ActiveConfig()
	assert.InDelta(t, DefaultCutoff(32), active.Cutoff, 1e-12)
	assert.Equal(t, 22050, active.OutRate)
	assert.Equal(t, 48000, active.InRate)
	assert.Equal(t, 32, active.FilterSize)
}

func TestFilter_MalformedFilterSizeKeepsConfig(t *testing.T) {
	f := openReal(t)
	before := f.RequestedConfig()

	st, err := f.CommandLine("filter_size=abc")
	require.ErrorIs(t, err, ErrBadOption)
	assert.Equal(t, StatusError, st)
	assert.Equal(t, before, f.RequestedConfig())
}

// The adapter panics if the engine ever produces more than the pre-sized
// estimate, so surviving irregular chunking is the property under test.
func TestFilter_SizingHoldsForIrregularChunks(t *testing.T) {
	rates := [][2]int{{48000, 44100}, {44100, 48000}, {8000, 44100}, {96000, 8000}, {44100, 44099}}
	rng := rand.New(rand.NewPCG(1, 2))

	for _, r := range rates {
		for _, linear := range []bool{false, true} {
			f := openReal(t, WithOptions(fmt.Sprintf("srate=%d:linear=%t:phase_shift=6", r[1], linear)))
			in := NewFormat(2, r[0])
			_, err := f.Reinit(&in)
			require.NoError(t, err)

			for range 200 {
				frames := rng.IntN(700)
				out, err := f.Process(&Buffer{Format: in, Data: testutil.SineS16Bytes(frames, 2, r[0], 300, 9000)})
				require.NoError(t, err)
				require.Zero(t, len(out.Data)%4)
			}
		}
	}
}
