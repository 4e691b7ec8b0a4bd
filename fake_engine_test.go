package afresample

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeEngine records what the filter asks of it. By default it copies as
// many input frames as fit.
type fakeEngine struct {
	params  EngineParams
	open    bool
	openErr error
	opens   int
	closes  int

	delay     int
	available int

	produce    func(capacity, inFrames int) int
	convertErr error

	capacities []int
	inputs     []int
}

func (e *fakeEngine) Open(p EngineParams) error {
	if e.openErr != nil {
		return e.openErr
	}
	e.params = p
	e.open = true
	e.opens++
	return nil
}

func (e *fakeEngine) Convert(dst, src []int16) (int, error) {
	if e.convertErr != nil {
		return 0, e.convertErr
	}

	ch := e.params.Channels
	capacity := len(dst) / ch
	inFrames := len(src) / ch
	e.capacities = append(e.capacities, capacity)
	e.inputs = append(e.inputs, inFrames)

	if e.produce != nil {
		return e.produce(capacity, inFrames), nil
	}
	n := min(capacity, inFrames)
	copy(dst, src[:n*ch])
	return n, nil
}

func (e *fakeEngine) Delay() int     { return e.delay }
func (e *fakeEngine) Available() int { return e.available }

func (e *fakeEngine) Close() {
	if e.open {
		e.closes++
	}
	e.open = false
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// openFake opens a filter driving fake.
func openFake(t *testing.T, fake *fakeEngine, opts ...Option) *Filter {
	t.Helper()
	opts = append([]Option{
		WithLogger(quietLogger()),
		WithEngineAllocator(func() (Engine, error) { return fake, nil }),
	}, opts...)

	f, err := Open(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// openReal opens a filter on the built-in engine.
func openReal(t *testing.T, opts ...Option) *Filter {
	t.Helper()
	f, err := Open(append([]Option{WithLogger(quietLogger())}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func stereoBuffer(rate, frames int) *Buffer {
	return &Buffer{Format: NewFormat(2, rate), Data: make([]byte, frames*4)}
}
