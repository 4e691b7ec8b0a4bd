package afresample

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/tphakala/go-audio-afresample/internal/engine"
)

// State is the lifecycle state of a Filter.
type State int

const (
	// StateUnconfigured is a filter that has not been opened.
	StateUnconfigured State = iota

	// StateConfigured is an opened filter without a usable engine
	// configuration, either before the first reinit or after a failed one.
	StateConfigured

	// StateActive is a filter ready to process audio.
	StateActive

	// StateClosed is a filter whose resources were released.
	StateClosed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StateConfigured:
		return "configured"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Engine is the conversion engine contract a filter drives.
type Engine = engine.Engine

// EngineParams is the configuration an engine is opened with.
type EngineParams = engine.Params

// EngineAllocator creates a closed engine instance.
type EngineAllocator = engine.Allocator

// Option configures a Filter at Open.
type Option func(*Filter)

// WithLogger routes the filter's log output to l.
func WithLogger(l *logrus.Logger) Option {
	return func(f *Filter) {
		if l != nil {
			f.log = l.WithField("filter", filterName)
		}
	}
}

// WithEngineAllocator replaces the built-in polyphase engine.
func WithEngineAllocator(alloc EngineAllocator) Option {
	return func(f *Filter) {
		if alloc != nil {
			f.alloc = alloc
		}
	}
}

// WithMaxChannels sets the widest channel layout the filter passes through.
func WithMaxChannels(n int) Option {
	return func(f *Filter) {
		if n > 0 {
			f.maxChannels = n
		}
	}
}

// WithOptions applies a sub-option string (see ParseOptions) at Open.
func WithOptions(s string) Option {
	return func(f *Filter) {
		f.initOptions = s
	}
}

// Filter is a sample-rate conversion stage in an audio filter chain.
//
// A Filter is driven by a single host goroutine and is not safe for
// concurrent use. Independent filters share no state.
type Filter struct {
	state State
	log   *logrus.Entry

	alloc       engine.Allocator
	handle      *engine.Handle
	maxChannels int
	initOptions string

	requested      Config
	active         Config
	activeChannels int

	out         Format
	ratio       float64
	staticDelay float64

	adapter streamAdapter
}

// Open creates a filter with the default requested configuration and
// allocates its engine. The filter is reconfigured on each Reinit.
func Open(opts ...Option) (*Filter, error) {
	f := &Filter{
		state:       StateUnconfigured,
		log:         logrus.StandardLogger().WithField("filter", filterName),
		alloc:       engine.DefaultAllocator,
		maxChannels: DefaultMaxChannels,
		requested:   DefaultConfig(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.initOptions != "" {
		cfg, err := ParseOptions(f.initOptions, f.requested)
		if err != nil {
			f.log.WithError(err).Error("Invalid option specified")
			return nil, err
		}
		f.requested = cfg
	}

	h, err := engine.Alloc(f.alloc)
	if err != nil {
		f.state = StateClosed
		f.log.WithError(err).Error("Cannot initialize resampling engine")
		return nil, fmt.Errorf("%w: %w", ErrEngineInit, err)
	}

	f.handle = h
	f.state = StateConfigured
	return f, nil
}

// Control dispatches a host command. Unknown commands report StatusUnknown
// with a nil error.
func (f *Filter) Control(cmd Command, arg any) (Status, error) {
	switch cmd {
	case CommandReinit:
		in, ok := arg.(*Format)
		if !ok || in == nil {
			return StatusError, fmt.Errorf("%w: %s expects *Format, got %T", ErrBadOption, cmd, arg)
		}
		return f.Reinit(in)
	case CommandLine:
		s, ok := arg.(string)
		if !ok {
			return StatusError, fmt.Errorf("%w: %s expects string, got %T", ErrBadOption, cmd, arg)
		}
		return f.CommandLine(s)
	case CommandSetResampleRate:
		rate, ok := arg.(int)
		if !ok {
			return StatusError, fmt.Errorf("%w: %s expects int, got %T", ErrBadOption, cmd, arg)
		}
		return f.SetRate(rate)
	default:
		return StatusUnknown, nil
	}
}

// CommandLine parses a sub-option string into the requested configuration.
// On error the requested configuration is unchanged. The engine is not
// touched until the next Reinit.
func (f *Filter) CommandLine(s string) (Status, error) {
	if f.state == StateClosed || f.state == StateUnconfigured {
		return StatusError, ErrNotActive
	}

	cfg, err := ParseOptions(s, f.requested)
	if err != nil {
		f.log.WithError(err).Error("Invalid option specified")
		return StatusError, err
	}

	f.requested = cfg
	return StatusOK, nil
}

// SetRate sets the requested output rate. Zero unsets it.
func (f *Filter) SetRate(rate int) (Status, error) {
	if f.state == StateClosed || f.state == StateUnconfigured {
		return StatusError, ErrNotActive
	}

	cfg := f.requested
	cfg.OutRate = rate
	if err := cfg.Validate(); err != nil {
		return StatusError, err
	}

	f.requested = cfg
	return StatusOK, nil
}

// Reinit negotiates formats for the input format in.
//
// It returns StatusDetach when the requested rate is unset or equals the
// input rate. Otherwise the engine is reopened if the requested
// configuration differs from the active one, and the filter becomes
// active. When the filter needs a different input format (more channels
// than it passes, or a sample format other than S16), in is rewritten to
// the format it accepts and StatusFalse is returned.
func (f *Filter) Reinit(in *Format) (Status, error) {
	if f.state == StateClosed || f.state == StateUnconfigured {
		return StatusError, ErrNotActive
	}
	if in == nil {
		return StatusError, fmt.Errorf("%w: no input format", ErrInvalidFormat)
	}
	if err := in.Validate(); err != nil {
		return StatusError, err
	}

	req := f.requested.Resolved()
	if req.OutRate == 0 || req.OutRate == in.SampleRate {
		f.log.WithFields(logrus.Fields{
			"in_rate":  in.SampleRate,
			"out_rate": req.OutRate,
		}).Debug("No resampling needed, detaching")
		return StatusDetach, nil
	}

	channels := min(in.NumChannels, f.maxChannels)
	ratio := float64(req.OutRate) / float64(in.SampleRate)

	want := req
	want.InRate = in.SampleRate
	if want != f.active || channels != f.activeChannels || !f.handle.IsOpen() {
		if err := f.reconfigure(want, channels); err != nil {
			return StatusError, err
		}
	}

	// Output description changes only once the engine is open.
	f.out = NewFormat(channels, req.OutRate)
	f.ratio = ratio
	f.staticDelay = StaticDelay(channels, req.FilterSize, ratio)
	f.adapter.configure(f.handle, NewFormat(channels, in.SampleRate), f.out)
	f.state = StateActive

	return f.checkInput(in), nil
}

func (f *Filter) reconfigure(cfg Config, channels int) error {
	f.state = StateConfigured

	log := f.log.WithFields(logrus.Fields{
		"in_rate":     cfg.InRate,
		"out_rate":    cfg.OutRate,
		"channels":    channels,
		"filter_size": cfg.FilterSize,
		"phase_shift": cfg.PhaseShift,
		"linear":      cfg.Linear,
		"cutoff":      cfg.Cutoff,
	})

	if err := f.handle.Reopen(cfg.engineParams(channels)); err != nil {
		f.active = Config{}
		f.activeChannels = 0
		log.WithError(err).Error("Cannot open resampling engine")
		return fmt.Errorf("%w: %w", ErrEngineOpen, err)
	}

	f.active = cfg
	f.activeChannels = channels
	log.Debug("Resampling engine configured")
	return nil
}

// checkInput compares in with the format the filter accepts at the input
// rate and rewrites in when they differ.
func (f *Filter) checkInput(in *Format) Status {
	want := f.out
	want.SampleRate = in.SampleRate
	if *in == want {
		return StatusOK
	}
	*in = want
	return StatusFalse
}

// Process converts one block of audio and returns a new buffer at the
// output rate. The filter takes ownership of in.Data and clears it. The
// returned buffer belongs to the caller. Its length varies from call to
// call and may be zero while the filter window fills.
func (f *Filter) Process(in *Buffer) (*Buffer, error) {
	if f.state != StateActive {
		return nil, ErrNotActive
	}
	if in == nil {
		return nil, fmt.Errorf("%w: no input buffer", ErrInvalidFormat)
	}
	if in.Format != f.adapter.in {
		return nil, fmt.Errorf("%w: got %v, filter accepts %v", ErrInvalidFormat, in.Format, f.adapter.in)
	}

	return f.adapter.process(in)
}

// Close releases the engine and all buffers. It is safe to call more than
// once and on a nil filter.
func (f *Filter) Close() error {
	if f == nil || f.state == StateClosed {
		return nil
	}

	f.handle.Release()
	f.adapter.reset()
	f.state = StateClosed
	return nil
}

// State returns the lifecycle state.
func (f *Filter) State() State {
	return f.state
}

// RequestedConfig returns the configuration the next Reinit will apply.
func (f *Filter) RequestedConfig() Config {
	return f.requested.Resolved()
}

// ActiveConfig returns the configuration the engine is open with, or the
// zero Config when it is not open.
func (f *Filter) ActiveConfig() Config {
	return f.active
}

// OutputFormat returns the negotiated output format.
func (f *Filter) OutputFormat() Format {
	return f.out
}

// Ratio returns output rate / input rate of the negotiated formats.
func (f *Filter) Ratio() float64 {
	return f.ratio
}

// StaticDelay returns the latency bound computed at the last Reinit.
func (f *Filter) StaticDelay() float64 {
	return f.staticDelay
}

// Delay returns the bytes of output-rate audio buffered inside the engine
// as of the last Process call.
func (f *Filter) Delay() int {
	return f.adapter.delayBytes
}

// Reconfigurations returns how many times the engine has been opened.
func (f *Filter) Reconfigurations() int {
	if f.handle == nil {
		return 0
	}
	return f.handle.Opens()
}

// Name returns the filter name used in logs and chain listings.
func (f *Filter) Name() string {
	return filterName
}
