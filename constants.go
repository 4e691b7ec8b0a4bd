package afresample

// Filter defaults, matching the classic lavrresample audio filter.
const (
	// DefaultOutputRate is the requested output rate of a freshly opened filter.
	DefaultOutputRate = 44100

	// DefaultFilterSize is the default filter length in taps.
	DefaultFilterSize = 16

	// DefaultPhaseShift gives 2^10 = 1024 polyphase branches.
	DefaultPhaseShift = 10

	// DefaultMaxChannels is the most channels a filter passes through.
	// Wider input is negotiated down to this count.
	DefaultMaxChannels = 8
)

// Default cutoff derivation: max(1 - 6.5/(filter_size+8), 0.80).
const (
	cutoffRolloff    = 6.5
	cutoffSizeOffset = 8
	cutoffFloor      = 0.80
)

// Sample format: the filter works in signed 16-bit native-endian PCM.
const (
	// BytesPerSample is the size of one S16 sample.
	BytesPerSample = 2

	bitsPerSample = 16
)

// Option limits
const (
	maxFilterSize = 1024
	maxPhaseShift = 24
	maxSampleRate = 768000
)

// Option keys accepted by ParseOptions.
const (
	optSampleRate = "srate"
	optFilterSize = "filter_size"
	optPhaseShift = "phase_shift"
	optLinear     = "linear"
	optCutoff     = "cutoff"

	optNegationPrefix = "no"
	optSeparator      = ":"
	optAssign         = "="
)

// filterName tags log entries.
const filterName = "lavrresample"
