// Package afresample is a streaming sample-rate conversion stage for
// audio filter chains, in pure Go.
//
// A [Filter] sits between a decoder and an output. The host negotiates
// formats with [Filter.Reinit], feeds interleaved signed 16-bit blocks to
// [Filter.Process] and gets back blocks at the requested output rate. The
// conversion itself is done by a windowed-sinc polyphase engine in the
// style of libavresample, with optional linear interpolation between
// phases.
//
// # Lifecycle
//
//	f, err := afresample.Open(afresample.WithOptions("srate=48000:filter_size=32"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	in := afresample.NewFormat(2, 44100)
//	switch st, err := f.Reinit(&in); {
//	case err != nil:
//	    log.Fatal(err)
//	case st == afresample.StatusDetach:
//	    // rates already match, remove the stage
//	case st == afresample.StatusFalse:
//	    // convert upstream to in, then reinit again
//	}
//
//	for block := range blocks {
//	    out, err := f.Process(block)
//	    ...
//	}
//
// Reinit reopens the engine only when the requested configuration
// (options, rates, channel count) differs from the one it is running
// with, so repeated negotiation is cheap and keeps filter history.
//
// # Options
//
// Options are parsed by [ParseOptions] from a ':'-separated string:
// srate, filter_size, phase_shift, linear and cutoff. The cutoff defaults
// to max(1 - 6.5/(filter_size+8), 0.80).
//
// # Buffers
//
// Process takes ownership of the input block's storage and returns a new
// block the caller owns. Output length varies from call to call and may
// be zero while the filter window fills. [Filter.Delay] reports the audio
// buffered in the engine, in output bytes.
//
// # Thread Safety
//
// A [Filter] must be driven from one goroutine at a time. Separate
// filters share nothing and may run in parallel.
package afresample
