package afresample

import (
	"errors"
	"fmt"
)

// Status is the outcome of a host-facing control operation.
type Status int

const (
	// StatusOK means the operation succeeded.
	StatusOK Status = iota

	// StatusDetach means the filter does nothing for the current format
	// pairing and should be removed from the chain. It is not an error.
	StatusDetach

	// StatusFalse means reinit succeeded but the filter needs its input in a
	// different format; the proposed format was rewritten in place.
	StatusFalse

	// StatusError means the operation failed; the accompanying error says why.
	StatusError

	// StatusUnknown means the command is not handled by this filter.
	StatusUnknown
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDetach:
		return "detach"
	case StatusFalse:
		return "false"
	case StatusError:
		return "error"
	case StatusUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Command identifies a control operation sent by the host.
type Command int

const (
	// CommandReinit renegotiates formats. Argument: *Format (input format).
	CommandReinit Command = iota

	// CommandLine applies sub-options. Argument: string.
	CommandLine

	// CommandSetResampleRate forces the output rate. Argument: int.
	CommandSetResampleRate
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CommandReinit:
		return "reinit"
	case CommandLine:
		return "command-line"
	case CommandSetResampleRate:
		return "set-resample-rate"
	default:
		return fmt.Sprintf("Command(%d)", int(c))
	}
}

// Common errors returned by the filter.
var (
	// ErrEngineInit indicates the conversion engine could not be allocated.
	// The filter is unusable.
	ErrEngineInit = errors.New("cannot initialize resampling engine")

	// ErrEngineOpen indicates the engine rejected a configuration. The filter
	// stays unusable until a later reinit succeeds.
	ErrEngineOpen = errors.New("cannot open resampling engine")

	// ErrBadOption indicates malformed or out-of-range configuration input.
	// The previously committed configuration is kept.
	ErrBadOption = errors.New("invalid option")

	// ErrInvalidFormat indicates an audio format or buffer the filter cannot take.
	ErrInvalidFormat = errors.New("invalid audio format")

	// ErrNotActive indicates processing on a filter that has not been
	// successfully reinitialized, or that was closed.
	ErrNotActive = errors.New("filter not active")
)
