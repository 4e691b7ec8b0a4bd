package afresample

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseOptions applies a sub-option string to base and returns the result.
//
// The string is a ':'-separated list of key=value pairs:
//
//	srate=<int>        requested output rate in Hz
//	filter_size=<int>  filter length in taps
//	phase_shift=<int>  log2 of the number of phases
//	linear[=<bool>]    linear interpolation between phases; "nolinear" clears it
//	                   (yes/no or any strconv.ParseBool spelling)
//	cutoff=<float>     passband edge in (0, 1]; <= 0 selects the default
//
// The cutoff is reset before parsing, so a string without cutoff derives it
// from the resulting filter size. Unknown keys and malformed values return
// an error wrapping ErrBadOption and base is left untouched.
func ParseOptions(s string, base Config) (Config, error) {
	cfg := base
	cfg.Cutoff = 0

	for token := range strings.SplitSeq(s, optSeparator) {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if err := applyOption(&cfg, token); err != nil {
			return base, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return base, err
	}

	return cfg.Resolved(), nil
}

func applyOption(cfg *Config, token string) error {
	key, value, hasValue := strings.Cut(token, optAssign)

	var err error
	switch key {
	case optSampleRate:
		cfg.OutRate, err = parseIntOption(key, value, hasValue)
	case optFilterSize:
		cfg.FilterSize, err = parseIntOption(key, value, hasValue)
	case optPhaseShift:
		cfg.PhaseShift, err = parseIntOption(key, value, hasValue)
	case optCutoff:
		if !hasValue {
			return fmt.Errorf("%w: %s requires a value", ErrBadOption, key)
		}
		cfg.Cutoff, err = strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %q is not a number", ErrBadOption, key, value)
		}
	case optLinear:
		cfg.Linear = true
		if hasValue {
			cfg.Linear, err = parseFlag(value)
			if err != nil {
				return fmt.Errorf("%w: %s: %q is not a boolean", ErrBadOption, key, value)
			}
		}
	case optNegationPrefix + optLinear:
		if hasValue {
			return fmt.Errorf("%w: %s takes no value", ErrBadOption, key)
		}
		cfg.Linear = false
	default:
		return fmt.Errorf("%w: unknown option %q", ErrBadOption, key)
	}

	return err
}

func parseIntOption(key, value string, hasValue bool) (int, error) {
	if !hasValue {
		return 0, fmt.Errorf("%w: %s requires a value", ErrBadOption, key)
	}
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %q is not an integer", ErrBadOption, key, value)
	}
	return v, nil
}

// parseFlag accepts yes/no in addition to the strconv.ParseBool spellings.
func parseFlag(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return strconv.ParseBool(value)
}
