// Package pipeline hosts filter stages: it negotiates formats through a
// chain of stages, removes stages that detach, inserts format converters
// where a stage asks for a different input and pushes audio through what
// remains.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	afresample "github.com/tphakala/go-audio-afresample"
)

// ErrNegotiation indicates a stage kept rejecting the format it asked for.
var ErrNegotiation = errors.New("format negotiation failed")

// Stage is one filter in a chain.
type Stage interface {
	// Name identifies the stage in logs.
	Name() string

	// Reinit negotiates the stage's input format. See afresample.Filter.Reinit.
	Reinit(in *afresample.Format) (afresample.Status, error)

	// Process converts one block.
	Process(in *afresample.Buffer) (*afresample.Buffer, error)

	// OutputFormat returns the format Process produces.
	OutputFormat() afresample.Format

	// Delay returns the bytes of audio buffered in the stage.
	Delay() int

	// Close releases the stage.
	Close() error
}

// Chain runs audio through an ordered list of stages.
type Chain struct {
	stages []Stage
	active []Stage
	in     afresample.Format
	out    afresample.Format
	log    *logrus.Entry
}

// NewChain returns a chain over stages. A nil logger uses the standard one.
func NewChain(log *logrus.Logger, stages ...Stage) *Chain {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Chain{
		stages: stages,
		log:    log.WithField("component", "chain"),
	}
}

// Configure negotiates formats from in through every stage.
func (c *Chain) Configure(in afresample.Format) error {
	if err := in.Validate(); err != nil {
		return err
	}

	active := make([]Stage, 0, chainStageCapacity)
	format := in

	for _, s := range c.stages {
		log := c.log.WithFields(logrus.Fields{"stage": s.Name(), "format": format.String()})

		proposed := format
		st, err := s.Reinit(&proposed)
		if err != nil {
			return fmt.Errorf("stage %s: %w", s.Name(), err)
		}

		switch st {
		case afresample.StatusDetach:
			log.Debug("Stage detached")
			continue

		case afresample.StatusFalse:
			conv := NewConvert(proposed)
			if _, err := conv.Reinit(&format); err != nil {
				return fmt.Errorf("stage %s: %w", conv.Name(), err)
			}
			active = append(active, conv)
			log.WithField("wants", proposed.String()).Debug("Inserted format converter")

			retry := proposed
			if st, err = s.Reinit(&retry); err != nil {
				return fmt.Errorf("stage %s: %w", s.Name(), err)
			}
			if st != afresample.StatusOK {
				return fmt.Errorf("%w: stage %s answered %s for %s", ErrNegotiation, s.Name(), st, proposed)
			}

		case afresample.StatusOK:

		default:
			return fmt.Errorf("%w: stage %s answered %s", ErrNegotiation, s.Name(), st)
		}

		active = append(active, s)
		format = s.OutputFormat()
		log.WithField("output", format.String()).Debug("Stage configured")
	}

	c.active = active
	c.in = in
	c.out = format
	return nil
}

// Process pushes one block through the configured stages.
func (c *Chain) Process(in *afresample.Buffer) (*afresample.Buffer, error) {
	buf := in
	for _, s := range c.active {
		out, err := s.Process(buf)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", s.Name(), err)
		}
		buf = out
	}
	return buf, nil
}

// Stages returns the names of the configured stages in order.
func (c *Chain) Stages() []string {
	names := make([]string, len(c.active))
	for i, s := range c.active {
		names[i] = s.Name()
	}
	return names
}

// InputFormat returns the format the chain was configured with.
func (c *Chain) InputFormat() afresample.Format {
	return c.in
}

// OutputFormat returns the format the chain produces.
func (c *Chain) OutputFormat() afresample.Format {
	return c.out
}

// Latency returns the audio buffered across all configured stages.
func (c *Chain) Latency() time.Duration {
	var total time.Duration
	for _, s := range c.active {
		f := s.OutputFormat()
		frameSize := f.FrameSize()
		if frameSize <= 0 || f.SampleRate <= 0 {
			continue
		}
		frames := s.Delay() / frameSize
		total += time.Duration(frames) * time.Second / time.Duration(f.SampleRate)
	}
	return total
}

// Close closes every stage the chain was built with.
func (c *Chain) Close() error {
	var errs []error
	for _, s := range c.stages {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("stage %s: %w", s.Name(), err))
		}
	}
	c.active = nil
	return errors.Join(errs...)
}
