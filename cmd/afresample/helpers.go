package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	log "github.com/sirupsen/logrus"

	afresample "github.com/tphakala/go-audio-afresample"
	"github.com/tphakala/go-audio-afresample/internal/pipeline"
)

const (
	outputBitDepth  = 16
	wavFormatPCM    = 1
	progressPercent = 10
	percentScale    = 100
)

// resampleJob describes one file conversion.
type resampleJob struct {
	inputPath   string
	outputPath  string
	rate        int
	options     string
	chunkFrames int
	logger      *log.Logger
}

type resampleStats struct {
	inputRate    int
	outputRate   int
	channels     int
	bitDepth     int
	inputFrames  int64
	outputFrames int64
	stages       []string
}

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file        *os.File
	decoder     *wav.Decoder
	rate        int
	channels    int
	bitDepth    int
	totalFrames int64
}

// openWAVInput opens and validates a WAV file.
func openWAVInput(path string) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	duration, err := decoder.Duration()
	if err != nil {
		duration = 0
	}

	return &wavInputInfo{
		file:        inputFile,
		decoder:     decoder,
		rate:        format.SampleRate,
		channels:    format.NumChannels,
		bitDepth:    int(decoder.BitDepth),
		totalFrames: int64(duration.Seconds() * float64(format.SampleRate)),
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// wavOutputWriter wraps the output file and its encoder.
type wavOutputWriter struct {
	file    *os.File
	encoder *wav.Encoder
}

// createWAVOutput creates a 16-bit PCM WAV file.
func createWAVOutput(path string, sampleRate, channels int) (*wavOutputWriter, error) {
	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutputWriter{
		file:    outputFile,
		encoder: wav.NewEncoder(outputFile, sampleRate, outputBitDepth, channels, wavFormatPCM),
	}, nil
}

// Write appends one block of S16 audio.
func (w *wavOutputWriter) Write(b *afresample.Buffer) error {
	if len(b.Data) == 0 {
		return nil
	}
	return w.encoder.Write(b.IntBuffer())
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutputWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}

// progressTracker logs conversion progress every progressPercent.
type progressTracker struct {
	total int64
	next  int64
	log   *log.Entry
}

func newProgressTracker(total int64, logger *log.Logger) *progressTracker {
	return &progressTracker{total: total, log: logger.WithField("component", "progress")}
}

func (p *progressTracker) report(done int64) {
	if p.total <= 0 {
		return
	}
	percent := done * percentScale / p.total
	if percent >= p.next {
		p.log.WithField("percent", percent).Debug("Resampling")
		p.next = percent + progressPercent
	}
}

func (j *resampleJob) run() (stats *resampleStats, err error) {
	if j.chunkFrames < 1 {
		return nil, fmt.Errorf("chunk size %d must be positive", j.chunkFrames)
	}

	input, err := openWAVInput(j.inputPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	j.logger.WithFields(log.Fields{
		"rate":      input.rate,
		"channels":  input.channels,
		"bit_depth": input.bitDepth,
	}).Debug("Input format")

	filter, err := afresample.Open(
		afresample.WithLogger(j.logger),
		afresample.WithOptions(j.options),
	)
	if err != nil {
		return nil, err
	}
	if _, err := filter.SetRate(j.rate); err != nil {
		_ = filter.Close()
		return nil, err
	}

	chain := pipeline.NewChain(j.logger, filter)
	defer func() { _ = chain.Close() }()

	inFormat := afresample.NewFormat(input.channels, input.rate)
	if err := chain.Configure(inFormat); err != nil {
		return nil, err
	}
	outFormat := chain.OutputFormat()

	output, err := createWAVOutput(j.outputPath, outFormat.SampleRate, outFormat.NumChannels)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	stats = &resampleStats{
		inputRate:  input.rate,
		outputRate: outFormat.SampleRate,
		channels:   outFormat.NumChannels,
		bitDepth:   input.bitDepth,
		stages:     chain.Stages(),
	}
	progress := newProgressTracker(input.totalFrames, j.logger)

	pcm := &audio.IntBuffer{
		Format: &audio.Format{NumChannels: input.channels, SampleRate: input.rate},
		Data:   make([]int, j.chunkFrames*input.channels),
	}

	for {
		n, err := input.decoder.PCMBuffer(pcm)
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to read audio data: %w", err)
		}
		if n == 0 {
			break
		}

		block := &audio.IntBuffer{Format: pcm.Format, Data: pcm.Data[:n], SourceBitDepth: input.bitDepth}
		buf, err := afresample.BufferFromInt(block)
		if err != nil {
			return nil, err
		}
		stats.inputFrames += int64(buf.Frames())

		out, err := chain.Process(buf)
		if err != nil {
			return nil, err
		}
		stats.outputFrames += int64(out.Frames())

		if err := output.Write(out); err != nil {
			return nil, fmt.Errorf("failed to write audio data: %w", err)
		}

		progress.report(stats.inputFrames)
	}

	j.logger.WithField("latency", chain.Latency()).Debug("Audio left in the filter chain")
	return stats, nil
}
