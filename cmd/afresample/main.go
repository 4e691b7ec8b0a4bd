// Command afresample resamples WAV files through the lavrresample filter.
//
// Usage:
//
//	afresample -rate 48000 input.wav output.wav
//	afresample -rate 16000 -opts filter_size=32:linear speech.wav speech_16k.wav
//
// Input of any PCM bit depth is converted to 16-bit; the output is always
// 16-bit PCM.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	log "github.com/sirupsen/logrus"
)

const (
	// CLI defaults
	defaultRate        = 48000
	defaultChunkFrames = 4096
	minRequiredArgs    = 2
)

var errUsage = errors.New("insufficient arguments")

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rate := flag.Int("rate", defaultRate, "Target sample rate in Hz (0 keeps the input rate)")
	opts := flag.String("opts", "", "Filter sub-options, e.g. filter_size=32:phase_shift=10:linear:cutoff=0.9")
	chunk := flag.Int("chunk", defaultChunkFrames, "Frames per processing block")
	verbose := flag.Bool("v", false, "Verbose output")
	cpuprofile := flag.String("cpuprofile", "", "Write CPU profile to file")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -rate 48000 input.wav output.wav\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -rate 16000 -opts filter_size=32 speech.wav speech_16k.wav\n", os.Args[0])
		return errUsage
	}

	logger := log.New()
	logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			return fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("could not start CPU profile: %w", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		}()
	}

	job := resampleJob{
		inputPath:   args[0],
		outputPath:  args[1],
		rate:        *rate,
		options:     *opts,
		chunkFrames: *chunk,
		logger:      logger,
	}

	start := time.Now()
	stats, err := job.run()
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Resampled %s -> %s\n", filepath.Base(job.inputPath), filepath.Base(job.outputPath))
	fmt.Printf("  %d Hz -> %d Hz (%d channels, %d-bit source)\n",
		stats.inputRate, stats.outputRate, stats.channels, stats.bitDepth)
	fmt.Printf("  %d frames -> %d frames, stages: %v\n", stats.inputFrames, stats.outputFrames, stats.stages)
	if elapsed > 0 && stats.inputRate > 0 {
		fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
			elapsed.Seconds(),
			float64(stats.inputFrames)/float64(stats.inputRate)/elapsed.Seconds())
	}

	return nil
}
