package afresample

import (
	"math"

	"github.com/tphakala/go-audio-afresample/internal/mathutil"
)

// OutputDelay converts an engine delay in input frames to output frames,
// rounding up.
func OutputDelay(engineDelay, inRate, outRate int) int {
	return rescaleCeil(engineDelay, outRate, inRate)
}

// OutputFrames returns how many output frames one conversion call may
// produce: the frames the engine already holds back plus the buffered and
// incoming input rescaled to the output rate, rounded up. The engine never
// produces more than this.
func OutputFrames(available, engineDelay, inFrames, inRate, outRate int) int {
	return available + rescaleCeil(engineDelay+inFrames, outRate, inRate)
}

// StaticDelay is the worst-case latency bound a filter reports at reinit:
// channels × filterSize / min(ratio, 1). It is a rough estimate and not a
// precise frame count.
func StaticDelay(channels, filterSize int, ratio float64) float64 {
	if ratio <= 0 {
		return 0
	}
	return float64(channels*filterSize) / min(ratio, 1)
}

func rescaleCeil(a, b, c int) int {
	v := mathutil.RescaleCeil(int64(a), int64(b), int64(c))
	if v > math.MaxInt {
		return math.MaxInt
	}
	return int(v)
}
