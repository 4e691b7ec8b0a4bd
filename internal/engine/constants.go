package engine

const (
	// Maximum channel count an engine instance accepts.
	maxChannels = 64

	// Initial output FIFO capacity in samples.
	defaultFIFOCapacity = 1024

	// FIFO growth factor when a write does not fit.
	fifoGrowthFactor = 2
)
