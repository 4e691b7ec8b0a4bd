package pipeline

// Sample widths the converter reads and writes.
const (
	bytesU8  = 1
	bytesS16 = 2
	bytesS32 = 4
)

const (
	u8Bias          = 128
	s16FromU8Shift  = 8
	s16FromS32Shift = 16
)

// chainStageCapacity is the initial capacity of the negotiated stage list.
const chainStageCapacity = 4
