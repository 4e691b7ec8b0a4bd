package engine

// FIFO is a growable ring buffer of interleaved int16 samples. It holds
// converted output that did not fit the caller's buffer.
//
// A FIFO belongs to a single engine instance and is not safe for
// concurrent use.
type FIFO struct {
	data     []int16
	size     int
	readPos  int
	writePos int
}

// NewFIFO creates a FIFO with the specified initial capacity.
func NewFIFO(capacity int) *FIFO {
	if capacity < 1 {
		capacity = 1
	}
	return &FIFO{data: make([]int16, capacity)}
}

// Write appends samples, growing the buffer if needed.
func (f *FIFO) Write(samples []int16) {
	if len(samples) == 0 {
		return
	}

	if f.size+len(samples) > len(f.data) {
		f.grow(f.size + len(samples))
	}

	// At most two contiguous segments.
	n := copy(f.data[f.writePos:], samples)
	copy(f.data, samples[n:])
	f.writePos = (f.writePos + len(samples)) % len(f.data)
	f.size += len(samples)
}

// Read moves up to len(dst) samples into dst and returns the count.
func (f *FIFO) Read(dst []int16) int {
	n := min(len(dst), f.size)
	if n == 0 {
		return 0
	}

	end := f.readPos + n
	if end <= len(f.data) {
		copy(dst, f.data[f.readPos:end])
	} else {
		k := copy(dst, f.data[f.readPos:])
		copy(dst[k:n], f.data[:n-k])
	}

	f.readPos = end % len(f.data)
	f.size -= n
	if f.size == 0 {
		f.readPos, f.writePos = 0, 0
	}
	return n
}

// Len returns the number of samples available for reading.
func (f *FIFO) Len() int {
	return f.size
}

// grow increases the capacity to at least minCapacity, keeping order.
func (f *FIFO) grow(minCapacity int) {
	newCapacity := len(f.data)
	for newCapacity < minCapacity {
		newCapacity *= fifoGrowthFactor
	}

	newData := make([]int16, newCapacity)
	if f.size > 0 {
		if f.readPos < f.writePos {
			copy(newData, f.data[f.readPos:f.writePos])
		} else {
			n := copy(newData, f.data[f.readPos:])
			copy(newData[n:], f.data[:f.writePos])
		}
	}

	f.data = newData
	f.readPos = 0
	f.writePos = f.size % newCapacity
}
