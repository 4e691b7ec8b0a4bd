package afresample

import "encoding/binary"

// decodeS16 reads native-endian S16 samples from src into dst, reusing
// dst's storage when it is large enough.
func decodeS16(dst []int16, src []byte) []int16 {
	n := len(src) / BytesPerSample
	if cap(dst) < n {
		dst = make([]int16, n)
	}
	dst = dst[:n]
	for i := range dst {
		dst[i] = int16(binary.NativeEndian.Uint16(src[i*BytesPerSample:]))
	}
	return dst
}

// encodeS16 writes src as native-endian S16 into dst, reusing dst's
// storage when it is large enough.
func encodeS16(dst []byte, src []int16) []byte {
	n := len(src) * BytesPerSample
	if cap(dst) < n {
		dst = make([]byte, n)
	}
	dst = dst[:n]
	for i, s := range src {
		binary.NativeEndian.PutUint16(dst[i*BytesPerSample:], uint16(s))
	}
	return dst
}
