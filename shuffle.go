package blosc

// shuffleBytes performs byte-level shuffle on data.
//
// For an array of N elements with typeSize bytes each, the shuffle
// rearranges bytes so that all first bytes of each element are
// together, then all second bytes, and so on. This improves
// compression for typed data because similar bytes (e.g. exponent
// bits of floats) end up adjacent.
//
// Example for 4-byte elements [A0 A1 A2 A3] [B0 B1 B2 B3] [C0 C1 C2 C3]:
// after shuffle: [A0 B0 C0] [A1 B1 C1] [A2 B2 C2] [A3 B3 C3].
//
// This is a pure-Go reimplementation of a transform that, in the
// container's C ancestor, is backed by hand-written SSE2/AVX2/NEON
// assembly; only the byte-for-byte semantics matter here, since those
// are what the wire format depends on, not the vectorization.
func shuffleBytes(dst, src []byte, typeSize int) {
	n := len(src)
	if typeSize <= 1 || n < typeSize {
		copy(dst, src)
		return
	}

	numElements := n / typeSize
	for i := 0; i < numElements; i++ {
		for j := 0; j < typeSize; j++ {
			dst[j*numElements+i] = src[i*typeSize+j]
		}
	}

	remainder := n % typeSize
	if remainder > 0 {
		copy(dst[numElements*typeSize:], src[numElements*typeSize:])
	}
}

// unshuffleBytes reverses shuffleBytes.
func unshuffleBytes(dst, src []byte, typeSize int) {
	n := len(src)
	if typeSize <= 1 || n < typeSize {
		copy(dst, src)
		return
	}

	numElements := n / typeSize
	for i := 0; i < numElements; i++ {
		for j := 0; j < typeSize; j++ {
			dst[i*typeSize+j] = src[j*numElements+i]
		}
	}

	remainder := n % typeSize
	if remainder > 0 {
		copy(dst[numElements*typeSize:], src[numElements*typeSize:])
	}
}

// bitShuffle performs bit-level shuffle on data: within each group of
// 8 elements, it transposes bits so all most-significant bits land
// together, then all next-most-significant bits, and so on.
func bitShuffle(dst, src []byte, typeSize int) {
	n := len(src)
	if typeSize <= 1 || n < typeSize {
		copy(dst, src)
		return
	}

	numElements := n / typeSize
	groupSize := 8
	numGroups := numElements / groupSize

	for g := 0; g < numGroups; g++ {
		base := g * groupSize * typeSize
		for byteIdx := 0; byteIdx < typeSize; byteIdx++ {
			var bytes [8]byte
			for elem := 0; elem < 8; elem++ {
				bytes[elem] = src[base+elem*typeSize+byteIdx]
			}
			for outBit := 0; outBit < 8; outBit++ {
				var outByte byte
				for inByte := 0; inByte < 8; inByte++ {
					if bytes[inByte]&(1<<(7-outBit)) != 0 {
						outByte |= 1 << (7 - inByte)
					}
				}
				dst[base+byteIdx*8+outBit] = outByte
			}
		}
	}

	// Elements that don't fill a full group of 8 are not bit-transposed
	// (partial transposition is not reversible); copy them verbatim.
	tailStart := numGroups * groupSize * typeSize
	copy(dst[tailStart:numElements*typeSize], src[tailStart:numElements*typeSize])

	remainder := n % typeSize
	if remainder > 0 {
		copy(dst[numElements*typeSize:], src[numElements*typeSize:])
	}
}

// bitUnshuffle reverses bitShuffle.
func bitUnshuffle(dst, src []byte, typeSize int) {
	n := len(src)
	if typeSize <= 1 || n < typeSize {
		copy(dst, src)
		return
	}

	numElements := n / typeSize
	groupSize := 8
	numGroups := numElements / groupSize

	for g := 0; g < numGroups; g++ {
		base := g * groupSize * typeSize
		for byteIdx := 0; byteIdx < typeSize; byteIdx++ {
			var bytes [8]byte
			for i := 0; i < 8; i++ {
				bytes[i] = src[base+byteIdx*8+i]
			}
			for outElem := 0; outElem < 8; outElem++ {
				var outByte byte
				for inBit := 0; inBit < 8; inBit++ {
					if bytes[inBit]&(1<<(7-outElem)) != 0 {
						outByte |= 1 << (7 - inBit)
					}
				}
				dst[base+outElem*typeSize+byteIdx] = outByte
			}
		}
	}

	tailStart := numGroups * groupSize * typeSize
	copy(dst[tailStart:numElements*typeSize], src[tailStart:numElements*typeSize])

	remainder := n % typeSize
	if remainder > 0 {
		copy(dst[numElements*typeSize:], src[numElements*typeSize:])
	}
}
