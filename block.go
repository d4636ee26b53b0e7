package blosc

// block.go implements the per-block codec: splitting a block into
// per-byte-position slices, shuffling, running the inner codec over
// each slice with an incompressibility fallback, and the inverse on
// the decompression side.
//
// A block's compressed form is a sequence of slices, each prefixed by
// a 4-byte little-endian length:
//
//	[u32 sliceLen][sliceLen bytes] [u32 sliceLen][sliceLen bytes] ...
//
// If sliceLen equals the slice's uncompressed size, the slice bytes
// are a verbatim copy rather than codec output — the per-slice
// incompressibility fallback.

import "encoding/binary"

// compressBlock compresses a single block of src (already the
// nbytes-th chunk carved out by the caller) into dst, returning the
// number of bytes written, or a negative internal code on failure.
func compressBlock(codec Codec, clevel int, shuffleMode Shuffle, typesize int, src, dst, scratch []byte) int {
	impl, ok := GetCodec(codec)
	if !ok {
		return codeUnsupportedCodec
	}

	transformed := src
	switch {
	case shuffleMode == BitShuffle && typesize > 1:
		bitShuffle(scratch, src, typesize)
		transformed = scratch
	case shuffleMode == Shuffle1 && typesize > 1:
		shuffleBytes(scratch, src, typesize)
		transformed = scratch
	}

	nsplits := planSplits(typesize, len(src), false)
	sliceSize := len(transformed) / nsplits

	out := 0
	for s := 0; s < nsplits; s++ {
		start := s * sliceSize
		end := start + sliceSize
		if s == nsplits-1 {
			end = len(transformed)
		}
		slice := transformed[start:end]

		if out+4 > len(dst) {
			return codeDestTooSmall
		}
		lenPos := out
		out += 4

		maxOut := len(slice)
		if mc, ok := impl.(maxCompressedLener); ok {
			maxOut = mc.MaxCompressedLen(len(slice))
		}
		if out+maxOut > len(dst) {
			maxOut = len(dst) - out
		}

		n := 0
		if maxOut >= len(slice) {
			n = impl.Compress(slice, dst[out:out+maxOut], clevel)
		}

		if n < 0 {
			// A hard failure from the inner codec, not a declined or
			// incompressible slice: propagate it rather than masking
			// it as a verbatim store.
			return n
		}

		if n == 0 || n >= len(slice) {
			// Incompressible, or the codec declined: store verbatim.
			if out+len(slice) > len(dst) {
				return codeDestTooSmall
			}
			copy(dst[out:], slice)
			binary.LittleEndian.PutUint32(dst[lenPos:], uint32(len(slice)))
			out += len(slice)
			continue
		}

		binary.LittleEndian.PutUint32(dst[lenPos:], uint32(n))
		out += n
	}

	return out
}

// decompressBlock reverses compressBlock. dst must be exactly sized
// for the uncompressed block (len(dst) == nbytes for this block).
func decompressBlock(codec Codec, shuffleMode Shuffle, typesize int, src, dst, scratch []byte) int {
	impl, ok := GetCodec(codec)
	if !ok {
		return codeUnsupportedCodec
	}

	nsplits := planSplits(typesize, len(dst), false)
	sliceSize := len(dst) / nsplits

	transformed := dst
	if shuffleMode != NoShuffle && typesize > 1 {
		transformed = scratch
	}

	in := 0
	outPos := 0
	for s := 0; s < nsplits; s++ {
		segStart := outPos
		segEnd := segStart + sliceSize
		if s == nsplits-1 {
			segEnd = len(dst)
		}
		want := segEnd - segStart

		if in+4 > len(src) {
			return codeCorrupt
		}
		sliceLen := int(binary.LittleEndian.Uint32(src[in:]))
		in += 4
		if in+sliceLen > len(src) {
			return codeCorrupt
		}
		compressed := src[in : in+sliceLen]
		in += sliceLen

		if sliceLen == want {
			copy(transformed[segStart:segEnd], compressed)
		} else {
			n := impl.Decompress(compressed, transformed[segStart:segEnd])
			if n != want {
				return codeCorrupt
			}
		}
		outPos = segEnd
	}

	switch {
	case shuffleMode == BitShuffle && typesize > 1:
		bitUnshuffle(dst, scratch, typesize)
	case shuffleMode == Shuffle1 && typesize > 1:
		unshuffleBytes(dst, scratch, typesize)
	}

	return in
}

// blockCompressedBound returns a safe upper bound on a block's
// compressed size: one 4-byte length prefix per slice plus the
// uncompressed slice itself, in case every slice falls back to a
// verbatim copy.
func blockCompressedBound(typesize, blockSize int) int {
	nsplits := planSplits(typesize, blockSize, false)
	return blockSize + 4*nsplits
}
