package blosc

// planBlockSize is the deterministic block-size policy shared by the
// compressor and by any random-access reader that must reconstruct
// the same block decomposition purely from the header's (nbytes,
// blocksize, typesize) triple.
//
// It branches over: a degenerate 1-byte block below typesize, a
// forced size clamped to MinBufferSize, a large-buffer policy scaled
// by codec and level, a mid-size policy aligned to typesize for
// vectorized shuffles, and finally the BLOSCLZ hash-log cap.
func planBlockSize(codec Codec, clevel, typesize, nbytes, forced int) int {
	if nbytes < typesize {
		return 1
	}

	blocksize := nbytes

	switch {
	case forced != 0:
		blocksize = forced
		if blocksize < MinBufferSize {
			blocksize = MinBufferSize
		}

	case nbytes >= 4*L1CacheSize:
		blocksize = 4 * L1CacheSize

		switch codec {
		case ZLIB, LZ4HC:
			blocksize *= 8
		}

		switch clevel {
		case 0:
			blocksize /= 16
		case 1, 2, 3:
			blocksize /= 8
		case 4, 5:
			blocksize /= 4
		case 6:
			blocksize /= 2
		case 7, 8:
			// unchanged
		default: // clevel >= 9
			blocksize *= 2
		}

	case nbytes > 256:
		switch typesize {
		case 2, 4, 8, 16:
			blocksize -= blocksize % (16 * typesize)
		}
	}

	if blocksize > nbytes {
		blocksize = nbytes
	}

	if blocksize > typesize {
		blocksize = blocksize / typesize * typesize
	}

	// BLOSCLZ's internal hash-log cannot address more than 64Ki
	// elements per slice; cap the block so no split exceeds that.
	if codec == BLOSCLZ && typesize > 0 && blocksize/typesize > 64*1024 {
		blocksize = 64 * 1024 * typesize
	}

	if blocksize < 1 {
		blocksize = 1
	}

	return blocksize
}

// planSplits returns the number of per-byte-position slices a block
// of the given size is divided into: typesize slices when the
// typesize is small enough and the block holds at least
// MinBufferSize elements per slice, never for a leftover block.
func planSplits(typesize, blocksize int, leftover bool) int {
	if leftover {
		return 1
	}
	if typesize <= MaxSplits && typesize > 0 && blocksize/typesize >= MinBufferSize {
		return typesize
	}
	return 1
}
