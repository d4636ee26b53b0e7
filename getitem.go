package blosc

import "fmt"

// GetItem decompresses the byte range [start*typesize, (start+nitems)*typesize)
// of a compressed buffer into dest without decompressing the whole
// buffer, touching only the blocks that overlap the requested range.
// dest must be at least nitems*typesize bytes long. It returns the
// number of bytes written.
func GetItem(src []byte, start, nitems int, dest []byte) (int, error) {
	h, err := ParseHeader(src)
	if err != nil {
		return 0, err
	}

	typesize := int(h.TypeSize)
	if typesize <= 0 {
		typesize = 1
	}
	nbytes := int(h.NBytesOrig)
	wantStart := start * typesize
	wantLen := nitems * typesize

	if wantStart < 0 || wantLen < 0 || wantStart+wantLen > nbytes {
		return 0, fmt.Errorf("%w: range [%d,%d) exceeds %d bytes", ErrInvalidOptions, wantStart, wantStart+wantLen, nbytes)
	}
	if len(dest) < wantLen {
		return 0, ErrDestTooSmall
	}

	if h.IsMemcpy() {
		payload := src[HeaderSize:h.NBytesComp]
		copy(dest[:wantLen], payload[wantStart:wantStart+wantLen])
		return wantLen, nil
	}

	codecEntry, ok := registryByFormatID[h.FormatID()]
	if !ok {
		return 0, ErrInvalidCodec
	}

	blocksize := int(h.BlockSize)
	if blocksize <= 0 {
		return 0, ErrInvalidHeader
	}
	nblocks := (nbytes + blocksize - 1) / blocksize
	if nblocks == 0 {
		nblocks = 1
	}
	bstartsEnd := HeaderSize + 4*nblocks
	if bstartsEnd > len(src) {
		return 0, ErrInvalidData
	}
	bstartsBuf := src[HeaderSize:bstartsEnd]
	shuffleMode := h.ShuffleMode()

	firstBlock := wantStart / blocksize
	lastBlock := (wantStart + wantLen - 1) / blocksize

	for idx := firstBlock; idx <= lastBlock; idx++ {
		blockStart := idx * blocksize
		blockEnd := blockStart + blocksize
		if blockEnd > nbytes {
			blockEnd = nbytes
		}
		leftover := blockEnd-blockStart != blocksize
		mode := shuffleMode
		ts := typesize
		if leftover {
			mode = NoShuffle
			ts = 1
		}

		cstart := int(readBstart(bstartsBuf, idx))
		var cend int
		if idx == nblocks-1 {
			cend = int(h.NBytesComp)
		} else {
			cend = int(readBstart(bstartsBuf, idx+1))
		}
		if cstart < 0 || cend > len(src) || cstart > cend {
			return 0, ErrCorrupt
		}

		block := make([]byte, blockEnd-blockStart)
		scratch := make([]byte, blockEnd-blockStart)
		n := decompressBlock(codecEntry.codec, mode, ts, src[cstart:cend], block, scratch)
		if n < 0 {
			return 0, errFromCode(n)
		}

		overlapStart := blockStart
		if overlapStart < wantStart {
			overlapStart = wantStart
		}
		overlapEnd := blockEnd
		if overlapEnd > wantStart+wantLen {
			overlapEnd = wantStart + wantLen
		}
		copy(dest[overlapStart-wantStart:overlapEnd-wantStart], block[overlapStart-blockStart:overlapEnd-blockStart])
	}

	return wantLen, nil
}
