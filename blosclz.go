package blosc

// blosclz.go implements BLOSCLZ, the primitive Lempel-Ziv codec this
// container format always ships with, independent of any third-party
// compression library. It is intentionally simple: a single-pass
// greedy LZSS matcher with a one-entry-per-bucket hash table, a
// minimum match length of 3, and a 2-byte distance field capping the
// lookback window at 64Ki bytes.
//
// Token stream, one token per back-reference or literal run:
//
//	tag byte:
//	  bit 7 == 0: literal token. bits 0-6 are the literal run length
//	              (0..127), followed by that many raw bytes.
//	  bit 7 == 1: match token. bits 0-6 encode matchLen-minMatch
//	              (0..127, so matches run 3..130 bytes), followed by a
//	              2-byte little-endian distance (1..65535).
const (
	blzMinMatch   = 3
	blzMaxLiteral = 127
	blzMaxMatch   = blzMinMatch + 127
	blzMaxDist    = 65535
	blzTagMatch   = 0x80
)

func blzHashTableSize(level int) int {
	if level <= 1 {
		return 1 << 12
	}
	return 1 << 16
}

func blzHash(b []byte, bits int) uint32 {
	v := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
	return (v * 2654435761) >> (32 - bits)
}

func bitsForSize(n int) int {
	bits := 0
	for (1 << bits) < n {
		bits++
	}
	return bits
}

// blosclzCompress writes a BLOSCLZ encoding of src into dst, returning
// the number of bytes written, or 0 if the encoding would not fit in
// dst.
func blosclzCompress(src []byte, dst []byte, level int) int {
	n := len(src)
	if n == 0 {
		return 0
	}

	tableSize := blzHashTableSize(level)
	bits := bitsForSize(tableSize)
	table := make([]int32, tableSize)
	for i := range table {
		table[i] = -1
	}

	out := 0
	litStart := 0
	i := 0

	flushLiterals := func(end int) bool {
		for litStart < end {
			run := end - litStart
			if run > blzMaxLiteral {
				run = blzMaxLiteral
			}
			if out+1+run > len(dst) {
				return false
			}
			dst[out] = byte(run)
			out++
			copy(dst[out:], src[litStart:litStart+run])
			out += run
			litStart += run
		}
		return true
	}

	for i+blzMinMatch <= n {
		h := blzHash(src[i:], bits)
		cand := int(table[h])
		table[h] = int32(i)

		matchLen := 0
		if cand >= 0 && i-cand <= blzMaxDist {
			maxLen := n - i
			if maxLen > blzMaxMatch {
				maxLen = blzMaxMatch
			}
			for matchLen < maxLen && src[cand+matchLen] == src[i+matchLen] {
				matchLen++
			}
		}

		if matchLen >= blzMinMatch {
			if !flushLiterals(i) {
				return 0
			}
			dist := i - cand
			if out+3 > len(dst) {
				return 0
			}
			dst[out] = blzTagMatch | byte(matchLen-blzMinMatch)
			dst[out+1] = byte(dist)
			dst[out+2] = byte(dist >> 8)
			out += 3
			i += matchLen
			litStart = i
			continue
		}
		i++
	}

	if !flushLiterals(n) {
		return 0
	}
	return out
}

// blosclzDecompress reverses blosclzCompress into dst, which must be
// exactly sized for the expected output. It returns the number of
// bytes written, or a negative value if src is corrupt.
func blosclzDecompress(src []byte, dst []byte) int {
	out := 0
	i := 0
	for i < len(src) {
		tag := src[i]
		i++
		if tag&blzTagMatch == 0 {
			run := int(tag)
			if i+run > len(src) || out+run > len(dst) {
				return codeCorrupt
			}
			copy(dst[out:], src[i:i+run])
			i += run
			out += run
			continue
		}

		if i+2 > len(src) {
			return codeCorrupt
		}
		matchLen := int(tag&0x7f) + blzMinMatch
		dist := int(src[i]) | int(src[i+1])<<8
		i += 2
		if dist <= 0 || dist > out || out+matchLen > len(dst) {
			return codeCorrupt
		}
		src0 := out - dist
		for k := 0; k < matchLen; k++ {
			dst[out+k] = dst[src0+k]
		}
		out += matchLen
	}
	return out
}
