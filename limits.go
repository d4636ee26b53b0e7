package blosc

// Size limits and constants governing the container format.
//
// These mirror the constants of the same name in the C ancestor of this
// format: MIN_BUFFERSIZE, MAX_SPLITS, L1 and the implicit 16-byte header.
const (
	// MaxTypeSize is the largest typesize the header can encode. Inputs
	// requesting a larger typesize are treated as typesize 1 (shuffle
	// disabled).
	MaxTypeSize = 255

	// MinBufferSize is the smallest input that is worth compressing.
	// Buffers smaller than this are always stored MEMCPYED.
	MinBufferSize = 128

	// MaxSplits bounds how many per-byte-position slices a block is
	// divided into.
	MaxSplits = 16

	// L1CacheSize approximates a common L1 data cache size and anchors
	// the block-size planner's large-buffer threshold.
	L1CacheSize = 32 * 1024

	// HeaderSize is the fixed size, in bytes, of the container prefix
	// that precedes the per-block start-offset table.
	HeaderSize = 16

	// MaxBufferSize bounds the uncompressed input size this
	// implementation accepts. The wire format stores nbytes, blocksize
	// and cbytes as unsigned 32-bit integers; this cap leaves headroom
	// for the per-block start-offset table so cbytes never wraps.
	MaxBufferSize = (1<<31 - 1) - (1 << 27)
)

// MaxOverhead returns the worst-case number of header bytes a
// compressed buffer carries for the given block count: the fixed
// 16-byte prefix plus one 4-byte start offset per block.
func MaxOverhead(nblocks int) int {
	return HeaderSize + 4*nblocks
}
