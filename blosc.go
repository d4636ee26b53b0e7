// Package blosc provides a pure Go implementation of a Blosc-style
// block-oriented meta-compressor for homogeneous numeric arrays.
//
// It combines shuffle/bitshuffle preprocessing with fast inner codecs
// (BLOSCLZ, LZ4, LZ4HC, Snappy, ZLIB, ZSTD) to improve compression
// ratio and throughput on typed array data, splitting large buffers
// into independently compressed blocks that a worker pool can process
// concurrently.
//
// # Basic usage
//
//	compressed, err := blosc.Compress(data, blosc.LZ4, 5, blosc.Shuffle1, 4)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	decompressed, err := blosc.Decompress(compressed)
//
// # Shuffle modes
//
//   - NoShuffle: no preprocessing
//   - Shuffle1: byte shuffle, groups bytes by position within elements
//   - BitShuffle: bit-level shuffle, additive mode beyond the original format
//
// # Thread safety
//
// All exported functions except RegisterCodec are safe for concurrent
// use; RegisterCodec updates the codec registry without locking. A *Context
// configures its own worker count and is itself safe for concurrent
// Compress/Decompress calls once constructed.
package blosc

import (
	"fmt"
	"runtime"
	"sync"
)

// Version identifies this module's release.
const Version = "1.0.0"

// FormatVersion is the container format version written into every
// compressed buffer's header.
const FormatVersion = 2

// Shuffle selects the byte-reordering transform applied before the
// inner codec runs.
type Shuffle uint8

const (
	NoShuffle  Shuffle = 0x0
	Shuffle1   Shuffle = 0x1
	BitShuffle Shuffle = 0x2
)

// String returns the shuffle mode name.
func (s Shuffle) String() string {
	switch s {
	case NoShuffle:
		return "noshuffle"
	case Shuffle1:
		return "shuffle"
	case BitShuffle:
		return "bitshuffle"
	default:
		return fmt.Sprintf("unknown(%d)", s)
	}
}

// Options configures a single Compress call.
type Options struct {
	Codec           Codec   // inner compressor
	Level           int     // compression level, 0-9
	Shuffle         Shuffle // shuffle mode
	TypeSize        int     // element size in bytes
	ForcedBlockSize int     // 0 selects the automatic block-size policy
	NumThreads      int     // 0 selects runtime.GOMAXPROCS(0)
}

// DefaultOptions returns the package's default compression options:
// LZ4 at level 5 with byte shuffle over 4-byte elements.
func DefaultOptions() Options {
	return Options{
		Codec:      LZ4,
		Level:      5,
		Shuffle:    Shuffle1,
		TypeSize:   4,
		NumThreads: 0,
	}
}

// Context holds the configuration an application reuses across many
// Compress/Decompress calls, replacing the implicit global state a
// C-style Blosc binding would otherwise keep. A Context is safe for
// concurrent use: each call only reads its fields.
type Context struct {
	Compressor      Codec
	Level           int
	Shuffle         Shuffle
	TypeSize        int
	ForcedBlockSize int
	NumThreads      int
}

// NewContext builds a Context from Options, defaulting NumThreads to
// runtime.GOMAXPROCS(0) when unset.
func NewContext(opts Options) *Context {
	nt := opts.NumThreads
	if nt <= 0 {
		nt = runtime.GOMAXPROCS(0)
	}
	return &Context{
		Compressor:      opts.Codec,
		Level:           opts.Level,
		Shuffle:         opts.Shuffle,
		TypeSize:        opts.TypeSize,
		ForcedBlockSize: opts.ForcedBlockSize,
		NumThreads:      nt,
	}
}

func (c *Context) effectiveTypeSize() int {
	if c.TypeSize <= 0 {
		return 1
	}
	if c.TypeSize > MaxTypeSize {
		return 1
	}
	return c.TypeSize
}

var (
	defaultContextMu sync.Mutex
	defaultContext    = NewContext(DefaultOptions())
)

// SetDefaultContext replaces the package-level context used by the
// no-Context convenience functions (Compress, Decompress, ...).
func SetDefaultContext(ctx *Context) {
	defaultContextMu.Lock()
	defer defaultContextMu.Unlock()
	defaultContext = ctx
}

func getDefaultContext() *Context {
	defaultContextMu.Lock()
	defer defaultContextMu.Unlock()
	return defaultContext
}

// Compress compresses data with the given codec, level, shuffle mode
// and element size, using the package's default thread count.
func Compress(data []byte, codec Codec, level int, shuffle Shuffle, typeSize int) ([]byte, error) {
	return CompressWithOptions(data, Options{
		Codec:      codec,
		Level:      level,
		Shuffle:    shuffle,
		TypeSize:   typeSize,
		NumThreads: getDefaultContext().NumThreads,
	})
}

// CompressWithOptions compresses data using a one-off Context built
// from opts.
func CompressWithOptions(data []byte, opts Options) ([]byte, error) {
	return NewContext(opts).Compress(data)
}

// Compress compresses data under the Context's configuration. It
// allocates a destination sized to the worst case so the underlying
// CompressInto call always has room to succeed.
func (ctx *Context) Compress(data []byte) ([]byte, error) {
	if len(data) > MaxBufferSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds MaxBufferSize", ErrDataTooLarge, len(data))
	}
	if ctx.Level < 0 || ctx.Level > 9 {
		return nil, fmt.Errorf("%w: level %d", ErrInvalidOptions, ctx.Level)
	}

	dest := make([]byte, ctx.compressBound(len(data)))
	n := ctx.CompressInto(data, dest)
	if n <= 0 {
		return nil, errFromCode(n)
	}
	return dest[:n], nil
}

// compressBound returns a destination size guaranteed to be large
// enough for CompressInto to succeed on nbytes of input under this
// Context's configuration: the regular block path's worst case (every
// slice falling back to a verbatim copy) or the MEMCPYED fallback's
// size, whichever is larger.
func (ctx *Context) compressBound(nbytes int) int {
	memcpyBound := HeaderSize + nbytes
	if nbytes == 0 || ctx.Level == 0 || nbytes < MinBufferSize {
		return memcpyBound
	}

	typesize := ctx.effectiveTypeSize()
	blocksize := planBlockSize(ctx.Compressor, ctx.Level, typesize, nbytes, ctx.ForcedBlockSize)
	nblocks := (nbytes + blocksize - 1) / blocksize
	if nblocks == 0 {
		nblocks = 1
	}
	blockBound := HeaderSize + 4*nblocks + nblocks*blockCompressedBound(typesize, blocksize)
	if blockBound > memcpyBound {
		return blockBound
	}
	return memcpyBound
}

// CompressInto compresses data into dest, whose length bounds the
// output the way destsize bounds a C-style blosc_compress call. A
// clevel of 0 or an input below MinBufferSize forces the MEMCPYED
// fallback before any compression is attempted, per the container's
// incompressibility rules. It returns the number of bytes written on
// success, 0 if dest cannot hold the output even after falling back
// to a verbatim copy, or a negative code if an inner codec
// implementation reported a hard failure.
func (ctx *Context) CompressInto(data, dest []byte) int {
	if len(data) > MaxBufferSize || ctx.Level < 0 || ctx.Level > 9 || ctx.Shuffle > BitShuffle {
		return codeValidationFailure
	}

	typesize := ctx.effectiveTypeSize()
	nbytes := len(data)

	shuffleFlags := uint8(0)
	switch ctx.Shuffle {
	case Shuffle1:
		shuffleFlags = flagShuffle
	case BitShuffle:
		shuffleFlags = flagBitShuffle
	}

	if nbytes == 0 || ctx.Level == 0 || nbytes < MinBufferSize {
		return memcpyInto(data, dest, typesize, flagMemcpy)
	}

	entry := registryByCodec[ctx.Compressor]
	if entry == nil {
		return codeUnsupportedCodec
	}

	blocksize := planBlockSize(ctx.Compressor, ctx.Level, typesize, nbytes, ctx.ForcedBlockSize)
	nblocks := (nbytes + blocksize - 1) / blocksize
	if nblocks == 0 {
		nblocks = 1
	}
	payloadOffset := HeaderSize + 4*nblocks

	scratch := make([]byte, payloadOffset+nblocks*blockCompressedBound(typesize, blocksize))
	bstartsBuf := scratch[HeaderSize:payloadOffset]
	cbytes := scheduleCompress(ctx, data, scratch, bstartsBuf, blocksize, nblocks, payloadOffset)
	if cbytes < 0 {
		return cbytes
	}

	total := payloadOffset + cbytes
	memcpyTotal := HeaderSize + nbytes
	if total >= memcpyTotal {
		return memcpyInto(data, dest, typesize, flagMemcpy)
	}
	if total > len(dest) {
		return codeDestTooSmall
	}

	hw, err := newHeaderWriter(dest[:total])
	if err != nil {
		return codeDestTooSmall
	}
	copy(dest[HeaderSize:total], scratch[HeaderSize:total])
	hw.setVersion(FormatVersion)
	hw.setVersionCodec(1)
	hw.setFlags(shuffleFlags | (entry.formatID << formatIDShift))
	hw.setTypeSize(uint8(typesize))
	hw.setNBytes(uint32(nbytes))
	hw.setBlockSize(uint32(blocksize))
	hw.setCBytes(uint32(total))

	return total
}

// memcpyInto writes the MEMCPYED fallback form into dest: the 16-byte
// header immediately followed by a verbatim copy of data, with no
// per-block start-offset table (none of its entries would be
// meaningful for a single unsplit, uncompressed payload). It returns
// the number of bytes written, or 0 if dest is too small.
func memcpyInto(data, dest []byte, typesize int, flags uint8) int {
	nbytes := len(data)
	total := HeaderSize + nbytes
	if total > len(dest) {
		return codeDestTooSmall
	}

	hw, err := newHeaderWriter(dest[:total])
	if err != nil {
		return codeDestTooSmall
	}
	copy(dest[HeaderSize:total], data)
	hw.setVersion(FormatVersion)
	hw.setVersionCodec(1)
	hw.setFlags(flags)
	hw.setTypeSize(uint8(typesize))
	hw.setNBytes(uint32(nbytes))
	hw.setBlockSize(uint32(nbytes))
	hw.setCBytes(uint32(total))
	return total
}

// Decompress decompresses a buffer produced by Compress, using the
// typesize recorded in its header.
func Decompress(data []byte) ([]byte, error) {
	return DecompressWithSize(data, 0)
}

// DecompressWithSize decompresses data, overriding the header's
// typesize with typeSize when typeSize > 0 (useful when the caller
// knows the element size but the header was written generically).
func DecompressWithSize(data []byte, typeSize int) ([]byte, error) {
	return getDefaultContext().decompress(data, typeSize)
}

// Decompress decompresses data under the Context's thread count.
func (ctx *Context) Decompress(data []byte) ([]byte, error) {
	return ctx.decompress(data, 0)
}

func (ctx *Context) decompress(data []byte, typeSizeOverride int) ([]byte, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if int(h.NBytesComp) > len(data) {
		return nil, ErrInvalidData
	}

	dst := make([]byte, h.NBytesOrig)
	if rc := ctx.decompressBody(data, dst, h, typeSizeOverride); rc < 0 {
		return nil, errFromCode(rc)
	}
	return dst, nil
}

// DecompressInto decompresses data into dest, whose length bounds the
// output the way destsize bounds a C-style blosc_decompress call. It
// returns the number of bytes written on success, 0 if dest is
// smaller than the header's recorded original size, or a negative
// code on corrupt input or inner codec failure.
func (ctx *Context) DecompressInto(data, dest []byte) int {
	h, err := ParseHeader(data)
	if err != nil {
		return codeCorrupt
	}
	if int(h.NBytesComp) > len(data) {
		return codeCorrupt
	}
	if int(h.NBytesOrig) > len(dest) {
		return codeDestTooSmall
	}

	dst := dest[:h.NBytesOrig]
	if rc := ctx.decompressBody(data, dst, h, 0); rc < 0 {
		return rc
	}
	return int(h.NBytesOrig)
}

// decompressBody writes data's decoded payload into dst (already
// sized to h.NBytesOrig), returning 0 on success or a negative code
// on failure.
func (ctx *Context) decompressBody(data, dst []byte, h *Header, typeSizeOverride int) int {
	typesize := int(h.TypeSize)
	if typeSizeOverride > 0 {
		typesize = typeSizeOverride
	}

	if h.IsMemcpy() {
		payload := data[HeaderSize:h.NBytesComp]
		if len(payload) != len(dst) {
			return codeCorrupt
		}
		copy(dst, payload)
		return 0
	}

	codecEntry, ok := registryByFormatID[h.FormatID()]
	if !ok {
		return codeUnsupportedCodec
	}

	nbytes := int(h.NBytesOrig)
	blocksize := int(h.BlockSize)
	if blocksize <= 0 {
		return codeCorrupt
	}
	nblocks := (nbytes + blocksize - 1) / blocksize
	if nblocks == 0 {
		nblocks = 1
	}

	bstartsEnd := HeaderSize + 4*nblocks
	if bstartsEnd > len(data) {
		return codeCorrupt
	}
	bstartsBuf := data[HeaderSize:bstartsEnd]

	return scheduleDecompress(ctx, codecEntry.codec, h.ShuffleMode(), typesize, data, bstartsBuf, dst, blocksize, nblocks, int(h.NBytesComp))
}

// GetInfo parses a compressed buffer's header without decompressing it.
func GetInfo(data []byte) (*Header, error) {
	return ParseHeader(data)
}

// GetDecompressedSize returns the original size recorded in a
// compressed buffer's header.
func GetDecompressedSize(data []byte) (int, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return 0, err
	}
	return int(h.NBytesOrig), nil
}
