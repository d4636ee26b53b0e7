package blosc

import (
	"bytes"
	"fmt"
	"io"
	"runtime/debug"
	"strings"

	"github.com/klauspost/compress/snappy"
	kzlib "github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec identifies the inner compression algorithm used for a block's
// slices.
type Codec uint8

const (
	BloscLZ Codec = iota // primitive in-tree Lempel-Ziv codec
	LZ4                  // LZ4 compression
	LZ4HC                // LZ4 High Compression
	Snappy               // Snappy compression
	ZLIB                 // ZLIB/deflate compression
	ZSTD                 // Zstandard compression
)

// BLOSCLZ is the spec name for BloscLZ, kept as an alias for callers
// that spell it the way the wire-format identifiers do.
const BLOSCLZ = BloscLZ

// String returns the codec name.
func (c Codec) String() string {
	switch c {
	case BloscLZ:
		return "blosclz"
	case LZ4:
		return "lz4"
	case LZ4HC:
		return "lz4hc"
	case Snappy:
		return "snappy"
	case ZLIB:
		return "zlib"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// CodecInterface is the boundary every inner compressor implements.
// Compress returns the number of bytes written to dst, or a value
// <= 0 on failure (by convention a returned length equal to
// len(src) means the codec declined to compress). Decompress returns
// the number of bytes written to dst, or a negative value on
// corruption.
type CodecInterface interface {
	Compress(src, dst []byte, level int) int
	Decompress(src, dst []byte) int
	Name() string
}

// maxCompressedLener is implemented by codecs (SNAPPY) whose maximum
// output size for a given input size is not simply len(src).
type maxCompressedLener interface {
	MaxCompressedLen(srcLen int) int
}

type codecEntry struct {
	codec         Codec
	formatID      uint8
	versionFormat uint8
	impl          CodecInterface
	modulePath    string
}

var registryByCodec = map[Codec]*codecEntry{}
var registryByFormatID = map[uint8]*codecEntry{}
var registryOrder []Codec

func registerEntry(e *codecEntry) {
	registryByCodec[e.codec] = e
	if _, exists := registryByFormatID[e.formatID]; !exists {
		registryByFormatID[e.formatID] = e
	}
	registryOrder = append(registryOrder, e.codec)
}

func init() {
	registerEntry(&codecEntry{codec: BloscLZ, formatID: 0, versionFormat: 1, impl: &blosclzCodec{}, modulePath: "github.com/mrjoshuak/go-blosc (in-tree)"})
	registerEntry(&codecEntry{codec: LZ4, formatID: 1, versionFormat: 1, impl: &lz4Codec{}, modulePath: "github.com/pierrec/lz4/v4"})
	registerEntry(&codecEntry{codec: LZ4HC, formatID: 1, versionFormat: 1, impl: &lz4hcCodec{}, modulePath: "github.com/pierrec/lz4/v4"})
	registerEntry(&codecEntry{codec: Snappy, formatID: 2, versionFormat: 1, impl: &snappyCodec{}, modulePath: "github.com/klauspost/compress/snappy"})
	registerEntry(&codecEntry{codec: ZSTD, formatID: 3, versionFormat: 1, impl: &zstdCodec{}, modulePath: "github.com/klauspost/compress/zstd"})
	registerEntry(&codecEntry{codec: ZLIB, formatID: 4, versionFormat: 1, impl: &zlibCodec{}, modulePath: "github.com/klauspost/compress/zlib"})
}

// RegisterCodec registers a custom codec implementation, overriding
// any built-in entry for the same id. formatID must be in 0..7 and
// free of conflicts with a codec the caller still needs to decode.
func RegisterCodec(id Codec, formatID uint8, codec CodecInterface) {
	registerEntryOverride(&codecEntry{codec: id, formatID: formatID & formatIDMask, versionFormat: 1, impl: codec, modulePath: "(externally registered)"})
}

func registerEntryOverride(e *codecEntry) {
	registryByCodec[e.codec] = e
	registryByFormatID[e.formatID] = e
	for _, c := range registryOrder {
		if c == e.codec {
			return
		}
	}
	registryOrder = append(registryOrder, e.codec)
}

// GetCodec returns the codec implementation registered for id.
func GetCodec(id Codec) (CodecInterface, bool) {
	e, ok := registryByCodec[id]
	if !ok {
		return nil, false
	}
	return e.impl, true
}

// ListCodecNames returns the comma-joined names of every codec
// registered in this build, in registration order.
func ListCodecNames() string {
	var buf bytes.Buffer
	for i, c := range registryOrder {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(c.String())
	}
	return buf.String()
}

// CodecLibraryInfo returns the backing library's import path and the
// version of the module providing it compiled into this binary, for the codec
// named by a Codec.String() value.
func CodecLibraryInfo(name string) (library, version string, err error) {
	for _, c := range registryOrder {
		if c.String() != name {
			continue
		}
		e := registryByCodec[c]
		return e.modulePath, moduleVersion(e.modulePath), nil
	}
	return "", "", ErrInvalidCodec
}

func moduleVersion(modulePath string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, dep := range info.Deps {
		if dep.Path == modulePath || strings.HasPrefix(modulePath, dep.Path+"/") {
			return dep.Version
		}
	}
	return "unknown"
}

// =============================================================================
// BLOSCLZ codec
// =============================================================================

type blosclzCodec struct{}

func (c *blosclzCodec) Name() string { return "blosclz" }

func (c *blosclzCodec) Compress(src, dst []byte, level int) int {
	return blosclzCompress(src, dst, level)
}

func (c *blosclzCodec) Decompress(src, dst []byte) int {
	return blosclzDecompress(src, dst)
}

// =============================================================================
// LZ4 codec
// =============================================================================

type lz4Codec struct{}

func (c *lz4Codec) Name() string { return "lz4" }

func (c *lz4Codec) Compress(src, dst []byte, level int) int {
	n, err := lz4.CompressBlock(src, dst, nil)
	if err != nil || n == 0 {
		return 0
	}
	return n
}

func (c *lz4Codec) Decompress(src, dst []byte) int {
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return codeCorrupt
	}
	return n
}

// =============================================================================
// LZ4HC codec (decodes with the plain LZ4 decoder, same wire format)
// =============================================================================

type lz4hcCodec struct{}

func (c *lz4hcCodec) Name() string { return "lz4hc" }

func (c *lz4hcCodec) Compress(src, dst []byte, level int) int {
	// clevel*2-1 mirrors the original C wrapper's LZ4HC level formula.
	hcLevel := lz4.CompressionLevel(level*2 - 1)
	ht := make([]int, 1<<16)
	n, err := lz4.CompressBlockHC(src, dst, hcLevel, ht, nil)
	if err != nil || n == 0 {
		return 0
	}
	return n
}

func (c *lz4hcCodec) Decompress(src, dst []byte) int {
	n, err := lz4.UncompressBlock(src, dst)
	if err != nil {
		return codeCorrupt
	}
	return n
}

// =============================================================================
// ZLIB codec
// =============================================================================

type zlibCodec struct{}

func (c *zlibCodec) Name() string { return "zlib" }

func (c *zlibCodec) Compress(src, dst []byte, level int) int {
	var buf bytes.Buffer
	w, err := kzlib.NewWriterLevel(&buf, level)
	if err != nil {
		return 0
	}
	if _, err := w.Write(src); err != nil {
		w.Close()
		return 0
	}
	if err := w.Close(); err != nil {
		return 0
	}
	if buf.Len() > len(dst) {
		return 0
	}
	return copy(dst, buf.Bytes())
}

func (c *zlibCodec) Decompress(src, dst []byte) int {
	r, err := kzlib.NewReader(bytes.NewReader(src))
	if err != nil {
		return codeCorrupt
	}
	defer r.Close()
	n, err := io.ReadFull(r, dst)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return codeCorrupt
	}
	return n
}

// =============================================================================
// ZSTD codec — persistent encoders/decoders reused across calls.
// =============================================================================

type zstdCodec struct{}

func (c *zstdCodec) Name() string { return "zstd" }

var zstdEncoders = func() [4]*zstd.Encoder {
	var encoders [4]*zstd.Encoder
	levels := []zstd.EncoderLevel{
		zstd.SpeedFastest,
		zstd.SpeedDefault,
		zstd.SpeedBetterCompression,
		zstd.SpeedBestCompression,
	}
	for i, level := range levels {
		e, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		encoders[i] = e
	}
	return encoders
}()

var zstdDecoder = func() *zstd.Decoder {
	d, _ := zstd.NewReader(nil)
	return d
}()

func (c *zstdCodec) Compress(src, dst []byte, level int) int {
	idx := 1
	switch {
	case level <= 2:
		idx = 0
	case level <= 4:
		idx = 1
	case level <= 6:
		idx = 2
	default:
		idx = 3
	}
	out := zstdEncoders[idx].EncodeAll(src, nil)
	if len(out) > len(dst) {
		return 0
	}
	return copy(dst, out)
}

func (c *zstdCodec) Decompress(src, dst []byte) int {
	out, err := zstdDecoder.DecodeAll(src, make([]byte, 0, len(dst)))
	if err != nil {
		return codeCorrupt
	}
	return copy(dst, out)
}

// =============================================================================
// Snappy codec
// =============================================================================

type snappyCodec struct{}

func (c *snappyCodec) Name() string { return "snappy" }

func (c *snappyCodec) MaxCompressedLen(srcLen int) int {
	return snappy.MaxEncodedLen(srcLen)
}

func (c *snappyCodec) Compress(src, dst []byte, level int) int {
	if snappy.MaxEncodedLen(len(src)) > len(dst) {
		return 0
	}
	out := snappy.Encode(dst, src)
	return len(out)
}

func (c *snappyCodec) Decompress(src, dst []byte) int {
	out, err := snappy.Decode(dst, src)
	if err != nil {
		return codeCorrupt
	}
	return len(out)
}
