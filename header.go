package blosc

import "encoding/binary"

// Flag bits in header byte 2.
const (
	flagShuffle    = 0x1 // byte shuffle applied
	flagMemcpy     = 0x2 // payload is a verbatim copy of the input
	flagBitShuffle = 0x4 // bit shuffle applied

	formatIDShift = 5
	formatIDMask  = 0x7
)

// headerView reads the fixed 16-byte prefix of a compressed buffer
// without copying it. It borrows the underlying slice for its entire
// lifetime and must not outlive mutation of that slice.
type headerView []byte

func newHeaderView(buf []byte) (headerView, error) {
	if len(buf) < HeaderSize {
		return nil, ErrInvalidHeader
	}
	return headerView(buf[:HeaderSize]), nil
}

func (h headerView) version() uint8       { return h[0] }
func (h headerView) versionCodec() uint8  { return h[1] }
func (h headerView) flags() uint8         { return h[2] }
func (h headerView) typeSize() uint8      { return h[3] }
func (h headerView) nbytes() uint32       { return binary.LittleEndian.Uint32(h[4:8]) }
func (h headerView) blockSize() uint32    { return binary.LittleEndian.Uint32(h[8:12]) }
func (h headerView) cbytes() uint32       { return binary.LittleEndian.Uint32(h[12:16]) }
func (h headerView) hasShuffle() bool     { return h.flags()&flagShuffle != 0 }
func (h headerView) hasBitShuffle() bool  { return h.flags()&flagBitShuffle != 0 }
func (h headerView) isMemcpy() bool       { return h.flags()&flagMemcpy != 0 }
func (h headerView) formatID() uint8      { return (h.flags() >> formatIDShift) & formatIDMask }

// bstarts returns the nblocks-entry start-offset table that follows the
// fixed prefix. The caller must have already validated len(buf).
func bstarts(buf []byte, nblocks int) []byte {
	return buf[HeaderSize : HeaderSize+4*nblocks]
}

func readBstart(buf []byte, idx int) uint32 {
	return binary.LittleEndian.Uint32(buf[idx*4 : idx*4+4])
}

func writeBstart(buf []byte, idx int, v uint32) {
	binary.LittleEndian.PutUint32(buf[idx*4:idx*4+4], v)
}

// headerWriter mutates the fixed 16-byte prefix of a destination
// buffer in place. Like headerView it borrows its buffer for its
// entire lifetime.
type headerWriter []byte

func newHeaderWriter(buf []byte) (headerWriter, error) {
	if len(buf) < HeaderSize {
		return nil, ErrDestTooSmall
	}
	return headerWriter(buf[:HeaderSize]), nil
}

func (h headerWriter) setVersion(v uint8)      { h[0] = v }
func (h headerWriter) setVersionCodec(v uint8) { h[1] = v }
func (h headerWriter) setFlags(v uint8)        { h[2] = v }
func (h headerWriter) orFlags(v uint8)         { h[2] |= v }
func (h headerWriter) setTypeSize(v uint8)     { h[3] = v }
func (h headerWriter) setNBytes(v uint32)      { binary.LittleEndian.PutUint32(h[4:8], v) }
func (h headerWriter) setBlockSize(v uint32)   { binary.LittleEndian.PutUint32(h[8:12], v) }
func (h headerWriter) setCBytes(v uint32)      { binary.LittleEndian.PutUint32(h[12:16], v) }
func (h headerWriter) view() headerView        { return headerView(h) }

// Header is a decoded copy of the 16-byte container prefix. Unlike
// headerView it owns its fields and can be inspected after the
// source buffer has been discarded.
type Header struct {
	Version    uint8  // container format version
	VersionLZ  uint8  // inner-codec format version
	Flags      uint8  // shuffle / memcpy / codec format-id bits
	TypeSize   uint8  // element size, 1..255
	NBytesOrig uint32 // uncompressed length
	BlockSize  uint32 // chosen block size
	NBytesComp uint32 // final compressed length, including this header
}

// ParseHeader parses the 16-byte prefix of a compressed buffer.
func ParseHeader(data []byte) (*Header, error) {
	hv, err := newHeaderView(data)
	if err != nil {
		return nil, err
	}
	if hv.version() != FormatVersion {
		return nil, errInvalidVersionf(hv.version())
	}
	return &Header{
		Version:    hv.version(),
		VersionLZ:  hv.versionCodec(),
		Flags:      hv.flags(),
		TypeSize:   hv.typeSize(),
		NBytesOrig: hv.nbytes(),
		BlockSize:  hv.blockSize(),
		NBytesComp: hv.cbytes(),
	}, nil
}

// Bytes serializes the header back to its 16-byte wire form.
func (h *Header) Bytes() []byte {
	buf := make([]byte, HeaderSize)
	hw := headerWriter(buf)
	hw.setVersion(h.Version)
	hw.setVersionCodec(h.VersionLZ)
	hw.setFlags(h.Flags)
	hw.setTypeSize(h.TypeSize)
	hw.setNBytes(h.NBytesOrig)
	hw.setBlockSize(h.BlockSize)
	hw.setCBytes(h.NBytesComp)
	return buf
}

// HasShuffle reports whether byte shuffle was applied.
func (h *Header) HasShuffle() bool { return h.Flags&flagShuffle != 0 }

// HasBitShuffle reports whether bit shuffle was applied.
func (h *Header) HasBitShuffle() bool { return h.Flags&flagBitShuffle != 0 }

// IsMemcpy reports whether the payload is a verbatim copy of the input.
func (h *Header) IsMemcpy() bool { return h.Flags&flagMemcpy != 0 }

// ShuffleMode reconstructs the shuffle mode from the header flags.
func (h *Header) ShuffleMode() Shuffle {
	switch {
	case h.HasBitShuffle():
		return BitShuffle
	case h.HasShuffle():
		return Shuffle1
	default:
		return NoShuffle
	}
}

// FormatID returns the 3-bit codec format identifier stored in the flags.
func (h *Header) FormatID() uint8 {
	return (h.Flags >> formatIDShift) & formatIDMask
}

// CBufferSizes returns nbytes, cbytes and blocksize from a compressed
// buffer without decompressing it.
func CBufferSizes(src []byte) (nbytes, cbytes, blocksize int, err error) {
	hv, err := newHeaderView(src)
	if err != nil {
		return 0, 0, 0, err
	}
	return int(hv.nbytes()), int(hv.cbytes()), int(hv.blockSize()), nil
}

// CBufferMetainfo returns the typesize and flags byte from a
// compressed buffer without decompressing it.
func CBufferMetainfo(src []byte) (typesize int, flags uint8, err error) {
	hv, err := newHeaderView(src)
	if err != nil {
		return 0, 0, err
	}
	return int(hv.typeSize()), hv.flags(), nil
}

// CBufferVersions returns the container and inner-codec format
// versions stored in a compressed buffer's header.
func CBufferVersions(src []byte) (version, versionCodec int, err error) {
	hv, err := newHeaderView(src)
	if err != nil {
		return 0, 0, err
	}
	return int(hv.version()), int(hv.versionCodec()), nil
}

// ComplibName returns the name of the codec that produced a
// compressed buffer, read from its header without decompressing it.
func ComplibName(src []byte) (string, error) {
	hv, err := newHeaderView(src)
	if err != nil {
		return "", err
	}
	entry, ok := registryByFormatID[hv.formatID()]
	if !ok {
		return "", ErrInvalidCodec
	}
	return entry.impl.Name(), nil
}
