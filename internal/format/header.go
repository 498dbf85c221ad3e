package format

import "fmt"

// Header is the decoded metadata preceding a block's usable bytes.
type Header struct {
	Size  int    // Usable bytes, excludes the header itself
	Flags uint32 // FlagInUse when handed out
	Magic uint32 // BlockMagic for any header written by the allocator
}

// InUse reports whether the block is currently handed out.
func (h Header) InUse() bool { return h.Flags&FlagInUse != 0 }

// Free reports whether the block is available for allocation.
func (h Header) Free() bool { return !h.InUse() }

// Span returns the number of arena bytes the block covers, header included.
func (h Header) Span() int { return HeaderSize + h.Size }

// DecodeHeader reads the header starting at off.
// It checks bounds, the magic and size alignment but not arena membership;
// callers owning the arena decide whether the block fits.
func DecodeHeader(b []byte, off int) (Header, error) {
	if off < 0 || off+HeaderSize > len(b) {
		return Header{}, fmt.Errorf("header at %d: %w", off, ErrTruncated)
	}
	if !IsAligned8(off) {
		return Header{}, fmt.Errorf("header at %d: %w", off, ErrMisaligned)
	}
	h := Header{
		Size:  int(ReadU64(b, off+SizeOffset)),
		Flags: ReadU32(b, off+FlagsOffset),
		Magic: ReadU32(b, off+MagicOffset),
	}
	if h.Magic != BlockMagic {
		return Header{}, fmt.Errorf("header at %d: %w (got 0x%08X)", off, ErrBadMagic, h.Magic)
	}
	if h.Size < 0 || !IsAligned8(h.Size) {
		return Header{}, fmt.Errorf("header at %d: size %d: %w", off, h.Size, ErrMisaligned)
	}
	return h, nil
}

// EncodeHeader writes h at off. The magic is always stamped as BlockMagic.
func EncodeHeader(b []byte, off int, h Header) {
	PutU64(b, off+SizeOffset, uint64(h.Size))
	PutU32(b, off+FlagsOffset, h.Flags)
	PutU32(b, off+MagicOffset, BlockMagic)
}
