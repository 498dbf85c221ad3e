// Package format houses the low-level layout of heap arenas: the block header
// wire format, alignment rules and little-endian field helpers. It is kept
// free of allocator policy so higher-level packages can share one definition
// of what a block looks like in memory.
package format

const (
	// HeaderSize is the size of the metadata preceding every block's usable
	// region (free or in-use). It must stay a multiple of Alignment so that
	// usable regions inherit the arena base alignment.
	//
	// Layout (little-endian):
	//
	//	Offset  Size  Description
	//	0x00    8     Usable size in bytes (excludes the header)
	//	0x08    4     Flags (FlagInUse)
	//	0x0C    4     Magic (BlockMagic)
	HeaderSize = 16

	// Alignment is the granularity of every usable size and usable address.
	Alignment = 8

	// AlignmentMask is Alignment - 1.
	AlignmentMask = Alignment - 1

	// MinBlockSize is the smallest usable size a block can have.
	MinBlockSize = Alignment

	// MinArenaSize is the smallest arena that can hold one usable block.
	MinArenaSize = HeaderSize + MinBlockSize

	// Header field offsets.
	SizeOffset  = 0x00
	FlagsOffset = 0x08
	MagicOffset = 0x0C

	// FlagInUse marks a block as handed out to a caller.
	FlagInUse uint32 = 1 << 0

	// BlockMagic tags every header written by the allocator ("hblk" when read
	// as little-endian bytes).
	BlockMagic uint32 = 0x6B6C6268
)
