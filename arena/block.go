package arena

import (
	"fmt"
	"io"
)

// Block is a decoded view of one block in the arena.
type Block struct {
	Off   int  // Header offset from the arena base
	Size  int  // Usable bytes
	InUse bool // False when the block is free
}

// Ref returns the usable-region ref of the block.
func (b Block) Ref() Ref { return RefOf(b.Off) }

// Span returns header plus usable bytes.
func (b Block) Span() int { return HeaderSize + b.Size }

// End returns the offset just past the block.
func (b Block) End() int { return b.Off + b.Span() }

// BlockAt decodes the block whose header starts at off.
func (a *Arena) BlockAt(off int) (Block, error) {
	h, err := a.ReadHeader(off)
	if err != nil {
		return Block{}, err
	}
	return Block{Off: off, Size: h.Size, InUse: h.InUse()}, nil
}

// BlockIterator walks blocks in address order.
type BlockIterator struct {
	a    *Arena
	off  int
	done bool
}

// Blocks returns an iterator starting at the first block.
func (a *Arena) Blocks() *BlockIterator {
	return &BlockIterator{a: a}
}

// Next returns the next block, io.EOF once the arena end is reached, or a
// decode error when a header is corrupt. The iterator stops after any error.
func (it *BlockIterator) Next() (Block, error) {
	if it.done {
		return Block{}, io.EOF
	}
	if it.a.Closed() {
		it.done = true
		return Block{}, ErrClosed
	}
	if it.off >= it.a.capacity {
		it.done = true
		return Block{}, io.EOF
	}

	b, err := it.a.BlockAt(it.off)
	if err != nil {
		it.done = true
		return Block{}, fmt.Errorf("arena: walk: %w", err)
	}
	it.off = b.End()
	return b, nil
}

// Collect walks the whole arena and returns every block.
func (a *Arena) Collect() ([]Block, error) {
	var blocks []Block
	it := a.Blocks()
	for {
		b, err := it.Next()
		if err == io.EOF {
			return blocks, nil
		}
		if err != nil {
			return blocks, err
		}
		blocks = append(blocks, b)
	}
}
