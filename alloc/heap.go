package alloc

import (
	"fmt"
	"math"

	"github.com/wippyai/colvec"
	"github.com/wippyai/colvec/internal/unsafex"
)

const wordSize = 8

// Heap allocates column buffers from the Go heap.
//
// Regions are backed by []uint64, so they are always 8-byte aligned. Larger
// alignments are met by over-allocating and shifting the start. Deallocate
// leaves the region to the garbage collector.
type Heap struct{}

var _ colvec.Allocator = Heap{}

// Allocate returns a zeroed region of l.Size bytes aligned to l.Align.
func (Heap) Allocate(l colvec.AllocLayout) ([]byte, error) {
	return heapBytes(l.Size, l.Align)
}

// Grow extends b in place when its backing array has room and otherwise
// copies the first old.Size bytes into a new region.
func (Heap) Grow(b []byte, old, next colvec.AllocLayout) ([]byte, error) {
	if cap(b) >= next.Size && unsafex.IsAligned(b, next.Align) {
		return b[:next.Size], nil
	}
	nb, err := heapBytes(next.Size, next.Align)
	if err != nil {
		return nil, err
	}
	copy(nb, b[:old.Size])
	return nb, nil
}

// Deallocate is a no-op.
func (Heap) Deallocate([]byte, colvec.AllocLayout) {}

func heapBytes(size, align int) (b []byte, err error) {
	if size == 0 {
		return nil, nil
	}
	extra := 0
	if align > wordSize {
		extra = align - wordSize
	}
	if size > math.MaxInt-extra-wordSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrOutOfMemory, size)
	}

	// make panics rather than failing for lengths it cannot satisfy.
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: %d bytes: %v", ErrOutOfMemory, size, r)
		}
	}()

	words := make([]uint64, (size+extra+wordSize-1)/wordSize)
	raw := unsafex.Words(words)
	shift := unsafex.AlignShift(raw, align)
	return raw[shift : shift+size], nil
}
