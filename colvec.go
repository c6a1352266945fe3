package colvec

import "math"

// MaxAllocSize is the largest byte size a single allocation may request.
// It mirrors the signed pointer range: no object may span more than half of
// the address space.
const MaxAllocSize = math.MaxInt

// Unbounded is the capacity reported by collections whose records occupy no
// storage.
const Unbounded = math.MaxInt

// AllocLayout describes an allocation request.
type AllocLayout struct {
	Size  int
	Align int
}

// Allocator hands out byte regions for column buffers.
//
// Grow must return a region of at least new.Size bytes whose first old.Size
// bytes equal the contents of b. It may return b extended in place or a
// different region; in the latter case b is no longer owned by the caller.
type Allocator interface {
	Allocate(l AllocLayout) ([]byte, error)
	Grow(b []byte, old, new AllocLayout) ([]byte, error)
	Deallocate(b []byte, l AllocLayout)
}
