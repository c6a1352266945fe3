package raw

import (
	"go.uber.org/zap"

	"github.com/wippyai/colvec"
	"github.com/wippyai/colvec/errors"
	"github.com/wippyai/colvec/internal/unsafex"
	"github.com/wippyai/colvec/layout"
)

// Buffer owns one allocation holding the field sub-arrays of a record type.
//
// The zero capacity state holds no allocation. Capacity is always a multiple
// of the record alignment, so every sub-array start (capacity*offset) stays
// aligned for its field. A Buffer has a single owner: only that owner may
// call Release.
type Buffer struct {
	alloc colvec.Allocator
	plan  *layout.Layout
	data  []byte
	cap   int
	align int
}

// New returns an empty buffer. No allocation is performed.
func New(alloc colvec.Allocator, plan *layout.Layout, align int) *Buffer {
	if alloc == nil {
		panic(errors.InvalidInput(errors.PhaseAllocate, "nil allocator"))
	}
	if plan == nil {
		panic(errors.InvalidInput(errors.PhaseAllocate, "nil layout"))
	}
	if !isPowerOfTwo(align) {
		panic(errors.New(errors.PhaseAllocate, errors.KindInvalidInput).
			Value(align).
			Detail("alignment %d is not a power of two", align).
			Build())
	}
	return &Buffer{alloc: alloc, plan: plan, align: align}
}

// WithCapacity returns a buffer that can hold at least capacity elements
// without reallocating. It panics on capacity overflow or allocator failure.
func WithCapacity(capacity int, alloc colvec.Allocator, plan *layout.Layout, align int) *Buffer {
	b, err := TryWithCapacity(capacity, alloc, plan, align)
	if err != nil {
		handleError(err)
	}
	return b
}

// TryWithCapacity is like WithCapacity but returns the error instead of
// panicking.
func TryWithCapacity(capacity int, alloc colvec.Allocator, plan *layout.Layout, align int) (*Buffer, error) {
	b := New(alloc, plan, align)
	if capacity < 0 {
		return nil, errors.New(errors.PhaseAllocate, errors.KindInvalidInput).
			Value(capacity).
			Detail("negative capacity %d", capacity).
			Build()
	}

	capacity, ok := alignUp(capacity, align)
	if !ok {
		return nil, errors.CapacityOverflow(errors.PhaseAllocate, "capacity overflows int when aligned")
	}
	l, err := b.layoutFor(capacity, errors.PhaseAllocate)
	if err != nil {
		return nil, err
	}
	if l.Size == 0 {
		return b, nil
	}

	data, err := b.alloc.Allocate(l)
	if err != nil {
		return nil, errors.AllocatorFailure(errors.PhaseAllocate, l, err)
	}
	if err := b.checkRegion(data, l, errors.PhaseAllocate); err != nil {
		return nil, err
	}
	b.data = data[:l.Size]
	b.cap = capacity
	return b, nil
}

// Capacity returns the number of elements the buffer can hold without
// growing. Records with no storage report colvec.Unbounded.
func (b *Buffer) Capacity() int {
	if b.plan.Footprint() == 0 {
		return colvec.Unbounded
	}
	return b.cap
}

// Bytes returns the whole allocation, or nil when nothing is allocated.
func (b *Buffer) Bytes() []byte { return b.data }

// Layout returns the field plan the buffer is laid out with.
func (b *Buffer) Layout() *layout.Layout { return b.plan }

// Align returns the record alignment.
func (b *Buffer) Align() int { return b.align }

// Allocator returns the allocator backing the buffer.
func (b *Buffer) Allocator() colvec.Allocator { return b.alloc }

// Columns returns the addressing view over the current allocation.
// It is invalidated by any growth or release.
func (b *Buffer) Columns() Columns {
	return Columns{data: b.data, cap: b.cap, plan: b.plan}
}

// Reserve ensures that length+additional elements fit. It panics on
// capacity overflow or allocator failure.
func (b *Buffer) Reserve(length, additional int) {
	if b.needsToGrow(length, additional) {
		if err := b.growAmortized(length, additional, errors.PhaseReserve); err != nil {
			handleError(err)
		}
	}
}

// TryReserve is the fallible form of Reserve. The buffer is unchanged when
// an error is returned.
func (b *Buffer) TryReserve(length, additional int) error {
	if additional < 0 {
		return errors.InvalidInput(errors.PhaseReserve, "negative reservation")
	}
	if !b.needsToGrow(length, additional) {
		return nil
	}
	return b.growAmortized(length, additional, errors.PhaseReserve)
}

// GrowOne grows the buffer so that at least one more element fits after a
// full buffer. It panics on capacity overflow or allocator failure.
func (b *Buffer) GrowOne() {
	if err := b.growAmortized(b.cap, 1, errors.PhaseGrow); err != nil {
		handleError(err)
	}
}

// Release returns the allocation to the allocator. Field values are not
// visited. The buffer is left empty and a second call does nothing.
func (b *Buffer) Release() {
	if l, ok := b.currentMemory(); ok {
		b.alloc.Deallocate(b.data, l)
		Logger().Debug("buffer released", zap.Int("bytes", l.Size))
	}
	b.data = nil
	b.cap = 0
}

func (b *Buffer) needsToGrow(length, additional int) bool {
	return additional > b.Capacity()-length
}

func (b *Buffer) currentMemory() (colvec.AllocLayout, bool) {
	if b.plan.Footprint() == 0 || b.cap == 0 {
		return colvec.AllocLayout{}, false
	}
	// cannot overflow: the allocation already exists
	return colvec.AllocLayout{Size: b.cap * b.plan.Footprint(), Align: b.align}, true
}

func (b *Buffer) layoutFor(capacity int, phase errors.Phase) (colvec.AllocLayout, error) {
	size, ok := safeMul(capacity, b.plan.Footprint())
	if !ok || size > colvec.MaxAllocSize {
		return colvec.AllocLayout{}, errors.New(phase, errors.KindCapacityOverflow).
			Value(capacity).
			Detail("%d elements of %d bytes exceed the allocation limit", capacity, b.plan.Footprint()).
			Build()
	}
	return colvec.AllocLayout{Size: size, Align: b.align}, nil
}

func (b *Buffer) growAmortized(length, additional int, phase errors.Phase) error {
	if b.plan.Footprint() == 0 {
		// Capacity is unbounded, so reaching here means the length is full.
		return errors.CapacityOverflow(phase, "length of zero-size collection overflows int")
	}

	required, ok := safeAdd(length, additional)
	if !ok {
		return errors.CapacityOverflow(phase, "required capacity overflows int")
	}

	doubled, ok := safeMul(b.cap, 2)
	if !ok {
		doubled = required
	}
	capacity := max(doubled, required, minNonZeroCap(b.plan.Footprint()))
	capacity, ok = alignUp(capacity, b.align)
	if !ok {
		return errors.CapacityOverflow(phase, "capacity overflows int when aligned")
	}

	l, err := b.layoutFor(capacity, phase)
	if err != nil {
		return err
	}

	data, relocated, err := b.finishGrow(l, capacity, length, phase)
	if err != nil {
		return err
	}

	Logger().Debug("buffer grown",
		zap.Int("old_capacity", b.cap),
		zap.Int("new_capacity", capacity),
		zap.Int("length", length),
		zap.Int("bytes", l.Size),
		zap.Bool("moved", relocated),
	)

	b.data = data
	b.cap = capacity
	return nil
}

// finishGrow obtains the new region and moves live field data into the
// positions required by the new capacity.
func (b *Buffer) finishGrow(l colvec.AllocLayout, capacity, length int, phase errors.Phase) ([]byte, bool, error) {
	cur, ok := b.currentMemory()
	if !ok {
		data, err := b.alloc.Allocate(l)
		if err != nil {
			return nil, false, errors.AllocatorFailure(phase, l, err)
		}
		if err := b.checkRegion(data, l, phase); err != nil {
			return nil, false, err
		}
		return data[:l.Size], false, nil
	}

	data, err := b.alloc.Grow(b.data, cur, l)
	if err != nil {
		return nil, false, errors.AllocatorFailure(phase, l, err)
	}
	if err := b.checkRegion(data, l, phase); err != nil {
		return nil, false, err
	}
	data = data[:l.Size]
	moved := unsafex.Addr(data) != unsafex.Addr(b.data)

	if length > b.cap {
		length = b.cap
	}
	b.plan.Relocate(data, b.cap, capacity, length)
	return data, moved, nil
}

func (b *Buffer) checkRegion(data []byte, l colvec.AllocLayout, phase errors.Phase) error {
	if len(data) < l.Size {
		return errors.New(phase, errors.KindAllocation).
			Layout(l).
			Detail("allocator returned %d bytes, want %d", len(data), l.Size).
			Build()
	}
	if !unsafex.IsAligned(data, l.Align) {
		return errors.New(phase, errors.KindAllocation).
			Layout(l).
			Detail("allocator returned a region not aligned to %d", l.Align).
			Build()
	}
	return nil
}

// handleError reports a fatal buffer error. Capacity overflow and allocator
// failure are not recoverable on the default path; callers that need to
// recover use the Try variants.
func handleError(err error) {
	Logger().Error("fatal buffer error", zap.Error(err))
	panic(err)
}
