package vec

import (
	"reflect"
	"sync"

	"github.com/wippyai/colvec/errors"
	"github.com/wippyai/colvec/internal/unsafex"
	"github.com/wippyai/colvec/record"
)

// Vec is a columnar collection of struct values. Each field of T is stored
// in its own contiguous sub-array. T must be pointer-free.
type Vec[T any] struct {
	t *Table
}

var descriptors sync.Map // reflect.Type -> *record.Descriptor

func descriptorFor[T any]() *record.Descriptor {
	typ := reflect.TypeFor[T]()
	if d, ok := descriptors.Load(typ); ok {
		return d.(*record.Descriptor)
	}
	d, err := record.FromType(typ)
	if err != nil {
		panic(err)
	}
	actual, _ := descriptors.LoadOrStore(typ, d)
	return actual.(*record.Descriptor)
}

// New returns an empty Vec. It panics if T is not a pointer-free struct.
func New[T any](opts ...Option) *Vec[T] {
	return &Vec[T]{t: NewTable(descriptorFor[T](), opts...)}
}

// WithCapacity returns a Vec that holds at least n values before
// reallocating.
func WithCapacity[T any](n int, opts ...Option) *Vec[T] {
	return &Vec[T]{t: NewTableWithCapacity(descriptorFor[T](), n, opts...)}
}

// Table returns the untyped table backing v.
func (v *Vec[T]) Table() *Table { return v.t }

// Len returns the number of values.
func (v *Vec[T]) Len() int { return v.t.len }

// Capacity returns the number of values v holds without growing.
func (v *Vec[T]) Capacity() int { return v.t.Capacity() }

// Reserve ensures at least additional more values fit without growing.
func (v *Vec[T]) Reserve(additional int) { v.t.Reserve(additional) }

// TryReserve is like Reserve but returns the error instead of panicking.
func (v *Vec[T]) TryReserve(additional int) error { return v.t.TryReserve(additional) }

// Push appends x.
func (v *Vec[T]) Push(x T) {
	at := v.t.makeRoom()
	v.store(at, &x)
	v.t.len = at + 1
}

// Append moves every value of other to the end of v, leaving other empty.
func (v *Vec[T]) Append(other *Vec[T]) { v.t.Append(other.t) }

// CopyFrom overwrites every value of v with the values of src. Lengths must
// match.
func (v *Vec[T]) CopyFrom(src *Vec[T]) { v.t.CopyFrom(src.t) }

// At returns the value at index i.
func (v *Vec[T]) At(i int) T {
	v.t.checkIndex(i, errors.PhaseView)
	var x T
	if v.t.desc.Footprint() == 0 {
		return x
	}
	cols := v.t.buf.Columns()
	for f, field := range v.t.desc.Fields {
		copy(unsafex.Bytes(&x, field.Offset, field.Size), cols.Slot(f, i))
	}
	return x
}

// Set overwrites the value at index i.
func (v *Vec[T]) Set(i int, x T) {
	v.t.checkIndex(i, errors.PhaseView)
	v.store(i, &x)
}

// Swap exchanges the values at i and j.
func (v *Vec[T]) Swap(i, j int) { v.t.Swap(i, j) }

// SwapRemove removes and returns the value at i, moving the last value into
// its place.
func (v *Vec[T]) SwapRemove(i int) T {
	x := v.At(i)
	v.t.SwapRemove(i)
	return x
}

// Pop removes and returns the last value. ok is false when v is empty.
func (v *Vec[T]) Pop() (x T, ok bool) {
	if v.t.len == 0 {
		return x, false
	}
	x = v.At(v.t.len - 1)
	v.t.len--
	return x, true
}

// All calls yield for each index and value in order.
func (v *Vec[T]) All(yield func(int, T) bool) {
	for i := 0; i < v.t.len; i++ {
		if !yield(i, v.At(i)) {
			return
		}
	}
}

// Truncate shortens v to n values.
func (v *Vec[T]) Truncate(n int) { v.t.Truncate(n) }

// Clear removes every value and keeps the allocation.
func (v *Vec[T]) Clear() { v.t.Clear() }

// Release returns the allocation to the allocator and empties v.
func (v *Vec[T]) Release() { v.t.Release() }

func (v *Vec[T]) store(i int, x *T) {
	if v.t.desc.Footprint() == 0 {
		return
	}
	cols := v.t.buf.Columns()
	for f, field := range v.t.desc.Fields {
		copy(cols.Slot(f, i), unsafex.Bytes(x, field.Offset, field.Size))
	}
}
