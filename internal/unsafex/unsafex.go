// Package unsafex holds every pointer conversion colvec performs.
//
// Column storage is a plain []byte. Typed views reinterpret sub-ranges of it
// as slices of pointer-free element types, and record values are read and
// written field by field through their in-memory byte representation.
// Callers are responsible for passing only pointer-free types; the record
// package enforces that when descriptors are built.
package unsafex

import "unsafe"

// Slice reinterprets b as n elements of T.
// b must hold at least n*sizeof(T) bytes and be aligned for T.
func Slice[T any](b []byte, n int) []T {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if size == 0 {
		return make([]T, n)
	}
	if n == 0 {
		return []T{}
	}
	if len(b) < n*size {
		panic("unsafex: byte slice too short for element count")
	}
	p := unsafe.Pointer(unsafe.SliceData(b))
	if uintptr(p)%unsafe.Alignof(zero) != 0 {
		panic("unsafex: misaligned view")
	}
	return unsafe.Slice((*T)(p), n)
}

// Bytes returns the in-memory representation of *v starting at offset and
// spanning size bytes.
func Bytes[T any](v *T, offset, size int) []byte {
	if size == 0 {
		return nil
	}
	p := unsafe.Add(unsafe.Pointer(v), offset)
	return unsafe.Slice((*byte)(p), size)
}

// Words reinterprets a []uint64 as bytes. The result is 8-byte aligned.
func Words(w []uint64) []byte {
	if len(w) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(w))), 8*len(w))
}

// Addr returns the address of the first byte of b, or 0 for an empty slice.
func Addr(b []byte) uintptr {
	if cap(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// AlignShift returns how many bytes must be skipped from the start of b so
// the next byte is aligned to align. align must be a power of two.
func AlignShift(b []byte, align int) int {
	addr := Addr(b)
	a := uintptr(align)
	return int((a - addr%a) % a)
}

// IsAligned reports whether b starts at a multiple of align.
func IsAligned(b []byte, align int) bool {
	if align <= 1 || cap(b) == 0 {
		return true
	}
	return Addr(b)%uintptr(align) == 0
}

// Offset returns the byte distance from the start of base to the start of b.
// Both slices must come from the same underlying array.
func Offset(base, b []byte) int {
	return int(Addr(b) - Addr(base))
}
