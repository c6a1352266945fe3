// Package colvec provides struct-of-arrays storage for Go records.
//
// A record type with N fields is stored as N contiguous sub-arrays inside a
// single allocation: every field-0 value first, then every field-1 value, and
// so on. Fields are packed largest first so the relative position of each
// sub-array is a fixed multiple of the capacity, and growing the buffer only
// shifts the tail sub-arrays upward.
//
// # Architecture Overview
//
//	colvec/             Root package with the Allocator interface
//	├── layout/         Field ordering, offsets, relocation on growth
//	├── raw/            Growable buffer: allocate, grow, relocate, release
//	├── vec/            Columnar collections (Table, Vec[T]) and field views
//	├── record/         Record descriptors from Go structs, WIT, or YAML
//	├── alloc/          Allocator backends (heap, mmap, metered, limited)
//	│   └── linear/     Allocator over wazero linear memory
//	└── errors/         Structured error types
//
// # Quick Start
//
//	type Point struct {
//	    X, Y  float64
//	    Flags uint8
//	}
//
//	v := vec.New[Point]()
//	defer v.Release()
//
//	v.Push(Point{X: 1, Y: 2, Flags: 1})
//	xs := vec.Column[float64](v.Table(), 0)
//
// # Memory Model
//
// Capacity only grows. Every field sub-array starts at capacity times the
// field's offset, and capacity is always a multiple of the record alignment,
// so each sub-array stays aligned for its own type without padding.
//
// Field views alias the buffer. A view must not be used after the collection
// is pushed to, appended to, reserved, or released.
//
// # Thread Safety
//
// Collections and buffers are not safe for concurrent use. Wrap them behind
// external synchronization when readers run concurrently.
package colvec
