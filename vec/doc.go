// Package vec provides columnar (struct-of-arrays) collections.
//
// A collection stores every field of its record type in its own contiguous
// sub-array, all inside a single allocation. Fields are ordered largest
// first, so when capacity grows the sub-arrays shift towards the end of the
// allocation without ever overlapping.
//
// Vec[T] is the typed form for pointer-free Go structs:
//
//	type Point struct{ X, Y float64; Tag uint8 }
//
//	points := vec.New[Point]()
//	points.Push(Point{X: 1, Y: 2, Tag: 7})
//	xs := vec.Field[float64](points, "X")
//
// Table is the untyped form, driven by a record.Descriptor built from WIT
// types, a schema file or explicit sizes. Values go in as raw bytes and
// come out as typed views:
//
//	t := vec.NewTable(desc)
//	t.PushRaw(a, b, c)
//	col := vec.Column[uint32](t, 2)
//
// Views alias the table's storage and are invalidated by any operation that
// may grow it (Push, PushRaw, Append, Reserve). Collections are not safe for
// concurrent use.
//
// Capacity overflow and allocator failure are fatal: they panic with an
// *errors.Error. TryReserve is the recoverable alternative.
package vec
