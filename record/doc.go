// Package record describes record types for columnar storage.
//
// A Descriptor lists a record's fields in declaration order with their byte
// sizes and alignments, plus the record alignment. The field plan (which
// field's sub-array goes where) is computed once when the descriptor is
// built.
//
// Descriptors come from four places:
//
//   - Of[T] reflects over a pointer-free Go struct.
//   - New takes explicit fields.
//   - FromWIT reads a WIT record using canonical ABI sizes.
//   - ParseYAML and LoadFile read a schema file whose field types are WIT
//     type expressions.
//
// Column storage is plain bytes the garbage collector never scans, so
// structs holding pointers, strings, slices, maps, channels, functions or
// interfaces are rejected.
package record
