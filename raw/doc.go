// Package raw manages the single allocation behind a columnar collection.
//
// A Buffer holds the field sub-arrays of a record type back to back, in the
// order chosen by the layout planner. Growth is amortized: capacity at least
// doubles, small buffers skip straight to a minimum non-zero capacity, and
// every capacity is a multiple of the record alignment. When capacity
// changes, live field data is moved to the positions the new capacity
// requires.
//
// Errors on the default path (Reserve, GrowOne, WithCapacity) are fatal and
// panic with an *errors.Error after being logged. The Try variants return the
// same errors instead and leave the buffer unchanged.
//
// A Buffer does not know its length; the owning collection passes it in.
package raw
