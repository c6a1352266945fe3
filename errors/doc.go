// Package errors provides structured error types for colvec.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). Allocation failures carry the request that could not be served.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseView, errors.KindTypeMismatch).
//		Field("coolness").
//		GoType("uint32").
//		Detail("field holds 8-byte values").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.CapacityOverflow(errors.PhaseReserve, "length overflows int")
//	err := errors.AllocatorFailure(errors.PhaseGrow, layout, cause)
//
// The two fatal kinds can be matched without a phase:
//
//	errors.Is(err, errors.ErrCapacityOverflow)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
