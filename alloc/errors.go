package alloc

import stderrors "errors"

// Sentinel causes returned by the allocators in this package. Buffers wrap
// them in an allocation error, so errors.Is still finds them.
var (
	ErrOutOfMemory    = stderrors.New("alloc: out of memory")
	ErrBudgetExceeded = stderrors.New("alloc: budget exceeded")
	ErrUnsupported    = stderrors.New("alloc: unsupported on this platform")
	ErrAlignment      = stderrors.New("alloc: unsupported alignment")
)
