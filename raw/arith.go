package raw

import "math"

func safeMul(a, b int) (int, bool) {
	if b != 0 && a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

func safeAdd(a, b int) (int, bool) {
	if a > math.MaxInt-b {
		return 0, false
	}
	return a + b, true
}

// alignUp rounds n up to a multiple of align, which must be a power of two.
func alignUp(n, align int) (int, bool) {
	if align <= 1 {
		return n, true
	}
	sum, ok := safeAdd(n, align-1)
	if !ok {
		return 0, false
	}
	return sum &^ (align - 1), true
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Tiny buffers are wasteful. Skip to:
//   - 8 if the footprint is 1, since heap allocators round small requests up.
//   - 4 if records are moderate-sized (<= 1 KiB).
//   - 1 otherwise, to avoid wasting space on short buffers of large records.
func minNonZeroCap(footprint int) int {
	switch {
	case footprint == 1:
		return 8
	case footprint <= 1024:
		return 4
	default:
		return 1
	}
}
