//go:build !linux

package alloc

import "github.com/wippyai/colvec"

// Mmap is only available on Linux. Elsewhere every request fails with
// ErrUnsupported.
type Mmap struct{}

var _ colvec.Allocator = Mmap{}

// MmapSupported reports whether Mmap works on this platform.
const MmapSupported = false

func (Mmap) Allocate(colvec.AllocLayout) ([]byte, error) { return nil, ErrUnsupported }

func (Mmap) Grow([]byte, colvec.AllocLayout, colvec.AllocLayout) ([]byte, error) {
	return nil, ErrUnsupported
}

func (Mmap) Deallocate([]byte, colvec.AllocLayout) {}
