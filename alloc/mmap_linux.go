//go:build linux

package alloc

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/wippyai/colvec"
)

// Mmap backs each buffer with its own anonymous private mapping. Growth uses
// mremap, which lets the kernel extend the mapping or move its pages without
// copying.
type Mmap struct{}

var _ colvec.Allocator = Mmap{}

// MmapSupported reports whether Mmap works on this platform.
const MmapSupported = true

func (Mmap) Allocate(l colvec.AllocLayout) ([]byte, error) {
	n, err := mapLength(l)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("%w: mmap %d bytes: %v", ErrOutOfMemory, n, err)
	}
	return b[:l.Size], nil
}

func (m Mmap) Grow(b []byte, old, next colvec.AllocLayout) ([]byte, error) {
	if cap(b) == 0 {
		return m.Allocate(next)
	}
	n, err := mapLength(next)
	if err != nil {
		return nil, err
	}
	if n <= cap(b) {
		return b[:next.Size], nil
	}
	nb, err := unix.Mremap(b[:cap(b)], n, unix.MREMAP_MAYMOVE)
	if err != nil {
		return nil, fmt.Errorf("%w: mremap to %d bytes: %v", ErrOutOfMemory, n, err)
	}
	return nb[:next.Size], nil
}

func (Mmap) Deallocate(b []byte, _ colvec.AllocLayout) {
	if cap(b) == 0 {
		return
	}
	if err := unix.Munmap(b[:cap(b)]); err != nil {
		panic(fmt.Sprintf("alloc: munmap: %v", err))
	}
}

// mapLength rounds the request up to whole pages.
func mapLength(l colvec.AllocLayout) (int, error) {
	page := unix.Getpagesize()
	if l.Align > page {
		return 0, fmt.Errorf("%w: %d exceeds page size %d", ErrAlignment, l.Align, page)
	}
	if l.Size > int(^uint(0)>>1)-page {
		return 0, fmt.Errorf("%w: %d bytes", ErrOutOfMemory, l.Size)
	}
	return (l.Size + page - 1) &^ (page - 1), nil
}
