package linear

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/colvec"
	"github.com/wippyai/colvec/alloc"
	"github.com/wippyai/colvec/internal/unsafex"
)

// PageSize is the WebAssembly page size in bytes.
const PageSize = 65536

const (
	defaultMaxPages = 256 // 16 MiB
	maxPagesLimit   = 65535
	memoryExport    = "memory"

	// heapBase keeps offset 0 unused so it never names a live region.
	heapBase = 16
)

// Config holds configuration for a linear memory allocator.
type Config struct {
	// Name is the module name the memory is instantiated under.
	Name string

	// InitialPages is the number of 64 KiB pages committed up front.
	// 0 means 1.
	InitialPages uint32

	// MaxPages bounds the memory. 0 means 256 pages (16 MiB). The whole
	// range is reserved at creation so regions never move when the memory
	// grows.
	MaxPages uint32
}

type block struct {
	off, size int
}

// Allocator serves buffers out of a single WebAssembly linear memory.
//
// Blocks are handed out first-fit from a sorted free list, falling back to a
// bump pointer that grows the memory a page at a time. The block ending at
// the bump pointer grows in place. It is safe for concurrent use.
type Allocator struct {
	runtime wazero.Runtime
	mem     api.Memory
	base    []byte

	mu    sync.Mutex
	top   int
	limit int
	free  []block     // sorted by offset, coalesced
	live  map[int]int // offset -> size
}

var _ colvec.Allocator = (*Allocator)(nil)

// New creates a runtime holding one memory and returns an allocator over it.
// Close releases the runtime.
func New(ctx context.Context, cfg Config) (*Allocator, error) {
	if cfg.MaxPages == 0 {
		cfg.MaxPages = defaultMaxPages
	}
	if cfg.MaxPages > maxPagesLimit {
		return nil, fmt.Errorf("linear: max pages %d exceeds %d", cfg.MaxPages, maxPagesLimit)
	}
	if cfg.InitialPages == 0 {
		cfg.InitialPages = 1
	}
	if cfg.InitialPages > cfg.MaxPages {
		return nil, fmt.Errorf("linear: initial pages %d exceed max pages %d", cfg.InitialPages, cfg.MaxPages)
	}
	if cfg.Name == "" {
		cfg.Name = "colvec"
	}

	runtimeCfg := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(cfg.MaxPages).
		WithMemoryCapacityFromMax(true)
	r := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	compiled, err := r.CompileModule(ctx, memoryModule(memoryExport, cfg.InitialPages, cfg.MaxPages))
	if err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("compile failed: %w", err)
	}
	mod, err := r.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(cfg.Name))
	if err != nil {
		r.Close(ctx)
		return nil, fmt.Errorf("instantiate failed: %w", err)
	}

	mem := mod.ExportedMemory(memoryExport)
	if mem == nil {
		r.Close(ctx)
		return nil, fmt.Errorf("linear: module exports no memory")
	}
	base, ok := mem.Read(0, mem.Size())
	if !ok {
		r.Close(ctx)
		return nil, fmt.Errorf("linear: cannot read memory")
	}

	Logger().Debug("linear memory created",
		zap.String("name", cfg.Name),
		zap.Uint32("initial_pages", cfg.InitialPages),
		zap.Uint32("max_pages", cfg.MaxPages),
	)

	return &Allocator{
		runtime: r,
		mem:     mem,
		base:    base,
		top:     heapBase,
		limit:   int(cfg.MaxPages) * PageSize,
		live:    make(map[int]int),
	}, nil
}

// Close releases the runtime and its memory. Regions handed out by the
// allocator must not be used afterwards.
func (a *Allocator) Close(ctx context.Context) error {
	return a.runtime.Close(ctx)
}

// Memory returns the underlying WebAssembly memory.
func (a *Allocator) Memory() api.Memory { return a.mem }

// Stats describes the allocator's current state.
type Stats struct {
	Pages      uint32
	Top        int
	LiveBytes  int
	LiveBlocks int
	FreeBlocks int
}

// Stats returns a snapshot of the allocator's state.
func (a *Allocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Stats{
		Pages:      a.mem.Size() / PageSize,
		Top:        a.top,
		LiveBlocks: len(a.live),
		FreeBlocks: len(a.free),
	}
	for _, size := range a.live {
		s.LiveBytes += size
	}
	return s
}

// Offset returns the linear memory address of a region handed out by the
// allocator.
func (a *Allocator) Offset(b []byte) int {
	return unsafex.Offset(a.base, b)
}

func (a *Allocator) Allocate(l colvec.AllocLayout) ([]byte, error) {
	if l.Size == 0 {
		return nil, nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	off, err := a.take(l.Size, l.Align)
	if err != nil {
		return nil, err
	}
	return a.view(off, l.Size), nil
}

func (a *Allocator) Grow(b []byte, old, next colvec.AllocLayout) ([]byte, error) {
	if cap(b) == 0 {
		return a.Allocate(next)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	off, err := a.lookup(b, old.Size)
	if err != nil {
		return nil, err
	}
	end := off + old.Size
	delta := next.Size - old.Size

	if off%max(next.Align, 1) == 0 {
		// The block at the bump pointer extends into fresh memory.
		if end == a.top {
			if err := a.ensure(off + next.Size); err != nil {
				return nil, err
			}
			a.top = off + next.Size
			a.live[off] = next.Size
			return a.view(off, next.Size), nil
		}
		// A free neighbour directly after the block absorbs the growth.
		if i := a.freeAt(end); i >= 0 && a.free[i].size >= delta {
			a.free[i].off += delta
			a.free[i].size -= delta
			if a.free[i].size == 0 {
				a.free = append(a.free[:i], a.free[i+1:]...)
			}
			a.live[off] = next.Size
			return a.view(off, next.Size), nil
		}
	}

	noff, err := a.take(next.Size, next.Align)
	if err != nil {
		return nil, err
	}
	nb := a.view(noff, next.Size)
	copy(nb, a.view(off, old.Size))
	a.release(off)

	Logger().Debug("linear block moved",
		zap.Int("from", off),
		zap.Int("to", noff),
		zap.Int("size", next.Size),
	)
	return nb, nil
}

func (a *Allocator) Deallocate(b []byte, l colvec.AllocLayout) {
	if cap(b) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	off, err := a.lookup(b, l.Size)
	if err != nil {
		panic(err)
	}
	a.release(off)
}

func (a *Allocator) view(off, size int) []byte {
	b, ok := a.mem.Read(uint32(off), uint32(size))
	if !ok {
		panic(fmt.Sprintf("linear: region %d+%d outside memory", off, size))
	}
	return b
}

func (a *Allocator) lookup(b []byte, size int) (int, error) {
	off := unsafex.Offset(a.base, b)
	got, ok := a.live[off]
	if !ok {
		return 0, fmt.Errorf("linear: region at %d was not allocated here", off)
	}
	if got != size {
		return 0, fmt.Errorf("linear: region at %d has size %d, not %d", off, got, size)
	}
	return off, nil
}

// take reserves size bytes aligned to align and records them as live.
func (a *Allocator) take(size, align int) (int, error) {
	align = max(align, 1)
	for i, f := range a.free {
		start := alignUp(f.off, align)
		end := f.off + f.size
		if start+size > end {
			continue
		}
		var rest []block
		if start > f.off {
			rest = append(rest, block{f.off, start - f.off})
		}
		if start+size < end {
			rest = append(rest, block{start + size, end - start - size})
		}
		a.free = append(a.free[:i], append(rest, a.free[i+1:]...)...)
		a.live[start] = size
		return start, nil
	}

	start := alignUp(a.top, align)
	if size > a.limit-start {
		return 0, fmt.Errorf("%w: %d bytes exceed linear memory limit %d", alloc.ErrOutOfMemory, size, a.limit)
	}
	if err := a.ensure(start + size); err != nil {
		return 0, err
	}
	if start > a.top {
		a.insertFree(block{a.top, start - a.top})
	}
	a.top = start + size
	a.live[start] = size
	return start, nil
}

// release returns a live block to the free list.
func (a *Allocator) release(off int) {
	size := a.live[off]
	delete(a.live, off)
	a.insertFree(block{off, size})

	// Free space touching the bump pointer goes back to it.
	if n := len(a.free); n > 0 {
		last := a.free[n-1]
		if last.off+last.size == a.top {
			a.top = last.off
			a.free = a.free[:n-1]
		}
	}
}

func (a *Allocator) insertFree(b block) {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off >= b.off })
	a.free = append(a.free, block{})
	copy(a.free[i+1:], a.free[i:])
	a.free[i] = b

	if i+1 < len(a.free) && a.free[i].off+a.free[i].size == a.free[i+1].off {
		a.free[i].size += a.free[i+1].size
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}
	if i > 0 && a.free[i-1].off+a.free[i-1].size == a.free[i].off {
		a.free[i-1].size += a.free[i].size
		a.free = append(a.free[:i], a.free[i+1:]...)
	}
}

func (a *Allocator) freeAt(off int) int {
	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].off >= off })
	if i < len(a.free) && a.free[i].off == off {
		return i
	}
	return -1
}

// ensure grows the memory until it spans end bytes.
func (a *Allocator) ensure(end int) error {
	if end > a.limit {
		return fmt.Errorf("%w: %d bytes exceed linear memory limit %d", alloc.ErrOutOfMemory, end, a.limit)
	}
	size := int(a.mem.Size())
	if end <= size {
		return nil
	}
	pages := uint32((end - size + PageSize - 1) / PageSize)
	prev, ok := a.mem.Grow(pages)
	if !ok {
		return fmt.Errorf("%w: cannot grow linear memory by %d pages", alloc.ErrOutOfMemory, pages)
	}
	Logger().Debug("linear memory grown",
		zap.Uint32("from_pages", prev),
		zap.Uint32("to_pages", prev+pages),
	)
	return nil
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
