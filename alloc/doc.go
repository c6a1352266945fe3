// Package alloc provides allocators for colvec buffers.
//
//   - Heap: Go heap regions, reclaimed by the garbage collector.
//   - Mmap: one anonymous mapping per buffer, grown with mremap (Linux only).
//   - Limited: caps the bytes an inner allocator may have outstanding.
//   - Metered: records allocator traffic as Prometheus metrics.
//
// The linear subpackage serves buffers out of a WebAssembly linear memory.
//
// Regions returned by these allocators hold raw field bytes only. The
// collections that use them store pointer-free element types, so the
// garbage collector never needs to scan a region.
package alloc
