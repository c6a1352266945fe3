// Package linear serves colvec buffers out of a WebAssembly linear memory.
//
// The allocator owns a wazero runtime holding a single exported memory.
// The memory's full maximum is reserved up front, so growing it never moves
// existing bytes and every region handed out stays valid until it is freed.
// Region offsets are linear memory addresses, which lets columns be shared
// with guest code that imports the same memory.
//
//	a, err := linear.New(ctx, linear.Config{MaxPages: 64})
//	if err != nil {
//		return err
//	}
//	defer a.Close(ctx)
//
//	points := vec.New[Point](vec.WithAllocator(a))
package linear
