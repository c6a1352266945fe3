package raw

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/wippyai/colvec"
	"github.com/wippyai/colvec/errors"
	"github.com/wippyai/colvec/internal/unsafex"
	"github.com/wippyai/colvec/layout"
)

var errOOM = stderrors.New("out of memory")

// testAlloc hands out 8-byte aligned regions and records every call.
type testAlloc struct {
	limit    int  // fail requests above this size; 0 means never
	move     bool // always move on Grow
	spare    int  // extra backing capacity handed out by Allocate
	misalign bool

	allocs, grows, frees int
	live                 int
}

func alignedBytes(n, spare int) []byte {
	words := make([]uint64, (n+spare+7)/8)
	return unsafex.Words(words)[:n]
}

func (a *testAlloc) Allocate(l colvec.AllocLayout) ([]byte, error) {
	if a.limit > 0 && l.Size > a.limit {
		return nil, errOOM
	}
	a.allocs++
	a.live += l.Size
	b := alignedBytes(l.Size+1, a.spare)
	if a.misalign {
		return b[1:], nil
	}
	return b[:l.Size], nil
}

func (a *testAlloc) Grow(b []byte, old, next colvec.AllocLayout) ([]byte, error) {
	if a.limit > 0 && next.Size > a.limit {
		return nil, errOOM
	}
	a.grows++
	a.live += next.Size - old.Size
	if !a.move && cap(b) >= next.Size {
		return b[:next.Size], nil
	}
	nb := alignedBytes(next.Size, a.spare)
	copy(nb, b[:old.Size])
	return nb, nil
}

func (a *testAlloc) Deallocate(b []byte, l colvec.AllocLayout) {
	a.frees++
	a.live -= l.Size
}

func expectPanicKind(t *testing.T, kind errors.Kind, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		e, ok := r.(*errors.Error)
		if !ok {
			t.Fatalf("panic value %T, want *errors.Error", r)
		}
		if e.Kind != kind {
			t.Fatalf("panic kind %s, want %s", e.Kind, kind)
		}
	}()
	fn()
}

func TestNew(t *testing.T) {
	a := &testAlloc{}
	b := New(a, layout.MustPlan(1, 2, 2, 4), 4)
	if b.Capacity() != 0 {
		t.Errorf("Capacity: got %d, want 0", b.Capacity())
	}
	if b.Bytes() != nil {
		t.Error("Bytes should be nil before first growth")
	}
	if a.allocs != 0 {
		t.Errorf("allocs: got %d, want 0", a.allocs)
	}
	if b.Align() != 4 || b.Allocator() != a {
		t.Error("accessors do not reflect construction arguments")
	}
}

func TestNewRejectsBadArguments(t *testing.T) {
	plan := layout.MustPlan(4)
	tests := []struct {
		name string
		fn   func()
	}{
		{"nil_allocator", func() { New(nil, plan, 4) }},
		{"nil_layout", func() { New(&testAlloc{}, nil, 4) }},
		{"zero_align", func() { New(&testAlloc{}, plan, 0) }},
		{"odd_align", func() { New(&testAlloc{}, plan, 3) }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			expectPanicKind(t, errors.KindInvalidInput, tc.fn)
		})
	}
}

func TestZeroFootprintCapacity(t *testing.T) {
	a := &testAlloc{}
	b := WithCapacity(100, a, layout.MustPlan(0, 0), 1)
	if b.Capacity() != colvec.Unbounded {
		t.Errorf("Capacity: got %d, want Unbounded", b.Capacity())
	}
	if a.allocs != 0 {
		t.Errorf("allocs: got %d, want 0", a.allocs)
	}
	if err := b.TryReserve(5, 1000); err != nil {
		t.Errorf("TryReserve within unbounded capacity: %v", err)
	}
	if err := b.TryReserve(math.MaxInt, 1); !stderrors.Is(err, errors.ErrCapacityOverflow) {
		t.Errorf("TryReserve past MaxInt: got %v, want capacity overflow", err)
	}
	expectPanicKind(t, errors.KindCapacityOverflow, b.GrowOne)
	b.Release()
	if a.frees != 0 {
		t.Errorf("frees: got %d, want 0", a.frees)
	}
}

func TestWithCapacity(t *testing.T) {
	tests := []struct {
		name      string
		sizes     []int
		align     int
		request   int
		wantCap   int
		wantBytes int
	}{
		{"rounds_to_align", []int{1, 2, 2, 4}, 4, 5, 8, 72},
		{"already_aligned", []int{1, 2, 2, 4}, 4, 8, 8, 72},
		{"align_one", []int{3}, 1, 7, 7, 21},
		{"zero_request", []int{8}, 8, 0, 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := &testAlloc{}
			b := WithCapacity(tc.request, a, layout.MustPlan(tc.sizes...), tc.align)
			if b.Capacity() != tc.wantCap {
				t.Errorf("Capacity: got %d, want %d", b.Capacity(), tc.wantCap)
			}
			if len(b.Bytes()) != tc.wantBytes {
				t.Errorf("bytes: got %d, want %d", len(b.Bytes()), tc.wantBytes)
			}
			if tc.wantBytes == 0 && a.allocs != 0 {
				t.Error("empty request should not allocate")
			}
		})
	}
}

func TestTryWithCapacityErrors(t *testing.T) {
	plan := layout.MustPlan(8, 8)

	_, err := TryWithCapacity(math.MaxInt/8, &testAlloc{}, plan, 8)
	if !stderrors.Is(err, errors.ErrCapacityOverflow) {
		t.Errorf("oversized: got %v, want capacity overflow", err)
	}

	_, err = TryWithCapacity(-1, &testAlloc{}, plan, 8)
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidInput {
		t.Errorf("negative: got %v, want invalid input", err)
	}

	_, err = TryWithCapacity(64, &testAlloc{limit: 16}, plan, 8)
	if !stderrors.Is(err, errors.ErrAllocatorFailure) {
		t.Errorf("limited: got %v, want allocator failure", err)
	}
	if !stderrors.Is(err, errOOM) {
		t.Errorf("allocator cause not preserved: %v", err)
	}
}

func TestGrowOneMinimumCapacity(t *testing.T) {
	tests := []struct {
		name    string
		sizes   []int
		wantCap int
	}{
		{"footprint_one", []int{1}, 8},
		{"footprint_small", []int{1, 2, 2, 4}, 4},
		{"footprint_1024", []int{1024}, 4},
		{"footprint_large", []int{1025}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := New(&testAlloc{}, layout.MustPlan(tc.sizes...), 1)
			b.GrowOne()
			if b.Capacity() != tc.wantCap {
				t.Errorf("Capacity: got %d, want %d", b.Capacity(), tc.wantCap)
			}
		})
	}
}

func TestGrowOneDoubles(t *testing.T) {
	a := &testAlloc{}
	b := New(a, layout.MustPlan(1, 2, 2, 4), 4)
	want := []int{4, 8, 16, 32, 64}
	for i, w := range want {
		b.GrowOne()
		if b.Capacity() != w {
			t.Fatalf("growth %d: got %d, want %d", i, b.Capacity(), w)
		}
	}
	if a.allocs != 1 || a.grows != len(want)-1 {
		t.Errorf("allocs=%d grows=%d", a.allocs, a.grows)
	}
}

func TestReserve(t *testing.T) {
	a := &testAlloc{}
	b := New(a, layout.MustPlan(1, 2, 2, 4), 4)

	b.Reserve(0, 10)
	if b.Capacity() != 12 {
		t.Errorf("first reserve: got %d, want 12", b.Capacity())
	}

	b.Reserve(10, 2)
	if a.allocs+a.grows != 1 {
		t.Error("reserve within capacity must not reallocate")
	}

	b.Reserve(12, 1)
	if b.Capacity() != 24 {
		t.Errorf("amortized reserve: got %d, want 24", b.Capacity())
	}

	b.Reserve(24, 100)
	if b.Capacity() != 124 {
		t.Errorf("large reserve: got %d, want 124", b.Capacity())
	}
}

func TestReserveOverflowPanics(t *testing.T) {
	b := New(&testAlloc{}, layout.MustPlan(4), 4)
	expectPanicKind(t, errors.KindCapacityOverflow, func() {
		b.Reserve(1, math.MaxInt)
	})
}

func TestReserveAllocatorFailurePanics(t *testing.T) {
	b := New(&testAlloc{limit: 64}, layout.MustPlan(4), 4)
	expectPanicKind(t, errors.KindAllocation, func() {
		b.Reserve(0, 1000)
	})
}

func TestTryReserveLeavesBufferUnchanged(t *testing.T) {
	a := &testAlloc{limit: 256}
	b := WithCapacity(16, a, layout.MustPlan(4, 4), 4)
	before := b.Bytes()

	if err := b.TryReserve(16, 100); !stderrors.Is(err, errors.ErrAllocatorFailure) {
		t.Fatalf("got %v, want allocator failure", err)
	}
	if b.Capacity() != 16 {
		t.Errorf("Capacity changed to %d", b.Capacity())
	}
	if &b.Bytes()[0] != &before[0] {
		t.Error("buffer region changed after failed reserve")
	}

	if err := b.TryReserve(16, math.MaxInt-8); !stderrors.Is(err, errors.ErrCapacityOverflow) {
		t.Fatalf("got %v, want capacity overflow", err)
	}
	if err := b.TryReserve(0, -1); err == nil {
		t.Error("negative reservation should fail")
	}
}

// push appends one element by writing each field's bytes, growing first
// when the buffer is full.
func push(b *Buffer, length, elem int) {
	if length == b.Capacity() {
		b.GrowOne()
	}
	cols := b.Columns()
	for f := 0; f < b.Layout().NumFields(); f++ {
		slot := cols.Slot(f, length)
		for i := range slot {
			slot[i] = byte(f*37 + elem*11 + i + 1)
		}
	}
}

func checkElems(t *testing.T, b *Buffer, length int) {
	t.Helper()
	cols := b.Columns()
	for f := 0; f < b.Layout().NumFields(); f++ {
		col := cols.Column(f, length)
		size := b.Layout().SizeOf(f)
		for e := 0; e < length; e++ {
			for i := 0; i < size; i++ {
				if got, want := col[e*size+i], byte(f*37+e*11+i+1); got != want {
					t.Fatalf("field %d elem %d byte %d: got %d, want %d", f, e, i, got, want)
				}
			}
		}
	}
}

func TestGrowthPreservesFields(t *testing.T) {
	tests := []struct {
		name  string
		alloc *testAlloc
	}{
		{"moving", &testAlloc{move: true}},
		{"in_place", &testAlloc{spare: 1 << 14}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := New(tc.alloc, layout.MustPlan(1, 2, 2, 4), 4)
			const n = 40
			for i := 0; i < n; i++ {
				push(b, i, i)
				checkElems(t, b, i+1)
			}
			if tc.alloc.grows < 2 {
				t.Errorf("expected at least two reallocations, got %d", tc.alloc.grows)
			}
			b.Release()
		})
	}
}

func TestReserveRelocatesPartialLength(t *testing.T) {
	b := WithCapacity(8, &testAlloc{spare: 4096}, layout.MustPlan(8, 1, 4), 8)
	for i := 0; i < 5; i++ {
		push(b, i, i)
	}
	b.Reserve(5, 50)
	if b.Capacity() != 56 {
		t.Errorf("Capacity: got %d, want 56", b.Capacity())
	}
	checkElems(t, b, 5)
}

func TestMisalignedRegion(t *testing.T) {
	_, err := TryWithCapacity(4, &testAlloc{misalign: true}, layout.MustPlan(4), 4)
	if !stderrors.Is(err, errors.ErrAllocatorFailure) {
		t.Errorf("got %v, want allocator failure", err)
	}
}

func TestRelease(t *testing.T) {
	a := &testAlloc{}
	b := WithCapacity(10, a, layout.MustPlan(4, 2), 4)
	b.Release()
	b.Release()
	if a.frees != 1 {
		t.Errorf("frees: got %d, want 1", a.frees)
	}
	if a.live != 0 {
		t.Errorf("live bytes after release: %d", a.live)
	}
	if b.Capacity() != 0 || b.Bytes() != nil {
		t.Error("released buffer should be empty")
	}

	// An empty buffer never allocated anything.
	empty := New(a, layout.MustPlan(4), 4)
	empty.Release()
	if a.frees != 1 {
		t.Errorf("frees after empty release: got %d, want 1", a.frees)
	}
}

func TestColumnsBounds(t *testing.T) {
	b := WithCapacity(4, &testAlloc{}, layout.MustPlan(4, 0, 2), 4)
	cols := b.Columns()

	if got := cols.Column(1, 4); got != nil {
		t.Errorf("zero-size column: got %v, want nil", got)
	}
	col := cols.Column(2, 3)
	if len(col) != 6 || cap(col) != 8 {
		t.Errorf("column len=%d cap=%d, want 6 and 8", len(col), cap(col))
	}

	expectPanicKind(t, errors.KindOutOfBounds, func() { cols.Column(3, 0) })
	expectPanicKind(t, errors.KindOutOfBounds, func() { cols.Column(0, 5) })
	expectPanicKind(t, errors.KindOutOfBounds, func() { cols.Slot(0, 4) })
	expectPanicKind(t, errors.KindOutOfBounds, func() { cols.Slot(-1, 0) })
}
