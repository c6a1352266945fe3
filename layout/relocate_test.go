package layout

import (
	"testing"
)

func pattern(field, elem, b int) byte {
	return byte(field*31 + elem*7 + b + 1)
}

// fill writes a recognizable pattern into the first length elements of every
// field, laid out at capacity.
func fill(l *Layout, buf []byte, capacity, length int) {
	for i := 0; i < l.NumFields(); i++ {
		size := l.SizeOf(i)
		start := capacity * l.OffsetOf(i)
		for e := 0; e < length; e++ {
			for b := 0; b < size; b++ {
				buf[start+e*size+b] = pattern(i, e, b)
			}
		}
	}
}

func verify(t *testing.T, l *Layout, buf []byte, capacity, length int) {
	t.Helper()
	for i := 0; i < l.NumFields(); i++ {
		size := l.SizeOf(i)
		start := capacity * l.OffsetOf(i)
		for e := 0; e < length; e++ {
			for b := 0; b < size; b++ {
				if got, want := buf[start+e*size+b], pattern(i, e, b); got != want {
					t.Fatalf("field %d elem %d byte %d: got %d, want %d", i, e, b, got, want)
				}
			}
		}
	}
}

func TestRelocate(t *testing.T) {
	tests := []struct {
		name   string
		sizes  []int
		oldCap int
		newCap int
		length int
	}{
		{"concrete_double", []int{1, 4, 2, 4}, 4, 8, 4},
		{"concrete_partial", []int{1, 4, 2, 4}, 8, 16, 5},
		{"minimal_growth", []int{1, 4, 2, 4}, 4, 5, 4},
		{"single_field", []int{8}, 4, 8, 4},
		{"equal_sizes", []int{4, 4, 4}, 3, 7, 3},
		{"with_zero_sized", []int{0, 2, 0, 1}, 8, 16, 8},
		{"large_jump", []int{1, 2, 2, 4}, 4, 1000, 4},
		{"empty_length", []int{1, 2}, 4, 8, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l := MustPlan(tc.sizes...)
			buf := make([]byte, tc.newCap*l.Footprint())
			fill(l, buf, tc.oldCap, tc.length)
			l.Relocate(buf, tc.oldCap, tc.newCap, tc.length)
			verify(t, l, buf, tc.newCap, tc.length)
		})
	}
}

func TestRelocateSameCapacity(t *testing.T) {
	l := MustPlan(2, 1)
	buf := make([]byte, 4*l.Footprint())
	fill(l, buf, 4, 3)
	l.Relocate(buf, 4, 4, 3)
	verify(t, l, buf, 4, 3)
}

func TestRelocateAscendingWouldCorrupt(t *testing.T) {
	// Moving fields lowest offset first clobbers the next field's source.
	l := MustPlan(4, 4, 4)
	const oldCap, newCap, length = 4, 8, 4
	buf := make([]byte, newCap*l.Footprint())
	fill(l, buf, oldCap, length)

	for _, f := range l.fields[1:] {
		n := length * f.Size
		copy(buf[newCap*f.Offset:newCap*f.Offset+n], buf[oldCap*f.Offset:oldCap*f.Offset+n])
	}

	start := newCap * l.OffsetOf(2)
	if buf[start] == pattern(2, 0, 0) {
		t.Fatal("expected ascending order to corrupt the last field")
	}
}

func TestRelocatePanics(t *testing.T) {
	l := MustPlan(4, 1)
	tests := []struct {
		name                     string
		bufLen, oldCap, newCap, n int
	}{
		{"shrink", 100, 8, 4, 2},
		{"length_exceeds_capacity", 100, 4, 8, 5},
		{"short_buffer", 10, 4, 8, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			l.Relocate(make([]byte, tc.bufLen), tc.oldCap, tc.newCap, tc.n)
		})
	}
}

func TestCopy(t *testing.T) {
	l := MustPlan(1, 4, 2, 4)
	const srcCap, dstCap = 4, 12

	src := make([]byte, srcCap*l.Footprint())
	fill(l, src, srcCap, 3)

	dst := make([]byte, dstCap*l.Footprint())
	l.Copy(dst, src, dstCap, srcCap, 5, 3)

	for i := 0; i < l.NumFields(); i++ {
		size := l.SizeOf(i)
		start := dstCap*l.OffsetOf(i) + 5*size
		for e := 0; e < 3; e++ {
			for b := 0; b < size; b++ {
				if got, want := dst[start+e*size+b], pattern(i, e, b); got != want {
					t.Fatalf("field %d elem %d: got %d, want %d", i, e, got, want)
				}
			}
		}
		// elements before dstStart stay untouched
		for b := dstCap * l.OffsetOf(i); b < start; b++ {
			if dst[b] != 0 {
				t.Fatalf("field %d: byte %d written before dstStart", i, b)
			}
		}
	}
}

func TestCopyOutOfRange(t *testing.T) {
	l := MustPlan(2)
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	l.Copy(make([]byte, 8), make([]byte, 8), 4, 4, 3, 2)
}

func FuzzRelocate(f *testing.F) {
	f.Add([]byte{1, 4, 2, 4}, uint8(4), uint8(4), uint8(4))
	f.Add([]byte{8, 1}, uint8(1), uint8(100), uint8(1))
	f.Add([]byte{0, 0, 3}, uint8(8), uint8(1), uint8(7))

	f.Fuzz(func(t *testing.T, raw []byte, oldCap, grow, length uint8) {
		if len(raw) == 0 || len(raw) > 16 {
			return
		}
		sizes := make([]int, len(raw))
		for i, b := range raw {
			sizes[i] = int(b % 17)
		}
		l := MustPlan(sizes...)
		if err := l.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}

		oc := int(oldCap)
		nc := oc + int(grow)
		n := int(length)
		if n > oc {
			n = oc
		}
		buf := make([]byte, nc*l.Footprint())
		fill(l, buf, oc, n)
		l.Relocate(buf, oc, nc, n)
		verify(t, l, buf, nc, n)
	})
}
