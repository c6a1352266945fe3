package layout

import (
	"errors"
	"testing"

	colerrors "github.com/wippyai/colvec/errors"
)

func TestPlanConcrete(t *testing.T) {
	l := MustPlan(1, 4, 2, 4)

	wantOrder := []Field{
		{Index: 1, Size: 4, Offset: 0},
		{Index: 3, Size: 4, Offset: 4},
		{Index: 2, Size: 2, Offset: 8},
		{Index: 0, Size: 1, Offset: 10},
	}
	got := l.Fields()
	if len(got) != len(wantOrder) {
		t.Fatalf("fields: got %d, want %d", len(got), len(wantOrder))
	}
	for i := range wantOrder {
		if got[i] != wantOrder[i] {
			t.Errorf("field %d: got %+v, want %+v", i, got[i], wantOrder[i])
		}
	}

	wantOffsets := map[int]int{0: 10, 1: 0, 2: 8, 3: 4}
	for idx, off := range wantOffsets {
		if l.OffsetOf(idx) != off {
			t.Errorf("OffsetOf(%d): got %d, want %d", idx, l.OffsetOf(idx), off)
		}
	}
	if l.Footprint() != 11 {
		t.Errorf("footprint: got %d, want 11", l.Footprint())
	}
	if l.String() != "[1:4@0 3:4@4 2:2@8 0:1@10] footprint=11" {
		t.Errorf("String: got %q", l.String())
	}
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name      string
		sizes     []int
		offsets   []int
		footprint int
	}{
		{"empty", nil, []int{}, 0},
		{"single", []int{8}, []int{0}, 8},
		{"all_zero", []int{0, 0, 0}, []int{0, 0, 0}, 0},
		{"ascending", []int{1, 2, 4, 8}, []int{14, 12, 8, 0}, 15},
		{"descending", []int{8, 4, 2, 1}, []int{0, 8, 12, 14}, 15},
		{"ties_keep_declaration_order", []int{2, 2, 2}, []int{0, 2, 4}, 6},
		{"zero_sized_last", []int{0, 4, 0, 1}, []int{5, 0, 5, 4}, 5},
		{"sample_record", []int{1, 2, 2, 4}, []int{8, 4, 6, 0}, 9},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, err := Plan(tc.sizes...)
			if err != nil {
				t.Fatalf("Plan: %v", err)
			}
			if l.NumFields() != len(tc.sizes) {
				t.Errorf("NumFields: got %d, want %d", l.NumFields(), len(tc.sizes))
			}
			for i, want := range tc.offsets {
				if got := l.OffsetOf(i); got != want {
					t.Errorf("OffsetOf(%d): got %d, want %d", i, got, want)
				}
				if got := l.SizeOf(i); got != tc.sizes[i] {
					t.Errorf("SizeOf(%d): got %d, want %d", i, got, tc.sizes[i])
				}
			}
			if l.Footprint() != tc.footprint {
				t.Errorf("footprint: got %d, want %d", l.Footprint(), tc.footprint)
			}
			if err := l.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestPlanNegativeSize(t *testing.T) {
	_, err := Plan(4, -1)
	if err == nil {
		t.Fatal("expected error")
	}
	var e *colerrors.Error
	if !errors.As(err, &e) || e.Kind != colerrors.KindInvalidInput {
		t.Errorf("got %v, want invalid_input", err)
	}
	if e.Field != "1" {
		t.Errorf("Field: got %q, want 1", e.Field)
	}
}

func TestPlanFootprintOverflow(t *testing.T) {
	const big = int(^uint(0)>>1) - 1
	_, err := Plan(big, big)
	if !errors.Is(err, colerrors.ErrCapacityOverflow) {
		t.Errorf("got %v, want capacity overflow", err)
	}
}

func TestMustPlanPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	MustPlan(-3)
}

func TestSpan(t *testing.T) {
	l := MustPlan(1, 4, 2, 4)
	const capacity = 8

	covered := make([]int, capacity*l.Footprint())
	for i := 0; i < l.NumFields(); i++ {
		start, end := l.Span(i, capacity)
		if end-start != capacity*l.SizeOf(i) {
			t.Errorf("field %d: span length %d, want %d", i, end-start, capacity*l.SizeOf(i))
		}
		for b := start; b < end; b++ {
			covered[b]++
		}
	}
	for b, n := range covered {
		if n != 1 {
			t.Fatalf("byte %d covered %d times", b, n)
		}
	}
}

func TestEqual(t *testing.T) {
	a := MustPlan(1, 4)
	if !a.Equal(MustPlan(1, 4)) {
		t.Error("identical sizes should be equal")
	}
	if a.Equal(MustPlan(4, 1)) {
		t.Error("different declaration order should not be equal")
	}
	if a.Equal(nil) {
		t.Error("nil should not be equal")
	}
}

func TestPlannedOffsetsProperty(t *testing.T) {
	sets := [][]int{
		{1}, {3, 5, 7}, {16, 1, 8, 2, 4}, {0, 1, 0, 2}, {12, 12, 1, 12},
		{9, 3, 9, 3, 9, 3}, {1024, 1, 2048},
	}
	for _, sizes := range sets {
		l := MustPlan(sizes...)
		prev := 0
		for _, f := range l.Fields() {
			if f.Offset < prev {
				t.Errorf("%v: offsets decrease at field %d", sizes, f.Index)
			}
			prev = f.Offset
		}
		for i, size := range sizes {
			if l.OffsetOf(i)+size > l.Footprint() {
				t.Errorf("%v: field %d overruns footprint", sizes, i)
			}
		}
	}
}
