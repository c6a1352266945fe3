package layout

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/wippyai/colvec/errors"
)

// Field is one record field in planned order.
// Offset is measured in bytes per element of capacity: at capacity c the
// field's sub-array starts at byte c*Offset.
type Field struct {
	Index  int
	Size   int
	Offset int
}

// Layout is the planned ordering of a record's fields.
type Layout struct {
	fields    []Field // sorted by Size desc, Index asc
	offsets   []int   // by original index
	sizes     []int   // by original index
	footprint int
}

// Plan orders fields by size, largest first, with ties broken by declaration
// index, and assigns cumulative offsets in that order.
func Plan(sizes ...int) (*Layout, error) {
	l := &Layout{
		fields:  make([]Field, len(sizes)),
		offsets: make([]int, len(sizes)),
		sizes:   append([]int(nil), sizes...),
	}

	for i, size := range sizes {
		if size < 0 {
			return nil, errors.New(errors.PhasePlan, errors.KindInvalidInput).
				Field(strconv.Itoa(i)).
				Value(size).
				Detail("negative field size %d", size).
				Build()
		}
		l.fields[i] = Field{Index: i, Size: size}
	}

	sort.SliceStable(l.fields, func(i, j int) bool {
		return l.fields[i].Size > l.fields[j].Size
	})

	offset := 0
	for i := range l.fields {
		f := &l.fields[i]
		f.Offset = offset
		l.offsets[f.Index] = offset
		if f.Size > math.MaxInt-offset {
			return nil, errors.CapacityOverflow(errors.PhasePlan, "record footprint overflows int")
		}
		offset += f.Size
	}
	l.footprint = offset

	return l, nil
}

// MustPlan is like Plan but panics on error.
func MustPlan(sizes ...int) *Layout {
	l, err := Plan(sizes...)
	if err != nil {
		panic(err)
	}
	return l
}

// NumFields returns the number of fields.
func (l *Layout) NumFields() int { return len(l.sizes) }

// Footprint returns the sum of all field sizes.
func (l *Layout) Footprint() int { return l.footprint }

// OffsetOf returns the capacity-relative offset of the field declared at index.
func (l *Layout) OffsetOf(index int) int { return l.offsets[index] }

// SizeOf returns the byte size of the field declared at index.
func (l *Layout) SizeOf(index int) int { return l.sizes[index] }

// Fields returns the fields in planned order.
func (l *Layout) Fields() []Field { return append([]Field(nil), l.fields...) }

// Sizes returns the field sizes in declaration order.
func (l *Layout) Sizes() []int { return append([]int(nil), l.sizes...) }

// Span returns the byte range occupied by the sub-array of the field declared
// at index when the buffer holds capacity elements.
func (l *Layout) Span(index, capacity int) (start, end int) {
	start = capacity * l.offsets[index]
	return start, start + capacity*l.sizes[index]
}

// Equal reports whether l and other produce identical buffers.
func (l *Layout) Equal(other *Layout) bool {
	if l == other {
		return true
	}
	if other == nil || len(l.sizes) != len(other.sizes) {
		return false
	}
	for i := range l.sizes {
		if l.sizes[i] != other.sizes[i] {
			return false
		}
	}
	return true
}

// Validate checks the planner invariants.
func (l *Layout) Validate() error {
	prev := -1
	for rank, f := range l.fields {
		if f.Offset < prev {
			return errors.InvalidInput(errors.PhasePlan, "offsets decrease in planned order")
		}
		prev = f.Offset
		if f.Offset+f.Size > l.footprint {
			return errors.New(errors.PhasePlan, errors.KindOutOfBounds).
				Field(strconv.Itoa(f.Index)).
				Detail("offset %d + size %d exceeds footprint %d", f.Offset, f.Size, l.footprint).
				Build()
		}
		if rank > 0 && f.Size > l.fields[rank-1].Size {
			return errors.InvalidInput(errors.PhasePlan, "fields not ordered by size")
		}
	}
	if len(l.fields) > 0 && l.fields[0].Offset != 0 {
		return errors.InvalidInput(errors.PhasePlan, "largest field is not at offset 0")
	}
	return nil
}

// String renders the plan as "index:size@offset" entries in planned order.
func (l *Layout) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, f := range l.fields {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(f.Index))
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(f.Size))
		b.WriteByte('@')
		b.WriteString(strconv.Itoa(f.Offset))
	}
	b.WriteString("] footprint=")
	b.WriteString(strconv.Itoa(l.footprint))
	return b.String()
}
