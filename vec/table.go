package vec

import (
	"github.com/wippyai/colvec/errors"
	"github.com/wippyai/colvec/raw"
	"github.com/wippyai/colvec/record"
)

// Table is a columnar collection of records described at runtime. Each field
// is stored in its own contiguous sub-array inside one allocation.
//
// Elements [0, Len()) are initialized in every field. Views returned by
// Column and its typed variants are invalidated by any operation that may
// grow the table. A Table is not safe for concurrent use.
type Table struct {
	desc *record.Descriptor
	buf  *raw.Buffer
	len  int
}

// NewTable returns an empty table. No allocation is performed.
func NewTable(desc *record.Descriptor, opts ...Option) *Table {
	o := buildOptions(opts)
	return &Table{
		desc: desc,
		buf:  raw.New(o.alloc, desc.Layout(), desc.Align),
	}
}

// NewTableWithCapacity returns a table that holds at least n records before
// reallocating.
func NewTableWithCapacity(desc *record.Descriptor, n int, opts ...Option) *Table {
	o := buildOptions(opts)
	return &Table{
		desc: desc,
		buf:  raw.WithCapacity(n, o.alloc, desc.Layout(), desc.Align),
	}
}

// Descriptor returns the record descriptor.
func (t *Table) Descriptor() *record.Descriptor { return t.desc }

// Len returns the number of records.
func (t *Table) Len() int { return t.len }

// Capacity returns the number of records the table holds without growing.
func (t *Table) Capacity() int { return t.buf.Capacity() }

// Bytes returns the raw allocation, or nil when nothing is allocated.
func (t *Table) Bytes() []byte { return t.buf.Bytes() }

// Reserve ensures at least additional more records fit without growing.
func (t *Table) Reserve(additional int) { t.buf.Reserve(t.len, additional) }

// TryReserve is like Reserve but returns capacity overflow and allocator
// failures instead of panicking.
func (t *Table) TryReserve(additional int) error { return t.buf.TryReserve(t.len, additional) }

// PushRaw appends one record given as one byte slice per field in
// declaration order.
func (t *Table) PushRaw(fields ...[]byte) {
	plan := t.desc.Layout()
	if len(fields) != plan.NumFields() {
		panic(errors.New(errors.PhasePush, errors.KindLengthMismatch).
			Value(len(fields)).
			Detail("got %d field values, record has %d fields", len(fields), plan.NumFields()).
			Build())
	}
	for i, f := range fields {
		if len(f) != plan.SizeOf(i) {
			panic(errors.New(errors.PhasePush, errors.KindLengthMismatch).
				Field(t.desc.Fields[i].Name).
				Value(len(f)).
				Detail("got %d bytes, field size is %d", len(f), plan.SizeOf(i)).
				Build())
		}
	}

	at := t.makeRoom()
	if plan.Footprint() > 0 {
		cols := t.buf.Columns()
		for i, f := range fields {
			copy(cols.Slot(i, at), f)
		}
	}
	t.len = at + 1
}

// makeRoom grows the buffer when it is full and returns the index the next
// record is written at.
func (t *Table) makeRoom() int {
	if t.len == t.buf.Capacity() {
		t.buf.GrowOne()
	}
	return t.len
}

// Append moves every record of other to the end of t, leaving other empty.
// other keeps its allocation. Both tables must have equal descriptors.
func (t *Table) Append(other *Table) {
	if other == t {
		panic(errors.InvalidInput(errors.PhaseAppend, "cannot append a table to itself"))
	}
	t.checkCompatible(other, errors.PhaseAppend)

	n := other.len
	if n == 0 {
		return
	}
	t.Reserve(n)
	if t.desc.Footprint() > 0 {
		t.desc.Layout().Copy(t.buf.Bytes(), other.buf.Bytes(), t.buf.Capacity(), other.buf.Capacity(), t.len, n)
	}
	t.len += n
	other.len = 0
}

// CopyFrom overwrites every record of t with the records of src. The
// tables must hold the same number of records.
func (t *Table) CopyFrom(src *Table) {
	if src.len != t.len {
		panic(errors.LengthMismatch(errors.PhaseAppend, t.len, src.len))
	}
	t.checkCompatible(src, errors.PhaseAppend)
	if src == t || t.len == 0 || t.desc.Footprint() == 0 {
		return
	}
	t.desc.Layout().Copy(t.buf.Bytes(), src.buf.Bytes(), t.buf.Capacity(), src.buf.Capacity(), 0, t.len)
}

func (t *Table) checkCompatible(other *Table, phase errors.Phase) {
	if !t.desc.Equal(other.desc) {
		panic(errors.New(phase, errors.KindTypeMismatch).
			Detail("record %s is not compatible with %s", other.desc, t.desc).
			Build())
	}
}

// Column returns the bytes of the field declared at index for all records.
// Record i occupies bytes [i*size, (i+1)*size).
func (t *Table) Column(index int) []byte {
	return t.buf.Columns().Column(index, t.len)
}

// ColumnByName is like Column but looks the field up by name.
func (t *Table) ColumnByName(name string) []byte {
	return t.Column(t.fieldIndex(name))
}

// Cell returns the bytes of one field of record i.
func (t *Table) Cell(i, index int) []byte {
	t.checkIndex(i, errors.PhaseView)
	return t.buf.Columns().Slot(index, i)
}

// Swap exchanges records i and j in every field.
func (t *Table) Swap(i, j int) {
	t.checkIndex(i, errors.PhaseView)
	t.checkIndex(j, errors.PhaseView)
	if i == j {
		return
	}
	cols := t.buf.Columns()
	for f := 0; f < t.desc.NumFields(); f++ {
		a, b := cols.Slot(f, i), cols.Slot(f, j)
		for k := range a {
			a[k], b[k] = b[k], a[k]
		}
	}
}

// SwapRemove removes record i by moving the last record into its place.
func (t *Table) SwapRemove(i int) {
	t.checkIndex(i, errors.PhaseView)
	last := t.len - 1
	if i != last {
		cols := t.buf.Columns()
		for f := 0; f < t.desc.NumFields(); f++ {
			copy(cols.Slot(f, i), cols.Slot(f, last))
		}
	}
	t.len = last
}

// Truncate shortens the table to n records. It has no effect when n is not
// below the current length.
func (t *Table) Truncate(n int) {
	if n < 0 {
		panic(errors.OutOfBounds(errors.PhaseView, n, t.len))
	}
	if n < t.len {
		t.len = n
	}
}

// Clear removes every record and keeps the allocation.
func (t *Table) Clear() { t.len = 0 }

// Release returns the allocation to the allocator and empties the table.
// The table may be reused afterwards.
func (t *Table) Release() {
	t.buf.Release()
	t.len = 0
}

func (t *Table) fieldIndex(name string) int {
	i, ok := t.desc.FieldIndex(name)
	if !ok {
		panic(errors.NotFound(errors.PhaseView, "field", name))
	}
	return i
}

func (t *Table) checkIndex(i int, phase errors.Phase) {
	if i < 0 || i >= t.len {
		panic(errors.OutOfBounds(phase, i, t.len))
	}
}
