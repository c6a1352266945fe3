package raw

import (
	"strconv"

	"github.com/wippyai/colvec/errors"
	"github.com/wippyai/colvec/layout"
)

// Columns addresses the field sub-arrays of one allocation. It is a
// snapshot: any growth or release of the owning Buffer invalidates it.
type Columns struct {
	plan *layout.Layout
	data []byte
	cap  int
}

// Capacity returns the element capacity the view was taken at.
func (c Columns) Capacity() int { return c.cap }

// Column returns the first length elements of the field declared at index
// as raw bytes. The returned slice's capacity extends to the end of the
// field's sub-array, so appending within capacity never touches a
// neighbouring field.
func (c Columns) Column(index, length int) []byte {
	c.checkField(index)
	size := c.plan.SizeOf(index)
	if size == 0 {
		return nil
	}
	if length < 0 || length > c.cap {
		panic(errors.New(errors.PhaseView, errors.KindOutOfBounds).
			Field(strconv.Itoa(index)).
			Value(length).
			Detail("length %d exceeds capacity %d", length, c.cap).
			Build())
	}
	start, end := c.plan.Span(index, c.cap)
	return c.data[start : start+length*size : end]
}

// Slot returns the bytes of element at in the field declared at index.
func (c Columns) Slot(index, at int) []byte {
	c.checkField(index)
	size := c.plan.SizeOf(index)
	if size == 0 {
		return nil
	}
	if at < 0 || at >= c.cap {
		panic(errors.OutOfBounds(errors.PhaseView, at, c.cap))
	}
	start := c.cap*c.plan.OffsetOf(index) + at*size
	return c.data[start : start+size : start+size]
}

func (c Columns) checkField(index int) {
	if index < 0 || index >= c.plan.NumFields() {
		panic(errors.New(errors.PhaseView, errors.KindOutOfBounds).
			Value(index).
			Detail("field %d out of range (%d fields)", index, c.plan.NumFields()).
			Build())
	}
}
