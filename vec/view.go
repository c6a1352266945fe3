package vec

import (
	"reflect"

	"github.com/wippyai/colvec/errors"
	"github.com/wippyai/colvec/internal/unsafex"
	"github.com/wippyai/colvec/record"
)

// Column returns the field declared at index as a typed slice of Len()
// elements. Writes through the slice update the table.
//
// When the field comes from a Go struct, F must be the field's type.
// Otherwise F must be pointer-free with the field's size and an alignment no
// larger than the field's. The slice is invalidated by any operation that
// may grow the table.
func Column[F any](t *Table, index int) []F {
	checkView[F](t.desc, index)
	return unsafex.Slice[F](t.Column(index), t.len)
}

// ColumnByName is like Column but looks the field up by name.
func ColumnByName[F any](t *Table, name string) []F {
	return Column[F](t, t.fieldIndex(name))
}

// Field returns the named field of v as a typed slice.
func Field[F any, T any](v *Vec[T], name string) []F {
	return ColumnByName[F](v.t, name)
}

func checkView[F any](d *record.Descriptor, index int) {
	if index < 0 || index >= d.NumFields() {
		panic(errors.New(errors.PhaseView, errors.KindOutOfBounds).
			Value(index).
			Detail("field %d out of range (%d fields)", index, d.NumFields()).
			Build())
	}
	field := d.Fields[index]
	ft := reflect.TypeFor[F]()

	if field.GoType != nil {
		if ft != field.GoType {
			panic(errors.TypeMismatch(errors.PhaseView, field.Name, ft.String(),
				"field has Go type "+field.GoType.String()))
		}
		return
	}

	switch {
	case record.HasPointers(ft):
		panic(errors.TypeMismatch(errors.PhaseView, field.Name, ft.String(), "view type holds pointers"))
	case int(ft.Size()) != field.Size:
		panic(errors.New(errors.PhaseView, errors.KindTypeMismatch).
			Field(field.Name).
			GoType(ft.String()).
			Detail("size %d does not match field size %d", ft.Size(), field.Size).
			Build())
	case ft.Align() > field.Align:
		panic(errors.New(errors.PhaseView, errors.KindTypeMismatch).
			Field(field.Name).
			GoType(ft.String()).
			Detail("alignment %d exceeds field alignment %d", ft.Align(), field.Align).
			Build())
	}
}
