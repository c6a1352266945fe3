package record

import (
	"reflect"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/colvec/errors"
)

// Of builds a descriptor for the struct type T. Each non-blank field becomes
// a column. T must be pointer-free: column storage is not scanned by the
// garbage collector.
func Of[T any]() (*Descriptor, error) {
	return FromType(reflect.TypeFor[T]())
}

// MustOf is like Of but panics on error.
func MustOf[T any]() *Descriptor {
	d, err := Of[T]()
	if err != nil {
		panic(err)
	}
	return d
}

// FromType builds a descriptor for a struct type.
func FromType(t reflect.Type) (*Descriptor, error) {
	if t == nil || t.Kind() != reflect.Struct {
		name := "<nil>"
		if t != nil {
			name = t.String()
		}
		return nil, errors.New(errors.PhaseDescribe, errors.KindUnsupported).
			GoType(name).
			Detail("record types must be structs").
			Build()
	}

	fields := make([]Field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Name == "_" {
			continue
		}
		if HasPointers(sf.Type) {
			return nil, errors.TypeMismatch(errors.PhaseDescribe, sf.Name, sf.Type.String(),
				"field holds pointers; column storage is not scanned by the garbage collector")
		}
		fields = append(fields, Field{
			Name:    sf.Name,
			Size:    int(sf.Type.Size()),
			Align:   sf.Type.Align(),
			Offset:  int(sf.Offset),
			GoType:  sf.Type,
			WitType: witFor(sf.Type),
		})
	}

	d, err := New(t.Name(), t.Align(), fields...)
	if err != nil {
		return nil, err
	}
	d.goType = t
	return d, nil
}

// HasPointers reports whether values of t contain anything the garbage
// collector would need to trace.
func HasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Chan,
		reflect.Func, reflect.Interface, reflect.Slice, reflect.String:
		return true
	case reflect.Array:
		return t.Len() > 0 && HasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if HasPointers(t.Field(i).Type) {
				return true
			}
		}
	}
	return false
}

// witFor maps scalar Go kinds onto their WIT equivalents.
func witFor(t reflect.Type) wit.Type {
	switch t.Kind() {
	case reflect.Bool:
		return wit.Bool{}
	case reflect.Int8:
		return wit.S8{}
	case reflect.Uint8:
		return wit.U8{}
	case reflect.Int16:
		return wit.S16{}
	case reflect.Uint16:
		return wit.U16{}
	case reflect.Int32:
		return wit.S32{}
	case reflect.Uint32:
		return wit.U32{}
	case reflect.Int64:
		return wit.S64{}
	case reflect.Uint64:
		return wit.U64{}
	case reflect.Int:
		if t.Size() == 8 {
			return wit.S64{}
		}
		return wit.S32{}
	case reflect.Uint, reflect.Uintptr:
		if t.Size() == 8 {
			return wit.U64{}
		}
		return wit.U32{}
	case reflect.Float32:
		return wit.F32{}
	case reflect.Float64:
		return wit.F64{}
	}
	return nil
}
