package record

import (
	"fmt"
	"reflect"
	"strconv"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/colvec/errors"
	"github.com/wippyai/colvec/layout"
)

// Field describes one field of a record type.
type Field struct {
	// GoType is the field's Go type when the record comes from a struct.
	GoType reflect.Type
	// WitType is the field's WIT type when the record comes from WIT or a
	// schema file.
	WitType wit.Type
	Name    string
	Size    int
	Align   int
	// Offset is the field's byte offset inside its Go struct, or -1 when the
	// record is not backed by one.
	Offset int
}

// TypeName returns a readable name for the field's type.
func (f Field) TypeName() string {
	switch {
	case f.WitType != nil:
		return TypeString(f.WitType)
	case f.GoType != nil:
		return f.GoType.String()
	default:
		return "bytes[" + strconv.Itoa(f.Size) + "]"
	}
}

// Descriptor describes a record type: its fields in declaration order and
// its alignment. The field plan is computed once when the descriptor is
// built. Descriptors are immutable and safe to share.
type Descriptor struct {
	goType reflect.Type
	plan   *layout.Layout
	byName map[string]int
	Name   string
	Fields []Field
	Align  int
}

// New builds a descriptor from explicit fields. Field alignments of 0 mean
// 1. An align of 0 selects the largest field alignment. Unnamed fields are
// named f0, f1, and so on.
func New(name string, align int, fields ...Field) (*Descriptor, error) {
	d := &Descriptor{
		Name:   name,
		Fields: make([]Field, len(fields)),
		byName: make(map[string]int, len(fields)),
	}

	maxAlign := 1
	for i, f := range fields {
		if f.Name == "" {
			f.Name = "f" + strconv.Itoa(i)
		}
		if f.Align == 0 {
			f.Align = 1
		}
		if f.GoType == nil {
			f.Offset = -1
		}
		if !isPowerOfTwo(f.Align) {
			return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Field(f.Name).
				Value(f.Align).
				Detail("alignment %d is not a power of two", f.Align).
				Build()
		}
		if f.Size%f.Align != 0 {
			return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Field(f.Name).
				Detail("size %d is not a multiple of alignment %d", f.Size, f.Align).
				Build()
		}
		if _, dup := d.byName[f.Name]; dup {
			return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Field(f.Name).
				Detail("duplicate field name").
				Build()
		}
		d.byName[f.Name] = i
		d.Fields[i] = f
		maxAlign = max(maxAlign, f.Align)
	}

	switch {
	case align == 0:
		align = maxAlign
	case !isPowerOfTwo(align):
		return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
			Value(align).
			Detail("record alignment %d is not a power of two", align).
			Build()
	case align < maxAlign:
		return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
			Value(align).
			Detail("record alignment %d is below field alignment %d", align, maxAlign).
			Build()
	}
	d.Align = align

	sizes := make([]int, len(d.Fields))
	for i, f := range d.Fields {
		sizes[i] = f.Size
	}
	plan, err := layout.Plan(sizes...)
	if err != nil {
		return nil, err
	}
	d.plan = plan
	return d, nil
}

// MustNew is like New but panics on error.
func MustNew(name string, align int, fields ...Field) *Descriptor {
	d, err := New(name, align, fields...)
	if err != nil {
		panic(err)
	}
	return d
}

// Sizes builds an anonymous descriptor from field sizes alone, each field
// aligned to its size when that is a power of two and to 1 otherwise.
func Sizes(sizes ...int) (*Descriptor, error) {
	fields := make([]Field, len(sizes))
	for i, size := range sizes {
		align := 1
		if isPowerOfTwo(size) {
			align = min(size, 8)
		}
		fields[i] = Field{Size: size, Align: align}
	}
	return New("", 0, fields...)
}

// Layout returns the planned field order.
func (d *Descriptor) Layout() *layout.Layout { return d.plan }

// Footprint returns the sum of all field sizes.
func (d *Descriptor) Footprint() int { return d.plan.Footprint() }

// NumFields returns the number of fields.
func (d *Descriptor) NumFields() int { return len(d.Fields) }

// GoType returns the struct type the descriptor was built from, or nil.
func (d *Descriptor) GoType() reflect.Type { return d.goType }

// FieldIndex returns the declaration index of the named field.
func (d *Descriptor) FieldIndex(name string) (int, bool) {
	i, ok := d.byName[name]
	return i, ok
}

// Equal reports whether d and other describe interchangeable storage: the
// same field sizes in the same order and the same alignment. Names are not
// compared.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == other {
		return true
	}
	if other == nil || d.Align != other.Align {
		return false
	}
	return d.plan.Equal(other.plan)
}

func (d *Descriptor) String() string {
	name := d.Name
	if name == "" {
		name = "record"
	}
	return fmt.Sprintf("%s{%d fields, footprint %d, align %d}", name, len(d.Fields), d.Footprint(), d.Align)
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
