package errors

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wippyai/colvec"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhasePlan     Phase = "plan"     // field ordering
	PhaseAllocate Phase = "allocate" // first allocation
	PhaseGrow     Phase = "grow"     // reallocation and relocation
	PhaseReserve  Phase = "reserve"  // capacity reservation
	PhasePush     Phase = "push"     // single element append
	PhaseAppend   Phase = "append"   // bulk append / copy
	PhaseView     Phase = "view"     // field view access
	PhaseDescribe Phase = "describe" // record descriptor construction
	PhaseRelease  Phase = "release"  // deallocation
)

// Kind categorizes the error
type Kind string

const (
	KindCapacityOverflow Kind = "capacity_overflow"
	KindAllocation       Kind = "allocation"
	KindLengthMismatch   Kind = "length_mismatch"
	KindTypeMismatch     Kind = "type_mismatch"
	KindOutOfBounds      Kind = "out_of_bounds"
	KindInvalidInput     Kind = "invalid_input"
	KindUnsupported      Kind = "unsupported"
	KindNotFound         Kind = "not_found"
)

// Error is the structured error type used throughout colvec
type Error struct {
	Value  any
	Cause  error
	Layout *colvec.AllocLayout
	Phase  Phase
	Kind   Kind
	Field  string
	GoType string
	Detail string
}

// Sentinels for errors.Is matching on kind alone.
var (
	ErrCapacityOverflow = &Error{Kind: KindCapacityOverflow}
	ErrAllocatorFailure = &Error{Kind: KindAllocation}
)

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Field != "" {
		b.WriteString(" at ")
		b.WriteString(e.Field)
	}

	if e.GoType != "" {
		b.WriteString(": Go type ")
		b.WriteString(e.GoType)
	}

	if e.Detail != "" {
		if e.GoType != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Layout != nil {
		b.WriteString(" (size=")
		b.WriteString(strconv.Itoa(e.Layout.Size))
		b.WriteString(", align=")
		b.WriteString(strconv.Itoa(e.Layout.Align))
		b.WriteByte(')')
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
// A target without a phase matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase == "" {
		return e.Kind == t.Kind
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Field sets the field name
func (b *Builder) Field(name string) *Builder {
	b.err.Field = name
	return b
}

// GoType sets the Go type name
func (b *Builder) GoType(t string) *Builder {
	b.err.GoType = t
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Layout sets the allocation request
func (b *Builder) Layout(l colvec.AllocLayout) *Builder {
	b.err.Layout = &l
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// CapacityOverflow creates a capacity overflow error
func CapacityOverflow(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindCapacityOverflow,
		Detail: detail,
	}
}

// AllocatorFailure creates an allocation failure error for the given request
func AllocatorFailure(phase Phase, l colvec.AllocLayout, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Layout: &l,
		Detail: fmt.Sprintf("failed to allocate %d bytes (align %d)", l.Size, l.Align),
		Cause:  cause,
	}
}

// LengthMismatch creates a length mismatch error
func LengthMismatch(phase Phase, dst, src int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLengthMismatch,
		Detail: fmt.Sprintf("source length %d does not match destination length %d", src, dst),
		Value:  src,
	}
}

// TypeMismatch creates a type mismatch error
func TypeMismatch(phase Phase, field, goType, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeMismatch,
		Field:  field,
		GoType: goType,
		Detail: detail,
	}
}

// OutOfBounds creates an out of bounds error
func OutOfBounds(phase Phase, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
