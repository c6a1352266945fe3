package record

import (
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/colvec/errors"
)

// FromWIT builds a descriptor from a WIT record. Field sizes and alignments
// follow the canonical ABI, so a column holds exactly the bytes a guest
// would store for that field.
func FromWIT(name string, r *wit.Record) (*Descriptor, error) {
	if r == nil {
		return nil, errors.InvalidInput(errors.PhaseDescribe, "nil WIT record")
	}
	c := newCalculator()
	fields := make([]Field, len(r.Fields))
	for i, f := range r.Fields {
		if f.Type == nil {
			return nil, errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Field(f.Name).
				Detail("field has no type").
				Build()
		}
		info := c.calculate(f.Type)
		fields[i] = Field{
			Name:    f.Name,
			Size:    info.Size,
			Align:   info.Align,
			WitType: f.Type,
		}
	}
	return New(name, 0, fields...)
}

// ParseType parses a WIT type expression. Primitive names are resolved by
// wit.ParseType; option<T>, list<T>, tuple<T, ...> and result<T, E> are
// built here.
func ParseType(s string) (wit.Type, error) {
	s = strings.TrimSpace(s)
	ctor, args, ok := splitGeneric(s)
	if !ok {
		t, err := wit.ParseType(s)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseDescribe, errors.KindInvalidInput, err, "parse type "+s)
		}
		return t, nil
	}

	params := splitParams(args)
	types := make([]wit.Type, 0, len(params))
	for _, p := range params {
		if p == "_" {
			types = append(types, nil)
			continue
		}
		t, err := ParseType(p)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}

	want := func(n int) error {
		if len(types) != n {
			return errors.New(errors.PhaseDescribe, errors.KindInvalidInput).
				Detail("%s takes %d type arguments, got %d", ctor, n, len(types)).
				Build()
		}
		return nil
	}

	switch ctor {
	case "option":
		if err := want(1); err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: types[0]}}, nil
	case "list":
		if err := want(1); err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.List{Type: types[0]}}, nil
	case "tuple":
		return &wit.TypeDef{Kind: &wit.Tuple{Types: types}}, nil
	case "result":
		if err := want(2); err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Result{OK: types[0], Err: types[1]}}, nil
	default:
		return nil, errors.Unsupported(errors.PhaseDescribe, "type constructor "+ctor)
	}
}

// splitGeneric splits "name<args>" into name and args.
func splitGeneric(s string) (ctor, args string, ok bool) {
	open := strings.IndexByte(s, '<')
	if open <= 0 || !strings.HasSuffix(s, ">") {
		return "", "", false
	}
	return strings.TrimSpace(s[:open]), s[open+1 : len(s)-1], true
}

// splitParams splits a type argument list, handling nested brackets.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '<':
			depth++
			current.WriteRune(ch)
		case '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}

// TypeString renders a WIT type the way ParseType reads it.
func TypeString(t wit.Type) string {
	switch typ := t.(type) {
	case nil:
		return "_"
	case wit.Bool:
		return "bool"
	case wit.U8:
		return "u8"
	case wit.S8:
		return "s8"
	case wit.U16:
		return "u16"
	case wit.S16:
		return "s16"
	case wit.U32:
		return "u32"
	case wit.S32:
		return "s32"
	case wit.U64:
		return "u64"
	case wit.S64:
		return "s64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if typ.Name != nil {
			return *typ.Name
		}
		switch kind := typ.Kind.(type) {
		case *wit.Option:
			return "option<" + TypeString(kind.Type) + ">"
		case *wit.List:
			return "list<" + TypeString(kind.Type) + ">"
		case *wit.Result:
			return "result<" + TypeString(kind.OK) + ", " + TypeString(kind.Err) + ">"
		case *wit.Tuple:
			parts := make([]string, len(kind.Types))
			for i, e := range kind.Types {
				parts[i] = TypeString(e)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		case *wit.Record:
			return "record"
		case *wit.Variant:
			return "variant"
		case *wit.Enum:
			return "enum"
		case *wit.Flags:
			return "flags"
		case wit.Type:
			return TypeString(kind)
		}
	}
	return "unknown"
}
