package record

import "go.bytecodealliance.org/wit"

// typeInfo is the canonical ABI size and alignment of a WIT type.
type typeInfo struct {
	Size  int
	Align int
}

type calculator struct {
	cache map[*wit.TypeDef]typeInfo
}

func newCalculator() *calculator {
	return &calculator{cache: make(map[*wit.TypeDef]typeInfo)}
}

func (c *calculator) calculate(t wit.Type) typeInfo {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return typeInfo{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return typeInfo{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return typeInfo{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return typeInfo{Size: 8, Align: 8}
	case wit.String:
		return typeInfo{Size: 8, Align: 4} // [ptr: u32, len: u32]
	case *wit.TypeDef:
		return c.calculateTypeDef(typ)
	default:
		return typeInfo{Size: 0, Align: 1}
	}
}

func (c *calculator) calculateTypeDef(t *wit.TypeDef) typeInfo {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info typeInfo
	switch kind := t.Kind.(type) {
	case *wit.Record:
		info = c.sequence(recordTypes(kind))
	case *wit.Tuple:
		info = c.sequence(kind.Types)
	case *wit.Variant:
		payloads := make([]wit.Type, 0, len(kind.Cases))
		for _, cs := range kind.Cases {
			payloads = append(payloads, cs.Type)
		}
		info = c.tagged(discriminantSize(len(kind.Cases)), payloads...)
	case *wit.Option:
		info = c.tagged(1, kind.Type)
	case *wit.Result:
		info = c.tagged(1, kind.OK, kind.Err)
	case *wit.Enum:
		size := discriminantSize(len(kind.Cases))
		info = typeInfo{Size: size, Align: size}
	case *wit.Flags:
		info = flagsInfo(len(kind.Flags))
	case *wit.List:
		info = typeInfo{Size: 8, Align: 4}
	case *wit.Own, *wit.Borrow:
		info = typeInfo{Size: 4, Align: 4} // handle index
	case wit.Type:
		info = c.calculate(kind)
	default:
		info = typeInfo{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

func recordTypes(r *wit.Record) []wit.Type {
	types := make([]wit.Type, len(r.Fields))
	for i, f := range r.Fields {
		types[i] = f.Type
	}
	return types
}

// sequence lays members out one after another, each at its own alignment.
func (c *calculator) sequence(types []wit.Type) typeInfo {
	if len(types) == 0 {
		return typeInfo{Size: 0, Align: 1}
	}
	maxAlign := 1
	offset := 0
	for _, typ := range types {
		info := c.calculate(typ)
		offset = alignTo(offset, info.Align)
		maxAlign = max(maxAlign, info.Align)
		offset += info.Size
	}
	return typeInfo{Size: alignTo(offset, maxAlign), Align: maxAlign}
}

// tagged lays out a discriminant followed by the largest payload. Nil
// payloads are cases without data.
func (c *calculator) tagged(discSize int, payloads ...wit.Type) typeInfo {
	maxAlign := discSize
	maxSize := 0
	for _, p := range payloads {
		if p == nil {
			continue
		}
		info := c.calculate(p)
		maxAlign = max(maxAlign, info.Align)
		maxSize = max(maxSize, info.Size)
	}
	payloadOffset := alignTo(discSize, maxAlign)
	return typeInfo{Size: alignTo(payloadOffset+maxSize, maxAlign), Align: maxAlign}
}

func flagsInfo(n int) typeInfo {
	switch {
	case n == 0:
		return typeInfo{Size: 0, Align: 1}
	case n <= 8:
		return typeInfo{Size: 1, Align: 1}
	case n <= 16:
		return typeInfo{Size: 2, Align: 2}
	case n <= 32:
		return typeInfo{Size: 4, Align: 4}
	default:
		// one u32 per 32 flags
		return typeInfo{Size: (n + 31) / 32 * 4, Align: 4}
	}
}

// discriminantSize: 1 byte for <=256 cases, 2 for <=65536, else 4.
func discriminantSize(numCases int) int {
	switch {
	case numCases <= 1<<8:
		return 1
	case numCases <= 1<<16:
		return 2
	default:
		return 4
	}
}

func alignTo(offset, align int) int {
	return (offset + align - 1) &^ (align - 1)
}
