package linear

// encodeULEB128 encodes an unsigned value in LEB128 format.
func encodeULEB128(v uint32) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		result = append(result, b)
		if v == 0 {
			break
		}
	}
	return result
}

const (
	sectionMemory = 0x05
	sectionExport = 0x07

	limitsMinMax     = 0x01
	externKindMemory = 0x02
)

// memoryModule returns a core module that defines one memory with the given
// page limits and exports it under exportName.
func memoryModule(exportName string, initial, max uint32) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	var mem []byte
	mem = append(mem, 0x01, limitsMinMax)
	mem = append(mem, encodeULEB128(initial)...)
	mem = append(mem, encodeULEB128(max)...)
	out = appendSection(out, sectionMemory, mem)

	var exp []byte
	exp = append(exp, 0x01)
	exp = append(exp, encodeULEB128(uint32(len(exportName)))...)
	exp = append(exp, exportName...)
	exp = append(exp, externKindMemory, 0x00)
	out = appendSection(out, sectionExport, exp)

	return out
}

func appendSection(out []byte, id byte, body []byte) []byte {
	out = append(out, id)
	out = append(out, encodeULEB128(uint32(len(body)))...)
	return append(out, body...)
}
