package layout

// Relocate moves the first length elements of every field from their
// positions at oldCap to their positions at newCap inside buf.
//
// Fields are moved in strictly descending offset order and the field at
// offset zero is left in place. With newCap > oldCap every destination lies
// above its own source and above every source not yet moved, so no move
// overwrites bytes that are still to be read.
func (l *Layout) Relocate(buf []byte, oldCap, newCap, length int) {
	if newCap < oldCap {
		panic("layout: relocate to a smaller capacity")
	}
	if length > oldCap {
		panic("layout: relocate length exceeds old capacity")
	}
	if newCap == oldCap || length == 0 {
		return
	}
	if len(buf) < newCap*l.footprint {
		panic("layout: relocate buffer shorter than new capacity")
	}

	for i := len(l.fields) - 1; i > 0; i-- {
		f := l.fields[i]
		n := length * f.Size
		if n == 0 {
			continue
		}
		src := oldCap * f.Offset
		dst := newCap * f.Offset
		copy(buf[dst:dst+n], buf[src:src+n])
	}
}

// Copy copies count elements of every field from src, laid out at srcCap,
// into dst, laid out at dstCap, starting at element dstStart.
// dst and src must not be the same buffer.
func (l *Layout) Copy(dst, src []byte, dstCap, srcCap, dstStart, count int) {
	if count == 0 {
		return
	}
	if count > srcCap || dstStart+count > dstCap {
		panic("layout: copy range exceeds capacity")
	}

	for _, f := range l.fields {
		n := count * f.Size
		if n == 0 {
			continue
		}
		s := srcCap * f.Offset
		d := dstCap*f.Offset + dstStart*f.Size
		copy(dst[d:d+n], src[s:s+n])
	}
}
