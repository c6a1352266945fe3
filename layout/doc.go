// Package layout plans how a record's fields share one columnar buffer.
//
// Given the byte size of every field, Plan orders the fields largest first
// (ties broken by declaration order) and assigns each an offset equal to the
// sum of the sizes before it. At capacity c, the sub-array of a field starts
// at byte c*offset and spans c*size bytes, so the sub-arrays tile the buffer
// exactly with no padding.
//
// # Layout Rules
//
//   - Offsets are capacity multipliers, not byte positions.
//   - The largest field sits at offset 0 and never moves when the buffer grows.
//   - Every other field moves upward on growth; Relocate performs the moves
//     from the highest offset down so that none overwrites unread data.
//
// # Usage
//
//	l := layout.MustPlan(1, 4, 2, 4)
//	l.OffsetOf(0)   // 10: two 4-byte fields and one 2-byte field precede it
//	l.Footprint()   // 11
//	l.Relocate(buf, oldCap, newCap, length)
package layout
