package shaper

// SlotHandle is an index into a Segment's slot arena. It stands in for a
// pointer: slots are never moved, only recycled through the segment's
// free-list, so a handle stays valid for the lifetime of the segment even
// across insertions and deletions (§9 "cyclic slot graph").
type SlotHandle int32

// NullSlot is the zero-value-safe sentinel for "no slot".
const NullSlot SlotHandle = -1

// SlotFlags are the per-slot lifecycle bits from §3.
type SlotFlags uint8

const (
	SlotInserted SlotFlags = 1 << iota
	SlotDeleted
	SlotCopied
	SlotBase

	// SlotWhitespace marks a slot whose glyph has an empty ink bounding
	// box (§4.6 "zero-bbox (whitespace) slots") even though its advance
	// is non-zero. Set at slot construction from cmap input; the collider
	// reads it through glyphBBox rather than testing advance directly,
	// since advance and ink extent are independent quantities.
	SlotWhitespace
)

// Slot is one positioned glyph occurrence (§3). Predecessor/successor links
// form the stream; parent/firstChild/nextSibling links form the attachment
// tree. All links are handles into the owning Segment's arena, never Go
// pointers, so the graph can be cyclic-looking (attachment trees reference
// back into the stream) without creating actual reference cycles.
type Slot struct {
	gid uint16

	// original cluster bounds in the source text, set once at segment
	// construction and never touched by passes.
	before, after int

	prev, next SlotHandle

	parent      SlotHandle
	firstChild  SlotHandle
	nextSibling SlotHandle

	originX, originY float32
	advance          float32
	attachX, attachY float32

	attrs [AttrMax]int32

	flags SlotFlags
}

func (s *Slot) isInserted() bool   { return s.flags&SlotInserted != 0 }
func (s *Slot) isDeleted() bool    { return s.flags&SlotDeleted != 0 }
func (s *Slot) isCopied() bool     { return s.flags&SlotCopied != 0 }
func (s *Slot) isBase() bool       { return s.flags&SlotBase != 0 }
func (s *Slot) isWhitespace() bool { return s.flags&SlotWhitespace != 0 }

// Attr returns the value stored for attribute code c, or 0 if c is out of
// range (the public observation API never faults on a bad attribute code;
// only bytecode does, when it runs).
func (s *Slot) Attr(c AttrCode) int32 {
	if !c.valid() {
		return 0
	}
	return s.attrs[c]
}

// SetAttr stores v under attribute code c. Callers (the VM's action-mode
// opcodes) are expected to have already validated c.
func (s *Slot) SetAttr(c AttrCode, v int32) {
	if c.valid() {
		s.attrs[c] = v
	}
}

// Gid returns the glyph id this slot renders.
func (s *Slot) Gid() uint16 { return s.gid }

// OriginX and OriginY return the slot's derived pen position.
func (s *Slot) OriginX() float32 { return s.originX }
func (s *Slot) OriginY() float32 { return s.originY }

// Before and After return the original cluster bounds (§6 "original").
func (s *Slot) Before() int { return s.before }
func (s *Slot) After() int  { return s.after }
