package shaper

// Direction is the writing direction of a segment.
type Direction int

const (
	DirLTR Direction = iota
	DirRTL
)

// SegFlags are per-segment state bits (§3).
type SegFlags uint8

const (
	// SegInitCollisions is set once positionSlots has established a
	// baseline for collision resolution, so a later pass that also
	// requests collision fixing does not redo the (idempotent, but
	// wasted) baseline pass. See DESIGN.md for the positionSlots
	// idempotence decision (§9 open question).
	SegInitCollisions SegFlags = 1 << iota
)

// Segment owns the slot stream for one shaping unit: a contiguous run with
// a direction and positions (§3). It is created per shape request and
// mutated only by the pass runner and the colliders.
type Segment struct {
	arena []Slot
	free  []SlotHandle

	first, last SlotHandle

	collisions []SlotCollision

	dir     Direction
	advance float32
	flags   SegFlags
}

// NewSegment builds an empty segment ready to receive an initial glyph run
// from a cmap collaborator (§6 "cmap processor").
func NewSegment(dir Direction) *Segment {
	return &Segment{first: NullSlot, last: NullSlot, dir: dir}
}

// alloc returns a fresh or recycled slot handle. Slots are exclusively
// owned by their segment (§3 lifecycle); there is no cross-segment sharing.
func (seg *Segment) alloc() SlotHandle {
	if n := len(seg.free); n > 0 {
		h := seg.free[n-1]
		seg.free = seg.free[:n-1]
		seg.arena[h] = Slot{prev: NullSlot, next: NullSlot, parent: NullSlot, firstChild: NullSlot, nextSibling: NullSlot}
		seg.collisions[h] = SlotCollision{}
		return h
	}
	seg.arena = append(seg.arena, Slot{prev: NullSlot, next: NullSlot, parent: NullSlot, firstChild: NullSlot, nextSibling: NullSlot})
	seg.collisions = append(seg.collisions, SlotCollision{})
	return SlotHandle(len(seg.arena) - 1)
}

// Slot returns a pointer into the arena for handle h. The pointer is only
// valid until the next call that may reallocate the arena (append); callers
// within a single pass step never hold it across an insertion.
func (seg *Segment) Slot(h SlotHandle) *Slot {
	if h == NullSlot {
		return nil
	}
	return &seg.arena[h]
}

// Collision returns the mutable collision record for handle h.
func (seg *Segment) Collision(h SlotHandle) *SlotCollision {
	if h == NullSlot {
		return nil
	}
	return &seg.collisions[h]
}

// First and Last return the boundary handles of the stream.
func (seg *Segment) First() SlotHandle { return seg.first }
func (seg *Segment) Last() SlotHandle  { return seg.last }

// Next and Prev walk the doubly linked stream.
func (seg *Segment) Next(h SlotHandle) SlotHandle {
	if h == NullSlot {
		return NullSlot
	}
	return seg.arena[h].next
}

func (seg *Segment) Prev(h SlotHandle) SlotHandle {
	if h == NullSlot {
		return NullSlot
	}
	return seg.arena[h].prev
}

func (seg *Segment) Dir() Direction    { return seg.dir }
func (seg *Segment) Advance() float32  { return seg.advance }
func (seg *Segment) Flags() SegFlags   { return seg.flags }
func (seg *Segment) SetFlags(f SegFlags) { seg.flags |= f }

// AppendGlyph pushes a new slot for gid at the end of the stream, carrying
// the [before, after) original cluster bounds. Used to build the initial
// run from a cmap processor, and by action-mode insert opcodes.
func (seg *Segment) AppendGlyph(gid uint16, before, after int) SlotHandle {
	h := seg.alloc()
	s := &seg.arena[h]
	s.gid = gid
	s.before, s.after = before, after
	s.prev = seg.last
	if seg.last != NullSlot {
		seg.arena[seg.last].next = h
	} else {
		seg.first = h
	}
	seg.last = h
	return h
}

// InsertBefore splices a new slot carrying gid immediately before `at`,
// marking it SlotInserted (§4.3 action mode "insert/delete slots"). If at
// is NullSlot the new slot becomes the new stream tail.
func (seg *Segment) InsertBefore(at SlotHandle, gid uint16) SlotHandle {
	h := seg.alloc()
	s := &seg.arena[h]
	s.gid = gid
	s.flags |= SlotInserted
	if at == NullSlot {
		s.prev = seg.last
		if seg.last != NullSlot {
			seg.arena[seg.last].next = h
		} else {
			seg.first = h
		}
		seg.last = h
		return h
	}
	before := seg.arena[at].prev
	s.prev, s.next = before, at
	seg.arena[at].prev = h
	if before != NullSlot {
		seg.arena[before].next = h
	} else {
		seg.first = h
	}
	return h
}

// MarkDeleted tags h for reclamation by CollectGarbage without unlinking it
// yet — the VM must keep cursor arithmetic stable mid-action (§4.4 step 4).
func (seg *Segment) MarkDeleted(h SlotHandle) {
	if h != NullSlot {
		seg.arena[h].flags |= SlotDeleted
	}
}

// CollectGarbage unlinks and frees every slot flagged deleted, called after
// any action reports it performed deletions (§4.4 step 4).
func (seg *Segment) CollectGarbage() {
	h := seg.first
	for h != NullSlot {
		next := seg.arena[h].next
		if seg.arena[h].isDeleted() {
			seg.unlink(h)
			seg.free = append(seg.free, h)
		}
		h = next
	}
}

func (seg *Segment) unlink(h SlotHandle) {
	s := &seg.arena[h]
	if s.prev != NullSlot {
		seg.arena[s.prev].next = s.next
	} else {
		seg.first = s.next
	}
	if s.next != NullSlot {
		seg.arena[s.next].prev = s.prev
	} else {
		seg.last = s.prev
	}
	s.prev, s.next = NullSlot, NullSlot
}

// Attach makes child a first-attachment child of parent, preserving the
// invariant attached_to(first_attachment(s)) == s (§3).
func (seg *Segment) Attach(parent, child SlotHandle) {
	p := &seg.arena[parent]
	c := &seg.arena[child]
	c.parent = parent
	c.nextSibling = p.firstChild
	p.firstChild = child
}

// AttachedTo returns h's immediate attachment parent, or NullSlot if h is
// unattached (§3/§6 "attached_to" is the direct parent, not the tree root;
// a caller wanting the root walks AttachedTo repeatedly until it returns
// NullSlot).
func (seg *Segment) AttachedTo(h SlotHandle) SlotHandle {
	if h == NullSlot {
		return NullSlot
	}
	return seg.arena[h].parent
}

// FirstAttachment returns h's first child in the attachment tree, or
// NullSlot if h has none.
func (seg *Segment) FirstAttachment(h SlotHandle) SlotHandle {
	if h == NullSlot {
		return NullSlot
	}
	return seg.arena[h].firstChild
}

// NextSiblingAttachment returns the next child sharing h's parent.
func (seg *Segment) NextSiblingAttachment(h SlotHandle) SlotHandle {
	if h == NullSlot {
		return NullSlot
	}
	return seg.arena[h].nextSibling
}

// PositionSlots re-derives each slot's origin from the stream's advances
// and attachment offsets. It is idempotent on unshifted input (§9 open
// question): calling it twice in a row without an intervening shift
// produces the same origins, because it always recomputes from advance +
// attachment offset rather than accumulating a delta onto the previous
// origin.
func (seg *Segment) PositionSlots() {
	var pen float32
	for h := seg.first; h != NullSlot; h = seg.arena[h].next {
		s := &seg.arena[h]
		if s.isDeleted() {
			continue
		}
		if s.parent == NullSlot {
			s.originX, s.originY = pen, 0
			pen += s.advance
		} else {
			root := seg.arena[s.parent]
			s.originX = root.originX + s.attachX
			s.originY = root.originY + s.attachY
		}
	}
	seg.advance = pen
}
