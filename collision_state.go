package shaper

// CollFlags are the per-slot collision status bits (§3). The pair
// (ISCOL, KNOWN) forms the 2-bit state machine described in the data model:
// unknown -> known-clean | known-colliding.
type CollFlags uint16

const (
	CollKern CollFlags = 1 << iota
	CollFix
	CollEnd
	CollStart
	CollIgnore
	CollIsCol
	CollKnown
)

// Known reports whether this slot's collision state has been determined
// for the current pass.
func (f CollFlags) Known() bool { return f&CollKnown != 0 }

// Colliding reports whether this slot is currently known to collide. It is
// only meaningful when Known() is true.
func (f CollFlags) Colliding() bool { return f&CollIsCol != 0 }

// SlotCollision is the mutable collision-avoidance state carried alongside
// a slot (§3), kept in a parallel array on Segment rather than embedded in
// Slot so that ordinary passes that never touch collision never pay for it.
type SlotCollision struct {
	ShiftX, ShiftY   float32
	OffsetX, OffsetY float32
	Margin           float32

	// Limit is the rectangle within which this slot may be shifted. The
	// colliders in this package neither set nor read it.
	LimitMinX, LimitMinY, LimitMaxX, LimitMaxY float32

	Flags CollFlags
}

// shiftMagnitudeBound is the bound on a valid shift's magnitude in §4.6
// ("a valid shift (|x|,|y| < 1e38)"). A shiftCollider starts with this as
// its allowed range; shiftIsResolved treats a shift at or beyond it as
// unresolvable. resolve signals "no improvement" through ok=false, not
// through this value.
const shiftMagnitudeBound = 1e38

func shiftIsResolved(x, y float32) bool {
	return abs32(x) < shiftMagnitudeBound && abs32(y) < shiftMagnitudeBound
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
