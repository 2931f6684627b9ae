package shaper

// shiftCollider accumulates, for one target slot, the horizontal and
// vertical room available before it would overlap any already-merged
// neighbor (§4.6 "mergeSlot accumulates constraints and resolve returns
// either a valid shift or signals no improvement").
type shiftCollider struct {
	seg    *Segment
	target SlotHandle

	minX, minY, maxX, maxY float32
	targetMinX, targetMinY, targetMaxX, targetMaxY float32

	anyConstraint bool
}

func newShiftCollider(seg *Segment, cl clusterRange, target SlotHandle) *shiftCollider {
	tMinX, tMinY, tMaxX, tMaxY := glyphBBox(seg, target)
	return &shiftCollider{
		seg:        seg,
		target:     target,
		minX:       -shiftMagnitudeBound,
		minY:       -shiftMagnitudeBound,
		maxX:       shiftMagnitudeBound,
		maxY:       shiftMagnitudeBound,
		targetMinX: tMinX, targetMinY: tMinY, targetMaxX: tMaxX, targetMaxY: tMaxY,
	}
}

// mergeSlot folds neighbor's current (already-shifted) box into the
// target's allowable shift range, narrowing minX/maxX (and the Y
// equivalents) so the target cannot move into an overlap with neighbor.
// The kern-before-target rule: a slot flagged kern only constrains its
// target once it has itself been resolved (marked known); callers merge
// every non-ignored neighbor, so this check is what makes an unresolved
// kern slot contribute no constraint.
func (sc *shiftCollider) mergeSlot(neighbor SlotHandle) {
	nc := sc.seg.Collision(neighbor)
	if isKern(nc) && !nc.Flags.Known() {
		return
	}
	nMinX, nMinY, nMaxX, nMaxY := glyphBBox(sc.seg, neighbor)
	nMinX += nc.ShiftX
	nMaxX += nc.ShiftX
	nMinY += nc.ShiftY
	nMaxY += nc.ShiftY

	if nMinY >= sc.targetMaxY || nMaxY <= sc.targetMinY {
		return // no vertical overlap band, can't collide on this axis pairing
	}

	neighborIsLeft := sc.seg.Slot(neighbor).originX < sc.seg.Slot(sc.target).originX
	if neighborIsLeft {
		// neighbor's origin lies left of the target's origin: target may
		// not move further left than just clearing neighbor's right edge.
		if room := nMaxX - sc.targetMinX; room > sc.minX {
			sc.minX = room
			sc.anyConstraint = true
		}
	} else {
		if room := nMinX - sc.targetMaxX; room < sc.maxX {
			sc.maxX = room
			sc.anyConstraint = true
		}
	}
}

// resolve returns the smallest-magnitude shift that clears every merged
// constraint, or ok=false if nothing constrained this target (§4.6 "signals
// no improvement").
func (sc *shiftCollider) resolve() (x, y float32, ok bool) {
	if !sc.anyConstraint {
		return 0, 0, false
	}
	if sc.minX > sc.maxX {
		// over-constrained cluster: prefer the smaller push.
		if abs32(sc.minX) < abs32(sc.maxX) {
			return sc.minX, 0, true
		}
		return sc.maxX, 0, true
	}
	switch {
	case sc.minX > 0:
		return sc.minX, 0, true
	case sc.maxX < 0:
		return sc.maxX, 0, true
	default:
		return 0, 0, true
	}
}
