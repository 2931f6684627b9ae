package shaper

// clusterRange is one contiguous [COLL_START, COLL_END] run of slots that
// collision avoidance treats as a unit (§4.6).
type clusterRange struct {
	start, end SlotHandle // inclusive
}

// findClusters walks seg once, grouping slots between a COLL_START and the
// next COLL_END into clusters. Slots outside any such run are ignored by
// collision avoidance entirely, grounded on Pass.cpp's collisionAvoidance
// outer loop.
func findClusters(seg *Segment) []clusterRange {
	var clusters []clusterRange
	var open SlotHandle = NullSlot
	for h := seg.First(); h != NullSlot; h = seg.Next(h) {
		c := seg.Collision(h)
		if c.Flags&CollStart != 0 {
			open = h
		}
		if c.Flags&CollEnd != 0 && open != NullSlot {
			clusters = append(clusters, clusterRange{start: open, end: h})
			open = NullSlot
		}
	}
	return clusters
}

// glyphBBox returns the axis-aligned bounding box this implementation
// populates for h: its horizontal advance band at the current origin, and
// a fixed nominal height. Real sub-glyph bounding data isn't in scope (see
// DESIGN.md) so every slot gets one full-glyph box rather than a hierarchy.
// A slot flagged SlotWhitespace gets a degenerate zero-area box instead —
// advance and ink extent are independent quantities, and phase 3 (§4.6)
// needs to tell them apart (a space has non-zero advance but no ink).
func glyphBBox(seg *Segment, h SlotHandle) (minX, minY, maxX, maxY float32) {
	s := seg.Slot(h)
	if s.isWhitespace() {
		return s.originX, 0, s.originX, 0
	}
	const nominalHeight = 1000
	return s.originX, 0, s.originX + s.advance, nominalHeight
}

func isFixable(c *SlotCollision) bool {
	return c.Flags&CollFix != 0 && c.Flags&CollIgnore == 0
}

func isKern(c *SlotCollision) bool {
	return c.Flags&CollKern != 0 && c.Flags&CollIgnore == 0
}

// CollisionAvoidance runs the three-phase avoidance algorithm over every
// cluster in seg (§4.6): a forward shift pass, numLoops-1 logjam-breaking
// iterations, then a kerning pass. cfg.TraceSink, if set, is notified of
// each phase.
func CollisionAvoidance(seg *Segment, pass *Pass, cfg *Config) error {
	clusters := findClusters(seg)
	numLoops := pass.CollisionLoops()
	if numLoops < 1 {
		numLoops = 1
	}

	for _, cl := range clusters {
		runShiftPhase(seg, cl, cfg)
		traceCollision(cfg, "shift", cl.start)

		for i := 1; i < numLoops; i++ {
			if !anyColliding(seg, cl) {
				break
			}
			moved := runLogjamBreak(seg, cl)
			traceCollision(cfg, "logjam", cl.start)
			if moved {
				runShiftPhase(seg, cl, cfg)
				traceCollision(cfg, "settle", cl.start)
			}
		}

		runKernPhase(seg, cl)
		traceCollision(cfg, "kern", cl.start)
	}

	for h := seg.First(); h != NullSlot; h = seg.Next(h) {
		c := seg.Collision(h)
		c.OffsetX += c.ShiftX
		c.OffsetY += c.ShiftY
		c.ShiftX, c.ShiftY = 0, 0
	}
	seg.PositionSlots()
	return nil
}

func traceCollision(cfg *Config, phase string, h SlotHandle) {
	if cfg != nil && cfg.TraceSink != nil {
		cfg.TraceSink.CollisionPhase(phase, int(h))
	}
}

func anyColliding(seg *Segment, cl clusterRange) bool {
	for h := cl.start; ; h = seg.Next(h) {
		c := seg.Collision(h)
		if c.Flags.Known() && c.Flags.Colliding() {
			return true
		}
		if h == cl.end {
			break
		}
	}
	return false
}

// runShiftPhase is phase 1: every fixable, non-kern slot merges against its
// cluster neighbors and resolves a shift.
func runShiftPhase(seg *Segment, cl clusterRange, cfg *Config) {
	for h := cl.start; ; h = seg.Next(h) {
		c := seg.Collision(h)
		if isFixable(c) && !isKern(c) {
			sc := newShiftCollider(seg, cl, h)
			for n := cl.start; ; n = seg.Next(n) {
				if n != h {
					nc := seg.Collision(n)
					if nc.Flags&CollIgnore == 0 {
						sc.mergeSlot(n)
					}
				}
				if n == cl.end {
					break
				}
			}
			x, y, ok := sc.resolve()
			c.Flags |= CollKnown
			switch {
			case !ok:
				// no constraint at all: never collided.
				c.Flags &^= CollIsCol
			case shiftIsResolved(x, y):
				// a usable shift was found and fixes the overlap.
				c.ShiftX, c.ShiftY = x, y
				c.Flags &^= CollIsCol
			default:
				// unresolvable shift (§7): leave the slot unshifted and
				// clear ISCOL rather than report a collision we can't fix.
				c.Flags &^= CollIsCol
			}
		}
		if h == cl.end {
			break
		}
	}
}

// runLogjamBreak is phase 2a: reset shifts in the cluster, then iterate
// backward applying shifts only to slots still flagged colliding.
func runLogjamBreak(seg *Segment, cl clusterRange) bool {
	moved := false
	for h := cl.start; ; h = seg.Next(h) {
		seg.Collision(h).ShiftX, seg.Collision(h).ShiftY = 0, 0
		if h == cl.end {
			break
		}
	}
	for h := cl.end; ; h = seg.Prev(h) {
		c := seg.Collision(h)
		if c.Flags.Known() && c.Flags.Colliding() {
			sc := newShiftCollider(seg, cl, h)
			for n := cl.start; ; n = seg.Next(n) {
				if n != h && seg.Collision(n).Flags&CollIgnore == 0 {
					sc.mergeSlot(n)
				}
				if n == cl.end {
					break
				}
			}
			if x, y, ok := sc.resolve(); ok && (x != 0 || y != 0) {
				c.ShiftX, c.ShiftY = x, y
				moved = true
			}
		}
		if h == cl.start {
			break
		}
	}
	return moved
}

// runKernPhase is phase 3: for each kern slot, sum the advances of
// whitespace slots ahead of it through the cluster and apply that as an
// x-shift.
func runKernPhase(seg *Segment, cl clusterRange) {
	for h := cl.start; ; h = seg.Next(h) {
		if isKern(seg.Collision(h)) {
			kc := newKernCollider(seg, cl)
			shift := kc.resolve(h)
			c := seg.Collision(h)
			c.ShiftX += shift
		}
		if h == cl.end {
			break
		}
	}
}
