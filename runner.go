package shaper

// RunGraphite runs one pass over seg to completion: collision fixing (if
// the pass requests it) followed by the FSM rule loop (if the pass has
// any rules), per §4.5. cfg may be nil, in which case default knobs apply
// and no trace events are emitted.
func RunGraphite(pass *Pass, seg *Segment, cfg *Config) error {
	if cfg == nil {
		dc := DefaultConfig()
		cfg = &dc
	}

	if pass.HasCollisionFlags() {
		if seg.Flags()&SegInitCollisions == 0 {
			seg.PositionSlots()
			seg.SetFlags(SegInitCollisions)
		}
		if err := CollisionAvoidance(seg, pass, cfg); err != nil {
			return err
		}
	}

	if !pass.HasRules() {
		return nil
	}

	first := seg.First()
	if first == NullSlot {
		return nil
	}

	stack := newVMStack(cfg.stackCapacity())
	if !testPassConstraint(pass, seg, first, stack) {
		return nil
	}

	if cfg.TraceSink != nil {
		cfg.TraceSink.PassStart(0, countSlots(seg))
	}

	maxLoop := cfg.effectiveMaxLoop(pass.MaxLoop())
	loopCounter := maxLoop
	highwater := seg.Next(first)
	highpassed := false

	cursor := first
	onlyCollided := pass.HasCollisionFlags()

	// §8 invariant 5: runGraphite terminates within |slots| * maxLoop rule
	// applications. The highwater/loopCounter bookkeeping below already
	// enforces this; budget is a defensive backstop against a bug in that
	// bookkeeping rather than load-bearing termination logic.
	budget := (countSlots(seg) + 1) * maxLoop
	applications := 0

	for cursor != NullSlot {
		applications++
		if applications > budget {
			break
		}

		eligible := true
		if onlyCollided {
			c := seg.Collision(cursor)
			eligible = c != nil && c.Flags&CollIsCol != 0
		}

		var crossed bool
		if eligible {
			outcome := findNDoRule(pass, seg, cursor, highwater, stack, cfg.TraceSink)
			cursor = outcome.cursor
			crossed = outcome.crossedHighwater
			if outcome.vmFaulted {
				highwater = NullSlot
			}
		} else {
			cursor, crossed = adjustSlot(seg, cursor, 1, highwater)
		}
		if crossed {
			highpassed = true
		}

		loopCounter--
		if highpassed || loopCounter == 0 {
			if loopCounter == 0 {
				cursor = highwater
			}
			loopCounter = maxLoop
			highwater = seg.Next(cursor)
			highpassed = false
		}
	}

	return nil
}

func countSlots(seg *Segment) int {
	n := 0
	for h := seg.First(); h != NullSlot; h = seg.Next(h) {
		n++
	}
	return n
}
