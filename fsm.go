package shaper

import "sort"

// runFSM walks the slot stream from start through pass's transition table,
// populating a SlotMap window with the matched slots plus left context, and
// accumulating candidate rules at every accept state it passes through
// (§4.3). It returns (false, nil, nil) if start doesn't have enough left
// context for the pass's minPreCtxt.
func runFSM(pass *Pass, seg *Segment, start SlotHandle) (bool, []ruleEntry, *SlotMap) {
	leftAvail := 0
	h := start
	for leftAvail < int(pass.maxPreCtxt) {
		p := seg.Prev(h)
		if p == NullSlot {
			break
		}
		h = p
		leftAvail++
	}
	actualContext := leftAvail
	if actualContext > int(pass.maxPreCtxt) {
		actualContext = int(pass.maxPreCtxt)
	}
	if actualContext < int(pass.minPreCtxt) {
		return false, nil, nil
	}

	windowStart := start
	for i := 0; i < actualContext; i++ {
		windowStart = seg.Prev(windowStart)
	}

	state := int(pass.startStates[int(pass.maxPreCtxt)-actualContext])

	m := &SlotMap{context: actualContext}
	var acc []ruleEntry
	seen := map[int]bool{} // dedup rule indices across multiple accept points

	slot := windowStart
	for slot != NullSlot {
		if len(m.slots) >= MaxSlots {
			break
		}
		s := seg.Slot(slot)
		col := pass.column(s.gid)
		m.slots = append(m.slots, slot)

		if col == ColumnNone || state >= pass.numTransition {
			break
		}
		state = pass.transition(state, col)
		if si, ok := pass.isAccepting(state); ok {
			for _, re := range pass.successRules(si) {
				if !seen[re.ruleIndex] {
					seen[re.ruleIndex] = true
					acc = append(acc, re)
				}
			}
		}
		if state == 0 {
			break
		}
		slot = seg.Next(slot)
	}

	sort.SliceStable(acc, func(i, j int) bool {
		ri, rj := pass.rule(acc[i]), pass.rule(acc[j])
		if ri.Sort != rj.Sort {
			return ri.Sort > rj.Sort
		}
		return ri.PreContext < rj.PreContext
	})
	if len(acc) > MaxRules {
		acc = acc[:MaxRules]
	}
	return true, acc, m
}
