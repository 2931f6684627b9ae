package shaper

// testConstraint runs rule's constraint bytecode once for every slot the
// rule covers (context-preContext .. context-preContext+sort), ANDing the
// results together (§4.4). A rule with no constraint code auto-passes. Any
// VM fault on any covered slot fails the whole rule.
func testConstraint(rule *Rule, m *SlotMap, seg *Segment, stack *vmStack) bool {
	begin := m.context - rule.PreContext
	if begin < 0 || rule.Sort-rule.PreContext < 0 || begin+rule.Sort > m.Len() {
		return false
	}
	if len(rule.Constraint) == 0 {
		return true
	}
	for i := 0; i < rule.Sort; i++ {
		slot := m.At(begin + i)
		if slot == NullSlot {
			continue
		}
		res := runVM(rule.Constraint, seg, slot, modeConstraint, stack)
		if res.status != statusFinished || res.value == 0 {
			return false
		}
	}
	return true
}

// testPassConstraint runs a pass's own constraint bytecode once against the
// first slot of the pass invocation (§4.4). No constraint code auto-passes.
func testPassConstraint(pass *Pass, seg *Segment, first SlotHandle, stack *vmStack) bool {
	if len(pass.passConstraint) == 0 {
		return true
	}
	res := runVM(pass.passConstraint, seg, first, modeConstraint, stack)
	return res.status == statusFinished && res.value != 0
}

// adjustSlot moves cursor by delta slots, wrapping from NullSlot to the
// segment's last slot when walking backward off the start, or to the
// segment's first slot when walking forward off a null cursor (§4.4 step 5,
// §8 scenario S6). It reports whether the walk passed through highwater, so
// the caller can set highpassed.
func adjustSlot(seg *Segment, cursor SlotHandle, delta int, highwater SlotHandle) (SlotHandle, bool) {
	crossed := false
	cur := cursor
	for delta > 0 {
		if cur == NullSlot {
			cur = seg.First()
		} else {
			cur = seg.Next(cur)
		}
		delta--
		if cur == highwater || cur == NullSlot {
			crossed = true
		}
	}
	for delta < 0 {
		if cur == NullSlot {
			cur = seg.Last()
		} else {
			cur = seg.Prev(cur)
		}
		delta++
	}
	return cur, crossed
}

// ruleOutcome is what findNDoRule reports back to the pass runner.
type ruleOutcome struct {
	cursor           SlotHandle
	crossedHighwater bool
	vmFaulted        bool
}

// findNDoRule runs the FSM at cursor, selects the first candidate rule
// whose constraint passes, applies its action, and advances the cursor
// (§4.4). When the FSM found no match, or no candidate's constraint
// passed, the cursor simply advances by one slot — this is the "no rule
// fired" path §4.2 describes for VM faults during matching, generalized to
// cover "no matching rule" too.
func findNDoRule(pass *Pass, seg *Segment, cursor SlotHandle, highwater SlotHandle, stack *vmStack, sink TraceSink) ruleOutcome {
	matched, candidates, window := runFSM(pass, seg, cursor)
	if !matched {
		next, crossed := adjustSlot(seg, cursor, 1, highwater)
		return ruleOutcome{cursor: next, crossedHighwater: crossed}
	}

	var chosen *Rule
	chosenIdx := -1
	for i, re := range candidates {
		r := pass.rule(re)
		ok := testConstraint(r, window, seg, stack)
		if sink != nil {
			sink.RuleConsidered(int(cursor), re.ruleIndex, ok)
		}
		if ok {
			chosen = r
			chosenIdx = i
			break
		}
	}
	if chosen == nil {
		next, crossed := adjustSlot(seg, cursor, 1, highwater)
		return ruleOutcome{cursor: next, crossedHighwater: crossed}
	}

	res := runVM(chosen.Action, seg, cursor, modeAction, stack)
	if res.deletedAny {
		seg.CollectGarbage()
	}
	if sink != nil {
		sink.RuleApplied(int(cursor), candidates[chosenIdx].ruleIndex)
	}
	if res.status != statusFinished {
		// §4.4 step 6: on VM failure the cursor becomes null and
		// highwater is cleared; the runner's loop stops at a null cursor,
		// so the rest of the pass is not run.
		return ruleOutcome{cursor: NullSlot, crossedHighwater: true, vmFaulted: true}
	}

	next, crossed := adjustSlot(seg, cursor, int(res.value), highwater)
	return ruleOutcome{cursor: next, crossedHighwater: crossed}
}
