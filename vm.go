package shaper

// vmStatus is the VM's runtime status out-parameter (§4.2).
type vmStatus int

const (
	statusFinished vmStatus = iota
	statusStackUnderflow
	statusStackOverflow
	statusDiedEarly
)

// vmMode selects which dispatch table governs a run (§4.2).
type vmMode int

const (
	modeConstraint vmMode = iota
	modeAction
)

// vmResult is everything a rule-selection/application caller needs out of
// one VM run.
type vmResult struct {
	value      int32
	status     vmStatus
	deletedAny bool
}

// runVM interprets code against seg, anchored at cursor, in the given mode.
// stack is reused across calls by the caller (it is reset here). Any fault
// — bad opcode for this mode, truncated operand, attribute code out of
// range, stack under/overflow, or an opcode that writes to or moves onto a
// slot walking off the end of the slot stream — sets status to something other
// than finished and the caller must treat the rule as not applicable
// (§4.2 "Failure semantics"). push_attr at an offset past either end of the
// stream is not a fault: it pushes 0.
func runVM(code []byte, seg *Segment, cursor SlotHandle, mode vmMode, stack *vmStack) vmResult {
	stack.reset()
	allowed := opcodeTable(mode == modeConstraint)
	cur := cursor
	pos := 0
	deletedAny := false

	fault := func(st vmStatus) vmResult {
		return vmResult{value: stack.topOrZero(), status: st, deletedAny: deletedAny}
	}

	for pos < len(code) {
		op := Opcode(code[pos])
		size, ok := opSize[op]
		if !ok || !allowed(op) || pos+size > len(code) {
			return fault(statusDiedEarly)
		}

		var st vmStatus
		switch op {
		case OpEnd:
			pos = len(code)
			continue

		case OpPushByte:
			st = stack.push(int32(int8(code[pos+1])))
		case OpPushShort:
			st = stack.push(int32(decodeI16(code[pos+1:])))
		case OpPushAttr:
			attr := AttrCode(code[pos+1])
			if !attr.valid() {
				return fault(statusDiedEarly)
			}
			off := int8(code[pos+2])
			slot := resolveSlotOffset(seg, cur, int(off))
			var v int32
			if slot != NullSlot {
				v = seg.Slot(slot).Attr(attr)
			}
			st = stack.push(v)

		case OpDup:
			v, popSt := stack.pop()
			if popSt != statusFinished {
				return fault(popSt)
			}
			if st = stack.push(v); st != statusFinished {
				return fault(st)
			}
			st = stack.push(v)
		case OpPop:
			_, st = stack.pop()

		case OpAdd, OpSub, OpMul, OpDiv, OpMin, OpMax, OpAnd, OpOr,
			OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
			b, st1 := stack.pop()
			if st1 != statusFinished {
				return fault(st1)
			}
			a, st2 := stack.pop()
			if st2 != statusFinished {
				return fault(st2)
			}
			st = stack.push(binaryOp(op, a, b))

		case OpNeg:
			a, popSt := stack.pop()
			if popSt != statusFinished {
				return fault(popSt)
			}
			st = stack.push(-a)
		case OpNot:
			a, popSt := stack.pop()
			if popSt != statusFinished {
				return fault(popSt)
			}
			st = stack.push(boolToI32(a == 0))

		case OpCond:
			c, st1 := stack.pop()
			if st1 != statusFinished {
				return fault(st1)
			}
			b, st2 := stack.pop()
			if st2 != statusFinished {
				return fault(st2)
			}
			a, st3 := stack.pop()
			if st3 != statusFinished {
				return fault(st3)
			}
			if a != 0 {
				st = stack.push(b)
			} else {
				st = stack.push(c)
			}

		case OpSetAttr:
			attr := AttrCode(code[pos+1])
			if !attr.valid() {
				return fault(statusDiedEarly)
			}
			off := int8(code[pos+2])
			v, popSt := stack.pop()
			if popSt != statusFinished {
				return fault(popSt)
			}
			slot := resolveSlotOffset(seg, cur, int(off))
			if slot == NullSlot {
				return fault(statusDiedEarly)
			}
			seg.Slot(slot).SetAttr(attr, v)

		case OpInsert:
			gid := decodeU16(code[pos+1:])
			seg.InsertBefore(cur, gid)

		case OpDeleteSlot:
			off := int8(code[pos+1])
			slot := resolveSlotOffset(seg, cur, int(off))
			if slot == NullSlot {
				return fault(statusDiedEarly)
			}
			seg.MarkDeleted(slot)
			deletedAny = true

		case OpPutGlyph:
			gid := decodeU16(code[pos+1:])
			off := int8(code[pos+3])
			slot := resolveSlotOffset(seg, cur, int(off))
			if slot == NullSlot {
				return fault(statusDiedEarly)
			}
			seg.Slot(slot).gid = gid

		case OpAttach:
			pOff := int8(code[pos+1])
			cOff := int8(code[pos+2])
			parent := resolveSlotOffset(seg, cur, int(pOff))
			child := resolveSlotOffset(seg, cur, int(cOff))
			if parent == NullSlot || child == NullSlot {
				return fault(statusDiedEarly)
			}
			seg.Attach(parent, child)

		case OpNextSlot:
			if next := seg.Next(cur); next != NullSlot {
				cur = next
			} else {
				return fault(statusDiedEarly)
			}

		default:
			return fault(statusDiedEarly)
		}

		if st != statusFinished {
			return fault(st)
		}
		if !stack.guardsIntact() {
			return fault(statusDiedEarly)
		}
		pos += size
	}

	return vmResult{value: stack.topOrZero(), status: statusFinished, deletedAny: deletedAny}
}

func binaryOp(op Opcode, a, b int32) int32 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		if b == 0 {
			return 0
		}
		return a / b
	case OpMin:
		if a < b {
			return a
		}
		return b
	case OpMax:
		if a > b {
			return a
		}
		return b
	case OpAnd:
		return boolToI32(a != 0 && b != 0)
	case OpOr:
		return boolToI32(a != 0 || b != 0)
	case OpEq:
		return boolToI32(a == b)
	case OpNe:
		return boolToI32(a != b)
	case OpLt:
		return boolToI32(a < b)
	case OpLe:
		return boolToI32(a <= b)
	case OpGt:
		return boolToI32(a > b)
	case OpGe:
		return boolToI32(a >= b)
	}
	return 0
}

func boolToI32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// resolveSlotOffset walks offset slots forward (positive) or backward
// (negative) from cur, returning NullSlot if that runs off either end of
// the stream.
func resolveSlotOffset(seg *Segment, cur SlotHandle, offset int) SlotHandle {
	h := cur
	for offset > 0 && h != NullSlot {
		h = seg.Next(h)
		offset--
	}
	for offset < 0 && h != NullSlot {
		h = seg.Prev(h)
		offset++
	}
	return h
}

func decodeU16(b []byte) uint16 { return uint16(b[0])<<8 | uint16(b[1]) }
func decodeI16(b []byte) int16  { return int16(decodeU16(b)) }
