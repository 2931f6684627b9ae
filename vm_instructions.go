package shaper

// Opcode is the VM's instruction set (§4.2: "opcodes treated as an
// enumerated instruction set, not listed individually" by the spec — the
// concrete set below is this implementation's closed enumeration).
//
// NOTE: changing the order/values of these constants breaks any bytecode a
// font table encodes, exactly as the teacher's VM warns for its own opcode
// enum.
type Opcode uint8

const (
	OpEnd Opcode = iota
	OpPushByte
	OpPushShort
	OpPushAttr
	OpDup
	OpPop
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMin
	OpMax
	OpNeg
	OpAnd
	OpOr
	OpNot
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpCond

	// Action-only opcodes below this line mutate the slot stream; a
	// program containing any of them fails to load as a constraint
	// (E_MUTABLECCODE, §4.1/§7).
	opFirstActionOnly
	OpSetAttr = opFirstActionOnly
	OpInsert
	OpDeleteSlot
	OpPutGlyph
	OpAttach
	OpNextSlot
)

// opSize gives each opcode's total encoded size (opcode byte + operands),
// the same bookkeeping the teacher's opXSizeInBytes constants provide.
var opSize = map[Opcode]int{
	OpEnd:        1,
	OpPushByte:   2,
	OpPushShort:  3,
	OpPushAttr:   3, // attrCode u8, slotOffset int8
	OpDup:        1,
	OpPop:        1,
	OpAdd:        1,
	OpSub:        1,
	OpMul:        1,
	OpDiv:        1,
	OpMin:        1,
	OpMax:        1,
	OpNeg:        1,
	OpAnd:        1,
	OpOr:         1,
	OpNot:        1,
	OpEq:         1,
	OpNe:         1,
	OpLt:         1,
	OpLe:         1,
	OpGt:         1,
	OpGe:         1,
	OpCond:       1,
	OpSetAttr:    3, // attrCode u8, slotOffset int8
	OpInsert:     3, // gid u16
	OpDeleteSlot: 2, // slotOffset int8
	OpPutGlyph:   4, // gid u16, slotOffset int8
	OpAttach:     3, // parentOffset int8, childOffset int8
	OpNextSlot:   1,
}

var opNames = map[Opcode]string{
	OpEnd:        "end",
	OpPushByte:   "push_byte",
	OpPushShort:  "push_short",
	OpPushAttr:   "push_attr",
	OpDup:        "dup",
	OpPop:        "pop",
	OpAdd:        "add",
	OpSub:        "sub",
	OpMul:        "mul",
	OpDiv:        "div",
	OpMin:        "min",
	OpMax:        "max",
	OpNeg:        "neg",
	OpAnd:        "and",
	OpOr:         "or",
	OpNot:        "not",
	OpEq:         "eq",
	OpNe:         "ne",
	OpLt:         "lt",
	OpLe:         "le",
	OpGt:         "gt",
	OpGe:         "ge",
	OpCond:       "cond",
	OpSetAttr:    "set_attr",
	OpInsert:     "insert",
	OpDeleteSlot: "delete_slot",
	OpPutGlyph:   "put_glyph",
	OpAttach:     "attach",
	OpNextSlot:   "next_slot",
}

func (op Opcode) isActionOnly() bool { return op >= opFirstActionOnly }

func (op Opcode) valid() bool {
	_, ok := opSize[op]
	return ok
}

// opcodeTable returns the set of opcodes legal in the requested mode. This
// is the Go stand-in for the original's get_opcode_table(constrained): a
// historical function-pointer-table accessor (§9) that this design
// expresses as a membership predicate instead, since dispatch here is a
// single switch rather than two diverging jump tables.
func opcodeTable(constrained bool) func(Opcode) bool {
	if constrained {
		return func(op Opcode) bool { return op.valid() && !op.isActionOnly() }
	}
	return func(op Opcode) bool { return op.valid() }
}

// validateConstraintImmutable disassembles code far enough to prove it
// contains no action-only opcode, without executing it (§4.1: "load fails
// if violated", checked before any bytecode runs). It returns false on any
// structural problem too (truncated operand, unknown opcode), since an
// invalid program can't be proven immutable.
func validateConstraintImmutable(code []byte) bool {
	allowed := opcodeTable(true)
	pos := 0
	for pos < len(code) {
		op := Opcode(code[pos])
		size, ok := opSize[op]
		if !ok || !allowed(op) {
			return false
		}
		if pos+size > len(code) {
			return false
		}
		pos += size
	}
	return true
}
