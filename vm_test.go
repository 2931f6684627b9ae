package shaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func buildSegment(gids ...uint16) *Segment {
	seg := NewSegment(DirLTR)
	for i, g := range gids {
		seg.AppendGlyph(g, i, i+1)
	}
	return seg
}

func TestRunVM_PushByteReturnsValue(t *testing.T) {
	seg := buildSegment(1, 2, 3)
	stack := newVMStack(minStackSlots)
	code := []byte{byte(OpPushByte), 1, byte(OpEnd)}
	res := runVM(code, seg, seg.First(), modeConstraint, stack)
	assert.Equal(t, statusFinished, res.status)
	assert.Equal(t, int32(1), res.value)
}

// §8 S3: a constraint that pops one too many sets stack_underflow.
func TestRunVM_StackUnderflow(t *testing.T) {
	seg := buildSegment(1)
	stack := newVMStack(minStackSlots)
	code := []byte{byte(OpPop), byte(OpEnd)}
	res := runVM(code, seg, seg.First(), modeConstraint, stack)
	assert.Equal(t, statusStackUnderflow, res.status)
	assert.True(t, stack.guardsIntact())
}

func TestRunVM_ActionOnlyOpcodeRejectedInConstraintMode(t *testing.T) {
	seg := buildSegment(1)
	stack := newVMStack(minStackSlots)
	code := []byte{byte(OpSetAttr), byte(AttrAdvX), 0, byte(OpEnd)}
	res := runVM(code, seg, seg.First(), modeConstraint, stack)
	assert.Equal(t, statusDiedEarly, res.status)
}

func TestRunVM_SetAttrMutatesSlot(t *testing.T) {
	seg := buildSegment(1, 2)
	stack := newVMStack(minStackSlots)
	code := []byte{byte(OpPushByte), 42, byte(OpSetAttr), byte(AttrAdvX), 0, byte(OpEnd)}
	res := runVM(code, seg, seg.First(), modeAction, stack)
	assert.Equal(t, statusFinished, res.status)
	assert.Equal(t, int32(42), seg.Slot(seg.First()).Attr(AttrAdvX))
}

func TestRunVM_DeleteSlotContinuesExecution(t *testing.T) {
	seg := buildSegment(1, 2, 3)
	stack := newVMStack(minStackSlots)
	// delete slot at offset 0, then push a sentinel so we know execution
	// continued past the delete instead of stopping early.
	code := []byte{byte(OpDeleteSlot), 0, byte(OpPushByte), 7, byte(OpEnd)}
	res := runVM(code, seg, seg.First(), modeAction, stack)
	assert.Equal(t, statusFinished, res.status)
	assert.True(t, res.deletedAny)
	assert.Equal(t, int32(7), res.value)
}

func TestRunVM_ArithmeticAndComparison(t *testing.T) {
	seg := buildSegment(1)
	stack := newVMStack(minStackSlots)
	// (3 + 4) > 5 -> 1
	code := []byte{
		byte(OpPushByte), 3,
		byte(OpPushByte), 4,
		byte(OpAdd),
		byte(OpPushByte), 5,
		byte(OpGt),
		byte(OpEnd),
	}
	res := runVM(code, seg, seg.First(), modeConstraint, stack)
	assert.Equal(t, statusFinished, res.status)
	assert.Equal(t, int32(1), res.value)
}
