// Package passbuild is a test-only encoder that turns a structured
// description of a pass into the exact binary layout the real loader
// consumes. It is the mirror image of ReadPass, grounded on the teacher's
// compiler/encoder split (grammar_compiler.go builds a tree, vm_encoder.go
// serializes it) — here there's no tree, just a flat description, but the
// same build-then-encode shape applies.
package passbuild

import "encoding/binary"

// RangeEntry is one (firstGid, lastGid, column) row.
type RangeEntry struct {
	First, Last, Column uint16
}

// RuleDesc describes one rule's shape and bytecode.
type RuleDesc struct {
	Sort, PreContext uint8
	Constraint       []byte
	Action           []byte
}

// Pass is a structured, pre-validation description of a pass table. Every
// field mirrors a piece of the §6 binary layout; Encode serializes it
// exactly, including any inconsistency the caller deliberately introduces
// to exercise a loader error path.
type Pass struct {
	Flags      uint8
	MaxLoop    uint8
	MaxContext uint8
	MaxBackup  uint8

	Ranges []RangeEntry

	// RuleMapIndex has numSuccess+1 entries; RuleMap has RuleMapIndex[len-1]
	// entries, each a rule index.
	RuleMapIndex []uint16
	RuleMap      []uint16

	MinPreCtxt, MaxPreCtxt uint8
	StartStates            []int16

	Rules []RuleDesc

	// NumTransition/NumColumns size the transition table; Transitions is
	// row-major NumTransition*NumColumns.
	NumTransition int
	NumColumns    int
	Transitions   []int16

	PassConstraint []byte
}

// buf is a big-endian byte writer. The state count is passed to Encode by
// the caller, who must keep it consistent with
// StartStates/Transitions/RuleMapIndex — Encode does not infer it.
type buf struct{ b []byte }

func (w *buf) u8(v uint8)   { w.b = append(w.b, v) }
func (w *buf) u16(v uint16) { w.b = append(w.b, byte(v>>8), byte(v)) }
func (w *buf) i16(v int16)  { w.u16(uint16(v)) }
func (w *buf) u32(v uint32) {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
}
func (w *buf) bytes(b []byte) { w.b = append(w.b, b...) }

// Encode serializes p into the bit-exact binary layout §6 describes,
// computing every offset/length field from the structured description so
// tests only ever author the semantic shape of a pass, never raw offsets.
func (p *Pass) Encode(numStates int) []byte {
	numSuccess := len(p.RuleMapIndex) - 1
	numRules := len(p.Rules)

	sortKeys := make([]uint16, numRules)
	preContexts := make([]uint8, numRules)
	constraintOffsets := make([]uint16, numRules+1)
	actionOffsets := make([]uint16, numRules+1)
	var ruleConstraintBytes, actionBytes []byte
	for i, r := range p.Rules {
		sortKeys[i] = uint16(r.Sort)
		preContexts[i] = r.PreContext
		constraintOffsets[i] = uint16(len(ruleConstraintBytes))
		ruleConstraintBytes = append(ruleConstraintBytes, r.Constraint...)
		actionOffsets[i] = uint16(len(actionBytes))
		actionBytes = append(actionBytes, r.Action...)
	}
	constraintOffsets[numRules] = uint16(len(ruleConstraintBytes))
	actionOffsets[numRules] = uint16(len(actionBytes))

	fixed := &buf{}
	for _, rg := range p.Ranges {
		fixed.u16(rg.First)
		fixed.u16(rg.Last)
		fixed.u16(rg.Column)
	}
	for _, v := range p.RuleMapIndex {
		fixed.u16(v)
	}
	for _, v := range p.RuleMap {
		fixed.u16(v)
	}
	fixed.u8(p.MinPreCtxt)
	fixed.u8(p.MaxPreCtxt)
	for _, v := range p.StartStates {
		fixed.i16(v)
	}
	for _, v := range sortKeys {
		fixed.u16(v)
	}
	for _, v := range preContexts {
		fixed.u8(v)
	}
	fixed.u8(0) // reserved

	passConstraintLen := uint16(len(p.PassConstraint))
	fixed.u16(passConstraintLen)
	for _, v := range constraintOffsets {
		fixed.u16(v)
	}
	for _, v := range actionOffsets {
		fixed.u16(v)
	}
	for _, v := range p.Transitions {
		fixed.i16(v)
	}
	fixed.u8(0) // reserved

	const headerSize = 40
	pcCodeOff := uint32(headerSize + len(fixed.b))
	rcCodeOff := pcCodeOff + uint32(len(p.PassConstraint))
	aCodeOff := rcCodeOff + uint32(len(ruleConstraintBytes))

	h := &buf{}
	h.u8(p.Flags)
	h.u8(p.MaxLoop)
	h.u8(p.MaxContext)
	h.u8(p.MaxBackup)
	h.u16(uint16(numRules))
	h.u16(headerSize) // fsmOffset
	h.u32(pcCodeOff)
	h.u32(rcCodeOff)
	h.u32(aCodeOff)
	h.u32(0) // reserved
	h.u16(uint16(numStates))
	h.u16(uint16(p.NumTransition))
	h.u16(uint16(numSuccess))
	h.u16(uint16(p.NumColumns))
	h.u16(uint16(len(p.Ranges)))
	h.u16(0) // searchRange
	h.u16(0) // entrySelector
	h.u16(0) // rangeShift

	out := append([]byte{}, h.b...)
	out = append(out, fixed.b...)
	out = append(out, p.PassConstraint...)
	out = append(out, ruleConstraintBytes...)
	out = append(out, actionBytes...)
	return out
}
