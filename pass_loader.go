package shaper

import "sort"

const passHeaderSize = 40

// reader is a bounds-checked cursor over an untrusted byte blob, the same
// discipline golang.org/x/image/font/sfnt's source.view uses: every read
// checks the remaining length before touching the slice, so a truncated or
// hostile blob can only ever produce an error, never a panic or an
// out-of-bounds read (§8 property 7).
type reader struct {
	b   []byte
	pos int
}

func (r *reader) remaining() int { return len(r.b) - r.pos }

func (r *reader) u8() (uint8, bool) {
	if r.remaining() < 1 {
		return 0, false
	}
	v := r.b[r.pos]
	r.pos++
	return v, true
}

func (r *reader) u16() (uint16, bool) {
	if r.remaining() < 2 {
		return 0, false
	}
	v := uint16(r.b[r.pos])<<8 | uint16(r.b[r.pos+1])
	r.pos += 2
	return v, true
}

func (r *reader) i16() (int16, bool) {
	v, ok := r.u16()
	return int16(v), ok
}

func (r *reader) u32() (uint32, bool) {
	if r.remaining() < 4 {
		return 0, false
	}
	v := uint32(r.b[r.pos])<<24 | uint32(r.b[r.pos+1])<<16 | uint32(r.b[r.pos+2])<<8 | uint32(r.b[r.pos+3])
	r.pos += 4
	return v, true
}

// slice returns blob[off:off+n], bounds-checked against the whole blob
// rather than the cursor, since code/constraint regions are addressed by
// absolute offset from subtable_base (§6), not sequentially from pos.
func (r *reader) slice(off, n int) ([]byte, bool) {
	if off < 0 || n < 0 || off+n > len(r.b) {
		return nil, false
	}
	return r.b[off : off+n], true
}

// maxReasonableTableSize guards against a blob whose counts imply an
// allocation far larger than any real font pass would need; without this a
// handful of bytes claiming e.g. numStates=65535, numColumns=65535 could
// force a multi-gigabyte transitions table. This is the Go analogue of the
// original's allocation-failure path (E_OUTOFMEMORY).
const maxReasonableTableSize = 1 << 24

// ReadPass parses and fully validates one pass from blob, per the binary
// layout and error taxonomy of §6/§7. Validation completes before any
// bytecode is executed or even interpreted beyond its raw byte bounds
// (§4.1): ReadPass never calls into the VM.
func ReadPass(blob []byte) (*Pass, error) {
	if len(blob) < passHeaderSize {
		return nil, newError(ErrBadPassLength, ComponentHeader, len(blob))
	}
	r := &reader{b: blob}

	flags, _ := r.u8()
	maxLoop, _ := r.u8()
	maxContext, _ := r.u8()
	maxBackup, _ := r.u8()
	numRulesU, _ := r.u16()
	fsmOffsetU, _ := r.u16()
	pcCodeOff, _ := r.u32()
	rcCodeOff, _ := r.u32()
	aCodeOff, _ := r.u32()
	_, _ = r.u32() // reserved
	numStatesU, _ := r.u16()
	numTransitionU, _ := r.u16()
	numSuccessU, _ := r.u16()
	numColumnsU, _ := r.u16()
	numRangesU, _ := r.u16()
	_, _ = r.u16() // searchRange, unused by the linear-scan lookup
	_, _ = r.u16() // entrySelector
	_, _ = r.u16() // rangeShift

	if r.pos != passHeaderSize {
		return nil, newError(ErrBadPassLength, ComponentHeader, r.pos)
	}
	if int(fsmOffsetU) != passHeaderSize {
		return nil, newError(ErrBadPassLength, ComponentHeader, int(fsmOffsetU))
	}

	numRules := int(numRulesU)
	numStates := int(numStatesU)
	numTransition := int(numTransitionU)
	numSuccess := int(numSuccessU)
	numColumns := int(numColumnsU)
	numRanges := int(numRangesU)

	if numTransition > numStates {
		return nil, newError(ErrBadNumTrans, ComponentHeader, numTransition)
	}
	if numSuccess > numStates {
		return nil, newError(ErrBadNumSuccess, ComponentHeader, numSuccess)
	}
	if numSuccess+numTransition < numStates || numStates <= 0 {
		return nil, newError(ErrBadNumStates, ComponentHeader, numStates)
	}
	if numRanges == 0 {
		return nil, newError(ErrNoRanges, ComponentRange, 0)
	}
	if numTransition*numColumns > maxReasonableTableSize {
		return nil, ErrOutOfMemoryErr
	}

	ranges := make([]glyphRange, numRanges)
	for i := 0; i < numRanges; i++ {
		first, ok1 := r.u16()
		last, ok2 := r.u16()
		col, ok3 := r.u16()
		if !ok1 || !ok2 || !ok3 {
			return nil, newError(ErrBadPassLength, ComponentRange, i)
		}
		if last < first || (col != ColumnNone && int(col) >= numColumns) {
			return nil, newError(ErrBadRange, ComponentRange, i)
		}
		ranges[i] = glyphRange{first: first, last: last, column: col}
	}
	if err := validateRanges(ranges); err != nil {
		return nil, err
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].first < ranges[j].first })

	ruleMapIndex := make([]uint16, numSuccess+1)
	for i := range ruleMapIndex {
		v, ok := r.u16()
		if !ok {
			return nil, newError(ErrBadPassLength, ComponentRuleMap, i)
		}
		ruleMapIndex[i] = v
	}
	for i := 1; i < len(ruleMapIndex); i++ {
		if ruleMapIndex[i] < ruleMapIndex[i-1] {
			return nil, newError(ErrBadRuleMapping, ComponentRuleMap, i)
		}
	}
	numEntries := int(ruleMapIndex[numSuccess])
	if numEntries < 0 || numEntries > maxReasonableTableSize {
		return nil, newError(ErrBadRuleMapLen, ComponentRuleMap, numEntries)
	}
	ruleMap := make([]uint16, numEntries)
	for i := 0; i < numEntries; i++ {
		v, ok := r.u16()
		if !ok {
			return nil, newError(ErrBadRuleMapLen, ComponentRuleMap, i)
		}
		if int(v) >= numRules {
			return nil, newError(ErrBadRuleNum, ComponentRuleMap, i)
		}
		ruleMap[i] = v
	}

	minPreCtxt, ok1 := r.u8()
	maxPreCtxt, ok2 := r.u8()
	if !ok1 || !ok2 {
		return nil, newError(ErrBadPassLength, ComponentStartState, 0)
	}
	if minPreCtxt > maxPreCtxt || maxPreCtxt > 63 {
		return nil, newError(ErrBadCtxtLenBounds, ComponentStartState, int(maxPreCtxt))
	}

	numStartStates := int(maxPreCtxt-minPreCtxt) + 1
	startStates := make([]int16, numStartStates)
	for i := 0; i < numStartStates; i++ {
		v, ok := r.i16()
		if !ok {
			return nil, newError(ErrBadPassLength, ComponentStartState, i)
		}
		if int(v) < 0 || int(v) >= numStates {
			return nil, newError(ErrBadState, ComponentStartState, i)
		}
		startStates[i] = v
	}

	sortKeys := make([]uint16, numRules)
	for i := range sortKeys {
		v, ok := r.u16()
		if !ok {
			return nil, newError(ErrBadPassLength, ComponentRule, i)
		}
		sortKeys[i] = v
	}
	preContexts := make([]uint8, numRules)
	for i := range preContexts {
		v, ok := r.u8()
		if !ok {
			return nil, newError(ErrBadPassLength, ComponentRule, i)
		}
		preContexts[i] = v
	}
	for i := 0; i < numRules; i++ {
		sort_ := int(sortKeys[i])
		pre := int(preContexts[i])
		if pre >= sort_ || sort_ > 63 {
			return nil, newError(ErrBadCtxtLenBounds, ComponentRule, i)
		}
		if pre < int(minPreCtxt) || pre > int(maxPreCtxt) {
			return nil, newError(ErrBadCtxtLenBounds, ComponentRule, i)
		}
	}
	if _, ok := r.u8(); !ok { // reserved
		return nil, newError(ErrBadPassLength, ComponentHeader, r.pos)
	}

	passConstraintLen, ok := r.u16()
	if !ok {
		return nil, newError(ErrBadPassLength, ComponentPassConstraint, 0)
	}

	constraintOffsets := make([]uint16, numRules+1)
	for i := range constraintOffsets {
		v, ok := r.u16()
		if !ok {
			return nil, newError(ErrBadPassLength, ComponentRuleConstraint, i)
		}
		constraintOffsets[i] = v
	}
	actionOffsets := make([]uint16, numRules+1)
	for i := range actionOffsets {
		v, ok := r.u16()
		if !ok {
			return nil, newError(ErrBadPassLength, ComponentAction, i)
		}
		actionOffsets[i] = v
	}
	for i := 1; i <= numRules; i++ {
		if constraintOffsets[i] < constraintOffsets[i-1] {
			return nil, newError(ErrBadRuleCCodePtr, ComponentRuleConstraint, i)
		}
		if actionOffsets[i] < actionOffsets[i-1] {
			return nil, newError(ErrBadActionCodePtr, ComponentAction, i)
		}
	}

	transitions := make([]int16, numTransition*numColumns)
	for i := range transitions {
		v, ok := r.i16()
		if !ok {
			return nil, newError(ErrBadPassLength, ComponentTransition, i)
		}
		if int(v) < 0 || int(v) >= numStates {
			return nil, newError(ErrBadState, ComponentTransition, i)
		}
		transitions[i] = v
	}
	if _, ok := r.u8(); !ok { // reserved
		return nil, newError(ErrBadPassLength, ComponentHeader, r.pos)
	}

	passConstraint, ok := r.slice(int(pcCodeOff), int(passConstraintLen))
	if !ok {
		return nil, newError(ErrBadPassCCodePtr, ComponentPassConstraint, int(pcCodeOff))
	}
	ruleConstraintLen := int(constraintOffsets[numRules])
	ruleConstraintBytes, ok := r.slice(int(rcCodeOff), ruleConstraintLen)
	if !ok {
		return nil, newError(ErrBadRuleCCodePtr, ComponentRuleConstraint, int(rcCodeOff))
	}
	actionLen := int(actionOffsets[numRules])
	actionBytes, ok := r.slice(int(aCodeOff), actionLen)
	if !ok {
		return nil, newError(ErrBadActionCodePtr, ComponentAction, int(aCodeOff))
	}

	if passConstraintLen > 0 && !validateConstraintImmutable(passConstraint) {
		return nil, newError(ErrMutableCCode, ComponentPassConstraint, 0)
	}

	rules := make([]Rule, numRules)
	for i := 0; i < numRules; i++ {
		cBeg, cEnd := int(constraintOffsets[i]), int(constraintOffsets[i+1])
		aBeg, aEnd := int(actionOffsets[i]), int(actionOffsets[i+1])
		if cBeg < 0 || cEnd > len(ruleConstraintBytes) || cBeg > cEnd {
			return nil, newError(ErrBadCCodeLen, ComponentRuleConstraint, i)
		}
		if aBeg < 0 || aEnd > len(actionBytes) || aBeg > aEnd {
			return nil, newError(ErrBadCCodeLen, ComponentAction, i)
		}
		constraint := ruleConstraintBytes[cBeg:cEnd]
		if len(constraint) > 0 && !validateConstraintImmutable(constraint) {
			return nil, newError(ErrMutableCCode, ComponentRuleConstraint, i)
		}
		rules[i] = Rule{
			PreContext: int(preContexts[i]),
			Sort:       int(sortKeys[i]),
			Action:     actionBytes[aBeg:aEnd],
			Constraint: constraint,
		}
	}

	stateRuleStart := make([]int, numSuccess)
	stateRuleEnd := make([]int, numSuccess)
	var ruleBank []ruleEntry
	for si := 0; si < numSuccess; si++ {
		beg, end := int(ruleMapIndex[si]), int(ruleMapIndex[si+1])
		if beg < 0 || end > len(ruleMap) || beg > end {
			return nil, newError(ErrBadRuleMapping, ComponentRuleMap, si)
		}
		entries := make([]ruleEntry, 0, end-beg)
		for _, ri := range ruleMap[beg:end] {
			entries = append(entries, ruleEntry{ruleIndex: int(ri)})
		}
		sort.SliceStable(entries, func(i, j int) bool {
			ri, rj := rules[entries[i].ruleIndex], rules[entries[j].ruleIndex]
			if ri.Sort != rj.Sort {
				return ri.Sort > rj.Sort
			}
			return ri.PreContext < rj.PreContext
		})
		stateRuleStart[si] = len(ruleBank)
		ruleBank = append(ruleBank, entries...)
		stateRuleEnd[si] = len(ruleBank)
	}

	return &Pass{
		flags:          PassFlags(flags),
		maxLoop:        int(maxLoop),
		maxContext:     maxContext,
		maxBackup:      maxBackup,
		numRules:       numRules,
		numStates:      numStates,
		numTransition:  numTransition,
		numSuccess:     numSuccess,
		numColumns:     numColumns,
		ranges:         ranges,
		transitions:    transitions,
		minPreCtxt:     minPreCtxt,
		maxPreCtxt:     maxPreCtxt,
		startStates:    startStates,
		stateRuleStart: stateRuleStart,
		stateRuleEnd:   stateRuleEnd,
		ruleBank:       ruleBank,
		rules:          rules,
		passConstraint: passConstraint,
	}, nil
}

// validateRanges checks that every glyph id is covered by at most one
// range (§4.1 "each glyph may belong to at most one column — overlap is a
// load error"), independent of the order ranges were supplied in.
func validateRanges(ranges []glyphRange) error {
	sorted := make([]glyphRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].first < sorted[j].first })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].first <= sorted[i-1].last {
			return newError(ErrBadRange, ComponentRange, i)
		}
	}
	return nil
}
