package shaper

// AttrCode enumerates the slot attributes addressable from bytecode and
// from the public attr() accessor (§6). The set is closed: the VM rejects
// any code outside [0, AttrMax) as a runtime fault (died early), in both
// constraint and action code; the loader does not inspect attribute
// operands.
type AttrCode int

const (
	AttrAdvX AttrCode = iota
	AttrAdvY
	AttrAttTo
	AttrAttX
	AttrAttY
	AttrAttGpt
	AttrAttXOff
	AttrAttYOff
	AttrAttWithX
	AttrAttWithY
	AttrWithGpt
	AttrAttWithXOff
	AttrAttWithYOff
	AttrAttLevel
	AttrBreak
	AttrCompRef
	AttrDir
	AttrInsert
	AttrPosX
	AttrPosY
	AttrShiftX
	AttrShiftY
	AttrUserDefnV1
	AttrMeasureSol
	AttrMeasureEol
	AttrJStretch
	AttrJShrink
	AttrJStep
	AttrJWeight
	AttrJWidth
	// AttrUserDefn is the base of a 30-wide user-defined attribute band,
	// matching the glossary's "userDefn@(jStretch+30)".
	AttrUserDefn      = AttrJStretch + 30
	attrUserDefnCount = 30
	AttrMax           = AttrUserDefn + attrUserDefnCount
)

func (c AttrCode) valid() bool { return c >= 0 && c < AttrMax }
