package shaper

import "fmt"

// Code is the taxonomy of load-time and runtime error conditions a pass
// table or a running machine can report. Load-time codes abandon the whole
// pass; runtime codes are local to a single rule or collider step.
type Code int

const (
	codeNone Code = iota

	// Load-time structural errors (§4.1, §7).
	ErrBadPassLength
	ErrBadNumTrans
	ErrBadNumSuccess
	ErrBadNumStates
	ErrNoRanges
	ErrBadCtxtLenBounds
	ErrBadRuleMapLen
	ErrBadPassCCodePtr
	ErrBadRuleCCodePtr
	ErrBadActionCodePtr
	ErrBadCCodeLen
	ErrBadState
	ErrBadRuleNum
	ErrBadRange
	ErrBadRuleMapping
	ErrMutableCCode

	// Load-time resource error.
	ErrOutOfMemory

	// Bytecode failure code. ReadPass never returns it: it does not run the
	// VM, and constraint bytecode that fails inspection (action-only,
	// unknown or truncated opcode) is reported as ErrMutableCCode.
	ErrCodeFailure
)

var codeNames = map[Code]string{
	codeNone:            "ok",
	ErrBadPassLength:    "bad pass length",
	ErrBadNumTrans:      "bad transition count",
	ErrBadNumSuccess:    "bad success-state count",
	ErrBadNumStates:     "bad state count",
	ErrNoRanges:         "no glyph ranges",
	ErrBadCtxtLenBounds: "bad context-length bounds",
	ErrBadRuleMapLen:    "bad rule-map length",
	ErrBadPassCCodePtr:  "bad pass constraint code pointer",
	ErrBadRuleCCodePtr:  "bad rule constraint code pointer",
	ErrBadActionCodePtr: "bad action code pointer",
	ErrBadCCodeLen:      "bad constraint code length",
	ErrBadState:         "bad state index",
	ErrBadRuleNum:       "bad rule number",
	ErrBadRange:         "bad glyph range",
	ErrBadRuleMapping:   "bad rule mapping",
	ErrMutableCCode:     "mutable constraint code",
	ErrOutOfMemory:      "out of memory",
	ErrCodeFailure:      "bytecode validation failure",
}

func (c Code) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// Component identifies which part of a pass an error's Context refers to.
type Component uint8

const (
	ComponentHeader Component = iota
	ComponentRange
	ComponentRuleMap
	ComponentStartState
	ComponentTransition
	ComponentRule
	ComponentPassConstraint
	ComponentRuleConstraint
	ComponentAction
)

// Context packs a component tag and an index into the 24 bits the original
// format budgets for diagnostic context (§7): 8 bits of component, 16 bits
// of index.
type Context uint32

// NewContext builds a Context from a component and an index, truncating the
// index to 16 bits the same way the original error-context encoding does.
func NewContext(component Component, index int) Context {
	return Context(uint32(component)<<16 | uint32(uint16(index)))
}

// Component returns the component half of the packed context.
func (c Context) Component() Component { return Component(c >> 16) }

// Index returns the index half of the packed context.
func (c Context) Index() int { return int(uint16(c)) }

// Error is the load-time error value returned by ReadPass. It satisfies the
// standard error interface and carries enough structure for callers to
// branch on Code with errors.Is against the two sentinels below.
type Error struct {
	Code    Code
	Context Context
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s @ %s[%d]", e.Code, componentNames[e.Context.Component()], e.Context.Index())
}

// Is implements the matching errors.Is expects against the exported
// sentinels, mirroring the teacher's narrow isthrown-style type check.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == codeNone {
		return false
	}
	return e.Code == t.Code
}

var componentNames = map[Component]string{
	ComponentHeader:         "header",
	ComponentRange:          "range",
	ComponentRuleMap:        "ruleMap",
	ComponentStartState:     "startState",
	ComponentTransition:     "transition",
	ComponentRule:           "rule",
	ComponentPassConstraint: "passConstraint",
	ComponentRuleConstraint: "ruleConstraint",
	ComponentAction:         "action",
}

// newError is a small constructor used throughout the loader.
func newError(code Code, component Component, index int) *Error {
	return &Error{Code: code, Context: NewContext(component, index)}
}

// ErrOutOfMemoryErr and ErrCodeFailureErr are the two sentinel values
// callers are expected to compare against programmatically (the rest of
// the taxonomy exists for diagnostics, not branching).
var (
	ErrOutOfMemoryErr = &Error{Code: ErrOutOfMemory}
	ErrCodeFailureErr = &Error{Code: ErrCodeFailure}
)
