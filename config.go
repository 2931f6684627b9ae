package shaper

// Config carries the ambient knobs a Shape call needs that aren't part of
// any single pass table: loop-guard overrides, segment-cache limits, and
// an optional trace sink. Unlike the teacher's string-keyed Config (built
// for an open-ended set of grammar/compiler toggles), this module's knobs
// are a small fixed set owned by the caller, so a plain struct is the
// better fit — see DESIGN.md.
type Config struct {
	// MaxLoopOverride, if non-zero, caps every pass's own iMaxLoop
	// instead of trusting the font-supplied value. Passes that request
	// a smaller bound are never raised by this.
	MaxLoopOverride int

	// StackSlots sizes the VM's reusable operand stack. Zero selects a
	// sane default (see minStackSlots).
	StackSlots int

	Cache CacheLimits

	// TraceSink, if non-nil, receives structured shaping events (§6).
	// Its presence or absence must never change shaping output.
	TraceSink TraceSink
}

// CacheLimits bounds the segment cache (§4.7).
type CacheLimits struct {
	MaxSegments        int
	MaxSuffixPerPrefix int
}

// DefaultConfig returns the knob values used when a caller passes a zero
// Config.
func DefaultConfig() Config {
	return Config{
		Cache: CacheLimits{
			MaxSegments:        eMaxCachedSeg,
			MaxSuffixPerPrefix: eMaxSuffixCount,
		},
	}
}

func (c Config) stackCapacity() int {
	if c.StackSlots > 0 {
		return c.StackSlots
	}
	return minStackSlots
}

func (c Config) effectiveMaxLoop(passMaxLoop int) int {
	if c.MaxLoopOverride > 0 && c.MaxLoopOverride < passMaxLoop {
		return c.MaxLoopOverride
	}
	if passMaxLoop <= 0 {
		return 1
	}
	return passMaxLoop
}
