package shaper

import (
	"encoding/json"
	"os"

	"github.com/natefinch/atomic"
)

// TraceSink receives structured shaping events (§6). Implementations must
// be safe to call with a nil receiver check already done by callers — the
// interface itself carries no nil-safety guarantee. A sink must never
// influence shaping output; it only observes.
type TraceSink interface {
	PassStart(passIndex int, numSlots int)
	RuleConsidered(cursor int, ruleIndex int, passed bool)
	RuleApplied(cursor int, ruleIndex int)
	CollisionPhase(phase string, slot int)
}

// traceEvent is one element of the JSON array a JSONFileSink writes.
type traceEvent struct {
	Kind      string `json:"kind"`
	Pass      int    `json:"pass,omitempty"`
	NumSlots  int    `json:"numSlots,omitempty"`
	Cursor    int    `json:"cursor,omitempty"`
	RuleIndex int    `json:"ruleIndex,omitempty"`
	Passed    bool   `json:"passed,omitempty"`
	Phase     string `json:"phase,omitempty"`
	Slot      int    `json:"slot,omitempty"`
}

// JSONFileSink is a reference TraceSink that buffers events in memory and
// flushes them to path as one JSON array, written atomically so a reader
// never observes a half-written trace file — the same durability concern
// the teacher's own config/state persistence solves with the identical
// library (see DESIGN.md).
type JSONFileSink struct {
	path   string
	events []traceEvent
}

// NewJSONFileSink returns a sink that accumulates events and writes them to
// path on Flush.
func NewJSONFileSink(path string) *JSONFileSink {
	return &JSONFileSink{path: path}
}

func (s *JSONFileSink) PassStart(passIndex, numSlots int) {
	s.events = append(s.events, traceEvent{Kind: "pass_start", Pass: passIndex, NumSlots: numSlots})
}

func (s *JSONFileSink) RuleConsidered(cursor, ruleIndex int, passed bool) {
	s.events = append(s.events, traceEvent{Kind: "rule_considered", Cursor: cursor, RuleIndex: ruleIndex, Passed: passed})
}

func (s *JSONFileSink) RuleApplied(cursor, ruleIndex int) {
	s.events = append(s.events, traceEvent{Kind: "rule_applied", Cursor: cursor, RuleIndex: ruleIndex})
}

func (s *JSONFileSink) CollisionPhase(phase string, slot int) {
	s.events = append(s.events, traceEvent{Kind: "collision_phase", Phase: phase, Slot: slot})
}

// Flush serializes all buffered events and atomically replaces the sink's
// target file, so a concurrent reader (or a crash mid-write) never sees a
// truncated trace.
func (s *JSONFileSink) Flush() error {
	data, err := json.MarshalIndent(s.events, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp("", "shaper-trace-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return atomic.ReplaceFile(tmpPath, s.path)
}
