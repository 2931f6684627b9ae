package shaper

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstone/shaper/internal/passbuild"
)

func loadPass(t *testing.T, p *passbuild.Pass, numStates int) *Pass {
	t.Helper()
	pass, err := ReadPass(p.Encode(numStates))
	require.NoError(t, err)
	return pass
}

// §8 S4: a 3-slot input whose columns are [c0, 0xFFFF, c0] halts the FSM
// after slot 0 and still reports any rule accepted at that state.
func TestRunFSM_HaltsOnUnmappedColumn(t *testing.T) {
	desc := &passbuild.Pass{
		MaxLoop: 1,
		Ranges: []passbuild.RangeEntry{
			{First: 1, Last: 1, Column: 0}, // gid 1 -> col 0
			// gid 2 intentionally left unmapped (ColumnNone)
			{First: 3, Last: 3, Column: 0},
		},
		RuleMapIndex:  []uint16{0, 1},
		RuleMap:       []uint16{0},
		MinPreCtxt:    0,
		MaxPreCtxt:    0,
		StartStates:   []int16{0},
		Rules:         []passbuild.RuleDesc{{Sort: 1, PreContext: 0, Action: []byte{byte(OpEnd)}}},
		NumTransition: 1,
		NumColumns:    1,
		Transitions:   []int16{1},
	}
	pass := loadPass(t, desc, 2)

	seg := buildSegment(1, 2, 3)
	matched, candidates, window := runFSM(pass, seg, seg.First())
	require.True(t, matched)
	require.Len(t, candidates, 1)

	// The unmapped slot is still pushed into the window before the FSM
	// notices it can't transition on it, so the window covers both slots
	// even though no further state transition occurs. A plain length
	// assertion wouldn't catch the window covering the *wrong* two slots
	// (e.g. an off-by-one that drops the first and keeps the third), so
	// diff the exact handle sequence instead.
	var gotWindow []SlotHandle
	for i := 0; i < window.Len(); i++ {
		gotWindow = append(gotWindow, window.At(i))
	}
	wantWindow := []SlotHandle{seg.First(), seg.Next(seg.First())}
	if diff := cmp.Diff(wantWindow, gotWindow); diff != "" {
		t.Fatalf("FSM window slot sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestRunFSM_InsufficientLeftContextFails(t *testing.T) {
	desc := &passbuild.Pass{
		MaxLoop:       1,
		Ranges:        []passbuild.RangeEntry{{First: 1, Last: 1, Column: 0}},
		RuleMapIndex:  []uint16{0, 1},
		RuleMap:       []uint16{0},
		MinPreCtxt:    1, // requires one slot of left context
		MaxPreCtxt:    1,
		StartStates:   []int16{0},
		Rules:         []passbuild.RuleDesc{{Sort: 2, PreContext: 1, Action: []byte{byte(OpEnd)}}},
		NumTransition: 1,
		NumColumns:    1,
		Transitions:   []int16{1},
	}
	pass := loadPass(t, desc, 2)

	seg := buildSegment(1) // single slot: no left context available
	matched, _, _ := runFSM(pass, seg, seg.First())
	assert.False(t, matched)
}
