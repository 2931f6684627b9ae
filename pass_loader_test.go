package shaper

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkstone/shaper/internal/passbuild"
)

// minimalPass builds the smallest pass that accepts a single range mapping
// gid 5 to column 0, with one rule of sort=1, preContext=0 that always
// matches (no constraint) and whose action does nothing but OpEnd.
func minimalPass() *passbuild.Pass {
	return &passbuild.Pass{
		MaxLoop: 4,
		Ranges:  []passbuild.RangeEntry{{First: 5, Last: 5, Column: 0}},
		// states: 0 start, 1 success
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
}

func TestReadPass_Minimal(t *testing.T) {
	blob := minimalPass().Encode(2)
	p, err := ReadPass(blob)
	require.NoError(t, err)
	assert.True(t, p.HasRules())
	assert.Equal(t, 4, p.MaxLoop())
	assert.Equal(t, uint16(0), p.column(5))
	assert.Equal(t, ColumnNone, p.column(6))
}

// §8 property 7: truncating the blob by 1-40 bytes must error, never panic.
func TestReadPass_Truncation(t *testing.T) {
	blob := minimalPass().Encode(2)
	for cut := 1; cut <= 40 && cut < len(blob); cut++ {
		truncated := blob[:len(blob)-cut]
		_, err := ReadPass(truncated)
		assert.Errorf(t, err, "expected error truncating %d bytes", cut)
	}
}

func TestReadPass_OverlappingRangesRejected(t *testing.T) {
	p := minimalPass()
	p.Ranges = []passbuild.RangeEntry{
		{First: 5, Last: 10, Column: 0},
		{First: 8, Last: 12, Column: 0},
	}
	_, err := ReadPass(p.Encode(2))
	require.Error(t, err)
	var shErr *Error
	require.ErrorAs(t, err, &shErr)
	assert.Equal(t, ErrBadRange, shErr.Code)
}

func TestReadPass_BadRuleMapMonotonicity(t *testing.T) {
	p := minimalPass()
	p.RuleMapIndex = []uint16{1, 0}
	_, err := ReadPass(p.Encode(2))
	require.Error(t, err)
	var shErr *Error
	require.ErrorAs(t, err, &shErr)
	assert.Equal(t, ErrBadRuleMapping, shErr.Code)
}

func TestReadPass_MutableConstraintRejected(t *testing.T) {
	p := minimalPass()
	p.Rules[0].Constraint = []byte{byte(OpSetAttr), 0, 0} // action-only opcode
	_, err := ReadPass(p.Encode(2))
	require.Error(t, err)
	var shErr *Error
	require.ErrorAs(t, err, &shErr)
	assert.Equal(t, ErrMutableCCode, shErr.Code)
}

func TestReadPass_BadStateIndexInTransition(t *testing.T) {
	p := minimalPass()
	p.Transitions = []int16{99} // only 2 states exist
	_, err := ReadPass(p.Encode(2))
	require.Error(t, err)
	var shErr *Error
	require.ErrorAs(t, err, &shErr)
	assert.Equal(t, ErrBadState, shErr.Code)
}

// §4.1.1: ranges are sorted defensively at load time regardless of the
// order the font table supplied them in. A single assert.Equal per gid
// would localize a mismatch fine, but the property under test is really
// "the whole resolved-column sequence for this gid set", so diff it as one
// structure rather than one assertion per gid.
func TestReadPass_RangesSortedRegardlessOfInputOrder(t *testing.T) {
	p := minimalPass()
	p.Ranges = []passbuild.RangeEntry{
		{First: 20, Last: 20, Column: 0},
		{First: 5, Last: 5, Column: 0},
		{First: 10, Last: 12, Column: 0},
	}
	pass, err := ReadPass(p.Encode(2))
	require.NoError(t, err)

	got := []uint16{
		pass.column(5), pass.column(10), pass.column(11),
		pass.column(12), pass.column(20), pass.column(99),
	}
	want := []uint16{0, 0, 0, 0, 0, ColumnNone}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("resolved columns mismatch (-want +got):\n%s", diff)
	}
}

func TestReadPass_ZeroRangesRejected(t *testing.T) {
	p := minimalPass()
	p.Ranges = nil
	_, err := ReadPass(p.Encode(2))
	require.Error(t, err)
	var shErr *Error
	require.ErrorAs(t, err, &shErr)
	assert.Equal(t, ErrNoRanges, shErr.Code)
}
