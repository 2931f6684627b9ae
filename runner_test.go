package shaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// §8 S2: numRules == 0 with flags&7 == 1 (one collision loop) still runs
// collision avoidance once and never touches the FSM; a segment with no
// marked clusters comes out with its advance exactly as PositionSlots left
// it, since findClusters has nothing to fix.
func TestRunGraphite_EmptyRulesWithCollisionFlagsPreservesAdvance(t *testing.T) {
	seg := buildSegment(1, 2, 3)
	seg.Slot(seg.First()).advance = 10
	seg.Slot(seg.Next(seg.First())).advance = 20
	seg.Slot(seg.Last()).advance = 30
	seg.PositionSlots()
	want := seg.Advance()

	pass := &Pass{flags: PassFlags(1)} // collisionLoops() == 1, numRules == 0
	require.False(t, pass.HasRules())
	require.True(t, pass.HasCollisionFlags())

	err := RunGraphite(pass, seg, &Config{})
	require.NoError(t, err)
	assert.Equal(t, want, seg.Advance())
	assert.True(t, seg.Flags()&SegInitCollisions != 0)
}

// A pass with neither rules nor collision flags is a pure no-op.
func TestRunGraphite_NoRulesNoCollisionFlagsIsNoop(t *testing.T) {
	seg := buildSegment(1, 2)
	seg.Slot(seg.First()).advance = 5
	seg.Slot(seg.Last()).advance = 7
	seg.PositionSlots()
	want := seg.Advance()

	pass := &Pass{}
	err := RunGraphite(pass, seg, &Config{})
	require.NoError(t, err)
	assert.Equal(t, want, seg.Advance())
	assert.False(t, seg.Flags()&SegInitCollisions != 0)
}

// RunGraphite must tolerate a nil cfg, falling back to DefaultConfig.
func TestRunGraphite_NilConfigUsesDefaults(t *testing.T) {
	seg := buildSegment(1)
	pass := &Pass{}
	err := RunGraphite(pass, seg, nil)
	require.NoError(t, err)
}
