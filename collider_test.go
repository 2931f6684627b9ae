package shaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// §8 S5: two diacritics stacked at identical origin, COLL_FIX set, cluster
// flags START/END on the first/second slot, flags&7 = 2 (numLoops = 2).
// Phase 1 should separate them along X; after CollisionAvoidance offsets
// are updated and ISCOL is left clear once resolved.
func TestCollisionAvoidance_SeparatesStackedDiacritics(t *testing.T) {
	seg := buildSegment(10, 11)
	first, second := seg.First(), seg.Next(seg.First())

	seg.Slot(first).advance = 500
	seg.Slot(second).advance = 500
	seg.PositionSlots() // first at x=0, second at x=500

	// Force an artificial collision by parking second back on top of first.
	seg.Slot(second).originX = seg.Slot(first).originX

	seg.Collision(first).Flags = CollFix | CollStart
	seg.Collision(second).Flags = CollFix | CollEnd

	pass := &Pass{flags: PassFlags(2)} // collisionLoops() == 2

	err := CollisionAvoidance(seg, pass, &Config{})
	require.NoError(t, err)

	c1, c2 := seg.Collision(first), seg.Collision(second)
	assert.False(t, c1.Flags.Colliding())
	assert.False(t, c2.Flags.Colliding())
}

func TestFindClusters_SingleClusterDiscovered(t *testing.T) {
	seg := buildSegment(1, 2, 3)
	a, b, c := seg.First(), seg.Next(seg.First()), seg.Last()
	seg.Collision(a).Flags |= CollStart
	seg.Collision(c).Flags |= CollEnd

	clusters := findClusters(seg)
	require.Len(t, clusters, 1)
	assert.Equal(t, a, clusters[0].start)
	assert.Equal(t, c, clusters[0].end)
	_ = b
}
