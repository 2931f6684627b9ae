package shaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegCache_InsertThenLookupHits(t *testing.T) {
	c := NewSegCache(CacheLimits{MaxSegments: 4, MaxSuffixPerPrefix: eMaxSuffixCount})
	gids := []uint16{1, 2, 3}
	slots := []CachedSlot{{Gid: 1}, {Gid: 2}, {Gid: 3}}

	_, _, ok := c.Lookup(gids)
	require.False(t, ok)

	c.Insert(gids, slots, 42)
	got, advance, ok := c.Lookup(gids)
	require.True(t, ok)
	assert.Equal(t, slots, got)
	assert.Equal(t, float32(42), advance)
	assert.Equal(t, 1, c.Size())
}

// §8 invariant 6: a cache hit reproduces the same slots a miss would have
// produced, up to the cached-prefix length.
func TestSegCache_HitMatchesOriginalInsert(t *testing.T) {
	c := NewSegCache(CacheLimits{MaxSegments: 4})
	gids := []uint16{7, 8}
	want := []CachedSlot{{Gid: 7, Advance: 10}, {Gid: 8, Advance: 20}}
	c.Insert(gids, want, 30)

	got, _, ok := c.Lookup(gids)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSegCache_AccessCountIncrementsOnRepeatedLookup(t *testing.T) {
	c := NewSegCache(CacheLimits{MaxSegments: 4})
	gids := []uint16{1, 2}
	c.Insert(gids, []CachedSlot{{Gid: 1}, {Gid: 2}}, 0)

	before := c.TotalAccesses()
	c.Lookup(gids)
	c.Lookup(gids)
	assert.Equal(t, before+2, c.TotalAccesses())
}

func TestSegCache_DistinctSuffixesShareAPrefixBucket(t *testing.T) {
	c := NewSegCache(CacheLimits{MaxSegments: 4})
	c.Insert([]uint16{1, 2, 9}, []CachedSlot{{Gid: 1}, {Gid: 2}, {Gid: 9}}, 1)
	c.Insert([]uint16{1, 2, 8}, []CachedSlot{{Gid: 1}, {Gid: 2}, {Gid: 8}}, 2)

	assert.Equal(t, 2, c.Size())
	_, advance1, ok1 := c.Lookup([]uint16{1, 2, 9})
	_, advance2, ok2 := c.Lookup([]uint16{1, 2, 8})
	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, float32(1), advance1)
	assert.Equal(t, float32(2), advance2)
}

func TestSegCache_RejectsOverLongKey(t *testing.T) {
	c := NewSegCache(CacheLimits{MaxSegments: 4})
	long := make([]uint16, eMaxCachedSeg+1)
	c.Insert(long, []CachedSlot{{Gid: 1}}, 0)
	assert.Equal(t, 0, c.Size())
}
