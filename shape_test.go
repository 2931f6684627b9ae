package shaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCmap maps a fixed set of runes to glyph ids for shape_test.go's
// Shaper tests, standing in for a real sfnt cmap subtable.
type fakeCmap map[rune]uint16

func (f fakeCmap) Lookup(r rune) (uint16, bool) {
	gid, ok := f[r]
	return gid, ok
}

// fakeFont gives every glyph a fixed per-gid advance, independent of ppem,
// so test assertions don't need to reproduce real font scaling math.
type fakeFont map[uint16]float32

func (f fakeFont) PixelAdvance(gid uint16, ppem float32) float32 { return f[gid] }

func newTestShaper() *Shaper {
	font := fakeFont{1: 10, 2: 10, 3: 10, 4: 5}
	return &Shaper{font: font, cache: NewSegCache(CacheLimits{}), cfg: DefaultConfig()}
}

// §8 S1: the cache is keyed per whitespace-delimited sub-run, so shaping
// the same word twice (even embedded in different surrounding text) hits
// the cache on the second occurrence.
func TestShape_RepeatedWordHitsCache(t *testing.T) {
	cmap := fakeCmap{'a': 1, 'b': 2, 'c': 3, ' ': 4}
	s := newTestShaper()

	first, err := s.Shape(cmap, "a b", DirLTR, 12)
	require.NoError(t, err)
	assert.False(t, first.Cached, "first shaping of any run must miss the cache")

	second, err := s.Shape(cmap, "a c", DirLTR, 12)
	require.NoError(t, err)
	assert.True(t, second.Cached, "the leading \"a\" run was already cached by the first call")
}

// A sub-run never seen before never reports a cache hit.
func TestShape_NovelRunMissesCache(t *testing.T) {
	cmap := fakeCmap{'a': 1, 'b': 2, 'c': 3, ' ': 4}
	s := newTestShaper()

	result, err := s.Shape(cmap, "abc", DirLTR, 12)
	require.NoError(t, err)
	assert.False(t, result.Cached)
}

// Shaping an empty string produces an empty, non-nil segment rather than
// an error.
func TestShape_EmptyTextProducesEmptySegment(t *testing.T) {
	cmap := fakeCmap{'a': 1, ' ': 4}
	s := newTestShaper()

	result, err := s.Shape(cmap, "", DirLTR, 12)
	require.NoError(t, err)
	assert.Equal(t, NullSlot, result.Segment.First())
}
