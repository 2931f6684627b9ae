package shaper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// §8 S6: adjustSlot wraps a null cursor to the segment's last slot when
// walking backward, and to its first slot when walking forward, rather
// than staying null or panicking.
func TestAdjustSlot_WrapsFromNullCursor(t *testing.T) {
	seg := buildSegment(1, 2, 3)

	forward, crossed := adjustSlot(seg, NullSlot, 1, NullSlot)
	assert.Equal(t, seg.First(), forward)
	assert.False(t, crossed) // landing on the first slot does not reach a NullSlot highwater

	backward, _ := adjustSlot(seg, NullSlot, -1, NullSlot)
	assert.Equal(t, seg.Last(), backward)
}

// A positive delta from a real cursor just walks forward slot by slot and
// reports crossing highwater once it reaches it.
func TestAdjustSlot_WalksForwardAndReportsHighwater(t *testing.T) {
	seg := buildSegment(1, 2, 3)
	first := seg.First()
	second := seg.Next(first)
	third := seg.Next(second)

	got, crossed := adjustSlot(seg, first, 2, third)
	assert.Equal(t, third, got)
	assert.True(t, crossed)
}

// A negative delta walks backward without ever treating highwater as a
// backward-crossing boundary (only forward walks set crossed here).
func TestAdjustSlot_WalksBackward(t *testing.T) {
	seg := buildSegment(1, 2, 3)
	last := seg.Last()
	middle := seg.Prev(last)

	got, _ := adjustSlot(seg, last, -1, NullSlot)
	assert.Equal(t, middle, got)
}
