package shaper

import "unicode"

// Face gives the core read access to a font's binary tables (§6). It is
// the only way load-time code touches font bytes; implementations back it
// with whatever table source they like (sfnt reader, test fixture, etc).
type Face interface {
	Table(tag string) ([]byte, error)
}

// Font supplies metrics the core can't derive from pass tables alone.
type Font interface {
	PixelAdvance(gid uint16, ppem float32) float32
}

// CmapEntry is one codepoint-to-stream-offset mapping produced while
// building a segment's initial slot run from input text.
type CmapEntry struct {
	Codepoint rune
	Offset    int
}

// CmapProcessor resolves codepoints to glyph ids ahead of segment
// construction (§6 "cmap processor").
type CmapProcessor interface {
	Lookup(r rune) (gid uint16, ok bool)
}

// MapCodepoints runs proc over text, producing one CmapEntry per rune and
// appending a slot to seg for every successfully mapped glyph. Runes the
// processor can't map are skipped; callers needing strict behavior should
// wrap proc to report failures via their own mechanism.
func MapCodepoints(seg *Segment, proc CmapProcessor, text string) []CmapEntry {
	var entries []CmapEntry
	offset := 0
	for _, r := range text {
		entries = append(entries, CmapEntry{Codepoint: r, Offset: offset})
		if gid, ok := proc.Lookup(r); ok {
			h := seg.AppendGlyph(gid, offset, offset+1)
			if unicode.IsSpace(r) {
				seg.Slot(h).flags |= SlotWhitespace
			}
		}
		offset++
	}
	return entries
}
