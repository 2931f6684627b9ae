package shaper

import "unicode"

// Shaper ties a Face's pass tables, a Font's metrics, a CmapProcessor, and
// a segment cache together into the single entry point callers use (§6).
// It owns the cache across calls so repeated runs on the same prefix of
// glyph ids benefit from it (§4.7, §8 scenario S1).
type Shaper struct {
	passes []*Pass
	font   Font
	cache  *SegCache
	cfg    Config
}

// NewShaper loads every pass table tag in order from face and returns a
// Shaper ready to process segments. A tag that Face doesn't have is
// skipped rather than treated as an error — fonts commonly carry only a
// subset of passes.
func NewShaper(face Face, font Font, tags []string, cfg Config) (*Shaper, error) {
	s := &Shaper{font: font, cfg: cfg, cache: NewSegCache(cfg.Cache)}
	for _, tag := range tags {
		blob, err := face.Table(tag)
		if err != nil {
			continue
		}
		p, err := ReadPass(blob)
		if err != nil {
			return nil, err
		}
		s.passes = append(s.passes, p)
	}
	return s, nil
}

// ShapeResult is what Shape hands back: the finished segment, and whether
// any of its content came from a segment-cache hit (§8 scenario S1).
type ShapeResult struct {
	Segment *Segment
	Cached  bool
}

// Shape runs the full pipeline for text. Per §4.7 ("the pass runner
// consults the cache before doing work on a sub-run delimited by
// whitespace"), the cache is keyed per whitespace-delimited sub-run, not
// per whole input: text is split into alternating whitespace/non-whitespace
// runs, each non-whitespace run is looked up (and, on a miss, shaped and
// inserted) independently, and whitespace runs pass straight through as
// simple separator slots that never participate in the cache.
func (s *Shaper) Shape(proc CmapProcessor, text string, dir Direction, ppem float32) (*ShapeResult, error) {
	seg := NewSegment(dir)
	cached := false

	for _, run := range splitWhitespaceRuns(text) {
		if run.whitespace {
			appendRun(seg, proc, run.text, s.font, ppem)
			continue
		}

		gids := mapGids(proc, run.text)
		if len(gids) == 0 {
			continue
		}

		if slots, _, ok := s.cache.Lookup(gids); ok {
			appendCachedSlots(seg, slots)
			cached = true
			continue
		}

		sub := NewSegment(dir)
		appendRun(sub, proc, run.text, s.font, ppem)
		sub.PositionSlots()
		for _, p := range s.passes {
			if err := RunGraphite(p, sub, &s.cfg); err != nil {
				return nil, err
			}
		}
		subSlots := snapshotSlots(sub)
		s.cache.Insert(gids, subSlots, sub.Advance())
		appendCachedSlots(seg, subSlots)
	}

	seg.PositionSlots()
	return &ShapeResult{Segment: seg, Cached: cached}, nil
}

// appendRun maps text through proc and appends a slot per mapped glyph onto
// seg, setting each slot's advance from font and flagging whitespace glyphs
// (§4.6's zero-bbox slots) — the shared building block for both the
// non-cached whitespace separators and a cache-missed word run.
func appendRun(seg *Segment, proc CmapProcessor, text string, font Font, ppem float32) {
	for _, r := range text {
		gid, ok := proc.Lookup(r)
		if !ok {
			continue
		}
		h := seg.AppendGlyph(gid, 0, 1)
		s := seg.Slot(h)
		s.advance = font.PixelAdvance(gid, ppem)
		if unicode.IsSpace(r) {
			s.flags |= SlotWhitespace
		}
	}
}

func mapGids(proc CmapProcessor, text string) []uint16 {
	var gids []uint16
	for _, r := range text {
		if gid, ok := proc.Lookup(r); ok {
			gids = append(gids, gid)
		}
	}
	return gids
}

func snapshotSlots(seg *Segment) []CachedSlot {
	var out []CachedSlot
	for h := seg.First(); h != NullSlot; h = seg.Next(h) {
		s := seg.Slot(h)
		out = append(out, CachedSlot{
			Gid: s.gid, Before: s.before, After: s.after,
			OriginX: s.originX, OriginY: s.originY, Advance: s.advance,
		})
	}
	return out
}

// appendCachedSlots splices a previously shaped (or just-shaped) snapshot
// onto the end of seg.
func appendCachedSlots(seg *Segment, slots []CachedSlot) {
	for _, cs := range slots {
		h := seg.AppendGlyph(cs.Gid, cs.Before, cs.After)
		s := seg.Slot(h)
		s.originX, s.originY = cs.OriginX, cs.OriginY
		s.advance = cs.Advance
	}
}

// textRun is one maximal run of consecutive whitespace or non-whitespace
// runes, in original order.
type textRun struct {
	text       string
	whitespace bool
}

// splitWhitespaceRuns locates §4.7's "sub-run delimited by whitespace" cache
// boundaries without discarding the separators themselves, so Shape can
// still reproduce the original text's whitespace in its output.
func splitWhitespaceRuns(text string) []textRun {
	var runs []textRun
	var cur []rune
	curWS := false
	started := false

	flush := func() {
		if len(cur) > 0 {
			runs = append(runs, textRun{text: string(cur), whitespace: curWS})
			cur = cur[:0]
		}
	}

	for _, r := range text {
		isWS := unicode.IsSpace(r)
		if !started {
			curWS = isWS
			started = true
		} else if isWS != curWS {
			flush()
			curWS = isWS
		}
		cur = append(cur, r)
	}
	flush()
	return runs
}
