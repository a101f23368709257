package dataset

import "time"

// SummaryEntry is one line of a label or note summary: the first stamp of a
// run of identical values, the value itself, and whether the run covered
// more than one row (rendered with a trailing ellipsis marker).
type SummaryEntry struct {
	Stamp     time.Time
	Value     string
	HasValue  bool
	Collapsed bool
}

// LabelSummary summarizes label transitions around the trailing edge of the
// current window. See SummaryAt.
func (s *Store) LabelSummary(maxLines int, horizon time.Duration) []SummaryEntry {
	if !s.cursor.Active() {
		return nil
	}
	return s.LabelSummaryAt(s.cursor.End()-1, maxLines, horizon)
}

// LabelSummaryAt summarizes label transitions around an anchor row.
func (s *Store) LabelSummaryAt(anchor, maxLines int, horizon time.Duration) []SummaryEntry {
	return s.summarizeField(s.iLabel, anchor, maxLines, horizon)
}

// NoteSummary summarizes note transitions around the trailing edge of the
// current window.
func (s *Store) NoteSummary(maxLines int, horizon time.Duration) []SummaryEntry {
	if !s.cursor.Active() {
		return nil
	}
	return s.NoteSummaryAt(s.cursor.End()-1, maxLines, horizon)
}

// NoteSummaryAt summarizes note transitions around an anchor row.
func (s *Store) NoteSummaryAt(anchor, maxLines int, horizon time.Duration) []SummaryEntry {
	return s.summarizeField(s.iNotes, anchor, maxLines, horizon)
}

// summarizeField builds a chronological list of value runs around the anchor
// row, looking backward and forward within the time horizon. Consecutive
// rows with the same value collapse into one entry carrying the run's first
// stamp; runs longer than one row are flagged Collapsed. The anchor's own
// run is always included. When more runs fall inside the horizon than
// maxLines allows, the runs closest to the anchor win, alternating backward
// and forward.
func (s *Store) summarizeField(fieldIdx, anchor, maxLines int, horizon time.Duration) []SummaryEntry {
	if fieldIdx < 0 || anchor < 0 || anchor >= len(s.records) || maxLines < 1 {
		return nil
	}

	anchorStamp := s.Stamp(anchor)
	oldest := anchorStamp.Add(-horizon)
	newest := anchorStamp.Add(horizon)

	runStart, runEnd := s.runBounds(fieldIdx, anchor)
	center := s.runEntry(fieldIdx, runStart, runEnd)

	// Nearest-first runs on either side of the anchor run.
	var back []SummaryEntry
	for i := runStart - 1; i >= 0 && !s.Stamp(i).Before(oldest); {
		rs, _ := s.runBounds(fieldIdx, i)
		back = append(back, s.runEntry(fieldIdx, rs, i))
		i = rs - 1
	}
	var fwd []SummaryEntry
	for i := runEnd + 1; i < len(s.records) && !s.Stamp(i).After(newest); {
		_, re := s.runBounds(fieldIdx, i)
		fwd = append(fwd, s.runEntry(fieldIdx, i, re))
		i = re + 1
	}

	// Spend the remaining line budget alternating backward/forward, nearest
	// runs first.
	budget := maxLines - 1
	nBack, nFwd := 0, 0
	for budget > 0 && (nBack < len(back) || nFwd < len(fwd)) {
		if nBack < len(back) {
			nBack++
			budget--
		}
		if budget > 0 && nFwd < len(fwd) {
			nFwd++
			budget--
		}
	}

	out := make([]SummaryEntry, 0, 1+nBack+nFwd)
	for i := nBack - 1; i >= 0; i-- {
		out = append(out, back[i])
	}
	out = append(out, center)
	out = append(out, fwd[:nFwd]...)
	return out
}

// runBounds expands from row i to the inclusive bounds of the run of equal
// values containing it.
func (s *Store) runBounds(fieldIdx, i int) (int, int) {
	v := s.records[i][fieldIdx]
	start, end := i, i
	for start > 0 && equalValue(s.records[start-1][fieldIdx], v) {
		start--
	}
	for end < len(s.records)-1 && equalValue(s.records[end+1][fieldIdx], v) {
		end++
	}
	return start, end
}

func (s *Store) runEntry(fieldIdx, start, end int) SummaryEntry {
	e := SummaryEntry{Stamp: s.Stamp(start), Collapsed: end > start}
	if v, ok := s.records[start][fieldIdx].(string); ok {
		e.Value = v
		e.HasValue = true
	}
	return e
}

func equalValue(a, b interface{}) bool {
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok != bok {
		return false
	}
	if !aok {
		return a == nil && b == nil
	}
	return as == bs
}
