package models

import "math"

// SeekBarWidth is the coordinate range of the seek surface. Click positions
// arrive as an x coordinate in [0, SeekBarWidth] and are translated to a
// whole-second playback offset.
const SeekBarWidth = 396.0

// segment is one coordinate sub-range labeled with its second offset.
// Bounds are inclusive at both edges; adjacent segments share a boundary.
type segment struct {
	min, max float64
}

// SeekMap translates seek-bar coordinates into playback offsets for a single
// track. It is built once from the track's duration: the bar is divided into
// round(duration) contiguous segments of equal width, segment i covering
// second i of the track.
type SeekMap struct {
	segments []segment
}

// NewSeekMap builds the coordinate table for a track of the given duration in
// seconds. A non-positive duration yields an empty map that never matches.
func NewSeekMap(duration float64) *SeekMap {
	m := &SeekMap{}
	if duration <= 0 {
		return m
	}

	width := SeekBarWidth / duration
	n := int(math.Round(duration))
	m.segments = make([]segment, 0, n)

	start := 0.0
	end := width
	for i := 0; i < n; i++ {
		m.segments = append(m.segments, segment{min: start, max: end})
		start = end
		end += width
	}
	return m
}

// Offset returns the second offset for coordinate x. The bool is false when x
// falls outside every segment; callers must ignore such coordinates.
func (m *SeekMap) Offset(x float64) (int, bool) {
	if x < 0 || x > SeekBarWidth {
		return 0, false
	}
	for i, seg := range m.segments {
		if seg.min <= x && x <= seg.max {
			return i, true
		}
	}
	return 0, false
}

// Segments reports how many whole-second segments the map holds.
func (m *SeekMap) Segments() int {
	return len(m.segments)
}
