package models

import "testing"

func TestSeekMapSegments(t *testing.T) {
	m := NewSeekMap(180)
	if m.Segments() != 180 {
		t.Fatalf("Expected 180 segments, got %d", m.Segments())
	}

	// Rounded, not truncated.
	m = NewSeekMap(179.6)
	if m.Segments() != 180 {
		t.Fatalf("Expected 180 segments for 179.6s, got %d", m.Segments())
	}
}

func TestSeekMapOffset(t *testing.T) {
	m := NewSeekMap(198) // segment width = 2 coordinates

	tests := []struct {
		x      float64
		offset int
		ok     bool
	}{
		{0, 0, true},
		{1.5, 0, true},
		{3, 1, true},
		{SeekBarWidth, 197, true},
		{-1, 0, false},
		{SeekBarWidth + 1, 0, false},
	}

	for _, tt := range tests {
		offset, ok := m.Offset(tt.x)
		if ok != tt.ok || (ok && offset != tt.offset) {
			t.Errorf("Offset(%v) = (%d, %v), expected (%d, %v)", tt.x, offset, ok, tt.offset, tt.ok)
		}
	}
}

func TestSeekMapBoundaryInclusive(t *testing.T) {
	m := NewSeekMap(198)
	// x = 2 lies on the boundary between segments 0 and 1; the scan finds the
	// earlier segment first.
	offset, ok := m.Offset(2)
	if !ok || offset != 0 {
		t.Fatalf("Offset(2) = (%d, %v), expected (0, true)", offset, ok)
	}
}

func TestSeekMapZeroDuration(t *testing.T) {
	m := NewSeekMap(0)
	if m.Segments() != 0 {
		t.Fatalf("Expected empty map, got %d segments", m.Segments())
	}
	if _, ok := m.Offset(10); ok {
		t.Fatal("Expected no match on an empty map")
	}
}

func TestRepeatModeCycle(t *testing.T) {
	mode := RepeatOff
	want := []RepeatMode{RepeatOne, RepeatAll, RepeatOff}
	for _, expected := range want {
		mode = mode.Next()
		if mode != expected {
			t.Fatalf("Expected %s, got %s", expected, mode)
		}
	}
}

func TestParseRepeatMode(t *testing.T) {
	for _, name := range []string{"off", "one", "all"} {
		mode, ok := ParseRepeatMode(name)
		if !ok || mode.String() != name {
			t.Errorf("ParseRepeatMode(%q) = (%s, %v)", name, mode, ok)
		}
	}
	if _, ok := ParseRepeatMode("bogus"); ok {
		t.Error("Expected bogus mode to be rejected")
	}
}
