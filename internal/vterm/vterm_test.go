package vterm

import "testing"

func TestProcessBasicText(t *testing.T) {
	vt := New(5, 20, 100)
	vt.Process([]byte("hello pty\r\n"))

	lines := vt.VisibleStyledLines(5)
	if len(lines) == 0 {
		t.Fatalf("expected at least one line")
	}
	got := flatten(lines[0])
	if got != "hello pty" {
		t.Fatalf("line 0 = %q, want %q", got, "hello pty")
	}
}

func TestVisibleStyledLinesCacheIsStableAcrossIdenticalCalls(t *testing.T) {
	vt := New(5, 20, 100)
	vt.Process([]byte("abc"))

	first := vt.VisibleStyledLines(5)
	second := vt.VisibleStyledLines(5)
	if len(first) != len(second) {
		t.Fatalf("cache returned different shapes: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if flatten(first[i]) != flatten(second[i]) {
			t.Fatalf("cache returned different content at line %d", i)
		}
	}
}

func TestProcessInvalidatesCache(t *testing.T) {
	vt := New(5, 20, 100)
	vt.Process([]byte("one"))
	before := flatten(vt.VisibleStyledLines(5)[0])

	vt.Process([]byte("\rtwotwo"))
	after := flatten(vt.VisibleStyledLines(5)[0])

	if before == after {
		t.Fatalf("expected line to change after overwrite, got %q both times", before)
	}
}

func TestBracketedPasteModeTracking(t *testing.T) {
	vt := New(5, 20, 100)
	if vt.BracketedPasteEnabled() {
		t.Fatalf("bracketed paste should start disabled")
	}
	vt.Process([]byte("\x1b[?2004h"))
	if !vt.BracketedPasteEnabled() {
		t.Fatalf("expected bracketed paste enabled after CSI ?2004h")
	}
	vt.Process([]byte("\x1b[?2004l"))
	if vt.BracketedPasteEnabled() {
		t.Fatalf("expected bracketed paste disabled after CSI ?2004l")
	}
}

func TestMouseProtocolModeTracking(t *testing.T) {
	vt := New(5, 20, 100)
	if vt.MouseProtocolMode() != MouseNone {
		t.Fatalf("expected MouseNone initially")
	}
	vt.Process([]byte("\x1b[?1000h"))
	if vt.MouseProtocolMode() != MouseNormal {
		t.Fatalf("expected MouseNormal after CSI ?1000h")
	}
	vt.Process([]byte("\x1b[?1003h"))
	if vt.MouseProtocolMode() != MouseAnyMotion {
		t.Fatalf("expected MouseAnyMotion after CSI ?1003h")
	}
}

func TestCursorVisibilityTracking(t *testing.T) {
	vt := New(5, 20, 100)
	if !vt.CursorVisible() {
		t.Fatalf("cursor should start visible")
	}
	vt.Process([]byte("\x1b[?25l"))
	if vt.CursorVisible() {
		t.Fatalf("expected cursor hidden after CSI ?25l")
	}
}

func TestScrollbackOffsetClampedToAvailableHistory(t *testing.T) {
	vt := New(3, 10, 50)
	for i := 0; i < 10; i++ {
		vt.Process([]byte("line\r\n"))
	}
	vt.SetScrollback(1_000_000)
	if vt.ScrollbackOffset() > vt.MaxScrollback() {
		t.Fatalf("scrollback offset %d exceeds max %d", vt.ScrollbackOffset(), vt.MaxScrollback())
	}
	vt.SetScrollback(-5)
	if vt.ScrollbackOffset() != 0 {
		t.Fatalf("expected clamp to 0, got %d", vt.ScrollbackOffset())
	}
}

func flatten(spans []StyledSpan) string {
	out := ""
	for _, s := range spans {
		out += s.Text
	}
	return out
}
