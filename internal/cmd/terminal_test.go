package cmd

import (
	"bufio"
	"strings"
	"testing"

	"github.com/ivanbrko/panoptes/internal/input"
	"github.com/ivanbrko/panoptes/internal/loop"
)

func decodeString(t *testing.T, s string) loop.UserEvent {
	t.Helper()
	r := bufio.NewReader(strings.NewReader(s))
	term := &terminalIO{}
	b, err := r.ReadByte()
	if err != nil {
		t.Fatalf("read first byte: %v", err)
	}
	ev, ok := term.decode(b, r)
	if !ok {
		t.Fatalf("decode(%q) returned ok=false", s)
	}
	return ev
}

func TestDecodePlainChar(t *testing.T) {
	ev := decodeString(t, "a")
	if ev.Kind != loop.EventKey || ev.Key.Code != input.KeyChar || ev.Key.Char != 'a' {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecodeCtrlLetter(t *testing.T) {
	ev := decodeString(t, string([]byte{3})) // Ctrl+C
	if ev.Kind != loop.EventKey || ev.Key.Char != 'c' || ev.Key.Modifiers != input.ModCtrl {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecodeArrowKeys(t *testing.T) {
	cases := map[string]input.KeyCode{
		"\x1b[A": input.KeyUp,
		"\x1b[B": input.KeyDown,
		"\x1b[C": input.KeyRight,
		"\x1b[D": input.KeyLeft,
	}
	for seq, want := range cases {
		ev := decodeString(t, seq)
		if ev.Kind != loop.EventKey || ev.Key.Code != want {
			t.Fatalf("%q: got %+v, want code %v", seq, ev, want)
		}
	}
}

func TestDecodeArrowWithCtrlModifier(t *testing.T) {
	// ESC [ 1 ; 5 A = Ctrl+Up
	ev := decodeString(t, "\x1b[1;5A")
	if ev.Kind != loop.EventKey || ev.Key.Code != input.KeyUp || ev.Key.Modifiers != input.ModCtrl {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecodeFunctionKeysSS3(t *testing.T) {
	ev := decodeString(t, "\x1bOP")
	if ev.Kind != loop.EventKey || ev.Key.Code != input.KeyF1 {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecodeFunctionKeysTilde(t *testing.T) {
	cases := map[string]input.KeyCode{
		"\x1b[5~":  input.KeyPageUp,
		"\x1b[6~":  input.KeyPageDown,
		"\x1b[3~":  input.KeyDelete,
		"\x1b[15~": input.KeyF5,
		"\x1b[24~": input.KeyF12,
	}
	for seq, want := range cases {
		ev := decodeString(t, seq)
		if ev.Kind != loop.EventKey || ev.Key.Code != want {
			t.Fatalf("%q: got %+v, want code %v", seq, ev, want)
		}
	}
}

func TestDecodeAltChar(t *testing.T) {
	ev := decodeString(t, "\x1bx")
	if ev.Kind != loop.EventKey || ev.Key.Char != 'x' || ev.Key.Modifiers != input.ModAlt {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecodeLoneEscIsEscKey(t *testing.T) {
	ev := decodeString(t, "\x1b")
	if ev.Kind != loop.EventKey || ev.Key.Code != input.KeyEsc {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecodeFocusEvents(t *testing.T) {
	gained := decodeString(t, "\x1b[I")
	if gained.Kind != loop.EventFocusGained {
		t.Fatalf("got %+v", gained)
	}
	lost := decodeString(t, "\x1b[O")
	if lost.Kind != loop.EventFocusLost {
		t.Fatalf("got %+v", lost)
	}
}

func TestDecodeSGRMouseDown(t *testing.T) {
	// left button down at col 5, row 3 (1-indexed on the wire)
	ev := decodeString(t, "\x1b[<0;5;3M")
	if ev.Kind != loop.EventMouse {
		t.Fatalf("got %+v", ev)
	}
	if ev.Mouse.Kind != input.MouseDown || ev.Mouse.Button != input.ButtonLeft {
		t.Fatalf("mouse = %+v", ev.Mouse)
	}
	if ev.Mouse.Col != 4 || ev.Mouse.Row != 2 {
		t.Fatalf("mouse coords = %+v, want (4,2)", ev.Mouse)
	}
}

func TestDecodeSGRMouseScroll(t *testing.T) {
	ev := decodeString(t, "\x1b[<64;1;1M")
	if ev.Kind != loop.EventMouse || ev.Mouse.Kind != input.MouseScrollUp {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecodeBracketedPaste(t *testing.T) {
	ev := decodeString(t, "\x1b[200~hello world\x1b[201~")
	if ev.Kind != loop.EventPaste || ev.Paste != "hello world" {
		t.Fatalf("got %+v", ev)
	}
}

func TestDecodeMultiByteUTF8(t *testing.T) {
	ev := decodeString(t, "é")
	if ev.Kind != loop.EventKey || ev.Key.Char != 'é' {
		t.Fatalf("got %+v", ev)
	}
}

func TestParseLeadingInt(t *testing.T) {
	cases := map[string]int{"": 0, "5": 5, "200": 200, "12x": 12}
	for s, want := range cases {
		if got := parseLeadingInt([]byte(s)); got != want {
			t.Fatalf("parseLeadingInt(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestSplitThree(t *testing.T) {
	a, b, c := splitThree([]byte("1;2;3"))
	if a != "1" || b != "2" || c != "3" {
		t.Fatalf("got %q %q %q", a, b, c)
	}
	a, b, c = splitThree([]byte("1"))
	if a != "1" || b != "" || c != "" {
		t.Fatalf("short input: got %q %q %q", a, b, c)
	}
}
