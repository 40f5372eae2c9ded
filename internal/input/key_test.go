package input

import (
	"bytes"
	"testing"
)

func TestPlainEscIsExit(t *testing.T) {
	act := Translate(KeyEvent{Code: KeyEsc})
	if act.Kind != ActionExit {
		t.Fatalf("plain Esc: got %v, want ActionExit", act.Kind)
	}
}

func TestShiftEscForwardsRealEscByte(t *testing.T) {
	act := Translate(KeyEvent{Code: KeyEsc, Modifiers: ModShift})
	if act.Kind != ActionForward {
		t.Fatalf("shift+Esc: got %v, want ActionForward", act.Kind)
	}
	if !bytes.Equal(act.Bytes, []byte{0x1B}) {
		t.Fatalf("shift+Esc bytes = %v, want [0x1B]", act.Bytes)
	}
}

func TestPrintableCharRoundTrip(t *testing.T) {
	for c := byte('!'); c <= '~'; c++ {
		act := Translate(KeyEvent{Code: KeyChar, Char: rune(c)})
		if act.Kind != ActionForward || !bytes.Equal(act.Bytes, []byte{c}) {
			t.Fatalf("char %q: got %v %v, want forward [%q]", c, act.Kind, act.Bytes, c)
		}
	}
}

func TestCtrlLetterControlBytes(t *testing.T) {
	cases := []struct {
		c    rune
		want byte
	}{
		{'a', 1}, {'c', 3}, {'z', 26}, {'A', 1}, {'Z', 26},
	}
	for _, tc := range cases {
		act := Translate(KeyEvent{Code: KeyChar, Char: tc.c, Modifiers: ModCtrl})
		if len(act.Bytes) != 1 || act.Bytes[0] != tc.want {
			t.Fatalf("ctrl+%q = %v, want [%d]", tc.c, act.Bytes, tc.want)
		}
	}
}

func TestCtrlSpecialChars(t *testing.T) {
	cases := []struct {
		c    rune
		want byte
	}{
		{'[', 0x1B}, {'3', 0x1B},
		{'\\', 0x1C}, {'4', 0x1C},
		{']', 0x1D}, {'5', 0x1D},
		{'^', 0x1E}, {'6', 0x1E},
		{'_', 0x1F}, {'7', 0x1F}, {'/', 0x1F},
		{'@', 0x00}, {'2', 0x00}, {' ', 0x00},
	}
	for _, tc := range cases {
		act := Translate(KeyEvent{Code: KeyChar, Char: tc.c, Modifiers: ModCtrl})
		if len(act.Bytes) != 1 || act.Bytes[0] != tc.want {
			t.Fatalf("ctrl+%q = %v, want [%#x]", tc.c, act.Bytes, tc.want)
		}
	}
}

func TestAltCharPrefixesEsc(t *testing.T) {
	act := Translate(KeyEvent{Code: KeyChar, Char: 'x', Modifiers: ModAlt})
	if !bytes.Equal(act.Bytes, []byte{0x1B, 'x'}) {
		t.Fatalf("alt+x = %v, want [ESC x]", act.Bytes)
	}
}

func TestModifierArrowUpCtrlShift(t *testing.T) {
	// modifier = 1 + shift(1) + alt(0)*2 + ctrl(1)*4 = 6
	act := Translate(KeyEvent{Code: KeyUp, Modifiers: ModCtrl | ModShift})
	want := []byte("\x1b[1;6A")
	if !bytes.Equal(act.Bytes, want) {
		t.Fatalf("ctrl+shift+Up = %q, want %q", act.Bytes, want)
	}
}

func TestPlainArrowHasNoModifierPrefix(t *testing.T) {
	act := Translate(KeyEvent{Code: KeyUp})
	if !bytes.Equal(act.Bytes, []byte{0x1B, '[', 'A'}) {
		t.Fatalf("plain Up = %v, want ESC [ A", act.Bytes)
	}
}

func TestBasicKeys(t *testing.T) {
	cases := []struct {
		code KeyCode
		want []byte
	}{
		{KeyEnter, []byte{'\r'}},
		{KeyTab, []byte{'\t'}},
		{KeyBackspace, []byte{0x7F}},
		{KeyBackTab, []byte{0x1B, '[', 'Z'}},
		{KeyF1, []byte{0x1B, 'O', 'P'}},
		{KeyF5, []byte{0x1B, '[', '1', '5', '~'}},
	}
	for _, tc := range cases {
		act := Translate(KeyEvent{Code: tc.code})
		if !bytes.Equal(act.Bytes, tc.want) {
			t.Fatalf("%v = %v, want %v", tc.code, act.Bytes, tc.want)
		}
	}
}

func TestTranslateIsDeterministic(t *testing.T) {
	ev := KeyEvent{Code: KeyChar, Char: 'q', Modifiers: ModAlt}
	a := Translate(ev)
	b := Translate(ev)
	if !bytes.Equal(a.Bytes, b.Bytes) || a.Kind != b.Kind {
		t.Fatalf("translate not deterministic for repeated identical input")
	}
}
