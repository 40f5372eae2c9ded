// Package input translates logical key and mouse events into the exact
// byte sequences a VT-compatible child process expects, and classifies
// keys as forward/exit/ignore. Grounded in the teacher's input
// handling conventions and in original_source/claude-wrapper/src/input.rs
// (the Rust implementation this spec was distilled from), reworked from
// crossterm's KeyEvent/KeyModifiers onto a small self-contained Key type
// so this package has no TUI-framework dependency.
package input

import "fmt"

// Modifiers is a bitset of held modifier keys.
type Modifiers uint8

const (
	ModShift Modifiers = 1 << iota
	ModAlt
	ModCtrl
)

func (m Modifiers) has(f Modifiers) bool { return m&f != 0 }

// KeyCode identifies a logical key, independent of any particular
// terminal library's event type.
type KeyCode int

const (
	KeyChar KeyCode = iota
	KeyEnter
	KeyTab
	KeyBackTab
	KeyBackspace
	KeyEsc
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyNull
)

// KeyEvent is a logical key press with its modifiers. Char is only
// meaningful when Code == KeyChar.
type KeyEvent struct {
	Code      KeyCode
	Char      rune
	Modifiers Modifiers
}

// ActionKind distinguishes the three outcomes of translating a key.
type ActionKind int

const (
	ActionForward ActionKind = iota
	ActionExit
	ActionIgnore
)

// Action is the result of Translate: either bytes to forward to the
// PTY, the special Exit action (plain Esc, interpreted by the session
// layer as "leave session mode"), or Ignore.
type Action struct {
	Kind  ActionKind
	Bytes []byte
}

// Translate converts a KeyEvent to the bytes a VT-compatible program
// expects, or to Exit/Ignore. It is a pure function of (code, modifiers,
// char): deterministic for any given input, as required by spec.md's
// testable property 2.
func Translate(ev KeyEvent) Action {
	if ev.Code == KeyEsc && ev.Modifiers == 0 {
		return Action{Kind: ActionExit}
	}

	bytes := keyToBytes(ev)
	if len(bytes) == 0 {
		return Action{Kind: ActionIgnore}
	}
	return Action{Kind: ActionForward, Bytes: bytes}
}

func keyToBytes(ev KeyEvent) []byte {
	ctrl := ev.Modifiers.has(ModCtrl)
	alt := ev.Modifiers.has(ModAlt)
	shift := ev.Modifiers.has(ModShift)

	switch ev.Code {
	case KeyEnter:
		return []byte{'\r'}
	case KeyTab:
		return []byte{'\t'}
	case KeyBackTab:
		return []byte{0x1B, '[', 'Z'}
	case KeyBackspace:
		return []byte{0x7F}
	case KeyEsc:
		// Only reached with non-zero modifiers (plain Esc is Exit above).
		return []byte{0x1B}
	case KeyUp:
		return arrowBytes('A', ctrl, alt, shift)
	case KeyDown:
		return arrowBytes('B', ctrl, alt, shift)
	case KeyRight:
		return arrowBytes('C', ctrl, alt, shift)
	case KeyLeft:
		return arrowBytes('D', ctrl, alt, shift)
	case KeyHome:
		return []byte{0x1B, '[', 'H'}
	case KeyEnd:
		return []byte{0x1B, '[', 'F'}
	case KeyPageUp:
		return []byte{0x1B, '[', '5', '~'}
	case KeyPageDown:
		return []byte{0x1B, '[', '6', '~'}
	case KeyInsert:
		return []byte{0x1B, '[', '2', '~'}
	case KeyDelete:
		return []byte{0x1B, '[', '3', '~'}
	case KeyF1:
		return []byte{0x1B, 'O', 'P'}
	case KeyF2:
		return []byte{0x1B, 'O', 'Q'}
	case KeyF3:
		return []byte{0x1B, 'O', 'R'}
	case KeyF4:
		return []byte{0x1B, 'O', 'S'}
	case KeyF5:
		return []byte{0x1B, '[', '1', '5', '~'}
	case KeyF6:
		return []byte{0x1B, '[', '1', '7', '~'}
	case KeyF7:
		return []byte{0x1B, '[', '1', '8', '~'}
	case KeyF8:
		return []byte{0x1B, '[', '1', '9', '~'}
	case KeyF9:
		return []byte{0x1B, '[', '2', '0', '~'}
	case KeyF10:
		return []byte{0x1B, '[', '2', '1', '~'}
	case KeyF11:
		return []byte{0x1B, '[', '2', '3', '~'}
	case KeyF12:
		return []byte{0x1B, '[', '2', '4', '~'}
	case KeyNull:
		return []byte{0x00}
	case KeyChar:
		return charBytes(ev.Char, ctrl, alt)
	default:
		return nil
	}
}

func arrowBytes(direction byte, ctrl, alt, shift bool) []byte {
	if !ctrl && !alt && !shift {
		return []byte{0x1B, '[', direction}
	}
	mod := 1
	if shift {
		mod++
	}
	if alt {
		mod += 2
	}
	if ctrl {
		mod += 4
	}
	return []byte(fmt.Sprintf("\x1b[1;%d%c", mod, direction))
}

func charBytes(c rune, ctrl, alt bool) []byte {
	if ctrl {
		switch {
		case c >= 'a' && c <= 'z':
			return []byte{byte(c-'a') + 1}
		case c >= 'A' && c <= 'Z':
			return []byte{byte(c-'A') + 1}
		}
		switch c {
		case '[', '3':
			return []byte{0x1B}
		case '\\', '4':
			return []byte{0x1C}
		case ']', '5':
			return []byte{0x1D}
		case '^', '6':
			return []byte{0x1E}
		case '_', '/', '7':
			return []byte{0x1F}
		case '@', '2', ' ':
			return []byte{0x00}
		default:
			return nil
		}
	}
	if alt {
		return append([]byte{0x1B}, []byte(string(c))...)
	}
	return []byte(string(c))
}
