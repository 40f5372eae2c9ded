package cmd

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/ivanbrko/panoptes/internal/input"
	"github.com/ivanbrko/panoptes/internal/loop"
)

// terminalIO is the concrete loop.EventSource/loop.Renderer backend:
// the one piece of "concrete TUI widget" spec.md §1 scopes out, reduced
// here to exactly what the core needs fed in and out (raw bytes in,
// styled lines out), with no layout/color/border logic beyond the bare
// minimum to make a running binary. Grounded in spec.md §9's scope-guard
// requirement: openTerminal acquires every piece of global terminal state and
// Close unconditionally releases all of it, even on panic.
type terminalIO struct {
	in       *os.File
	out      *os.File
	oldState *term.State

	events chan loop.UserEvent
	stop   chan struct{}

	render func(w int, h int) string
}

// openTerminal acquires raw mode, the alternate screen, bracketed
// paste, mouse capture, and a hidden cursor, then starts the background
// stdin reader. It is the single owner of these five pieces of global
// terminal state (spec.md §9's "Global terminal state").
func openTerminal() (*terminalIO, error) {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("terminal: enable raw mode: %w", err)
	}

	t := &terminalIO{
		in:       os.Stdin,
		out:      os.Stdout,
		oldState: oldState,
		events:   make(chan loop.UserEvent, 256),
		stop:     make(chan struct{}),
	}

	// EnterAlternateScreen, hide cursor, enable bracketed paste, enable
	// SGR mouse capture and focus reporting (spec.md §6 "Terminal
	// requirements").
	fmt.Fprint(t.out, "\x1b[?1049h\x1b[?25l\x1b[?2004h\x1b[?1000h\x1b[?1002h\x1b[?1003h\x1b[?1006h\x1b[?1004h")

	go t.readLoop()
	go t.resizeLoop()

	return t, nil
}

// resizeLoop forwards SIGWINCH as EventResize, per spec.md §4.11 step 5;
// the actual PTY/VTerm resize is debounced downstream in package loop.
func (t *terminalIO) resizeLoop() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	defer signal.Stop(ch)
	for {
		select {
		case <-t.stop:
			return
		case <-ch:
			select {
			case t.events <- loop.UserEvent{Kind: loop.EventResize}:
			case <-t.stop:
				return
			}
		}
	}
}

// Close reverses every piece of terminal state openTerminal acquired, per
// spec.md §9: disable mouse capture and bracketed paste, show the
// cursor, leave the alternate screen, and restore the original termios.
// Safe to call more than once; it runs via App.Close, which the caller
// defers, and App.Run recovers a panic mid-loop, so the user's shell is
// still left usable.
func (t *terminalIO) Close() error {
	select {
	case <-t.stop:
		// already closed
	default:
		close(t.stop)
	}
	fmt.Fprint(t.out, "\x1b[?1004l\x1b[?1006l\x1b[?1003l\x1b[?1002l\x1b[?1000l\x1b[?2004l\x1b[?25h\x1b[?1049l")
	if t.oldState != nil {
		return term.Restore(int(t.in.Fd()), t.oldState)
	}
	return nil
}

// Poll implements loop.EventSource: block for up to timeout for the
// next decoded input event from the background reader.
func (t *terminalIO) Poll(timeout time.Duration) (loop.UserEvent, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ev, ok := <-t.events:
		if !ok {
			return loop.UserEvent{Kind: loop.EventNone}, nil
		}
		return ev, nil
	case <-timer.C:
		return loop.UserEvent{Kind: loop.EventNone}, nil
	}
}

// Render implements loop.Renderer: draws whatever the caller's render
// closure produces into the current terminal size. Concrete layout
// arithmetic lives in the closure the App installs (app.go's
// renderFrame), not here — this type only owns the raw write and size
// query.
func (t *terminalIO) Render() error {
	if t.render == nil {
		return nil
	}
	w, h, err := term.GetSize(int(t.out.Fd()))
	if err != nil {
		w, h = 80, 24
	}
	frame := t.render(w, h)
	// Home cursor, clear screen, draw. A full-screen clear-and-redraw
	// each frame is the simplest correct thing here; differential
	// rendering is the render layer's job, not this backend's (spec.md
	// §1 scopes the widget layer out, but the dirty-bit discipline that
	// decides *when* to call Render at all already lives in package
	// loop).
	fmt.Fprint(t.out, "\x1b[H\x1b[2J", frame)
	return nil
}

// ContentSize reports the PTY content area: the full terminal minus one
// header line, per spec.md §4.11 step 8.
func (t *terminalIO) ContentSize() (rows, cols int) {
	w, h, err := term.GetSize(int(t.out.Fd()))
	if err != nil {
		return 23, 80
	}
	if h > 1 {
		h--
	}
	return h, w
}

// readLoop decodes raw stdin bytes into loop.UserEvent values and feeds
// them to Poll. It is the only goroutine that touches t.in; everything
// it produces crosses into the single-threaded event loop only via the
// events channel, per spec.md §5's concurrency model.
func (t *terminalIO) readLoop() {
	r := bufio.NewReader(t.in)
	for {
		select {
		case <-t.stop:
			return
		default:
		}
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		ev, ok := t.decode(b, r)
		if !ok {
			continue
		}
		select {
		case t.events <- ev:
		case <-t.stop:
			return
		}
	}
}

// decode turns one logical keystroke (possibly a multi-byte escape
// sequence or an SGR mouse report already buffered behind b) into a
// UserEvent. It covers the escape sequences package input's Translate
// emits in the forward direction plus the SGR mouse report format
// spec.md §4.3 specifies, which is the input surface Panoptes actually
// needs to decode from a real terminal; exotic/legacy sequences beyond
// that are out of scope for this backend (spec.md §1).
func (t *terminalIO) decode(b byte, r *bufio.Reader) (loop.UserEvent, bool) {
	if b != 0x1b {
		return t.decodePlain(b, r)
	}

	next, err := r.Peek(1)
	if err != nil || len(next) == 0 {
		// A lone ESC with nothing following: plain Esc key.
		return keyEvent(input.KeyEvent{Code: input.KeyEsc}), true
	}
	if next[0] != '[' && next[0] != 'O' {
		// Alt+char: ESC followed by a non-CSI byte.
		c, _, err := r.ReadRune()
		if err != nil {
			return keyEvent(input.KeyEvent{Code: input.KeyEsc}), true
		}
		return keyEvent(input.KeyEvent{Code: input.KeyChar, Char: c, Modifiers: input.ModAlt}), true
	}

	intro, _ := r.ReadByte() // '[' or 'O'
	if intro == 'O' {
		f, err := r.ReadByte()
		if err != nil {
			return loop.UserEvent{}, false
		}
		switch f {
		case 'P':
			return keyEvent(input.KeyEvent{Code: input.KeyF1}), true
		case 'Q':
			return keyEvent(input.KeyEvent{Code: input.KeyF2}), true
		case 'R':
			return keyEvent(input.KeyEvent{Code: input.KeyF3}), true
		case 'S':
			return keyEvent(input.KeyEvent{Code: input.KeyF4}), true
		default:
			return loop.UserEvent{}, false
		}
	}

	// CSI sequence: read the parameter/intermediate bytes up to a final
	// byte in 0x40-0x7E.
	var params []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			return loop.UserEvent{}, false
		}
		if c >= 0x40 && c <= 0x7e {
			if c == '~' && parseLeadingInt(params) == 200 {
				return t.readBracketedPaste(r), true
			}
			return t.decodeCSI(params, c), true
		}
		params = append(params, c)
	}
}

// readBracketedPaste consumes raw bytes up to and including the
// terminating "ESC [ 201 ~" marker, returning everything in between as
// one EventPaste (spec.md's GLOSSARY entry for bracketed paste mode:
// pasted text is framed by ESC[200~/ESC[201~ so the app can distinguish
// it from typing).
func (t *terminalIO) readBracketedPaste(r *bufio.Reader) loop.UserEvent {
	const end = "\x1b[201~"
	var buf []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			break
		}
		buf = append(buf, b)
		if len(buf) >= len(end) && string(buf[len(buf)-len(end):]) == end {
			buf = buf[:len(buf)-len(end)]
			break
		}
	}
	return loop.UserEvent{Kind: loop.EventPaste, Paste: string(buf)}
}

func (t *terminalIO) decodeCSI(params []byte, final byte) loop.UserEvent {
	if final == '<' {
		// Shouldn't happen: '<' is a parameter byte for SGR mouse, caught
		// below via the params slice starting with '<'.
	}
	if len(params) > 0 && params[0] == '<' {
		return t.decodeSGRMouse(params[1:], final)
	}

	mods := csiModifiers(params)
	switch final {
	case 'A':
		return keyEvent(input.KeyEvent{Code: input.KeyUp, Modifiers: mods})
	case 'B':
		return keyEvent(input.KeyEvent{Code: input.KeyDown, Modifiers: mods})
	case 'C':
		return keyEvent(input.KeyEvent{Code: input.KeyRight, Modifiers: mods})
	case 'D':
		return keyEvent(input.KeyEvent{Code: input.KeyLeft, Modifiers: mods})
	case 'H':
		return keyEvent(input.KeyEvent{Code: input.KeyHome, Modifiers: mods})
	case 'F':
		return keyEvent(input.KeyEvent{Code: input.KeyEnd, Modifiers: mods})
	case 'Z':
		return keyEvent(input.KeyEvent{Code: input.KeyBackTab})
	case 'I':
		if len(params) == 0 {
			return loop.UserEvent{Kind: loop.EventFocusGained}
		}
		return loop.UserEvent{Kind: loop.EventNone}
	case 'O':
		if len(params) == 0 {
			return loop.UserEvent{Kind: loop.EventFocusLost}
		}
		return loop.UserEvent{Kind: loop.EventNone}
	case '~':
		return decodeTilde(params)
	default:
		return loop.UserEvent{Kind: loop.EventNone}
	}
}

// decodeTilde handles the "ESC [ N ~" family (PageUp/PageDown/Insert/
// Delete/F5-F12).
func decodeTilde(params []byte) loop.UserEvent {
	n := parseLeadingInt(params)
	switch n {
	case 2:
		return keyEvent(input.KeyEvent{Code: input.KeyInsert})
	case 3:
		return keyEvent(input.KeyEvent{Code: input.KeyDelete})
	case 5:
		return keyEvent(input.KeyEvent{Code: input.KeyPageUp})
	case 6:
		return keyEvent(input.KeyEvent{Code: input.KeyPageDown})
	case 15:
		return keyEvent(input.KeyEvent{Code: input.KeyF5})
	case 17:
		return keyEvent(input.KeyEvent{Code: input.KeyF6})
	case 18:
		return keyEvent(input.KeyEvent{Code: input.KeyF7})
	case 19:
		return keyEvent(input.KeyEvent{Code: input.KeyF8})
	case 20:
		return keyEvent(input.KeyEvent{Code: input.KeyF9})
	case 21:
		return keyEvent(input.KeyEvent{Code: input.KeyF10})
	case 23:
		return keyEvent(input.KeyEvent{Code: input.KeyF11})
	case 24:
		return keyEvent(input.KeyEvent{Code: input.KeyF12})
	default:
		return loop.UserEvent{Kind: loop.EventNone}
	}
}

// decodeSGRMouse parses "ESC [ < Cb ; Cx ; Cy (M|m)" into a MouseEvent.
func (t *terminalIO) decodeSGRMouse(params []byte, final byte) loop.UserEvent {
	a, b, c := splitThree(params)
	code := parseLeadingInt([]byte(a))
	col := parseLeadingInt([]byte(b))
	row := parseLeadingInt([]byte(c))

	ev := input.MouseEvent{Col: col - 1, Row: row - 1}
	if code&4 != 0 {
		ev.Modifiers |= input.ModShift
	}
	if code&8 != 0 {
		ev.Modifiers |= input.ModAlt
	}
	if code&16 != 0 {
		ev.Modifiers |= input.ModCtrl
	}
	base := code &^ (4 | 8 | 16)

	switch {
	case base == 64:
		ev.Kind = input.MouseScrollUp
	case base == 65:
		ev.Kind = input.MouseScrollDown
	case base == 66:
		ev.Kind = input.MouseScrollLeft
	case base == 67:
		ev.Kind = input.MouseScrollRight
	case base == 35:
		ev.Kind = input.MouseMove
	case base >= 32 && base <= 34:
		ev.Kind = input.MouseDrag
		ev.Button = mouseButtonFromBase(base - 32)
	default:
		if final == 'm' {
			ev.Kind = input.MouseUp
		} else {
			ev.Kind = input.MouseDown
		}
		ev.Button = mouseButtonFromBase(base)
	}

	return loop.UserEvent{Kind: loop.EventMouse, Mouse: ev}
}

func mouseButtonFromBase(base int) input.MouseButton {
	switch base {
	case 0:
		return input.ButtonLeft
	case 1:
		return input.ButtonMiddle
	case 2:
		return input.ButtonRight
	default:
		return input.ButtonNone
	}
}

func (t *terminalIO) decodePlain(b byte, r *bufio.Reader) (loop.UserEvent, bool) {
	switch b {
	case '\r', '\n':
		return keyEvent(input.KeyEvent{Code: input.KeyEnter}), true
	case '\t':
		return keyEvent(input.KeyEvent{Code: input.KeyTab}), true
	case 0x7f:
		return keyEvent(input.KeyEvent{Code: input.KeyBackspace}), true
	case 0x00:
		return keyEvent(input.KeyEvent{Code: input.KeyChar, Char: ' ', Modifiers: input.ModCtrl}), true
	}
	if b < 0x20 {
		// A raw control byte from Ctrl+<letter>.
		return keyEvent(input.KeyEvent{Code: input.KeyChar, Char: rune('a' + b - 1), Modifiers: input.ModCtrl}), true
	}
	// Multi-byte UTF-8: b is the lead byte, rebuild the rune.
	n := utf8ExtraBytes(b)
	if n == 0 {
		return keyEvent(input.KeyEvent{Code: input.KeyChar, Char: rune(b)}), true
	}
	buf := []byte{b}
	for i := 0; i < n; i++ {
		nb, err := r.ReadByte()
		if err != nil {
			break
		}
		buf = append(buf, nb)
	}
	runes := []rune(string(buf))
	if len(runes) == 0 {
		return loop.UserEvent{}, false
	}
	return keyEvent(input.KeyEvent{Code: input.KeyChar, Char: runes[0]}), true
}

func utf8ExtraBytes(lead byte) int {
	switch {
	case lead&0xe0 == 0xc0:
		return 1
	case lead&0xf0 == 0xe0:
		return 2
	case lead&0xf8 == 0xf0:
		return 3
	default:
		return 0
	}
}

func keyEvent(ev input.KeyEvent) loop.UserEvent {
	return loop.UserEvent{Kind: loop.EventKey, Key: ev}
}

func csiModifiers(params []byte) input.Modifiers {
	s := string(params)
	if len(s) < 2 || s[0] != '1' || s[1] != ';' {
		return 0
	}
	n := parseLeadingInt([]byte(s[2:]))
	m := n - 1
	var mods input.Modifiers
	if m&1 != 0 {
		mods |= input.ModShift
	}
	if m&2 != 0 {
		mods |= input.ModAlt
	}
	if m&4 != 0 {
		mods |= input.ModCtrl
	}
	return mods
}

func parseLeadingInt(b []byte) int {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func splitThree(b []byte) (a, bb, c string) {
	s := string(b)
	var parts []string
	start := 0
	for i, ch := range s {
		if ch == ';' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	for len(parts) < 3 {
		parts = append(parts, "")
	}
	return parts[0], parts[1], parts[2]
}
