// Package vterm maintains a fixed-size screen grid plus a scrollback
// ring on top of github.com/vito/midterm, and renders styled lines for
// the UI layer. It is grounded in the teacher's
// internal/session/virtualterminal package (h2), which pairs a live
// midterm.Terminal with a second append-only midterm.Terminal fed the
// same bytes to capture scrollback, plus an OnScrollback callback that
// records lines pushed off the top of the live grid. Panoptes keeps
// that shape and adds the memoized visible-line cache and VT-mode
// tracking spec.md §4.2 requires, using the same byte-scanning
// technique h2's CapturePlainHistory uses for a different purpose.
package vterm

import (
	"bytes"

	"github.com/vito/midterm"
)

// MouseMode identifies which mouse reporting protocol the child enabled.
type MouseMode int

const (
	MouseNone MouseMode = iota
	MouseX10
	MouseNormal
	MouseButtonMotion
	MouseAnyMotion
)

// DefaultScrollbackRows is the default scrollback ring depth.
const DefaultScrollbackRows = 10000

// VT owns a live midterm.Terminal, a parallel append-only scrollback
// terminal, and the cache/mode-tracking state spec.md requires of it.
type VT struct {
	live       *midterm.Terminal
	scrollback *midterm.Terminal

	rows, cols int
	maxScroll  int
	scrollOff  int // 0 == live view

	history    []string // rendered lines scrolled off the top
	historyMax int

	bracketedPaste bool
	mouseMode      MouseMode
	cursorVisible  bool

	modeParse modeParseState
	csiBuf    []byte

	cache lineCache
}

// New creates a VT sized rows×cols with the given scrollback depth (0
// selects DefaultScrollbackRows).
func New(rows, cols, scrollbackRows int) *VT {
	if scrollbackRows <= 0 {
		scrollbackRows = DefaultScrollbackRows
	}
	vt := &VT{
		rows:          rows,
		cols:          cols,
		maxScroll:     scrollbackRows,
		historyMax:    scrollbackRows,
		cursorVisible: true,
		live:          midterm.NewTerminal(rows, cols),
		scrollback:    midterm.NewTerminal(rows, cols),
	}
	vt.live.OnScrollback(func(line midterm.Line) {
		vt.history = append(vt.history, line.Display())
		if len(vt.history) > vt.historyMax {
			trim := len(vt.history) - vt.historyMax
			vt.history = vt.history[trim:]
		}
	})
	return vt
}

// Process feeds bytes read from the child through the VT state machine,
// updating cells, cursor, modes, and the scrollback ring. Invalidates
// the cached rendering.
func (vt *VT) Process(data []byte) {
	vt.live.Write(data)
	vt.scrollback.Write(data)
	vt.scanModes(data)
	vt.cache.invalidate()
}

// Resize reshapes the grid. Reflow is delegated to midterm, which
// follows standard xterm reflow semantics.
func (vt *VT) Resize(rows, cols int) {
	vt.rows, vt.cols = rows, cols
	vt.live.Resize(rows, cols)
	vt.scrollback.ResizeX(cols)
	vt.cache.invalidate()
}

// Size returns the current (rows, cols).
func (vt *VT) Size() (rows, cols int) { return vt.rows, vt.cols }

// CursorPosition returns the 0-indexed (row, col) of the cursor.
func (vt *VT) CursorPosition() (row, col int) {
	c := vt.live.Cursor
	return c.Y, c.X
}

// CursorVisible reports whether DECTCEM last left the cursor visible.
func (vt *VT) CursorVisible() bool { return vt.cursorVisible }

// BracketedPasteEnabled reports whether the child enabled bracketed
// paste mode (CSI ?2004h).
func (vt *VT) BracketedPasteEnabled() bool { return vt.bracketedPaste }

// MouseProtocolMode reports which mouse protocol, if any, is active.
func (vt *VT) MouseProtocolMode() MouseMode { return vt.mouseMode }

// ScrollbackOffset returns the current scroll offset (0 == live).
func (vt *VT) ScrollbackOffset() int { return vt.scrollOff }

// MaxScrollback returns the configured scrollback depth.
func (vt *VT) MaxScrollback() int { return vt.maxScroll }

// SetScrollback sets the scroll offset, clamped to [0, available history].
func (vt *VT) SetScrollback(offset int) {
	vt.scrollOff = clamp(offset, 0, len(vt.history))
	vt.cache.invalidate()
}

// ScrollUp moves the viewport n rows further back in history.
func (vt *VT) ScrollUp(n int) { vt.SetScrollback(vt.scrollOff + n) }

// ScrollDown moves the viewport n rows toward the live view.
func (vt *VT) ScrollDown(n int) { vt.SetScrollback(vt.scrollOff - n) }

// ScrollToBottom resets the viewport to the live view.
func (vt *VT) ScrollToBottom() { vt.SetScrollback(0) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// VisibleStyledLines returns the lines that should be shown given the
// current scroll offset, up to min(viewportHeight, rows). The result is
// memoized, keyed by (viewportHeight, scrollOffset), and invalidated by
// Process, Resize, or a scroll-offset change — this method never
// recomputes when neither has happened since the last call.
func (vt *VT) VisibleStyledLines(viewportHeight int) [][]StyledSpan {
	if cached, ok := vt.cache.get(viewportHeight, vt.scrollOff); ok {
		return cached
	}

	height := viewportHeight
	if height > vt.rows {
		height = vt.rows
	}
	if height < 0 {
		height = 0
	}

	lines := make([][]StyledSpan, 0, height)
	if vt.scrollOff == 0 {
		for row := 0; row < height; row++ {
			lines = append(lines, vt.renderLiveRow(row))
		}
	} else {
		// scrollOff rows of history immediately precede the live grid.
		start := len(vt.history) - vt.scrollOff
		if start < 0 {
			start = 0
		}
		for i := 0; i < height && start+i < len(vt.history); i++ {
			lines = append(lines, []StyledSpan{{Text: vt.history[start+i]}})
		}
		for len(lines) < height {
			row := len(lines) - (len(vt.history) - start)
			if row < 0 || row >= vt.rows {
				break
			}
			lines = append(lines, vt.renderLiveRow(row))
		}
	}

	vt.cache.put(viewportHeight, vt.scrollOff, lines)
	return lines
}

func (vt *VT) renderLiveRow(row int) []StyledSpan {
	if row >= len(vt.live.Content) {
		return []StyledSpan{{}}
	}
	line := vt.live.Content[row]
	var regions []rawRegion
	var pos int
	for region := range vt.live.Format.Regions(row) {
		end := pos + region.Size
		text := ""
		if pos < len(line) {
			ce := end
			if ce > len(line) {
				ce = len(line)
			}
			text = string(line[pos:ce])
		}
		regions = append(regions, rawRegion{text: text, sgr: region.F.Render()})
		pos = end
	}
	return buildSpans(regions)
}

// --- VT mode tracking ---
//
// midterm focuses on screen-grid emulation and does not surface DEC
// private-mode state (bracketed paste, mouse reporting, cursor
// visibility) to callers, so VT tracks them itself by scanning the same
// byte stream it hands to midterm — the same technique h2's
// CapturePlainHistory applies to plain-text history extraction.

type modeParseState int

const (
	modeNormal modeParseState = iota
	modeEsc
	modeCSI
)

func (vt *VT) scanModes(data []byte) {
	for len(data) > 0 {
		b := data[0]
		data = data[1:]
		switch vt.modeParse {
		case modeEsc:
			if b == '[' {
				vt.modeParse = modeCSI
				vt.csiBuf = vt.csiBuf[:0]
			} else {
				vt.modeParse = modeNormal
			}
		case modeCSI:
			if b >= 0x40 && b <= 0x7E {
				vt.applyCSI(append(vt.csiBuf, b))
				vt.modeParse = modeNormal
			} else {
				vt.csiBuf = append(vt.csiBuf, b)
			}
		default:
			if b == 0x1B {
				vt.modeParse = modeEsc
			}
		}
	}
}

func (vt *VT) applyCSI(buf []byte) {
	if len(buf) == 0 {
		return
	}
	final := buf[len(buf)-1]
	if final != 'h' && final != 'l' {
		return
	}
	set := final == 'h'
	if !bytes.HasPrefix(buf, []byte("?")) {
		return
	}
	for _, param := range bytes.Split(buf[1:len(buf)-1], []byte(";")) {
		switch string(param) {
		case "25":
			vt.cursorVisible = set
		case "2004":
			vt.bracketedPaste = set
		case "9":
			if set {
				vt.mouseMode = MouseX10
			} else if vt.mouseMode == MouseX10 {
				vt.mouseMode = MouseNone
			}
		case "1000":
			if set {
				vt.mouseMode = MouseNormal
			} else if vt.mouseMode == MouseNormal {
				vt.mouseMode = MouseNone
			}
		case "1002":
			if set {
				vt.mouseMode = MouseButtonMotion
			} else if vt.mouseMode == MouseButtonMotion {
				vt.mouseMode = MouseNone
			}
		case "1003":
			if set {
				vt.mouseMode = MouseAnyMotion
			} else if vt.mouseMode == MouseAnyMotion {
				vt.mouseMode = MouseNone
			}
		}
	}
}
