package vterm

// lineCache memoizes VisibleStyledLines, keyed by (viewportHeight,
// scrollOffset). Its lifetime exactly matches "no mutation since last
// compute": vterm.go calls invalidate() on every Process/Resize/scroll
// change, and get() only hits when key equality holds, never on staleness.
type lineCache struct {
	valid     bool
	height    int
	scrollOff int
	lines     [][]StyledSpan
}

func (c *lineCache) get(height, scrollOff int) ([][]StyledSpan, bool) {
	if c.valid && c.height == height && c.scrollOff == scrollOff {
		return c.lines, true
	}
	return nil, false
}

func (c *lineCache) put(height, scrollOff int, lines [][]StyledSpan) {
	c.valid = true
	c.height = height
	c.scrollOff = scrollOff
	c.lines = lines
}

func (c *lineCache) invalidate() {
	c.valid = false
	c.lines = nil
}
