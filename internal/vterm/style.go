package vterm

import (
	"strconv"
	"strings"
)

// ColorKind distinguishes how a Color's value should be interpreted.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorRGB
)

// Color is Panoptes' neutral color model, independent of the VT escape
// sequence that produced it (default/indexed/rgb all normalize here).
type Color struct {
	Kind  ColorKind
	Index uint8 // valid when Kind == ColorIndexed
	R, G, B uint8 // valid when Kind == ColorRGB
}

// Style is the neutral per-cell style: a foreground/background color pair
// plus the modifier flags VT text attributes carry.
type Style struct {
	FG        Color
	BG        Color
	Bold      bool
	Italic    bool
	Underline bool
	Reverse   bool
	Dim       bool
}

// StyledSpan is a run of same-styled text within one line.
type StyledSpan struct {
	Text  string
	Style Style
}

// parseSGR applies the SGR (Select Graphic Rendition) parameters encoded
// in an ANSI "ESC [ ... m" sequence to a Style, starting from defaults.
// midterm's Format.Render() emits a self-contained SGR sequence per
// region (a full restatement from defaults, not an incremental diff), so
// each region is parsed independently starting from the zero Style.
func parseSGR(seq string) Style {
	var s Style
	body := seq
	if i := strings.IndexByte(body, '['); i >= 0 {
		body = body[i+1:]
	}
	body = strings.TrimSuffix(body, "m")
	if body == "" {
		return s
	}
	parts := strings.Split(body, ";")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			n = 0
		}
		nums = append(nums, n)
	}

	for i := 0; i < len(nums); i++ {
		code := nums[i]
		switch {
		case code == 0:
			s = Style{}
		case code == 1:
			s.Bold = true
		case code == 2:
			s.Dim = true
		case code == 3:
			s.Italic = true
		case code == 4:
			s.Underline = true
		case code == 7:
			s.Reverse = true
		case code == 22:
			s.Bold, s.Dim = false, false
		case code == 23:
			s.Italic = false
		case code == 24:
			s.Underline = false
		case code == 27:
			s.Reverse = false
		case code >= 30 && code <= 37:
			s.FG = Color{Kind: ColorIndexed, Index: uint8(code - 30)}
		case code == 38:
			i = parseExtendedColor(nums, i, &s.FG)
		case code == 39:
			s.FG = Color{}
		case code >= 40 && code <= 47:
			s.BG = Color{Kind: ColorIndexed, Index: uint8(code - 40)}
		case code == 48:
			i = parseExtendedColor(nums, i, &s.BG)
		case code == 49:
			s.BG = Color{}
		case code >= 90 && code <= 97:
			s.FG = Color{Kind: ColorIndexed, Index: uint8(code-90) + 8}
		case code >= 100 && code <= 107:
			s.BG = Color{Kind: ColorIndexed, Index: uint8(code-100) + 8}
		}
	}
	return s
}

// parseExtendedColor parses a 38/48 ";5;n" (256-color) or ";2;r;g;b"
// (truecolor) sequence starting at index i (pointing at the 38/48 code).
// Returns the new index for the caller's loop to continue from.
func parseExtendedColor(nums []int, i int, out *Color) int {
	if i+1 >= len(nums) {
		return i
	}
	switch nums[i+1] {
	case 5:
		if i+2 < len(nums) {
			*out = Color{Kind: ColorIndexed, Index: uint8(nums[i+2])}
			return i + 2
		}
	case 2:
		if i+4 < len(nums) {
			*out = Color{
				Kind: ColorRGB,
				R:    uint8(nums[i+2]),
				G:    uint8(nums[i+3]),
				B:    uint8(nums[i+4]),
			}
			return i + 4
		}
	}
	return i + 1
}

// buildSpans collapses a raw line of text plus its SGR-rendered regions
// into styled spans, trimming trailing whitespace off the last span and
// representing a wholly empty line as a single empty span.
func buildSpans(regions []rawRegion) []StyledSpan {
	spans := make([]StyledSpan, 0, len(regions))
	for _, r := range regions {
		spans = append(spans, StyledSpan{
			Text:  r.text,
			Style: parseSGR(r.sgr),
		})
	}
	if len(spans) == 0 {
		return []StyledSpan{{}}
	}
	last := &spans[len(spans)-1]
	trimmed := strings.TrimRight(last.Text, " ")
	last.Text = trimmed
	// Drop any now-empty spans that trailing-trim produced, except when
	// it's the only span (an all-blank line collapses to one empty span).
	for len(spans) > 1 && spans[len(spans)-1].Text == "" {
		spans = spans[:len(spans)-1]
	}
	return spans
}

// rawRegion is an intermediate (pre-Style) styled run extracted from a
// midterm terminal row: literal text plus the SGR sequence that painted it.
type rawRegion struct {
	text string
	sgr  string
}
