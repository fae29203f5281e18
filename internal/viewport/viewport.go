// Package viewport tracks the window into the rendered document: terminal
// dimensions, a line offset, and the total line count. All operations are
// total and saturate at the document edges, so callers never need to check
// bounds before scrolling.
package viewport

import "math"

// Viewport is a value type; the zero value is an empty 0x0 window.
type Viewport struct {
	Width      int
	Height     int
	Offset     int
	TotalLines int
}

// New returns a viewport for the given terminal size with the offset at the top.
func New(width, height int) Viewport {
	return Viewport{Width: max(0, width), Height: max(0, height)}
}

// maxOffset is the largest valid offset: the document scrolled so that its
// last line sits on the bottom row.
func (v Viewport) maxOffset() int {
	return max(0, v.TotalLines-v.Height)
}

func (v *Viewport) clamp() {
	if v.Offset > v.maxOffset() {
		v.Offset = v.maxOffset()
	}
	if v.Offset < 0 {
		v.Offset = 0
	}
}

// ScrollUp moves the window up by n lines, stopping at the top.
func (v *Viewport) ScrollUp(n int) {
	v.Offset -= n
	v.clamp()
}

// ScrollDown moves the window down by n lines, stopping at the bottom.
func (v *Viewport) ScrollDown(n int) {
	v.Offset += n
	v.clamp()
}

// PageUp scrolls up by one full window height.
func (v *Viewport) PageUp() { v.ScrollUp(v.Height) }

// PageDown scrolls down by one full window height.
func (v *Viewport) PageDown() { v.ScrollDown(v.Height) }

// HalfPageUp scrolls up by half the window height.
func (v *Viewport) HalfPageUp() { v.ScrollUp(v.Height / 2) }

// HalfPageDown scrolls down by half the window height.
func (v *Viewport) HalfPageDown() { v.ScrollDown(v.Height / 2) }

// GoToTop jumps to the first line.
func (v *Viewport) GoToTop() { v.Offset = 0 }

// GoToBottom jumps so the last line is visible.
func (v *Viewport) GoToBottom() { v.Offset = v.maxOffset() }

// GoToLine positions the window so that line l is the top visible row,
// clamped to the valid offset range.
func (v *Viewport) GoToLine(l int) {
	v.Offset = l
	v.clamp()
}

// GoToPercent jumps to p percent of the scrollable range, p in 0..100.
func (v *Viewport) GoToPercent(p int) {
	p = min(100, max(0, p))
	v.Offset = int(math.Round(float64(v.maxOffset()) * float64(p) / 100))
	v.clamp()
}

// Resize updates the terminal dimensions, preserving the offset clamped to
// the new maximum.
func (v *Viewport) Resize(width, height int) {
	v.Width = max(0, width)
	v.Height = max(0, height)
	v.clamp()
}

// SetTotalLines records the rendered document length, clamping the offset.
// Called after every reflow so scroll position survives layout changes.
func (v *Viewport) SetTotalLines(n int) {
	v.TotalLines = max(0, n)
	v.clamp()
}

// CanScrollUp reports whether any content is hidden above the window.
func (v Viewport) CanScrollUp() bool { return v.Offset > 0 }

// CanScrollDown reports whether any content is hidden below the window.
func (v Viewport) CanScrollDown() bool { return v.Offset < v.maxOffset() }

// VisibleRange returns the half-open line range [start, end) currently shown.
func (v Viewport) VisibleRange() (int, int) {
	end := min(v.TotalLines, v.Offset+v.Height)
	return v.Offset, max(v.Offset, end)
}

// ScrollPercent returns the scroll position as 0..100. A document that fits
// entirely (or is empty) reports 100.
func (v Viewport) ScrollPercent() int {
	m := v.maxOffset()
	if m == 0 {
		return 100
	}
	return int(math.Round(float64(v.Offset) / float64(m) * 100))
}
