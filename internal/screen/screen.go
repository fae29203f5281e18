// Package screen provides a cell grid the renderer composes a frame into.
// Text is written cell by cell so later writes (search highlights,
// selection shading) can restyle regions without re-running layout, and a
// row can be replaced wholesale by a literal escape payload for inline
// image protocols.
package screen

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Style is the comparable per-cell style. Fg and Bg are lipgloss color
// strings ("252", "#ff00ff") with "" meaning the terminal default.
type Style struct {
	Fg        string
	Bg        string
	Bold      bool
	Faint     bool
	Italic    bool
	Underline bool
	Strike    bool
	Reverse   bool
}

// Cell is one terminal cell. A wide rune occupies its own cell plus a
// continuation cell with Rune 0 to its right.
type Cell struct {
	Rune  rune
	Style Style
}

// literal is a raw payload taking over a row from column upTo onward,
// used for image protocol escapes that must reach the terminal byte-exact.
// Cells left of upTo still render, so sidebars survive on image rows.
type literal struct {
	set     bool
	upTo    int
	payload string
}

// Buffer is a width x height cell grid plus optional literal rows.
type Buffer struct {
	width    int
	height   int
	cells    [][]Cell
	literals []literal
}

func New(width, height int) *Buffer {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	b := &Buffer{width: width, height: height}
	b.cells = make([][]Cell, height)
	for y := range b.cells {
		b.cells[y] = make([]Cell, width)
	}
	b.literals = make([]literal, height)
	b.Clear()
	return b
}

func (b *Buffer) Size() (int, int) { return b.width, b.height }

// Clear resets every cell to a plain space and drops all literal rows.
func (b *Buffer) Clear() {
	for y := range b.cells {
		for x := range b.cells[y] {
			b.cells[y][x] = Cell{Rune: ' '}
		}
		b.literals[y] = literal{}
	}
}

// SetString writes s at (x, y) with the given style and returns the number
// of cells consumed. Writing clips at the row edge; a wide rune that would
// straddle the edge is dropped.
func (b *Buffer) SetString(x, y int, s string, style Style) int {
	if y < 0 || y >= b.height {
		return 0
	}
	start := x
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		if x < 0 {
			x += w
			continue
		}
		if x+w > b.width {
			break
		}
		b.cells[y][x] = Cell{Rune: r, Style: style}
		if w == 2 {
			b.cells[y][x+1] = Cell{Rune: 0, Style: style}
		}
		x += w
	}
	if x < start {
		return 0
	}
	return x - start
}

// Fill paints the style of every cell in [x0, x1) of row y, keeping runes.
func (b *Buffer) Fill(x0, x1, y int, style Style) {
	if y < 0 || y >= b.height {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > b.width {
		x1 = b.width
	}
	for x := x0; x < x1; x++ {
		b.cells[y][x].Style = style
	}
}

// Restyle applies f to the style of every cell in [x0, x1) of row y.
func (b *Buffer) Restyle(x0, x1, y int, f func(Style) Style) {
	if y < 0 || y >= b.height {
		return
	}
	if x0 < 0 {
		x0 = 0
	}
	if x1 > b.width {
		x1 = b.width
	}
	for x := x0; x < x1; x++ {
		b.cells[y][x].Style = f(b.cells[y][x].Style)
	}
}

// SetLiteral takes over row y from column upTo onward with a raw payload,
// emitted verbatim at render time. Cells in [0, upTo) still render ahead
// of it; cells at and after upTo are dropped. An empty payload reserves
// the row for output drawn by an earlier payload.
func (b *Buffer) SetLiteral(y, upTo int, payload string) {
	if y < 0 || y >= b.height {
		return
	}
	if upTo < 0 {
		upTo = 0
	}
	if upTo > b.width {
		upTo = b.width
	}
	b.literals[y] = literal{set: true, upTo: upTo, payload: payload}
}

// RowText returns the plain text of row y, without styling.
func (b *Buffer) RowText(y int) string {
	if y < 0 || y >= b.height {
		return ""
	}
	var sb strings.Builder
	for _, c := range b.cells[y] {
		if c.Rune == 0 {
			continue
		}
		sb.WriteRune(c.Rune)
	}
	return strings.TrimRight(sb.String(), " ")
}

// Render serializes the buffer to a frame: rows joined by newlines, with
// adjacent same-style cells emitted as one styled run.
func (b *Buffer) Render() string {
	var sb strings.Builder
	for y := 0; y < b.height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		if lit := b.literals[y]; lit.set {
			sb.WriteString(renderCells(b.cells[y][:lit.upTo]))
			sb.WriteString(lit.payload)
			continue
		}
		sb.WriteString(renderCells(b.cells[y]))
	}
	return sb.String()
}

func renderCells(row []Cell) string {
	// Trailing unstyled blanks carry no information.
	end := len(row)
	for end > 0 && row[end-1].Rune == ' ' && row[end-1].Style == (Style{}) {
		end--
	}

	var sb strings.Builder
	var run strings.Builder
	cur := Style{}
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if cur == (Style{}) {
			sb.WriteString(run.String())
		} else {
			sb.WriteString(styleFor(cur).Render(run.String()))
		}
		run.Reset()
	}
	for x := 0; x < end; x++ {
		c := row[x]
		if c.Rune == 0 {
			continue
		}
		if c.Style != cur {
			flush()
			cur = c.Style
		}
		run.WriteRune(c.Rune)
	}
	flush()
	return sb.String()
}

func styleFor(s Style) lipgloss.Style {
	st := lipgloss.NewStyle()
	if s.Fg != "" {
		st = st.Foreground(lipgloss.Color(s.Fg))
	}
	if s.Bg != "" {
		st = st.Background(lipgloss.Color(s.Bg))
	}
	if s.Bold {
		st = st.Bold(true)
	}
	if s.Faint {
		st = st.Faint(true)
	}
	if s.Italic {
		st = st.Italic(true)
	}
	if s.Underline {
		st = st.Underline(true)
	}
	if s.Strike {
		st = st.Strikethrough(true)
	}
	if s.Reverse {
		st = st.Reverse(true)
	}
	return st
}
