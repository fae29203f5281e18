package app

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/marklessapp/markless/internal/document"
	"github.com/marklessapp/markless/internal/screen"
)

// docPadding is the left padding of the document column.
const docPadding = 2

// View composes the frame. The pre-render hook runs first so the document
// reserving rows and the images measured for them never diverge within
// one frame.
func (m *Model) View() string {
	if m.width < 4 || m.height < 2 {
		return ""
	}
	if m.editing {
		return m.viewEditor()
	}
	start := time.Now()
	m.prepareFrame()

	buf := screen.New(m.width, m.height)
	docX := 0
	if m.tocVisible {
		m.drawTOC(buf)
		docX = m.tocWidth()
	}
	m.drawDocument(buf, docX)
	m.imgs.RenderInto(buf, m.doc, m.vp.Offset, m.vp.Height, docX+docPadding, m.cooldown > 0)
	m.drawFooter(buf)

	switch {
	case m.helpOpen:
		m.drawHelpOverlay(buf)
	case m.linkPicker != nil:
		m.drawLinkPicker(buf)
	}
	out := buf.Render()
	m.lastFrame = time.Since(start)
	return out
}

// prepareFrame is the pre-render hook: load and scale nearby images,
// reflow if measured heights drifted from the layout, top up highlighting
// around the viewport.
func (m *Model) prepareFrame() {
	m.imgs.LoadNearby(m.doc, m.vp.Offset, m.contentWidth(), m.vp.Height, m.resizePending)
	if m.imgs.HeightsDiffer(m.layoutHeights) {
		m.layoutHeights = m.imgs.Measured()
		m.reflow()
	}
	over := 2 * m.vp.Height
	start := m.vp.Offset - over
	if start < 0 {
		start = 0
	}
	m.doc.EnsureHighlightRange(start, m.vp.Offset+m.vp.Height+over)
}

func (m *Model) drawTOC(buf *screen.Buffer) {
	w := m.tocWidth()
	sepStyle := screen.Style{Fg: string(m.palette.Frame)}
	for y := 0; y < m.vp.Height; y++ {
		buf.SetString(w-1, y, "│", sepStyle)
	}
	visible := m.vp.Height
	for row := 0; row < visible; row++ {
		idx := m.tocScroll + row
		if idx >= len(m.doc.Headings) {
			break
		}
		h := m.doc.Headings[idx]
		text := strings.Repeat("  ", h.Level-1) + h.Text
		text = runewidth.Truncate(text, w-2, "…")
		style := screen.Style{Fg: string(m.palette.Muted)}
		if h.Level <= 2 {
			style = screen.Style{Fg: string(m.palette.Text)}
		}
		if idx == m.tocSelected {
			style = screen.Style{Fg: string(m.palette.TOCSelectedFg), Bg: string(m.palette.TOCSelectedBg), Bold: true}
			pad := w - 1 - runewidth.StringWidth(text)
			if pad > 0 {
				text += strings.Repeat(" ", pad)
			}
		}
		buf.SetString(0, row, text, style)
	}
}

func (m *Model) drawDocument(buf *screen.Buffer, docX int) {
	lines := m.doc.VisibleLines(m.vp.Offset, m.vp.Height)
	selLo, selHi, hasSel := m.selectionRange()
	query := ""
	if len([]rune(m.search.query)) >= minLiveQuery {
		query = m.search.query
	}

	for row, line := range lines {
		lineIdx := m.vp.Offset + row
		x := docX + docPadding
		if len(line.Spans) == 0 && line.Content != "" {
			buf.SetString(x, row, line.Content, m.lineStyle(line, document.Style{}))
		}
		for _, sp := range line.Spans {
			x += buf.SetString(x, row, sp.Text, m.lineStyle(line, sp.Style))
		}
		if query != "" {
			m.paintMatches(buf, line.Content, query, docX+docPadding, row)
		}
		if hasSel && lineIdx >= selLo && lineIdx <= selHi {
			buf.Restyle(docX+docPadding, m.width, row, func(s screen.Style) screen.Style {
				if s.Bg == "" {
					s.Bg = string(m.palette.SelectionBg)
				}
				return s
			})
		}
	}
}

func (m *Model) selectionRange() (int, int, bool) {
	if m.sel.state == selNone {
		return 0, 0, false
	}
	lo, hi := m.sel.anchor, m.sel.active
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo, hi, true
}

// lineStyle merges the line kind's base style with one span's flags.
func (m *Model) lineStyle(line document.RenderedLine, st document.Style) screen.Style {
	out := screen.Style{Fg: string(m.palette.Text)}
	switch line.Kind {
	case document.LineHeading:
		out = screen.Style{Fg: string(m.palette.Heading), Bold: true}
	case document.LineBlockQuote:
		out = screen.Style{Fg: string(m.palette.Quote)}
	case document.LineRule:
		out = screen.Style{Fg: string(m.palette.Rule)}
	case document.LineCodeBlock:
		out = screen.Style{Fg: string(m.palette.Frame)}
	}
	if st.Strong {
		out.Bold = true
	}
	if st.Emphasis {
		out.Italic = true
	}
	if st.Strike {
		out.Strike = true
	}
	if st.Code && st.Fg == nil {
		out.Fg = "203" // red for inline code without highlight color
		out.Bold = true
	}
	if st.Link {
		out.Underline = true
		if st.Fg == nil {
			out.Fg = string(m.palette.Link)
		}
	}
	if st.Fg != nil {
		out.Fg = fmt.Sprintf("#%02x%02x%02x", st.Fg.R, st.Fg.G, st.Fg.B)
	}
	if st.Bg != nil {
		out.Bg = fmt.Sprintf("#%02x%02x%02x", st.Bg.R, st.Bg.G, st.Bg.B)
	}
	return out
}

// paintMatches restyles case-insensitive query occurrences in one row.
// Matching is done rune by rune: lowercasing can change a rune's UTF-8
// length, so byte offsets into the lowered string do not index the
// original content.
func (m *Model) paintMatches(buf *screen.Buffer, content, query string, x0, y int) {
	runes := []rune(content)
	lowered := make([]rune, len(runes))
	for i, r := range runes {
		lowered[i] = unicode.ToLower(r)
	}
	needle := []rune(query)
	for i, r := range needle {
		needle[i] = unicode.ToLower(r)
	}
	if len(needle) == 0 {
		return
	}

	col := 0
	for from := 0; from+len(needle) <= len(runes); {
		if !runesEqual(lowered[from:from+len(needle)], needle) {
			col += runewidth.RuneWidth(runes[from])
			from++
			continue
		}
		width := runewidth.StringWidth(string(runes[from : from+len(needle)]))
		buf.Fill(x0+col, x0+col+width, y, screen.Style{
			Fg:   string(m.palette.SearchFg),
			Bg:   string(m.palette.SearchBg),
			Bold: true,
		})
		col += width
		from += len(needle)
	}
}

func runesEqual(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// drawFooter renders the status row and, above it, the search, toast, and
// hover bars when active.
func (m *Model) drawFooter(buf *screen.Buffer) {
	statusY := m.height - 1
	barStyle := screen.Style{Fg: string(m.palette.FooterFg), Bg: string(m.palette.FooterBg)}
	buf.SetString(0, statusY, padRight(m.statusLine(), m.width), barStyle)

	y := statusY - 1
	if m.search.active {
		bar := "/" + m.search.query
		if m.search.deferred && len(m.search.matches) == 0 {
			bar += "  (press Enter to search)"
		}
		buf.SetString(0, y, padRight(bar, m.width), screen.Style{
			Fg: string(m.palette.SearchFg), Bg: string(m.palette.SearchBg),
		})
		y--
	}
	if m.toast != nil {
		style := screen.Style{Fg: string(m.palette.ToastFg), Bg: string(m.palette.ToastBg)}
		if m.toast.level == toastError {
			style.Bg = "160"
			style.Fg = "231"
		} else if m.toast.level == toastWarn {
			style.Bg = "178"
			style.Fg = "16"
		}
		buf.SetString(0, y, padRight(" "+m.toast.message, m.width), style)
		y--
	}
	if m.hoverLine >= 0 {
		if link, ok := m.linkAtLine(m.hoverLine); ok {
			buf.SetString(0, y, padRight(" → "+link.URL, m.width), screen.Style{
				Fg: string(m.palette.Muted), Bg: string(m.palette.FooterBg),
			})
		}
	}
}

func (m *Model) statusLine() string {
	var parts []string
	parts = append(parts, " "+m.path)
	parts = append(parts, fmt.Sprintf("%d%%", m.vp.ScrollPercent()))
	start, end := m.vp.VisibleRange()
	parts = append(parts, fmt.Sprintf("%d-%d/%d", start+1, end, m.vp.TotalLines))
	if m.watching {
		parts = append(parts, "watch")
	}
	if m.imgs.Enabled() {
		parts = append(parts, m.imgs.ProtocolName())
	}
	if m.search.query != "" {
		pos := 0
		if m.search.matchIndex >= 0 {
			pos = m.search.matchIndex + 1
		}
		parts = append(parts, fmt.Sprintf("/%s (%d/%d)", m.search.query, pos, len(m.search.matches)))
	}
	if m.cfg.Perf {
		parts = append(parts, fmt.Sprintf("frame %.1fms", float64(m.lastFrame.Microseconds())/1000))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) drawHelpOverlay(buf *screen.Buffer) {
	lines := strings.Split(strings.TrimRight(m.helpText, "\n"), "\n")
	top := 1
	for i, line := range lines {
		y := top + i
		if y >= m.height-1 {
			break
		}
		buf.SetString(0, y, padRight("  "+stripANSI(line), m.width), screen.Style{
			Fg: string(m.palette.Text), Bg: "235",
		})
	}
}

func (m *Model) drawLinkPicker(buf *screen.Buffer) {
	top := 1
	header := " open link: "
	buf.SetString(2, top, padRight(header, m.width-4), screen.Style{Bg: "236", Fg: string(m.palette.Text), Bold: true})
	for i, link := range m.linkPicker {
		label := fmt.Sprintf(" %d  %s  %s", i+1, link.Text, link.URL)
		label = runewidth.Truncate(label, m.width-4, "…")
		buf.SetString(2, top+1+i, padRight(label, m.width-4), screen.Style{
			Bg: "236", Fg: string(m.palette.Link),
		})
	}
}

func (m *Model) viewEditor() string {
	status := padRight(fmt.Sprintf(" editing %s  Ctrl+S save  Esc close", m.path), m.width)
	return m.editor.View() + "\n" + status
}

func padRight(s string, width int) string {
	pad := width - runewidth.StringWidth(s)
	if pad <= 0 {
		return runewidth.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", pad)
}

// stripANSI removes escape sequences from pre-rendered overlay text so it
// can be re-styled cell by cell.
func stripANSI(s string) string {
	var sb strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case inEscape:
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
		case r == '\x1b':
			inEscape = true
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
