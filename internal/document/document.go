// Package document turns Markdown (or code / binary) source into a
// line-addressable rendered artifact. A Document is built once by Parse for
// a particular layout width and image-height map, and is replaced wholesale
// whenever those inputs change; the only in-place mutation permitted
// afterwards is the lazy syntax-highlight fill of pre-allocated code-block
// rows.
package document

import (
	"strings"
)

// HighlightFunc maps (language, code) to styled span sequences, one per
// source line. It is injected so tests can substitute a deterministic
// implementation; the production one is backed by chroma.
type HighlightFunc func(language, code string) [][]Span

// Layout carries the inputs that shape a parse.
type Layout struct {
	// Width is the content width in cells available for document text.
	Width int
	// ImageHeights maps image sources to the terminal rows they occupy,
	// as measured by the image subsystem after scaling. Sources absent
	// from the map reserve a single row.
	ImageHeights map[string]int
	// DiagramAsImage renders mermaid blocks as image placeholders when a
	// measured height is available.
	DiagramAsImage bool
}

// Document is the rendered artifact plus its sidecar indexes. Every Line,
// Start, and End recorded in the indexes is a valid index into Lines.
type Document struct {
	Source     string
	Lines      []RenderedLine
	Headings   []HeadingRef
	Images     []ImageRef
	Links      []LinkRef
	Footnotes  map[string]int
	CodeBlocks []CodeBlockRef

	// Diagrams lists diagram blocks still rendered as code: rasterization
	// candidates whose measured height has not fed back into the layout
	// yet. Start and End cover the code frame rows.
	Diagrams       []ImageRef
	DiagramSources map[string]string

	layoutWidth int
	highlight   HighlightFunc
}

// LayoutWidth is the content width the document was built for.
func (d *Document) LayoutWidth() int { return d.layoutWidth }

// VisibleLines returns the slice of rendered lines [offset, offset+count),
// clamped to the document.
func (d *Document) VisibleLines(offset, count int) []RenderedLine {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(d.Lines) || count <= 0 {
		return nil
	}
	end := offset + count
	if end > len(d.Lines) {
		end = len(d.Lines)
	}
	return d.Lines[offset:end]
}

// EnsureHighlightRange lazily highlights every code block whose interior
// intersects [start, end). Already-highlighted blocks are skipped, making
// the call idempotent. This is the only permitted in-place mutation of a
// built document.
func (d *Document) EnsureHighlightRange(start, end int) {
	if d.highlight == nil {
		return
	}
	for i := range d.CodeBlocks {
		ref := &d.CodeBlocks[i]
		if ref.Highlighted || ref.Start >= end || ref.End <= start {
			continue
		}
		d.fillHighlight(ref)
	}
}

func (d *Document) fillHighlight(ref *CodeBlockRef) {
	lang := ref.Language
	if lang == "" {
		lang = "text"
	}
	styled := d.highlight(lang, strings.Join(ref.Raw, "\n"))
	for row := ref.Start; row < ref.End; row++ {
		idx := row - ref.Start
		var content []Span
		if idx < len(styled) {
			content = truncateSpans(styled[idx], ref.ContentWidth)
		}
		d.Lines[row] = codeInteriorLine(content, ref.ContentWidth, d.Lines[row])
	}
	ref.Highlighted = true
}

// ResolveAnchor maps "#heading-anchor" (with or without the leading '#')
// to the heading's line index.
func (d *Document) ResolveAnchor(anchor string) (int, bool) {
	anchor = strings.ToLower(strings.TrimPrefix(anchor, "#"))
	for _, h := range d.Headings {
		if h.Anchor == anchor {
			return h.Line, true
		}
	}
	return 0, false
}

// FootnoteLine maps a footnote name to its first definition line.
func (d *Document) FootnoteLine(name string) (int, bool) {
	line, ok := d.Footnotes[name]
	return line, ok
}

// MatchLines returns the ordered line indices whose content contains the
// query, case-insensitively. An empty query matches nothing.
func (d *Document) MatchLines(query string) []int {
	if query == "" {
		return nil
	}
	needle := strings.ToLower(query)
	var out []int
	for i, line := range d.Lines {
		if strings.Contains(strings.ToLower(line.Content), needle) {
			out = append(out, i)
		}
	}
	return out
}
