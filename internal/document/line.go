package document

import "github.com/mattn/go-runewidth"

// LineKind tags every rendered line with the block construct it came from.
// The renderer picks base styles from it and the image subsystem relies on
// LineImage rows being reserved placeholders.
type LineKind int

const (
	LineParagraph LineKind = iota
	LineHeading
	LineCodeBlock
	LineBlockQuote
	LineListItem
	LineTable
	LineRule
	LineImage
	LineEmpty
)

// RGB is a truecolor value carried by inline spans.
type RGB struct {
	R, G, B uint8
}

// Style is a flat set of inline attributes plus optional colors. Styles
// compose by union; a later color wins over an earlier one.
type Style struct {
	Emphasis  bool
	Strong    bool
	Code      bool
	Strike    bool
	Link      bool
	Fg        *RGB
	Bg        *RGB
}

// Merge unions two styles. Colors from o override colors from s.
func (s Style) Merge(o Style) Style {
	out := Style{
		Emphasis: s.Emphasis || o.Emphasis,
		Strong:   s.Strong || o.Strong,
		Code:     s.Code || o.Code,
		Strike:   s.Strike || o.Strike,
		Link:     s.Link || o.Link,
		Fg:       s.Fg,
		Bg:       s.Bg,
	}
	if o.Fg != nil {
		out.Fg = o.Fg
	}
	if o.Bg != nil {
		out.Bg = o.Bg
	}
	return out
}

// Span is one styled inline fragment of a rendered line.
type Span struct {
	Text  string
	Style Style

	// linkID ties the span back to the LinkRef created while parsing, so
	// the layouter can record which wrapped line the link text landed on.
	// Zero means the span is not part of a link.
	linkID int
}

// RenderedLine is one terminal row of the rendered document. Content is the
// catenation of the span texts whenever Spans is non-empty, and its display
// width never exceeds the layout width the document was built with.
type RenderedLine struct {
	Content string
	Kind    LineKind
	Level   int // heading level when Kind == LineHeading
	Depth   int // nesting depth when Kind == LineListItem
	Spans   []Span

	// Source byte range of the block this line came from; -1 when unknown.
	SrcStart int
	SrcEnd   int
}

// HeadingRef indexes a heading for the TOC and anchor resolution.
type HeadingRef struct {
	Level  int
	Text   string
	Line   int
	Anchor string
}

// LinkRef records a followable link and the rendered line holding its text.
// URL may carry the internal schemes "footnote:<name>", "#<anchor>", or
// "mermaid://<n>".
type LinkRef struct {
	Text string
	URL  string
	Line int
}

// ImageRef reserves the half-open line range [Start, End) for an image.
type ImageRef struct {
	Alt   string
	Src   string
	Start int
	End   int
}

// CodeBlockRef describes the interior rows of a framed code block. The
// frame rows at Start-1 and End are not part of the range.
type CodeBlockRef struct {
	Start        int
	End          int
	Language     string
	Raw          []string
	Highlighted  bool
	ContentWidth int
	RightPad     int
}

// displayWidth is the cell width of a string per East-Asian width rules.
func displayWidth(s string) int {
	return runewidth.StringWidth(s)
}

// spanText catenates span texts.
func spanText(spans []Span) string {
	var n int
	for _, sp := range spans {
		n += len(sp.Text)
	}
	b := make([]byte, 0, n)
	for _, sp := range spans {
		b = append(b, sp.Text...)
	}
	return string(b)
}

// spanWidth is the total display width of a span sequence.
func spanWidth(spans []Span) int {
	w := 0
	for _, sp := range spans {
		w += displayWidth(sp.Text)
	}
	return w
}

// truncateSpans cuts a span sequence down to the given display width,
// splitting the span that crosses the boundary.
func truncateSpans(spans []Span, width int) []Span {
	if width <= 0 {
		return nil
	}
	var out []Span
	used := 0
	for _, sp := range spans {
		w := displayWidth(sp.Text)
		if used+w <= width {
			out = append(out, sp)
			used += w
			continue
		}
		cut := runewidth.Truncate(sp.Text, width-used, "")
		if cut != "" {
			sp.Text = cut
			out = append(out, sp)
			used += displayWidth(cut)
		}
		break
	}
	return out
}
