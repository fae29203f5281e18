package document

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/marklessapp/markless/internal/logging"
)

var parseLog = logging.New("document")

// markdown is the shared goldmark instance. Parsing is side-effect free, so
// one instance serves every Parse call.
var markdown = goldmark.New(
	goldmark.WithExtensions(
		extension.Table,
		extension.Strikethrough,
		extension.TaskList,
		extension.Footnote,
	),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// Parse renders Markdown source into a Document laid out for the given
// width and image-height map. Parsing is deterministic: the same inputs
// always produce an identical document.
func Parse(source string, layout Layout) *Document {
	return ParseWithHighlighter(source, layout, Highlight)
}

// ParseWithHighlighter is Parse with an injectable highlight function.
func ParseWithHighlighter(source string, layout Layout, hl HighlightFunc) *Document {
	if layout.Width <= 0 {
		layout.Width = 80
	}
	b := &builder{
		src:    []byte(source),
		layout: layout,
		doc: &Document{
			Source:         source,
			Footnotes:      map[string]int{},
			DiagramSources: map[string]string{},
			layoutWidth:    layout.Width,
			highlight:      hl,
		},
	}
	root := markdown.Parser().Parse(text.NewReader(b.src))
	b.collectFootnoteNames(root)
	b.emitBlocks(root)
	b.doc.Lines = b.lines
	return b.doc
}

// builder accumulates rendered lines and sidecar indexes during one parse.
type builder struct {
	src    []byte
	layout Layout
	doc    *Document
	lines  []RenderedLine

	// quoteDepth > 0 while emitting inside block quotes; every appended
	// line gains the quote prefix and BlockQuote kind.
	quoteDepth int

	// Current block's source byte range, applied to appended lines.
	srcStart, srcEnd int

	footnoteNames map[int]string
	diagramCount  int

	// links created while flattening the current paragraph, resolved to
	// wrapped lines when the paragraph is flushed.
	nextLinkID   int
	pendingLinks []pendingLink
}

type pendingLink struct {
	id   int
	text string
	url  string
}

// width is the content width available inside the current quote nesting.
func (b *builder) width() int {
	w := b.layout.Width - 4*b.quoteDepth
	if w < 1 {
		w = 1
	}
	return w
}

func (b *builder) quotePrefix() string {
	return strings.Repeat("  │ ", b.quoteDepth)
}

// append adds one line, applying the quote prefix when inside a quote.
func (b *builder) append(line RenderedLine) {
	if b.quoteDepth > 0 {
		prefix := b.quotePrefix()
		line.Kind = LineBlockQuote
		line.Spans = append([]Span{{Text: prefix}}, line.Spans...)
		line.Content = prefix + line.Content
	}
	if line.SrcStart == 0 && line.SrcEnd == 0 {
		line.SrcStart, line.SrcEnd = b.srcStart, b.srcEnd
	}
	b.lines = append(b.lines, line)
}

// isSeparator reports whether a line carries no visible content beyond the
// block-quote gutter, i.e. it works as a blank separator.
func isSeparator(l RenderedLine) bool {
	if l.Kind == LineEmpty {
		return true
	}
	if l.Kind != LineBlockQuote {
		return false
	}
	stripped := strings.ReplaceAll(l.Content, "│", "")
	return strings.TrimSpace(stripped) == ""
}

// ensureTrailingEmpties appends empty separator lines until at least n
// trailing separators exist. Does nothing at the very start of the document.
func (b *builder) ensureTrailingEmpties(n int) {
	if len(b.lines) == 0 {
		return
	}
	trailing := 0
	for i := len(b.lines) - 1; i >= 0 && isSeparator(b.lines[i]); i-- {
		trailing++
	}
	for trailing < n {
		b.append(RenderedLine{Kind: LineEmpty, SrcStart: -1, SrcEnd: -1})
		trailing++
	}
}

// collectFootnoteNames walks the footnote definition list so inline
// references can be rendered by name before their definitions are reached.
func (b *builder) collectFootnoteNames(root ast.Node) {
	b.footnoteNames = map[int]string{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if fn, ok := n.(*east.Footnote); ok {
			b.footnoteNames[fn.Index] = string(fn.Ref)
		}
		return ast.WalkContinue, nil
	})
}

func (b *builder) footnoteName(index int) string {
	if name, ok := b.footnoteNames[index]; ok && name != "" {
		return name
	}
	return fmt.Sprintf("%d", index)
}

// emitBlocks renders a sequence of sibling block nodes, separating blocks
// with a single empty line and headings with two.
func (b *builder) emitBlocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		b.emitBlock(n)
	}
}

func (b *builder) emitBlock(n ast.Node) {
	b.srcStart, b.srcEnd = blockByteRange(n)
	switch node := n.(type) {
	case *ast.Heading:
		b.emitHeading(node)
	case *ast.Paragraph, *ast.TextBlock:
		b.ensureTrailingEmpties(1)
		b.emitParagraph(n)
	case *ast.FencedCodeBlock:
		b.ensureTrailingEmpties(1)
		b.emitFencedCode(node)
	case *ast.CodeBlock:
		b.ensureTrailingEmpties(1)
		b.emitCodeLines("", rawBlockLines(node, b.src))
	case *ast.Blockquote:
		b.ensureTrailingEmpties(1)
		b.emitBlockquote(node)
	case *ast.List:
		b.ensureTrailingEmpties(1)
		b.emitList(node, 0)
	case *ast.ThematicBreak:
		b.ensureTrailingEmpties(1)
		b.append(RenderedLine{
			Kind:    LineRule,
			Content: strings.Repeat("─", b.width()),
			Spans:   []Span{{Text: strings.Repeat("─", b.width())}},
		})
	case *east.Table:
		b.ensureTrailingEmpties(1)
		b.emitTable(node)
	case *east.FootnoteList:
		for fn := node.FirstChild(); fn != nil; fn = fn.NextSibling() {
			if def, ok := fn.(*east.Footnote); ok {
				b.ensureTrailingEmpties(1)
				b.emitFootnoteDefinition(def)
			}
		}
	case *east.Footnote:
		b.ensureTrailingEmpties(1)
		b.emitFootnoteDefinition(node)
	case *ast.HTMLBlock:
		// HTML is not rendered; keep the raw text visible as a paragraph
		// so no source content silently disappears.
		b.ensureTrailingEmpties(1)
		raw := strings.TrimSpace(string(rawHTMLText(node, b.src)))
		if raw != "" {
			b.flushParagraph([]Span{{Text: raw}})
		}
	default:
		if n.Type() == ast.TypeBlock {
			b.ensureTrailingEmpties(1)
			b.emitParagraph(n)
		}
	}
}

func (b *builder) emitHeading(node *ast.Heading) {
	b.ensureTrailingEmpties(2)
	spans := b.inlineSpans(node, Style{})
	plain := spanText(spans)
	lineIdx := len(b.lines)

	for _, ws := range wrapSpans(spans, b.width()) {
		b.append(RenderedLine{
			Kind:    LineHeading,
			Level:   node.Level,
			Content: spanText(ws),
			Spans:   ws,
		})
	}
	b.resolvePendingLinks(lineIdx)

	anchor := headingAnchor(node, b.src, plain)
	b.doc.Headings = append(b.doc.Headings, HeadingRef{
		Level:  node.Level,
		Text:   plain,
		Line:   lineIdx,
		Anchor: anchor,
	})
}

// emitParagraph flattens the node's inline content, splitting out images
// into reserved placeholder rows, and wraps the rest.
func (b *builder) emitParagraph(n ast.Node) {
	var spans []Span
	flush := func() {
		if len(spans) == 0 {
			return
		}
		b.flushParagraph(spans)
		spans = nil
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if img, ok := c.(*ast.Image); ok {
			flush()
			b.emitImage(string(nodeText(img, b.src)), string(img.Destination))
			continue
		}
		spans = append(spans, b.inlineNode(c, Style{})...)
	}
	flush()
}

// flushParagraph wraps a flat span stream into paragraph lines and resolves
// the links it contained to the wrapped lines holding their text.
func (b *builder) flushParagraph(spans []Span) {
	start := len(b.lines)
	for _, ws := range wrapSpans(spans, b.width()) {
		b.append(RenderedLine{
			Kind:    LineParagraph,
			Content: spanText(ws),
			Spans:   ws,
		})
	}
	b.resolvePendingLinks(start)
}

// resolvePendingLinks records a LinkRef for every link flattened since the
// last flush, pointing at the first emitted line that carries its text.
func (b *builder) resolvePendingLinks(firstLine int) {
	for _, pl := range b.pendingLinks {
		line := firstLine
		for i := firstLine; i < len(b.lines); i++ {
			if lineHasLinkID(b.lines[i], pl.id) {
				line = i
				break
			}
		}
		b.doc.Links = append(b.doc.Links, LinkRef{Text: pl.text, URL: pl.url, Line: line})
	}
	b.pendingLinks = nil
}

func lineHasLinkID(line RenderedLine, id int) bool {
	for _, sp := range line.Spans {
		if sp.linkID == id {
			return true
		}
	}
	return false
}

// emitImage reserves rows for an image placeholder. The row count comes
// from the measured height map; unmeasured images reserve a single row. A
// caption row precedes the placeholder when the height is known and the alt
// text is non-empty, and a clickable link is registered on the first row.
func (b *builder) emitImage(alt, src string) {
	if b.quoteDepth > 0 {
		// Inside quotes images degrade to their caption; reserved rows
		// would break the per-line quote prefix.
		label := alt
		if label == "" {
			label = src
		}
		b.flushParagraph([]Span{{Text: "[Image: " + label + "]", Style: Style{Link: true}}})
		return
	}
	b.ensureTrailingEmpties(1)
	height, known := b.layout.ImageHeights[src]
	rows := height
	if rows < 1 {
		rows = 1
	}
	if known && height > 0 && alt != "" {
		caption := "    " + alt
		b.append(RenderedLine{
			Kind:    LineParagraph,
			Content: truncate(caption, b.width()),
			Spans:   []Span{{Text: truncate(caption, b.width()), Style: Style{Emphasis: true}}},
		})
	}
	start := len(b.lines)
	for i := 0; i < rows; i++ {
		b.append(RenderedLine{Kind: LineImage})
	}
	b.doc.Images = append(b.doc.Images, ImageRef{Alt: alt, Src: src, Start: start, End: start + rows})

	label := alt
	if label == "" {
		label = src
	}
	b.doc.Links = append(b.doc.Links, LinkRef{Text: "[Image: " + label + "]", URL: src, Line: start})
}

func (b *builder) emitBlockquote(node *ast.Blockquote) {
	b.quoteDepth++
	b.emitBlocks(node)
	b.quoteDepth--
}

// emitFootnoteDefinition renders "[^name] definition text" as a paragraph
// and registers the name so footnote: links can jump here.
func (b *builder) emitFootnoteDefinition(def *east.Footnote) {
	name := string(def.Ref)
	if name == "" {
		name = b.footnoteName(def.Index)
	}
	marker := footnoteMarker(name)
	spans := []Span{{Text: marker + " ", Style: Style{Strong: true}}}
	for c := def.FirstChild(); c != nil; c = c.NextSibling() {
		spans = append(spans, b.inlineSpans(c, Style{})...)
	}
	first := len(b.lines)
	b.flushParagraph(spans)
	if _, exists := b.doc.Footnotes[name]; !exists {
		b.doc.Footnotes[name] = first
	}
}

func truncate(s string, width int) string {
	if displayWidth(s) <= width {
		return s
	}
	out, _ := splitAtWidth(s, width)
	return out
}

// blockByteRange extracts the source byte range covered by a block node,
// or (-1, -1) when the node carries no line segments.
func blockByteRange(n ast.Node) (int, int) {
	if n.Type() != ast.TypeBlock {
		return -1, -1
	}
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return -1, -1
	}
	return lines.At(0).Start, lines.At(lines.Len() - 1).Stop
}

func rawBlockLines(n interface{ Lines() *text.Segments }, src []byte) []string {
	segs := n.Lines()
	out := make([]string, 0, segs.Len())
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(src)), "\n"))
	}
	return out
}

func rawHTMLText(node *ast.HTMLBlock, src []byte) []byte {
	var sb strings.Builder
	segs := node.Lines()
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		sb.Write(seg.Value(src))
	}
	return []byte(sb.String())
}

// headingAnchor prefers goldmark's auto heading id and falls back to a
// slug of the plain text.
func headingAnchor(node *ast.Heading, src []byte, plain string) string {
	if id, ok := node.AttributeString("id"); ok {
		if s, ok := id.([]byte); ok && len(s) > 0 {
			return strings.ToLower(string(s))
		}
		if s, ok := id.(string); ok && s != "" {
			return strings.ToLower(s)
		}
	}
	return slugify(plain)
}

func slugify(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			sb.WriteRune('-')
		}
	}
	return strings.Trim(sb.String(), "-")
}
