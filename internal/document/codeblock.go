package document

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// emitFencedCode dispatches a fenced block on its info string: csv becomes
// a table, mermaid becomes a diagram placeholder (or stays a code block),
// everything else is framed as code.
func (b *builder) emitFencedCode(node *ast.FencedCodeBlock) {
	language := string(node.Language(b.src))
	raw := rawBlockLines(node, b.src)

	switch strings.ToLower(language) {
	case "csv":
		if b.emitCSVTable(raw) {
			return
		}
		parseLog.Warn("csv block fell back to code rendering")
	case "mermaid":
		b.emitMermaid(language, raw)
		return
	}
	b.emitCodeLines(language, raw)
}

// emitMermaid records the diagram source and, when diagrams render as
// images and a measured height exists, reserves placeholder rows the same
// way ordinary images do. Without a measured height the block renders as
// code, but its line range is recorded as a rasterization candidate so
// the image loader can measure it and trigger the reflow that upgrades
// it to a placeholder.
func (b *builder) emitMermaid(language string, raw []string) {
	b.diagramCount++
	key := fmt.Sprintf("mermaid://%d", b.diagramCount)
	b.doc.DiagramSources[key] = strings.Join(raw, "\n")

	if b.layout.DiagramAsImage {
		if height, known := b.layout.ImageHeights[key]; known && height > 0 {
			b.emitImage(fmt.Sprintf("Diagram %d", b.diagramCount), key)
			return
		}
	}
	start := len(b.lines)
	b.emitCodeLines(language, raw)
	if b.layout.DiagramAsImage && b.quoteDepth == 0 {
		b.doc.Diagrams = append(b.doc.Diagrams, ImageRef{Src: key, Start: start, End: len(b.lines)})
	}
}

// emitCodeLines frames source lines in a box:
//
//	┌ go ─────────┐
//	│ fn main()   │
//	└─────────────┘
//
// The recorded CodeBlockRef covers only the interior rows; frame rows stay
// outside the range. Newly parsed blocks are not highlighted; the styled
// fill happens lazily via EnsureHighlightRange.
func (b *builder) emitCodeLines(language string, raw []string) {
	if b.quoteDepth > 0 {
		// Quoted code keeps the frame but is never registered for lazy
		// highlighting; the quote gutter owns those rows.
		b.renderCodeFrame(language, raw, false)
		return
	}
	b.renderCodeFrame(language, raw, true)
}

func (b *builder) renderCodeFrame(language string, raw []string, register bool) {
	maxLine := 0
	for _, line := range raw {
		if w := displayWidth(line); w > maxLine {
			maxLine = w
		}
	}
	contentWidth := maxLine
	if limit := b.width() - 4; contentWidth > limit {
		contentWidth = limit
	}
	if contentWidth < 1 {
		contentWidth = 1
	}

	label := " code "
	if language != "" {
		label = " " + language + " "
	}
	if displayWidth(label) > contentWidth+2 {
		label = truncate(label, contentWidth+2)
	}

	top := "┌" + label + strings.Repeat("─", contentWidth+2-displayWidth(label)) + "┐"
	b.append(RenderedLine{
		Kind:    LineCodeBlock,
		Content: top,
		Spans:   []Span{{Text: top}},
	})

	start := len(b.lines)
	for _, line := range raw {
		content := []Span{{Text: truncate(line, contentWidth), Style: Style{Code: true}}}
		b.append(codeInteriorLine(content, contentWidth, RenderedLine{SrcStart: b.srcStart, SrcEnd: b.srcEnd}))
	}
	end := len(b.lines)

	bottom := "└" + strings.Repeat("─", contentWidth+2) + "┘"
	b.append(RenderedLine{
		Kind:    LineCodeBlock,
		Content: bottom,
		Spans:   []Span{{Text: bottom}},
	})

	if register {
		b.doc.CodeBlocks = append(b.doc.CodeBlocks, CodeBlockRef{
			Start:        start,
			End:          end,
			Language:     language,
			Raw:          raw,
			ContentWidth: contentWidth,
			RightPad:     1,
		})
	}
}

// codeInteriorLine assembles one framed interior row: the left border, the
// content padded to the block's content width, and the right border. The
// line kind and source range of old are preserved so highlight fills keep
// block metadata intact.
func codeInteriorLine(content []Span, contentWidth int, old RenderedLine) RenderedLine {
	pad := contentWidth - spanWidth(content)
	if pad < 0 {
		content = truncateSpans(content, contentWidth)
		pad = contentWidth - spanWidth(content)
	}
	spans := make([]Span, 0, len(content)+3)
	spans = append(spans, Span{Text: "│ "})
	spans = append(spans, content...)
	if pad > 0 {
		spans = append(spans, Span{Text: strings.Repeat(" ", pad)})
	}
	spans = append(spans, Span{Text: " │"})
	return RenderedLine{
		Kind:     LineCodeBlock,
		Content:  spanText(spans),
		Spans:    spans,
		SrcStart: old.SrcStart,
		SrcEnd:   old.SrcEnd,
	}
}
