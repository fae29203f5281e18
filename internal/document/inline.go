package document

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// inlineSpans flattens all inline children of n into styled spans.
func (b *builder) inlineSpans(n ast.Node, base Style) []Span {
	var spans []Span
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		spans = append(spans, b.inlineNode(c, base)...)
	}
	return spans
}

// inlineNode renders a single inline node. Styles compose by union as the
// walk descends, so nested constructs like **bold `code`** keep every flag.
func (b *builder) inlineNode(n ast.Node, base Style) []Span {
	switch node := n.(type) {
	case *ast.Text:
		text := string(node.Segment.Value(b.src))
		spans := []Span{{Text: text, Style: base}}
		if node.SoftLineBreak() || node.HardLineBreak() {
			spans = append(spans, Span{Text: " ", Style: base})
		}
		return spans
	case *ast.String:
		return []Span{{Text: string(node.Value), Style: base}}
	case *ast.CodeSpan:
		style := base.Merge(Style{Code: true})
		return []Span{{Text: string(nodeText(node, b.src)), Style: style}}
	case *ast.Emphasis:
		add := Style{Emphasis: true}
		if node.Level >= 2 {
			add = Style{Strong: true}
		}
		return b.inlineSpans(node, base.Merge(add))
	case *east.Strikethrough:
		return b.inlineSpans(node, base.Merge(Style{Strike: true}))
	case *ast.Link:
		text := string(nodeText(node, b.src))
		id := b.newPendingLink(text, string(node.Destination))
		spans := b.inlineSpans(node, base.Merge(Style{Link: true}))
		for i := range spans {
			spans[i].linkID = id
		}
		return spans
	case *ast.AutoLink:
		url := string(node.URL(b.src))
		label := string(node.Label(b.src))
		id := b.newPendingLink(label, url)
		return []Span{{Text: label, Style: base.Merge(Style{Link: true}), linkID: id}}
	case *ast.Image:
		// Inline images nested below paragraph level degrade to alt text;
		// emitParagraph splits out top-level ones into placeholder rows.
		alt := string(nodeText(node, b.src))
		if alt == "" {
			alt = string(node.Destination)
		}
		return []Span{{Text: "[Image: " + alt + "]", Style: base.Merge(Style{Link: true})}}
	case *east.FootnoteLink:
		name := b.footnoteName(node.Index)
		marker := footnoteMarker(name)
		id := b.newPendingLink(marker, "footnote:"+name)
		return []Span{{Text: marker, Style: base.Merge(Style{Link: true}), linkID: id}}
	case *east.FootnoteBacklink:
		return nil
	case *ast.RawHTML:
		return nil
	case *east.TaskCheckBox:
		// Rendered as part of the list marker, not inline.
		return nil
	default:
		if n.Type() == ast.TypeInline {
			return []Span{{Text: string(nodeText(n, b.src)), Style: base}}
		}
		return nil
	}
}

func (b *builder) newPendingLink(text, url string) int {
	b.nextLinkID++
	b.pendingLinks = append(b.pendingLinks, pendingLink{id: b.nextLinkID, text: text, url: url})
	return b.nextLinkID
}

var superscriptDigits = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴',
	'5': '⁵', '6': '⁶', '7': '⁷', '8': '⁸', '9': '⁹',
}

// footnoteMarker renders a footnote reference. Purely numeric names become
// Unicode superscripts; anything else keeps the [^name] form.
func footnoteMarker(name string) string {
	var sb strings.Builder
	for _, r := range name {
		sup, ok := superscriptDigits[r]
		if !ok {
			return "[^" + name + "]"
		}
		sb.WriteRune(sup)
	}
	if sb.Len() == 0 {
		return "[^" + name + "]"
	}
	return sb.String()
}

// nodeText recursively extracts the plain text of a node's subtree.
func nodeText(n ast.Node, src []byte) []byte {
	var sb strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		switch node := n.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(src))
		case *ast.String:
			sb.Write(node.Value)
		default:
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				walk(c)
			}
		}
	}
	walk(n)
	return []byte(sb.String())
}
