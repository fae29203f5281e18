package document

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// emitList renders a (possibly nested) list. Bullet items use •, ordered
// items right-pad their decimal numbers so markers line up, and task items
// substitute ✓ / □ for the bullet. Nested lists indent by two spaces per
// depth; continuation lines of a wrapped item indent to the marker width.
func (b *builder) emitList(list *ast.List, depth int) {
	indent := strings.Repeat("  ", depth)
	num := list.Start
	if num == 0 {
		num = 1
	}
	numberWidth := 0
	if list.IsOrdered() {
		numberWidth = len(fmt.Sprintf("%d", num+countItems(list)-1))
	}

	for item := list.FirstChild(); item != nil; item = item.NextSibling() {
		li, ok := item.(*ast.ListItem)
		if !ok {
			continue
		}
		marker := b.listMarker(list, li, num, numberWidth)
		num++

		contIndent := indent + strings.Repeat(" ", displayWidth(marker))
		first := true
		for child := li.FirstChild(); child != nil; child = child.NextSibling() {
			switch node := child.(type) {
			case *ast.List:
				b.emitList(node, depth+1)
			case *ast.Paragraph, *ast.TextBlock:
				b.emitListText(child, depth, indent, marker, contIndent, first)
				first = false
			default:
				// Non-text blocks inside items (code, quotes) render with
				// their normal machinery at full width.
				b.emitBlock(child)
			}
		}
		if first {
			// Item with no text content still gets its marker row.
			b.append(RenderedLine{
				Kind:    LineListItem,
				Depth:   depth,
				Content: indent + marker,
				Spans:   []Span{{Text: indent + marker}},
			})
		}
	}
}

func (b *builder) emitListText(n ast.Node, depth int, indent, marker, contIndent string, first bool) {
	var spans []Span
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if img, ok := c.(*ast.Image); ok {
			alt := string(nodeText(img, b.src))
			if alt == "" {
				alt = string(img.Destination)
			}
			spans = append(spans, Span{Text: "[Image: " + alt + "]", Style: Style{Link: true}})
			continue
		}
		spans = append(spans, b.inlineNode(c, Style{})...)
	}

	width := b.width() - displayWidth(contIndent)
	if width < 1 {
		width = 1
	}
	start := len(b.lines)
	for i, ws := range wrapSpans(spans, width) {
		prefix := contIndent
		if i == 0 && first {
			prefix = indent + marker
		}
		line := append([]Span{{Text: prefix}}, ws...)
		b.append(RenderedLine{
			Kind:    LineListItem,
			Depth:   depth,
			Content: spanText(line),
			Spans:   line,
		})
	}
	b.resolvePendingLinks(start)
}

// listMarker picks the marker text for one item: task state, right-padded
// number with the source delimiter, or bullet.
func (b *builder) listMarker(list *ast.List, li *ast.ListItem, num, numberWidth int) string {
	if checked, ok := taskState(li); ok {
		if checked {
			return "✓ "
		}
		return "□ "
	}
	if list.IsOrdered() {
		delim := "."
		if list.Marker == ')' {
			delim = ")"
		}
		return fmt.Sprintf("%*d%s ", numberWidth, num, delim)
	}
	return "• "
}

// taskState finds a TaskCheckBox leading the item's first text block.
func taskState(li *ast.ListItem) (bool, bool) {
	first := li.FirstChild()
	if first == nil {
		return false, false
	}
	if cb, ok := first.FirstChild().(*east.TaskCheckBox); ok {
		return cb.IsChecked, true
	}
	return false, false
}

func countItems(list *ast.List) int {
	n := 0
	for c := list.FirstChild(); c != nil; c = c.NextSibling() {
		n++
	}
	if n == 0 {
		return 1
	}
	return n
}
