package document

import (
	"encoding/csv"
	"strings"

	"github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
)

// csvRowCap bounds how many CSV rows are rendered as a table. Inputs beyond
// the cap fall back to dropping the tail; see DESIGN.md.
const csvRowCap = 1000

// Alignment mirrors the table column alignments of the source.
type alignment int

const (
	alignNone alignment = iota
	alignLeft
	alignRight
	alignCenter
)

type tableData struct {
	header []([]Span)
	rows   [][]([]Span)
	aligns []alignment
}

// emitTable renders a GFM table: a header row, an inner divider of ─ and ┼,
// and one row per body row with per-column alignment.
func (b *builder) emitTable(node *east.Table) {
	data := tableData{}
	for _, a := range node.Alignments {
		data.aligns = append(data.aligns, fromGoldmarkAlignment(a))
	}
	for c := node.FirstChild(); c != nil; c = c.NextSibling() {
		switch row := c.(type) {
		case *east.TableHeader:
			data.header = b.tableCells(row)
		case *east.TableRow:
			data.rows = append(data.rows, b.tableCells(row))
		}
	}
	b.renderTable(data, data.header != nil)
}

func (b *builder) tableCells(row ast.Node) []([]Span) {
	var cells []([]Span)
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cells = append(cells, b.inlineSpans(c, Style{}))
	}
	return cells
}

// renderTable lays out a table from styled cells. Column widths are the
// maximum cell display width; cells are truncated to their column width and
// padded according to the column alignment.
func (b *builder) renderTable(data tableData, hasHeader bool) {
	cols := len(data.header)
	for _, row := range data.rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return
	}

	widths := make([]int, cols)
	measure := func(row []([]Span)) {
		for i, cell := range row {
			if w := spanWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}
	if hasHeader {
		measure(data.header)
	}
	for _, row := range data.rows {
		measure(row)
	}
	for i := range widths {
		if widths[i] == 0 {
			widths[i] = 1
		}
	}

	if hasHeader {
		b.appendTableRow(data.header, widths, data.aligns, true)
		b.appendTableDivider(widths)
	}
	for _, row := range data.rows {
		b.appendTableRow(row, widths, data.aligns, false)
	}
}

func (b *builder) appendTableRow(cells []([]Span), widths []int, aligns []alignment, header bool) {
	var spans []Span
	for i, w := range widths {
		var cell []Span
		if i < len(cells) {
			cell = cells[i]
		}
		align := alignNone
		if i < len(aligns) {
			align = aligns[i]
		}
		if header {
			for j := range cell {
				cell[j].Style = cell[j].Style.Merge(Style{Strong: true})
			}
		}
		spans = append(spans, padCell(cell, w, align)...)
		if i < len(widths)-1 {
			spans = append(spans, Span{Text: " │ "})
		}
	}
	spans = truncateSpans(spans, b.width())
	start := len(b.lines)
	b.append(RenderedLine{
		Kind:    LineTable,
		Content: spanText(spans),
		Spans:   spans,
	})
	b.resolvePendingLinks(start)
}

func (b *builder) appendTableDivider(widths []int) {
	var sb strings.Builder
	for i, w := range widths {
		sb.WriteString(strings.Repeat("─", w))
		if i < len(widths)-1 {
			sb.WriteString("─┼─")
		}
	}
	content := truncate(sb.String(), b.width())
	b.append(RenderedLine{
		Kind:    LineTable,
		Content: content,
		Spans:   []Span{{Text: content}},
	})
}

// padCell truncates a cell to its column width and pads per alignment.
func padCell(cell []Span, width int, align alignment) []Span {
	cell = truncateSpans(cell, width)
	pad := width - spanWidth(cell)
	if pad <= 0 {
		return cell
	}
	switch align {
	case alignRight:
		return append([]Span{{Text: strings.Repeat(" ", pad)}}, cell...)
	case alignCenter:
		left := pad / 2
		out := append([]Span{{Text: strings.Repeat(" ", left)}}, cell...)
		return append(out, Span{Text: strings.Repeat(" ", pad-left)})
	default:
		return append(cell, Span{Text: strings.Repeat(" ", pad)})
	}
}

func fromGoldmarkAlignment(a east.Alignment) alignment {
	switch a {
	case east.AlignLeft:
		return alignLeft
	case east.AlignRight:
		return alignRight
	case east.AlignCenter:
		return alignCenter
	default:
		return alignNone
	}
}

// emitCSVTable re-renders a csv code block as a table whose first record is
// the header, using the same table machinery as Markdown tables.
func (b *builder) emitCSVTable(raw []string) bool {
	// Strict quoting: a malformed block falls back to code rendering
	// instead of producing a mangled table.
	reader := csv.NewReader(strings.NewReader(strings.Join(raw, "\n")))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		return false
	}
	if len(records) > csvRowCap+1 {
		records = records[:csvRowCap+1]
	}

	data := tableData{}
	toCells := func(record []string) []([]Span) {
		cells := make([]([]Span), len(record))
		for i, field := range record {
			cells[i] = []Span{{Text: field}}
		}
		return cells
	}
	data.header = toCells(records[0])
	for _, record := range records[1:] {
		data.rows = append(data.rows, toCells(record))
	}
	for range data.header {
		data.aligns = append(data.aligns, alignNone)
	}
	b.renderTable(data, true)
	return true
}
