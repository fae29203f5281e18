package document

import (
	"reflect"
	"strings"
	"testing"
)

func TestHeadingsSeparatedByTwoEmptyLines(t *testing.T) {
	doc := Parse("intro paragraph\n\n## Title\n\nmore text\n", Layout{Width: 60})

	var headingIdx int = -1
	for i, line := range doc.Lines {
		if line.Kind == LineHeading {
			headingIdx = i
			break
		}
	}
	if headingIdx < 2 {
		t.Fatalf("heading at line %d, want >= 2", headingIdx)
	}
	for _, i := range []int{headingIdx - 2, headingIdx - 1} {
		if doc.Lines[i].Kind != LineEmpty {
			t.Errorf("line %d before heading: kind %v, want LineEmpty", i, doc.Lines[i].Kind)
		}
	}
	if doc.Lines[headingIdx-3].Kind == LineEmpty {
		t.Errorf("three empty lines before heading, want exactly two")
	}
	if doc.Lines[headingIdx].Level != 2 {
		t.Errorf("heading level = %d, want 2", doc.Lines[headingIdx].Level)
	}
}

func TestHeadingAtDocumentStart(t *testing.T) {
	doc := Parse("# First\n\ntext\n", Layout{Width: 60})
	if doc.Lines[0].Kind != LineHeading {
		t.Fatalf("line 0 kind = %v, want LineHeading", doc.Lines[0].Kind)
	}
	if len(doc.Headings) != 1 || doc.Headings[0].Line != 0 {
		t.Fatalf("headings = %+v, want one ref at line 0", doc.Headings)
	}
}

func TestParseDeterministic(t *testing.T) {
	src := "# T\n\npara with [a link](https://x.example)\n\n```go\nfunc f() {}\n```\n"
	layout := Layout{Width: 50}
	a := Parse(src, layout)
	b := Parse(src, layout)
	if len(a.Lines) != len(b.Lines) {
		t.Fatalf("line counts differ: %d vs %d", len(a.Lines), len(b.Lines))
	}
	for i := range a.Lines {
		if a.Lines[i].Content != b.Lines[i].Content {
			t.Errorf("line %d differs: %q vs %q", i, a.Lines[i].Content, b.Lines[i].Content)
		}
	}
	if !reflect.DeepEqual(a.Links, b.Links) {
		t.Errorf("links differ: %+v vs %+v", a.Links, b.Links)
	}
}

func TestLinesNeverExceedLayoutWidth(t *testing.T) {
	src := "# A very long heading that has to wrap somewhere\n\n" +
		"A paragraph with quite a few words that will certainly wrap " +
		"at a narrow width, plus an unbreakable run " +
		strings.Repeat("x", 50) + " after it.\n\n" +
		"> quoted text that also wraps when the width is small enough\n\n" +
		"| col one | col two |\n|---|---|\n| a | b |\n\n" +
		"```go\nfunc aRatherLongFunctionName(ctx context.Context) error { return nil }\n```\n"
	for _, width := range []int{20, 33, 80} {
		doc := Parse(src, Layout{Width: width})
		for i, line := range doc.Lines {
			if w := displayWidth(line.Content); w > width {
				t.Errorf("width %d: line %d is %d cells: %q", width, i, w, line.Content)
			}
		}
	}
}

func TestContentMatchesSpans(t *testing.T) {
	src := "para **bold** and `code`\n\n- item one\n- item two\n"
	doc := Parse(src, Layout{Width: 40})
	for i, line := range doc.Lines {
		if len(line.Spans) == 0 {
			continue
		}
		if got := spanText(line.Spans); got != line.Content {
			t.Errorf("line %d: content %q != span text %q", i, line.Content, got)
		}
	}
}

func TestCodeFrame(t *testing.T) {
	doc := Parse("```rust\nfn main() {}\n```\n", Layout{Width: 40})

	if len(doc.CodeBlocks) != 1 {
		t.Fatalf("code blocks = %d, want 1", len(doc.CodeBlocks))
	}
	ref := doc.CodeBlocks[0]
	if ref.Language != "rust" {
		t.Errorf("language = %q, want rust", ref.Language)
	}
	if ref.End-ref.Start != 1 {
		t.Errorf("interior rows = %d, want 1", ref.End-ref.Start)
	}

	top := doc.Lines[ref.Start-1].Content
	interior := doc.Lines[ref.Start].Content
	bottom := doc.Lines[ref.End].Content
	if !strings.HasPrefix(top, "┌ rust ") || !strings.HasSuffix(top, "┐") {
		t.Errorf("top frame = %q", top)
	}
	if !strings.HasPrefix(interior, "│ fn main() {}") || !strings.HasSuffix(interior, " │") {
		t.Errorf("interior = %q", interior)
	}
	if !strings.HasPrefix(bottom, "└") || !strings.HasSuffix(bottom, "┘") {
		t.Errorf("bottom frame = %q", bottom)
	}
	w := displayWidth(top)
	if displayWidth(interior) != w || displayWidth(bottom) != w {
		t.Errorf("frame widths differ: top %d interior %d bottom %d",
			w, displayWidth(interior), displayWidth(bottom))
	}
	for i := ref.Start; i < ref.End; i++ {
		if doc.Lines[i].Kind != LineCodeBlock {
			t.Errorf("interior line %d kind = %v, want LineCodeBlock", i, doc.Lines[i].Kind)
		}
	}
}

func TestLazyHighlightIdempotent(t *testing.T) {
	calls := 0
	hl := func(language, code string) [][]Span {
		calls++
		lines := strings.Split(code, "\n")
		out := make([][]Span, len(lines))
		for i, l := range lines {
			out[i] = []Span{{Text: l, Style: Style{Code: true, Fg: &RGB{R: 200}}}}
		}
		return out
	}
	doc := ParseWithHighlighter("```go\nfunc f() {}\nreturn\n```\n", Layout{Width: 40}, hl)
	ref := doc.CodeBlocks[0]
	before := doc.Lines[ref.Start].Content

	doc.EnsureHighlightRange(0, len(doc.Lines))
	if calls != 1 {
		t.Fatalf("highlight calls = %d, want 1", calls)
	}
	doc.EnsureHighlightRange(0, len(doc.Lines))
	if calls != 1 {
		t.Fatalf("highlight calls after second pass = %d, want 1", calls)
	}
	after := doc.Lines[ref.Start].Content
	if before != after {
		t.Errorf("highlight changed frame text: %q vs %q", before, after)
	}
	if doc.Lines[ref.Start].Spans[1].Style.Fg == nil {
		t.Errorf("interior span has no highlight color: %+v", doc.Lines[ref.Start].Spans)
	}
}

func TestHighlightSkipsBlocksOutsideRange(t *testing.T) {
	calls := 0
	hl := func(language, code string) [][]Span {
		calls++
		return [][]Span{nil}
	}
	src := "```go\na\n```\n\n" + strings.Repeat("filler paragraph\n\n", 20) + "```go\nb\n```\n"
	doc := ParseWithHighlighter(src, Layout{Width: 40}, hl)
	if len(doc.CodeBlocks) != 2 {
		t.Fatalf("code blocks = %d, want 2", len(doc.CodeBlocks))
	}
	doc.EnsureHighlightRange(0, doc.CodeBlocks[0].End+1)
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (second block is off screen)", calls)
	}
	if doc.CodeBlocks[1].Highlighted {
		t.Errorf("off-screen block marked highlighted")
	}
}

func TestImageReflowWithMeasuredHeight(t *testing.T) {
	src := "![A](pic.png)\n"

	doc := Parse(src, Layout{Width: 40})
	if len(doc.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(doc.Images))
	}
	if rows := doc.Images[0].End - doc.Images[0].Start; rows != 1 {
		t.Errorf("unmeasured image rows = %d, want 1", rows)
	}

	doc = Parse(src, Layout{Width: 40, ImageHeights: map[string]int{"pic.png": 7}})
	img := doc.Images[0]
	if rows := img.End - img.Start; rows != 7 {
		t.Errorf("measured image rows = %d, want 7", rows)
	}
	caption := doc.Lines[img.Start-1]
	if caption.Content != "    A" {
		t.Errorf("caption = %q, want %q", caption.Content, "    A")
	}
	for i := img.Start; i < img.End; i++ {
		if doc.Lines[i].Kind != LineImage {
			t.Errorf("line %d kind = %v, want LineImage", i, doc.Lines[i].Kind)
		}
	}
	found := false
	for _, l := range doc.Links {
		if l.URL == "pic.png" && l.Line == img.Start {
			found = true
		}
	}
	if !found {
		t.Errorf("no link registered on the image row: %+v", doc.Links)
	}
}

func TestDuplicateLinkTextsResolveToTheirOwnLines(t *testing.T) {
	src := "[here](https://a.example) padding padding padding padding " +
		"padding padding [here](https://b.example)\n"
	doc := Parse(src, Layout{Width: 16})

	if len(doc.Links) != 2 {
		t.Fatalf("links = %d, want 2", len(doc.Links))
	}
	if doc.Links[0].URL != "https://a.example" || doc.Links[1].URL != "https://b.example" {
		t.Fatalf("link order wrong: %+v", doc.Links)
	}
	if doc.Links[0].Line >= doc.Links[1].Line {
		t.Errorf("duplicate link texts resolved to lines %d and %d, want distinct ascending",
			doc.Links[0].Line, doc.Links[1].Line)
	}
	for _, l := range doc.Links {
		if !strings.Contains(doc.Lines[l.Line].Content, "here") {
			t.Errorf("line %d %q does not contain link text", l.Line, doc.Lines[l.Line].Content)
		}
	}
}

func TestBlockquotePrefixAndWidth(t *testing.T) {
	doc := Parse("> quoted words that wrap at this width\n", Layout{Width: 24})
	quoted := 0
	for _, line := range doc.Lines {
		if line.Kind != LineBlockQuote {
			continue
		}
		quoted++
		if !strings.HasPrefix(line.Content, "  │ ") {
			t.Errorf("quote line missing gutter: %q", line.Content)
		}
		if w := displayWidth(line.Content); w > 24 {
			t.Errorf("quote line %d cells wide: %q", w, line.Content)
		}
	}
	if quoted < 2 {
		t.Errorf("quoted lines = %d, want the text to wrap", quoted)
	}
}

func TestNestedBlockquote(t *testing.T) {
	doc := Parse("> outer\n>> inner\n", Layout{Width: 40})
	foundInner := false
	for _, line := range doc.Lines {
		if strings.HasPrefix(line.Content, "  │   │ ") {
			foundInner = true
		}
	}
	if !foundInner {
		t.Errorf("no doubly prefixed line found: %+v", lineContents(doc))
	}
}

func TestOrderedListMarkersAlign(t *testing.T) {
	var sb strings.Builder
	for i := 1; i <= 10; i++ {
		sb.WriteString("1. item\n")
	}
	doc := Parse(sb.String(), Layout{Width: 40})
	var items []string
	for _, line := range doc.Lines {
		if line.Kind == LineListItem {
			items = append(items, line.Content)
		}
	}
	if len(items) != 10 {
		t.Fatalf("list items = %d, want 10", len(items))
	}
	if !strings.HasPrefix(items[0], " 1. ") {
		t.Errorf("first item marker = %q, want right-padded ' 1. '", items[0])
	}
	if !strings.HasPrefix(items[9], "10. ") {
		t.Errorf("tenth item marker = %q, want '10. '", items[9])
	}
}

func TestTaskListMarkers(t *testing.T) {
	doc := Parse("- [x] done\n- [ ] todo\n", Layout{Width: 40})
	var items []string
	for _, line := range doc.Lines {
		if line.Kind == LineListItem {
			items = append(items, line.Content)
		}
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	if !strings.HasPrefix(items[0], "✓ ") {
		t.Errorf("checked item = %q", items[0])
	}
	if !strings.HasPrefix(items[1], "□ ") {
		t.Errorf("unchecked item = %q", items[1])
	}
}

func TestTableLayout(t *testing.T) {
	src := "| Name | Count |\n|:-----|------:|\n| ab | 1 |\n| c | 22 |\n"
	doc := Parse(src, Layout{Width: 60})
	var rows []RenderedLine
	for _, line := range doc.Lines {
		if line.Kind == LineTable {
			rows = append(rows, line)
		}
	}
	if len(rows) != 4 {
		t.Fatalf("table rows = %d, want header+divider+2", len(rows))
	}
	if !strings.Contains(rows[1].Content, "┼") {
		t.Errorf("divider = %q, want ┼ junction", rows[1].Content)
	}
	if !rows[0].Spans[0].Style.Strong {
		t.Errorf("header cell not strong: %+v", rows[0].Spans[0])
	}
	// Right-aligned Count column pads the short value on the left.
	if !strings.Contains(rows[2].Content, "    1") {
		t.Errorf("right alignment missing: %q", rows[2].Content)
	}
	w := displayWidth(rows[0].Content)
	if displayWidth(rows[1].Content) != w {
		t.Errorf("divider width %d != header width %d", displayWidth(rows[1].Content), w)
	}
}

func TestCSVBlockBecomesTable(t *testing.T) {
	src := "```csv\nname,count\nalpha,1\nbeta,2\n```\n"
	doc := Parse(src, Layout{Width: 60})
	if len(doc.CodeBlocks) != 0 {
		t.Fatalf("csv block registered as code: %+v", doc.CodeBlocks)
	}
	tableRows := 0
	for _, line := range doc.Lines {
		if line.Kind == LineTable {
			tableRows++
		}
	}
	if tableRows != 4 {
		t.Errorf("table rows = %d, want header+divider+2", tableRows)
	}
}

func TestMalformedCSVFallsBackToCode(t *testing.T) {
	src := "```csv\n\"unterminated\n```\n"
	doc := Parse(src, Layout{Width: 60})
	hasCode := false
	for _, line := range doc.Lines {
		if line.Kind == LineCodeBlock {
			hasCode = true
		}
	}
	if !hasCode {
		t.Errorf("malformed csv did not fall back to code rendering")
	}
}

func TestMermaidDiagramPlaceholder(t *testing.T) {
	src := "```mermaid\ngraph TD; A-->B;\n```\n"

	// Without image rendering the block stays code.
	doc := Parse(src, Layout{Width: 60})
	if len(doc.DiagramSources) != 1 {
		t.Fatalf("diagram sources = %d, want 1", len(doc.DiagramSources))
	}
	if len(doc.Images) != 0 {
		t.Errorf("diagram reserved image rows without a measured height")
	}

	// With a measured height it reserves rows like an image.
	doc = Parse(src, Layout{
		Width:          60,
		DiagramAsImage: true,
		ImageHeights:   map[string]int{"mermaid://1": 5},
	})
	if len(doc.Images) != 1 {
		t.Fatalf("images = %d, want 1", len(doc.Images))
	}
	if doc.Images[0].Src != "mermaid://1" {
		t.Errorf("image src = %q", doc.Images[0].Src)
	}
	if rows := doc.Images[0].End - doc.Images[0].Start; rows != 5 {
		t.Errorf("diagram rows = %d, want 5", rows)
	}
}

func TestMermaidCandidateRecordedForLoader(t *testing.T) {
	src := "```mermaid\ngraph TD; A-->B;\n```\n"

	doc := Parse(src, Layout{Width: 60, DiagramAsImage: true})
	if len(doc.Diagrams) != 1 {
		t.Fatalf("diagram candidates = %d, want 1", len(doc.Diagrams))
	}
	ref := doc.Diagrams[0]
	if ref.Src != "mermaid://1" {
		t.Errorf("candidate src = %q", ref.Src)
	}
	if ref.Start >= ref.End || ref.End > len(doc.Lines) {
		t.Errorf("candidate range [%d,%d) out of bounds", ref.Start, ref.End)
	}
	for i := ref.Start; i < ref.End; i++ {
		if doc.Lines[i].Kind != LineCodeBlock {
			t.Errorf("candidate row %d is %v, want code", i, doc.Lines[i].Kind)
		}
	}

	// Without image rendering there is nothing for the loader to measure.
	doc = Parse(src, Layout{Width: 60})
	if len(doc.Diagrams) != 0 {
		t.Errorf("candidate recorded with images off: %v", doc.Diagrams)
	}
}

func TestHTMLBlockKeptAsText(t *testing.T) {
	doc := Parse("before\n\n<div>\nraw markup\n</div>\n\nafter\n", Layout{Width: 60})
	found := false
	for _, line := range doc.Lines {
		if strings.Contains(line.Content, "raw markup") {
			found = true
		}
	}
	if !found {
		t.Errorf("html block content disappeared: %v", lineContents(doc))
	}
}

func TestFootnotes(t *testing.T) {
	src := "text with a note[^1] inline\n\n[^1]: the definition\n"
	doc := Parse(src, Layout{Width: 60})

	line, ok := doc.FootnoteLine("1")
	if !ok {
		t.Fatalf("footnote 1 not registered: %+v", doc.Footnotes)
	}
	if !strings.HasPrefix(doc.Lines[line].Content, "¹") {
		t.Errorf("definition line = %q, want superscript marker", doc.Lines[line].Content)
	}
	found := false
	for _, l := range doc.Links {
		if l.URL == "footnote:1" {
			found = true
		}
	}
	if !found {
		t.Errorf("no footnote link registered: %+v", doc.Links)
	}
}

func TestResolveAnchor(t *testing.T) {
	doc := Parse("# Getting Started\n\ntext\n\n## More Stuff\n", Layout{Width: 60})
	for _, tc := range []struct {
		anchor string
		ok     bool
	}{
		{"getting-started", true},
		{"#getting-started", true},
		{"#Getting-Started", true},
		{"more-stuff", true},
		{"missing", false},
	} {
		line, ok := doc.ResolveAnchor(tc.anchor)
		if ok != tc.ok {
			t.Errorf("ResolveAnchor(%q) ok = %v, want %v", tc.anchor, ok, tc.ok)
			continue
		}
		if ok && doc.Lines[line].Kind != LineHeading {
			t.Errorf("ResolveAnchor(%q) -> line %d, not a heading", tc.anchor, line)
		}
	}
}

func TestMatchLines(t *testing.T) {
	doc := Parse("Alpha line\n\nbeta ALPHA line\n\nnothing\n", Layout{Width: 60})
	got := doc.MatchLines("alpha")
	if len(got) != 2 {
		t.Fatalf("matches = %v, want 2 lines", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i] <= got[i-1] {
			t.Errorf("matches not ascending: %v", got)
		}
	}
	if doc.MatchLines("") != nil {
		t.Errorf("empty query matched lines")
	}
}

func TestSidecarIndexesInBounds(t *testing.T) {
	src := "# H\n\n[l](https://x.example) and ![i](p.png)\n\n```go\nx\n```\n\n[^n]: def\n"
	doc := Parse(src, Layout{Width: 50, ImageHeights: map[string]int{"p.png": 3}})
	n := len(doc.Lines)
	for _, h := range doc.Headings {
		if h.Line < 0 || h.Line >= n {
			t.Errorf("heading line %d out of [0,%d)", h.Line, n)
		}
	}
	for _, l := range doc.Links {
		if l.Line < 0 || l.Line >= n {
			t.Errorf("link line %d out of [0,%d)", l.Line, n)
		}
	}
	for _, img := range doc.Images {
		if img.Start < 0 || img.End > n || img.Start >= img.End {
			t.Errorf("image range [%d,%d) out of [0,%d)", img.Start, img.End, n)
		}
	}
	for _, cb := range doc.CodeBlocks {
		if cb.Start < 1 || cb.End >= n || cb.Start > cb.End {
			t.Errorf("code range [%d,%d) out of frame bounds", cb.Start, cb.End)
		}
	}
	for name, line := range doc.Footnotes {
		if line < 0 || line >= n {
			t.Errorf("footnote %q line %d out of [0,%d)", name, line, n)
		}
	}
}

func TestVisibleLinesClamps(t *testing.T) {
	doc := Parse("a\n\nb\n\nc\n", Layout{Width: 40})
	if got := doc.VisibleLines(-5, 2); len(got) != 2 {
		t.Errorf("negative offset: got %d lines, want 2", len(got))
	}
	if got := doc.VisibleLines(0, 1000); len(got) != len(doc.Lines) {
		t.Errorf("oversized count: got %d, want %d", len(got), len(doc.Lines))
	}
	if got := doc.VisibleLines(len(doc.Lines)+1, 3); got != nil {
		t.Errorf("past-end offset: got %v, want nil", got)
	}
}

func lineContents(doc *Document) []string {
	out := make([]string, len(doc.Lines))
	for i, l := range doc.Lines {
		out[i] = l.Content
	}
	return out
}
