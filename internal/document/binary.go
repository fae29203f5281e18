package document

import (
	"fmt"
	"strings"
)

// binaryProbeSize bounds how much of a file the binary sniffer inspects.
const binaryProbeSize = 4096

// LooksBinary reports whether data is likely not text: a NUL byte or more
// than 10% non-printable bytes within the probe window.
func LooksBinary(data []byte) bool {
	probe := data
	if len(probe) > binaryProbeSize {
		probe = probe[:binaryProbeSize]
	}
	if len(probe) == 0 {
		return false
	}
	suspect := 0
	for _, c := range probe {
		if c == 0 {
			return true
		}
		if c < 9 || (c > 13 && c < 32) {
			suspect++
		}
	}
	return suspect*10 > len(probe)
}

// ParseBinary renders a hex view of raw bytes: offset, hex columns, and an
// ASCII gutter. The result is a plain document with no sidecar indexes.
func ParseBinary(data []byte, layout Layout) *Document {
	if layout.Width <= 0 {
		layout.Width = 80
	}
	doc := &Document{
		Footnotes:      map[string]int{},
		DiagramSources: map[string]string{},
		layoutWidth:    layout.Width,
	}
	const perRow = 16
	for off := 0; off < len(data); off += perRow {
		end := off + perRow
		if end > len(data) {
			end = len(data)
		}
		row := data[off:end]

		var hexCol strings.Builder
		var ascii strings.Builder
		for i := 0; i < perRow; i++ {
			if i == perRow/2 {
				hexCol.WriteByte(' ')
			}
			if i < len(row) {
				fmt.Fprintf(&hexCol, "%02x ", row[i])
				if row[i] >= 32 && row[i] < 127 {
					ascii.WriteByte(row[i])
				} else {
					ascii.WriteByte('.')
				}
			} else {
				hexCol.WriteString("   ")
			}
		}
		content := truncate(fmt.Sprintf("%08x  %s |%s|", off, hexCol.String(), ascii.String()), layout.Width)
		doc.Lines = append(doc.Lines, RenderedLine{
			Kind:     LineCodeBlock,
			Content:  content,
			Spans:    []Span{{Text: content, Style: Style{Code: true}}},
			SrcStart: off,
			SrcEnd:   end,
		})
	}
	if len(doc.Lines) == 0 {
		doc.Lines = []RenderedLine{{Kind: LineEmpty}}
	}
	return doc
}

// ParseCodeFile renders an entire source file as one framed, lazily
// highlighted code block labeled with the language guessed from filename.
func ParseCodeFile(source, filename string, layout Layout) *Document {
	language := LanguageForFile(filename)
	fence := "```" + language + "\n" + strings.TrimRight(source, "\n") + "\n```\n"
	return Parse(fence, layout)
}
