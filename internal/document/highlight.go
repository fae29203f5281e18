package document

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlightStyle names the chroma style used for code blocks. The theme
// package switches it to a light-background style when appropriate.
var highlightStyle = "monokai"

// SetHighlightStyle selects the chroma style by name for subsequent
// highlight calls. Unknown names fall back to chroma's default.
func SetHighlightStyle(name string) {
	if name != "" {
		highlightStyle = name
	}
}

// Highlight maps (language, code) to styled span sequences, one per source
// line. Unknown languages tokenize through chroma's fallback lexer, so the
// result always has one entry per input line.
func Highlight(language, code string) [][]Span {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get(highlightStyle)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plainLines(code)
	}

	var out [][]Span
	var cur []Span
	for tok := iterator(); tok != chroma.EOF; tok = iterator() {
		st := tokenStyle(style, tok.Type)
		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				out = append(out, cur)
				cur = nil
			}
			if part == "" {
				continue
			}
			cur = append(cur, Span{Text: part, Style: st})
		}
	}
	out = append(out, cur)

	// Tokenisation appends a trailing newline; drop the resulting empty
	// final row so the output matches the input line count.
	if n := len(out); n > 0 && len(out[n-1]) == 0 && !strings.HasSuffix(code, "\n") {
		expected := strings.Count(code, "\n") + 1
		if n > expected {
			out = out[:expected]
		}
	}
	return out
}

func tokenStyle(style *chroma.Style, tokenType chroma.TokenType) Style {
	entry := style.Get(tokenType)
	st := Style{Code: true}
	if entry.Colour.IsSet() {
		st.Fg = &RGB{R: entry.Colour.Red(), G: entry.Colour.Green(), B: entry.Colour.Blue()}
	}
	if entry.Bold == chroma.Yes {
		st.Strong = true
	}
	if entry.Italic == chroma.Yes {
		st.Emphasis = true
	}
	return st
}

func plainLines(code string) [][]Span {
	lines := strings.Split(code, "\n")
	out := make([][]Span, len(lines))
	for i, line := range lines {
		if line != "" {
			out[i] = []Span{{Text: line, Style: Style{Code: true}}}
		}
	}
	return out
}

// LanguageForFile guesses a chroma language name from a filename, for
// rendering whole source files as a single code block.
func LanguageForFile(filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		return ""
	}
	return strings.ToLower(lexer.Config().Name)
}
