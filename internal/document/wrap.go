package document

import (
	"strings"
	"unicode"
)

// wrapToken is one indivisible unit of a flattened span stream: either a run
// of non-space characters or a run of spaces, with the style of the span it
// came from.
type wrapToken struct {
	text   string
	width  int
	space  bool
	style  Style
	linkID int
}

// tokenize splits a span sequence into word and whitespace tokens. Style
// boundaries inside a word produce adjacent tokens, so a link that starts
// mid-word keeps its own styling.
func tokenize(spans []Span) []wrapToken {
	var tokens []wrapToken
	for _, sp := range spans {
		if sp.Text == "" {
			continue
		}
		var run []rune
		runSpace := false
		flush := func() {
			if len(run) == 0 {
				return
			}
			text := string(run)
			tokens = append(tokens, wrapToken{
				text:   text,
				width:  displayWidth(text),
				space:  runSpace,
				style:  sp.Style,
				linkID: sp.linkID,
			})
			run = run[:0]
		}
		for _, r := range sp.Text {
			isSpace := unicode.IsSpace(r)
			if len(run) > 0 && isSpace != runSpace {
				flush()
			}
			runSpace = isSpace
			run = append(run, r)
		}
		flush()
	}
	return tokens
}

// wrapSpans greedily fills lines of at most width display cells from the
// token stream. Whitespace tokens at the start of a wrapped line are
// dropped. A word wider than the line is hard-split so the width guarantee
// holds even for pathological input.
func wrapSpans(spans []Span, width int) [][]Span {
	if width <= 0 {
		width = 1
	}
	tokens := tokenize(spans)
	var lines [][]Span
	var cur []Span
	used := 0

	flushLine := func() {
		lines = append(lines, mergeSpans(cur))
		cur = nil
		used = 0
	}

	for _, tok := range tokens {
		if tok.space {
			if used == 0 {
				continue // dropped leading whitespace on a wrapped line
			}
			if used+tok.width > width {
				flushLine()
				continue
			}
			cur = append(cur, Span{Text: tok.text, Style: tok.style, linkID: tok.linkID})
			used += tok.width
			continue
		}
		if used+tok.width <= width {
			cur = append(cur, Span{Text: tok.text, Style: tok.style, linkID: tok.linkID})
			used += tok.width
			continue
		}
		if tok.width <= width {
			flushLine()
			cur = append(cur, Span{Text: tok.text, Style: tok.style, linkID: tok.linkID})
			used = tok.width
			continue
		}
		// Hard-split an over-wide word across as many lines as it needs.
		rest := tok.text
		for rest != "" {
			room := width - used
			if room <= 0 {
				flushLine()
				room = width
			}
			part, remainder := splitAtWidth(rest, room)
			if part == "" {
				// A single wide rune that does not fit the room; force it
				// onto its own line.
				flushLine()
				part, remainder = splitAtWidth(rest, width)
				if part == "" {
					part, remainder = rest, ""
				}
			}
			cur = append(cur, Span{Text: part, Style: tok.style, linkID: tok.linkID})
			used += displayWidth(part)
			rest = remainder
		}
	}
	if len(cur) > 0 || len(lines) == 0 {
		flushLine()
	}

	// Trim trailing whitespace spans from every line.
	for i := range lines {
		lines[i] = trimTrailingSpace(lines[i])
	}
	return lines
}

// splitAtWidth cuts s at the largest prefix whose display width fits.
func splitAtWidth(s string, width int) (string, string) {
	used := 0
	for i, r := range s {
		w := displayWidth(string(r))
		if used+w > width {
			return s[:i], s[i:]
		}
		used += w
	}
	return s, ""
}

// mergeSpans joins adjacent spans with identical style and link identity so
// wrapped lines do not fragment into per-word spans.
func mergeSpans(spans []Span) []Span {
	var out []Span
	for _, sp := range spans {
		if n := len(out); n > 0 && out[n-1].Style == sp.Style && out[n-1].linkID == sp.linkID {
			out[n-1].Text += sp.Text
			continue
		}
		out = append(out, sp)
	}
	return out
}

func trimTrailingSpace(spans []Span) []Span {
	for len(spans) > 0 {
		last := &spans[len(spans)-1]
		trimmed := strings.TrimRight(last.Text, " \t")
		if trimmed == last.Text {
			break
		}
		if trimmed == "" {
			spans = spans[:len(spans)-1]
			continue
		}
		last.Text = trimmed
		break
	}
	return spans
}
