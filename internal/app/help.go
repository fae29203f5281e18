package app

import (
	"github.com/charmbracelet/glamour"

	"github.com/marklessapp/markless/internal/theme"
)

const helpMarkdown = `# markless

## Navigation

| Key | Action |
|-----|--------|
| j / k, arrows | scroll one line |
| Space / PgDn, b / PgUp | page |
| Ctrl+d / Ctrl+u | half page |
| g / Home, G / End | top / bottom |

## Search

| Key | Action |
|-----|--------|
| / | start search |
| Enter | next match |
| n / N | next / previous match |
| Esc | clear search |

## Links and TOC

| Key | Action |
|-----|--------|
| o | open visible link (1-9 picker when several) |
| t | toggle TOC |
| T / Tab | toggle TOC focus |

## Other

| Key | Action |
|-----|--------|
| w | toggle file watch |
| r | reload from disk |
| e | edit (Ctrl+S save, Esc close) |
| ? / F1 | this help |
| q / Ctrl+c | quit |
`

// renderHelp renders the help overlay once per theme; the result is cached
// on the model.
func renderHelp(p theme.Palette) string {
	style := "dark"
	if p.Name == "light" {
		style = "light"
	}
	out, err := glamour.Render(helpMarkdown, style)
	if err != nil {
		appLog.Warn("help render failed", "err", err)
		return helpMarkdown
	}
	return out
}
