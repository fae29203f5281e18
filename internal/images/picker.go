// Package images loads, scales, and draws inline images for the viewer.
// Protocol encoding is delegated to rasterm; this package owns protocol
// selection, the original/scaled caches, and the measured-height feedback
// that drives document reflow.
package images

import (
	"os"
	"strings"

	"github.com/marklessapp/markless/internal/logging"
)

var imgLog = logging.New("images")

// ProtocolType selects how images reach the terminal.
type ProtocolType int

const (
	// Halfblocks draws with ▀ cells and works everywhere.
	Halfblocks ProtocolType = iota
	Kitty
	Sixel
	Iterm2
)

func (p ProtocolType) String() string {
	switch p {
	case Kitty:
		return "kitty"
	case Sixel:
		return "sixel"
	case Iterm2:
		return "iterm2"
	default:
		return "halfblock"
	}
}

// Picker is the read-mostly protocol and font-geometry singleton. CellW and
// CellH are the terminal cell size in pixels.
type Picker struct {
	Protocol  ProtocolType
	CellW     int
	CellH     int
	TrueColor bool
}

// Detect builds a Picker from an optional explicit mode ("kitty", "sixel",
// "iterm2", "halfblock") and the environment.
func Detect(imageMode string, trueColor bool) *Picker {
	p := &Picker{
		Protocol:  detectProtocol(imageMode),
		TrueColor: trueColor,
	}
	p.CellW, p.CellH = fontSize()
	imgLog.Debug("picker ready", "protocol", p.Protocol.String(), "cellW", p.CellW, "cellH", p.CellH)
	return p
}

// FontSize returns the cell size in pixels (px per column, px per row).
func (p *Picker) FontSize() (int, int) { return p.CellW, p.CellH }

func detectProtocol(imageMode string) ProtocolType {
	switch strings.ToLower(imageMode) {
	case "kitty":
		return Kitty
	case "sixel":
		return Sixel
	case "iterm2":
		return Iterm2
	case "halfblock", "halfblocks":
		return Halfblocks
	}
	if os.Getenv("KITTY_WINDOW_ID") != "" {
		return Kitty
	}
	switch os.Getenv("TERM_PROGRAM") {
	case "iTerm.app", "WezTerm":
		return Iterm2
	}
	term := os.Getenv("TERM")
	if strings.Contains(term, "ghostty") {
		return Kitty
	}
	if strings.Contains(term, "sixel") {
		return Sixel
	}
	return Halfblocks
}
