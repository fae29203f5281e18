// Package theme picks the color palette for the viewer. The terminal's
// background color is queried once at startup; everything downstream works
// from the resolved Palette so rendering never blocks on terminal I/O.
package theme

import (
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/termenv"

	"github.com/marklessapp/markless/internal/logging"
)

var themeLog = logging.New("theme")

// detectTimeout bounds the OSC 11 background query. Terminals that never
// answer (some multiplexers, dumb pipes) would otherwise hang startup.
const detectTimeout = 75 * time.Millisecond

// Palette is the resolved set of colors for one theme.
type Palette struct {
	Name string

	Text    lipgloss.Color
	Muted   lipgloss.Color
	Heading lipgloss.Color
	Link    lipgloss.Color
	Quote   lipgloss.Color
	Frame   lipgloss.Color
	Rule    lipgloss.Color

	SearchFg    lipgloss.Color
	SearchBg    lipgloss.Color
	SelectionBg lipgloss.Color

	FooterFg lipgloss.Color
	FooterBg lipgloss.Color

	TOCSelectedFg lipgloss.Color
	TOCSelectedBg lipgloss.Color

	ToastFg lipgloss.Color
	ToastBg lipgloss.Color

	// ChromaStyle names the syntax-highlight style paired with the theme.
	ChromaStyle string
}

// Dark is the default palette, used when detection fails or is skipped.
func Dark() Palette {
	return Palette{
		Name:          "dark",
		Text:          lipgloss.Color("252"),
		Muted:         lipgloss.Color("244"),
		Heading:       lipgloss.Color("211"),
		Link:          lipgloss.Color("75"),
		Quote:         lipgloss.Color("108"),
		Frame:         lipgloss.Color("240"),
		Rule:          lipgloss.Color("240"),
		SearchFg:      lipgloss.Color("16"),
		SearchBg:      lipgloss.Color("220"),
		SelectionBg:   lipgloss.Color("238"),
		FooterFg:      lipgloss.Color("252"),
		FooterBg:      lipgloss.Color("236"),
		TOCSelectedFg: lipgloss.Color("16"),
		TOCSelectedBg: lipgloss.Color("211"),
		ToastFg:       lipgloss.Color("16"),
		ToastBg:       lipgloss.Color("114"),
		ChromaStyle:   "monokai",
	}
}

func Light() Palette {
	return Palette{
		Name:          "light",
		Text:          lipgloss.Color("235"),
		Muted:         lipgloss.Color("245"),
		Heading:       lipgloss.Color("161"),
		Link:          lipgloss.Color("26"),
		Quote:         lipgloss.Color("28"),
		Frame:         lipgloss.Color("250"),
		Rule:          lipgloss.Color("250"),
		SearchFg:      lipgloss.Color("16"),
		SearchBg:      lipgloss.Color("220"),
		SelectionBg:   lipgloss.Color("253"),
		FooterFg:      lipgloss.Color("235"),
		FooterBg:      lipgloss.Color("254"),
		TOCSelectedFg: lipgloss.Color("231"),
		TOCSelectedBg: lipgloss.Color("161"),
		ToastFg:       lipgloss.Color("231"),
		ToastBg:       lipgloss.Color("28"),
		ChromaStyle:   "github",
	}
}

// Choose resolves a palette from an explicit preference ("dark", "light")
// or, for "" / "auto", from the terminal background.
func Choose(preference string) Palette {
	switch preference {
	case "dark":
		return Dark()
	case "light":
		return Light()
	}
	if light, ok := detectLightBackground(); ok && light {
		return Light()
	}
	return Dark()
}

// detectLightBackground asks the terminal for its background color and
// classifies it by luma. The second return is false when no answer arrived
// within the timeout.
func detectLightBackground() (bool, bool) {
	type result struct {
		light bool
		ok    bool
	}
	ch := make(chan result, 1)
	go func() {
		out := termenv.NewOutput(os.Stdout)
		bg := out.BackgroundColor()
		if bg == nil {
			ch <- result{}
			return
		}
		ch <- result{light: isLight(termenv.ConvertToRGB(bg)), ok: true}
	}()
	select {
	case r := <-ch:
		return r.light, r.ok
	case <-time.After(detectTimeout):
		themeLog.Debug("background query timed out, assuming dark")
		return false, false
	}
}

// isLight classifies a background color by perceived luma.
func isLight(c colorful.Color) bool {
	luma := 0.2126*c.R + 0.7152*c.G + 0.0722*c.B
	return luma > 0.5
}
