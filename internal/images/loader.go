package images

import (
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	// Decoders for the formats commonly linked from Markdown.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/marklessapp/markless/internal/document"
)

// targetColsRatio is the fraction of the content width an image may fill.
const targetColsRatio = 0.65

var httpClient = &http.Client{Timeout: 10 * time.Second}

// DiagramRenderer rasterizes diagram source text to an image.
type DiagramRenderer interface {
	Render(source string) (image.Image, error)
}

type protocolEntry struct {
	state *ProtocolState
	width int // targetCols the state was scaled for
	rows  int // measured cell rows
}

// Manager owns the image caches. It is touched only between frames: the
// pre-render hook loads and scales, the render hook reads.
type Manager struct {
	picker   *Picker
	baseDir  string
	diagrams DiagramRenderer
	enabled  bool

	originals map[string]image.Image
	protocols map[string]*protocolEntry

	// failed remembers sources that could not be loaded so every frame
	// does not retry a missing file.
	failed map[string]bool
}

func NewManager(picker *Picker, baseDir string, diagrams DiagramRenderer, enabled bool) *Manager {
	return &Manager{
		picker:    picker,
		baseDir:   baseDir,
		diagrams:  diagrams,
		enabled:   enabled,
		originals: map[string]image.Image{},
		protocols: map[string]*protocolEntry{},
		failed:    map[string]bool{},
	}
}

func (m *Manager) Enabled() bool { return m.enabled }

// ProtocolName names the active image protocol for the status bar.
func (m *Manager) ProtocolName() string { return m.picker.Protocol.String() }

// Reset drops every cache, used when the file is reloaded from disk.
func (m *Manager) Reset() {
	m.originals = map[string]image.Image{}
	m.protocols = map[string]*protocolEntry{}
	m.failed = map[string]bool{}
}

// LoadNearby loads and scales every image whose row range intersects the
// viewport extended by two heights in both directions. Diagram blocks
// still rendered as code count as candidates too; measuring one is what
// feeds the height back into the layout and turns it into a placeholder.
// Loading is skipped while a resize is pending so a burst of resizes does
// not re-scale per step. Width is the content width in cells.
func (m *Manager) LoadNearby(doc *document.Document, offset, width, height int, resizePending bool) {
	if !m.enabled || resizePending || doc == nil {
		return
	}
	targetCols := int(targetColsRatio * float64(width))
	if targetCols < 1 {
		targetCols = 1
	}
	lookahead := 2 * height
	lo := offset - lookahead
	hi := offset + height + lookahead

	for _, ref := range doc.Images {
		m.loadCandidate(doc, ref, lo, hi, targetCols)
	}
	for _, ref := range doc.Diagrams {
		m.loadCandidate(doc, ref, lo, hi, targetCols)
	}
}

func (m *Manager) loadCandidate(doc *document.Document, ref document.ImageRef, lo, hi, targetCols int) {
	if ref.End <= lo || ref.Start >= hi {
		return
	}
	if entry, ok := m.protocols[ref.Src]; ok && entry.width == targetCols {
		return
	}
	img, err := m.original(ref.Src, doc)
	if err != nil {
		if !m.failed[ref.Src] {
			imgLog.Warn("image load failed", "src", ref.Src, "err", err)
			m.failed[ref.Src] = true
		}
		return
	}
	state := m.picker.NewProtocolState(img, targetCols)
	_, rows := state.CellSize()
	m.protocols[ref.Src] = &protocolEntry{state: state, width: targetCols, rows: rows}
}

// Measured is the src -> measured cell rows map for every loaded image.
// The caller compares it against the document's layout heights and reflows
// when they diverge.
func (m *Manager) Measured() map[string]int {
	out := make(map[string]int, len(m.protocols))
	for src, entry := range m.protocols {
		out[src] = entry.rows
	}
	return out
}

// HeightsDiffer reports whether any loaded image's measured height is
// missing from or different in the given layout map.
func (m *Manager) HeightsDiffer(layout map[string]int) bool {
	for src, entry := range m.protocols {
		if layout[src] != entry.rows {
			return true
		}
	}
	return false
}

func (m *Manager) state(src string) (*protocolEntry, bool) {
	entry, ok := m.protocols[src]
	return entry, ok
}

// original resolves a source to a decoded image: cache, then diagram
// renderer for mermaid keys, then URL or disk.
func (m *Manager) original(src string, doc *document.Document) (image.Image, error) {
	if img, ok := m.originals[src]; ok {
		return img, nil
	}
	if m.failed[src] {
		return nil, fmt.Errorf("previously failed")
	}
	var img image.Image
	var err error
	switch {
	case strings.HasPrefix(src, "mermaid://"):
		if m.diagrams == nil {
			return nil, fmt.Errorf("no diagram renderer")
		}
		source, ok := doc.DiagramSources[src]
		if !ok {
			return nil, fmt.Errorf("unknown diagram %s", src)
		}
		img, err = m.diagrams.Render(source)
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		img, err = fetchImage(src)
	default:
		img, err = readImage(m.resolvePath(src))
	}
	if err != nil {
		return nil, err
	}
	m.originals[src] = img
	return img, nil
}

func (m *Manager) resolvePath(src string) string {
	if filepath.IsAbs(src) || m.baseDir == "" {
		return src
	}
	return filepath.Join(m.baseDir, src)
}

func readImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

func fetchImage(url string) (image.Image, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}
