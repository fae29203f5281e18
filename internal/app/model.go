package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marklessapp/markless/internal/config"
	"github.com/marklessapp/markless/internal/document"
	"github.com/marklessapp/markless/internal/images"
	"github.com/marklessapp/markless/internal/logging"
	"github.com/marklessapp/markless/internal/theme"
	"github.com/marklessapp/markless/internal/viewport"
)

var appLog = logging.New("app")

// sourceKind is how the loaded file is dispatched to the parser.
type sourceKind int

const (
	kindMarkdown sourceKind = iota
	kindCode
	kindBinary
)

type selectionState int

const (
	selNone selectionState = iota
	selPending
	selDragging
	selFinalized
)

type selection struct {
	state  selectionState
	anchor int
	active int
}

// deferredSearchLines is the document size beyond which search runs only on
// an explicit Enter instead of every keystroke.
const deferredSearchLines = 10000

// minLiveQuery is the query length below which live search stays inert.
const minLiveQuery = 3

type searchState struct {
	active     bool
	query      string
	matches    []int
	matchIndex int
	deferred   bool
}

// scrollCooldownTicks is the number of loop ticks after a navigation during
// which iTerm2 images draw as placeholders.
const scrollCooldownTicks = 3

// Model is the single application-state record. All transitions go through
// apply; the bubbletea plumbing only translates events and runs effects.
type Model struct {
	path    string
	source  string
	kind    sourceKind
	cfg     config.Config
	palette theme.Palette

	doc           *document.Document
	vp            viewport.Viewport
	imgs          *images.Manager
	layoutHeights map[string]int

	tocVisible  bool
	tocFocused  bool
	tocSelected int
	tocScroll   int

	search searchState
	sel    selection

	toast     *toast
	hoverLine int

	// linkPicker holds the candidate links while the 1-9 picker is open.
	linkPicker []document.LinkRef

	helpOpen bool
	helpText string

	editing bool
	editor  textarea.Model
	dirty   bool

	watching bool
	watcher  *fileWatcher

	deb           *ResizeDebouncer
	resizePending bool
	cooldown      int

	quitConfirmed bool
	shouldQuit    bool

	// lastFrame is the previous View duration, shown when --perf is set.
	lastFrame time.Duration

	width  int
	height int
}

// New loads path, dispatches it by content, and assembles the initial
// model. Terminal size arrives with the first WindowSizeMsg.
func New(path string, cfg config.Config, palette theme.Palette, picker *images.Picker) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	document.SetHighlightStyle(palette.ChromaStyle)

	m := &Model{
		path:          path,
		cfg:           cfg,
		palette:       palette,
		layoutHeights: map[string]int{},
		hoverLine:     -1,
		deb:           NewResizeDebouncer(defaultResizeDelay),
		tocVisible:    cfg.TOCVisible(),
		vp:            viewport.Viewport{Width: 80, Height: 24},
		width:         80,
		height:        25,
	}
	m.imgs = images.NewManager(picker, filepath.Dir(path), images.NewMermaidCLI(), !cfg.NoImages)
	m.setSource(string(data))
	m.reflow()

	if cfg.Watch {
		m.armWatcher()
	}
	return m, nil
}

// setSource stores new file bytes and classifies them for dispatch.
func (m *Model) setSource(source string) {
	m.source = source
	switch {
	case document.LooksBinary([]byte(source)):
		m.kind = kindBinary
	case isMarkdownPath(m.path):
		m.kind = kindMarkdown
	default:
		m.kind = kindCode
	}
	m.search.deferred = false
}

func isMarkdownPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".mdown", ".mkd":
		return true
	}
	return false
}

// contentWidth is the text layout width inside the document column.
func (m *Model) contentWidth() int {
	w := m.vp.Width
	if m.tocVisible {
		w -= m.tocWidth()
	}
	w -= 2 // document left padding
	if w < 10 {
		w = 10
	}
	return w
}

func (m *Model) tocWidth() int {
	w := m.vp.Width * 30 / 100
	if w < 16 {
		w = 16
	}
	return w
}

// reflow rebuilds the document for the current width and image heights and
// re-derives everything hanging off line indices.
func (m *Model) reflow() {
	layout := document.Layout{
		Width:          m.contentWidth(),
		ImageHeights:   m.layoutHeights,
		DiagramAsImage: m.imgs.Enabled(),
	}
	switch m.kind {
	case kindBinary:
		m.doc = document.ParseBinary([]byte(m.source), layout)
	case kindCode:
		m.doc = document.ParseCodeFile(m.source, m.path, layout)
	default:
		m.doc = document.Parse(m.source, layout)
	}
	m.vp.SetTotalLines(len(m.doc.Lines))
	m.search.deferred = len(m.doc.Lines) > deferredSearchLines
	m.recomputeMatches()
	m.clampSelection()
	m.clampTOC()
}

// recomputeMatches refreshes search matches against the current document,
// keeping the match cursor on the nearest surviving match.
func (m *Model) recomputeMatches() {
	if m.search.query == "" {
		m.search.matches = nil
		m.search.matchIndex = -1
		return
	}
	m.search.matches = m.doc.MatchLines(m.search.query)
	if len(m.search.matches) == 0 {
		m.search.matchIndex = -1
		return
	}
	if m.search.matchIndex < 0 || m.search.matchIndex >= len(m.search.matches) {
		m.search.matchIndex = 0
	}
}

func (m *Model) clampSelection() {
	if m.sel.state == selNone {
		return
	}
	max := len(m.doc.Lines) - 1
	if max < 0 {
		m.sel = selection{}
		return
	}
	if m.sel.anchor > max {
		m.sel.anchor = max
	}
	if m.sel.active > max {
		m.sel.active = max
	}
}

func (m *Model) clampTOC() {
	if n := len(m.doc.Headings); m.tocSelected >= n {
		m.tocSelected = n - 1
	}
	if m.tocSelected < 0 {
		m.tocSelected = 0
	}
}

// syncTOCToViewport points the TOC selection at the heading closest to the
// viewport offset, preferring the earlier heading on ties.
func (m *Model) syncTOCToViewport() {
	if !m.tocVisible || len(m.doc.Headings) == 0 {
		return
	}
	best := 0
	bestDist := -1
	for i, h := range m.doc.Headings {
		dist := h.Line - m.vp.Offset
		if dist < 0 {
			dist = -dist
		}
		if bestDist == -1 || dist < bestDist {
			best = i
			bestDist = dist
		}
	}
	m.tocSelected = best
	m.scrollTOCIntoView()
}

func (m *Model) scrollTOCIntoView() {
	visible := m.vp.Height - 1
	if visible < 1 {
		visible = 1
	}
	if m.tocSelected < m.tocScroll {
		m.tocScroll = m.tocSelected
	}
	if m.tocSelected >= m.tocScroll+visible {
		m.tocScroll = m.tocSelected - visible + 1
	}
}

// reload re-reads the file from disk. The previous document stays on screen
// when the read fails.
func (m *Model) reload(now time.Time) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		m.toast = newToast(toastError, fmt.Sprintf("reload failed: %v", err), now)
		appLog.Warn("reload failed", "path", m.path, "err", err)
		return
	}
	m.setSource(string(data))
	m.imgs.Reset()
	m.layoutHeights = map[string]int{}
	m.reflow()
	m.toast = newToast(toastInfo, "reloaded "+filepath.Base(m.path), now)
}

func (m *Model) armWatcher() {
	w, err := newFileWatcher(m.path)
	if err != nil {
		m.watching = false
		m.toast = newToast(toastWarn, "watch unavailable", time.Now())
		appLog.Warn("watcher failed", "err", err)
		return
	}
	m.watcher = w
	m.watching = true
}

func (m *Model) disarmWatcher() {
	if m.watcher != nil {
		m.watcher.Close()
		m.watcher = nil
	}
	m.watching = false
}

// Init schedules the tick that drives cooldowns, toast expiry, and the
// resize debouncer.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), tea.EnableMouseAllMotion)
}

func tickCmd() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func newEditor(source string, width, height int) textarea.Model {
	ed := textarea.New()
	ed.SetValue(source)
	ed.SetWidth(width)
	ed.SetHeight(height)
	ed.Prompt = "│ "
	ed.ShowLineNumbers = true
	ed.Focus()
	return ed
}
