package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marklessapp/markless/internal/document"
)

// applyResult carries the side effects a transition requested; the caller
// executes them after apply returns.
type applyResult struct {
	openURL string
}

// Update is the bubbletea entry point: it translates terminal events into
// the internal message taxonomy, applies them, and runs requested effects.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch ev := msg.(type) {
	case tea.WindowSizeMsg:
		if m.width == ev.Width && m.height == ev.Height {
			return m, nil
		}
		m.width, m.height = ev.Width, ev.Height
		m.deb.Queue(ev.Width, ev.Height, time.Now())
		m.resizePending = true
		return m, nil
	case tickMsg:
		return m, m.handleTick(time.Time(ev))
	case tea.KeyMsg:
		if m.editing {
			return m, m.updateEditor(ev)
		}
		if im := m.mapKey(ev); im != nil {
			return m.dispatch(im)
		}
		return m, nil
	case tea.MouseMsg:
		if im := m.mapMouse(ev); im != nil {
			return m.dispatch(im)
		}
		return m, nil
	default:
		return m.dispatch(msg)
	}
}

func (m *Model) dispatch(msg tea.Msg) (tea.Model, tea.Cmd) {
	res := m.apply(msg, time.Now())
	var cmds []tea.Cmd
	if res.openURL != "" {
		cmds = append(cmds, m.openLinkCmd(res.openURL))
	}
	if m.shouldQuit {
		m.disarmWatcher()
		cmds = append(cmds, tea.Quit)
	}
	return m, tea.Batch(cmds...)
}

// handleTick drives the time-based machinery: cooldown decay, toast
// expiry, debounced resize application, and the watcher drain.
func (m *Model) handleTick(now time.Time) tea.Cmd {
	if m.cooldown > 0 {
		m.cooldown--
	}
	if m.toast != nil && m.toast.expired(now) {
		m.toast = nil
	}
	if w, h, ok := m.deb.TakeReady(now); ok {
		m.apply(resizeMsg{w: w, h: h}, now)
	}
	m.resizePending = m.deb.IsPending()
	if m.watcher != nil && m.watcher.TakeChangeReady(now) {
		m.apply(fileChangedMsg{}, now)
	}
	return tickCmd()
}

// apply is the single state-transition function. It performs no terminal
// or disk I/O for pure messages; reload and save messages touch the file
// by design, as the effect step of their transition.
func (m *Model) apply(msg tea.Msg, now time.Time) applyResult {
	var res applyResult

	switch msg.(type) {
	case quitMsg, editorSaveMsg:
	default:
		m.quitConfirmed = false
	}

	switch ev := msg.(type) {
	case scrollMsg:
		if ev.lines < 0 {
			m.vp.ScrollUp(-ev.lines)
		} else {
			m.vp.ScrollDown(ev.lines)
		}
		m.cooldown = scrollCooldownTicks
	case pageMsg:
		if ev.down {
			m.vp.PageDown()
		} else {
			m.vp.PageUp()
		}
		m.cooldown = scrollCooldownTicks
	case halfPageMsg:
		if ev.down {
			m.vp.HalfPageDown()
		} else {
			m.vp.HalfPageUp()
		}
		m.cooldown = scrollCooldownTicks
	case gotoTopMsg:
		m.vp.GoToTop()
		m.cooldown = scrollCooldownTicks
	case gotoBottomMsg:
		m.vp.GoToBottom()
		m.cooldown = scrollCooldownTicks

	case toggleTocMsg:
		m.tocVisible = !m.tocVisible
		if !m.tocVisible {
			m.tocFocused = false
		}
		m.reflow()
	case toggleTocFocusMsg:
		if !m.tocVisible {
			m.tocVisible = true
			m.reflow()
		}
		m.tocFocused = !m.tocFocused
	case tocUpMsg:
		if m.tocSelected > 0 {
			m.tocSelected--
		}
		m.scrollTOCIntoView()
	case tocDownMsg:
		if m.tocSelected < len(m.doc.Headings)-1 {
			m.tocSelected++
		}
		m.scrollTOCIntoView()
	case tocSelectMsg:
		if ev.index >= 0 && ev.index < len(m.doc.Headings) {
			m.tocSelected = ev.index
			m.vp.GoToLine(m.doc.Headings[ev.index].Line)
			m.cooldown = scrollCooldownTicks
		}

	case startSearchMsg:
		m.search.active = true
		m.search.query = ""
		m.search.matches = nil
		m.search.matchIndex = -1
	case searchInputMsg:
		m.search.query = ev.query
		if m.search.deferred {
			// Long documents search only on an explicit Enter.
			m.search.matches = nil
			m.search.matchIndex = -1
		} else if len([]rune(ev.query)) >= minLiveQuery {
			m.search.matchIndex = -1
			m.recomputeMatches()
		} else {
			m.search.matches = nil
			m.search.matchIndex = -1
		}
	case nextMatchMsg:
		if m.search.deferred && len(m.search.matches) == 0 {
			m.search.matchIndex = -1
			m.recomputeMatches()
		}
		m.stepMatch(1)
	case prevMatchMsg:
		if m.search.deferred && len(m.search.matches) == 0 {
			m.search.matchIndex = -1
			m.recomputeMatches()
		}
		m.stepMatch(-1)
	case clearSearchMsg:
		m.search = searchState{deferred: m.search.deferred, matchIndex: -1}

	case startSelectionMsg:
		m.sel = selection{state: selPending, anchor: ev.line, active: ev.line}
	case updateSelectionMsg:
		if m.sel.state == selPending || m.sel.state == selDragging {
			m.sel.state = selDragging
			m.sel.active = ev.line
		}
	case endSelectionMsg:
		if m.sel.state == selPending || m.sel.state == selDragging {
			m.sel.state = selFinalized
			m.sel.active = ev.line
		}
	case clearSelectionMsg:
		m.sel = selection{}

	case openVisibleLinksMsg:
		links := m.visibleLinks()
		switch {
		case len(links) == 0:
			m.toast = newToast(toastInfo, "no links on screen", now)
		case len(links) == 1:
			m.followLink(links[0], now, &res)
		default:
			if len(links) > 9 {
				links = links[:9]
			}
			m.linkPicker = links
		}
	case selectLinkMsg:
		if m.linkPicker != nil && ev.index >= 0 && ev.index < len(m.linkPicker) {
			m.followLink(m.linkPicker[ev.index], now, &res)
		}
		m.linkPicker = nil
	case cancelPickerMsg:
		m.linkPicker = nil
	case followLinkAtLineMsg:
		if link, ok := m.linkAtLine(ev.line); ok {
			m.followLink(link, now, &res)
		}
	case hoverLinkMsg:
		m.hoverLine = ev.line

	case toggleWatchMsg:
		if m.watching {
			m.disarmWatcher()
			m.toast = newToast(toastInfo, "watch off", now)
		} else {
			m.armWatcher()
			if m.watching {
				m.toast = newToast(toastInfo, "watch on", now)
			}
		}
	case forceReloadMsg:
		m.reload(now)
	case fileChangedMsg:
		m.reload(now)

	case toggleHelpMsg:
		m.helpOpen = !m.helpOpen
		if m.helpOpen && m.helpText == "" {
			m.helpText = renderHelp(m.palette)
		}

	case startEditorMsg:
		if m.kind == kindBinary {
			m.toast = newToast(toastWarn, "cannot edit binary files", now)
			break
		}
		m.editor = newEditor(m.source, m.vp.Width, m.vp.Height)
		m.editing = true
	case editorSaveMsg:
		value := m.editor.Value()
		if err := os.WriteFile(m.path, []byte(value), 0o644); err != nil {
			m.toast = newToast(toastError, fmt.Sprintf("save failed: %v", err), now)
			break
		}
		m.dirty = false
		m.setSource(value)
		m.imgs.Reset()
		m.layoutHeights = map[string]int{}
		m.reflow()
		m.toast = newToast(toastInfo, "saved", now)
	case editorCloseMsg:
		m.editing = false

	case resizeMsg:
		m.vp.Resize(ev.w, ev.h-1) // last row is the status bar
		m.reflow()
		m.resizePending = false

	case openLinkFailedMsg:
		m.handleOpenLinkFailed(ev, now)

	case quitMsg:
		if m.dirty && !m.quitConfirmed {
			m.quitConfirmed = true
			m.toast = newToast(toastWarn, "unsaved changes, press again to quit", now)
		} else {
			m.shouldQuit = true
		}
	}

	switch msg.(type) {
	case tocUpMsg, tocDownMsg, tocSelectMsg, toggleTocFocusMsg, hoverLinkMsg:
	default:
		m.syncTOCToViewport()
	}
	return res
}

// stepMatch advances the match cursor with wraparound and positions the
// viewport at the selected match line.
func (m *Model) stepMatch(dir int) {
	n := len(m.search.matches)
	if n == 0 {
		return
	}
	if m.search.matchIndex < 0 {
		if dir > 0 {
			m.search.matchIndex = 0
		} else {
			m.search.matchIndex = n - 1
		}
	} else {
		m.search.matchIndex = (m.search.matchIndex + dir + n) % n
	}
	m.vp.GoToLine(m.search.matches[m.search.matchIndex])
	m.cooldown = scrollCooldownTicks
}

// followLink resolves internal targets locally and hands external URLs
// back to the caller for the launcher.
func (m *Model) followLink(link document.LinkRef, now time.Time, res *applyResult) {
	switch {
	case len(link.URL) > 0 && link.URL[0] == '#':
		if line, ok := m.doc.ResolveAnchor(link.URL); ok {
			m.vp.GoToLine(line)
			m.cooldown = scrollCooldownTicks
		} else {
			m.toast = newToast(toastWarn, "unknown anchor "+link.URL, now)
		}
	case strings.HasPrefix(link.URL, "footnote:"):
		name := link.URL[len("footnote:"):]
		if line, ok := m.doc.FootnoteLine(name); ok {
			m.vp.GoToLine(line)
			m.cooldown = scrollCooldownTicks
		} else {
			m.toast = newToast(toastWarn, "unknown footnote "+name, now)
		}
	case strings.HasPrefix(link.URL, "mermaid://"):
		m.toast = newToast(toastInfo, "diagram placeholder", now)
	default:
		res.openURL = link.URL
	}
}
