package app

import (
	tea "github.com/charmbracelet/bubbletea"
)

// wheelLines is how many lines one mouse-wheel notch scrolls.
const wheelLines = 3

// mapKey translates a key press into a message under the mode precedence
// help > link-picker > search > TOC-focus > normal. It is a pure function
// of the event and the model.
func (m *Model) mapKey(ev tea.KeyMsg) tea.Msg {
	if m.helpOpen {
		return toggleHelpMsg{}
	}
	if m.linkPicker != nil {
		if r := singleRune(ev); r >= '1' && r <= '9' {
			return selectLinkMsg{index: int(r - '1')}
		}
		return cancelPickerMsg{}
	}
	if m.search.active {
		return m.mapSearchKey(ev)
	}
	if m.tocFocused {
		if msg := m.mapTocKey(ev); msg != nil {
			return msg
		}
	}
	return m.mapNormalKey(ev)
}

func (m *Model) mapSearchKey(ev tea.KeyMsg) tea.Msg {
	switch ev.Type {
	case tea.KeyEscape:
		return clearSearchMsg{}
	case tea.KeyEnter:
		return nextMatchMsg{}
	case tea.KeyBackspace:
		q := []rune(m.search.query)
		if len(q) == 0 {
			return clearSearchMsg{}
		}
		return searchInputMsg{query: string(q[:len(q)-1])}
	case tea.KeyRunes:
		return searchInputMsg{query: m.search.query + string(ev.Runes)}
	case tea.KeySpace:
		return searchInputMsg{query: m.search.query + " "}
	case tea.KeyUp:
		return prevMatchMsg{}
	case tea.KeyDown:
		return nextMatchMsg{}
	}
	return nil
}

func (m *Model) mapTocKey(ev tea.KeyMsg) tea.Msg {
	switch ev.String() {
	case "j", "down":
		return tocDownMsg{}
	case "k", "up":
		return tocUpMsg{}
	case "enter":
		return tocSelectMsg{index: m.tocSelected}
	case "g", "home":
		return tocSelectFirstMsg()
	case "G", "end":
		return tocSelectLastMsg(m)
	case "tab":
		return toggleTocFocusMsg{}
	case "t":
		return toggleTocMsg{}
	}
	// Everything else falls through to the normal map so search, quit,
	// and reload stay reachable while the TOC is focused.
	return nil
}

func tocSelectFirstMsg() tea.Msg {
	return tocSelectMsg{index: 0}
}

func tocSelectLastMsg(m *Model) tea.Msg {
	return tocSelectMsg{index: len(m.doc.Headings) - 1}
}

func (m *Model) mapNormalKey(ev tea.KeyMsg) tea.Msg {
	switch ev.String() {
	case "j", "down":
		return scrollMsg{lines: 1}
	case "k", "up":
		return scrollMsg{lines: -1}
	case " ", "pgdown":
		return pageMsg{down: true}
	case "b", "pgup":
		return pageMsg{down: false}
	case "ctrl+d":
		return halfPageMsg{down: true}
	case "ctrl+u":
		return halfPageMsg{down: false}
	case "g", "home":
		return gotoTopMsg{}
	case "G", "end":
		return gotoBottomMsg{}
	case "/":
		return startSearchMsg{}
	case "n":
		return nextMatchMsg{}
	case "N":
		return prevMatchMsg{}
	case "o":
		return openVisibleLinksMsg{}
	case "t":
		return toggleTocMsg{}
	case "T":
		return toggleTocFocusMsg{}
	case "tab":
		return toggleTocFocusMsg{}
	case "w":
		return toggleWatchMsg{}
	case "r", "R":
		return forceReloadMsg{}
	case "?", "f1":
		return toggleHelpMsg{}
	case "e":
		return startEditorMsg{}
	case "esc":
		if m.sel.state != selNone {
			return clearSelectionMsg{}
		}
		if m.search.query != "" {
			return clearSearchMsg{}
		}
		return nil
	case "q", "ctrl+c":
		return quitMsg{}
	}
	return nil
}

// mapMouse translates mouse events. Clicks in the TOC column select
// headings; clicks in the document area follow links or start a
// selection drag; the wheel scrolls three lines.
func (m *Model) mapMouse(ev tea.MouseMsg) tea.Msg {
	switch ev.Button {
	case tea.MouseButtonWheelUp:
		return scrollMsg{lines: -wheelLines}
	case tea.MouseButtonWheelDown:
		return scrollMsg{lines: wheelLines}
	}

	inTOC := m.tocVisible && ev.X < m.tocWidth()
	switch ev.Action {
	case tea.MouseActionPress:
		if ev.Button != tea.MouseButtonLeft {
			return nil
		}
		if m.linkPicker != nil {
			return cancelPickerMsg{}
		}
		if inTOC {
			idx := m.tocScroll + ev.Y
			if idx >= 0 && idx < len(m.doc.Headings) {
				return tocSelectMsg{index: idx}
			}
			return nil
		}
		line, ok := m.docLineAt(ev.Y)
		if !ok {
			return nil
		}
		if _, isLink := m.linkAtLine(line); isLink {
			return followLinkAtLineMsg{line: line}
		}
		return startSelectionMsg{line: line}
	case tea.MouseActionMotion:
		if ev.Button == tea.MouseButtonLeft {
			if line, ok := m.docLineAt(ev.Y); ok {
				return updateSelectionMsg{line: line}
			}
			return nil
		}
		if !inTOC {
			if line, ok := m.docLineAt(ev.Y); ok {
				if _, isLink := m.linkAtLine(line); isLink {
					return hoverLinkMsg{line: line}
				}
			}
		}
		if m.hoverLine != -1 {
			return hoverLinkMsg{line: -1}
		}
		return nil
	case tea.MouseActionRelease:
		if m.sel.state == selPending || m.sel.state == selDragging {
			if line, ok := m.docLineAt(ev.Y); ok {
				return endSelectionMsg{line: line}
			}
			return endSelectionMsg{line: m.sel.active}
		}
	}
	return nil
}

// docLineAt maps a frame row to a document line index.
func (m *Model) docLineAt(y int) (int, bool) {
	if y < 0 || y >= m.vp.Height {
		return 0, false
	}
	line := m.vp.Offset + y
	if line >= m.vp.TotalLines {
		return 0, false
	}
	return line, true
}

func singleRune(ev tea.KeyMsg) rune {
	if ev.Type == tea.KeyRunes && len(ev.Runes) == 1 {
		return ev.Runes[0]
	}
	return 0
}
