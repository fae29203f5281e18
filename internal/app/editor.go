package app

import (
	tea "github.com/charmbracelet/bubbletea"
)

// updateEditor routes keys while the in-place editor is open. Ctrl+S
// saves, Esc closes without saving (the dirty flag survives so quitting
// still asks for confirmation).
func (m *Model) updateEditor(ev tea.KeyMsg) tea.Cmd {
	switch ev.String() {
	case "ctrl+s":
		_, cmd := m.dispatch(editorSaveMsg{})
		return cmd
	case "esc":
		_, cmd := m.dispatch(editorCloseMsg{})
		return cmd
	case "ctrl+c":
		_, cmd := m.dispatch(quitMsg{})
		return cmd
	}
	before := m.editor.Value()
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(ev)
	if m.editor.Value() != before {
		m.dirty = true
	}
	return cmd
}
