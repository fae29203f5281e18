package app

import (
	"os/exec"
	"runtime"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marklessapp/markless/internal/document"
)

// visibleLinks returns the links whose lines are currently on screen, in
// document order.
func (m *Model) visibleLinks() []document.LinkRef {
	start, end := m.vp.VisibleRange()
	var out []document.LinkRef
	for _, link := range m.doc.Links {
		if link.Line >= start && link.Line < end {
			out = append(out, link)
		}
	}
	return out
}

// linkAtLine finds the first link anchored to the given line; image
// placeholder rows carry a link on their first row, making them clickable.
func (m *Model) linkAtLine(line int) (document.LinkRef, bool) {
	for _, link := range m.doc.Links {
		if link.Line == line {
			return link, true
		}
	}
	for _, img := range m.doc.Images {
		if line >= img.Start && line < img.End {
			for _, link := range m.doc.Links {
				if link.Line == img.Start {
					return link, true
				}
			}
		}
	}
	return document.LinkRef{}, false
}

// openLinkCmd spawns the platform launcher for an external URL. Failures
// surface as a toast, never as a loop abort.
func (m *Model) openLinkCmd(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "windows":
			cmd = exec.Command("cmd", "/C", "start", "", url)
		default:
			cmd = exec.Command("xdg-open", url)
		}
		if err := cmd.Start(); err != nil {
			appLog.Warn("open link failed", "url", url, "err", err)
			return openLinkFailedMsg{url: url}
		}
		return nil
	}
}

type openLinkFailedMsg struct{ url string }

func (m *Model) handleOpenLinkFailed(ev openLinkFailedMsg, now time.Time) {
	m.toast = newToast(toastError, "could not open "+ev.url, now)
}
