package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/marklessapp/markless/internal/config"
	"github.com/marklessapp/markless/internal/images"
	"github.com/marklessapp/markless/internal/theme"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.TrueColor)
	os.Exit(m.Run())
}

func testModel(t *testing.T, markdown string) *Model {
	t.Helper()
	path := filepath.Join(t.TempDir(), "doc.md")
	if err := os.WriteFile(path, []byte(markdown), 0o600); err != nil {
		t.Fatal(err)
	}
	picker := &images.Picker{Protocol: images.Halfblocks, CellW: 8, CellH: 16, TrueColor: true}
	m, err := New(path, config.Config{NoTOC: true}, theme.Dark(), picker)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func now() time.Time { return time.Unix(1000, 0) }

func longDoc(paragraphs int) string {
	var sb strings.Builder
	for i := 0; i < paragraphs; i++ {
		sb.WriteString("paragraph text\n\n")
	}
	return sb.String()
}

func TestOffsetStaysClampedAfterAnyMessage(t *testing.T) {
	m := testModel(t, longDoc(100))
	msgs := []interface{}{
		scrollMsg{lines: 100000},
		scrollMsg{lines: -100000},
		pageMsg{down: true},
		halfPageMsg{down: true},
		gotoBottomMsg{},
		gotoTopMsg{},
		resizeMsg{w: 40, h: 12},
		resizeMsg{w: 200, h: 60},
	}
	for _, msg := range msgs {
		m.apply(msg, now())
		max := m.vp.TotalLines - m.vp.Height
		if max < 0 {
			max = 0
		}
		if m.vp.Offset < 0 || m.vp.Offset > max {
			t.Fatalf("after %T: offset %d outside [0,%d]", msg, m.vp.Offset, max)
		}
	}
}

func TestNavigationBumpsScrollCooldown(t *testing.T) {
	m := testModel(t, longDoc(50))
	m.apply(scrollMsg{lines: 1}, now())
	if m.cooldown != scrollCooldownTicks {
		t.Fatalf("cooldown = %d, want %d", m.cooldown, scrollCooldownTicks)
	}
}

func TestResizeUsesHeightMinusOne(t *testing.T) {
	m := testModel(t, longDoc(50))
	m.apply(resizeMsg{w: 100, h: 40}, now())
	if m.vp.Width != 100 || m.vp.Height != 39 {
		t.Fatalf("viewport = %dx%d, want 100x39 (status row reserved)", m.vp.Width, m.vp.Height)
	}
	if m.doc.LayoutWidth() != m.contentWidth() {
		t.Errorf("document not reflowed to content width")
	}
}

func TestSearchScenario(t *testing.T) {
	m := testModel(t, "alpha\n\nbeta\n\nalpha again")
	m.apply(startSearchMsg{}, now())
	m.apply(searchInputMsg{query: "alpha"}, now())

	if len(m.search.matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(m.search.matches))
	}
	if m.search.matchIndex != 0 {
		t.Fatalf("match index after input = %d, want 0", m.search.matchIndex)
	}
	if m.vp.Offset != 0 {
		t.Fatalf("offset after input = %d, want 0", m.vp.Offset)
	}

	m.apply(nextMatchMsg{}, now())
	if m.search.matchIndex != 1 {
		t.Fatalf("match index after next = %d, want 1", m.search.matchIndex)
	}
	m.apply(nextMatchMsg{}, now())
	if m.search.matchIndex != 0 {
		t.Fatalf("match index did not wrap: %d", m.search.matchIndex)
	}
}

func TestShortQueryStaysInert(t *testing.T) {
	m := testModel(t, "alpha\n\nalpha\n")
	m.apply(startSearchMsg{}, now())
	m.apply(searchInputMsg{query: "al"}, now())
	if len(m.search.matches) != 0 {
		t.Errorf("two-rune query produced matches: %v", m.search.matches)
	}
}

func TestDeferredSearchWaitsForEnter(t *testing.T) {
	m := testModel(t, longDoc(6000)) // > 10000 rendered lines
	if !m.search.deferred {
		t.Fatalf("document of %d lines not deferred", m.vp.TotalLines)
	}
	m.apply(startSearchMsg{}, now())
	m.apply(searchInputMsg{query: "paragraph"}, now())
	if len(m.search.matches) != 0 {
		t.Fatalf("deferred search ran on keystroke")
	}
	m.apply(nextMatchMsg{}, now())
	if len(m.search.matches) == 0 {
		t.Fatalf("Enter did not run the deferred search")
	}
}

func TestClearSearchDropsState(t *testing.T) {
	m := testModel(t, "alpha beta alpha\n")
	m.apply(startSearchMsg{}, now())
	m.apply(searchInputMsg{query: "alpha"}, now())
	m.apply(clearSearchMsg{}, now())
	if m.search.active || m.search.query != "" || m.search.matches != nil {
		t.Errorf("search state survives clear: %+v", m.search)
	}
}

func TestSelectionTransitions(t *testing.T) {
	m := testModel(t, longDoc(20))
	m.apply(startSelectionMsg{line: 3}, now())
	if m.sel.state != selPending || m.sel.anchor != 3 || m.sel.active != 3 {
		t.Fatalf("after start: %+v", m.sel)
	}
	m.apply(updateSelectionMsg{line: 7}, now())
	if m.sel.state != selDragging || m.sel.anchor != 3 || m.sel.active != 7 {
		t.Fatalf("after update: %+v", m.sel)
	}
	m.apply(endSelectionMsg{line: 9}, now())
	if m.sel.state != selFinalized || m.sel.active != 9 {
		t.Fatalf("after end: %+v", m.sel)
	}
	m.apply(clearSelectionMsg{}, now())
	if m.sel.state != selNone {
		t.Fatalf("after clear: %+v", m.sel)
	}
}

func TestTOCSyncsToViewport(t *testing.T) {
	src := "# First\n\n" + longDoc(30) + "# Second\n\n" + longDoc(30) + "# Third\n"
	m := testModel(t, src)
	m.apply(toggleTocMsg{}, now())
	if !m.tocVisible {
		t.Fatal("toc not visible after toggle")
	}
	m.apply(resizeMsg{w: 120, h: 20}, now())

	second := m.doc.Headings[1].Line
	m.vp.GoToLine(second)
	m.apply(scrollMsg{lines: 0}, now())
	if m.tocSelected != 1 {
		t.Fatalf("toc selection = %d, want 1 (closest to offset %d)", m.tocSelected, m.vp.Offset)
	}

	// TOC navigation itself must not trigger the auto-sync.
	m.apply(tocUpMsg{}, now())
	if m.tocSelected != 0 {
		t.Fatalf("tocUp did not move selection: %d", m.tocSelected)
	}
}

func TestToggleTocReflows(t *testing.T) {
	m := testModel(t, longDoc(5))
	before := m.doc.LayoutWidth()
	m.apply(toggleTocMsg{}, now())
	after := m.doc.LayoutWidth()
	if before == after {
		t.Errorf("layout width unchanged by TOC toggle: %d", before)
	}
}

func TestQuitConfirmationOnDirtyEditor(t *testing.T) {
	m := testModel(t, "text\n")
	m.dirty = true
	m.apply(quitMsg{}, now())
	if m.shouldQuit {
		t.Fatalf("quit on first press with dirty buffer")
	}
	if !m.quitConfirmed {
		t.Fatalf("first quit did not arm confirmation")
	}
	// Any unrelated message resets the confirmation.
	m.apply(scrollMsg{lines: 1}, now())
	if m.quitConfirmed {
		t.Fatalf("confirmation survived an unrelated message")
	}
	m.apply(quitMsg{}, now())
	m.apply(quitMsg{}, now())
	if !m.shouldQuit {
		t.Fatalf("second consecutive quit did not quit")
	}
}

func TestQuitImmediateWhenClean(t *testing.T) {
	m := testModel(t, "text\n")
	m.apply(quitMsg{}, now())
	if !m.shouldQuit {
		t.Fatalf("clean quit required confirmation")
	}
}

func TestFollowInternalAnchor(t *testing.T) {
	m := testModel(t, "see [intro](#intro)\n\n"+longDoc(40)+"# Intro\n\nbody\n")
	m.apply(resizeMsg{w: 80, h: 10}, now())
	var res applyResult
	link, ok := m.linkAtLine(m.doc.Links[0].Line)
	if !ok {
		t.Fatal("anchor link not found")
	}
	m.followLink(link, now(), &res)
	if res.openURL != "" {
		t.Errorf("internal anchor escaped to launcher: %q", res.openURL)
	}
	headingLine := m.doc.Headings[0].Line
	if m.vp.Offset == 0 || m.vp.Offset > headingLine {
		t.Errorf("offset = %d, want jump toward line %d", m.vp.Offset, headingLine)
	}
}

func TestFollowExternalLinkRequestsLauncher(t *testing.T) {
	m := testModel(t, "go [there](https://example.com)\n")
	var res applyResult
	m.followLink(m.doc.Links[0], now(), &res)
	if res.openURL != "https://example.com" {
		t.Errorf("openURL = %q", res.openURL)
	}
}

func TestLinkPickerFlow(t *testing.T) {
	m := testModel(t, "[a](https://a.example)\n\n[b](https://b.example)\n\n[c](https://c.example)\n")
	m.apply(openVisibleLinksMsg{}, now())
	if len(m.linkPicker) != 3 {
		t.Fatalf("picker = %d entries, want 3", len(m.linkPicker))
	}
	res := m.apply(selectLinkMsg{index: 1}, now())
	if res.openURL != "https://b.example" {
		t.Errorf("selected url = %q", res.openURL)
	}
	if m.linkPicker != nil {
		t.Errorf("picker still open after selection")
	}
}

func TestReloadKeepsDocumentOnReadError(t *testing.T) {
	m := testModel(t, "# Title\n\nbody\n")
	lines := m.vp.TotalLines
	os.Remove(m.path)
	m.apply(forceReloadMsg{}, now())
	if m.vp.TotalLines != lines {
		t.Errorf("document replaced despite failed reload")
	}
	if m.toast == nil || m.toast.level != toastError {
		t.Errorf("no error toast after failed reload")
	}
}
