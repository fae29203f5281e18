package app

import "time"

// Messages are the full input taxonomy of the update function. Terminal
// events are translated to these by the key/mouse mapping; timers and the
// watcher pump inject the rest.

// Navigation.
type scrollMsg struct{ lines int } // negative scrolls up
type pageMsg struct{ down bool }
type halfPageMsg struct{ down bool }
type gotoTopMsg struct{}
type gotoBottomMsg struct{}

// TOC.
type toggleTocMsg struct{}
type toggleTocFocusMsg struct{}
type tocUpMsg struct{}
type tocDownMsg struct{}
type tocSelectMsg struct{ index int }

// Search.
type startSearchMsg struct{}
type searchInputMsg struct{ query string }
type nextMatchMsg struct{}
type prevMatchMsg struct{}
type clearSearchMsg struct{}

// Selection.
type startSelectionMsg struct{ line int }
type updateSelectionMsg struct{ line int }
type endSelectionMsg struct{ line int }
type clearSelectionMsg struct{}

// Link follow.
type openVisibleLinksMsg struct{}
type selectLinkMsg struct{ index int }
type cancelPickerMsg struct{}
type followLinkAtLineMsg struct{ line int }
type hoverLinkMsg struct{ line int } // line -1 clears the hover bar

// Watch / reload.
type toggleWatchMsg struct{}
type forceReloadMsg struct{}
type fileChangedMsg struct{}

// Help and editor.
type toggleHelpMsg struct{}
type startEditorMsg struct{}
type editorSaveMsg struct{}
type editorCloseMsg struct{}

// Resize, after debouncing.
type resizeMsg struct{ w, h int }

// Quit.
type quitMsg struct{}

// tickMsg drives cooldown decay, toast expiry, debounced resize
// application, and the watcher drain.
type tickMsg time.Time
