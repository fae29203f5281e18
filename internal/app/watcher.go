package app

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/marklessapp/markless/internal/logging"
)

var watchLog = logging.New("watcher")

// watchQuietPeriod is how long the file must stay quiet after the last
// write before a reload triggers; editors often write in bursts.
const watchQuietPeriod = 200 * time.Millisecond

// fileWatcher watches the target file's parent directory and filters
// events to the target name. The fsnotify pump is the only goroutine
// outside the event loop; it communicates solely through the guarded
// dirty flag drained by TakeChangeReady.
type fileWatcher struct {
	fw     *fsnotify.Watcher
	target string

	mu        sync.Mutex
	dirty     bool
	lastEvent time.Time
}

func newFileWatcher(path string) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, err
	}
	w := &fileWatcher{fw: fw, target: filepath.Base(abs)}
	go w.pump()
	return w, nil
}

func (w *fileWatcher) pump() {
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != w.target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			w.dirty = true
			w.lastEvent = time.Now()
			w.mu.Unlock()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			watchLog.Warn("watch error", "err", err)
		}
	}
}

// TakeChangeReady reports a pending change once it has been quiet for the
// debounce period, and clears it.
func (w *fileWatcher) TakeChangeReady(now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.dirty || now.Sub(w.lastEvent) < watchQuietPeriod {
		return false
	}
	w.dirty = false
	return true
}

func (w *fileWatcher) Close() {
	w.fw.Close()
}
