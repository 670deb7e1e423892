package manifest

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches one manifest file for external edits and calls onChange
// with the freshly reloaded Manifest, per spec.md §4.5's read-only-after-load
// contract extended with live-reload: resolution semantics don't change,
// only which Manifest a long-running process like `skill serve` resolves
// against. Read and parse errors in the edited file are dropped silently
// (onChange only fires for a Manifest that parsed successfully, and the
// caller is not told of a failed reload); Watcher never returns a parse
// error, so it does not tear down a
// running server over a transient, mid-save-edit file.
type Watcher struct {
	fsw      *fsnotify.Watcher
	path     string
	onChange func(*Manifest)

	mu      sync.Mutex
	timer   *time.Timer
	done    chan struct{}
	stopped bool
}

// NewWatcher watches path's containing directory (fsnotify watches
// directories more reliably across editors' save-via-rename behavior than
// watching the file itself) and calls onChange, debounced by 500ms,
// whenever path is recreated, written, or renamed into place and
// re-parses successfully.
func NewWatcher(path string, onChange func(*Manifest)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		path:     filepath.Clean(path),
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher and releases its fsnotify handle.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	return w.fsw.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) == w.path {
				w.schedule()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(500*time.Millisecond, w.reload)
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return
	}
	m, err := Parse(data)
	if err != nil {
		return
	}
	m.BaseDir = filepath.Dir(w.path)
	w.onChange(m)
}
