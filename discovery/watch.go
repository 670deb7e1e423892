package discovery

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher pushes filesystem change notifications for a set of skill
// directories through fsnotify rather than Cache.ToolRecords' lazy,
// poll-on-access revalidation: a SKILL.md edit or a freshly-built .wasm
// artifact triggers onChange almost immediately instead of waiting for the
// next lookup or reindex-cron tick.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func()
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	done    chan struct{}
	stopped bool
}

// NewWatcher creates a Watcher over dirs, calling onChange (debounced by
// debounce) whenever a SKILL.md or *.wasm file under one of them is
// created, written, renamed, or removed. If debounce is zero it defaults
// to 500ms, absorbing the burst of events a single `go build`-style
// artifact replacement produces.
func NewWatcher(dirs []string, onChange func(), debounce time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	w := &Watcher{
		fsw:      fsw,
		onChange: onChange,
		debounce: debounce,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Close stops the watcher and releases its underlying fsnotify handle.
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
			if relevant(event.Name) {
				w.schedule()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// schedule coalesces a burst of events into a single onChange call fired
// debounce after the last relevant event.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func relevant(name string) bool {
	base := filepath.Base(name)
	return base == "SKILL.md" || strings.HasSuffix(base, ".wasm")
}
