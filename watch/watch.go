// Package watch provides file watching for configuration live reload.
//
// A Watcher monitors config files for modification and invokes reload
// handlers after an optional debounce window, so rapid editor writes
// collapse into one reparse.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	conflang "github.com/dshills/conflang"
)

// Watcher lifecycle errors.
var (
	ErrWatcherClosed   = errors.New("watch: watcher closed")
	ErrAlreadyWatching = errors.New("watch: path already watched")
	ErrPathNotExist    = errors.New("watch: path does not exist")
)

// Event represents a detected change to a watched file.
type Event struct {
	// Path is the absolute path to the changed file.
	Path string

	// Time is when the change was detected.
	Time time.Time
}

// Handler is called when a watched file changes.
type Handler func(event Event)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a change is reported.
// Changes arriving inside the window restart it.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// Watcher monitors individual files using fsnotify.
//
// The parent directory of each file is watched rather than the file
// itself, so editors that replace files by rename keep triggering
// events.
type Watcher struct {
	mu sync.Mutex

	fsw *fsnotify.Watcher

	// files holds watched absolute file paths.
	files map[string]bool

	// dirs refcounts fsnotify directory registrations.
	dirs map[string]int

	handlers []Handler
	debounce time.Duration
	timers   map[string]*time.Timer

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New creates a watcher and starts its event loop.
func New(opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		files:   make(map[string]bool),
		dirs:    make(map[string]int),
		timers:  make(map[string]*time.Timer),
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// OnChange registers a handler. Handlers run off the caller's
// goroutine and must not block indefinitely.
func (w *Watcher) OnChange(fn Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, fn)
}

// Add starts watching a file.
func (w *Watcher) Add(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return ErrPathNotExist
		}
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.files[absPath] {
		return ErrAlreadyWatching
	}

	dir := filepath.Dir(absPath)
	if w.dirs[dir] == 0 {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.files[absPath] = true
	return nil
}

// Remove stops watching a file. Removing an unwatched path is a no-op.
func (w *Watcher) Remove(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.files[absPath] {
		return nil
	}
	delete(w.files, absPath)

	if t, ok := w.timers[absPath]; ok {
		t.Stop()
		delete(w.timers, absPath)
	}

	dir := filepath.Dir(absPath)
	w.dirs[dir]--
	if w.dirs[dir] <= 0 {
		delete(w.dirs, dir)
		return w.fsw.Remove(dir)
	}
	return nil
}

// Close stops the watcher and waits for its loop to exit. Safe to
// call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for _, t := range w.timers {
		t.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			w.schedule(ev.Name)
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.closeCh:
			return
		}
	}
}

// schedule fires the change immediately or arms the debounce timer.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	if w.closed || !w.files[path] {
		w.mu.Unlock()
		return
	}
	if w.debounce <= 0 {
		w.mu.Unlock()
		w.fire(path)
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		closed := w.closed
		w.mu.Unlock()
		if !closed {
			w.fire(path)
		}
	})
	w.mu.Unlock()
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	fns := make([]Handler, len(w.handlers))
	copy(fns, w.handlers)
	w.mu.Unlock()

	ev := Event{Path: path, Time: time.Now()}
	for _, fn := range fns {
		fn(ev)
	}
}

// Reload returns a handler that reparses cfg on every change and
// passes the parse result to fn. fn may be nil.
func Reload(cfg *conflang.Config, fn func(conflang.Result)) Handler {
	return func(Event) {
		res := cfg.Parse()
		if fn != nil {
			fn(res)
		}
	}
}
