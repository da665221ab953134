// Package watch turns raw filesystem notifications on the control file into
// the two events the supervisor cares about: the file was written, or the
// file was removed. Bursts of writes are debounced into a single event.
package watch

import (
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period required before a burst of writes is
// surfaced as one Modified event.
const DefaultDebounce = 100 * time.Millisecond

// Kind classifies a control file notification.
type Kind int

const (
	// Modified means the control file was written to: a restart request.
	Modified Kind = iota
	// Removed means the control file was deleted: a quit request.
	Removed
)

// String renders the kind for logs.
func (k Kind) String() string {
	switch k {
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a classified, debounced control file notification.
type Event struct {
	Kind      Kind
	Path      string
	Timestamp time.Time
}

// Option adjusts watcher construction.
type Option func(*Watcher)

// WithDebounce overrides the write-coalescing window. Values <= 0 disable
// coalescing, surfacing every write immediately.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// Watcher watches a single control file, non-recursively. One background
// goroutine drains the OS notification stream; the owner consumes classified
// events through Poll.
type Watcher struct {
	path     string
	debounce time.Duration

	fsw    *fsnotify.Watcher
	events chan Event
	errs   chan error

	closeCh chan struct{}
	wg      sync.WaitGroup

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// Open attaches a watch to the control file at path. The file must already
// exist; the supervisor creates it before calling Open. Failure here is a
// startup error, not something the supervision loop can recover from.
func Open(path string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("init filesystem watcher: %w", err)
	}

	w := &Watcher{
		path:     path,
		debounce: DefaultDebounce,
		fsw:      fsw,
		events:   make(chan Event, 16),
		errs:     make(chan error, 16),
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}

	w.wg.Add(1)
	go w.processLoop()

	return w, nil
}

// Poll waits up to timeout for the next classified event. The second return
// value is false when the timeout lapses with nothing to report, or when the
// watcher has been closed. Timing out is the normal quiet-system case; the
// supervisor uses it as its child health-check cadence.
func (w *Watcher) Poll(timeout time.Duration) (Event, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case event := <-w.events:
		return event, true
	case <-timer.C:
		return Event{}, false
	case <-w.closeCh:
		return Event{}, false
	}
}

// Errors exposes transient notification errors. The consumer logs them and
// keeps polling; they never terminate the stream.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close detaches the watch and stops the background goroutine.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return
		case raw, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleRaw(raw)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		}
	}
}

// handleRaw classifies one OS notification. Writes (and creates, which some
// platforms report for an overwrite) restart the debounce timer. Removes and
// renames are terminal for the watched file and fire immediately, discarding
// any pending write: quit outranks restart. Everything else is noise.
func (w *Watcher) handleRaw(raw fsnotify.Event) {
	switch {
	case raw.Op.Has(fsnotify.Remove) || raw.Op.Has(fsnotify.Rename):
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		closed := w.closed
		w.mu.Unlock()
		if closed {
			return
		}
		w.sendEvent(Event{Kind: Removed, Path: w.path, Timestamp: time.Now()})
	case raw.Op.Has(fsnotify.Write) || raw.Op.Has(fsnotify.Create):
		w.scheduleModified()
	}
}

func (w *Watcher) scheduleModified() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.debounce <= 0 {
		w.sendEvent(Event{Kind: Modified, Path: w.path, Timestamp: time.Now()})
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.emitModified)
}

func (w *Watcher) emitModified() {
	w.mu.Lock()
	if w.closed || w.timer == nil {
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.mu.Unlock()
	w.sendEvent(Event{Kind: Modified, Path: w.path, Timestamp: time.Now()})
}

func (w *Watcher) sendEvent(event Event) {
	select {
	case w.events <- event:
	default:
		w.sendError(fmt.Errorf("event buffer full, dropping %s", event.Kind))
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errs <- err:
	default:
	}
}
