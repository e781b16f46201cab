// Package watch owns filesystem watching for detection record files: raw
// fsnotify events are routed to a per-path debouncer, and settled changes
// are handed to a Handler.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ashgrove-ml/thermalwatch/internal/layout"
	"github.com/ashgrove-ml/thermalwatch/internal/observe"
)

// Lifecycle misuse errors, surfaced directly to the caller.
var (
	ErrAlreadyRunning = errors.New("watch: already running")
	ErrNotRunning     = errors.New("watch: not running")
)

// rearmInterval paces retries when a watched directory disappears and we
// wait for it to be recreated.
const rearmInterval = 500 * time.Millisecond

// Handler consumes settled file changes and removals. Both methods may be
// called from timer and event-loop goroutines and must be concurrency-safe.
type Handler interface {
	// FileSettled reports that a record file's content has stabilized.
	FileSettled(path string)
	// FileRemoved reports that a record file was deleted or renamed away.
	FileRemoved(path string)
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithQuietWindow sets the debounce quiet period. Default: 750ms.
func WithQuietWindow(d time.Duration) Option {
	return func(s *Supervisor) { s.quiet = d }
}

// WithNotifier sets the lifecycle event notifier. Default: slog.
func WithNotifier(n observe.Notifier) Option {
	return func(s *Supervisor) { s.notifier = n }
}

// Supervisor owns the watch registration over one or more directories and
// the table of live per-path debouncers. All watch state lives here; there
// is no package-level state, so Stop leaves nothing behind.
type Supervisor struct {
	handler  Handler
	quiet    time.Duration
	notifier observe.Notifier

	mu         sync.Mutex
	running    bool
	fw         *fsnotify.Watcher
	dirs       []string
	debouncers map[string]*debouncer
	done       chan struct{}
	wg         sync.WaitGroup
}

// NewSupervisor creates a stopped Supervisor delivering settled changes to
// handler.
func NewSupervisor(handler Handler, opts ...Option) *Supervisor {
	s := &Supervisor{
		handler:  handler,
		quiet:    750 * time.Millisecond,
		notifier: observe.NewSlog(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins watching the given directories for *_detections.json changes.
// Returns ErrAlreadyRunning if called on a running Supervisor.
func (s *Supervisor) Start(dirs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrAlreadyRunning
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: create watcher: %w", err)
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return fmt.Errorf("watch: add %s: %w", dir, err)
		}
	}

	s.fw = fw
	s.dirs = append([]string(nil), dirs...)
	s.debouncers = make(map[string]*debouncer)
	s.done = make(chan struct{})
	s.running = true

	s.wg.Add(1)
	go s.loop(fw)

	s.notifier.Notify(observe.Event{Kind: observe.WatcherStarted})
	return nil
}

// Stop halts event delivery, cancels pending debounces, and releases the
// watch handles. No watcher goroutine survives its return. Returns
// ErrNotRunning on a stopped Supervisor.
func (s *Supervisor) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return ErrNotRunning
	}
	s.running = false
	close(s.done)
	fw := s.fw
	s.fw = nil
	for _, d := range s.debouncers {
		d.Stop()
	}
	s.debouncers = nil
	s.mu.Unlock()

	fw.Close()
	s.wg.Wait()

	s.notifier.Notify(observe.Event{Kind: observe.WatcherStopped})
	return nil
}

// loop drains fsnotify events until the watcher closes.
func (s *Supervisor) loop(fw *fsnotify.Watcher) {
	defer s.wg.Done()
	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			s.handleEvent(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Warn("watch: event stream error", "error", err)
		case <-s.done:
			return
		}
	}
}

func (s *Supervisor) handleEvent(ev fsnotify.Event) {
	if s.isWatchedDir(ev.Name) {
		if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			// The watched directory itself went away; wait for recreation.
			s.wg.Add(1)
			go s.rearm(ev.Name)
		}
		return
	}
	if !layout.IsRecordPath(ev.Name) {
		return
	}

	switch {
	case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		s.evict(ev.Name)
		s.handler.FileRemoved(ev.Name)
	case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
		s.bump(ev.Name)
	}
}

// bump routes a raw change to the path's debouncer, creating it on first use.
func (s *Supervisor) bump(path string) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	d, ok := s.debouncers[path]
	if !ok {
		d = newDebouncer(s.quiet, func() { s.handler.FileSettled(path) })
		s.debouncers[path] = d
	}
	s.mu.Unlock()

	d.Bump()
}

// evict drops the debouncer for a deleted file so the table does not grow
// without bound.
func (s *Supervisor) evict(path string) {
	s.mu.Lock()
	if d, ok := s.debouncers[path]; ok {
		d.Stop()
		delete(s.debouncers, path)
	}
	s.mu.Unlock()
}

func (s *Supervisor) isWatchedDir(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dir := range s.dirs {
		if name == dir {
			return true
		}
	}
	return false
}

// rearm polls for a removed watch directory to reappear and re-adds it.
func (s *Supervisor) rearm(dir string) {
	defer s.wg.Done()
	ticker := time.NewTicker(rearmInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if _, err := os.Stat(dir); err != nil {
				continue
			}
			s.mu.Lock()
			fw := s.fw
			running := s.running
			s.mu.Unlock()
			if !running || fw == nil {
				return
			}
			if err := fw.Add(dir); err != nil {
				slog.Warn("watch: re-arm failed", "dir", dir, "error", err)
				continue
			}
			slog.Info("watch: re-armed directory", "dir", dir)
			return
		}
	}
}
