// Package observe defines the structured event surface emitted by the watch
// and regeneration subsystems.
package observe

import (
	"log/slog"
	"time"
)

// Kind identifies an event class.
type Kind string

const (
	RegenerationStarted   Kind = "regeneration_started"
	RegenerationSucceeded Kind = "regeneration_succeeded"
	RegenerationFailed    Kind = "regeneration_failed"
	WatcherStarted        Kind = "watcher_started"
	WatcherStopped        Kind = "watcher_stopped"
)

// Event is one structured observation. Path is empty for watcher lifecycle
// events; Reason and Err are set only on failures.
type Event struct {
	Kind    Kind
	Path    string
	Reason  string // failure class (malformed_json, source_image_missing, ...)
	Err     error
	Elapsed time.Duration
}

// Notifier receives events. Implementations must be safe for concurrent use;
// regenerations for distinct paths report from separate goroutines.
type Notifier interface {
	Notify(Event)
}

// SlogNotifier logs events through a slog.Logger.
type SlogNotifier struct {
	log *slog.Logger
}

// NewSlog creates a SlogNotifier. A nil logger uses slog.Default.
func NewSlog(log *slog.Logger) *SlogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &SlogNotifier{log: log}
}

func (n *SlogNotifier) Notify(e Event) {
	attrs := []any{"path", e.Path}
	if e.Elapsed > 0 {
		attrs = append(attrs, "elapsed", e.Elapsed)
	}
	switch e.Kind {
	case RegenerationFailed:
		attrs = append(attrs, "reason", e.Reason, "error", e.Err)
		n.log.Warn(string(e.Kind), attrs...)
	case RegenerationStarted:
		n.log.Debug(string(e.Kind), attrs...)
	default:
		n.log.Info(string(e.Kind), attrs...)
	}
}

// Multi fans out events to multiple notifiers. Each Notify call delivers
// the event to every wrapped notifier sequentially.
type Multi struct {
	notifiers []Notifier
}

// NewMulti creates a Multi that fans out to the given notifiers.
func NewMulti(notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers}
}

func (m *Multi) Notify(e Event) {
	for _, n := range m.notifiers {
		n.Notify(e)
	}
}

// Nop discards all events.
type Nop struct{}

func (Nop) Notify(Event) {}
