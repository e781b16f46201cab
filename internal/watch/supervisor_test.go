package watch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ashgrove-ml/thermalwatch/internal/observe"
)

type recordingHandler struct {
	mu       sync.Mutex
	settled  []string
	removed  []string
	settleCh chan string
	removeCh chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{
		settleCh: make(chan string, 16),
		removeCh: make(chan string, 16),
	}
}

func (h *recordingHandler) FileSettled(path string) {
	h.mu.Lock()
	h.settled = append(h.settled, path)
	h.mu.Unlock()
	h.settleCh <- path
}

func (h *recordingHandler) FileRemoved(path string) {
	h.mu.Lock()
	h.removed = append(h.removed, path)
	h.mu.Unlock()
	h.removeCh <- path
}

func (h *recordingHandler) settleCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.settled)
}

func startSupervisor(t *testing.T, dir string, h Handler) *Supervisor {
	t.Helper()
	s := NewSupervisor(h,
		WithQuietWindow(100*time.Millisecond),
		WithNotifier(observe.Nop{}),
	)
	if err := s.Start([]string{dir}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { s.Stop() })
	return s
}

func waitFor(t *testing.T, ch chan string, what string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
		return ""
	}
}

func TestSettleAfterBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	h := newRecordingHandler()
	startSupervisor(t, dir, h)

	path := filepath.Join(dir, "test_detections.json")
	// Several rapid writes, the way an editor save shows up.
	for i := 0; i < 4; i++ {
		if err := os.WriteFile(path, []byte(fmt.Sprintf(`{"rev": %d}`, i)), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	got := waitFor(t, h.settleCh, "settle signal")
	if got != path {
		t.Errorf("settled path = %q, want %q", got, path)
	}

	// The burst coalesces into exactly one settle.
	time.Sleep(300 * time.Millisecond)
	if n := h.settleCount(); n != 1 {
		t.Errorf("got %d settle signals, want 1", n)
	}
}

func TestIgnoresNonRecordFiles(t *testing.T) {
	dir := t.TempDir()
	h := newRecordingHandler()
	startSupervisor(t, dir, h)

	for _, name := range []string{"notes.txt", "test.json", "test_boxed.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}

	time.Sleep(400 * time.Millisecond)
	if n := h.settleCount(); n != 0 {
		t.Errorf("got %d settle signals for non-record files, want 0", n)
	}
}

func TestRemoveEvictsAndSignals(t *testing.T) {
	dir := t.TempDir()
	h := newRecordingHandler()
	s := startSupervisor(t, dir, h)

	path := filepath.Join(dir, "gone_detections.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	waitFor(t, h.settleCh, "settle signal")

	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	got := waitFor(t, h.removeCh, "remove signal")
	if got != path {
		t.Errorf("removed path = %q, want %q", got, path)
	}

	s.mu.Lock()
	_, present := s.debouncers[path]
	s.mu.Unlock()
	if present {
		t.Error("debouncer for deleted path not evicted")
	}
}

func TestLifecycleMisuse(t *testing.T) {
	dir := t.TempDir()
	s := NewSupervisor(newRecordingHandler(),
		WithQuietWindow(50*time.Millisecond),
		WithNotifier(observe.Nop{}),
	)

	if err := s.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("Stop before Start = %v, want ErrNotRunning", err)
	}
	if err := s.Start([]string{dir}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Start([]string{dir}); !errors.Is(err, ErrAlreadyRunning) {
		t.Errorf("second Start = %v, want ErrAlreadyRunning", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := s.Stop(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("second Stop = %v, want ErrNotRunning", err)
	}

	// Start/Stop cycles are allowed; no state leaks across sessions.
	if err := s.Start([]string{dir}); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop after restart: %v", err)
	}
}

func TestNoDeliveryAfterStop(t *testing.T) {
	dir := t.TempDir()
	h := newRecordingHandler()
	s := NewSupervisor(h,
		WithQuietWindow(50*time.Millisecond),
		WithNotifier(observe.Nop{}),
	)
	if err := s.Start([]string{dir}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	path := filepath.Join(dir, "late_detections.json")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	// Stop before the quiet window elapses: the pending settle must die
	// with the supervisor.
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	time.Sleep(200 * time.Millisecond)
	if n := h.settleCount(); n != 0 {
		t.Errorf("got %d settle signals after Stop, want 0", n)
	}
}

func TestRearmAfterDirRecreation(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "json")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	h := newRecordingHandler()
	startSupervisor(t, dir, h)

	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	time.Sleep(100 * time.Millisecond)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("recreate: %v", err)
	}

	// Keep writing until the re-armed watch picks one up.
	path := filepath.Join(dir, "back_detections.json")
	deadline := time.After(5 * time.Second)
	for {
		if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		select {
		case <-h.settleCh:
			return
		case <-deadline:
			t.Fatal("watch never re-armed after directory recreation")
		case <-time.After(300 * time.Millisecond):
		}
	}
}
