// Package regen turns settled record changes into regenerated artifacts. It
// enforces at-most-one in-flight regeneration per path, supersedes stale
// attempts, and publishes artifacts atomically so readers never observe a
// partial write.
package regen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ashgrove-ml/thermalwatch/internal/imgio"
	"github.com/ashgrove-ml/thermalwatch/internal/layout"
	"github.com/ashgrove-ml/thermalwatch/internal/model"
	"github.com/ashgrove-ml/thermalwatch/internal/observe"
	"github.com/ashgrove-ml/thermalwatch/internal/render"
	"github.com/ashgrove-ml/thermalwatch/internal/schema"
)

var (
	// ErrSourceImageMissing: the record references an image that is absent.
	ErrSourceImageMissing = errors.New("source image missing")
	// ErrWriteFailure: an artifact could not be published, after one retry.
	ErrWriteFailure = errors.New("artifact write failure")
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithWorkers bounds concurrent regenerations. Default: GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithNotifier sets the observability sink. Default: slog.
func WithNotifier(n observe.Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithPalette overrides the render palette.
func WithPalette(p render.Palette) Option {
	return func(o *Orchestrator) { o.renderer = render.New(p) }
}

// WithRepublish controls whether a successful regeneration also rewrites the
// record with recomputed centers and classification. Default: true. The
// rewrite is skipped when the canonical bytes already match what was read,
// so the watch loop converges instead of cycling.
func WithRepublish(enable bool) Option {
	return func(o *Orchestrator) { o.republish = enable }
}

// WithRemoveStale makes record deletion also delete the derived artifacts.
// Default: false (stale artifacts are kept).
func WithRemoveStale(enable bool) Option {
	return func(o *Orchestrator) { o.removeStale = enable }
}

// pathState is the per-path regeneration slot. cancel belongs to the
// in-flight attempt (nil when idle); pubMu serializes the write phase so a
// superseded attempt can never interleave its publish with its successor's.
type pathState struct {
	cancel context.CancelFunc
	pubMu  sync.Mutex
}

// Orchestrator consumes settle signals and regenerates artifacts through a
// bounded worker pool. It implements watch.Handler.
type Orchestrator struct {
	layout   layout.Layout
	renderer *render.Renderer
	notifier observe.Notifier
	workers  int
	sem      *semaphore.Weighted

	republish   bool
	removeStale bool

	baseCtx context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	paths  map[string]*pathState
	closed bool
	wg     sync.WaitGroup

	// Collaborator seams; tests substitute these.
	readFile  func(string) ([]byte, error)
	loadImage func(string) (image.Image, error)
	renderFn  func(image.Image, model.DetectionRecord) (*image.RGBA, *image.RGBA)
	writeFile func(string, []byte) error
}

// New creates an Orchestrator publishing under the given layout.
func New(l layout.Layout, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		layout:    l,
		renderer:  render.New(nil),
		notifier:  observe.NewSlog(nil),
		workers:   runtime.GOMAXPROCS(0),
		republish: true,
		paths:     make(map[string]*pathState),
		readFile:  os.ReadFile,
		loadImage: imgio.Load,
		writeFile: imgio.WriteFileAtomic,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.renderFn = o.renderer.Render
	o.sem = semaphore.NewWeighted(int64(o.workers))
	o.baseCtx, o.cancel = context.WithCancel(context.Background())
	return o
}

// FileSettled schedules a regeneration for path. An attempt already in
// flight for the same path is superseded: it is cancelled and its result
// discarded in favor of a fresh read of the latest content.
func (o *Orchestrator) FileSettled(path string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	st := o.state(path)
	if st.cancel != nil {
		st.cancel()
	}
	ctx, cancel := context.WithCancel(o.baseCtx)
	st.cancel = cancel
	o.wg.Add(1)
	o.mu.Unlock()

	go func() {
		defer o.wg.Done()
		defer cancel()
		o.process(ctx, path, st)
	}()
}

// FileRemoved drops the path's regeneration slot, cancelling any in-flight
// attempt. With WithRemoveStale, the derived artifacts are deleted too.
func (o *Orchestrator) FileRemoved(path string) {
	o.mu.Lock()
	if st, ok := o.paths[path]; ok {
		if st.cancel != nil {
			st.cancel()
		}
		delete(o.paths, path)
	}
	removeStale := o.removeStale
	o.mu.Unlock()

	if !removeStale {
		return
	}
	name, ok := layout.BaseName(path)
	if !ok {
		return
	}
	for _, p := range []string{o.layout.LabeledPath(name), o.layout.FilteredPath(name), o.layout.MaskPath(name)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			o.notifier.Notify(observe.Event{
				Kind: observe.RegenerationFailed, Path: path,
				Reason: "stale_artifact_remove", Err: err,
			})
		}
	}
}

// Regenerate runs one synchronous regeneration for a record path, outside
// the watch loop. It shares the per-path publish discipline with watched
// regenerations.
func (o *Orchestrator) Regenerate(ctx context.Context, path string) error {
	o.mu.Lock()
	st := o.state(path)
	o.mu.Unlock()

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer o.sem.Release(1)
	return o.attempt(ctx, path, st)
}

// Close cancels all in-flight regenerations and waits for them to finish.
// The Orchestrator accepts no further work afterwards.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()
	return nil
}

// state returns the slot for path, creating it on first use. Caller holds mu.
func (o *Orchestrator) state(path string) *pathState {
	st, ok := o.paths[path]
	if !ok {
		st = &pathState{}
		o.paths[path] = st
	}
	return st
}

func (o *Orchestrator) process(ctx context.Context, path string, st *pathState) {
	start := time.Now()
	o.notifier.Notify(observe.Event{Kind: observe.RegenerationStarted, Path: path})

	if err := o.sem.Acquire(ctx, 1); err != nil {
		return // superseded or shut down while queued
	}
	defer o.sem.Release(1)

	err := o.attempt(ctx, path, st)
	switch {
	case err == nil:
		o.notifier.Notify(observe.Event{
			Kind: observe.RegenerationSucceeded, Path: path, Elapsed: time.Since(start),
		})
	case errors.Is(err, context.Canceled):
		// Superseded; the newer attempt reports instead.
	default:
		o.notifier.Notify(observe.Event{
			Kind: observe.RegenerationFailed, Path: path,
			Reason: failureReason(err), Err: err, Elapsed: time.Since(start),
		})
	}
}

// attempt runs one read → validate → load → render → publish cycle. Any
// failure before the publish step leaves previously published artifacts
// untouched.
func (o *Orchestrator) attempt(ctx context.Context, path string, st *pathState) error {
	raw, err := o.readFile(path)
	if err != nil {
		return fmt.Errorf("regen: read record: %w", err)
	}

	rec, err := schema.Validate(raw)
	if err != nil {
		return err
	}

	img, err := o.loadImage(rec.ImagePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("regen: %s: %w", rec.ImagePath, ErrSourceImageMissing)
		}
		return fmt.Errorf("regen: load source image: %w", err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	labeled, filtered := o.renderFn(img, rec)

	return o.publish(ctx, st, path, raw, rec, labeled, filtered)
}

// publish writes the artifacts in fixed order (labeled, filtered, record)
// under the per-path publish lock. Cancellation of a superseded attempt
// happens-before the superseding attempt's writes: the successor cancels
// first, and cancellation is re-checked here under the lock.
func (o *Orchestrator) publish(ctx context.Context, st *pathState, path string, raw []byte, rec model.DetectionRecord, labeled, filtered *image.RGBA) error {
	name, ok := layout.BaseName(path)
	if !ok {
		name = layout.ImageBase(rec.ImageFilename)
	}

	labeledPNG, err := imgio.EncodePNG(labeled)
	if err != nil {
		return err
	}
	filteredPNG, err := imgio.EncodePNG(filtered)
	if err != nil {
		return err
	}

	st.pubMu.Lock()
	defer st.pubMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := o.writeRetry(o.layout.LabeledPath(name), labeledPNG); err != nil {
		return err
	}
	if err := o.writeRetry(o.layout.FilteredPath(name), filteredPNG); err != nil {
		return err
	}
	if !o.republish {
		return nil
	}

	rec.OutputFiles = model.OutputFiles{
		LabeledImage:  o.layout.LabeledPath(name),
		MaskImage:     o.layout.MaskPath(name),
		FilteredImage: o.layout.FilteredPath(name),
	}
	canonical, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("regen: marshal record: %w", err)
	}
	canonical = append(canonical, '\n')
	if bytes.Equal(canonical, raw) {
		return nil // already canonical; avoid re-triggering the watcher
	}
	return o.writeRetry(path, canonical)
}

// writeRetry publishes one artifact, retrying a failed write exactly once.
func (o *Orchestrator) writeRetry(path string, data []byte) error {
	if err := o.writeFile(path, data); err != nil {
		if err2 := o.writeFile(path, data); err2 != nil {
			return fmt.Errorf("regen: publish %s: %w: %v", path, ErrWriteFailure, err2)
		}
	}
	return nil
}

// failureReason maps an attempt error onto the observability taxonomy.
func failureReason(err error) string {
	switch {
	case errors.Is(err, schema.ErrMalformedJSON):
		return "malformed_json"
	case errors.Is(err, schema.ErrSchemaViolation):
		return "schema_violation"
	case errors.Is(err, schema.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, ErrSourceImageMissing):
		return "source_image_missing"
	case errors.Is(err, ErrWriteFailure):
		return "write_failure"
	default:
		return "error"
	}
}
