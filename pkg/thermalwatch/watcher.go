package thermalwatch

import (
	"context"
	"fmt"

	"github.com/ashgrove-ml/thermalwatch/internal/layout"
	"github.com/ashgrove-ml/thermalwatch/internal/regen"
	"github.com/ashgrove-ml/thermalwatch/internal/render"
	"github.com/ashgrove-ml/thermalwatch/internal/watch"
)

// Lifecycle misuse errors returned by Start and Stop.
var (
	ErrAlreadyRunning = watch.ErrAlreadyRunning
	ErrNotRunning     = watch.ErrNotRunning
)

// Watcher ties the record-directory watcher to the regeneration pipeline.
// Safe for concurrent use. Create with New; a Watcher is single-shot: after
// Stop it cannot be started again.
type Watcher struct {
	layout layout.Layout
	sup    *watch.Supervisor
	orch   *regen.Orchestrator
}

// New creates a stopped Watcher over the artifact tree rooted at root. The
// tree holds json/, labeled/, filtered/ and masks/ subdirectories; only
// json/ is watched.
func New(root string, opts ...Option) *Watcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	l := layout.Layout{Root: root}
	regenOpts := []regen.Option{
		regen.WithRepublish(o.republish),
		regen.WithRemoveStale(o.removeStale),
	}
	if o.workers > 0 {
		regenOpts = append(regenOpts, regen.WithWorkers(o.workers))
	}
	if o.palette != nil {
		regenOpts = append(regenOpts, regen.WithPalette(render.Palette(o.palette)))
	}
	orch := regen.New(l, regenOpts...)

	return &Watcher{
		layout: l,
		sup:    watch.NewSupervisor(orch, watch.WithQuietWindow(o.quiet)),
		orch:   orch,
	}
}

// Start creates the artifact directories if needed and begins watching the
// record directory. Returns ErrAlreadyRunning on a running Watcher.
func (w *Watcher) Start() error {
	if err := w.layout.EnsureDirs(); err != nil {
		return fmt.Errorf("thermalwatch: %w", err)
	}
	return w.sup.Start([]string{w.layout.JSONDir()})
}

// Stop halts watching, cancels in-flight regenerations, and waits for them
// to drain. Returns ErrNotRunning on a stopped Watcher.
func (w *Watcher) Stop() error {
	if err := w.sup.Stop(); err != nil {
		return err
	}
	return w.orch.Close()
}

// Regenerate runs one synchronous regeneration for a record file, without
// watching. The path must name a *_detections.json record.
func (w *Watcher) Regenerate(ctx context.Context, recordPath string) error {
	if !layout.IsRecordPath(recordPath) {
		return fmt.Errorf("thermalwatch: %s is not a detection record", recordPath)
	}
	if err := w.layout.EnsureDirs(); err != nil {
		return fmt.Errorf("thermalwatch: %w", err)
	}
	return w.orch.Regenerate(ctx, recordPath)
}
