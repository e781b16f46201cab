package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashgrove-ml/thermalwatch/internal/config"
	"github.com/ashgrove-ml/thermalwatch/internal/imgio"
	"github.com/ashgrove-ml/thermalwatch/internal/infer"
	"github.com/ashgrove-ml/thermalwatch/internal/layout"
	"github.com/ashgrove-ml/thermalwatch/internal/logging"
	"github.com/ashgrove-ml/thermalwatch/internal/model"
	"github.com/ashgrove-ml/thermalwatch/internal/render"
	"github.com/ashgrove-ml/thermalwatch/pkg/thermalwatch"
)

func main() {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	var (
		oncePath  = flag.String("once", "", "regenerate one detection record and exit")
		inferPath = flag.String("infer", "", "analyze one source image with the anomaly model and exit")
		root      = flag.String("root", "", "artifact tree root (overrides THERMALWATCH_OUTPUT_ROOT)")
	)
	flag.Parse()

	cfg := config.Load()
	if *root != "" {
		cfg.Output.Root = *root
	}
	logging.Init(cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))

	switch {
	case *oncePath != "":
		runOnce(cfg, *oncePath)
	case *inferPath != "":
		runInfer(cfg, *inferPath)
	default:
		runWatch(cfg)
	}
}

// runWatch watches the record directory until SIGINT/SIGTERM.
func runWatch(cfg config.Config) {
	w := thermalwatch.New(cfg.Output.Root,
		thermalwatch.WithQuietWindow(cfg.Watch.QuietWindow),
		thermalwatch.WithWorkers(cfg.Watch.Workers),
		thermalwatch.WithRepublish(cfg.Watch.Republish),
		thermalwatch.WithRemoveStale(cfg.Watch.RemoveStale),
	)
	if err := w.Start(); err != nil {
		log.Fatalf("failed to start watcher: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	fmt.Fprintf(os.Stderr, "\nreceived %v, shutting down...\n", sig)

	if err := w.Stop(); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

// runOnce regenerates the artifacts for a single record file.
func runOnce(cfg config.Config, recordPath string) {
	w := thermalwatch.New(cfg.Output.Root,
		thermalwatch.WithWorkers(cfg.Watch.Workers),
		thermalwatch.WithRepublish(cfg.Watch.Republish),
	)
	if err := w.Regenerate(context.Background(), recordPath); err != nil {
		log.Fatalf("regeneration failed: %v", err)
	}
	slog.Info("regenerated", "record", recordPath)
}

// runInfer analyzes one source image with the anomaly model and publishes
// the full artifact set: record, labeled, filtered, and heat-map mask.
func runInfer(cfg config.Config, imagePath string) {
	img, err := imgio.Load(imagePath)
	if err != nil {
		log.Fatalf("failed to load image: %v", err)
	}

	eng, err := infer.New(cfg.Infer.ModelPath,
		infer.WithLibraryPath(cfg.Infer.LibraryPath),
		infer.WithThreshold(cfg.Infer.ScoreThreshold),
		infer.WithMinArea(cfg.Infer.MinArea),
	)
	if err != nil {
		log.Fatalf("failed to load anomaly model: %v", err)
	}
	defer eng.Close()

	sm, dets, err := eng.Detect(img)
	if err != nil {
		log.Fatalf("inference failed: %v", err)
	}

	l := layout.Layout{Root: cfg.Output.Root}
	if err := l.EnsureDirs(); err != nil {
		log.Fatalf("failed to create output tree: %v", err)
	}

	abs, err := filepath.Abs(imagePath)
	if err != nil {
		abs = imagePath
	}
	rec := infer.BuildRecord(abs, dets, l, time.Now())
	labeled, filtered := render.New(nil).Render(img, rec)
	mask := infer.Heatmap(sm)

	base := layout.ImageBase(rec.ImageFilename)
	if err := imgio.SavePNGAtomic(l.LabeledPath(base), labeled); err != nil {
		log.Fatalf("failed to publish labeled image: %v", err)
	}
	if err := imgio.SavePNGAtomic(l.FilteredPath(base), filtered); err != nil {
		log.Fatalf("failed to publish filtered image: %v", err)
	}
	if err := imgio.SavePNGAtomic(l.MaskPath(base), mask); err != nil {
		log.Fatalf("failed to publish mask image: %v", err)
	}
	if err := writeRecord(l.RecordPath(base), rec); err != nil {
		log.Fatalf("failed to publish record: %v", err)
	}

	slog.Info("analyzed",
		"image", rec.ImageFilename,
		"classification", rec.Classification,
		"detections", rec.TotalDetections,
	)
}

func writeRecord(path string, rec model.DetectionRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return imgio.WriteFileAtomic(path, append(data, '\n'))
}
