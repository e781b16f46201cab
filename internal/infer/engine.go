// Package infer runs thermal anomaly detection over source images using a
// local ONNX model. The model emits a per-pixel anomaly score map; the
// package thresholds it into classified detection regions and renders the
// heat-map mask artifact.
package infer

import (
	"fmt"
	"image"

	"github.com/ashgrove-ml/thermalwatch/internal/model"
)

const (
	defaultThreshold = 0.5
	defaultMinArea   = 16
)

// Option adjusts engine construction.
type Option func(*Engine)

// WithThreshold sets the anomaly score cutoff for detection regions.
func WithThreshold(t float64) Option {
	return func(e *Engine) { e.threshold = t }
}

// WithMinArea sets the minimum component size, in pixels of the source
// image, below which regions are discarded as noise.
func WithMinArea(a int) Option {
	return func(e *Engine) { e.minArea = a }
}

// WithLibraryPath overrides where the ONNX Runtime shared library is loaded
// from. By default it is resolved next to the model file.
func WithLibraryPath(path string) Option {
	return func(e *Engine) { e.libPath = path }
}

// Engine wraps an anomaly-detection ONNX session behind an image-in,
// detections-out API. Safe for sequential use; one inference at a time.
type Engine struct {
	sess      *onnxSession
	libPath   string
	threshold float64
	minArea   int
}

// New loads the anomaly model at modelPath and prepares it for inference.
func New(modelPath string, opts ...Option) (*Engine, error) {
	e := &Engine{
		threshold: defaultThreshold,
		minArea:   defaultMinArea,
	}
	for _, opt := range opts {
		opt(e)
	}

	sess, err := newONNXSession(modelPath, e.libPath)
	if err != nil {
		return nil, err
	}
	e.sess = sess
	return e, nil
}

// Detect runs the model over one image. It returns the anomaly score map
// resampled to source-image resolution alongside the classified detections
// derived from it.
func (e *Engine) Detect(img image.Image) (ScoreMap, []model.Detection, error) {
	if e.sess == nil {
		return ScoreMap{}, nil, fmt.Errorf("infer: engine is closed")
	}

	input := preprocess(img, e.sess.inputH, e.sess.inputW)
	raw, err := e.sess.run(input)
	if err != nil {
		return ScoreMap{}, nil, err
	}
	if want := e.sess.inputH * e.sess.inputW; len(raw) != want {
		return ScoreMap{}, nil, fmt.Errorf("infer: unexpected score map size %d, want %d", len(raw), want)
	}

	b := img.Bounds()
	sm := ScoreMap{W: e.sess.inputW, H: e.sess.inputH, Data: raw}.Resize(b.Dx(), b.Dy())
	return sm, Detections(sm, e.threshold, e.minArea), nil
}

// Close releases the underlying ONNX session. Detect must not be called
// afterwards.
func (e *Engine) Close() error {
	if e.sess == nil {
		return nil
	}
	err := e.sess.close()
	e.sess = nil
	return err
}
