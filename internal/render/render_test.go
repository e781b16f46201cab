package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/ashgrove-ml/thermalwatch/internal/model"
)

func sourceImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	return img
}

func oneDetectionRecord(d model.Detection) model.DetectionRecord {
	return model.DetectionRecord{
		ImageFilename:   "test.jpg",
		TotalDetections: 1,
		Classification:  model.Classification([]model.Detection{d}),
		Detections:      []model.Detection{d},
	}
}

func wireOverloadAt(box model.BBox) model.Detection {
	return model.Detection{
		ID: 1, Type: model.FaultWireOverload, Confidence: 0.9,
		BBox: box, Center: box.Center(),
	}
}

func rgbaAt(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestRenderScenario(t *testing.T) {
	src := sourceImage(640, 480)
	rec := oneDetectionRecord(wireOverloadAt(model.BBox{X: 100, Y: 100, Width: 50, Height: 30}))

	r := New(nil)
	labeled, filtered := r.Render(src, rec)

	want := DefaultPalette().Color(model.FaultWireOverload)

	// Box outline at the top-left corner in the WireOverload color.
	if got := rgbaAt(labeled, 100, 100); got != want {
		t.Errorf("labeled corner pixel = %v, want %v", got, want)
	}
	if got := rgbaAt(labeled, 149, 129); got != want {
		t.Errorf("labeled bottom-right edge pixel = %v, want %v", got, want)
	}

	// Box interior untouched in the labeled image.
	if got, orig := rgbaAt(labeled, 125, 115), src.RGBAAt(125, 115); got != orig {
		t.Errorf("labeled interior pixel = %v, want source %v", got, orig)
	}

	// Filtered: source pixels inside the box, black everywhere else.
	if got, orig := rgbaAt(filtered, 125, 115), src.RGBAAt(125, 115); got != orig {
		t.Errorf("filtered inside pixel = %v, want source %v", got, orig)
	}
	black := color.RGBA{A: 255}
	for _, p := range []image.Point{{0, 0}, {99, 115}, {125, 99}, {150, 130}, {639, 479}} {
		if got := rgbaAt(filtered, p.X, p.Y); got != black {
			t.Errorf("filtered outside pixel %v = %v, want black", p, got)
		}
	}
}

func TestRenderIdempotent(t *testing.T) {
	src := sourceImage(64, 48)
	rec := oneDetectionRecord(wireOverloadAt(model.BBox{X: 10, Y: 10, Width: 20, Height: 12}))

	r := New(nil)
	l1, f1 := r.Render(src, rec)
	l2, f2 := r.Render(src, rec)

	if !bytes.Equal(l1.Pix, l2.Pix) {
		t.Error("labeled output differs across identical renders")
	}
	if !bytes.Equal(f1.Pix, f2.Pix) {
		t.Error("filtered output differs across identical renders")
	}
}

func TestRenderClampsOversizeBox(t *testing.T) {
	src := sourceImage(640, 480)
	rec := oneDetectionRecord(wireOverloadAt(model.BBox{X: 600, Y: 450, Width: 100, Height: 100}))

	r := New(nil)
	labeled, filtered := r.Render(src, rec) // must not panic or write out of bounds

	// The visible part of the box is drawn.
	if got, orig := rgbaAt(filtered, 620, 470), src.RGBAAt(620, 470); got != orig {
		t.Errorf("filtered clipped-box pixel = %v, want source %v", got, orig)
	}
	if got := rgbaAt(filtered, 0, 0); (got != color.RGBA{A: 255}) {
		t.Errorf("filtered far pixel = %v, want black", got)
	}
	want := DefaultPalette().Color(model.FaultWireOverload)
	if got := rgbaAt(labeled, 600, 450); got != want {
		t.Errorf("labeled clipped-box corner = %v, want %v", got, want)
	}
}

func TestRenderBoxFullyOutside(t *testing.T) {
	src := sourceImage(64, 48)
	rec := oneDetectionRecord(wireOverloadAt(model.BBox{X: 500, Y: 500, Width: 10, Height: 10}))

	r := New(nil)
	_, filtered := r.Render(src, rec)
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			if got := filtered.RGBAAt(x, y); (got != color.RGBA{A: 255}) {
				t.Fatalf("filtered pixel (%d,%d) = %v, want black", x, y, got)
			}
		}
	}
}

func TestRenderUnknownTypeUsesFallback(t *testing.T) {
	src := sourceImage(64, 48)
	det := model.Detection{
		ID: 1, Type: "BrandNewFault", Confidence: 0.5,
		BBox: model.BBox{X: 10, Y: 20, Width: 20, Height: 10},
	}
	rec := oneDetectionRecord(det)

	r := New(nil)
	labeled, _ := r.Render(src, rec)
	if got := rgbaAt(labeled, 10, 20); got != fallback {
		t.Errorf("unknown-type box color = %v, want fallback %v", got, fallback)
	}
}

func TestRenderNoDetections(t *testing.T) {
	src := sourceImage(128, 64)
	rec := model.DetectionRecord{
		ImageFilename:  "test.jpg",
		Classification: model.Classification(nil),
	}

	r := New(nil)
	labeled, filtered := r.Render(src, rec)

	// Filtered image is entirely black.
	for y := 0; y < 64; y++ {
		for x := 0; x < 128; x++ {
			if got := filtered.RGBAAt(x, y); (got != color.RGBA{A: 255}) {
				t.Fatalf("filtered pixel (%d,%d) = %v, want black", x, y, got)
			}
		}
	}

	// The classification text leaves a visible mark near the top-left.
	marked := false
	for y := 15; y < 35 && !marked; y++ {
		for x := 5; x < 100; x++ {
			if labeled.RGBAAt(x, y) == textColor {
				marked = true
				break
			}
		}
	}
	if !marked {
		t.Error("no classification annotation found on empty-record labeled image")
	}
}

func TestRenderOverlappingBoxesUnion(t *testing.T) {
	src := sourceImage(64, 48)
	a := wireOverloadAt(model.BBox{X: 5, Y: 5, Width: 20, Height: 20})
	b := model.Detection{
		ID: 2, Type: model.FaultLooseJointFaulty, Confidence: 0.6,
		BBox: model.BBox{X: 15, Y: 15, Width: 20, Height: 20},
	}
	rec := model.DetectionRecord{
		TotalDetections: 2,
		Classification:  model.Classification([]model.Detection{a, b}),
		Detections:      []model.Detection{a, b},
	}

	r := New(nil)
	_, filtered := r.Render(src, rec)

	// Overlap region copied once, identical to the source.
	if got, orig := filtered.RGBAAt(20, 20), src.RGBAAt(20, 20); got != orig {
		t.Errorf("overlap pixel = %v, want source %v", got, orig)
	}
	// Non-overlapping parts of both boxes present.
	if got, orig := filtered.RGBAAt(7, 7), src.RGBAAt(7, 7); got != orig {
		t.Errorf("box-a pixel = %v, want source %v", got, orig)
	}
	if got, orig := filtered.RGBAAt(33, 33), src.RGBAAt(33, 33); got != orig {
		t.Errorf("box-b pixel = %v, want source %v", got, orig)
	}
}
