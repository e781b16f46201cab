//go:build gocv

package infer

import (
	"image"
	"image/draw"

	"gocv.io/x/gocv"
)

// Heatmap renders the anomaly score map through OpenCV's Jet colormap.
// Falls back to the pure-Go ramp if Mat conversion fails.
func Heatmap(sm ScoreMap) *image.RGBA {
	gray := gocv.NewMatWithSize(sm.H, sm.W, gocv.MatTypeCV8U)
	defer gray.Close()

	max := float64(sm.Max())
	if max <= 0 {
		max = 1
	}
	for y := 0; y < sm.H; y++ {
		for x := 0; x < sm.W; x++ {
			gray.SetUCharAt(y, x, uint8(255*float64(sm.At(x, y))/max+0.5))
		}
	}

	colored := gocv.NewMat()
	defer colored.Close()
	gocv.ApplyColorMap(gray, &colored, gocv.ColormapJet)

	img, err := colored.ToImage()
	if err != nil {
		return jetHeatmap(sm)
	}
	out := image.NewRGBA(img.Bounds())
	draw.Draw(out, out.Bounds(), img, img.Bounds().Min, draw.Src)
	return out
}
