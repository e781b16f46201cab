package infer

import (
	"image"
	"image/color"
)

// jetHeatmap renders a score map through a pure-Go jet colormap, scores
// normalized against the map's maximum. Used directly in builds without the
// gocv tag and as the fallback when OpenCV conversion fails.
func jetHeatmap(sm ScoreMap) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, sm.W, sm.H))
	max := float64(sm.Max())
	if max <= 0 {
		max = 1
	}
	for y := 0; y < sm.H; y++ {
		for x := 0; x < sm.W; x++ {
			img.SetRGBA(x, y, jet(float64(sm.At(x, y))/max))
		}
	}
	return img
}

// jet maps v in [0,1] onto the classic blue→cyan→yellow→red ramp.
func jet(v float64) color.RGBA {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	r := channel(1.5 - 4*absf(v-0.75))
	g := channel(1.5 - 4*absf(v-0.5))
	b := channel(1.5 - 4*absf(v-0.25))
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func channel(v float64) uint8 {
	if v < 0 {
		v = 0
	} else if v > 1 {
		v = 1
	}
	return uint8(v*255 + 0.5)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
