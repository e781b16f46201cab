//go:build !gocv

package infer

import "image"

// Heatmap renders the anomaly score map as a jet-colored image.
func Heatmap(sm ScoreMap) *image.RGBA {
	return jetHeatmap(sm)
}
