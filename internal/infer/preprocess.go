package infer

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// ImageNet normalization, matching the statistics the anomaly model was
// trained with.
var (
	chanMean = [3]float32{0.485, 0.456, 0.406}
	chanStd  = [3]float32{0.229, 0.224, 0.225}
)

// preprocess scales the image to the model's input resolution and packs it
// into a normalized NCHW float32 tensor.
func preprocess(src image.Image, h, w int) []float32 {
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.BiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)

	data := make([]float32, 3*h*w)
	plane := h * w
	for y := 0; y < h; y++ {
		row := scaled.Pix[y*scaled.Stride:]
		for x := 0; x < w; x++ {
			px := row[x*4:]
			idx := y*w + x
			data[idx] = (float32(px[0])/255 - chanMean[0]) / chanStd[0]
			data[plane+idx] = (float32(px[1])/255 - chanMean[1]) / chanStd[1]
			data[2*plane+idx] = (float32(px[2])/255 - chanMean[2]) / chanStd[2]
		}
	}
	return data
}
