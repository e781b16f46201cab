package infer

// ScoreMap is a per-pixel anomaly score grid produced by the model.
type ScoreMap struct {
	W, H int
	Data []float32 // row-major, len == W*H
}

// NewScoreMap allocates a zeroed W×H score map.
func NewScoreMap(w, h int) ScoreMap {
	return ScoreMap{W: w, H: h, Data: make([]float32, w*h)}
}

// At returns the score at (x, y). Out-of-range coordinates clamp to the
// nearest edge.
func (m ScoreMap) At(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= m.W {
		x = m.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= m.H {
		y = m.H - 1
	}
	return m.Data[y*m.W+x]
}

// Set writes the score at (x, y). Out-of-range coordinates are ignored.
func (m ScoreMap) Set(x, y int, v float32) {
	if x < 0 || x >= m.W || y < 0 || y >= m.H {
		return
	}
	m.Data[y*m.W+x] = v
}

// Max returns the largest score, or 0 for an empty map.
func (m ScoreMap) Max() float32 {
	var max float32
	for _, v := range m.Data {
		if v > max {
			max = v
		}
	}
	return max
}

// Resize returns a bilinearly resampled copy at w×h. The model emits scores
// at its own resolution; detections and heat maps need them in source-image
// coordinates.
func (m ScoreMap) Resize(w, h int) ScoreMap {
	if w == m.W && h == m.H {
		out := ScoreMap{W: w, H: h, Data: make([]float32, len(m.Data))}
		copy(out.Data, m.Data)
		return out
	}

	out := NewScoreMap(w, h)
	sx := float64(m.W) / float64(w)
	sy := float64(m.H) / float64(h)
	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)*sy - 0.5
		y0 := int(fy)
		if fy < 0 {
			y0 = 0
			fy = 0
		}
		wy := float32(fy - float64(y0))
		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)*sx - 0.5
			x0 := int(fx)
			if fx < 0 {
				x0 = 0
				fx = 0
			}
			wx := float32(fx - float64(x0))

			v00 := m.At(x0, y0)
			v10 := m.At(x0+1, y0)
			v01 := m.At(x0, y0+1)
			v11 := m.At(x0+1, y0+1)
			top := v00 + (v10-v00)*wx
			bot := v01 + (v11-v01)*wx
			out.Data[y*w+x] = top + (bot-top)*wy
		}
	}
	return out
}
