package model

// BBox is a detection bounding box in source-image pixel coordinates,
// origin top-left. Field names are part of the external JSON contract.
type BBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the box center using integer division, matching the
// coordinates external editors expect (x + width/2, y + height/2).
func (b BBox) Center() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Clamp returns the box clipped to a w×h image. A box entirely outside the
// image clamps to a zero-area box at the nearest edge.
func (b BBox) Clamp(w, h int) BBox {
	x0 := clamp(b.X, 0, w)
	y0 := clamp(b.Y, 0, h)
	x1 := clamp(b.X+b.Width, 0, w)
	y1 := clamp(b.Y+b.Height, 0, h)
	return BBox{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Point is a pixel coordinate pair.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Detection is one classified anomaly region within an image.
type Detection struct {
	ID         int     `json:"id"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
	BBox       BBox    `json:"bbox"`
	// Center is derived from BBox and never authoritative; validation
	// recomputes it and overwrites whatever the file claimed.
	Center Point `json:"center"`
}

// OutputFiles holds the published artifact paths. Written by the
// regeneration pipeline, read-only for external editors.
type OutputFiles struct {
	LabeledImage  string `json:"labeled_image"`
	MaskImage     string `json:"mask_image"`
	FilteredImage string `json:"filtered_image"`
}

// DetectionRecord is the per-image detection metadata document. One JSON
// file per source image, editable by humans; the regeneration pipeline
// reads it and derives the visual artifacts from it.
type DetectionRecord struct {
	ImageFilename string `json:"image_filename"`
	ImagePath     string `json:"image_path"`
	// ProcessingTimestamp is set once at record creation and never
	// rewritten by regeneration.
	ProcessingTimestamp string      `json:"processing_timestamp"`
	Classification      string      `json:"classification"`
	TotalDetections     int         `json:"total_detections"`
	OutputFiles         OutputFiles `json:"output_files"`
	Detections          []Detection `json:"detections"`
}
