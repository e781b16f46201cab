package infer

import (
	"path/filepath"
	"time"

	"github.com/ashgrove-ml/thermalwatch/internal/layout"
	"github.com/ashgrove-ml/thermalwatch/internal/model"
)

// timestampLayout is the record timestamp format external tooling parses.
const timestampLayout = "2006-01-02 15:04:05"

// BuildRecord assembles a fresh detection record for an analyzed image.
// Artifact paths are resolved against the output layout; the timestamp is
// fixed at creation and survives later regenerations untouched.
func BuildRecord(imagePath string, dets []model.Detection, l layout.Layout, now time.Time) model.DetectionRecord {
	filename := filepath.Base(imagePath)
	base := layout.ImageBase(filename)

	if dets == nil {
		dets = []model.Detection{}
	}
	return model.DetectionRecord{
		ImageFilename:       filename,
		ImagePath:           imagePath,
		ProcessingTimestamp: now.Format(timestampLayout),
		Classification:      model.Classification(dets),
		TotalDetections:     len(dets),
		OutputFiles: model.OutputFiles{
			LabeledImage:  l.LabeledPath(base),
			MaskImage:     l.MaskPath(base),
			FilteredImage: l.FilteredPath(base),
		},
		Detections: dets,
	}
}
