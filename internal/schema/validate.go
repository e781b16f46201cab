// Package schema parses and validates detection record files. Validation is
// a pure function of the input bytes: no I/O, no clock, and the same input
// always yields the same result.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ashgrove-ml/thermalwatch/internal/model"
)

// Validation failure classes. Callers branch with errors.Is.
var (
	// ErrMalformedJSON: the input is not well-formed JSON.
	ErrMalformedJSON = errors.New("malformed json")
	// ErrSchemaViolation: required fields absent, fields of the wrong type,
	// or total_detections disagreeing with the detection list length.
	ErrSchemaViolation = errors.New("schema violation")
	// ErrOutOfRange: confidence outside [0,1] or non-positive bbox dimensions.
	ErrOutOfRange = errors.New("value out of range")
)

// raw* mirror the record types with pointer fields so absent and ill-typed
// fields can be told apart from zero values. Unknown extra keys are
// tolerated — editors and test tooling add scratch fields.
type rawRecord struct {
	ImageFilename       *string           `json:"image_filename"`
	ImagePath           *string           `json:"image_path"`
	ProcessingTimestamp string            `json:"processing_timestamp"`
	Classification      string            `json:"classification"`
	TotalDetections     *int              `json:"total_detections"`
	OutputFiles         model.OutputFiles `json:"output_files"`
	Detections          *[]rawDetection   `json:"detections"`
}

type rawDetection struct {
	ID         int      `json:"id"`
	Type       *string  `json:"type"`
	Confidence *float64 `json:"confidence"`
	BBox       *rawBBox `json:"bbox"`
}

type rawBBox struct {
	X      *int `json:"x"`
	Y      *int `json:"y"`
	Width  *int `json:"width"`
	Height *int `json:"height"`
}

// Validate parses a detection record and enforces its invariants. On success
// the returned record carries centers recomputed from each bbox and a
// classification recomputed from the detection list; input-supplied values
// for either are never trusted. The processing timestamp passes through
// untouched.
func Validate(raw []byte) (model.DetectionRecord, error) {
	var rr rawRecord
	if err := json.Unmarshal(raw, &rr); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return model.DetectionRecord{}, fmt.Errorf("schema: field %q has wrong type: %w", typeErr.Field, ErrSchemaViolation)
		}
		return model.DetectionRecord{}, fmt.Errorf("schema: %v: %w", err, ErrMalformedJSON)
	}

	switch {
	case rr.ImageFilename == nil:
		return model.DetectionRecord{}, missing("image_filename")
	case rr.ImagePath == nil:
		return model.DetectionRecord{}, missing("image_path")
	case rr.TotalDetections == nil:
		return model.DetectionRecord{}, missing("total_detections")
	case rr.Detections == nil:
		return model.DetectionRecord{}, missing("detections")
	}

	dets := *rr.Detections
	if *rr.TotalDetections != len(dets) {
		return model.DetectionRecord{}, fmt.Errorf("schema: total_detections=%d but %d detections listed: %w",
			*rr.TotalDetections, len(dets), ErrSchemaViolation)
	}

	rec := model.DetectionRecord{
		ImageFilename:       *rr.ImageFilename,
		ImagePath:           *rr.ImagePath,
		ProcessingTimestamp: rr.ProcessingTimestamp,
		TotalDetections:     *rr.TotalDetections,
		OutputFiles:         rr.OutputFiles,
		Detections:          make([]model.Detection, 0, len(dets)),
	}

	for i, rd := range dets {
		d, err := validateDetection(i, rd)
		if err != nil {
			return model.DetectionRecord{}, err
		}
		rec.Detections = append(rec.Detections, d)
	}

	rec.Classification = model.Classification(rec.Detections)
	return rec, nil
}

func validateDetection(i int, rd rawDetection) (model.Detection, error) {
	switch {
	case rd.Type == nil:
		return model.Detection{}, missing(fmt.Sprintf("detections[%d].type", i))
	case rd.Confidence == nil:
		return model.Detection{}, missing(fmt.Sprintf("detections[%d].confidence", i))
	case rd.BBox == nil:
		return model.Detection{}, missing(fmt.Sprintf("detections[%d].bbox", i))
	}
	bb := rd.BBox
	if bb.X == nil || bb.Y == nil || bb.Width == nil || bb.Height == nil {
		return model.Detection{}, missing(fmt.Sprintf("detections[%d].bbox fields", i))
	}

	conf := *rd.Confidence
	if conf < 0 || conf > 1 {
		return model.Detection{}, fmt.Errorf("schema: detections[%d].confidence=%g outside [0,1]: %w", i, conf, ErrOutOfRange)
	}
	if *bb.Width <= 0 || *bb.Height <= 0 {
		return model.Detection{}, fmt.Errorf("schema: detections[%d].bbox has non-positive size %dx%d: %w",
			i, *bb.Width, *bb.Height, ErrOutOfRange)
	}

	box := model.BBox{X: *bb.X, Y: *bb.Y, Width: *bb.Width, Height: *bb.Height}
	return model.Detection{
		ID:         rd.ID,
		Type:       *rd.Type,
		Confidence: conf,
		BBox:       box,
		Center:     box.Center(),
	}, nil
}

func missing(field string) error {
	return fmt.Errorf("schema: missing required field %s: %w", field, ErrSchemaViolation)
}
