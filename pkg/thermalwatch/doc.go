// Package thermalwatch regenerates thermal anomaly overlay images from
// human-edited detection metadata. It watches a directory of per-image JSON
// records and republishes the derived labeled and filtered images whenever a
// record's content settles.
//
// Quick start:
//
//	w := thermalwatch.New("output_image")
//	if err := w.Start(); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// Edits to output_image/json/*_detections.json now regenerate the
// corresponding images under output_image/labeled and output_image/filtered.
// Artifacts are published atomically; readers never see a partial image.
//
// For a single regeneration without watching, use Regenerate. See the README
// for the record format and full documentation.
package thermalwatch
