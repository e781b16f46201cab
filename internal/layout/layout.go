// Package layout fixes the on-disk artifact layout under the output root.
// External tooling depends on these exact paths and suffixes.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RecordSuffix identifies detection metadata files; the watcher acts only
// on files carrying it.
const RecordSuffix = "_detections.json"

// Layout resolves artifact paths relative to a configured output root:
//
//	json/<name>_detections.json
//	labeled/<name>_boxed.png
//	filtered/<name>_filtered.png
//	masks/<name>_mask.png
type Layout struct {
	Root string
}

func (l Layout) JSONDir() string     { return filepath.Join(l.Root, "json") }
func (l Layout) LabeledDir() string  { return filepath.Join(l.Root, "labeled") }
func (l Layout) FilteredDir() string { return filepath.Join(l.Root, "filtered") }
func (l Layout) MaskDir() string     { return filepath.Join(l.Root, "masks") }

// RecordPath returns the detection record path for a base image name.
func (l Layout) RecordPath(name string) string {
	return filepath.Join(l.JSONDir(), name+RecordSuffix)
}

// LabeledPath returns the boxed-image artifact path for a base image name.
func (l Layout) LabeledPath(name string) string {
	return filepath.Join(l.LabeledDir(), name+"_boxed.png")
}

// FilteredPath returns the filtered-image artifact path for a base image name.
func (l Layout) FilteredPath(name string) string {
	return filepath.Join(l.FilteredDir(), name+"_filtered.png")
}

// MaskPath returns the heat-map artifact path for a base image name.
func (l Layout) MaskPath(name string) string {
	return filepath.Join(l.MaskDir(), name+"_mask.png")
}

// EnsureDirs creates the four artifact directories if absent.
func (l Layout) EnsureDirs() error {
	for _, dir := range []string{l.JSONDir(), l.LabeledDir(), l.FilteredDir(), l.MaskDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("layout: create %s: %w", dir, err)
		}
	}
	return nil
}

// IsRecordPath reports whether the path names a detection record file.
func IsRecordPath(path string) bool {
	return strings.HasSuffix(filepath.Base(path), RecordSuffix)
}

// BaseName extracts the base image name from a detection record path.
// The second return is false when the path is not a record path.
func BaseName(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, RecordSuffix) {
		return "", false
	}
	return strings.TrimSuffix(base, RecordSuffix), true
}

// ImageBase strips the extension from an image filename, yielding the base
// name artifacts are derived from (test.jpg -> test).
func ImageBase(imageFilename string) string {
	return strings.TrimSuffix(imageFilename, filepath.Ext(imageFilename))
}
