// Package imgio is the image codec boundary: decode source images, encode
// artifacts, and write files atomically so a concurrent reader never sees a
// partial write.
package imgio

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	_ "image/jpeg" // source images are commonly JPEG
)

// Load decodes the image at path. The wrapped error satisfies
// errors.Is(err, os.ErrNotExist) when the file is absent.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imgio: open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("imgio: decode %s: %w", path, err)
	}
	return img, nil
}

// EncodePNG renders the image to PNG bytes. PNG encoding of a fixed pixel
// buffer is deterministic, which keeps artifact regeneration idempotent.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("imgio: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFileAtomic publishes data at path via a temp file in the same
// directory and an atomic rename. On any failure the temp file is removed
// and the previously published file, if any, is left untouched.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("imgio: create temp in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("imgio: write temp %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("imgio: close temp %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("imgio: chmod temp %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("imgio: rename to %s: %w", path, err)
	}
	return nil
}

// SavePNGAtomic encodes img as PNG and publishes it atomically at path.
func SavePNGAtomic(path string, img image.Image) error {
	data, err := EncodePNG(img)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data)
}
