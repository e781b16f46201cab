// Package render derives the labeled and filtered artifacts from a source
// image and a validated detection record. Rendering is pure: data in, data
// out, no filesystem access, and byte-identical results for identical inputs.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ashgrove-ml/thermalwatch/internal/model"
)

const boxThickness = 2

var (
	textColor  = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	background = color.RGBA{A: 255} // opaque black
)

// Renderer draws detection overlays with a fixed palette.
type Renderer struct {
	palette Palette
	face    font.Face
}

// New creates a Renderer. A nil palette selects the default.
func New(palette Palette) *Renderer {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Renderer{palette: palette, face: basicfont.Face7x13}
}

// Render produces the two derived images for a record. Boxes are clamped to
// the image bounds before drawing: a box partially outside the image is
// clipped, never dropped. Overlapping boxes in the filtered image are
// unioned. Detections are drawn in list order.
func (r *Renderer) Render(src image.Image, rec model.DetectionRecord) (labeled, filtered *image.RGBA) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	labeled = image.NewRGBA(bounds)
	draw.Draw(labeled, bounds, src, bounds.Min, draw.Src)

	filtered = image.NewRGBA(bounds)
	draw.Draw(filtered, bounds, image.NewUniform(background), image.Point{}, draw.Src)

	for _, d := range rec.Detections {
		box := d.BBox.Clamp(w, h)
		rect := image.Rect(box.X, box.Y, box.X+box.Width, box.Y+box.Height).Add(bounds.Min)
		boxColor := r.palette.Color(d.Type)

		r.strokeRect(labeled, rect, boxColor)
		r.drawLabel(labeled, rect, boxColor, d)

		draw.Draw(filtered, rect, src, rect.Min, draw.Src)
	}

	// Nothing detected: annotate the overall classification instead, so the
	// labeled artifact still communicates the record's verdict.
	if len(rec.Detections) == 0 {
		r.drawText(labeled, bounds.Min.X+10, bounds.Min.Y+30, rec.Classification)
	}

	return labeled, filtered
}

// strokeRect draws a rectangle outline of boxThickness, clipped to bounds.
func (r *Renderer) strokeRect(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	t := boxThickness
	edges := []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+t), // top
		image.Rect(rect.Min.X, rect.Max.Y-t, rect.Max.X, rect.Max.Y), // bottom
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+t, rect.Max.Y), // left
		image.Rect(rect.Max.X-t, rect.Min.Y, rect.Max.X, rect.Max.Y), // right
	}
	for _, e := range edges {
		fillRect(img, e, c)
	}
}

// drawLabel writes "<type display name> (<confidence>)" on a colored strip
// just above the box's top-left corner, pushed down when there is no room.
func (r *Renderer) drawLabel(img *image.RGBA, rect image.Rectangle, boxColor color.RGBA, d model.Detection) {
	label := fmt.Sprintf("%s (%.2f)", model.DisplayName(d.Type), d.Confidence)
	textW := font.MeasureString(r.face, label).Ceil()
	textH := r.face.Metrics().Height.Ceil()

	top := rect.Min.Y - textH - 4
	if top < img.Bounds().Min.Y {
		top = img.Bounds().Min.Y
	}
	strip := image.Rect(rect.Min.X, top, rect.Min.X+textW+4, top+textH+4)
	fillRect(img, strip, boxColor)

	r.drawText(img, rect.Min.X+2, top+textH, label)
}

// drawText renders s with the baseline at (x, y), clipped to the image.
func (r *Renderer) drawText(img *image.RGBA, x, y int, s string) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(textColor),
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func fillRect(img *image.RGBA, rect image.Rectangle, c color.RGBA) {
	clipped := rect.Intersect(img.Bounds())
	if clipped.Empty() {
		return
	}
	draw.Draw(img, clipped, image.NewUniform(c), image.Point{}, draw.Src)
}
