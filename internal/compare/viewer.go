// Package compare models the before/after comparison viewer: a restored base
// layer, an original layer clipped at the reveal position, and the drag state
// of the control that moves the boundary.
package compare

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
)

const (
	MinReveal     = 0.0
	MaxReveal     = 100.0
	InitialReveal = 50.0

	LabelOriginal = "ORIGINAL"
	LabelRestored = "RESTORED"

	boundaryWidth = 2
)

// Point is a coordinate in percent of the viewer bounds.
type Point struct {
	X, Y float64
}

// Labels names the two sides of the viewer. They never follow the boundary.
type Labels struct {
	Left  string
	Right string
}

// Viewer holds the two images and the local interaction state. It reports
// nothing back to the workflow.
type Viewer struct {
	original image.Image
	restored image.Image

	mu       sync.Mutex
	reveal   float64
	dragging bool

	// scaled layers for the last composed size
	cacheSize     image.Point
	cacheOriginal *image.RGBA
	cacheRestored *image.RGBA
}

// NewViewer creates a viewer with the boundary centered.
func NewViewer(original, restored image.Image) *Viewer {
	return &Viewer{
		original: original,
		restored: restored,
		reveal:   InitialReveal,
	}
}

func (v *Viewer) RevealPosition() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reveal
}

// SetRevealPosition clamps p to [0, 100] and returns the applied value. NaN
// leaves the position unchanged.
func (v *Viewer) SetRevealPosition(p float64) float64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	if math.IsNaN(p) {
		return v.reveal
	}
	v.reveal = math.Max(MinReveal, math.Min(MaxReveal, p))
	return v.reveal
}

// Press marks the start of a drag on the reveal control.
func (v *Viewer) Press() {
	v.mu.Lock()
	v.dragging = true
	v.mu.Unlock()
}

// Release marks the end of a drag.
func (v *Viewer) Release() {
	v.mu.Lock()
	v.dragging = false
	v.mu.Unlock()
}

func (v *Viewer) IsDragging() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dragging
}

// ClipPolygon returns the clip of the original layer in percent:
// (0,0) (p,0) (p,100) (0,100).
func (v *Viewer) ClipPolygon() [4]Point {
	p := v.RevealPosition()
	return [4]Point{{0, 0}, {p, 0}, {p, 100}, {0, 100}}
}

// ClipRect maps the clip polygon onto pixel bounds.
func (v *Viewer) ClipRect(bounds image.Rectangle) image.Rectangle {
	return clipRect(bounds, v.RevealPosition())
}

func (v *Viewer) Labels() Labels {
	return Labels{Left: LabelOriginal, Right: LabelRestored}
}

// Compose renders the viewer into an image of the given size. Both layers are
// fitted inside the same bounds so their pixels line up.
func (v *Viewer) Compose(size image.Point) *image.RGBA {
	dst := image.NewRGBA(image.Rectangle{Max: size})
	if size.X <= 0 || size.Y <= 0 {
		return dst
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.cacheSize != size {
		v.cacheOriginal = fitLayer(v.original, size)
		v.cacheRestored = fitLayer(v.restored, size)
		v.cacheSize = size
	}

	bounds := dst.Bounds()
	draw.Draw(dst, bounds, v.cacheRestored, image.Point{}, draw.Src)

	clip := clipRect(bounds, v.reveal)
	draw.Draw(dst, clip, v.cacheOriginal, clip.Min, draw.Src)

	line := image.Rect(clip.Max.X-boundaryWidth/2, bounds.Min.Y, clip.Max.X+boundaryWidth/2, bounds.Max.Y).Intersect(bounds)
	draw.Draw(dst, line, image.NewUniform(color.White), image.Point{}, draw.Src)

	return dst
}

func clipRect(bounds image.Rectangle, p float64) image.Rectangle {
	x := bounds.Min.X + int(math.Round(p/100*float64(bounds.Dx())))
	return image.Rect(bounds.Min.X, bounds.Min.Y, x, bounds.Max.Y)
}

// fitLayer scales src to fit inside size preserving its aspect ratio,
// centered on a transparent background.
func fitLayer(src image.Image, size image.Point) *image.RGBA {
	layer := image.NewRGBA(image.Rectangle{Max: size})
	if src == nil {
		return layer
	}
	sb := src.Bounds()
	if sb.Empty() {
		return layer
	}

	target := ContainRect(sb.Size(), size)
	draw.CatmullRom.Scale(layer, target, src, sb, draw.Src, nil)
	return layer
}

// ContainRect returns the largest rectangle with the aspect ratio of src that
// fits inside size, centered.
func ContainRect(src, size image.Point) image.Rectangle {
	if src.X <= 0 || src.Y <= 0 || size.X <= 0 || size.Y <= 0 {
		return image.Rectangle{}
	}
	scale := math.Min(float64(size.X)/float64(src.X), float64(size.Y)/float64(src.Y))
	w := max(1, int(math.Round(float64(src.X)*scale)))
	h := max(1, int(math.Round(float64(src.Y)*scale)))
	x := (size.X - w) / 2
	y := (size.Y - h) / 2
	return image.Rect(x, y, x+w, y+h)
}
