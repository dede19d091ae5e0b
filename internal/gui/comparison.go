// Before/after comparison widget
package gui

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"face-restore-studio/internal/compare"
)

const keyboardStep = 1.0

var labelBackground = color.NRGBA{A: 0x99}

// ComparisonView renders the restored image with the original revealed up to
// a draggable boundary. The whole widget acts as the reveal control.
type ComparisonView struct {
	widget.BaseWidget

	viewer *compare.Viewer
	raster *canvas.Raster

	onChanged func(float64)
}

// NewComparisonView creates a view for the two images
func NewComparisonView(original, restored image.Image) *ComparisonView {
	cv := &ComparisonView{
		viewer: compare.NewViewer(original, restored),
	}
	cv.ExtendBaseWidget(cv)
	return cv
}

// Viewer exposes the underlying model
func (cv *ComparisonView) Viewer() *compare.Viewer {
	return cv.viewer
}

// SetOnChanged registers a callback for reveal position changes
func (cv *ComparisonView) SetOnChanged(fn func(float64)) {
	cv.onChanged = fn
}

// CreateRenderer creates the renderer for the comparison view
func (cv *ComparisonView) CreateRenderer() fyne.WidgetRenderer {
	cv.raster = canvas.NewRaster(func(w, h int) image.Image {
		return cv.viewer.Compose(image.Pt(w, h))
	})

	labels := cv.viewer.Labels()
	r := &comparisonRenderer{
		view:    cv,
		raster:  cv.raster,
		leftBg:  canvas.NewRectangle(labelBackground),
		rightBg: canvas.NewRectangle(labelBackground),
		left:    canvas.NewText(labels.Left, color.White),
		right:   canvas.NewText(labels.Right, color.White),
	}
	for _, t := range []*canvas.Text{r.left, r.right} {
		t.TextStyle = fyne.TextStyle{Bold: true}
		t.TextSize = theme.CaptionTextSize()
	}
	return r
}

// SetRevealPosition moves the boundary programmatically
func (cv *ComparisonView) SetRevealPosition(p float64) {
	cv.apply(p)
}

func (cv *ComparisonView) positionAt(pos fyne.Position) (float64, bool) {
	w := cv.Size().Width
	if w <= 0 {
		return 0, false
	}
	return float64(pos.X / w * 100), true
}

func (cv *ComparisonView) apply(p float64) {
	before := cv.viewer.RevealPosition()
	after := cv.viewer.SetRevealPosition(p)
	if before == after {
		return
	}
	if cv.raster != nil {
		cv.raster.Refresh()
	}
	if cv.onChanged != nil {
		cv.onChanged(after)
	}
}

func (cv *ComparisonView) applyAt(pos fyne.Position) {
	if p, ok := cv.positionAt(pos); ok {
		cv.apply(p)
	}
}

// Pointer handlers
func (cv *ComparisonView) MouseDown(event *desktop.MouseEvent) {
	cv.viewer.Press()
	cv.applyAt(event.Position)
}

func (cv *ComparisonView) MouseUp(*desktop.MouseEvent) {
	cv.viewer.Release()
}

func (cv *ComparisonView) Tapped(event *fyne.PointEvent) {
	cv.applyAt(event.Position)
}

func (cv *ComparisonView) Dragged(event *fyne.DragEvent) {
	if !cv.viewer.IsDragging() {
		cv.viewer.Press()
	}
	cv.applyAt(event.Position)
}

func (cv *ComparisonView) DragEnd() {
	cv.viewer.Release()
}

// Keyboard handlers
func (cv *ComparisonView) FocusGained() {}
func (cv *ComparisonView) FocusLost()   {}
func (cv *ComparisonView) TypedRune(rune) {}

func (cv *ComparisonView) TypedKey(event *fyne.KeyEvent) {
	p := cv.viewer.RevealPosition()
	switch event.Name {
	case fyne.KeyLeft, fyne.KeyDown:
		cv.apply(p - keyboardStep)
	case fyne.KeyRight, fyne.KeyUp:
		cv.apply(p + keyboardStep)
	case fyne.KeyHome:
		cv.apply(compare.MinReveal)
	case fyne.KeyEnd:
		cv.apply(compare.MaxReveal)
	}
}

type comparisonRenderer struct {
	view            *ComparisonView
	raster          *canvas.Raster
	leftBg, rightBg *canvas.Rectangle
	left, right     *canvas.Text
}

func (r *comparisonRenderer) Layout(size fyne.Size) {
	r.raster.Resize(size)
	r.raster.Move(fyne.NewPos(0, 0))

	pad := theme.Padding()
	leftSize := r.left.MinSize()
	rightSize := r.right.MinSize()

	r.left.Move(fyne.NewPos(2*pad, 2*pad))
	r.left.Resize(leftSize)
	r.leftBg.Move(fyne.NewPos(pad, pad))
	r.leftBg.Resize(leftSize.AddWidthHeight(2*pad, 2*pad))

	r.right.Move(fyne.NewPos(size.Width-rightSize.Width-2*pad, 2*pad))
	r.right.Resize(rightSize)
	r.rightBg.Move(fyne.NewPos(size.Width-rightSize.Width-3*pad, pad))
	r.rightBg.Resize(rightSize.AddWidthHeight(2*pad, 2*pad))
}

func (r *comparisonRenderer) MinSize() fyne.Size {
	return fyne.NewSize(320, 240)
}

func (r *comparisonRenderer) Refresh() {
	r.raster.Refresh()
}

func (r *comparisonRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.raster, r.leftBg, r.left, r.rightBg, r.right}
}

func (r *comparisonRenderer) Destroy() {}
