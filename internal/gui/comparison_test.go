package gui

import (
	"image"
	"image/color"
	"testing"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func newTestComparison(t *testing.T) *ComparisonView {
	t.Helper()
	test.NewTempApp(t)

	cv := NewComparisonView(filled(color.Black), filled(color.White))
	test.NewTempWindow(t, cv)
	cv.Resize(fyne.NewSize(200, 100))
	return cv
}

func TestComparisonViewStartsCentered(t *testing.T) {
	cv := newTestComparison(t)

	assert.Equal(t, 50.0, cv.Viewer().RevealPosition())
	assert.False(t, cv.Viewer().IsDragging())
}

func TestComparisonViewDrag(t *testing.T) {
	cv := newTestComparison(t)
	var changes []float64
	cv.SetOnChanged(func(p float64) { changes = append(changes, p) })

	width := cv.Size().Width
	cv.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(width/4, 10)}})
	assert.True(t, cv.Viewer().IsDragging())
	assert.InDelta(t, 25, cv.Viewer().RevealPosition(), 1e-3)

	cv.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(width*2, 10)}})
	assert.Equal(t, 100.0, cv.Viewer().RevealPosition())

	cv.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(-20, 10)}})
	assert.Equal(t, 0.0, cv.Viewer().RevealPosition())

	cv.DragEnd()
	assert.False(t, cv.Viewer().IsDragging())
	require.Len(t, changes, 3)
	assert.Equal(t, 0.0, changes[2])
}

func TestComparisonViewMousePressAndRelease(t *testing.T) {
	cv := newTestComparison(t)
	width := cv.Size().Width

	cv.MouseDown(&desktop.MouseEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(width*3/4, 5)}})
	assert.True(t, cv.Viewer().IsDragging())
	assert.InDelta(t, 75, cv.Viewer().RevealPosition(), 1e-3)

	cv.MouseUp(&desktop.MouseEvent{})
	assert.False(t, cv.Viewer().IsDragging())
}

func TestComparisonViewKeyboard(t *testing.T) {
	cv := newTestComparison(t)

	cv.TypedKey(&fyne.KeyEvent{Name: fyne.KeyRight})
	assert.Equal(t, 51.0, cv.Viewer().RevealPosition())
	cv.TypedKey(&fyne.KeyEvent{Name: fyne.KeyLeft})
	cv.TypedKey(&fyne.KeyEvent{Name: fyne.KeyLeft})
	assert.Equal(t, 49.0, cv.Viewer().RevealPosition())
	cv.TypedKey(&fyne.KeyEvent{Name: fyne.KeyEnd})
	assert.Equal(t, 100.0, cv.Viewer().RevealPosition())
	cv.TypedKey(&fyne.KeyEvent{Name: fyne.KeyHome})
	assert.Equal(t, 0.0, cv.Viewer().RevealPosition())
}

func TestComparisonViewLabelsAreFixed(t *testing.T) {
	cv := newTestComparison(t)
	r := test.TempWidgetRenderer(t, cv).(*comparisonRenderer)

	r.Layout(cv.Size())
	leftX := r.left.Position().X
	for _, p := range []float64{0, 30, 100} {
		cv.SetRevealPosition(p)
		r.Layout(cv.Size())
		assert.Equal(t, "ORIGINAL", r.left.Text)
		assert.Equal(t, "RESTORED", r.right.Text)
		assert.Equal(t, leftX, r.left.Position().X)
	}
	assert.Greater(t, r.right.Position().X, r.left.Position().X)
}
