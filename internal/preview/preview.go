// Package preview owns the decoded local copy of the image the user selected.
//
// A Handle wraps an OpenCV matrix. Matrices live outside the Go heap, so every
// handle must be released explicitly; the garbage collector will not do it.
package preview

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"face-restore-studio/internal/intake"
)

const maxDimension = 16384

// Handle is an owned reference to a locally decoded preview.
type Handle interface {
	ID() uint64
	Image() image.Image
	Size() image.Point
	Release()
}

// Opener creates preview handles for accepted files.
type Opener interface {
	Open(file intake.File) (Handle, error)
}

// MatOpener decodes previews with OpenCV.
type MatOpener struct {
	logger logrus.FieldLogger
	nextID atomic.Uint64
	live   atomic.Int64
}

// NewMatOpener creates an opener.
func NewMatOpener(logger logrus.FieldLogger) *MatOpener {
	return &MatOpener{logger: logger}
}

// Live reports the number of handles opened and not yet released.
func (o *MatOpener) Live() int64 {
	return o.live.Load()
}

// Open decodes file into a new handle.
func (o *MatOpener) Open(file intake.File) (Handle, error) {
	mat, err := gocv.IMDecode(file.Data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode preview: %w", err)
	}
	if err := validate(mat); err != nil {
		mat.Close()
		return nil, err
	}

	img, err := mat.ToImage()
	if err != nil {
		mat.Close()
		return nil, fmt.Errorf("convert preview: %w", err)
	}

	h := &matHandle{
		id:     o.nextID.Add(1),
		mat:    mat,
		img:    img,
		size:   image.Pt(mat.Cols(), mat.Rows()),
		opener: o,
	}
	live := o.live.Add(1)

	o.logger.WithFields(logrus.Fields{
		"handle":   h.id,
		"file":     file.Name,
		"width":    h.size.X,
		"height":   h.size.Y,
		"channels": mat.Channels(),
		"live":     live,
	}).Debug("Preview handle created")

	return h, nil
}

func validate(mat gocv.Mat) error {
	if mat.Empty() {
		return errors.New("image could not be decoded")
	}
	if mat.Cols() <= 0 || mat.Rows() <= 0 {
		return fmt.Errorf("invalid image dimensions: %dx%d", mat.Cols(), mat.Rows())
	}
	if mat.Cols() > maxDimension || mat.Rows() > maxDimension {
		return fmt.Errorf("image too large: %dx%d (max: %d)", mat.Cols(), mat.Rows(), maxDimension)
	}
	return nil
}

type matHandle struct {
	id     uint64
	opener *MatOpener

	mu       sync.Mutex
	mat      gocv.Mat
	img      image.Image
	size     image.Point
	released bool
}

func (h *matHandle) ID() uint64 {
	return h.id
}

// Image returns the decoded preview. The image is a Go copy of the matrix and
// stays valid after Release.
func (h *matHandle) Image() image.Image {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.img
}

func (h *matHandle) Size() image.Point {
	return h.size
}

// Release closes the underlying matrix. Further calls are no-ops.
func (h *matHandle) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.released {
		h.opener.logger.WithField("handle", h.id).Warn("Preview handle released twice")
		return
	}
	h.released = true
	if err := h.mat.Close(); err != nil {
		h.opener.logger.WithError(err).WithField("handle", h.id).Warn("Closing preview matrix failed")
	}
	live := h.opener.live.Add(-1)
	h.opener.logger.WithFields(logrus.Fields{"handle": h.id, "live": live}).Debug("Preview handle released")
}
