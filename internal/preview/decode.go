package preview

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Decode turns an encoded restoration result into an image. Results are held
// by the workflow as bytes, so they need no release.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("decode result: empty payload")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode result: %w", err)
	}
	if b := img.Bounds(); b.Dx() > maxDimension || b.Dy() > maxDimension {
		return nil, fmt.Errorf("decode result: %s image %dx%d exceeds %d px", format, b.Dx(), b.Dy(), maxDimension)
	}
	return img, nil
}
