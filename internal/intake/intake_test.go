package intake

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

var jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}

func TestAcceptJPEGAndPNG(t *testing.T) {
	policy := DefaultPolicy()

	file, err := policy.Accept("/tmp/portrait.png", pngBytes(t))
	require.NoError(t, err)
	assert.Equal(t, "portrait.png", file.Name)
	assert.Equal(t, MIMEPNG, file.MIMEType)

	file, err = policy.Accept("face.jpeg", jpegHeader)
	require.NoError(t, err)
	assert.Equal(t, MIMEJPEG, file.MIMEType)
	assert.Equal(t, int64(len(jpegHeader)), file.Size())
}

func TestAcceptSniffsContentNotExtension(t *testing.T) {
	_, err := DefaultPolicy().Accept("face.png", []byte("GIF89a......"))

	var rejection *Rejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, InvalidType, rejection.Reason)
	assert.Equal(t, "image/gif", rejection.Detected)
	assert.Equal(t, "INVALID FILE TYPE. PLEASE UPLOAD JPEG OR PNG.", err.Error())
}

func TestAcceptRejectsOversizedPNG(t *testing.T) {
	data := append(pngBytes(t), make([]byte, 11*1024*1024)...)

	_, err := DefaultPolicy().Accept("big.png", data)

	var rejection *Rejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, TooLarge, rejection.Reason)
	assert.Equal(t, "FILE IS TOO LARGE. MAX SIZE IS 10 MIB.", err.Error())
	assert.True(t, IsRejection(err))
}

func TestAcceptRejectsEmpty(t *testing.T) {
	_, err := DefaultPolicy().Accept("none.jpg", nil)
	var rejection *Rejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, Empty, rejection.Reason)
}

func TestLoadChecksSizeBeforeReading(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "huge.jpg")
	require.NoError(t, os.WriteFile(path, append(jpegHeader, make([]byte, 2048)...), 0o644))

	_, err := Policy{MaxBytes: 1024}.Load(path)

	var rejection *Rejection
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, TooLarge, rejection.Reason)
	assert.Equal(t, "FILE IS TOO LARGE. MAX SIZE IS 1.0 KIB.", err.Error())
}

func TestLoadMissingFileIsNotARejection(t *testing.T) {
	_, err := DefaultPolicy().Load(filepath.Join(t.TempDir(), "missing.jpg"))
	require.Error(t, err)
	assert.False(t, IsRejection(err))
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, []string{".jpg", ".jpeg", ".png"}, DefaultPolicy().Extensions())
}
