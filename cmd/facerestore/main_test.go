package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"face-restore-studio/internal/config"
	"face-restore-studio/internal/intake"
	"face-restore-studio/internal/preview"
)

// decodeOpener builds previews with the pure Go decoders so tests do not
// need OpenCV.
type decodeOpener struct {
	live atomic.Int64
}

type decodedHandle struct {
	img  image.Image
	live *atomic.Int64
}

func (h *decodedHandle) ID() uint64         { return 1 }
func (h *decodedHandle) Image() image.Image { return h.img }
func (h *decodedHandle) Size() image.Point  { return h.img.Bounds().Size() }
func (h *decodedHandle) Release()           { h.live.Add(-1) }

func (o *decodeOpener) Open(file intake.File) (preview.Handle, error) {
	img, err := preview.Decode(file.Data)
	if err != nil {
		return nil, err
	}
	o.live.Add(1)
	return &decodedHandle{img: img, live: &o.live}, nil
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	return buf.Bytes()
}

type cliEnv struct {
	configPath string
	imagePath  string
	outDir     string
	opener     *decodeOpener
	requests   atomic.Int32
}

func setupCLIEnv(t *testing.T, handler http.HandlerFunc) *cliEnv {
	t.Helper()
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv("HOME", t.TempDir())

	env := &cliEnv{opener: &decodeOpener{}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.requests.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	base := t.TempDir()
	env.configPath = filepath.Join(base, "config.toml")
	env.imagePath = filepath.Join(base, "face.png")
	env.outDir = filepath.Join(base, "out")

	cfg := fmt.Sprintf("[service]\nbase_url = %q\ntimeout_seconds = 10\n", server.URL+"/api/v1")
	require.NoError(t, os.WriteFile(env.configPath, []byte(cfg), 0o644))
	require.NoError(t, os.WriteFile(env.imagePath, pngBytes(t), 0o644))
	return env
}

func (env *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(func(c *commandContext) {
		c.newOpener = func(logrus.FieldLogger) preview.Opener { return env.opener }
	})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func successHandler(t *testing.T) http.HandlerFunc {
	payload := base64.StdEncoding.EncodeToString(pngBytes(t))
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/images/enhance" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if _, _, err := r.FormFile("file"); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success":            true,
			"message":            "Image enhanced successfully.",
			"image_base64":       "data:image/png;base64," + payload,
			"metrics":            map[string]float64{"psnr": 32.1, "ssim": 0.85, "lpips": 0.21, "identity_score": 0.74},
			"processing_time_ms": 1234.0,
		})
	}
}

func TestEnhanceCommandWritesResult(t *testing.T) {
	env := setupCLIEnv(t, successHandler(t))

	out, err := env.run(t, "enhance", env.imagePath, "--out", env.outDir)
	require.NoError(t, err)

	assert.Contains(t, out, "PSNR (DB)")
	assert.Contains(t, out, "32.10")
	assert.Contains(t, out, "FACE VERIFICATION")
	assert.Contains(t, out, "Processed in 1.23s")
	assert.Contains(t, out, "Saved ")

	entries, err := os.ReadDir(env.outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "RESTORED_FACE_"))
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".png"))

	assert.Equal(t, int32(1), env.requests.Load())
	assert.Equal(t, int64(0), env.opener.live.Load(), "preview released on exit")
}

func TestEnhanceCommandNoSave(t *testing.T) {
	env := setupCLIEnv(t, successHandler(t))

	_, err := env.run(t, "enhance", env.imagePath, "--out", env.outDir, "--no-save")
	require.NoError(t, err)
	_, err = os.Stat(env.outDir)
	assert.True(t, os.IsNotExist(err))
}

func TestEnhanceCommandReportsServiceError(t *testing.T) {
	env := setupCLIEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"detail": "No face detected in the image."}`)
	})

	_, err := env.run(t, "enhance", env.imagePath, "--out", env.outDir)
	require.Error(t, err)
	assert.Equal(t, "NO FACE DETECTED IN THE IMAGE.", err.Error())
}

func TestEnhanceCommandRejectsBadFile(t *testing.T) {
	env := setupCLIEnv(t, successHandler(t))
	bad := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(bad, []byte("plain text, not an image"), 0o644))

	_, err := env.run(t, "enhance", bad)
	require.Error(t, err)
	assert.Equal(t, "INVALID FILE TYPE. PLEASE UPLOAD JPEG OR PNG.", err.Error())
	assert.Equal(t, int32(0), env.requests.Load())
}

func TestAPIURLFlagIsValidated(t *testing.T) {
	env := setupCLIEnv(t, successHandler(t))

	_, err := env.run(t, "--api-url", "ftp://example.com", "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http or https")
}

func TestConfigInitAndShow(t *testing.T) {
	t.Setenv(config.EnvAPIURL, "")
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	run := func(args ...string) (string, error) {
		cmd := newRootCommand()
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(append([]string{"--config", path}, args...))
		err := cmd.Execute()
		return out.String(), err
	}

	out, err := run("config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)

	_, err = run("config", "init")
	assert.ErrorContains(t, err, "already exists")

	_, err = run("config", "init", "--force")
	require.NoError(t, err)

	out, err = run("config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "base_url = 'http://localhost:8000/api/v1'")
	assert.Contains(t, out, "timeout_seconds = 300")
}
