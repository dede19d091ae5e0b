package workflow

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DownloadName suggests a file name for the current result.
func (c *Controller) DownloadName(now time.Time) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Phase != Result || c.state.Result == nil {
		return "", ErrNoResult
	}
	return c.newName(now, c.state.Result.Extension()), nil
}

// WriteResult writes the restored image bytes to w.
func (c *Controller) WriteResult(w io.Writer) (int, error) {
	c.mu.Lock()
	result := c.state.Result
	phase := c.state.Phase
	c.mu.Unlock()

	if phase != Result || result == nil {
		return 0, ErrNoResult
	}
	data, err := result.DecodeImage()
	if err != nil {
		return 0, err
	}
	return w.Write(data)
}

// Download materializes the result in dir and returns the written path.
// Existing files are never overwritten.
func (c *Controller) Download(dir string, now time.Time) (string, error) {
	name, err := c.DownloadName(now)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create download: %w", err)
	}

	if _, err := c.WriteResult(f); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close download: %w", err)
	}

	c.logger.WithField("path", path).Info("Result downloaded")
	return path, nil
}

func downloadName(now time.Time, ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("RESTORED_FACE_%d_%s.%s", now.UnixMilli(), suffix, ext)
}
