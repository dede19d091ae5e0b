// Package intake applies the file acceptance policy before an image reaches
// the workflow controller. Rejections carry distinct, human-readable messages.
package intake

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	MIMEJPEG = "image/jpeg"
	MIMEPNG  = "image/png"

	// DefaultMaxBytes is the upload ceiling used when none is configured.
	DefaultMaxBytes int64 = 10 * 1024 * 1024
)

// File is an accepted image ready to hand to the controller.
type File struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Size returns the file size in bytes.
func (f File) Size() int64 {
	return int64(len(f.Data))
}

// Reason classifies a rejection.
type Reason int

const (
	InvalidType Reason = iota
	TooLarge
	Empty
)

func (r Reason) String() string {
	switch r {
	case TooLarge:
		return "too_large"
	case Empty:
		return "empty"
	default:
		return "invalid_type"
	}
}

// Rejection is returned when a file does not satisfy the policy.
type Rejection struct {
	Reason   Reason
	Name     string
	MaxBytes int64
	Detected string
}

func (r *Rejection) Error() string {
	switch r.Reason {
	case TooLarge:
		return fmt.Sprintf("FILE IS TOO LARGE. MAX SIZE IS %s.", strings.ToUpper(humanize.IBytes(uint64(r.MaxBytes))))
	case Empty:
		return "FILE IS EMPTY. PLEASE CHOOSE ANOTHER IMAGE."
	default:
		return "INVALID FILE TYPE. PLEASE UPLOAD JPEG OR PNG."
	}
}

// IsRejection reports whether err is a policy rejection.
func IsRejection(err error) bool {
	var r *Rejection
	return errors.As(err, &r)
}

// Policy decides which files are accepted.
type Policy struct {
	MaxBytes int64
	Allowed  []string
}

// DefaultPolicy accepts JPEG and PNG images up to 10 MiB.
func DefaultPolicy() Policy {
	return Policy{
		MaxBytes: DefaultMaxBytes,
		Allowed:  []string{MIMEJPEG, MIMEPNG},
	}
}

// Extensions lists the file name extensions matching the allowed types, for
// dialog filters.
func (p Policy) Extensions() []string {
	var exts []string
	for _, mime := range p.Allowed {
		switch mime {
		case MIMEJPEG:
			exts = append(exts, ".jpg", ".jpeg")
		case MIMEPNG:
			exts = append(exts, ".png")
		}
	}
	return exts
}

// Accept validates data read from a file called name. The type is sniffed
// from content, not taken from the name.
func (p Policy) Accept(name string, data []byte) (File, error) {
	if len(data) == 0 {
		return File{}, &Rejection{Reason: Empty, Name: name, MaxBytes: p.maxBytes()}
	}
	if int64(len(data)) > p.maxBytes() {
		return File{}, &Rejection{Reason: TooLarge, Name: name, MaxBytes: p.maxBytes()}
	}

	detected := http.DetectContentType(data)
	if !slices.Contains(p.allowed(), detected) {
		return File{}, &Rejection{Reason: InvalidType, Name: name, MaxBytes: p.maxBytes(), Detected: detected}
	}

	return File{
		Name:     filepath.Base(name),
		MIMEType: detected,
		Data:     data,
	}, nil
}

// Load reads path and applies Accept. The size is checked from the file info
// before reading so oversized files are never loaded.
func (p Policy) Load(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > p.maxBytes() {
		return File{}, &Rejection{Reason: TooLarge, Name: path, MaxBytes: p.maxBytes()}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read image: %w", err)
	}
	return p.Accept(path, data)
}

// Limit is the effective maximum file size in bytes.
func (p Policy) Limit() int64 {
	return p.maxBytes()
}

func (p Policy) maxBytes() int64 {
	if p.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return p.MaxBytes
}

func (p Policy) allowed() []string {
	if len(p.Allowed) == 0 {
		return []string{MIMEJPEG, MIMEPNG}
	}
	return p.Allowed
}
