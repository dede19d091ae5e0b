package api

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultImageMIME is assumed for payloads that arrive without a data-URI prefix.
const DefaultImageMIME = "image/jpeg"

// ErrEmptyImage is returned when a successful response carries no image payload.
var ErrEmptyImage = errors.New("response contained no image")

// QualityMetrics are the four similarity/fidelity scores computed by the service.
type QualityMetrics struct {
	PSNR          float64 `json:"psnr"`
	SSIM          float64 `json:"ssim"`
	LPIPS         float64 `json:"lpips"`
	IdentityScore float64 `json:"identity_score"`
}

// EnhancementResult is the decoded body of an enhancement response.
type EnhancementResult struct {
	Success          bool           `json:"success"`
	Message          string         `json:"message"`
	ImageData        string         `json:"image_base64"`
	Metrics          QualityMetrics `json:"metrics"`
	ProcessingTimeMs float64        `json:"processing_time_ms"`
}

// errorBody is the shape of non-2xx responses.
type errorBody struct {
	Detail string `json:"detail"`
}

// ProcessingTime converts the reported processing time.
func (r *EnhancementResult) ProcessingTime() time.Duration {
	return time.Duration(r.ProcessingTimeMs * float64(time.Millisecond))
}

// DataURI returns the image payload with a data-URI scheme prefix, adding one
// for raw base64 payloads.
func (r *EnhancementResult) DataURI() string {
	data := strings.TrimSpace(r.ImageData)
	if strings.HasPrefix(data, "data:image") {
		return data
	}
	return "data:" + DefaultImageMIME + ";base64," + data
}

// MIMEType reports the image type declared by the payload prefix.
func (r *EnhancementResult) MIMEType() string {
	mime, _ := splitDataURI(r.DataURI())
	return mime
}

// DecodeImage returns the raw image bytes.
func (r *EnhancementResult) DecodeImage() ([]byte, error) {
	if strings.TrimSpace(r.ImageData) == "" {
		return nil, ErrEmptyImage
	}
	_, payload := splitDataURI(r.DataURI())
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		// some encoders drop padding
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
		if err != nil {
			return nil, fmt.Errorf("decode image payload: %w", err)
		}
	}
	return raw, nil
}

// Extension returns the file extension matching the payload type, without a dot.
func (r *EnhancementResult) Extension() string {
	switch r.MIMEType() {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

func splitDataURI(uri string) (mime, payload string) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok {
		return DefaultImageMIME, uri
	}
	mime = strings.TrimPrefix(header, "data:")
	mime, _, _ = strings.Cut(mime, ";")
	if mime == "" {
		mime = DefaultImageMIME
	}
	return mime, payload
}
