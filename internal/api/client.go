// Package api talks to the face restoration inference service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultTimeout   = 5 * time.Minute
	maxResponseBytes = 64 << 20
	fileField        = "file"
)

// Upload is the single image carried by an enhancement request.
type Upload struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Config captures the runtime settings required to reach the service.
type Config struct {
	URL     string
	Timeout time.Duration
}

// Client posts images to the enhancement endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     logrus.FieldLogger
	newID      func() string
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Its own Timeout is left as is;
// the request deadline still applies.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRequestIDs overrides request ID generation (useful for tests).
func WithRequestIDs(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// NewClient constructs a client for the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.URL = strings.TrimSpace(cfg.URL)

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{},
		logger:     discard,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeout returns the upper bound applied to every request.
func (c *Client) Timeout() time.Duration {
	return c.cfg.Timeout
}

// Enhance uploads one image and returns the decoded result. A response that
// declares failure is returned as a *LogicalError; everything else that prevents
// a usable result is a *StatusError or *TransportError.
func (c *Client) Enhance(ctx context.Context, upload Upload) (*EnhancementResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	requestID := c.newID()
	log := c.logger.WithFields(logrus.Fields{
		"request_id": requestID,
		"file":       upload.Name,
		"bytes":      len(upload.Data),
	})

	body, contentType, err := encodeUpload(upload)
	if err != nil {
		return nil, &TransportError{Op: "encode", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, body)
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	log.Info("Submitting image for enhancement")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("Enhancement request failed")
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &TransportError{Op: "post", Timeout: c.cfg.Timeout, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return nil, &TransportError{Op: "read response", Timeout: c.cfg.Timeout, Err: err}
	}

	log = log.WithFields(logrus.Fields{
		"status":     resp.StatusCode,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		log.WithField("detail", eb.Detail).Warn("Enhancement service returned an error status")
		return nil, &StatusError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(eb.Detail)}
	}

	var result EnhancementResult
	if err := json.Unmarshal(raw, &result); err != nil {
		log.WithError(err).Warn("Enhancement response was not valid JSON")
		return nil, &TransportError{Op: "decode response", Err: err}
	}

	if !result.Success {
		log.WithField("message", result.Message).Info("Enhancement service declined the image")
		return nil, &LogicalError{Message: result.Message}
	}
	if strings.TrimSpace(result.ImageData) == "" {
		return nil, &TransportError{Op: "decode response", Err: ErrEmptyImage}
	}

	log.WithFields(logrus.Fields{
		"psnr":               result.Metrics.PSNR,
		"ssim":               result.Metrics.SSIM,
		"lpips":              result.Metrics.LPIPS,
		"identity_score":     result.Metrics.IdentityScore,
		"processing_time_ms": result.ProcessingTimeMs,
	}).Info("Enhancement completed")

	return &result, nil
}

func encodeUpload(upload Upload) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fileField, sanitizeFilename(upload.Name)))
	mime := upload.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	header.Set("Content-Type", mime)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(upload.Data); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "image"
	}
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", "", "\n", "").Replace(name)
}
