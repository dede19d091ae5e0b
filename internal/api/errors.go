package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// GenericMessage is shown when no better diagnostic is available.
	GenericMessage = "AN UNEXPECTED ERROR OCCURRED"
	// ProcessingFailedMessage is shown when the service reports failure without a message.
	ProcessingFailedMessage = "PROCESSING FAILED"
)

var upper = cases.Upper(language.Und)

// Normalize applies the uniform presentation step to user-facing messages.
func Normalize(msg string) string {
	return upper.String(strings.Join(strings.Fields(msg), " "))
}

// StatusError is a non-2xx response from the service.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("enhance request: http %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("enhance request: http %d", e.StatusCode)
}

// TransportError wraps network level failures, timeouts and unparsable bodies.
type TransportError struct {
	Op      string
	Timeout time.Duration
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("enhance request: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether the failure was the request deadline.
func (e *TransportError) IsTimeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// LogicalError is a response the service answered but declared unsuccessful.
type LogicalError struct {
	Message string
}

func (e *LogicalError) Error() string {
	if e.Message == "" {
		return "enhancement failed"
	}
	return "enhancement failed: " + e.Message
}

// Message converts any enhancement error into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var logical *LogicalError
	if errors.As(err, &logical) {
		if strings.TrimSpace(logical.Message) == "" {
			return ProcessingFailedMessage
		}
		return Normalize(logical.Message)
	}

	var status *StatusError
	if errors.As(err, &status) {
		if strings.TrimSpace(status.Detail) != "" {
			return Normalize(status.Detail)
		}
		if text := http.StatusText(status.StatusCode); text != "" {
			return Normalize(fmt.Sprintf("request failed with status %d %s", status.StatusCode, text))
		}
		return Normalize(fmt.Sprintf("request failed with status %d", status.StatusCode))
	}

	if errors.Is(err, ErrEmptyImage) {
		return Normalize(ErrEmptyImage.Error())
	}

	var transport *TransportError
	if errors.As(err, &transport) {
		if transport.IsTimeout() {
			if transport.Timeout > 0 {
				return Normalize(fmt.Sprintf("request timed out after %s", transport.Timeout))
			}
			return Normalize("request timed out")
		}
		if transport.Err != nil && strings.TrimSpace(transport.Err.Error()) != "" {
			return Normalize(transport.Op + ": " + transport.Err.Error())
		}
	}

	return GenericMessage
}
