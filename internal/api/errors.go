// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// =============================================================================
// ERROR TAXONOMY
// =============================================================================

// Kind classifies a transport failure into the small set of categories
// the UI can explain to the user.
type Kind int

const (
	// KindUnknown covers anything the classifier cannot place.
	KindUnknown Kind = iota
	// KindNetwork is a connection-level failure (refused, reset, DNS).
	KindNetwork
	// KindTimeout is an elapsed deadline, including stream idle timeouts.
	KindTimeout
	// KindRateLimit is an HTTP 429 or equivalent backend throttle.
	KindRateLimit
	// KindServer is a 5xx response or a backend-reported internal error.
	KindServer
)

// String returns the taxonomy name used in logs and state files.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindRateLimit:
		return "rate_limit"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// MessageKey returns the i18n catalog key for the user-facing explanation.
func (k Kind) MessageKey() string {
	switch k {
	case KindNetwork:
		return "error.network"
	case KindTimeout:
		return "error.timeout"
	case KindRateLimit:
		return "error.rate_limit"
	case KindServer:
		return "error.server"
	default:
		return "error.unknown"
	}
}

// Error variables for common backend failures.
var (
	// ErrNotConfigured indicates the backend base URL is not set.
	ErrNotConfigured = errors.New("backend not configured")

	// ErrAuthFailed indicates the request was rejected even after a
	// token refresh attempt.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrResponseTooLarge indicates the response body exceeded the
	// size limit and was discarded.
	ErrResponseTooLarge = errors.New("response too large")
)

// ChatError is a classified transport error. The Message field carries
// the raw backend text for logging; the UI renders Kind.MessageKey()
// through the localizer instead.
type ChatError struct {
	Kind      Kind
	Status    int // HTTP status when known, 0 otherwise
	Message   string
	Retryable bool
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("chat error [%s] (HTTP %d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("chat error [%s]: %s", e.Kind, e.Message)
}

// MessageKey returns the i18n key for this error's category.
func (e *ChatError) MessageKey() string { return e.Kind.MessageKey() }

// =============================================================================
// CLASSIFICATION
// =============================================================================

// ClassifyStatus maps an HTTP status code and response text to a ChatError.
// Transport categories default to retryable; client errors other than
// timeout and throttling do not, so a blocked request is not resubmitted
// verbatim.
func ClassifyStatus(status int, message string) *ChatError {
	switch {
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return &ChatError{Kind: KindTimeout, Status: status, Message: message, Retryable: true}
	case status == http.StatusTooManyRequests:
		return &ChatError{Kind: KindRateLimit, Status: status, Message: message, Retryable: true}
	case status >= 500:
		return &ChatError{Kind: KindServer, Status: status, Message: message, Retryable: true}
	case status >= 400:
		return &ChatError{Kind: KindUnknown, Status: status, Message: message, Retryable: false}
	default:
		return &ChatError{Kind: KindUnknown, Status: status, Message: message, Retryable: true}
	}
}

// classifyText buckets an error string by substring. The backend's SSE
// error events carry free-form text, so this is the only signal available
// once streaming has begun.
func classifyText(message string) Kind {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "timeout") ||
		strings.Contains(lower, "timed out") ||
		strings.Contains(lower, "deadline exceeded"):
		return KindTimeout
	case strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests") ||
		strings.Contains(lower, "429"):
		return KindRateLimit
	case strings.Contains(lower, "connection") ||
		strings.Contains(lower, "network") ||
		strings.Contains(lower, "refused") ||
		strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "broken pipe") ||
		strings.Contains(lower, "reset by peer"):
		return KindNetwork
	case strings.Contains(lower, "internal server") ||
		strings.Contains(lower, "server error") ||
		strings.Contains(lower, "bad gateway") ||
		strings.Contains(lower, "unavailable") ||
		strings.Contains(lower, "500") ||
		strings.Contains(lower, "502") ||
		strings.Contains(lower, "503"):
		return KindServer
	default:
		return KindUnknown
	}
}

// ClassifyMessage builds a ChatError from backend-reported error text.
// Everything that reaches the user through this path is retryable: the
// stream already failed, and resubmitting is the only recovery.
func ClassifyMessage(message string) *ChatError {
	return &ChatError{
		Kind:      classifyText(message),
		Message:   message,
		Retryable: true,
	}
}

// ClassifyErr wraps a Go-level transport error (dial failure, cut
// connection, context deadline) into the taxonomy.
func ClassifyErr(err error) *ChatError {
	if err == nil {
		return nil
	}
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce
	}
	return &ChatError{
		Kind:      classifyText(err.Error()),
		Message:   err.Error(),
		Retryable: true,
	}
}
