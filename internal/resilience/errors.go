package resilience

import (
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
)

// FailureClass buckets a provider failure for fallback decisions.
type FailureClass string

const (
	// FailureQuota covers rate-limit and payment-required rejections.
	FailureQuota FailureClass = "QUOTA_EXCEEDED"
	// FailureAuth covers invalid or expired credentials.
	FailureAuth FailureClass = "AUTH_INVALID"
	// FailureOther covers timeouts, 5xx, and everything else.
	FailureOther FailureClass = "OTHER"
)

// ErrNotConfigured is returned by providers missing credentials. It is a
// configuration error: surfaced synchronously, never retried.
var ErrNotConfigured = eris.New("provider not configured")

// ProviderError wraps a failed provider call with its classification.
type ProviderError struct {
	Provider string
	Class    FailureClass
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	return e.Provider + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError classifies err by HTTP status and wraps it.
func NewProviderError(provider string, status int, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Class:    ClassifyStatus(status),
		Status:   status,
		Err:      err,
	}
}

// ClassifyStatus maps an HTTP status code to a failure class.
func ClassifyStatus(status int) FailureClass {
	switch status {
	case 429, 402:
		return FailureQuota
	case 401, 403:
		return FailureAuth
	default:
		return FailureOther
	}
}

// Classify extracts the failure class from an error chain. Unclassified
// errors are FailureOther.
func Classify(err error) FailureClass {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Class
	}
	return FailureOther
}

// IsQuota reports whether the error chain contains a quota rejection.
func IsQuota(err error) bool {
	return Classify(err) == FailureQuota
}

// TransientError wraps an error that is safe to retry (timeout, 5xx,
// network failure).
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps an error as transient with an optional HTTP status.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// IsTransient returns true if the error (or any error in its chain) is a
// TransientError, or if it matches common transient network patterns.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	msg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"no such host",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	}
	for _, p := range transientPatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}

	return false
}

// IsTransientHTTPStatus returns true if the status code indicates a
// server-side issue that is safe to retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
