// Package errors provides the error taxonomy for the scanner.
package errors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ErrorType categorizes errors for handling decisions.
type ErrorType int

const (
	// Unknown is an uncategorized error.
	Unknown ErrorType = iota
	// Network represents network-related errors (DNS, connection).
	Network
	// Timeout represents timeout errors.
	Timeout
	// TLS represents handshake and certificate failures.
	TLS
	// ServerError represents 5xx responses.
	ServerError
	// ClientError represents 4xx responses.
	ClientError
	// Parse represents parsing errors (HTML, JSON, YAML).
	Parse
	// Cancelled represents context cancellation.
	Cancelled
	// InvalidTarget means the scan input cannot be turned into a URL with a host.
	InvalidTarget
	// SignatureLoad means a static signature table is missing or corrupt.
	SignatureLoad
	// ClassifierUnavailable means the statistical classifier could not be used.
	ClassifierUnavailable
)

// String returns the string representation of ErrorType.
func (t ErrorType) String() string {
	switch t {
	case Network:
		return "network"
	case Timeout:
		return "timeout"
	case TLS:
		return "tls"
	case ServerError:
		return "server_error"
	case ClientError:
		return "client_error"
	case Parse:
		return "parse"
	case Cancelled:
		return "cancelled"
	case InvalidTarget:
		return "invalid_target"
	case SignatureLoad:
		return "signature_load"
	case ClassifierUnavailable:
		return "classifier_unavailable"
	default:
		return "unknown"
	}
}

// IsFatal reports whether errors of this type abort the whole scan.
func (t ErrorType) IsFatal() bool {
	return t == InvalidTarget
}

// IsFetchFailure reports whether the type describes a single request that
// could not produce a response.
func (t ErrorType) IsFetchFailure() bool {
	switch t {
	case Network, Timeout, TLS, Cancelled, Unknown:
		return true
	default:
		return false
	}
}

// ScanError represents a categorized scanner error.
type ScanError struct {
	Type       ErrorType
	URL        string
	Operation  string
	Message    string
	Cause      error
	StatusCode int
}

// Error implements the error interface.
func (e *ScanError) Error() string {
	target := e.URL
	if target == "" {
		target = "-"
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s error during %s on %s: %s (caused by: %v)",
			e.Type.String(), e.Operation, target, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s error during %s on %s: %s",
		e.Type.String(), e.Operation, target, e.Message)
}

// Unwrap returns the underlying error.
func (e *ScanError) Unwrap() error {
	return e.Cause
}

// Is matches another ScanError of the same type.
func (e *ScanError) Is(target error) bool {
	t, ok := target.(*ScanError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// New creates a new ScanError.
func New(errType ErrorType, url, operation, message string, cause error) *ScanError {
	return &ScanError{
		Type:      errType,
		URL:       url,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// NewInvalidTargetError creates an error for unusable scan input.
func NewInvalidTargetError(raw, reason string, cause error) *ScanError {
	return New(InvalidTarget, raw, "resolve_target", reason, cause)
}

// NewFetchError wraps a transport failure for a single request.
func NewFetchError(url string, cause error) *ScanError {
	return Categorize(cause, url)
}

// NewSignatureLoadError creates an error for a missing or corrupt table.
func NewSignatureLoadError(path, reason string, cause error) *ScanError {
	return New(SignatureLoad, path, "load_signatures", reason, cause)
}

// NewClassifierUnavailableError reports that the statistical model cannot be used.
func NewClassifierUnavailableError(reason string) *ScanError {
	return New(ClassifierUnavailable, "", "classify", reason, nil)
}

// NewParseError creates a parse error.
func NewParseError(url, operation string, cause error) *ScanError {
	return New(Parse, url, operation, "parsing failed", cause)
}

// NewCancelledError creates a cancelled error.
func NewCancelledError(url, operation string) *ScanError {
	return New(Cancelled, url, operation, "operation cancelled", context.Canceled)
}

// Categorize determines the error type from a generic error.
func Categorize(err error, url string) *ScanError {
	if err == nil {
		return nil
	}

	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr
	}

	if errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "context canceled") {
		return NewCancelledError(url, "request")
	}

	if isTimeout(err) {
		return New(Timeout, url, "request", "request timed out", err)
	}

	if isTLSError(err) {
		return New(TLS, url, "request", "tls failure", err)
	}

	if isNetworkError(err) {
		return New(Network, url, "request", "network failure", err)
	}

	return New(Unknown, url, "request", err.Error(), err)
}

// CategorizeHTTPStatus creates an error from an HTTP status code. Responses
// with such codes are still evidence; callers use this for metrics only.
func CategorizeHTTPStatus(statusCode int, url string) *ScanError {
	switch {
	case statusCode >= 500:
		err := New(ServerError, url, "request", fmt.Sprintf("server returned %d", statusCode), nil)
		err.StatusCode = statusCode
		return err
	case statusCode >= 400:
		err := New(ClientError, url, "request", fmt.Sprintf("client error %d", statusCode), nil)
		err.StatusCode = statusCode
		return err
	default:
		return nil
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

func isTLSError(err error) bool {
	var certErr *tls.CertificateVerificationError
	if errors.As(err, &certErr) {
		return true
	}
	var unknownAuth x509.UnknownAuthorityError
	if errors.As(err, &unknownAuth) {
		return true
	}
	var hostErr x509.HostnameError
	if errors.As(err, &hostErr) {
		return true
	}
	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "tls:") || strings.Contains(errStr, "x509:")
}

func isNetworkError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ETIMEDOUT) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}

	errStr := err.Error()
	return strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "EOF")
}

// GetErrorType extracts the error type from an error.
func GetErrorType(err error) ErrorType {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.Type
	}
	return Unknown
}

// IsInvalidTarget reports whether err is an InvalidTarget error.
func IsInvalidTarget(err error) bool {
	return GetErrorType(err) == InvalidTarget
}

// GetStatusCode extracts the status code from an error.
func GetStatusCode(err error) int {
	var scanErr *ScanError
	if errors.As(err, &scanErr) {
		return scanErr.StatusCode
	}
	return 0
}
