package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"
)

// =============================================================================
// ErrorType Tests
// =============================================================================

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{Unknown, "unknown"},
		{Network, "network"},
		{Timeout, "timeout"},
		{TLS, "tls"},
		{ServerError, "server_error"},
		{ClientError, "client_error"},
		{Parse, "parse"},
		{Cancelled, "cancelled"},
		{InvalidTarget, "invalid_target"},
		{SignatureLoad, "signature_load"},
		{ClassifierUnavailable, "classifier_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.errType.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorType_IsFatal(t *testing.T) {
	for _, et := range []ErrorType{Unknown, Network, Timeout, TLS, Parse, SignatureLoad, ClassifierUnavailable} {
		if et.IsFatal() {
			t.Errorf("%s.IsFatal() = true, want false", et)
		}
	}
	if !InvalidTarget.IsFatal() {
		t.Error("InvalidTarget.IsFatal() = false, want true")
	}
}

func TestErrorType_IsFetchFailure(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    bool
	}{
		{Network, true},
		{Timeout, true},
		{TLS, true},
		{Cancelled, true},
		{ServerError, false},
		{ClientError, false},
		{SignatureLoad, false},
	}

	for _, tt := range tests {
		t.Run(tt.errType.String(), func(t *testing.T) {
			if got := tt.errType.IsFetchFailure(); got != tt.want {
				t.Errorf("IsFetchFailure() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// ScanError Tests
// =============================================================================

func TestScanError_Error(t *testing.T) {
	err := New(Network, "https://example.com", "fetch", "connection failed", nil)

	errStr := err.Error()
	for _, want := range []string{"network", "fetch", "https://example.com", "connection failed"} {
		if !strings.Contains(errStr, want) {
			t.Errorf("Error() = %s, should contain %q", errStr, want)
		}
	}
}

func TestScanError_Error_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(Network, "https://example.com", "fetch", "connection failed", cause)

	if !strings.Contains(err.Error(), "underlying error") {
		t.Errorf("Error() = %s, should contain cause", err.Error())
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestScanError_Is(t *testing.T) {
	err1 := New(Network, "https://example.com", "fetch", "failed", nil)
	err2 := New(Network, "https://other.com", "request", "timeout", nil)
	err3 := New(Timeout, "https://example.com", "fetch", "timeout", nil)

	if !errors.Is(err1, err2) {
		t.Error("Errors with same type should match")
	}
	if errors.Is(err1, err3) {
		t.Error("Errors with different types should not match")
	}
}

func TestNewInvalidTargetError(t *testing.T) {
	err := NewInvalidTargetError("::::", "missing host", nil)

	if err.Type != InvalidTarget {
		t.Errorf("Type = %v, want InvalidTarget", err.Type)
	}
	if !IsInvalidTarget(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsInvalidTarget() should see through wrapping")
	}
}

func TestNewSignatureLoadError(t *testing.T) {
	err := NewSignatureLoadError("/tmp/cve_db.json", "unparsable", errors.New("bad json"))

	if err.Type != SignatureLoad {
		t.Errorf("Type = %v, want SignatureLoad", err.Type)
	}
	if err.URL != "/tmp/cve_db.json" {
		t.Errorf("URL = %q, want the table path", err.URL)
	}
}

// =============================================================================
// Categorize Tests
// =============================================================================

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"context canceled", context.Canceled, Cancelled},
		{"canceled message", errors.New("context canceled"), Cancelled},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("refused")}, Network},
		{"dns", &net.DNSError{Err: "no such host", Name: "nowhere.invalid"}, Network},
		{"tls message", errors.New("tls: handshake failure"), TLS},
		{"x509 message", errors.New("x509: certificate signed by unknown authority"), TLS},
		{"unknown", errors.New("some random error"), Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(tt.err, "https://example.com")
			if got.Type != tt.want {
				t.Errorf("Categorize() type = %v, want %v", got.Type, tt.want)
			}
		})
	}
}

func TestCategorize_ScanError(t *testing.T) {
	original := New(Network, "https://example.com", "fetch", "failed", nil)
	if got := Categorize(original, "https://example.com"); got != original {
		t.Error("Should return same ScanError")
	}
}

func TestCategorize_Nil(t *testing.T) {
	if got := Categorize(nil, "https://example.com"); got != nil {
		t.Error("Should return nil for nil error")
	}
}

func TestNewFetchError(t *testing.T) {
	err := NewFetchError("https://example.com", context.DeadlineExceeded)
	if err.Type != Timeout {
		t.Errorf("Type = %v, want Timeout", err.Type)
	}
	if !err.Type.IsFetchFailure() {
		t.Error("fetch errors should be fetch failures")
	}
}

// =============================================================================
// CategorizeHTTPStatus Tests
// =============================================================================

func TestCategorizeHTTPStatus(t *testing.T) {
	tests := []struct {
		status   int
		wantType ErrorType
		wantNil  bool
	}{
		{200, Unknown, true},
		{302, Unknown, true},
		{404, ClientError, false},
		{403, ClientError, false},
		{500, ServerError, false},
		{503, ServerError, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.status), func(t *testing.T) {
			got := CategorizeHTTPStatus(tt.status, "https://example.com")
			if tt.wantNil {
				if got != nil {
					t.Errorf("CategorizeHTTPStatus(%d) = %v, want nil", tt.status, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("CategorizeHTTPStatus(%d) = nil", tt.status)
			}
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if GetStatusCode(got) != tt.status {
				t.Errorf("GetStatusCode() = %d, want %d", GetStatusCode(got), tt.status)
			}
		})
	}
}

func TestGetErrorType(t *testing.T) {
	if got := GetErrorType(errors.New("plain")); got != Unknown {
		t.Errorf("GetErrorType(plain) = %v, want Unknown", got)
	}
	wrapped := fmt.Errorf("outer: %w", New(Parse, "", "yaml", "bad", nil))
	if got := GetErrorType(wrapped); got != Parse {
		t.Errorf("GetErrorType(wrapped) = %v, want Parse", got)
	}
}
