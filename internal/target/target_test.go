package target

import (
	"testing"

	scanerrors "github.com/PentesterFlow/OpenScanner/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		raw        string
		wantOrigin string
		wantHost   string
	}{
		{"example.com", "https://example.com/", "example.com"},
		{"http://Example.com/app", "http://example.com/app", "example.com"},
		{"HTTPS://example.com:8443", "https://example.com:8443/", "example.com"},
		{"  example.com/path?q=1  ", "https://example.com/path?q=1", "example.com"},
		{"127.0.0.1:8080", "https://127.0.0.1:8080/", "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Resolve(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOrigin, got.String())
			assert.Equal(t, tt.wantHost, got.Host)
		})
	}
}

func TestResolve_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "https://", "http://:80", "https://%zz"} {
		t.Run(raw, func(t *testing.T) {
			_, err := Resolve(raw)
			require.Error(t, err)
			assert.True(t, scanerrors.IsInvalidTarget(err), "err = %v", err)
		})
	}
}

func TestTarget_IsHTTPS(t *testing.T) {
	tls, err := Resolve("example.com")
	require.NoError(t, err)
	assert.True(t, tls.IsHTTPS())

	plain, err := Resolve("http://example.com")
	require.NoError(t, err)
	assert.False(t, plain.IsHTTPS())
}
