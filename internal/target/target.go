// Package target turns user input into the canonical scan target.
package target

import (
	"net/url"
	"strings"

	scanerrors "github.com/PentesterFlow/OpenScanner/internal/errors"
)

// Target is the resolved origin of a scan.
type Target struct {
	Origin *url.URL
	Host   string // lower-cased hostname without port
}

// String returns the origin URL.
func (t Target) String() string {
	if t.Origin == nil {
		return ""
	}
	return t.Origin.String()
}

// IsHTTPS reports whether the origin uses TLS.
func (t Target) IsHTTPS() bool {
	return t.Origin != nil && t.Origin.Scheme == "https"
}

// Resolve parses raw into a Target, defaulting the scheme to https.
func Resolve(raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, scanerrors.NewInvalidTargetError(raw, "empty target", nil)
	}

	lower := strings.ToLower(trimmed)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		trimmed = "https://" + trimmed
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Target{}, scanerrors.NewInvalidTargetError(raw, "unparsable URL", err)
	}
	u.Scheme = strings.ToLower(u.Scheme)

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Target{}, scanerrors.NewInvalidTargetError(raw, "missing host", nil)
	}
	u.Host = strings.ToLower(u.Host)
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""

	return Target{Origin: u, Host: host}, nil
}
