package checks

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

// HeaderSpec describes one expected security header.
type HeaderSpec struct {
	Name           string
	Severity       finding.Severity
	Description    string
	Recommendation string
}

// SecurityHeaders is checked in this order.
var SecurityHeaders = []HeaderSpec{
	{"X-Frame-Options", finding.Medium, "Protects against clickjacking attacks", "Set to DENY or SAMEORIGIN"},
	{"X-Content-Type-Options", finding.Medium, "Prevents MIME type sniffing", "Set to nosniff"},
	{"Strict-Transport-Security", finding.High, "Enforces HTTPS connections", "Set with max-age and includeSubDomains"},
	{"Content-Security-Policy", finding.High, "Prevents XSS and injection attacks", "Implement a restrictive CSP policy"},
	{"X-XSS-Protection", finding.Low, "Legacy XSS filter protection", "Set to 1; mode=block"},
	{"Referrer-Policy", finding.Low, "Controls referrer information", "Set to no-referrer or strict-origin-when-cross-origin"},
	{"Permissions-Policy", finding.Low, "Controls browser features and APIs", "Restrict unnecessary features"},
}

// MissingHeaderPrefix starts the type of every missing-header finding.
const MissingHeaderPrefix = "Missing Security Header: "

// CheckHeaders reports each absent security header.
func CheckHeaders(h http.Header) []finding.Finding {
	var out []finding.Finding
	for _, spec := range SecurityHeaders {
		if h.Get(spec.Name) != "" {
			continue
		}
		out = append(out, finding.Finding{
			Type:           MissingHeaderPrefix + spec.Name,
			Severity:       spec.Severity,
			Category:       "Insecure Headers",
			Description:    spec.Description,
			Recommendation: spec.Recommendation,
		})
	}
	return out
}

var serverMarkers = []string{"/", "Apache", "nginx", "IIS"}

// CheckServerDisclosure reports a Server header that names a product or
// version.
func CheckServerDisclosure(h http.Header) []finding.Finding {
	server := h.Get("Server")
	if server == "" {
		return nil
	}
	for _, m := range serverMarkers {
		if strings.Contains(server, m) {
			return []finding.Finding{{
				Type:           "Server Version Disclosure",
				Severity:       finding.Low,
				Category:       "Information Disclosure",
				Description:    fmt.Sprintf("Server version disclosed: %s", server),
				Evidence:       map[string]interface{}{"server": server},
				Recommendation: "Remove version information from Server header",
			}}
		}
	}
	return nil
}

// CookieIssue lists what one cookie is missing.
type CookieIssue struct {
	Name   string   `json:"name" yaml:"name"`
	Issues []string `json:"issues" yaml:"issues"`
}

func cookieIssues(c *http.Cookie) []string {
	var issues []string
	if !c.Secure {
		issues = append(issues, "Missing Secure flag")
	}
	if !c.HttpOnly {
		issues = append(issues, "Missing HttpOnly flag")
	}
	if c.SameSite == 0 {
		issues = append(issues, "Missing SameSite attribute")
	}
	return issues
}

// CheckCookies reports cookies set without Secure, HttpOnly or SameSite, as
// one finding listing every offending cookie.
func CheckCookies(cookies []*http.Cookie) []finding.Finding {
	var bad []CookieIssue
	for _, c := range cookies {
		if issues := cookieIssues(c); len(issues) > 0 {
			bad = append(bad, CookieIssue{Name: c.Name, Issues: issues})
		}
	}
	if len(bad) == 0 {
		return nil
	}
	return []finding.Finding{{
		Type:           "Insecure Cookie Configuration",
		Severity:       finding.Medium,
		Description:    fmt.Sprintf("Found %d cookies with security issues", len(bad)),
		Evidence:       bad,
		Recommendation: "Set Secure, HttpOnly, and SameSite flags on all cookies",
	}}
}
