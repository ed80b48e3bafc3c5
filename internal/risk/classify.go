// Package risk classifies findings, scores them and applies the correlation
// rules that raise the risk of co-occurring weaknesses.
package risk

import "strings"

// Finding categories.
const (
	CategoryXSS        = "XSS"
	CategorySQLi       = "SQL Injection"
	CategoryCSRF       = "CSRF"
	CategoryRCE        = "Remote Code Execution"
	CategoryHeaders    = "Insecure Headers"
	CategorySSL        = "SSL/TLS Issues"
	CategoryDisclosure = "Information Disclosure"
	CategoryAuth       = "Authentication"
	CategoryOther      = "Other"
)

type categoryRule struct {
	category       string
	keywords       []string
	recommendation string
}

// First match wins, so order matters.
var categoryRules = []categoryRule{
	{CategoryXSS, []string{"xss", "script", "cross-site"},
		"Implement Content Security Policy, use output encoding, and validate all user inputs"},
	{CategorySQLi, []string{"sql", "injection", "database"},
		"Use parameterized queries, implement input validation, and apply least privilege principle"},
	{CategoryCSRF, []string{"csrf", "cross-site request"},
		"Implement CSRF tokens, use SameSite cookie attribute, and validate referer headers"},
	{CategoryRCE, []string{"command", "execution", "shell"},
		"Sanitize all inputs, avoid executing user-supplied data, and implement sandboxing"},
	{CategoryHeaders, []string{"header", "csp", "hsts", "x-frame"},
		"Configure security headers properly according to OWASP recommendations"},
	{CategorySSL, []string{"ssl", "tls", "certificate", "cipher", "https"},
		"Update SSL/TLS configuration, use strong ciphers, and renew certificates"},
	{CategoryDisclosure, []string{"disclosure", "exposure", "version", "directory listing"},
		"Remove version headers, disable directory listing, and implement proper error handling"},
	{CategoryAuth, []string{"authentication", "authorization", "access control"},
		"Implement strong authentication mechanisms, use MFA, and enforce session management"},
}

const otherRecommendation = "Review security best practices and implement defense in depth"

// Categorize matches the type and description of a finding against the
// keyword table, case-insensitively.
func Categorize(typ, description string) string {
	text := strings.ToLower(typ + " " + description)
	for _, r := range categoryRules {
		for _, kw := range r.keywords {
			if strings.Contains(text, kw) {
				return r.category
			}
		}
	}
	return CategoryOther
}

// Recommendation returns the canned recommendation for category.
func Recommendation(category string) string {
	for _, r := range categoryRules {
		if r.category == category {
			return r.recommendation
		}
	}
	return otherRecommendation
}
