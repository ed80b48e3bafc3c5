// Package scope decides which discovered URLs belong to the scan.
package scope

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// Checker admits URLs on exactly the target host that pass the pattern rules.
// Subdomains are a different host and are rejected.
type Checker struct {
	host    string
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// NewChecker creates a checker for the given lower-cased host.
func NewChecker(host string, rules Rules) (*Checker, error) {
	c := &Checker{host: strings.ToLower(host)}

	for _, p := range rules.IncludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("include pattern %q: %w", p, err)
		}
		c.include = append(c.include, re)
	}

	excludes := rules.ExcludePatterns
	if rules.DefaultExcludes {
		excludes = append(append([]string{}, DefaultExcludePatterns...), excludes...)
	}
	for _, p := range excludes {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		c.exclude = append(c.exclude, re)
	}

	return c, nil
}

// Host returns the host the checker admits.
func (c *Checker) Host() string {
	return c.host
}

// SameHost reports whether urlStr is an http(s) URL on the target host.
func (c *Checker) SameHost(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	return strings.ToLower(parsed.Hostname()) == c.host
}

// IsInScope reports whether the crawler may follow urlStr.
func (c *Checker) IsInScope(urlStr string) bool {
	if !c.SameHost(urlStr) || !IsValidURL(urlStr) {
		return false
	}

	for _, re := range c.exclude {
		if re.MatchString(urlStr) {
			return false
		}
	}

	if len(c.include) == 0 {
		return true
	}
	for _, re := range c.include {
		if re.MatchString(urlStr) {
			return true
		}
	}
	return false
}

// NormalizeURL canonicalizes a URL so equal pages compare equal.
func NormalizeURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	if (parsed.Scheme == "http" && strings.HasSuffix(parsed.Host, ":80")) ||
		(parsed.Scheme == "https" && strings.HasSuffix(parsed.Host, ":443")) {
		parsed.Host = parsed.Host[:strings.LastIndex(parsed.Host, ":")]
	}

	parsed.Fragment = ""
	parsed.RawFragment = ""

	if parsed.Path != "/" && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
		parsed.RawPath = ""
	}
	if parsed.Path == "" {
		parsed.Path = "/"
	}

	if parsed.RawQuery != "" {
		parsed.RawQuery = parsed.Query().Encode()
	}

	return parsed.String(), nil
}

// ResolveURL resolves ref against base.
func ResolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}

var staticExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".ico", ".svg", ".webp",
	".css", ".js", ".map", ".woff", ".woff2", ".ttf", ".eot",
	".pdf", ".zip", ".tar", ".gz", ".rar",
	".mp3", ".mp4", ".wav", ".avi", ".mov",
	".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
}

// IsValidURL reports whether urlStr is an absolute http(s) URL for a page
// rather than a static asset.
func IsValidURL(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}
	if parsed.Host == "" {
		return false
	}

	path := strings.ToLower(parsed.Path)
	for _, ext := range staticExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	return true
}

// StripQuery returns urlStr without query or fragment.
func StripQuery(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return urlStr
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	parsed.RawFragment = ""
	return parsed.String()
}
