package scope

import (
	"testing"
)

// =============================================================================
// Checker Tests
// =============================================================================

func TestChecker_SameHost(t *testing.T) {
	c, err := NewChecker("example.com", Rules{})
	if err != nil {
		t.Fatalf("NewChecker() error = %v", err)
	}

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/", true},
		{"http://EXAMPLE.com/a", true},
		{"https://example.com:8443/a", true},
		{"https://sub.example.com/", false},
		{"https://example.com.evil.net/", false},
		{"https://other.com/", false},
		{"ftp://example.com/", false},
		{"mailto:a@example.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := c.SameHost(tt.url); got != tt.want {
				t.Errorf("SameHost(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestChecker_IsInScope_DefaultExcludes(t *testing.T) {
	c, err := NewChecker("example.com", Rules{DefaultExcludes: true})
	if err != nil {
		t.Fatalf("NewChecker() error = %v", err)
	}

	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/products?id=1", true},
		{"https://example.com/logout", false},
		{"https://example.com/?logout=1", false},
		{"https://example.com/account/delete-account", false},
		{"https://example.com/reset-password", false},
		{"https://example.com/static/app.css", false},
		{"https://example.com/img/logo.png", false},
		{"https://sub.example.com/products", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := c.IsInScope(tt.url); got != tt.want {
				t.Errorf("IsInScope(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestChecker_IncludePatterns(t *testing.T) {
	c, err := NewChecker("example.com", Rules{IncludePatterns: []string{`/shop/`}})
	if err != nil {
		t.Fatalf("NewChecker() error = %v", err)
	}

	if !c.IsInScope("https://example.com/shop/item") {
		t.Error("URL matching include pattern should be in scope")
	}
	if c.IsInScope("https://example.com/blog/post") {
		t.Error("URL not matching include pattern should be out of scope")
	}
}

func TestNewChecker_BadPattern(t *testing.T) {
	if _, err := NewChecker("example.com", Rules{ExcludePatterns: []string{"("}}); err == nil {
		t.Error("NewChecker() should reject invalid regex")
	}
}

// =============================================================================
// URL helper Tests
// =============================================================================

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"HTTPS://Example.COM", "https://example.com/"},
		{"https://example.com:443/a/", "https://example.com/a"},
		{"http://example.com:80/a#frag", "http://example.com/a"},
		{"https://example.com/?b=2&a=1", "https://example.com/?a=1&b=2"},
		{"https://example.com:8443/", "https://example.com:8443/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if err != nil {
				t.Fatalf("NormalizeURL() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("NormalizeURL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	got, err := ResolveURL("https://example.com/a/b", "../c?x=1")
	if err != nil {
		t.Fatalf("ResolveURL() error = %v", err)
	}
	if got != "https://example.com/c?x=1" {
		t.Errorf("ResolveURL() = %v", got)
	}
}

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/page", true},
		{"https://example.com/script.js", false},
		{"https://example.com/doc.PDF", false},
		{"/relative", false},
		{"javascript:void(0)", false},
	}

	for _, tt := range tests {
		if got := IsValidURL(tt.url); got != tt.want {
			t.Errorf("IsValidURL(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestStripQuery(t *testing.T) {
	if got := StripQuery("https://example.com/p?id=1#x"); got != "https://example.com/p" {
		t.Errorf("StripQuery() = %v", got)
	}
}
