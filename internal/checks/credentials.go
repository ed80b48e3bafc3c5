package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/parser"
	"github.com/PentesterFlow/OpenScanner/internal/scope"
	"github.com/PentesterFlow/OpenScanner/internal/target"
)

// LoginPaths are fetched relative to the origin to look for sign-in forms.
var LoginPaths = []string{"/login", "/admin", "/signin", "/auth", "/account/login"}

// Security labels for a login page.
const (
	LabelStrong = "Strong"
	LabelMedium = "Medium"
	LabelWeak   = "Weak"
)

// LoginIssue is one weakness on a login page.
type LoginIssue struct {
	Issue    string           `json:"issue" yaml:"issue"`
	Severity finding.Severity `json:"severity" yaml:"severity"`
	Detail   string           `json:"detail" yaml:"detail"`
}

// LoginPage is a page that asks for a password.
type LoginPage struct {
	URL    string       `json:"url" yaml:"url"`
	Label  string       `json:"security_label" yaml:"security_label"`
	Issues []LoginIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// CheckCredentials fetches each login path and inspects any page that
// carries a password field.
func (r *Runner) CheckCredentials(ctx context.Context, t target.Target) ([]LoginPage, []finding.Finding) {
	var pages []LoginPage
	var out []finding.Finding
	for _, path := range LoginPaths {
		if ctx.Err() != nil {
			break
		}
		u, err := scope.ResolveURL(t.String(), path)
		if err != nil {
			continue
		}
		resp, err := r.client.Get(ctx, u)
		if err != nil || resp.StatusCode != 200 {
			continue
		}
		page, ok := InspectLoginPage(u, t.IsHTTPS(), resp.Body, resp.Header.Values("Set-Cookie"))
		if !ok {
			continue
		}
		r.log.Event(logger.DebugLevel).
			Str("url", u).
			Str("label", page.Label).
			Int("issues", len(page.Issues)).
			Msg("Login page inspected")
		pages = append(pages, page)
		out = append(out, page.Findings()...)
	}
	return pages, out
}

// InspectLoginPage parses body and, if it holds a password form, grades it.
// setCookies are the raw Set-Cookie values of the response.
func InspectLoginPage(pageURL string, https bool, body string, setCookies []string) (LoginPage, bool) {
	p, err := parser.NewHTMLParser(pageURL)
	if err != nil {
		return LoginPage{}, false
	}
	doc, err := p.Parse(body)
	if err != nil {
		return LoginPage{}, false
	}

	var login *parser.Form
	for i := range doc.Forms {
		if doc.Forms[i].HasPassword() {
			login = &doc.Forms[i]
			break
		}
	}
	if login == nil {
		return LoginPage{}, false
	}

	page := LoginPage{URL: pageURL}
	if !https {
		page.Issues = append(page.Issues, LoginIssue{
			Issue:    "Password form not over HTTPS",
			Severity: finding.Critical,
			Detail:   "Credentials sent over unencrypted connection",
		})
	}
	if !hasTokenField(*login) {
		page.Issues = append(page.Issues, LoginIssue{
			Issue:    "No CSRF token found",
			Severity: finding.High,
			Detail:   "Login form may be vulnerable to CSRF attacks",
		})
	}
	for _, raw := range setCookies {
		page.Issues = append(page.Issues, rawCookieIssues(raw)...)
	}
	page.Label = label(len(page.Issues))
	return page, true
}

func hasTokenField(f parser.Form) bool {
	if f.HasCSRF {
		return true
	}
	for _, field := range f.Fields {
		name := strings.ToLower(field.Name)
		if strings.Contains(name, "csrf") || strings.Contains(name, "token") {
			return true
		}
	}
	return false
}

func rawCookieIssues(raw string) []LoginIssue {
	lower := strings.ToLower(raw)
	name := raw
	if i := strings.IndexByte(raw, '='); i >= 0 {
		name = raw[:i]
	}
	var out []LoginIssue
	if !strings.Contains(lower, "secure") {
		out = append(out, LoginIssue{"Cookie missing Secure flag", finding.Medium, "Cookie: " + name})
	}
	if !strings.Contains(lower, "httponly") {
		out = append(out, LoginIssue{"Cookie missing HttpOnly flag", finding.Medium, "Cookie: " + name})
	}
	if !strings.Contains(lower, "samesite") {
		out = append(out, LoginIssue{"Cookie missing SameSite attribute", finding.Low, "Cookie: " + name})
	}
	return out
}

func label(issues int) string {
	switch {
	case issues >= 3:
		return LabelWeak
	case issues >= 2:
		return LabelMedium
	default:
		return LabelStrong
	}
}

// Findings turns every issue on the page into a finding.
func (p LoginPage) Findings() []finding.Finding {
	out := make([]finding.Finding, 0, len(p.Issues))
	for _, is := range p.Issues {
		out = append(out, finding.Finding{
			Type:        "Credential Security",
			Severity:    is.Severity,
			Category:    "Authentication",
			Description: fmt.Sprintf("%s at %s", is.Issue, p.URL),
			Evidence: map[string]interface{}{
				"url":            p.URL,
				"detail":         is.Detail,
				"security_label": p.Label,
			},
			Recommendation: "Implement proper credential and session security",
		})
	}
	return out
}
