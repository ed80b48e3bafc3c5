package checks

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	scanhttp "github.com/PentesterFlow/OpenScanner/internal/http"
	"github.com/PentesterFlow/OpenScanner/internal/signatures"
	"github.com/PentesterFlow/OpenScanner/internal/target"
)

func mustResolve(t *testing.T, raw string) target.Target {
	t.Helper()
	tg, err := target.Resolve(raw)
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", raw, err)
	}
	return tg
}

func newRunner(t *testing.T, cfg Config) *Runner {
	t.Helper()
	tables, err := signatures.Default()
	if err != nil {
		t.Fatalf("signatures.Default() error = %v", err)
	}
	client := scanhttp.NewClient(scanhttp.DefaultClientConfig())
	t.Cleanup(client.Close)
	return NewRunner(client, tables, cfg, nil)
}

func byType(fs []finding.Finding, typ string) []finding.Finding {
	var out []finding.Finding
	for _, f := range fs {
		if f.Type == typ {
			out = append(out, f)
		}
	}
	return out
}

// ============================================================================
// Transport
// ============================================================================

func TestCheckTransport_NoHTTPS(t *testing.T) {
	info, fs := CheckTransport(mustResolve(t, "http://example.com"), nil, time.Now())
	if info != nil {
		t.Errorf("info = %+v, want nil", info)
	}
	if len(fs) != 1 || fs[0].Type != "No HTTPS" || fs[0].Severity != finding.High {
		t.Fatalf("findings = %+v", fs)
	}
}

func TestCheckTransport_Certificate(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ca := pkix.Name{CommonName: "Trusted CA"}
	site := pkix.Name{CommonName: "example.com"}

	tests := []struct {
		name      string
		cert      *x509.Certificate
		version   uint16
		suite     uint16
		wantTypes []string
		expirySev finding.Severity
	}{
		{
			name:    "healthy",
			cert:    &x509.Certificate{Issuer: ca, Subject: site, NotAfter: now.Add(365 * 24 * time.Hour)},
			version: tls.VersionTLS13,
			suite:   tls.TLS_AES_128_GCM_SHA256,
		},
		{
			name:      "expiring in 20 days",
			cert:      &x509.Certificate{Issuer: ca, Subject: site, NotAfter: now.Add(20 * 24 * time.Hour)},
			version:   tls.VersionTLS12,
			suite:     tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			wantTypes: []string{"SSL Certificate Expiring Soon"},
			expirySev: finding.Medium,
		},
		{
			name:      "expiring in 3 days",
			cert:      &x509.Certificate{Issuer: ca, Subject: site, NotAfter: now.Add(3 * 24 * time.Hour)},
			version:   tls.VersionTLS12,
			suite:     tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			wantTypes: []string{"SSL Certificate Expiring Soon"},
			expirySev: finding.High,
		},
		{
			name:      "self signed",
			cert:      &x509.Certificate{Issuer: site, Subject: site, NotAfter: now.Add(365 * 24 * time.Hour)},
			version:   tls.VersionTLS12,
			suite:     tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			wantTypes: []string{"Self-Signed Certificate"},
		},
		{
			name:      "legacy protocol and cipher",
			cert:      &x509.Certificate{Issuer: ca, Subject: site, NotAfter: now.Add(365 * 24 * time.Hour)},
			version:   tls.VersionTLS10,
			suite:     tls.TLS_RSA_WITH_RC4_128_SHA,
			wantTypes: []string{"Weak TLS Version", "Weak SSL Cipher"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &tls.ConnectionState{
				Version:          tt.version,
				CipherSuite:      tt.suite,
				PeerCertificates: []*x509.Certificate{tt.cert},
			}
			info, fs := CheckTransport(mustResolve(t, "https://example.com"), state, now)
			if info == nil {
				t.Fatal("info = nil")
			}
			if len(fs) != len(tt.wantTypes) {
				t.Fatalf("got %d findings %+v, want %v", len(fs), fs, tt.wantTypes)
			}
			for i, want := range tt.wantTypes {
				if fs[i].Type != want {
					t.Errorf("finding[%d].Type = %q, want %q", i, fs[i].Type, want)
				}
				if want == "SSL Certificate Expiring Soon" && fs[i].Severity != tt.expirySev {
					t.Errorf("expiry severity = %v, want %v", fs[i].Severity, tt.expirySev)
				}
			}
		})
	}
}

func TestCheckTransport_LiveTLSServer(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	client := scanhttp.NewClient(scanhttp.DefaultClientConfig())
	defer client.Close()
	resp, err := client.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	info, fs := CheckTransport(mustResolve(t, srv.URL), resp.TLS, time.Now())
	if info == nil || info.Version == "" || info.CipherSuite == "" {
		t.Fatalf("info = %+v", info)
	}
	if len(byType(fs, "Self-Signed Certificate")) != 1 {
		t.Errorf("expected self-signed finding for the test certificate, got %+v", fs)
	}
}

// ============================================================================
// Headers and cookies
// ============================================================================

func TestCheckHeaders(t *testing.T) {
	fs := CheckHeaders(http.Header{})
	if len(fs) != len(SecurityHeaders) {
		t.Fatalf("got %d findings, want %d", len(fs), len(SecurityHeaders))
	}
	if fs[0].Type != MissingHeaderPrefix+"X-Frame-Options" {
		t.Errorf("first finding = %q", fs[0].Type)
	}

	h := http.Header{}
	for _, spec := range SecurityHeaders {
		h.Set(spec.Name, "x")
	}
	h.Del("Content-Security-Policy")
	fs = CheckHeaders(h)
	if len(fs) != 1 || fs[0].Severity != finding.High || fs[0].Category != "Insecure Headers" {
		t.Errorf("findings = %+v", fs)
	}
}

func TestCheckServerDisclosure(t *testing.T) {
	tests := []struct {
		server string
		want   bool
	}{
		{"Apache/2.4.49 (Unix)", true},
		{"nginx", true},
		{"Microsoft-IIS/10.0", true},
		{"cloudflare", false},
		{"", false},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.server != "" {
			h.Set("Server", tt.server)
		}
		fs := CheckServerDisclosure(h)
		if (len(fs) == 1) != tt.want {
			t.Errorf("CheckServerDisclosure(%q) = %+v, want finding %v", tt.server, fs, tt.want)
		}
		if tt.want && !strings.Contains(fs[0].Description, tt.server) {
			t.Errorf("description %q does not name server", fs[0].Description)
		}
	}
}

func TestCheckCookies(t *testing.T) {
	good := &http.Cookie{Name: "ok", Secure: true, HttpOnly: true, SameSite: http.SameSiteStrictMode}
	if fs := CheckCookies([]*http.Cookie{good}); len(fs) != 0 {
		t.Errorf("secure cookie flagged: %+v", fs)
	}

	bad := &http.Cookie{Name: "sid", HttpOnly: true}
	fs := CheckCookies([]*http.Cookie{good, bad})
	if len(fs) != 1 {
		t.Fatalf("got %d findings, want 1", len(fs))
	}
	if fs[0].Description != "Found 1 cookies with security issues" {
		t.Errorf("description = %q", fs[0].Description)
	}
	issues := fs[0].Evidence.([]CookieIssue)
	if issues[0].Name != "sid" || len(issues[0].Issues) != 2 {
		t.Errorf("issues = %+v", issues)
	}
}

// ============================================================================
// Directories
// ============================================================================

func TestDirectoryFindings_Threshold(t *testing.T) {
	hits := []DirectoryHit{
		{Path: "/admin", Status: 200, HighRisk: true},
		{Path: "/.git/", Status: 403},
	}
	tests := []struct {
		threshold int
		want      finding.Severity
	}{
		{1, finding.High},
		{2, finding.Medium},
		{0, finding.High},
	}
	for _, tt := range tests {
		fs := DirectoryFindings(hits, tt.threshold)
		if len(fs) != 1 || fs[0].Severity != tt.want {
			t.Errorf("threshold %d: findings = %+v, want %v", tt.threshold, fs, tt.want)
		}
	}
	if fs := DirectoryFindings(nil, 1); fs != nil {
		t.Errorf("no hits should yield no finding, got %+v", fs)
	}
}

func TestCheckDirectoryListing(t *testing.T) {
	tables, _ := signatures.Default()
	if _, ok := CheckDirectoryListing("<html><title>Index of /files</title></html>", &tables.Vulns); !ok {
		t.Error("index page not detected")
	}
	if _, ok := CheckDirectoryListing("<html><title>Home</title></html>", &tables.Vulns); ok {
		t.Error("ordinary page flagged")
	}
}

func TestEnumerateDirectories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin":
			w.Write([]byte("admin"))
		case "/.git/":
			w.WriteHeader(http.StatusForbidden)
		case "/backup":
			http.Redirect(w, r, "/login", http.StatusFound)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := newRunner(t, DefaultConfig())
	hits, fs := r.EnumerateDirectories(context.Background(), mustResolve(t, srv.URL))
	if len(hits) != 3 {
		t.Fatalf("got %d hits %+v, want 3", len(hits), hits)
	}
	statuses := map[string]int{}
	for _, h := range hits {
		statuses[h.Path] = h.Status
	}
	if statuses["/backup"] != http.StatusFound {
		t.Errorf("/backup status = %d, redirect should not be followed", statuses["/backup"])
	}
	if len(fs) != 1 || fs[0].Severity != finding.High {
		t.Errorf("findings = %+v", fs)
	}
}

// ============================================================================
// Credentials
// ============================================================================

const loginForm = `<html><body><form action="/login" method="post">
<input type="text" name="username"><input type="password" name="password">
<input type="submit" value="Sign in"></form></body></html>`

func TestInspectLoginPage(t *testing.T) {
	page, ok := InspectLoginPage("http://example.com/login", false, loginForm, []string{"sid=abc; Path=/"})
	if !ok {
		t.Fatal("login form not recognized")
	}
	if len(page.Issues) != 5 {
		t.Fatalf("got %d issues %+v, want 5", len(page.Issues), page.Issues)
	}
	if page.Label != LabelWeak {
		t.Errorf("label = %q, want %q", page.Label, LabelWeak)
	}
	if page.Issues[0].Severity != finding.Critical {
		t.Errorf("first issue = %+v, want Critical plain-HTTP issue", page.Issues[0])
	}

	withToken := strings.Replace(loginForm, `<input type="submit"`, `<input type="hidden" name="csrf_token" value="x"><input type="submit"`, 1)
	page, _ = InspectLoginPage("https://example.com/login", true, withToken,
		[]string{"sid=abc; Path=/; Secure; HttpOnly; SameSite=Lax"})
	if len(page.Issues) != 0 || page.Label != LabelStrong {
		t.Errorf("hardened page = %+v", page)
	}

	if _, ok := InspectLoginPage("http://example.com/", false, "<form><input name=q></form>", nil); ok {
		t.Error("search form treated as login")
	}
}

func TestLoginPageFindings(t *testing.T) {
	page := LoginPage{URL: "http://example.com/login", Label: LabelMedium, Issues: []LoginIssue{
		{Issue: "No CSRF token found", Severity: finding.High},
		{Issue: "Cookie missing SameSite attribute", Severity: finding.Low},
	}}
	fs := page.Findings()
	if len(fs) != 2 {
		t.Fatalf("got %d findings", len(fs))
	}
	if fs[0].Description != "No CSRF token found at http://example.com/login" {
		t.Errorf("description = %q", fs[0].Description)
	}
	if fs[1].Type != "Credential Security" || fs[1].Severity != finding.Low {
		t.Errorf("finding = %+v", fs[1])
	}
}

// ============================================================================
// Ports
// ============================================================================

func TestScanPorts(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()
	open := ln.Addr().(*net.TCPAddr).Port

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	closedPort := closed.Addr().(*net.TCPAddr).Port
	closed.Close()

	cfg := DefaultConfig()
	cfg.Ports = true
	cfg.PortTimeout = 500 * time.Millisecond
	cfg.PortList = []Port{{closedPort, "Closed"}, {open, "Redis"}}
	cfg.SensitivePorts = []int{open}

	r := newRunner(t, cfg)
	got, fs := r.ScanPorts(context.Background(), "127.0.0.1")
	if len(got) != 1 || got[0].Number != open {
		t.Fatalf("open ports = %+v, want [%d]", got, open)
	}
	if len(fs) != 1 || fs[0].Severity != finding.Critical {
		t.Fatalf("findings = %+v", fs)
	}
	if !strings.Contains(fs[0].Description, strconv.Itoa(open)+" (Redis)") {
		t.Errorf("description = %q", fs[0].Description)
	}
	if n := r.metrics.Snapshot().PortsProbed; n != 2 {
		t.Errorf("PortsProbed = %d, want 2", n)
	}
}

func TestPortFindings(t *testing.T) {
	open := []Port{{22, "SSH"}, {80, "HTTP"}}
	if fs := PortFindings(open, DefaultSensitivePorts); len(fs) != 0 {
		t.Errorf("non-sensitive ports flagged: %+v", fs)
	}
	open = append(open, Port{3306, "MySQL"}, Port{21, "FTP"})
	fs := PortFindings(open, DefaultSensitivePorts)
	if len(fs) != 1 {
		t.Fatalf("got %d findings", len(fs))
	}
	want := "Sensitive ports are exposed: 3306 (MySQL), 21 (FTP)"
	if fs[0].Description != want {
		t.Errorf("description = %q, want %q", fs[0].Description, want)
	}
}

// ============================================================================
// Runner
// ============================================================================

func TestRun(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/login":
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "1"})
			w.Write([]byte(loginForm))
		case "/":
			w.Write([]byte("<html><title>Home</title></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	r := newRunner(t, DefaultConfig())
	tg := mustResolve(t, srv.URL)
	home := Input{
		URL:     srv.URL,
		Status:  200,
		Header:  http.Header{"Server": []string{"nginx/1.18.0"}},
		Cookies: []*http.Cookie{{Name: "tracking", Value: "1"}},
	}
	res := r.Run(context.Background(), tg, home)

	for _, typ := range []string{
		"No HTTPS",
		"Server Version Disclosure",
		"Insecure Cookie Configuration",
		"Credential Security",
		MissingHeaderPrefix + "Content-Security-Policy",
	} {
		if len(byType(res.Findings, typ)) == 0 {
			t.Errorf("missing %q finding", typ)
		}
	}
	for _, f := range res.Findings {
		if f.Source != finding.SourceChecks {
			t.Errorf("finding %q source = %q", f.Type, f.Source)
		}
	}
	if len(res.LoginPages) != 1 || res.LoginPages[0].Label != LabelWeak {
		t.Errorf("login pages = %+v", res.LoginPages)
	}
	if len(res.OpenPorts) != 0 {
		t.Errorf("port scan ran while disabled: %+v", res.OpenPorts)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, DefaultConfig())
	res := r.Run(ctx, mustResolve(t, "http://127.0.0.1:1"), Input{Header: http.Header{}})
	if len(res.LoginPages) != 0 || len(res.Directories) != 0 {
		t.Errorf("network checks ran after cancel: %+v", res)
	}
	if len(byType(res.Findings, "No HTTPS")) != 1 {
		t.Error("passive checks should still report")
	}
}
