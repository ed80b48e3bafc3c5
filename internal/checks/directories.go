package checks

import (
	"context"
	"fmt"
	"net/http"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	scanhttp "github.com/PentesterFlow/OpenScanner/internal/http"
	"github.com/PentesterFlow/OpenScanner/internal/scope"
	"github.com/PentesterFlow/OpenScanner/internal/signatures"
	"github.com/PentesterFlow/OpenScanner/internal/target"
)

// DirectoryHit is a common path the server answered for.
type DirectoryHit struct {
	Path     string `json:"path" yaml:"path"`
	URL      string `json:"url" yaml:"url"`
	Status   int    `json:"status" yaml:"status"`
	HighRisk bool   `json:"high_risk" yaml:"high_risk"`
}

func foundStatus(code int) bool {
	switch code {
	case http.StatusOK, http.StatusMovedPermanently, http.StatusFound, http.StatusForbidden:
		return true
	}
	return false
}

// EnumerateDirectories requests each common path without following
// redirects. A 200 counts as high risk.
func (r *Runner) EnumerateDirectories(ctx context.Context, t target.Target) ([]DirectoryHit, []finding.Finding) {
	var hits []DirectoryHit
	for _, path := range r.vulns.Directories {
		if ctx.Err() != nil {
			break
		}
		u, err := scope.ResolveURL(t.String(), path)
		if err != nil {
			continue
		}
		reqCtx, cancel := context.WithTimeout(ctx, r.config.DirectoryTimeout)
		resp, err := r.client.Do(reqCtx, scanhttp.Request{Method: http.MethodGet, URL: u, NoFollow: true})
		cancel()
		if err != nil || !foundStatus(resp.StatusCode) {
			continue
		}
		hits = append(hits, DirectoryHit{
			Path:     path,
			URL:      u,
			Status:   resp.StatusCode,
			HighRisk: resp.StatusCode == http.StatusOK,
		})
	}
	return hits, DirectoryFindings(hits, r.config.DirectoryHighRiskThreshold)
}

// DirectoryFindings summarizes hits as a single finding. It is High when at
// least threshold paths returned 200.
func DirectoryFindings(hits []DirectoryHit, threshold int) []finding.Finding {
	if len(hits) == 0 {
		return nil
	}
	if threshold <= 0 {
		threshold = 1
	}
	high := 0
	for _, h := range hits {
		if h.HighRisk {
			high++
		}
	}
	sev := finding.Medium
	if high >= threshold {
		sev = finding.High
	}
	return []finding.Finding{{
		Type:           "Directory Enumeration",
		Severity:       sev,
		Category:       "Information Disclosure",
		Description:    fmt.Sprintf("Found %d accessible directories/paths", len(hits)),
		Evidence:       hits,
		Recommendation: "Restrict access to sensitive directories and implement proper access controls",
	}}
}

// CheckDirectoryListing reports an auto-generated index page.
func CheckDirectoryListing(body string, vulns *signatures.VulnSignatures) (finding.Finding, bool) {
	if vulns == nil {
		return finding.Finding{}, false
	}
	pattern, ok := vulns.MatchListing(body)
	if !ok {
		return finding.Finding{}, false
	}
	return finding.Finding{
		Type:           "Directory Listing Enabled",
		Severity:       finding.Medium,
		Category:       "Information Disclosure",
		Description:    "Directory listing is enabled, exposing file structure",
		Evidence:       map[string]interface{}{"pattern": pattern},
		Recommendation: "Disable directory listing in server configuration",
	}, true
}
