package output

import (
	"time"

	"github.com/PentesterFlow/OpenScanner/internal/checks"
	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/fingerprint"
	"github.com/PentesterFlow/OpenScanner/internal/metrics"
	"github.com/PentesterFlow/OpenScanner/internal/risk"
)

// Status is the reachability verdict of a scan.
type Status string

const (
	StatusUp    Status = "Up"
	StatusDown  Status = "Down"
	StatusError Status = "Error"
)

// Report is the complete result of one scan.
type Report struct {
	ID          string    `json:"id" yaml:"id"`
	Target      string    `json:"target" yaml:"target"`
	Status      Status    `json:"status" yaml:"status"`
	Error       string    `json:"error,omitempty" yaml:"error,omitempty"`
	HTTPStatus  int       `json:"http_status,omitempty" yaml:"http_status,omitempty"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
	// Partial is set when the scan deadline or a cancel cut work short.
	Partial bool `json:"partial,omitempty" yaml:"partial,omitempty"`

	RiskScore       int               `json:"risk_score" yaml:"risk_score"`
	RiskLevel       risk.Level        `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`
	SeveritySummary finding.Summary   `json:"severity_summary" yaml:"severity_summary"`
	Categories      map[string]int    `json:"categories,omitempty" yaml:"categories,omitempty"`
	Correlations    []string          `json:"correlations,omitempty" yaml:"correlations,omitempty"`
	Findings        []finding.Finding `json:"findings" yaml:"findings"`

	Technologies []fingerprint.TechMatch `json:"technologies,omitempty" yaml:"technologies,omitempty"`
	Pages        []PageSummary           `json:"pages,omitempty" yaml:"pages,omitempty"`
	Checks       *checks.Result          `json:"checks,omitempty" yaml:"checks,omitempty"`

	Stats    Stats    `json:"stats" yaml:"stats"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Duration returns how long the scan took.
func (r *Report) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// PageSummary is what the report keeps of a crawled page.
type PageSummary struct {
	URL    string `json:"url" yaml:"url"`
	Status int    `json:"status,omitempty" yaml:"status,omitempty"`
	Title  string `json:"title,omitempty" yaml:"title,omitempty"`
	Depth  int    `json:"depth" yaml:"depth"`
	Forms  int    `json:"forms,omitempty" yaml:"forms,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Stats contains counters for the scan.
type Stats struct {
	Pages         int `json:"pages" yaml:"pages"`
	FailedPages   int `json:"failed_pages" yaml:"failed_pages"`
	Forms         int `json:"forms" yaml:"forms"`
	Probes        int `json:"probes" yaml:"probes"`
	ProbesMatched int `json:"probes_matched" yaml:"probes_matched"`
	ProbesFailed  int `json:"probes_failed" yaml:"probes_failed"`
	Technologies  int `json:"technologies" yaml:"technologies"`
	JSLibraries   int `json:"js_libraries" yaml:"js_libraries"`
	CVEMatches    int `json:"cve_matches" yaml:"cve_matches"`
	Findings      int `json:"findings" yaml:"findings"`

	HTTP *metrics.Snapshot `json:"http,omitempty" yaml:"http,omitempty"`
}
