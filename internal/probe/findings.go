package probe

import (
	"fmt"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

// Finding types produced by this package.
const (
	TypeXSS       = "XSS Reflection (Safe Mode)"
	TypeSQLi      = "SQL Injection (Safe Mode)"
	TypeSQLiDiff  = "SQL Injection Length Differential (Safe Mode)"
	TypeLFI       = "Local File Inclusion (Safe Mode)"
	TypeFormInput = "Form Input Vulnerability"
)

type group struct {
	kind   Kind
	signal Signal
}

type findingSpec struct {
	group          group
	typ            string
	severity       finding.Severity
	category       string
	description    string
	recommendation string
}

// Order here is the order findings are reported in.
var findingSpecs = []findingSpec{
	{group{XSS, SignalReflection}, TypeXSS, finding.High, "XSS",
		"Payloads were reflected unescaped in %d response(s)",
		"Encode output for its HTML context and validate all user input"},
	{group{SQLI, SignalError}, TypeSQLi, finding.Critical, "SQL Injection",
		"Database error signatures appeared in %d response(s)",
		"Use parameterized queries and never build SQL from request data"},
	{group{SQLI, SignalDiff}, TypeSQLiDiff, finding.Medium, "SQL Injection",
		"Response length changed beyond the baseline threshold for %d payload(s)",
		"Verify the parameter manually and use parameterized queries"},
	{group{LFI, SignalFile}, TypeLFI, finding.Critical, "Path Traversal",
		"System file contents were returned for %d traversal payload(s)",
		"Never build file paths from user input; resolve against an allow list"},
}

// Findings turns probe results into one finding per (kind, signal) group
// with at least one match. Evidence lists every matching result. Classifier
// matches from any kind are reported together as a form input finding.
func Findings(results []Result) []finding.Finding {
	byGroup := map[group][]map[string]interface{}{}
	var classified []map[string]interface{}

	for _, r := range results {
		if !r.Matched {
			continue
		}
		if r.Signal == SignalClassifier {
			classified = append(classified, r.Evidence)
			continue
		}
		g := group{r.Probe.Kind, r.Signal}
		byGroup[g] = append(byGroup[g], r.Evidence)
	}

	var out []finding.Finding
	for _, s := range findingSpecs {
		ev := byGroup[s.group]
		if len(ev) == 0 {
			continue
		}
		out = append(out, finding.Finding{
			Type:           s.typ,
			Severity:       s.severity,
			Category:       s.category,
			Description:    fmt.Sprintf(s.description, len(ev)),
			Evidence:       ev,
			Recommendation: s.recommendation,
			Source:         finding.SourceProbe,
		})
	}
	if len(classified) > 0 {
		out = append(out, finding.Finding{
			Type:           TypeFormInput,
			Severity:       finding.High,
			Description:    fmt.Sprintf("Form submissions produced %d suspicious response(s)", len(classified)),
			Evidence:       classified,
			Recommendation: "Validate and sanitize all form inputs on the server",
			Source:         finding.SourceProbe,
		})
	}
	return out
}

// Stats summarizes a probe run.
type Stats struct {
	Probes  int `json:"probes" yaml:"probes"`
	Matched int `json:"matched" yaml:"matched"`
	Failed  int `json:"failed" yaml:"failed"`
}

// Summarize counts results.
func Summarize(results []Result) Stats {
	var s Stats
	for _, r := range results {
		s.Probes++
		if r.Matched {
			s.Matched++
		}
		if r.Err != nil {
			s.Failed++
		}
	}
	return s
}
