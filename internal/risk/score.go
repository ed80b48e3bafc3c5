package risk

import (
	"strings"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

// Level is the overall risk verdict.
type Level string

const (
	Safe    Level = "Safe"
	Warning Level = "Warning"
	Danger  Level = "Danger"
)

// Thresholds for LevelFor.
const (
	SafeThreshold    = 80
	WarningThreshold = 60
	maxScore         = 100
)

// TypeCorrelation is the type of findings added by correlation rules.
const TypeCorrelation = "Risk Correlation"

// LevelFor maps a clamped score to a level.
func LevelFor(score int) Level {
	switch {
	case score >= SafeThreshold:
		return Safe
	case score >= WarningThreshold:
		return Warning
	default:
		return Danger
	}
}

// Assessment is the scored outcome of a scan.
type Assessment struct {
	Findings []finding.Finding `json:"findings" yaml:"findings"`
	Score    int               `json:"risk_score" yaml:"risk_score"`
	Level    Level             `json:"risk_level" yaml:"risk_level"`
	// RawScore is the score before clamping; it may be negative.
	RawScore    int             `json:"raw_score" yaml:"raw_score"`
	Correlated  []string        `json:"correlations,omitempty" yaml:"correlations,omitempty"`
	Summary     finding.Summary `json:"severity_summary" yaml:"severity_summary"`
	Categorized map[string]int  `json:"categories" yaml:"categories"`
}

// Rule is a correlation rule. Matches sees the findings as they were before
// any rule ran.
type Rule struct {
	Name           string
	Penalty        int
	Severity       finding.Severity
	Description    string
	Recommendation string
	Matches        func([]finding.Finding) bool
}

// DefaultRules returns the built-in correlation rules.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:           "outdated-js-missing-headers",
			Penalty:        10,
			Severity:       finding.High,
			Description:    "Outdated JavaScript libraries combined with missing security headers increases risk",
			Recommendation: "Update libraries AND implement security headers",
			Matches: func(fs []finding.Finding) bool {
				return hasJSLibraryCVE(fs) && hasMissingHeader(fs)
			},
		},
		{
			Name:           "injection-missing-headers",
			Penalty:        15,
			Severity:       finding.Critical,
			Description:    "Injection vulnerabilities with insufficient header protection",
			Recommendation: "Immediate remediation required for injection vulnerabilities",
			Matches: func(fs []finding.Finding) bool {
				return hasInjection(fs) && hasMissingHeader(fs)
			},
		},
	}
}

// JSLibraryCVEType is the finding type of a CVE matched on a JavaScript library.
const JSLibraryCVEType = "Vulnerable JavaScript Library"

func hasJSLibraryCVE(fs []finding.Finding) bool {
	for _, f := range fs {
		if f.Type == JSLibraryCVEType {
			return true
		}
	}
	return false
}

func hasMissingHeader(fs []finding.Finding) bool {
	for _, f := range fs {
		if strings.Contains(f.Type, "Security Header") {
			return true
		}
	}
	return false
}

// hasInjection is a plain substring test on the type, so a missing
// X-XSS-Protection header counts as well.
func hasInjection(fs []finding.Finding) bool {
	for _, f := range fs {
		if f.Type == TypeCorrelation {
			continue
		}
		if strings.Contains(f.Type, "SQL") || strings.Contains(f.Type, "XSS") || strings.Contains(f.Type, "Injection") {
			return true
		}
	}
	return false
}

// Scorer scores finding lists. The zero value uses DefaultRules.
type Scorer struct {
	Rules []Rule
}

// Score classifies findings, deducts their weights, applies each correlation
// rule at most once and clamps the result to [0, 100]. The input slice is
// not modified.
func (s Scorer) Score(findings []finding.Finding) Assessment {
	rules := s.Rules
	if rules == nil {
		rules = DefaultRules()
	}

	out := make([]finding.Finding, 0, len(findings)+len(rules))
	for _, f := range findings {
		out = append(out, Normalize(f))
	}
	base := out[:len(out):len(out)]

	score := maxScore
	for _, f := range out {
		score -= f.Severity.Weight()
	}

	var correlated []string
	for _, r := range rules {
		if r.Matches == nil || !r.Matches(base) {
			continue
		}
		score -= r.Penalty
		correlated = append(correlated, r.Name)
		out = append(out, Normalize(finding.Finding{
			Type:           TypeCorrelation,
			Severity:       r.Severity,
			Description:    r.Description,
			Recommendation: r.Recommendation,
			Source:         finding.SourceCorrelation,
		}))
	}

	clamped := clamp(score)
	cats := map[string]int{}
	for _, f := range out {
		cats[f.Category]++
	}
	return Assessment{
		Findings:    out,
		Score:       clamped,
		Level:       LevelFor(clamped),
		RawScore:    score,
		Correlated:  correlated,
		Summary:     finding.Summarize(out),
		Categorized: cats,
	}
}

// Score is Scorer{}.Score.
func Score(findings []finding.Finding) Assessment {
	return Scorer{}.Score(findings)
}

// Normalize fills in a missing category and recommendation. Severity needs
// no defaulting since its zero value is Low.
func Normalize(f finding.Finding) finding.Finding {
	if f.Category == "" {
		f.Category = Categorize(f.Type, f.Description)
	}
	if f.Recommendation == "" {
		f.Recommendation = Recommendation(f.Category)
	}
	return f
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
