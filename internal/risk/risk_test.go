package risk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

func f(typ string, sev finding.Severity) finding.Finding {
	return finding.Finding{Type: typ, Severity: sev, Description: typ}
}

func countType(fs []finding.Finding, typ string) int {
	n := 0
	for _, x := range fs {
		if x.Type == typ {
			n++
		}
	}
	return n
}

// ============================================================================
// Classification
// ============================================================================

func TestCategorize(t *testing.T) {
	tests := []struct {
		typ, desc string
		want      string
	}{
		{"XSS Reflection (Safe Mode)", "", CategoryXSS},
		{"SQL Injection (Safe Mode)", "", CategorySQLi},
		{"Stored payload", "Cross-Site Scripting in comments", CategoryXSS},
		{"Missing token", "No CSRF protection", CategoryCSRF},
		{"OS Command", "", CategoryRCE},
		{"Missing Security Header: Strict-Transport-Security", "", CategoryHeaders},
		{"No HTTPS", "Website is not using HTTPS encryption", CategorySSL},
		{"Server Version Disclosure", "", CategoryDisclosure},
		{"Weak Authentication", "", CategoryAuth},
		{"Exposed Sensitive Ports", "ports are open", CategoryOther},
		{"", "", CategoryOther},
	}
	for _, tt := range tests {
		if got := Categorize(tt.typ, tt.desc); got != tt.want {
			t.Errorf("Categorize(%q, %q) = %q, want %q", tt.typ, tt.desc, got, tt.want)
		}
	}
}

func TestRecommendation(t *testing.T) {
	assert.Equal(t, "Implement CSRF tokens, use SameSite cookie attribute, and validate referer headers", Recommendation(CategoryCSRF))
	assert.Equal(t, "Review security best practices and implement defense in depth", Recommendation(CategoryOther))
	assert.Equal(t, "Review security best practices and implement defense in depth", Recommendation("unknown"))
}

func TestNormalize(t *testing.T) {
	got := Normalize(finding.Finding{Type: "SQL Injection (Safe Mode)"})
	assert.Equal(t, CategorySQLi, got.Category)
	assert.Equal(t, Recommendation(CategorySQLi), got.Recommendation)
	assert.Equal(t, finding.Low, got.Severity)

	kept := Normalize(finding.Finding{Type: "x", Category: "Custom", Recommendation: "do it"})
	assert.Equal(t, "Custom", kept.Category)
	assert.Equal(t, "do it", kept.Recommendation)
}

// ============================================================================
// Scoring
// ============================================================================

func TestLevelFor(t *testing.T) {
	tests := []struct {
		score int
		want  Level
	}{
		{100, Safe}, {80, Safe}, {79, Warning}, {60, Warning}, {59, Danger}, {0, Danger},
	}
	for _, tt := range tests {
		if got := LevelFor(tt.score); got != tt.want {
			t.Errorf("LevelFor(%d) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestScore_Weights(t *testing.T) {
	a := Score([]finding.Finding{
		f("A", finding.Critical),
		f("B", finding.High),
		f("C", finding.Medium),
		f("D", finding.Low),
		f("D", finding.Low),
	})
	assert.Equal(t, 100-20-15-8-3-3, a.Score)
	assert.Equal(t, Danger, a.Level)
	assert.Empty(t, a.Correlated)
	assert.Equal(t, 2, a.Summary["Low"])
}

func TestScore_Empty(t *testing.T) {
	a := Score(nil)
	assert.Equal(t, 100, a.Score)
	assert.Equal(t, Safe, a.Level)
	assert.Empty(t, a.Findings)
}

func TestScore_ClampOnlyAtEnd(t *testing.T) {
	var fs []finding.Finding
	for i := 0; i < 10; i++ {
		fs = append(fs, f(fmt.Sprintf("C%d", i), finding.Critical))
	}
	a := Score(fs)
	assert.Equal(t, 0, a.Score)
	assert.Equal(t, -100, a.RawScore)
	assert.Equal(t, Danger, a.Level)
}

func TestScore_Monotonic(t *testing.T) {
	pool := []finding.Finding{
		f("Missing Security Header: X-Frame-Options", finding.Medium),
		f("Vulnerable JavaScript Library", finding.Medium),
		f("XSS Reflection (Safe Mode)", finding.High),
		f("Server Version Disclosure", finding.Low),
		f("SQL Injection (Safe Mode)", finding.Critical),
		f("No HTTPS", finding.High),
	}
	var fs []finding.Finding
	prev := Score(fs).Score
	for _, x := range pool {
		fs = append(fs, x)
		cur := Score(fs).Score
		if cur > prev {
			t.Errorf("adding %q raised score %d -> %d", x.Type, prev, cur)
		}
		if cur < 0 || cur > 100 {
			t.Errorf("score %d out of range", cur)
		}
		prev = cur
	}
}

func TestScore_Deterministic(t *testing.T) {
	fs := []finding.Finding{f("XSS Reflection (Safe Mode)", finding.High), f("Missing Security Header: CSP", finding.High)}
	assert.Equal(t, Score(fs), Score(fs))
}

func TestScore_DoesNotMutateInput(t *testing.T) {
	fs := []finding.Finding{{Type: "SQL Injection (Safe Mode)", Severity: finding.Critical}}
	Score(fs)
	assert.Empty(t, fs[0].Category)
}

// ============================================================================
// Correlation
// ============================================================================

func TestScore_CorrelationFiresOnce(t *testing.T) {
	fs := []finding.Finding{
		f("Missing Security Header: X-Frame-Options", finding.Medium),
		f("Missing Security Header: Content-Security-Policy", finding.High),
		f("Missing Security Header: Referrer-Policy", finding.Low),
		f(JSLibraryCVEType, finding.Medium),
		f(JSLibraryCVEType, finding.Medium),
	}
	a := Score(fs)

	require.Equal(t, []string{"outdated-js-missing-headers"}, a.Correlated)
	assert.Equal(t, 1, countType(a.Findings, TypeCorrelation))
	// the synthetic finding carries only the rule penalty, not its own weight
	assert.Equal(t, 100-8-15-3-8-8-10, a.RawScore)

	var corr finding.Finding
	for _, x := range a.Findings {
		if x.Type == TypeCorrelation {
			corr = x
		}
	}
	assert.Equal(t, finding.High, corr.Severity)
	assert.Equal(t, "Outdated JavaScript libraries combined with missing security headers increases risk", corr.Description)
	assert.Equal(t, "Update libraries AND implement security headers", corr.Recommendation)
	assert.Equal(t, finding.SourceCorrelation, corr.Source)
}

func TestScore_BothCorrelations(t *testing.T) {
	fs := []finding.Finding{
		f("Missing Security Header: X-Frame-Options", finding.Medium),
		f(JSLibraryCVEType, finding.Medium),
		f("SQL Injection (Safe Mode)", finding.Critical),
		f("XSS Reflection (Safe Mode)", finding.High),
	}
	a := Score(fs)
	assert.Equal(t, []string{"outdated-js-missing-headers", "injection-missing-headers"}, a.Correlated)
	assert.Equal(t, 2, countType(a.Findings, TypeCorrelation))
	assert.Equal(t, 100-8-8-20-15-10-15, a.RawScore)
	assert.Equal(t, 24, a.Score)
	assert.Equal(t, Danger, a.Level)
}

func TestScore_NoCorrelationWithoutHeaders(t *testing.T) {
	a := Score([]finding.Finding{f(JSLibraryCVEType, finding.Medium), f("SQL Injection (Safe Mode)", finding.Critical)})
	assert.Empty(t, a.Correlated)
}

func TestScore_XSSProtectionHeaderCountsAsInjection(t *testing.T) {
	a := Score([]finding.Finding{f("Missing Security Header: X-XSS-Protection", finding.Low)})
	assert.Equal(t, []string{"injection-missing-headers"}, a.Correlated)
	assert.Equal(t, 100-3-15, a.Score)
	assert.Equal(t, Safe, a.Level)
}

func TestScorer_CustomRules(t *testing.T) {
	s := Scorer{Rules: []Rule{{
		Name:     "always",
		Penalty:  5,
		Severity: finding.Low,
		Matches:  func([]finding.Finding) bool { return true },
	}}}
	a := s.Score(nil)
	assert.Equal(t, 95, a.Score)
	assert.Equal(t, []string{"always"}, a.Correlated)
}
