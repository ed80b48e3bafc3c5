package fingerprint

import (
	"fmt"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/signatures"
)

// Finding types produced by this package.
const (
	TypeJSLibraryCVE = "Vulnerable JavaScript Library"
	TypeCMSCVE       = "CMS Vulnerability"
	TypeComponentCVE = "Component Vulnerability"
	TypeStackRisk    = "Technology Stack Risk"
)

// CVEMatch pairs a detected technology with a record that covers its version.
type CVEMatch struct {
	Tech   TechMatch            `json:"tech" yaml:"tech"`
	Record signatures.CVERecord `json:"record" yaml:"record"`
}

// MatchCVEs returns every (technology, record) pair whose affected ranges
// include the technology's version. Technologies without a version never
// match, nor do libraries whose signature has check_cve off.
func (f *Fingerprinter) MatchCVEs(matches []TechMatch) []CVEMatch {
	var out []CVEMatch
	for _, m := range matches {
		if m.Version == "" || !f.checksCVE(m) {
			continue
		}
		for _, rec := range f.cves.Records(f.group(m.Category), m.Name) {
			if Affected(m.Version, rec.Affected) {
				out = append(out, CVEMatch{Tech: m, Record: rec})
				f.log.Event(logger.DebugLevel).
					Str("tech", m.Name).
					Str("version", m.Version).
					Str("cve", rec.CVE).
					Msg("CVE matched")
			}
		}
	}
	return out
}

// checksCVE reports whether m's signature asks for CVE lookups. Only
// library signatures carry the flag; a library with no signature is checked.
func (f *Fingerprinter) checksCVE(m TechMatch) bool {
	if m.Category != JSLibrary {
		return true
	}
	lib, ok := f.fps.Libraries[m.Name]
	return !ok || lib == nil || lib.CheckCVE
}

func (f *Fingerprinter) group(c Category) map[string][]signatures.CVERecord {
	switch c {
	case JSLibrary:
		return f.cves.Libraries
	case CMS:
		return f.cves.CMS
	default:
		return f.cves.Components
	}
}

func cveType(c Category) string {
	switch c {
	case JSLibrary:
		return TypeJSLibraryCVE
	case CMS:
		return TypeCMSCVE
	default:
		return TypeComponentCVE
	}
}

// Findings turns CVE matches and risky technologies into findings. Each
// CVE match yields one finding at the record's severity; independently,
// every technology with High or Critical intrinsic risk yields a stack risk
// finding.
func Findings(techs []TechMatch, cves []CVEMatch) []finding.Finding {
	var out []finding.Finding
	for _, c := range cves {
		out = append(out, finding.Finding{
			Type:     cveType(c.Tech.Category),
			Severity: c.Record.Level(),
			Description: fmt.Sprintf("%s %s has known CVE: %s (%s)",
				c.Tech.Name, c.Tech.Version, c.Record.CVE, c.Record.Description),
			Evidence: map[string]interface{}{
				"name":      c.Tech.Name,
				"version":   c.Tech.Version,
				"cve":       c.Record.CVE,
				"affected":  c.Record.Affected,
				"reference": c.Record.Reference,
				"url":       c.Tech.URL,
			},
			Recommendation: fmt.Sprintf("Update %s to the latest version", c.Tech.Name),
			Source:         finding.SourceFingerprint,
		})
	}
	for _, t := range techs {
		if t.RiskLevel < finding.High {
			continue
		}
		out = append(out, finding.Finding{
			Type:           TypeStackRisk,
			Severity:       t.RiskLevel,
			Description:    fmt.Sprintf("%s detected with %s risk", t.Name, t.RiskLevel),
			Evidence:       t,
			Recommendation: "Review technology security posture and update to latest version",
			Source:         finding.SourceFingerprint,
		})
	}
	return out
}
