// Package signatures loads the static detection tables: probe payloads and
// error patterns, technology fingerprints and the CVE version-range table.
package signatures

import (
	"regexp"
	"sort"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

// SchemaVersion is the table format this package understands.
const SchemaVersion = "1"

// Tables bundles every signature table a scan reads. It is immutable once
// Validate has run and may be shared between goroutines.
type Tables struct {
	Vulns        VulnSignatures
	Fingerprints Fingerprints
	CVEs         CVEDatabase
}

// VulnSignatures holds probe payloads and the patterns that confirm them.
type VulnSignatures struct {
	Version           string   `json:"version,omitempty" yaml:"version,omitempty"`
	XSSPayloads       []string `json:"xss_test_payloads" yaml:"xss_test_payloads"`
	SQLPayloads       []string `json:"sql_test_payloads" yaml:"sql_test_payloads"`
	SQLErrors         []string `json:"sql_injection_errors" yaml:"sql_injection_errors"`
	LFIPayloads       []string `json:"lfi_payloads" yaml:"lfi_payloads"`
	LFIMarkers        []string `json:"lfi_markers" yaml:"lfi_markers"`
	Directories       []string `json:"common_directories" yaml:"common_directories"`
	ListingIndicators []string `json:"directory_listing_indicators" yaml:"directory_listing_indicators"`

	sqlErrors []*regexp.Regexp
	listing   []*regexp.Regexp
}

// Built-in payloads used when a table leaves a payload list empty.
var (
	defaultXSSPayloads = []string{
		"<script>alert(1)</script>",
		"<img src=x onerror=alert(1)>",
		"<svg onload=alert(1)>",
	}
	defaultSQLPayloads = []string{
		"' OR '1'='1",
		"' OR 1=1--",
		`" OR "1"="1`,
		"1' AND 1=1--",
	}
	defaultLFIPayloads = []string{
		"../../etc/passwd",
		"../../../etc/passwd",
		"....//....//etc/passwd",
		"/etc/passwd",
	}
	defaultLFIMarkers = []string{"root:x:0:0:", "daemon:"}
)

// XSS returns the reflection payloads.
func (v *VulnSignatures) XSS() []string {
	if len(v.XSSPayloads) == 0 {
		return defaultXSSPayloads
	}
	return v.XSSPayloads
}

// SQL returns the SQL injection payloads.
func (v *VulnSignatures) SQL() []string {
	if len(v.SQLPayloads) == 0 {
		return defaultSQLPayloads
	}
	return v.SQLPayloads
}

// LFI returns the traversal payloads.
func (v *VulnSignatures) LFI() []string {
	if len(v.LFIPayloads) == 0 {
		return defaultLFIPayloads
	}
	return v.LFIPayloads
}

// Markers returns the strings that prove a file was disclosed.
func (v *VulnSignatures) Markers() []string {
	if len(v.LFIMarkers) == 0 {
		return defaultLFIMarkers
	}
	return v.LFIMarkers
}

// MatchSQLError returns the first SQL error pattern found in body.
func (v *VulnSignatures) MatchSQLError(body string) (string, bool) {
	for _, re := range v.sqlErrors {
		if re.MatchString(body) {
			return re.String(), true
		}
	}
	return "", false
}

// MatchListing returns the first directory listing pattern found in body.
func (v *VulnSignatures) MatchListing(body string) (string, bool) {
	for _, re := range v.listing {
		if re.MatchString(body) {
			return re.String(), true
		}
	}
	return "", false
}

// TechSignature identifies a CMS, framework or server. Indicators are
// case-insensitive substrings; Headers and Cookies are case-insensitive
// patterns matched against "Name: value" header lines and Set-Cookie values.
type TechSignature struct {
	Name         string   `json:"-" yaml:"-"`
	Indicators   []string `json:"indicators,omitempty" yaml:"indicators,omitempty"`
	Headers      []string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Cookies      []string `json:"cookies,omitempty" yaml:"cookies,omitempty"`
	RiskLevel    string   `json:"risk_level" yaml:"risk_level"`
	VersionRegex string   `json:"version_regex,omitempty" yaml:"version_regex,omitempty"`
	CommonVulns  []string `json:"common_vulns,omitempty" yaml:"common_vulns,omitempty"`

	risk    finding.Severity
	version *regexp.Regexp
	headers []*regexp.Regexp
	cookies []*regexp.Regexp
}

// Risk returns the parsed risk level.
func (t *TechSignature) Risk() finding.Severity { return t.risk }

// HeaderPatterns returns the compiled header patterns.
func (t *TechSignature) HeaderPatterns() []*regexp.Regexp { return t.headers }

// CookiePatterns returns the compiled cookie patterns.
func (t *TechSignature) CookiePatterns() []*regexp.Regexp { return t.cookies }

// Version returns the compiled version pattern, or nil.
func (t *TechSignature) Version() *regexp.Regexp { return t.version }

// LibrarySignature identifies a JavaScript library by its script URL.
type LibrarySignature struct {
	Name         string   `json:"-" yaml:"-"`
	CDNPatterns  []string `json:"cdn_patterns" yaml:"cdn_patterns"`
	VersionRegex string   `json:"version_regex,omitempty" yaml:"version_regex,omitempty"`
	CheckCVE     bool     `json:"check_cve" yaml:"check_cve"`
	RiskLevel    string   `json:"risk_level,omitempty" yaml:"risk_level,omitempty"`

	risk    finding.Severity
	version *regexp.Regexp
}

// Risk returns the parsed risk level; Low when unset.
func (l *LibrarySignature) Risk() finding.Severity { return l.risk }

// Version returns the compiled version pattern, or nil.
func (l *LibrarySignature) Version() *regexp.Regexp { return l.version }

// Fingerprints maps technology names to their signatures.
type Fingerprints struct {
	Version    string                       `json:"version,omitempty" yaml:"version,omitempty"`
	CMS        map[string]*TechSignature    `json:"cms" yaml:"cms"`
	Frameworks map[string]*TechSignature    `json:"frameworks" yaml:"frameworks"`
	Servers    map[string]*TechSignature    `json:"servers" yaml:"servers"`
	Libraries  map[string]*LibrarySignature `json:"libraries" yaml:"libraries"`
}

// SortedTech returns the signatures of m ordered by name.
func SortedTech(m map[string]*TechSignature) []*TechSignature {
	out := make([]*TechSignature, 0, len(m))
	for _, sig := range m {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// SortedLibraries returns the library signatures ordered by name.
func (f *Fingerprints) SortedLibraries() []*LibrarySignature {
	out := make([]*LibrarySignature, 0, len(f.Libraries))
	for _, sig := range f.Libraries {
		out = append(out, sig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// CVERecord is one known vulnerability of a technology.
type CVERecord struct {
	Subject     string   `json:"subject,omitempty" yaml:"subject,omitempty"`
	Affected    []string `json:"affected" yaml:"affected"` // any range matches; a range may be "<=X >=Y"
	CVE         string   `json:"cve" yaml:"cve"`
	Severity    string   `json:"severity" yaml:"severity"`
	Description string   `json:"description" yaml:"description"`
	Reference   string   `json:"reference,omitempty" yaml:"reference,omitempty"`

	level finding.Severity
}

// Level returns the parsed severity.
func (r *CVERecord) Level() finding.Severity { return r.level }

// CVEDatabase groups CVE records by the kind of technology and its
// lower-cased name.
type CVEDatabase struct {
	Version    string                 `json:"version,omitempty" yaml:"version,omitempty"`
	Libraries  map[string][]CVERecord `json:"libraries" yaml:"libraries"`
	CMS        map[string][]CVERecord `json:"cms" yaml:"cms"`
	Components map[string][]CVERecord `json:"components" yaml:"components"`
}

// Records returns a copy of the records for name in group.
func (d *CVEDatabase) Records(group map[string][]CVERecord, name string) []CVERecord {
	recs := group[normalizeName(name)]
	out := make([]CVERecord, len(recs))
	copy(out, recs)
	return out
}

// Count returns the total number of records.
func (d *CVEDatabase) Count() int {
	n := 0
	for _, g := range []map[string][]CVERecord{d.Libraries, d.CMS, d.Components} {
		for _, recs := range g {
			n += len(recs)
		}
	}
	return n
}
