// Package fingerprint detects the technologies behind a site and matches
// their versions against the CVE table.
package fingerprint

import (
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/signatures"
)

// Category groups detected technologies.
type Category string

const (
	CMS       Category = "CMS"
	Framework Category = "Framework"
	Server    Category = "Server"
	JSLibrary Category = "JSLibrary"
)

// TechMatch is one detected technology.
type TechMatch struct {
	Name       string           `json:"name" yaml:"name"`
	Category   Category         `json:"category" yaml:"category"`
	Version    string           `json:"version,omitempty" yaml:"version,omitempty"`
	RiskLevel  finding.Severity `json:"risk_level" yaml:"risk_level"`
	Confidence int              `json:"confidence" yaml:"confidence"` // 0-100
	Evidence   string           `json:"evidence" yaml:"evidence"`
	URL        string           `json:"url,omitempty" yaml:"url,omitempty"`
}

func (m TechMatch) key() string {
	return string(m.Category) + "|" + strings.ToLower(m.Name)
}

// Input is the part of a fetched page the fingerprinter reads.
type Input struct {
	URL     string
	Header  http.Header
	Cookies []*http.Cookie
	Body    string
	Scripts []string
}

// Fingerprinter detects technologies from signature tables. It only reads
// the tables and is safe for concurrent use.
type Fingerprinter struct {
	fps  *signatures.Fingerprints
	cves *signatures.CVEDatabase
	log  *logger.Logger
}

// New creates a fingerprinter over tables.
func New(tables *signatures.Tables, log *logger.Logger) *Fingerprinter {
	if log == nil {
		log = logger.Nop()
	}
	if tables == nil {
		tables = &signatures.Tables{}
	}
	return &Fingerprinter{
		fps:  &tables.Fingerprints,
		cves: &tables.CVEs,
		log:  log.WithComponent("fingerprint"),
	}
}

// Fingerprint detects technologies on one page. Results are ordered by
// category then name.
func (f *Fingerprinter) Fingerprint(in Input) []TechMatch {
	lines := headerLines(in.Header)
	body := strings.ToLower(in.Body)

	var out []TechMatch
	out = append(out, f.detectTech(CMS, f.fps.CMS, in, body, lines, false)...)
	out = append(out, f.detectTech(Framework, f.fps.Frameworks, in, body, lines, true)...)
	out = append(out, f.detectServers(in)...)
	out = append(out, f.detectLibraries(in)...)

	for i := range out {
		out[i].URL = in.URL
	}
	return out
}

// headerLines renders headers as sorted "Name: value" lines.
func headerLines(h http.Header) []string {
	lines := make([]string, 0, len(h))
	for name, values := range h {
		for _, v := range values {
			lines = append(lines, name+": "+v)
		}
	}
	sort.Strings(lines)
	return lines
}

func (f *Fingerprinter) detectTech(cat Category, sigs map[string]*signatures.TechSignature, in Input, body string, lines []string, indicatorsInHeaders bool) []TechMatch {
	var out []TechMatch
	joined := strings.ToLower(strings.Join(lines, "\n"))

	for _, sig := range signatures.SortedTech(sigs) {
		evidence, confidence := "", 0

		for _, ind := range sig.Indicators {
			l := strings.ToLower(ind)
			if strings.Contains(body, l) {
				evidence, confidence = "content: "+ind, 80
				break
			}
			if indicatorsInHeaders && strings.Contains(joined, l) {
				evidence, confidence = "header: "+ind, 100
				break
			}
		}
		if evidence == "" {
			if line, ok := matchAny(sig.HeaderPatterns(), lines); ok {
				evidence, confidence = "header: "+line, 100
			}
		}
		if evidence == "" {
			if c, ok := matchCookies(sig.CookiePatterns(), in.Header, in.Cookies); ok {
				evidence, confidence = "cookie: "+c, 100
			}
		}
		if evidence == "" {
			continue
		}

		m := TechMatch{
			Name:       sig.Name,
			Category:   cat,
			RiskLevel:  sig.Risk(),
			Confidence: confidence,
			Evidence:   evidence,
		}
		if re := sig.Version(); re != nil {
			m.Version = firstGroup(re, in.Body)
			if m.Version == "" {
				m.Version = firstGroup(re, strings.Join(lines, "\n"))
			}
		}
		out = append(out, m)
	}
	return out
}

func (f *Fingerprinter) detectServers(in Input) []TechMatch {
	server := in.Header.Get("Server")
	if server == "" {
		return nil
	}
	lower := strings.ToLower(server)

	var out []TechMatch
	for _, sig := range signatures.SortedTech(f.fps.Servers) {
		hit := false
		for _, ind := range sig.Indicators {
			if strings.Contains(lower, strings.ToLower(ind)) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		m := TechMatch{
			Name:       sig.Name,
			Category:   Server,
			RiskLevel:  sig.Risk(),
			Confidence: 100,
			Evidence:   "Server header: " + server,
		}
		if re := sig.Version(); re != nil {
			m.Version = firstGroup(re, server)
		}
		out = append(out, m)
	}
	return out
}

func (f *Fingerprinter) detectLibraries(in Input) []TechMatch {
	var out []TechMatch
	for _, lib := range f.fps.SortedLibraries() {
		var best *TechMatch
		for _, src := range in.Scripts {
			lower := strings.ToLower(src)
			if !containsAny(lower, lib.CDNPatterns) {
				continue
			}
			m := TechMatch{
				Name:       lib.Name,
				Category:   JSLibrary,
				RiskLevel:  lib.Risk(),
				Confidence: 90,
				Evidence:   "script: " + src,
			}
			if re := lib.Version(); re != nil {
				m.Version = firstGroup(re, src)
			}
			if best == nil || (best.Version == "" && m.Version != "") {
				best = &m
			}
			if best.Version != "" {
				break
			}
		}
		if best != nil {
			out = append(out, *best)
		}
	}
	return out
}

func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if p != "" && strings.Contains(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func matchAny(res []*regexp.Regexp, lines []string) (string, bool) {
	for _, re := range res {
		for _, line := range lines {
			if re.MatchString(line) {
				return line, true
			}
		}
	}
	return "", false
}

func matchCookies(res []*regexp.Regexp, h http.Header, cookies []*http.Cookie) (string, bool) {
	candidates := make([]string, 0, len(cookies))
	for _, c := range cookies {
		candidates = append(candidates, c.Name)
	}
	candidates = append(candidates, h.Values("Set-Cookie")...)
	return matchAny(res, candidates)
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

// Merge folds matches from several pages into one list, one entry per
// (category, name). A versioned match replaces an unversioned one; otherwise
// the first seen wins. The result is ordered by category then name.
func Merge(lists ...[]TechMatch) []TechMatch {
	seen := map[string]int{}
	var out []TechMatch
	for _, list := range lists {
		for _, m := range list {
			k := m.key()
			if i, ok := seen[k]; ok {
				if out[i].Version == "" && m.Version != "" {
					out[i] = m
				}
				continue
			}
			seen[k] = len(out)
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return categoryOrder(out[i].Category) < categoryOrder(out[j].Category)
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

func categoryOrder(c Category) int {
	switch c {
	case CMS:
		return 0
	case Framework:
		return 1
	case Server:
		return 2
	default:
		return 3
	}
}
