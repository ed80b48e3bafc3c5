package signatures

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Validate compiles every pattern, parses every severity and fills in names,
// in one pass. Invalid entries are dropped so the rest of the table stays
// usable; the returned error lists each one.
func (t *Tables) Validate() error {
	var errs []error
	errs = append(errs, t.Vulns.validate()...)
	errs = append(errs, t.Fingerprints.validate()...)
	errs = append(errs, t.CVEs.validate()...)
	return errors.Join(errs...)
}

func compileAll(kind string, patterns []string, flags string) ([]*regexp.Regexp, []string, []error) {
	var (
		compiled []*regexp.Regexp
		kept     []string
		errs     []error
	)
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			errs = append(errs, fmt.Errorf("%s: empty pattern", kind))
			continue
		}
		re, err := regexp.Compile(flags + p)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", kind, p, err))
			continue
		}
		compiled = append(compiled, re)
		kept = append(kept, p)
	}
	return compiled, kept, errs
}

func (v *VulnSignatures) validate() []error {
	var errs []error
	var e []error

	v.sqlErrors, v.SQLErrors, e = compileAll("sql_injection_errors", v.SQLErrors, "(?i)")
	errs = append(errs, e...)
	v.listing, v.ListingIndicators, e = compileAll("directory_listing_indicators", v.ListingIndicators, "(?i)")
	errs = append(errs, e...)

	v.Directories = dropEmpty(v.Directories)
	v.XSSPayloads = dropEmpty(v.XSSPayloads)
	v.SQLPayloads = dropEmpty(v.SQLPayloads)
	v.LFIPayloads = dropEmpty(v.LFIPayloads)
	v.LFIMarkers = dropEmpty(v.LFIMarkers)
	return errs
}

func dropEmpty(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func parseRisk(kind, name, level string) (finding.Severity, error) {
	if level == "" {
		return finding.Low, nil
	}
	sev, ok := finding.ParseSeverity(level)
	if !ok {
		return finding.Low, fmt.Errorf("%s %q: unknown risk level %q", kind, name, level)
	}
	return sev, nil
}

func validateTech(kind string, m map[string]*TechSignature) []error {
	var errs []error
	for name, sig := range m {
		if strings.TrimSpace(name) == "" || sig == nil {
			errs = append(errs, fmt.Errorf("%s: entry without name", kind))
			delete(m, name)
			continue
		}
		sig.Name = name

		risk, err := parseRisk(kind, name, sig.RiskLevel)
		if err != nil {
			errs = append(errs, err)
			delete(m, name)
			continue
		}
		sig.risk = risk

		if sig.VersionRegex != "" {
			re, err := regexp.Compile(sig.VersionRegex)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s %q version_regex: %w", kind, name, err))
				delete(m, name)
				continue
			}
			sig.version = re
		}

		var hErrs, cErrs []error
		sig.headers, sig.Headers, hErrs = compileAll(kind+" "+name+" header", sig.Headers, "(?i)")
		sig.cookies, sig.Cookies, cErrs = compileAll(kind+" "+name+" cookie", sig.Cookies, "(?i)")
		errs = append(errs, hErrs...)
		errs = append(errs, cErrs...)
		sig.Indicators = dropEmpty(sig.Indicators)

		if len(sig.Indicators)+len(sig.Headers)+len(sig.Cookies) == 0 {
			errs = append(errs, fmt.Errorf("%s %q: no indicators", kind, name))
			delete(m, name)
		}
	}
	return errs
}

func (f *Fingerprints) validate() []error {
	if f.CMS == nil {
		f.CMS = map[string]*TechSignature{}
	}
	if f.Frameworks == nil {
		f.Frameworks = map[string]*TechSignature{}
	}
	if f.Servers == nil {
		f.Servers = map[string]*TechSignature{}
	}
	if f.Libraries == nil {
		f.Libraries = map[string]*LibrarySignature{}
	}

	var errs []error
	errs = append(errs, validateTech("cms", f.CMS)...)
	errs = append(errs, validateTech("framework", f.Frameworks)...)
	errs = append(errs, validateTech("server", f.Servers)...)

	for name, lib := range f.Libraries {
		if strings.TrimSpace(name) == "" || lib == nil || len(lib.CDNPatterns) == 0 {
			errs = append(errs, fmt.Errorf("library %q: missing name or cdn_patterns", name))
			delete(f.Libraries, name)
			continue
		}
		lib.Name = name

		risk, err := parseRisk("library", name, lib.RiskLevel)
		if err != nil {
			errs = append(errs, err)
			delete(f.Libraries, name)
			continue
		}
		lib.risk = risk

		if lib.VersionRegex != "" {
			// script URLs differ in case across CDNs
			re, err := regexp.Compile("(?i)" + lib.VersionRegex)
			if err != nil {
				errs = append(errs, fmt.Errorf("library %q version_regex: %w", name, err))
				delete(f.Libraries, name)
				continue
			}
			if re.NumSubexp() < 1 {
				errs = append(errs, fmt.Errorf("library %q version_regex needs a capture group", name))
				delete(f.Libraries, name)
				continue
			}
			lib.version = re
		}
	}
	return errs
}

func validateRecords(kind string, m map[string][]CVERecord) (map[string][]CVERecord, []error) {
	out := make(map[string][]CVERecord, len(m))
	var errs []error
	for name, recs := range m {
		key := normalizeName(name)
		if key == "" {
			errs = append(errs, fmt.Errorf("%s cve table: entry without subject", kind))
			continue
		}
		for _, rec := range recs {
			if rec.CVE == "" || len(rec.Affected) == 0 {
				errs = append(errs, fmt.Errorf("%s %q: record missing cve or affected range", kind, name))
				continue
			}
			sev, ok := finding.ParseSeverity(rec.Severity)
			if !ok {
				errs = append(errs, fmt.Errorf("%s %q %s: unknown severity %q", kind, name, rec.CVE, rec.Severity))
				continue
			}
			if err := validateRanges(rec.Affected); err != nil {
				errs = append(errs, fmt.Errorf("%s %q %s: %w", kind, name, rec.CVE, err))
				continue
			}
			rec.level = sev
			rec.Severity = sev.String()
			rec.Subject = name
			out[key] = append(out[key], rec)
		}
	}
	return out, errs
}

var rangeOps = []string{"<=", ">=", "<", ">", "="}

// validateRanges checks the shape of each range term; it does not require
// numeric versions, since non-numeric ones simply never match.
func validateRanges(ranges []string) error {
	for _, r := range ranges {
		terms := strings.Fields(r)
		if len(terms) == 0 {
			return fmt.Errorf("empty affected range")
		}
		for _, term := range terms {
			ok := false
			for _, op := range rangeOps {
				if strings.HasPrefix(term, op) && len(term) > len(op) {
					ok = true
					break
				}
			}
			if !ok {
				return fmt.Errorf("bad range term %q", term)
			}
		}
	}
	return nil
}

func (d *CVEDatabase) validate() []error {
	var errs, e []error
	d.Libraries, e = validateRecords("library", d.Libraries)
	errs = append(errs, e...)
	d.CMS, e = validateRecords("cms", d.CMS)
	errs = append(errs, e...)
	d.Components, e = validateRecords("component", d.Components)
	errs = append(errs, e...)
	return errs
}
