package signatures

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	scanerrors "github.com/PentesterFlow/OpenScanner/internal/errors"
)

// Base names of the three table files inside a signature directory.
const (
	VulnFile        = "vuln_signatures"
	FingerprintFile = "tech_fingerprints"
	CVEFile         = "cve_db"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Load reads the tables from dir. An empty dir returns the built-in tables.
//
// A table that is missing or unreadable is left empty and reported as a
// SignatureLoad warning; the affected detection step then has nothing to
// match and yields no findings. Loading never fails the scan.
func Load(dir string) (*Tables, []error) {
	if dir == "" {
		t, err := Default()
		if err != nil {
			return &Tables{}, []error{err}
		}
		return t, nil
	}

	t := &Tables{}
	var warnings []error

	if err := loadTable(dir, VulnFile, &t.Vulns); err != nil {
		warnings = append(warnings, err)
	}
	if err := loadTable(dir, FingerprintFile, &t.Fingerprints); err != nil {
		warnings = append(warnings, err)
	}
	if err := loadTable(dir, CVEFile, &t.CVEs); err != nil {
		warnings = append(warnings, err)
	}

	if err := t.Validate(); err != nil {
		warnings = append(warnings, scanerrors.NewSignatureLoadError(dir, "invalid entries dropped", err))
	}
	return t, warnings
}

func loadTable(dir, base string, v interface{}) error {
	for _, ext := range extensions {
		path := filepath.Join(dir, base+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return scanerrors.NewSignatureLoadError(path, "read failed", err)
		}
		if err := decode(path, data, v); err != nil {
			return scanerrors.NewSignatureLoadError(path, "decode failed", err)
		}
		return nil
	}
	return scanerrors.NewSignatureLoadError(filepath.Join(dir, base+".json"), "table not found", nil)
}

func decode(path string, data []byte, v interface{}) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, v)
	case ".json":
		return json.Unmarshal(data, v)
	default:
		return fmt.Errorf("unsupported table format %q", filepath.Ext(path))
	}
}

// LoadFile reads a single table file. kind is one of VulnFile,
// FingerprintFile or CVEFile; the result is merged into a fresh Tables
// holding only that table.
func LoadFile(path, kind string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, scanerrors.NewSignatureLoadError(path, "read failed", err)
	}

	t := &Tables{}
	var target interface{}
	switch kind {
	case VulnFile:
		target = &t.Vulns
	case FingerprintFile:
		target = &t.Fingerprints
	case CVEFile:
		target = &t.CVEs
	default:
		return nil, scanerrors.NewSignatureLoadError(path, fmt.Sprintf("unknown table kind %q", kind), nil)
	}

	if err := decode(path, data, target); err != nil {
		return nil, scanerrors.NewSignatureLoadError(path, "decode failed", err)
	}
	if err := t.Validate(); err != nil {
		return t, scanerrors.NewSignatureLoadError(path, "invalid entries dropped", err)
	}
	return t, nil
}

// KindForFile guesses the table kind from a file's base name.
func KindForFile(path string) (string, bool) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch base {
	case VulnFile, FingerprintFile, CVEFile:
		return base, true
	}
	return "", false
}

// Stats summarizes loaded tables.
type Stats struct {
	XSSPayloads int `json:"xss_payloads" yaml:"xss_payloads"`
	SQLPayloads int `json:"sql_payloads" yaml:"sql_payloads"`
	LFIPayloads int `json:"lfi_payloads" yaml:"lfi_payloads"`
	SQLErrors   int `json:"sql_errors" yaml:"sql_errors"`
	Directories int `json:"directories" yaml:"directories"`
	CMS         int `json:"cms" yaml:"cms"`
	Frameworks  int `json:"frameworks" yaml:"frameworks"`
	Servers     int `json:"servers" yaml:"servers"`
	Libraries   int `json:"libraries" yaml:"libraries"`
	CVEs        int `json:"cves" yaml:"cves"`
}

// Stats counts the entries of each table.
func (t *Tables) Stats() Stats {
	return Stats{
		XSSPayloads: len(t.Vulns.XSSPayloads),
		SQLPayloads: len(t.Vulns.SQLPayloads),
		LFIPayloads: len(t.Vulns.LFIPayloads),
		SQLErrors:   len(t.Vulns.sqlErrors),
		Directories: len(t.Vulns.Directories),
		CMS:         len(t.Fingerprints.CMS),
		Frameworks:  len(t.Fingerprints.Frameworks),
		Servers:     len(t.Fingerprints.Servers),
		Libraries:   len(t.Fingerprints.Libraries),
		CVEs:        t.CVEs.Count(),
	}
}
