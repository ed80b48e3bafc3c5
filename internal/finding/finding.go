// Package finding defines the normalized finding record every producer emits.
package finding

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Severity is the four-level severity scale.
type Severity int

const (
	Low Severity = iota
	Medium
	High
	Critical
)

// Severities lists every level from most to least severe.
var Severities = []Severity{Critical, High, Medium, Low}

func (s Severity) String() string {
	switch s {
	case Medium:
		return "Medium"
	case High:
		return "High"
	case Critical:
		return "Critical"
	default:
		return "Low"
	}
}

// Weight is the score deduction for one finding of this severity.
func (s Severity) Weight() int {
	switch s {
	case Critical:
		return 20
	case High:
		return 15
	case Medium:
		return 8
	default:
		return 3
	}
}

// ParseSeverity maps a case-insensitive name to a Severity. Unknown names map
// to Low and report ok=false.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return Low, true
	case "medium":
		return Medium, true
	case "high":
		return High, true
	case "critical":
		return Critical, true
	default:
		return Low, false
	}
}

// MarshalJSON encodes the severity by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts a severity name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("severity must be a string: %w", err)
	}
	*s, _ = ParseSeverity(name)
	return nil
}

// MarshalYAML encodes the severity by name.
func (s Severity) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML accepts a severity name.
func (s *Severity) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	*s, _ = ParseSeverity(name)
	return nil
}

// Source names the producer of a finding.
type Source string

const (
	SourceProbe       Source = "probe"
	SourceFingerprint Source = "fingerprint"
	SourceChecks      Source = "checks"
	SourceCorrelation Source = "correlation"
)

// Finding is one reported weakness.
type Finding struct {
	Type           string      `json:"type" yaml:"type"`
	Severity       Severity    `json:"severity" yaml:"severity"`
	Category       string      `json:"category,omitempty" yaml:"category,omitempty"`
	Description    string      `json:"description" yaml:"description"`
	Evidence       interface{} `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Recommendation string      `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
	Source         Source      `json:"source,omitempty" yaml:"source,omitempty"`
}

// Summary counts findings per severity name.
type Summary map[string]int

// Summarize counts findings by severity. Every level is present, possibly zero.
func Summarize(findings []Finding) Summary {
	s := Summary{}
	for _, sev := range Severities {
		s[sev.String()] = 0
	}
	for _, f := range findings {
		s[f.Severity.String()]++
	}
	return s
}
