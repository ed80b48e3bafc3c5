// Package probe runs the safe-mode injection probes: reflected script
// payloads, SQL error signatures and length differentials, path traversal
// file markers, and form submissions checked by a text classifier.
package probe

import (
	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/parser"
)

// Kind is the probe category.
type Kind string

const (
	XSS  Kind = "XSS"
	SQLI Kind = "SQLI"
	LFI  Kind = "LFI"
)

// Signal names the detection that fired.
type Signal string

const (
	SignalNone       Signal = ""
	SignalReflection Signal = "reflection"
	SignalError      Signal = "error_signature"
	SignalDiff       Signal = "differential"
	SignalFile       Signal = "file_marker"
	SignalClassifier Signal = "classifier"
)

// Probe is one payload sent to one parameter or form field.
type Probe struct {
	Kind      Kind         `json:"kind" yaml:"kind"`
	Payload   string       `json:"payload" yaml:"payload"`
	TargetURL string       `json:"target_url" yaml:"target_url"`
	Param     string       `json:"param" yaml:"param"`
	Method    string       `json:"method" yaml:"method"`
	Form      *parser.Form `json:"-" yaml:"-"`
}

// Result is the outcome of one probe. Err is set when the request could not
// be made, which is distinct from a request that found nothing.
type Result struct {
	Probe        Probe                  `json:"probe" yaml:"probe"`
	Signal       Signal                 `json:"signal,omitempty" yaml:"signal,omitempty"`
	Matched      bool                   `json:"matched" yaml:"matched"`
	Evidence     map[string]interface{} `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	SeverityHint finding.Severity       `json:"severity_hint" yaml:"severity_hint"`
	Err          error                  `json:"-" yaml:"-"`
}

// Page is the part of a crawled page the engine probes.
type Page struct {
	URL   string
	Links []string
	Forms []parser.Form
	Body  string
}

// Target is one (URL, parameter) pair. URL carries no query string.
type Target struct {
	URL   string `json:"url" yaml:"url"`
	Param string `json:"param" yaml:"param"`
}

// Config tunes the engine.
type Config struct {
	Workers    int `json:"workers" yaml:"workers"`
	MaxTargets int `json:"max_targets" yaml:"max_targets"`
	// DifferentialThreshold is the absolute body length delta, in bytes,
	// above which a SQL payload response counts as different from baseline.
	DifferentialThreshold   int     `json:"differential_threshold" yaml:"differential_threshold"`
	BaselineValue           string  `json:"baseline_value" yaml:"baseline_value"`
	FillerValue             string  `json:"filler_value" yaml:"filler_value"`
	ClassifierMinConfidence float64 `json:"classifier_min_confidence" yaml:"classifier_min_confidence"`
	// SnippetRadius is how many bytes around a reflection are kept as evidence.
	SnippetRadius int `json:"snippet_radius" yaml:"snippet_radius"`
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		Workers:                 5,
		MaxTargets:              5,
		DifferentialThreshold:   100,
		BaselineValue:           "1",
		FillerValue:             "test",
		ClassifierMinConfidence: 0.6,
		SnippetRadius:           80,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.MaxTargets <= 0 {
		c.MaxTargets = d.MaxTargets
	}
	if c.DifferentialThreshold <= 0 {
		c.DifferentialThreshold = d.DifferentialThreshold
	}
	if c.BaselineValue == "" {
		c.BaselineValue = d.BaselineValue
	}
	if c.FillerValue == "" {
		c.FillerValue = d.FillerValue
	}
	if c.ClassifierMinConfidence <= 0 {
		c.ClassifierMinConfidence = d.ClassifierMinConfidence
	}
	if c.SnippetRadius <= 0 {
		c.SnippetRadius = d.SnippetRadius
	}
	return c
}
