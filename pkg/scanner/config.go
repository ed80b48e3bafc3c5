package scanner

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/PentesterFlow/OpenScanner/internal/checks"
	"github.com/PentesterFlow/OpenScanner/internal/classifier"
	"github.com/PentesterFlow/OpenScanner/internal/output"
	"github.com/PentesterFlow/OpenScanner/internal/probe"
	"github.com/PentesterFlow/OpenScanner/internal/scope"
	"gopkg.in/yaml.v3"
)

// Config holds all scanner configuration.
type Config struct {
	// Concurrent crawl fetches
	Workers int `json:"workers" yaml:"workers"`

	// Maximum crawl depth; the origin is depth 0
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Maximum number of pages visited
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// Per-request timeout
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// Deadline for the whole scan; zero means none
	ScanTimeout time.Duration `json:"scan_timeout" yaml:"scan_timeout"`

	// Rate limiting
	RateLimit RateLimitConfig `json:"rate_limit" yaml:"rate_limit"`

	// Scope rules for crawled links
	Scope scope.Rules `json:"scope" yaml:"scope"`

	UserAgent     string            `json:"user_agent" yaml:"user_agent"`
	CustomHeaders map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`
	SkipTLSVerify bool              `json:"skip_tls_verify" yaml:"skip_tls_verify"`

	// Directory with vuln_signatures, tech_fingerprints and cve_db tables.
	// Empty uses the built-in tables.
	SignaturesDir string `json:"signatures_dir" yaml:"signatures_dir"`

	// Classifier is "rules" or "bayes"
	Classifier string `json:"classifier" yaml:"classifier"`

	Probe  probe.Config  `json:"probe" yaml:"probe"`
	Checks checks.Config `json:"checks" yaml:"checks"`
	Output output.Config `json:"output" yaml:"output"`

	Verbose bool `json:"verbose" yaml:"verbose"`
	Debug   bool `json:"debug" yaml:"debug"`
}

// RateLimitConfig throttles requests to the target.
type RateLimitConfig struct {
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:        5,
		MaxDepth:       2,
		MaxPages:       50,
		RequestTimeout: 10 * time.Second,
		ScanTimeout:    10 * time.Minute,
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Scope: scope.Rules{
			DefaultExcludes: true,
		},
		SkipTLSVerify: true,
		Classifier:    classifier.KindRules,
		Probe:         probe.DefaultConfig(),
		Checks:        checks.DefaultConfig(),
		Output: output.Config{
			Format: output.FormatJSON,
			Pretty: true,
		},
	}
}

// LoadFromFile loads configuration from a file (JSON or YAML). Fields the
// file leaves out keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a file.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}

	if c.MaxDepth < 0 {
		return fmt.Errorf("max depth must not be negative")
	}

	if c.MaxPages < 1 {
		return fmt.Errorf("max pages must be at least 1")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.ScanTimeout < 0 {
		return fmt.Errorf("scan timeout must not be negative")
	}

	if c.RateLimit.RequestsPerSecond < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	switch c.Classifier {
	case "", classifier.KindRules, classifier.KindBayes:
	default:
		return fmt.Errorf("unknown classifier %q", c.Classifier)
	}

	if c.Probe.DifferentialThreshold < 0 {
		return fmt.Errorf("differential threshold must not be negative")
	}

	if c.Probe.ClassifierMinConfidence < 0 || c.Probe.ClassifierMinConfidence > 1 {
		return fmt.Errorf("classifier min confidence must be within [0, 1]")
	}

	if !output.ValidFormat(c.Output.Format) {
		return fmt.Errorf("unknown output format %q", c.Output.Format)
	}

	if c.SignaturesDir != "" {
		info, err := os.Stat(c.SignaturesDir)
		if err != nil {
			return fmt.Errorf("signatures dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("signatures dir %s is not a directory", c.SignaturesDir)
		}
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}
