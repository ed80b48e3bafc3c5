package crawler

import (
	"fmt"

	"github.com/PentesterFlow/OpenScanner/internal/scope"
)

// Config holds crawler configuration.
type Config struct {
	// Number of concurrent fetches within one depth level
	Workers int `json:"workers" yaml:"workers"`

	// Maximum crawl depth; the origin is depth 0
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Maximum number of URLs visited
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// Scope rules applied to discovered links
	Scope scope.Rules `json:"scope" yaml:"scope"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Workers:  5,
		MaxDepth: 2,
		MaxPages: 50,
		Scope: scope.Rules{
			DefaultExcludes: true,
		},
	}
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
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Scope.IncludePatterns = append([]string(nil), c.Scope.IncludePatterns...)
	clone.Scope.ExcludePatterns = append([]string(nil), c.Scope.ExcludePatterns...)
	return &clone
}
