// Package output serializes scan reports.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

// Writer defines the interface for output writers.
type Writer interface {
	// WriteReport writes the complete scan report
	WriteReport(report *Report) error

	// WriteFinding writes a single finding as it is recorded (for streaming)
	WriteFinding(f *finding.Finding) error

	// Flush flushes any buffered output
	Flush() error

	// Close closes the writer
	Close() error
}

// Supported formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Config holds output configuration.
type Config struct {
	Format   string `json:"format" yaml:"format"`
	Pretty   bool   `json:"pretty" yaml:"pretty"`
	Stream   bool   `json:"stream" yaml:"stream"`
	FilePath string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
}

// ValidFormat reports whether format names a writer.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", FormatJSON, FormatYAML, "yml":
		return true
	}
	return false
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, config Config) (Writer, error) {
	switch strings.ToLower(config.Format) {
	case "", FormatJSON:
		return NewJSONWriter(w, config.Pretty, config.Stream), nil
	case FormatYAML, "yml":
		return NewYAMLWriter(w, config.Stream), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", config.Format)
	}
}
