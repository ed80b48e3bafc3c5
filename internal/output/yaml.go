package output

import (
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

// YAMLWriter writes output as YAML documents. In stream mode each finding is
// its own document, followed by the report.
type YAMLWriter struct {
	mu      sync.Mutex
	writer  io.Writer
	encoder *yaml.Encoder
	stream  bool
	closed  bool
}

// NewYAMLWriter creates a new YAML writer.
func NewYAMLWriter(w io.Writer, stream bool) *YAMLWriter {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	return &YAMLWriter{writer: w, encoder: enc, stream: stream}
}

// WriteReport writes the complete report.
func (y *YAMLWriter) WriteReport(report *Report) error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.closed {
		return nil
	}
	if y.stream {
		return y.encoder.Encode(StreamEvent{Type: "report", Data: report})
	}
	return y.encoder.Encode(report)
}

// WriteFinding writes a single finding in streaming mode.
func (y *YAMLWriter) WriteFinding(f *finding.Finding) error {
	if !y.stream {
		return nil
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	if y.closed {
		return nil
	}
	return y.encoder.Encode(StreamEvent{Type: "finding", Data: f})
}

// Flush finishes the current document.
func (y *YAMLWriter) Flush() error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if flusher, ok := y.writer.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close ends the YAML stream and closes the underlying writer if it can.
func (y *YAMLWriter) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()

	if y.closed {
		return nil
	}
	y.closed = true

	if err := y.encoder.Close(); err != nil {
		return err
	}
	if closer, ok := y.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
