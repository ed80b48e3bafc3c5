// Package state holds the mutable state shared by one scan's workers.
package state

import (
	"sync"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
)

// Session is the per-scan state: the visited set and the append-only list of
// findings. It is safe for concurrent use and is discarded after the report.
type Session struct {
	visited *VisitedSet

	mu       sync.Mutex
	findings []finding.Finding
	warnings []string

	log *logger.Logger
}

// NewSession creates a session sized for maxPages URLs.
func NewSession(maxPages int, log *logger.Logger) *Session {
	if log == nil {
		log = logger.Nop()
	}
	return &Session{
		visited: NewVisitedSet(maxPages * 4),
		log:     log,
	}
}

// MarkVisited admits url if no other worker has. It returns true exactly once
// per distinct URL.
func (s *Session) MarkVisited(url string) bool {
	return s.visited.AddIfAbsent(url)
}

// HasVisited reports whether url was admitted.
func (s *Session) HasVisited(url string) bool {
	return s.visited.Contains(url)
}

// VisitedCount returns the number of admitted URLs.
func (s *Session) VisitedCount() int {
	return s.visited.Count()
}

// Visited returns the admitted URLs, sorted.
func (s *Session) Visited() []string {
	return s.visited.URLs()
}

// AddFinding appends f.
func (s *Session) AddFinding(f finding.Finding) {
	s.mu.Lock()
	s.findings = append(s.findings, f)
	s.mu.Unlock()

	s.log.FindingEvent(f.Type, f.Severity.String(), string(f.Source))
}

// AddFindings appends fs in order.
func (s *Session) AddFindings(fs []finding.Finding) {
	for _, f := range fs {
		s.AddFinding(f)
	}
}

// Findings returns a copy of the findings in insertion order.
func (s *Session) Findings() []finding.Finding {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]finding.Finding, len(s.findings))
	copy(out, s.findings)
	return out
}

// AddWarning records a non-fatal problem to surface in the report.
func (s *Session) AddWarning(msg string) {
	s.mu.Lock()
	s.warnings = append(s.warnings, msg)
	s.mu.Unlock()
}

// Warnings returns a copy of the recorded warnings.
func (s *Session) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.warnings))
	copy(out, s.warnings)
	return out
}
