package scanner

import (
	"fmt"
	"time"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/metrics"
	"github.com/PentesterFlow/OpenScanner/internal/signatures"
)

// Option is a functional option for configuring the Scanner.
type Option func(*Scanner) error

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(s *Scanner) error {
		if config == nil {
			return fmt.Errorf("config is nil")
		}
		s.config = config.Clone()
		return nil
	}
}

// WithWorkers sets the crawl and probe concurrency.
func WithWorkers(n int) Option {
	return func(s *Scanner) error {
		if n < 1 {
			n = 1
		}
		s.config.Workers = n
		s.config.Probe.Workers = n
		return nil
	}
}

// WithMaxDepth sets the maximum crawl depth.
func WithMaxDepth(depth int) Option {
	return func(s *Scanner) error {
		if depth < 0 {
			depth = 0
		}
		s.config.MaxDepth = depth
		return nil
	}
}

// WithMaxPages sets the crawl page budget.
func WithMaxPages(n int) Option {
	return func(s *Scanner) error {
		if n < 1 {
			n = 1
		}
		s.config.MaxPages = n
		return nil
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scanner) error {
		s.config.RequestTimeout = timeout
		return nil
	}
}

// WithScanTimeout sets the deadline for a whole scan.
func WithScanTimeout(timeout time.Duration) Option {
	return func(s *Scanner) error {
		s.config.ScanTimeout = timeout
		return nil
	}
}

// WithRateLimit sets requests per second and burst; rps 0 disables it.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Scanner) error {
		s.config.RateLimit.RequestsPerSecond = rps
		s.config.RateLimit.Burst = burst
		return nil
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(s *Scanner) error {
		s.config.UserAgent = ua
		return nil
	}
}

// WithSignaturesDir loads signature tables from dir.
func WithSignaturesDir(dir string) Option {
	return func(s *Scanner) error {
		s.config.SignaturesDir = dir
		return nil
	}
}

// WithSignatures uses already loaded tables instead of reading any.
func WithSignatures(tables *signatures.Tables) Option {
	return func(s *Scanner) error {
		s.tables = tables
		return nil
	}
}

// WithClassifier selects the form-response classifier.
func WithClassifier(kind string) Option {
	return func(s *Scanner) error {
		s.config.Classifier = kind
		return nil
	}
}

// WithDifferentialThreshold sets the SQL length-differential threshold.
func WithDifferentialThreshold(n int) Option {
	return func(s *Scanner) error {
		s.config.Probe.DifferentialThreshold = n
		return nil
	}
}

// WithPortScan enables the TCP port scan.
func WithPortScan(enabled bool) Option {
	return func(s *Scanner) error {
		s.config.Checks.Ports = enabled
		return nil
	}
}

// WithDirectoryEnumeration toggles the common-path check.
func WithDirectoryEnumeration(enabled bool) Option {
	return func(s *Scanner) error {
		s.config.Checks.Directories = enabled
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scanner) error {
		if l != nil {
			s.log = l
		}
		return nil
	}
}

// WithFindingHook calls fn for every finding as it is recorded, before
// scoring. Correlation findings are not passed to it.
func WithFindingHook(fn func(finding.Finding)) Option {
	return func(s *Scanner) error {
		s.onFinding = fn
		return nil
	}
}

// WithProgress calls fn when the scan enters a new phase.
func WithProgress(fn func(phase string, snap *metrics.Snapshot)) Option {
	return func(s *Scanner) error {
		s.onPhase = fn
		return nil
	}
}
