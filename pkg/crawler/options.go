package crawler

import (
	"fmt"

	scanhttp "github.com/PentesterFlow/OpenScanner/internal/http"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/state"
)

// Option is a functional option for configuring the Crawler.
type Option func(*Crawler) error

// WithWorkers sets the number of concurrent fetches.
func WithWorkers(n int) Option {
	return func(c *Crawler) error {
		if n < 1 {
			n = 1
		}
		c.config.Workers = n
		return nil
	}
}

// WithMaxDepth sets the maximum crawl depth.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) error {
		if depth < 0 {
			depth = 0
		}
		c.config.MaxDepth = depth
		return nil
	}
}

// WithMaxPages sets the visit budget.
func WithMaxPages(n int) Option {
	return func(c *Crawler) error {
		if n < 1 {
			n = 1
		}
		c.config.MaxPages = n
		return nil
	}
}

// WithExcludePatterns adds URL exclusion patterns.
func WithExcludePatterns(patterns ...string) Option {
	return func(c *Crawler) error {
		c.config.Scope.ExcludePatterns = append(c.config.Scope.ExcludePatterns, patterns...)
		return nil
	}
}

// WithIncludePatterns restricts the crawl to URLs matching patterns.
func WithIncludePatterns(patterns ...string) Option {
	return func(c *Crawler) error {
		c.config.Scope.IncludePatterns = append(c.config.Scope.IncludePatterns, patterns...)
		return nil
	}
}

// WithConfig replaces the whole configuration.
func WithConfig(config *Config) Option {
	return func(c *Crawler) error {
		if config == nil {
			return fmt.Errorf("config is nil")
		}
		c.config = config.Clone()
		return nil
	}
}

// WithClient sets the HTTP client. Crawls share it with the rest of the scan
// so rate limits and metrics are global.
func WithClient(client *scanhttp.Client) Option {
	return func(c *Crawler) error {
		c.client = client
		return nil
	}
}

// WithSession sets the session that owns the visited set.
func WithSession(s *state.Session) Option {
	return func(c *Crawler) error {
		c.session = s
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Crawler) error {
		if l != nil {
			c.log = l.WithComponent("crawler")
		}
		return nil
	}
}
