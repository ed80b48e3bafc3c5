package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	scanerrors "github.com/PentesterFlow/OpenScanner/internal/errors"
	scanhttp "github.com/PentesterFlow/OpenScanner/internal/http"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/parser"
	"github.com/PentesterFlow/OpenScanner/internal/queue"
	"github.com/PentesterFlow/OpenScanner/internal/scope"
	"github.com/PentesterFlow/OpenScanner/internal/state"
	"github.com/PentesterFlow/OpenScanner/internal/target"
)

// Crawler walks a target breadth-first. Each depth level is fetched
// concurrently, then assembled in dispatch order so the page sequence is
// reproducible for a fixed site.
type Crawler struct {
	config  *Config
	client  *scanhttp.Client
	session *state.Session
	log     *logger.Logger
}

// New creates a new crawler with the given options.
func New(opts ...Option) (*Crawler, error) {
	c := &Crawler{
		config: DefaultConfig(),
		log:    logger.Nop(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := c.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if c.client == nil {
		c.client = scanhttp.NewClient(scanhttp.DefaultClientConfig())
	}
	if c.session == nil {
		c.session = state.NewSession(c.config.MaxPages, c.log)
	}
	return c, nil
}

// Session returns the session the crawler records visits in.
func (c *Crawler) Session() *state.Session {
	return c.session
}

// Crawl visits t's origin and every in-scope page reachable within the depth
// and page budgets. Failed fetches appear as pages with Err set. When ctx is
// cancelled the pages fetched so far are returned with a Cancelled error.
func (c *Crawler) Crawl(ctx context.Context, t target.Target) ([]Page, error) {
	checker, err := scope.NewChecker(t.Host, c.config.Scope)
	if err != nil {
		return nil, fmt.Errorf("invalid scope: %w", err)
	}

	origin, err := scope.NormalizeURL(t.String())
	if err != nil {
		return nil, scanerrors.NewInvalidTargetError(t.String(), "unparsable origin", err)
	}

	q := queue.NewMemoryQueue(0)
	defer q.Close()
	q.Push(&queue.Item{URL: origin, Depth: 0})

	var pages []Page
	for {
		if ctx.Err() != nil {
			return pages, scanerrors.NewCancelledError(origin, "crawl")
		}

		level, err := q.PopLevel()
		if errors.Is(err, queue.ErrQueueEmpty) {
			break
		}
		if err != nil {
			return pages, err
		}

		batch := c.admit(level)
		if len(batch) == 0 {
			if c.session.VisitedCount() >= c.config.MaxPages {
				break
			}
			continue
		}

		c.log.Event(logger.DebugLevel).
			Int("depth", batch[0].Depth).
			Int("urls", len(batch)).
			Int("queued", q.Len()).
			Msg("Crawling level")

		fetched := c.fetchLevel(ctx, batch)
		for _, page := range fetched {
			pages = append(pages, page)
			if page.Depth >= c.config.MaxDepth {
				continue
			}
			for _, link := range page.Links {
				if !checker.IsInScope(link) {
					continue
				}
				norm, err := scope.NormalizeURL(link)
				if err != nil || c.session.HasVisited(norm) {
					continue
				}
				q.Push(&queue.Item{URL: norm, Depth: page.Depth + 1, ParentURL: page.URL})
			}
		}
	}

	stats := Summarize(pages)
	c.log.Event(logger.InfoLevel).
		Str("target", origin).
		Int("pages", stats.Visited).
		Int("failed", stats.Failed).
		Int("forms", stats.Forms).
		Msg("Crawl finished")
	return pages, nil
}

// admit filters one level through the depth and page budgets and the
// visited set, preserving order.
func (c *Crawler) admit(level []*queue.Item) []*queue.Item {
	var out []*queue.Item
	for _, item := range level {
		if item.Depth > c.config.MaxDepth {
			continue
		}
		if c.session.VisitedCount() >= c.config.MaxPages {
			break
		}
		if !c.session.MarkVisited(item.URL) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// fetchLevel fetches batch with at most Workers requests in flight. Items
// not yet started when ctx is cancelled are dropped.
func (c *Crawler) fetchLevel(ctx context.Context, batch []*queue.Item) []Page {
	slots := make([]*Page, len(batch))
	idx := make(chan int)

	workers := c.config.Workers
	if workers > len(batch) {
		workers = len(batch)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				page := c.fetch(ctx, batch[i])
				slots[i] = &page
			}
		}()
	}

dispatch:
	for i := range batch {
		select {
		case <-ctx.Done():
			break dispatch
		case idx <- i:
		}
	}
	close(idx)
	wg.Wait()

	out := make([]Page, 0, len(batch))
	for _, p := range slots {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

func (c *Crawler) fetch(ctx context.Context, item *queue.Item) Page {
	page := Page{URL: item.URL, Depth: item.Depth}

	resp, err := c.client.Get(ctx, item.URL)
	if err != nil {
		page.Err = err
		return page
	}

	page.FinalURL = resp.FinalURL
	page.Status = resp.StatusCode
	page.Header = resp.Header
	page.Cookies = resp.Cookies
	page.Body = resp.Body
	page.TLS = resp.TLS
	c.client.Metrics().RecordPageCrawled()

	if !isHTML(resp.Header.Get("Content-Type"), resp.Body) {
		return page
	}

	base := resp.FinalURL
	if base == "" {
		base = item.URL
	}
	p, err := parser.NewHTMLParser(base)
	if err != nil {
		page.Err = scanerrors.NewParseError(item.URL, "parse_base", err)
		return page
	}
	doc, err := p.Parse(resp.Body)
	if err != nil {
		page.Err = scanerrors.NewParseError(item.URL, "parse_html", err)
		c.log.ErrorEvent(page.Err, item.URL, "parse")
		return page
	}

	page.Title = doc.Title
	page.Forms = doc.Forms
	page.Links = doc.Links
	page.Scripts = doc.Scripts
	c.client.Metrics().RecordFormsFound(len(doc.Forms))
	return page
}

func isHTML(contentType, body string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "html") || strings.Contains(ct, "xml") {
		return true
	}
	if ct != "" && !strings.HasPrefix(ct, "text/plain") {
		return false
	}
	head := strings.ToLower(body)
	if len(head) > 512 {
		head = head[:512]
	}
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html") || strings.Contains(head, "<a ")
}
