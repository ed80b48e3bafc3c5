// Package metrics counts what a scan did so a report can say how much
// evidence was actually gathered.
package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Collector aggregates scan counters. All methods are safe for concurrent use.
type Collector struct {
	requestsTotal atomic.Int64
	failedFetches atomic.Int64
	bytesTotal    atomic.Int64
	pagesCrawled  atomic.Int64
	formsFound    atomic.Int64
	probesSent    atomic.Int64
	probesMatched atomic.Int64
	portsProbed   atomic.Int64
	findingsSeen  atomic.Int64

	responseTimesSum atomic.Int64
	responseTimesNum atomic.Int64

	errorMu     sync.Mutex
	errorCounts map[string]int64

	statusMu    sync.Mutex
	statusCodes map[int]int64

	startTime time.Time
}

// New creates a collector whose uptime starts now.
func New() *Collector {
	return &Collector{
		errorCounts: make(map[string]int64),
		statusCodes: make(map[int]int64),
		startTime:   time.Now(),
	}
}

// RecordRequest counts one outbound request.
func (c *Collector) RecordRequest() {
	c.requestsTotal.Add(1)
}

// RecordFailedFetch counts a request that produced no response, by error type.
func (c *Collector) RecordFailedFetch(errorType string) {
	c.failedFetches.Add(1)

	c.errorMu.Lock()
	c.errorCounts[errorType]++
	c.errorMu.Unlock()
}

// RecordResponse records status, size and latency of a completed response.
func (c *Collector) RecordResponse(status int, bytes int64, d time.Duration) {
	c.statusMu.Lock()
	c.statusCodes[status]++
	c.statusMu.Unlock()

	c.bytesTotal.Add(bytes)
	c.responseTimesSum.Add(d.Milliseconds())
	c.responseTimesNum.Add(1)
}

// RecordPageCrawled counts a fetched page.
func (c *Collector) RecordPageCrawled() { c.pagesCrawled.Add(1) }

// RecordFormsFound adds n discovered forms.
func (c *Collector) RecordFormsFound(n int) { c.formsFound.Add(int64(n)) }

// RecordProbe counts one probe request and whether it matched.
func (c *Collector) RecordProbe(matched bool) {
	c.probesSent.Add(1)
	if matched {
		c.probesMatched.Add(1)
	}
}

// RecordPortProbe counts one TCP connect attempt.
func (c *Collector) RecordPortProbe() { c.portsProbed.Add(1) }

// RecordFinding counts a recorded finding.
func (c *Collector) RecordFinding() { c.findingsSeen.Add(1) }

// AverageResponseTime returns the mean latency of completed responses.
func (c *Collector) AverageResponseTime() time.Duration {
	num := c.responseTimesNum.Load()
	if num == 0 {
		return 0
	}
	return time.Duration(c.responseTimesSum.Load()/num) * time.Millisecond
}

// Snapshot returns a point-in-time copy of every counter.
func (c *Collector) Snapshot() *Snapshot {
	s := &Snapshot{
		Elapsed:             time.Since(c.startTime),
		RequestsTotal:       c.requestsTotal.Load(),
		FailedFetches:       c.failedFetches.Load(),
		BytesTotal:          c.bytesTotal.Load(),
		PagesCrawled:        c.pagesCrawled.Load(),
		FormsFound:          c.formsFound.Load(),
		ProbesSent:          c.probesSent.Load(),
		ProbesMatched:       c.probesMatched.Load(),
		PortsProbed:         c.portsProbed.Load(),
		Findings:            c.findingsSeen.Load(),
		AverageResponseTime: c.AverageResponseTime(),
		ErrorCounts:         make(map[string]int64),
		StatusCodes:         make(map[int]int64),
	}

	c.errorMu.Lock()
	for k, v := range c.errorCounts {
		s.ErrorCounts[k] = v
	}
	c.errorMu.Unlock()

	c.statusMu.Lock()
	for k, v := range c.statusCodes {
		s.StatusCodes[k] = v
	}
	c.statusMu.Unlock()

	return s
}

// Snapshot is a point-in-time view of a Collector.
type Snapshot struct {
	Elapsed             time.Duration    `json:"elapsed" yaml:"elapsed"`
	RequestsTotal       int64            `json:"requests_total" yaml:"requests_total"`
	FailedFetches       int64            `json:"failed_fetches" yaml:"failed_fetches"`
	BytesTotal          int64            `json:"bytes_total" yaml:"bytes_total"`
	PagesCrawled        int64            `json:"pages_crawled" yaml:"pages_crawled"`
	FormsFound          int64            `json:"forms_found" yaml:"forms_found"`
	ProbesSent          int64            `json:"probes_sent" yaml:"probes_sent"`
	ProbesMatched       int64            `json:"probes_matched" yaml:"probes_matched"`
	PortsProbed         int64            `json:"ports_probed" yaml:"ports_probed"`
	Findings            int64            `json:"findings" yaml:"findings"`
	AverageResponseTime time.Duration    `json:"average_response_time" yaml:"average_response_time"`
	ErrorCounts         map[string]int64 `json:"error_counts,omitempty" yaml:"error_counts,omitempty"`
	StatusCodes         map[int]int64    `json:"status_codes,omitempty" yaml:"status_codes,omitempty"`
}

// FailureRate returns failed fetches over requests.
func (s *Snapshot) FailureRate() float64 {
	if s.RequestsTotal == 0 {
		return 0
	}
	return float64(s.FailedFetches) / float64(s.RequestsTotal)
}

// Summary flattens the snapshot for a stats log line.
func (s *Snapshot) Summary() map[string]interface{} {
	return map[string]interface{}{
		"elapsed":              s.Elapsed.String(),
		"requests_total":       s.RequestsTotal,
		"failed_fetches":       s.FailedFetches,
		"failure_rate":         s.FailureRate(),
		"pages_crawled":        s.PagesCrawled,
		"forms_found":          s.FormsFound,
		"probes_sent":          s.ProbesSent,
		"probes_matched":       s.ProbesMatched,
		"findings":             s.Findings,
		"avg_response_time_ms": s.AverageResponseTime.Milliseconds(),
	}
}
