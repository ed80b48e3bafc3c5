// Package progress draws a one-line scan status on a terminal.
package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/PentesterFlow/OpenScanner/internal/metrics"
)

// Scan phases in the order the scanner runs them.
var Phases = []string{"resolve", "crawl", "probe", "checks", "score"}

// Display renders the current phase and counters.
type Display struct {
	mu      sync.Mutex
	out     io.Writer
	started bool
	stopped bool

	startTime time.Time
	target    string
	phase     string
	lastLine  string
}

// New creates a display writing to out.
func New(out io.Writer) *Display {
	return &Display{out: out}
}

// Start begins the display.
func (d *Display) Start(target string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}
	d.started = true
	d.startTime = time.Now()
	d.target = target
}

// Update redraws the status line for phase.
func (d *Display) Update(phase string, snap *metrics.Snapshot) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started || d.stopped {
		return
	}
	d.phase = phase

	step := phaseIndex(phase) + 1
	barWidth := len(Phases) * 4
	filled := step * 4
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	var pages, probes, findings, requests int64
	if snap != nil {
		pages, probes, findings, requests = snap.PagesCrawled, snap.ProbesSent, snap.Findings, snap.RequestsTotal
	}

	line := fmt.Sprintf("\r[%s] %-7s | Pages: %d | Probes: %d | Findings: %d | Requests: %d | %s",
		bar, phase, pages, probes, findings, requests, formatDuration(time.Since(d.startTime)))

	if len(line) < len(d.lastLine) {
		fmt.Fprint(d.out, "\r"+strings.Repeat(" ", len(d.lastLine)))
	}
	fmt.Fprint(d.out, line)
	d.lastLine = line
}

// Phase returns the last phase drawn.
func (d *Display) Phase() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Stop ends the status line.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || !d.started {
		return
	}
	d.stopped = true
	fmt.Fprintln(d.out)
}

// Summary is what PrintSummary shows.
type Summary struct {
	Target    string
	Status    string
	Score     int
	Level     string
	Findings  int
	Severity  map[string]int
	Pages     int
	Partial   bool
	Duration  time.Duration
	ReportOut string
}

// PrintSummary prints a short human-readable summary.
func (d *Display) PrintSummary(s Summary) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintln(d.out)
	fmt.Fprintln(d.out, "╔══════════════════════════════════════════════════════════════╗")
	fmt.Fprintln(d.out, "║                        Scan Complete                         ║")
	fmt.Fprintln(d.out, "╚══════════════════════════════════════════════════════════════╝")
	fmt.Fprintln(d.out)
	fmt.Fprintf(d.out, "  Target:      %s\n", truncateURL(s.Target, 50))
	fmt.Fprintf(d.out, "  Status:      %s\n", s.Status)
	fmt.Fprintf(d.out, "  Duration:    %s\n", formatDuration(s.Duration))
	fmt.Fprintf(d.out, "  Pages:       %d\n", s.Pages)
	fmt.Fprintf(d.out, "  Risk Score:  %d (%s)\n", s.Score, s.Level)
	fmt.Fprintf(d.out, "  Findings:    %d", s.Findings)
	if len(s.Severity) > 0 {
		fmt.Fprintf(d.out, "  [Critical %d, High %d, Medium %d, Low %d]",
			s.Severity["Critical"], s.Severity["High"], s.Severity["Medium"], s.Severity["Low"])
	}
	fmt.Fprintln(d.out)
	if s.Partial {
		fmt.Fprintln(d.out, "  Note:        scan was interrupted, results are partial")
	}
	if s.ReportOut != "" {
		fmt.Fprintf(d.out, "  Report:      %s\n", s.ReportOut)
	}
	fmt.Fprintln(d.out)
}

func phaseIndex(phase string) int {
	for i, p := range Phases {
		if p == phase {
			return i
		}
	}
	return 0
}

// truncateURL truncates a URL to maxLen characters.
func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
