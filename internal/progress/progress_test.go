package progress

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/PentesterFlow/OpenScanner/internal/metrics"
)

func TestDisplay_Update(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)

	d.Update("crawl", nil)
	if buf.Len() != 0 {
		t.Error("Update before Start should draw nothing")
	}

	d.Start("http://example.com/")
	d.Update("probe", &metrics.Snapshot{PagesCrawled: 4, ProbesSent: 12, Findings: 2})
	out := buf.String()
	for _, want := range []string{"probe", "Pages: 4", "Probes: 12", "Findings: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("status line %q missing %q", out, want)
		}
	}
	if d.Phase() != "probe" {
		t.Errorf("Phase() = %q", d.Phase())
	}

	d.Stop()
	n := buf.Len()
	d.Update("score", nil)
	if buf.Len() != n {
		t.Error("Update after Stop should draw nothing")
	}
}

func TestDisplay_PrintSummary(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf)
	d.PrintSummary(Summary{
		Target:   "http://example.com/",
		Status:   "Up",
		Score:    51,
		Level:    "Danger",
		Findings: 3,
		Severity: map[string]int{"Critical": 1, "High": 2},
		Partial:  true,
		Duration: 90 * time.Second,
	})
	out := buf.String()
	for _, want := range []string{"Risk Score:  51 (Danger)", "Critical 1, High 2", "1m30s", "partial"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{65 * time.Second, "1m05s"},
		{time.Hour + 2*time.Minute, "1h02m00s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestTruncateURL(t *testing.T) {
	if got := truncateURL("http://example.com/a/very/long/path", 20); got != "http://example.co..." {
		t.Errorf("truncateURL() = %q", got)
	}
}
