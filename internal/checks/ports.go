package checks

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
)

// Port is a TCP port and the service usually behind it.
type Port struct {
	Number  int    `json:"port" yaml:"port"`
	Service string `json:"service" yaml:"service"`
}

// CommonPorts is the default scan list.
var CommonPorts = []Port{
	{21, "FTP"},
	{22, "SSH"},
	{23, "Telnet"},
	{25, "SMTP"},
	{80, "HTTP"},
	{443, "HTTPS"},
	{3306, "MySQL"},
	{5432, "PostgreSQL"},
	{8080, "HTTP-Alt"},
	{8443, "HTTPS-Alt"},
	{27017, "MongoDB"},
	{6379, "Redis"},
}

// DefaultSensitivePorts should never face the internet.
var DefaultSensitivePorts = []int{21, 23, 3306, 5432, 27017, 6379}

func (r *Runner) portList() []Port {
	if len(r.config.PortList) > 0 {
		return r.config.PortList
	}
	return CommonPorts
}

func (r *Runner) sensitive() []int {
	if len(r.config.SensitivePorts) > 0 {
		return r.config.SensitivePorts
	}
	return DefaultSensitivePorts
}

// ScanPorts dials each port on host with a small worker pool and returns
// the open ones in ascending order.
func (r *Runner) ScanPorts(ctx context.Context, host string) ([]Port, []finding.Finding) {
	ports := r.portList()
	jobs := make(chan Port, len(ports))
	results := make(chan Port, len(ports))

	workers := r.config.PortWorkers
	if workers > len(ports) {
		workers = len(ports)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				if r.dial(ctx, host, p.Number) {
					results <- p
				}
			}
		}()
	}

	for _, p := range ports {
		jobs <- p
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var open []Port
	for p := range results {
		open = append(open, p)
	}
	sort.Slice(open, func(i, j int) bool { return open[i].Number < open[j].Number })

	r.log.Event(logger.InfoLevel).
		Str("host", host).
		Int("scanned", len(ports)).
		Int("open", len(open)).
		Msg("Port scan finished")
	return open, PortFindings(open, r.sensitive())
}

func (r *Runner) dial(ctx context.Context, host string, port int) bool {
	if err := r.client.Limiter().Wait(ctx, host); err != nil {
		return false
	}
	r.metrics.RecordPortProbe()
	d := net.Dialer{Timeout: r.config.PortTimeout}
	conn, err := d.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// PortFindings reports open ports that appear in sensitive.
func PortFindings(open []Port, sensitive []int) []finding.Finding {
	want := make(map[int]bool, len(sensitive))
	for _, n := range sensitive {
		want[n] = true
	}
	var exposed []string
	var numbers []int
	for _, p := range open {
		if want[p.Number] {
			exposed = append(exposed, fmt.Sprintf("%d (%s)", p.Number, p.Service))
			numbers = append(numbers, p.Number)
		}
	}
	if len(exposed) == 0 {
		return nil
	}
	return []finding.Finding{{
		Type:           "Exposed Sensitive Ports",
		Severity:       finding.Critical,
		Category:       "Information Disclosure",
		Description:    "Sensitive ports are exposed: " + strings.Join(exposed, ", "),
		Evidence:       map[string]interface{}{"ports": numbers},
		Recommendation: "Close or firewall sensitive ports. Use VPN or IP whitelisting for administrative access",
	}}
}
