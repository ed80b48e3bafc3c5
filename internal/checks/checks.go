// Package checks holds the single-shot inspections that feed findings into a
// scan alongside the probes: transport security, response headers, cookies,
// login pages, exposed paths and open ports.
package checks

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	scanhttp "github.com/PentesterFlow/OpenScanner/internal/http"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/metrics"
	"github.com/PentesterFlow/OpenScanner/internal/signatures"
	"github.com/PentesterFlow/OpenScanner/internal/target"
)

// Config selects and tunes the checks.
type Config struct {
	Headers     bool `yaml:"headers" json:"headers"`
	Cookies     bool `yaml:"cookies" json:"cookies"`
	TLS         bool `yaml:"tls" json:"tls"`
	Credentials bool `yaml:"credentials" json:"credentials"`
	Directories bool `yaml:"directories" json:"directories"`
	// DirectoryHighRiskThreshold is how many paths must answer 200 before the
	// enumeration finding is High rather than Medium.
	DirectoryHighRiskThreshold int           `yaml:"directory_high_risk_threshold" json:"directory_high_risk_threshold"`
	DirectoryTimeout           time.Duration `yaml:"directory_timeout" json:"directory_timeout"`
	Ports                      bool          `yaml:"ports" json:"ports"`
	PortTimeout                time.Duration `yaml:"port_timeout" json:"port_timeout"`
	PortWorkers                int           `yaml:"port_workers" json:"port_workers"`
	// PortList overrides CommonPorts when non-empty.
	PortList []Port `yaml:"port_list,omitempty" json:"port_list,omitempty"`
	// SensitivePorts overrides DefaultSensitivePorts when non-empty.
	SensitivePorts []int `yaml:"sensitive_ports,omitempty" json:"sensitive_ports,omitempty"`
}

// DefaultConfig enables every check except the port scan.
func DefaultConfig() Config {
	return Config{
		Headers:                    true,
		Cookies:                    true,
		TLS:                        true,
		Credentials:                true,
		Directories:                true,
		DirectoryHighRiskThreshold: 1,
		DirectoryTimeout:           5 * time.Second,
		Ports:                      false,
		PortTimeout:                2 * time.Second,
		PortWorkers:                10,
	}
}

// Input is the first response from the target, which most checks inspect
// without another request.
type Input struct {
	URL     string
	Status  int
	Header  http.Header
	Cookies []*http.Cookie
	Body    string
	TLS     *tls.ConnectionState
}

// Result is everything the checks produced.
type Result struct {
	Findings    []finding.Finding `json:"-" yaml:"-"`
	TLS         *TLSInfo          `json:"tls,omitempty" yaml:"tls,omitempty"`
	Directories []DirectoryHit    `json:"directories,omitempty" yaml:"directories,omitempty"`
	OpenPorts   []Port            `json:"open_ports,omitempty" yaml:"open_ports,omitempty"`
	LoginPages  []LoginPage       `json:"login_pages,omitempty" yaml:"login_pages,omitempty"`
}

// Runner runs the enabled checks against one target.
type Runner struct {
	client  *scanhttp.Client
	vulns   *signatures.VulnSignatures
	config  Config
	metrics *metrics.Collector
	log     *logger.Logger
	now     func() time.Time
}

// NewRunner creates a Runner.
func NewRunner(client *scanhttp.Client, tables *signatures.Tables, config Config, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Nop()
	}
	if tables == nil {
		tables = &signatures.Tables{}
	}
	d := DefaultConfig()
	if config.DirectoryHighRiskThreshold <= 0 {
		config.DirectoryHighRiskThreshold = d.DirectoryHighRiskThreshold
	}
	if config.DirectoryTimeout <= 0 {
		config.DirectoryTimeout = d.DirectoryTimeout
	}
	if config.PortTimeout <= 0 {
		config.PortTimeout = d.PortTimeout
	}
	if config.PortWorkers <= 0 {
		config.PortWorkers = d.PortWorkers
	}
	return &Runner{
		client:  client,
		vulns:   &tables.Vulns,
		config:  config,
		metrics: client.Metrics(),
		log:     log.WithComponent("checks"),
		now:     time.Now,
	}
}

// Run executes the enabled checks in a fixed order. Failed requests are
// logged by the client and simply yield no findings.
func (r *Runner) Run(ctx context.Context, t target.Target, home Input) Result {
	var res Result
	add := func(fs ...finding.Finding) {
		for _, f := range fs {
			f.Source = finding.SourceChecks
			res.Findings = append(res.Findings, f)
		}
	}

	if r.config.TLS {
		info, fs := CheckTransport(t, home.TLS, r.now())
		res.TLS = info
		add(fs...)
	}
	if r.config.Headers {
		add(CheckHeaders(home.Header)...)
		add(CheckServerDisclosure(home.Header)...)
	}
	if r.config.Cookies {
		add(CheckCookies(home.Cookies)...)
	}
	if f, ok := CheckDirectoryListing(home.Body, r.vulns); ok {
		add(f)
	}
	if r.config.Credentials && ctx.Err() == nil {
		pages, fs := r.CheckCredentials(ctx, t)
		res.LoginPages = pages
		add(fs...)
	}
	if r.config.Directories && ctx.Err() == nil {
		hits, fs := r.EnumerateDirectories(ctx, t)
		res.Directories = hits
		add(fs...)
	}
	if r.config.Ports && ctx.Err() == nil {
		open, fs := r.ScanPorts(ctx, t.Host)
		res.OpenPorts = open
		add(fs...)
	}

	r.log.Event(logger.InfoLevel).
		Int("findings", len(res.Findings)).
		Msg("Checks finished")
	return res
}
