// Package scanner runs a complete scan of one target: resolve, crawl,
// probe and fingerprint concurrently, run the inbound checks, then score.
package scanner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PentesterFlow/OpenScanner/internal/checks"
	"github.com/PentesterFlow/OpenScanner/internal/classifier"
	scanerrors "github.com/PentesterFlow/OpenScanner/internal/errors"
	"github.com/PentesterFlow/OpenScanner/internal/finding"
	"github.com/PentesterFlow/OpenScanner/internal/fingerprint"
	scanhttp "github.com/PentesterFlow/OpenScanner/internal/http"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/metrics"
	"github.com/PentesterFlow/OpenScanner/internal/output"
	"github.com/PentesterFlow/OpenScanner/internal/probe"
	"github.com/PentesterFlow/OpenScanner/internal/ratelimit"
	"github.com/PentesterFlow/OpenScanner/internal/risk"
	"github.com/PentesterFlow/OpenScanner/internal/scope"
	"github.com/PentesterFlow/OpenScanner/internal/signatures"
	"github.com/PentesterFlow/OpenScanner/internal/state"
	"github.com/PentesterFlow/OpenScanner/internal/target"
	"github.com/PentesterFlow/OpenScanner/pkg/crawler"
)

// Report is the result of one scan.
type Report = output.Report

// Report statuses.
const (
	StatusUp    = output.StatusUp
	StatusDown  = output.StatusDown
	StatusError = output.StatusError
)

// Scan phases reported to the progress hook.
const (
	PhaseResolve = "resolve"
	PhaseCrawl   = "crawl"
	PhaseProbe   = "probe"
	PhaseChecks  = "checks"
	PhaseScore   = "score"
)

// Scanner holds everything that outlives a single scan: configuration,
// signature tables and the classifier. Scan may be called repeatedly and
// concurrently; each call gets its own session, client and metrics.
type Scanner struct {
	config     *Config
	tables     *signatures.Tables
	classifier classifier.Classifier
	scorer     risk.Scorer
	warnings   []string
	log        *logger.Logger

	onFinding func(finding.Finding)
	onPhase   func(string, *metrics.Snapshot)
}

// New creates a scanner. Signature tables are loaded once here; a missing or
// corrupt table degrades to empty and is reported in every report's warnings.
func New(opts ...Option) (*Scanner, error) {
	s := &Scanner{
		config: DefaultConfig(),
		scorer: risk.Scorer{Rules: risk.DefaultRules()},
		log:    logger.Nop(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := s.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	s.log = s.log.WithComponent("scanner")

	if s.tables == nil {
		tables, errs := signatures.Load(s.config.SignaturesDir)
		for _, err := range errs {
			s.log.ErrorEvent(err, s.config.SignaturesDir, "load_signatures")
			s.warnings = append(s.warnings, err.Error())
		}
		if tables == nil {
			tables = &signatures.Tables{}
		}
		s.tables = tables
	}

	st := s.tables.Stats()
	s.log.Event(logger.DebugLevel).
		Int("payloads", st.XSSPayloads+st.SQLPayloads+st.LFIPayloads).
		Int("technologies", st.CMS+st.Frameworks+st.Servers+st.Libraries).
		Int("cves", st.CVEs).
		Msg("Signature tables ready")

	s.classifier = classifier.New(s.config.Classifier, s.log)
	return s, nil
}

// Config returns a copy of the scanner configuration.
func (s *Scanner) Config() *Config {
	return s.config.Clone()
}

// Tables returns the signature tables in use.
func (s *Scanner) Tables() *signatures.Tables {
	return s.tables
}

// scan is the per-invocation state.
type scan struct {
	*Scanner
	id      string
	log     *logger.Logger
	client  *scanhttp.Client
	session *state.Session
}

// Scan runs the full pipeline against raw and always returns a report. An
// invalid target yields StatusError, an unreachable one StatusDown; neither
// carries findings. Cancelling ctx or hitting ScanTimeout scores whatever
// was collected and marks the report partial.
func (s *Scanner) Scan(ctx context.Context, raw string) *Report {
	sc := &scan{Scanner: s, id: uuid.NewString()}
	sc.log = s.log.WithScanID(sc.id)

	report := &Report{
		ID:              sc.id,
		Target:          raw,
		StartedAt:       time.Now(),
		SeveritySummary: finding.Summarize(nil),
		Findings:        []finding.Finding{},
		Warnings:        append([]string(nil), s.warnings...),
	}

	t, err := target.Resolve(raw)
	if err != nil {
		sc.log.ErrorEvent(err, raw, "resolve")
		report.Status = StatusError
		report.Error = err.Error()
		report.CompletedAt = time.Now()
		return report
	}
	report.Target = t.String()
	sc.log = sc.log.WithURL(report.Target)

	if s.config.ScanTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ScanTimeout)
		defer cancel()
	}

	sc.client = s.newClient(sc.log)
	defer sc.client.Close()
	sc.session = state.NewSession(s.config.MaxPages, sc.log)
	sc.phase(PhaseResolve)

	home, err := sc.client.Get(ctx, report.Target)
	if err != nil {
		sc.log.Event(logger.WarnLevel).Err(err).Msg("Target unreachable")
		report.Status = StatusDown
		report.Error = fmt.Sprintf("unable to connect to target: %v", err)
		report.Partial = ctx.Err() != nil
		report.Stats.HTTP = sc.client.Metrics().Snapshot()
		report.CompletedAt = time.Now()
		return report
	}
	report.Status = StatusUp
	report.HTTPStatus = home.StatusCode

	sc.run(ctx, t, home, report)
	report.CompletedAt = time.Now()

	sc.log.StatsEvent(map[string]interface{}{
		"risk_score": report.RiskScore,
		"risk_level": string(report.RiskLevel),
		"findings":   len(report.Findings),
		"pages":      report.Stats.Pages,
		"partial":    report.Partial,
		"duration":   report.Duration().String(),
	})
	return report
}

func (s *Scanner) newClient(log *logger.Logger) *scanhttp.Client {
	cfg := scanhttp.DefaultClientConfig()
	cfg.Timeout = s.config.RequestTimeout
	cfg.MaxConnsPerHost = s.config.Workers * 2
	cfg.SkipTLSVerify = s.config.SkipTLSVerify
	cfg.Headers = s.config.CustomHeaders
	if s.config.UserAgent != "" {
		cfg.UserAgent = s.config.UserAgent
	}
	if s.config.RateLimit.RequestsPerSecond > 0 {
		cfg.Limiter = ratelimit.NewLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst)
	}
	cfg.Metrics = metrics.New()
	cfg.Logger = log
	return scanhttp.NewClient(cfg)
}

func (sc *scan) run(ctx context.Context, t target.Target, home *scanhttp.Response, report *Report) {
	sc.phase(PhaseCrawl)
	pages := sc.crawl(ctx, t, report)

	sc.phase(PhaseProbe)
	var (
		wg      sync.WaitGroup
		results []probe.Result
		techs   []fingerprint.TechMatch
		cves    []fingerprint.CVEMatch
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		results = sc.probe(ctx, t, pages)
	}()
	go func() {
		defer wg.Done()
		techs, cves = sc.fingerprint(pages)
	}()
	wg.Wait()

	sc.record(probe.Findings(results))
	sc.record(fingerprint.Findings(techs, cves))

	sc.phase(PhaseChecks)
	runner := checks.NewRunner(sc.client, sc.tables, sc.config.Checks, sc.log)
	checked := runner.Run(ctx, t, checks.Input{
		URL:     home.FinalURL,
		Status:  home.StatusCode,
		Header:  home.Header,
		Cookies: home.Cookies,
		Body:    home.Body,
		TLS:     home.TLS,
	})
	sc.record(checked.Findings)

	sc.phase(PhaseScore)
	assessment := sc.scorer.Score(sc.session.Findings())

	report.Findings = assessment.Findings
	report.RiskScore = assessment.Score
	report.RiskLevel = assessment.Level
	report.SeveritySummary = assessment.Summary
	report.Categories = assessment.Categorized
	report.Correlations = assessment.Correlated
	report.Technologies = techs
	report.Checks = &checked
	report.Warnings = append(report.Warnings, sc.session.Warnings()...)
	report.Partial = ctx.Err() != nil
	report.Stats = buildStats(pages, results, techs, cves, len(assessment.Findings), sc.client.Metrics().Snapshot())
}

func (sc *scan) crawl(ctx context.Context, t target.Target, report *Report) []crawler.Page {
	c, err := crawler.New(
		crawler.WithConfig(&crawler.Config{
			Workers:  sc.config.Workers,
			MaxDepth: sc.config.MaxDepth,
			MaxPages: sc.config.MaxPages,
			Scope:    sc.config.Scope,
		}),
		crawler.WithClient(sc.client),
		crawler.WithSession(sc.session),
		crawler.WithLogger(sc.log),
	)
	if err != nil {
		sc.session.AddWarning(fmt.Sprintf("crawler: %v", err))
		return nil
	}

	pages, err := c.Crawl(ctx, t)
	if err != nil && scanerrors.GetErrorType(err) != scanerrors.Cancelled {
		sc.session.AddWarning(fmt.Sprintf("crawl: %v", err))
	}

	for _, p := range pages {
		ps := output.PageSummary{URL: p.URL, Status: p.Status, Title: p.Title, Depth: p.Depth, Forms: len(p.Forms)}
		if p.Err != nil {
			ps.Error = p.Err.Error()
		}
		report.Pages = append(report.Pages, ps)
	}
	return pages
}

func (sc *scan) probe(ctx context.Context, t target.Target, pages []crawler.Page) []probe.Result {
	checker, err := scope.NewChecker(t.Host, sc.config.Scope)
	if err != nil {
		sc.session.AddWarning(fmt.Sprintf("probe scope: %v", err))
		return nil
	}

	cfg := sc.config.Probe
	if cfg.Workers <= 0 {
		cfg.Workers = sc.config.Workers
	}
	engine := probe.NewEngine(sc.client, sc.tables, sc.classifier, checker, cfg, sc.log)

	in := make([]probe.Page, 0, len(pages))
	for _, p := range pages {
		if !p.OK() {
			continue
		}
		in = append(in, probe.Page{URL: p.URL, Links: p.Links, Forms: p.Forms, Body: p.Body})
	}
	return engine.Run(ctx, t.String(), in)
}

func (sc *scan) fingerprint(pages []crawler.Page) ([]fingerprint.TechMatch, []fingerprint.CVEMatch) {
	fp := fingerprint.New(sc.tables, sc.log)

	var lists [][]fingerprint.TechMatch
	for _, p := range pages {
		if !p.OK() {
			continue
		}
		lists = append(lists, fp.Fingerprint(fingerprint.Input{
			URL:     p.URL,
			Header:  p.Header,
			Cookies: p.Cookies,
			Body:    p.Body,
			Scripts: p.Scripts,
		}))
	}
	techs := fingerprint.Merge(lists...)
	return techs, fp.MatchCVEs(techs)
}

// record appends fs to the session and passes each to the finding hook.
func (sc *scan) record(fs []finding.Finding) {
	for _, f := range fs {
		sc.session.AddFinding(f)
		sc.client.Metrics().RecordFinding()
		if sc.onFinding != nil {
			sc.onFinding(f)
		}
	}
}

func (sc *scan) phase(name string) {
	sc.log.PhaseEvent(name)
	if sc.onPhase != nil {
		var snap *metrics.Snapshot
		if sc.client != nil {
			snap = sc.client.Metrics().Snapshot()
		}
		sc.onPhase(name, snap)
	}
}

func buildStats(pages []crawler.Page, results []probe.Result, techs []fingerprint.TechMatch, cves []fingerprint.CVEMatch, findings int, snap *metrics.Snapshot) output.Stats {
	cs := crawler.Summarize(pages)
	ps := probe.Summarize(results)
	st := output.Stats{
		Pages:         cs.Visited,
		FailedPages:   cs.Failed,
		Forms:         cs.Forms,
		Probes:        ps.Probes,
		ProbesMatched: ps.Matched,
		ProbesFailed:  ps.Failed,
		Technologies:  len(techs),
		CVEMatches:    len(cves),
		Findings:      findings,
		HTTP:          snap,
	}
	for _, t := range techs {
		if t.Category == fingerprint.JSLibrary {
			st.JSLibraries++
		}
	}
	return st
}
