package probe

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/PentesterFlow/OpenScanner/internal/classifier"
	scanhttp "github.com/PentesterFlow/OpenScanner/internal/http"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
	"github.com/PentesterFlow/OpenScanner/internal/metrics"
	"github.com/PentesterFlow/OpenScanner/internal/parser"
	"github.com/PentesterFlow/OpenScanner/internal/scope"
	"github.com/PentesterFlow/OpenScanner/internal/signatures"
)

// Engine runs probes against a crawled surface.
type Engine struct {
	client     *scanhttp.Client
	vulns      *signatures.VulnSignatures
	classifier classifier.Classifier
	checker    *scope.Checker
	config     Config
	metrics    *metrics.Collector
	log        *logger.Logger
}

// NewEngine creates an engine. A nil classifier means the keyword rules; nil
// tables mean the built-in payloads with no SQL error patterns.
func NewEngine(client *scanhttp.Client, tables *signatures.Tables, cls classifier.Classifier, checker *scope.Checker, config Config, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	if cls == nil {
		cls = classifier.NewRules()
	}
	if tables == nil {
		tables = &signatures.Tables{}
	}
	return &Engine{
		client:     client,
		vulns:      &tables.Vulns,
		classifier: cls,
		checker:    checker,
		config:     config.withDefaults(),
		metrics:    client.Metrics(),
		log:        log.WithComponent("probe"),
	}
}

type job struct {
	target   Target
	kind     Kind
	form     *parser.Form
	formPage string
	pageBody string
}

// Run probes every target and form found in pages and returns all results
// in job order. Cancellation drops jobs that have not started.
func (e *Engine) Run(ctx context.Context, origin string, pages []Page) []Result {
	jobs := e.plan(origin, pages)
	slots := make([][]Result, len(jobs))

	work := make(chan int)
	var wg sync.WaitGroup
	workers := e.config.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					continue
				}
				slots[idx] = e.runJob(ctx, jobs[idx])
			}
		}()
	}

dispatch:
	for i := range jobs {
		select {
		case <-ctx.Done():
			break dispatch
		case work <- i:
		}
	}
	close(work)
	wg.Wait()

	var out []Result
	for _, s := range slots {
		out = append(out, s...)
	}

	matched := 0
	for _, r := range out {
		if r.Matched {
			matched++
		}
	}
	e.log.Event(logger.InfoLevel).
		Int("jobs", len(jobs)).
		Int("results", len(out)).
		Int("matched", matched).
		Msg("Probing finished")
	return out
}

func (e *Engine) plan(origin string, pages []Page) []job {
	var jobs []job
	for _, t := range ExtractTargets(origin, pages, e.checker, e.config.MaxTargets) {
		for _, k := range []Kind{XSS, SQLI, LFI} {
			jobs = append(jobs, job{target: t, kind: k})
		}
	}

	seen := map[string]bool{}
	for _, p := range pages {
		for i := range p.Forms {
			f := p.Forms[i]
			if len(f.NamedFields()) == 0 || !e.formInScope(f) {
				continue
			}
			k := formKey(f)
			if seen[k] {
				continue
			}
			seen[k] = true
			jobs = append(jobs, job{form: &f, formPage: p.URL, pageBody: p.Body})
		}
	}
	return jobs
}

func (e *Engine) formInScope(f parser.Form) bool {
	return e.checker == nil || e.checker.SameHost(f.Action)
}

func formKey(f parser.Form) string {
	names := make([]string, 0, len(f.Fields))
	for _, fl := range f.NamedFields() {
		names = append(names, fl.Name)
	}
	return f.Method + " " + f.Action + " " + strings.Join(names, ",")
}

func (e *Engine) runJob(ctx context.Context, j job) []Result {
	if j.form != nil {
		return e.probeForm(ctx, j.form, j.pageBody)
	}
	switch j.kind {
	case XSS:
		return e.probeXSS(ctx, j.target)
	case SQLI:
		return e.probeSQLi(ctx, j.target)
	default:
		return e.probeLFI(ctx, j.target)
	}
}

// send issues a GET with param set to value.
func (e *Engine) send(ctx context.Context, t Target, value string) (*scanhttp.Response, error) {
	return e.client.Do(ctx, scanhttp.Request{
		Method: http.MethodGet,
		URL:    t.URL,
		Form:   map[string][]string{t.Param: {value}},
	})
}

func (e *Engine) record(r Result) Result {
	e.metrics.RecordProbe(r.Matched)
	if r.Matched {
		e.log.ProbeEvent(string(r.Probe.Kind), string(r.Signal), r.Probe.TargetURL, r.Probe.Param)
	}
	return r
}

// snippet returns up to radius bytes either side of the first occurrence of
// needle in body.
func snippet(body, needle string, radius int) string {
	i := strings.Index(body, needle)
	if i < 0 {
		return ""
	}
	start := i - radius
	if start < 0 {
		start = 0
	}
	end := i + len(needle) + radius
	if end > len(body) {
		end = len(body)
	}
	return body[start:end]
}
