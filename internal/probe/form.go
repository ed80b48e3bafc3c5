package probe

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
	scanhttp "github.com/PentesterFlow/OpenScanner/internal/http"
	"github.com/PentesterFlow/OpenScanner/internal/parser"
)

// probeForm submits the form once per (named field, category) with the
// category's first payload in that field and filler everywhere else.
func (e *Engine) probeForm(ctx context.Context, f *parser.Form, pageBody string) []Result {
	fields := f.NamedFields()
	categories := []struct {
		kind    Kind
		payload string
	}{
		{XSS, first(e.vulns.XSS())},
		{SQLI, first(e.vulns.SQL())},
	}

	var out []Result
	for _, field := range fields {
		for _, c := range categories {
			if ctx.Err() != nil {
				return out
			}
			if c.payload == "" {
				continue
			}

			values := url.Values{}
			for _, other := range fields {
				values.Set(other.Name, e.config.FillerValue)
			}
			values.Set(field.Name, c.payload)

			method := f.Method
			if method != http.MethodPost {
				method = http.MethodGet
			}
			r := Result{Probe: Probe{
				Kind:      c.kind,
				Payload:   c.payload,
				TargetURL: f.Action,
				Param:     field.Name,
				Method:    method,
				Form:      f,
			}}

			resp, err := e.client.Do(ctx, scanhttp.Request{Method: method, URL: f.Action, Form: values})
			if err != nil {
				r.Err = err
				out = append(out, e.record(r))
				continue
			}
			e.detectForm(&r, resp.Body, pageBody)
			out = append(out, e.record(r))
		}
	}
	return out
}

func (e *Engine) detectForm(r *Result, body, pageBody string) {
	ev := map[string]interface{}{
		"action":  r.Probe.TargetURL,
		"method":  r.Probe.Method,
		"field":   r.Probe.Param,
		"payload": r.Probe.Payload,
	}

	switch r.Probe.Kind {
	case XSS:
		if strings.Contains(body, r.Probe.Payload) {
			r.Matched, r.Signal, r.SeverityHint = true, SignalReflection, finding.High
			ev["snippet"] = snippet(body, r.Probe.Payload, e.config.SnippetRadius)
			r.Evidence = ev
			return
		}
	case SQLI:
		if pattern, ok := e.vulns.MatchSQLError(body); ok {
			r.Matched, r.Signal, r.SeverityHint = true, SignalError, finding.High
			ev["pattern"] = pattern
			r.Evidence = ev
			return
		}
	}

	res := e.classifier.Classify(novelText(body, pageBody))
	if res.Vulnerable && res.Confidence >= e.config.ClassifierMinConfidence {
		r.Matched, r.Signal, r.SeverityHint = true, SignalClassifier, finding.High
		ev["classifier"] = e.classifier.Name()
		ev["category"] = string(res.Category)
		ev["confidence"] = res.Confidence
		r.Evidence = ev
	}
}

// novelText drops the lines of body that already appear on the page the
// form came from, so markup shared by both is not classified.
func novelText(body, reference string) string {
	if reference == "" {
		return body
	}
	known := map[string]bool{}
	for _, line := range strings.Split(reference, "\n") {
		known[strings.TrimSpace(line)] = true
	}
	var b strings.Builder
	for _, line := range strings.Split(body, "\n") {
		t := strings.TrimSpace(line)
		if t == "" || known[t] {
			continue
		}
		b.WriteString(t)
		b.WriteByte('\n')
	}
	return b.String()
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
