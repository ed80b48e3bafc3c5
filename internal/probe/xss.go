package probe

import (
	"context"
	"net/http"
	"strings"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

// probeXSS sends each reflection payload and matches when the payload comes
// back verbatim.
func (e *Engine) probeXSS(ctx context.Context, t Target) []Result {
	var out []Result
	for _, payload := range e.vulns.XSS() {
		if ctx.Err() != nil {
			break
		}
		r := Result{Probe: Probe{Kind: XSS, Payload: payload, TargetURL: t.URL, Param: t.Param, Method: http.MethodGet}}

		resp, err := e.send(ctx, t, payload)
		if err != nil {
			r.Err = err
			out = append(out, e.record(r))
			continue
		}
		if strings.Contains(resp.Body, payload) {
			r.Matched = true
			r.Signal = SignalReflection
			r.SeverityHint = finding.High
			r.Evidence = map[string]interface{}{
				"url":     t.URL,
				"param":   t.Param,
				"payload": payload,
				"snippet": snippet(resp.Body, payload, e.config.SnippetRadius),
			}
		}
		out = append(out, e.record(r))
	}
	return out
}
