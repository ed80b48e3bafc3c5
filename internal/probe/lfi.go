package probe

import (
	"context"
	"net/http"
	"strings"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

// probeLFI sends traversal payloads. Status codes are ignored; only a file
// marker in the body counts.
func (e *Engine) probeLFI(ctx context.Context, t Target) []Result {
	var out []Result
	for _, payload := range e.vulns.LFI() {
		if ctx.Err() != nil {
			break
		}
		r := Result{Probe: Probe{Kind: LFI, Payload: payload, TargetURL: t.URL, Param: t.Param, Method: http.MethodGet}}

		resp, err := e.send(ctx, t, payload)
		if err != nil {
			r.Err = err
			out = append(out, e.record(r))
			continue
		}
		for _, marker := range e.vulns.Markers() {
			if strings.Contains(resp.Body, marker) {
				r.Matched = true
				r.Signal = SignalFile
				r.SeverityHint = finding.Critical
				r.Evidence = map[string]interface{}{
					"url":     t.URL,
					"param":   t.Param,
					"payload": payload,
					"marker":  marker,
					"status":  resp.StatusCode,
				}
				break
			}
		}
		out = append(out, e.record(r))
	}
	return out
}
