package probe

import (
	"context"
	"net/http"

	"github.com/agext/levenshtein"

	"github.com/PentesterFlow/OpenScanner/internal/finding"
)

// similaritySample bounds the levenshtein comparison.
const similaritySample = 2048

// probeSQLi fetches a baseline, then sends each payload. An error signature
// and a length differential are independent signals and may both fire for
// one payload.
func (e *Engine) probeSQLi(ctx context.Context, t Target) []Result {
	baseline := ""
	haveBaseline := false
	if resp, err := e.send(ctx, t, e.config.BaselineValue); err == nil {
		baseline = resp.Body
		haveBaseline = true
	}

	var out []Result
	for _, payload := range e.vulns.SQL() {
		if ctx.Err() != nil {
			break
		}
		p := Probe{Kind: SQLI, Payload: payload, TargetURL: t.URL, Param: t.Param, Method: http.MethodGet}

		resp, err := e.send(ctx, t, payload)
		if err != nil {
			out = append(out, e.record(Result{Probe: p, Err: err}))
			continue
		}

		fired := false
		if pattern, ok := e.vulns.MatchSQLError(resp.Body); ok {
			fired = true
			out = append(out, e.record(Result{
				Probe:        p,
				Signal:       SignalError,
				Matched:      true,
				SeverityHint: finding.High,
				Evidence: map[string]interface{}{
					"url":     t.URL,
					"param":   t.Param,
					"payload": payload,
					"pattern": pattern,
				},
			}))
		}

		if haveBaseline {
			delta := len(resp.Body) - len(baseline)
			if delta < 0 {
				delta = -delta
			}
			if delta > e.config.DifferentialThreshold {
				fired = true
				out = append(out, e.record(Result{
					Probe:        p,
					Signal:       SignalDiff,
					Matched:      true,
					SeverityHint: finding.Medium,
					Evidence: map[string]interface{}{
						"url":             t.URL,
						"param":           t.Param,
						"payload":         payload,
						"baseline_length": len(baseline),
						"response_length": len(resp.Body),
						"delta":           delta,
						"similarity":      similarity(baseline, resp.Body),
					},
				}))
			}
		}

		if !fired {
			out = append(out, e.record(Result{Probe: p}))
		}
	}
	return out
}

// similarity is 1 - distance/maxLen over the first similaritySample bytes.
func similarity(a, b string) float64 {
	if len(a) > similaritySample {
		a = a[:similaritySample]
	}
	if len(b) > similaritySample {
		b = b[:similaritySample]
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	if maxLen == 0 {
		return 1
	}
	return 1 - float64(levenshtein.Distance(a, b, nil))/float64(maxLen)
}
