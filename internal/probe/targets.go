package probe

import (
	"net/url"
	"sort"

	"github.com/PentesterFlow/OpenScanner/internal/scope"
)

// Parameters synthesized when the crawl found no query strings.
var syntheticParams = []string{"id", "page"}

// ExtractTargets collects (URL, parameter) pairs from page URLs and from
// in-scope links that carry a query, in crawl order, capped at max. When
// none exist it synthesizes origin?id= and origin?page=.
func ExtractTargets(origin string, pages []Page, checker *scope.Checker, max int) []Target {
	seen := map[Target]bool{}
	var out []Target

	add := func(raw string) {
		u, err := url.Parse(raw)
		if err != nil || u.RawQuery == "" {
			return
		}
		params := make([]string, 0, len(u.Query()))
		for p := range u.Query() {
			if p != "" {
				params = append(params, p)
			}
		}
		// query order is lost in url.Values; sort for reproducible output
		sort.Strings(params)

		base := scope.StripQuery(raw)
		for _, p := range params {
			t := Target{URL: base, Param: p}
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}

	for _, p := range pages {
		add(p.URL)
		for _, link := range p.Links {
			if checker != nil && !checker.IsInScope(link) {
				continue
			}
			add(link)
		}
	}

	if len(out) == 0 {
		for _, p := range syntheticParams {
			out = append(out, Target{URL: origin, Param: p})
		}
	}
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}
