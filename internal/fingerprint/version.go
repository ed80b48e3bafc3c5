package fingerprint

import (
	"fmt"
	"strconv"
	"strings"
)

// CompareVersions compares dotted numeric versions component by component.
// A missing trailing component counts as 0, so "1.2" equals "1.2.0". A
// leading "v" is ignored. Any non-numeric component is an error.
func CompareVersions(a, b string) (int, error) {
	pa, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	pb, err := parseVersion(b)
	if err != nil {
		return 0, err
	}

	n := len(pa)
	if len(pb) > n {
		n = len(pb)
	}
	for i := 0; i < n; i++ {
		var x, y int
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		switch {
		case x < y:
			return -1, nil
		case x > y:
			return 1, nil
		}
	}
	return 0, nil
}

func parseVersion(v string) ([]int, error) {
	s := strings.TrimSpace(v)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "v"), "V")
	if s == "" {
		return nil, fmt.Errorf("empty version %q", v)
	}
	parts := strings.Split(s, ".")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("non-numeric version %q", v)
		}
		out[i] = n
	}
	return out, nil
}

// Affected reports whether version falls in any of ranges. A range is one
// or more space-separated terms ("<3.0.0", ">=1.2.0 <3.5.0", "=2.4.49") that
// must all hold. Anything that cannot be compared numerically is not
// affected.
func Affected(version string, ranges []string) bool {
	if _, err := parseVersion(version); err != nil {
		return false
	}
	for _, r := range ranges {
		if inRange(version, r) {
			return true
		}
	}
	return false
}

func inRange(version, r string) bool {
	terms := strings.Fields(r)
	if len(terms) == 0 {
		return false
	}
	for _, term := range terms {
		ok, valid := holds(version, term)
		if !valid || !ok {
			return false
		}
	}
	return true
}

// holds evaluates one term; valid is false when it cannot be evaluated.
func holds(version, term string) (ok, valid bool) {
	for _, op := range []string{"<=", ">=", "<", ">", "="} {
		if !strings.HasPrefix(term, op) {
			continue
		}
		c, err := CompareVersions(version, strings.TrimPrefix(term, op))
		if err != nil {
			return false, false
		}
		switch op {
		case "<=":
			return c <= 0, true
		case ">=":
			return c >= 0, true
		case "<":
			return c < 0, true
		case ">":
			return c > 0, true
		default:
			return c == 0, true
		}
	}
	return false, false
}
