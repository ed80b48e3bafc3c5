package classifier

import "strings"

type rule struct {
	category   Category
	confidence float64
	patterns   []string
}

// Rules is the deterministic keyword classifier. The first rule with a
// matching pattern wins.
type Rules struct {
	rules []rule
}

// NewRules returns the keyword classifier.
func NewRules() *Rules {
	return &Rules{rules: []rule{
		{SQLi, 0.8, []string{"sql syntax", "mysql", "postgresql", "ora-", "database error"}},
		{XSS, 0.8, []string{"<script", "javascript:", "onerror=", "onload="}},
		{Error, 0.7, []string{"fatal error", "exception", "traceback", "parse error"}},
	}}
}

// Name implements Classifier.
func (r *Rules) Name() string { return KindRules }

// Classify implements Classifier.
func (r *Rules) Classify(text string) Result {
	lower := strings.ToLower(text)
	for _, ru := range r.rules {
		for _, p := range ru.patterns {
			if strings.Contains(lower, p) {
				return Result{Category: ru.category, Confidence: ru.confidence, Vulnerable: true}
			}
		}
	}
	return Result{Category: Safe, Confidence: 0.6, Vulnerable: false}
}
