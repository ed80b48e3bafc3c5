package classifier

import (
	"math"
	"sort"
	"strings"
	"unicode"

	scanerrors "github.com/PentesterFlow/OpenScanner/internal/errors"
)

// Sample is one labelled training text.
type Sample struct {
	Text     string
	Category Category
}

// DefaultTrainingSet returns the built-in labelled samples.
func DefaultTrainingSet() []Sample {
	return []Sample{
		{"Welcome to our website", Safe},
		{"Page loaded successfully", Safe},
		{"Thank you for your submission", Safe},
		{"Homepage content", Safe},

		{"SQL syntax error near", SQLi},
		{"mysql_fetch_array", SQLi},
		{"You have an error in your SQL syntax", SQLi},
		{"Warning: mysql_", SQLi},
		{"ORA-00933: SQL command not properly ended", SQLi},
		{"Microsoft SQL Native Client error", SQLi},
		{"PostgreSQL query failed", SQLi},

		{"<script>alert", XSS},
		{"javascript:alert", XSS},
		{"<img src=x onerror=", XSS},
		{"eval(", XSS},
		{"<svg onload=", XSS},

		{"Fatal error:", Error},
		{"Stack trace:", Error},
		{"Exception:", Error},
		{"Traceback (most recent call last):", Error},
		{"Parse error:", Error},
		{"Warning:", Error},
	}
}

// Bayes is a multinomial naive Bayes classifier over word tokens with
// Laplace smoothing. It is immutable after training.
type Bayes struct {
	classes  []Category
	logPrior []float64
	logLik   []map[string]float64
	unseen   []float64
	vocab    map[string]struct{}
}

// NewBayes trains a model. It fails with a ClassifierUnavailable error when
// the samples do not cover at least two categories or yield no tokens.
func NewBayes(samples []Sample) (*Bayes, error) {
	docs := map[Category]int{}
	counts := map[Category]map[string]int{}
	totals := map[Category]int{}
	vocab := map[string]struct{}{}

	for _, s := range samples {
		docs[s.Category]++
		if counts[s.Category] == nil {
			counts[s.Category] = map[string]int{}
		}
		for _, tok := range tokenize(s.Text) {
			counts[s.Category][tok]++
			totals[s.Category]++
			vocab[tok] = struct{}{}
		}
	}
	if len(docs) < 2 {
		return nil, scanerrors.NewClassifierUnavailableError("training data covers fewer than two categories")
	}
	if len(vocab) == 0 {
		return nil, scanerrors.NewClassifierUnavailableError("training data has no tokens")
	}

	b := &Bayes{vocab: vocab}
	for c := range docs {
		b.classes = append(b.classes, c)
	}
	sort.Slice(b.classes, func(i, j int) bool { return b.classes[i] < b.classes[j] })

	v := float64(len(vocab))
	for _, c := range b.classes {
		b.logPrior = append(b.logPrior, math.Log(float64(docs[c])/float64(len(samples))))
		denom := float64(totals[c]) + v
		lik := make(map[string]float64, len(counts[c]))
		for tok, n := range counts[c] {
			lik[tok] = math.Log((float64(n) + 1) / denom)
		}
		b.logLik = append(b.logLik, lik)
		b.unseen = append(b.unseen, math.Log(1/denom))
	}
	return b, nil
}

// Name implements Classifier.
func (b *Bayes) Name() string { return KindBayes }

// Classify implements Classifier. Text without any known token is safe with
// the confidence of an uninformed guess.
func (b *Bayes) Classify(text string) Result {
	var known []string
	for _, tok := range tokenize(text) {
		if _, ok := b.vocab[tok]; ok {
			known = append(known, tok)
		}
	}
	if len(known) == 0 {
		return Result{Category: Safe, Confidence: 1 / float64(len(b.classes)), Vulnerable: false}
	}

	scores := make([]float64, len(b.classes))
	best := 0
	for i := range b.classes {
		s := b.logPrior[i]
		for _, tok := range known {
			if l, ok := b.logLik[i][tok]; ok {
				s += l
			} else {
				s += b.unseen[i]
			}
		}
		scores[i] = s
		if s > scores[best] {
			best = i
		}
	}

	// softmax relative to the winner for the posterior of the best class
	var sum float64
	for _, s := range scores {
		sum += math.Exp(s - scores[best])
	}

	cat := b.classes[best]
	return Result{
		Category:   cat,
		Confidence: 1 / sum,
		Vulnerable: cat != Safe,
	}
}

func tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := fields[:0]
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			out = append(out, f)
		}
	}
	return out
}
