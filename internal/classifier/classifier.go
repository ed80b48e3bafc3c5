// Package classifier labels response text as safe or as showing signs of SQL
// injection, script injection or a server error.
package classifier

import (
	"strings"

	scanerrors "github.com/PentesterFlow/OpenScanner/internal/errors"
	"github.com/PentesterFlow/OpenScanner/internal/logger"
)

// Category is a classification label.
type Category string

const (
	Safe  Category = "safe"
	SQLi  Category = "sqli"
	XSS   Category = "xss"
	Error Category = "error"
)

// Result is the outcome of one classification. Every implementation returns
// the same shape; only the confidence values differ.
type Result struct {
	Category   Category `json:"category" yaml:"category"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Vulnerable bool     `json:"vulnerable" yaml:"vulnerable"`
}

// Classifier classifies response text. Implementations are safe for
// concurrent use.
type Classifier interface {
	Classify(text string) Result
	Name() string
}

// Kind names a classifier implementation in configuration.
const (
	KindRules = "rules"
	KindBayes = "bayes"
)

// New returns the classifier named by kind. When the statistical model cannot
// be built the keyword rules are returned instead; the failure is only logged.
func New(kind string, log *logger.Logger) Classifier {
	if log == nil {
		log = logger.Nop()
	}
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindBayes:
		b, err := NewBayes(DefaultTrainingSet())
		if err != nil {
			log.WithComponent("classifier").ErrorEvent(err, "", "train")
			return NewRules()
		}
		return b
	case "", KindRules:
		return NewRules()
	default:
		log.WithComponent("classifier").ErrorEvent(
			scanerrors.NewClassifierUnavailableError("unknown classifier "+kind), "", "select")
		return NewRules()
	}
}
