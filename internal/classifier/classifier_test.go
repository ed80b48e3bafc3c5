package classifier

import (
	"testing"

	scanerrors "github.com/PentesterFlow/OpenScanner/internal/errors"
)

// ============================================================================
// Shared behavior (both implementations)
// ============================================================================

func implementations(t *testing.T) []Classifier {
	t.Helper()
	b, err := NewBayes(DefaultTrainingSet())
	if err != nil {
		t.Fatalf("NewBayes() error = %v", err)
	}
	return []Classifier{NewRules(), b}
}

func TestClassify_Categories(t *testing.T) {
	tests := []struct {
		text string
		want Category
	}{
		{"You have an error in your SQL syntax near line 1", SQLi},
		{"<script>alert(1)</script>", XSS},
		{"<svg onload=alert(1)>", XSS},
		{"Traceback (most recent call last): File", Error},
		{"Thank you for your submission", Safe},
	}

	for _, c := range implementations(t) {
		for _, tt := range tests {
			got := c.Classify(tt.text)
			if got.Category != tt.want {
				t.Errorf("%s.Classify(%q).Category = %v, want %v", c.Name(), tt.text, got.Category, tt.want)
			}
			if got.Vulnerable != (tt.want != Safe) {
				t.Errorf("%s.Classify(%q).Vulnerable = %v", c.Name(), tt.text, got.Vulnerable)
			}
		}
	}
}

func TestClassify_ResultShape(t *testing.T) {
	inputs := []string{"", "hello world", "Fatal error: Uncaught Exception", "ORA-00933"}
	for _, c := range implementations(t) {
		for _, in := range inputs {
			got := c.Classify(in)
			if got.Confidence < 0 || got.Confidence > 1 {
				t.Errorf("%s.Classify(%q).Confidence = %v, want within [0,1]", c.Name(), in, got.Confidence)
			}
			switch got.Category {
			case Safe, SQLi, XSS, Error:
			default:
				t.Errorf("%s.Classify(%q).Category = %q, not a known category", c.Name(), in, got.Category)
			}
			if got.Vulnerable == (got.Category == Safe) {
				t.Errorf("%s.Classify(%q) Vulnerable=%v inconsistent with %v", c.Name(), in, got.Vulnerable, got.Category)
			}
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for _, c := range implementations(t) {
		a := c.Classify("Warning: mysql_fetch_array() expects parameter 1")
		b := c.Classify("Warning: mysql_fetch_array() expects parameter 1")
		if a != b {
			t.Errorf("%s.Classify() not deterministic: %+v vs %+v", c.Name(), a, b)
		}
	}
}

// ============================================================================
// Rules
// ============================================================================

func TestRules_Confidence(t *testing.T) {
	r := NewRules()
	tests := []struct {
		text string
		want float64
	}{
		{"mysql said no", 0.8},
		{"onerror=x", 0.8},
		{"fatal error", 0.7},
		{"all good", 0.6},
	}
	for _, tt := range tests {
		if got := r.Classify(tt.text).Confidence; got != tt.want {
			t.Errorf("Classify(%q).Confidence = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestRules_SQLBeforeXSS(t *testing.T) {
	got := NewRules().Classify("<script>mysql error</script>")
	if got.Category != SQLi {
		t.Errorf("Classify() = %v, want %v", got.Category, SQLi)
	}
}

// ============================================================================
// Bayes
// ============================================================================

func TestBayes_UnknownTokens(t *testing.T) {
	b, _ := NewBayes(DefaultTrainingSet())
	got := b.Classify("lorem ipsum dolor")
	if got.Category != Safe || got.Vulnerable {
		t.Errorf("Classify() = %+v, want safe", got)
	}
	if got.Confidence != 0.25 {
		t.Errorf("Classify().Confidence = %v, want 0.25", got.Confidence)
	}
}

func TestBayes_HighConfidenceOnStrongSignal(t *testing.T) {
	b, _ := NewBayes(DefaultTrainingSet())
	got := b.Classify("You have an error in your SQL syntax near line 1")
	if got.Confidence < 0.9 {
		t.Errorf("Classify().Confidence = %v, want >= 0.9", got.Confidence)
	}
}

func TestNewBayes_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
	}{
		{"empty", nil},
		{"single category", []Sample{{"a b", Safe}, {"c d", Safe}}},
		{"no tokens", []Sample{{"!", Safe}, {"?", SQLi}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBayes(tt.samples)
			if err == nil {
				t.Fatal("NewBayes() error = nil, want error")
			}
			if got := scanerrors.GetErrorType(err); got != scanerrors.ClassifierUnavailable {
				t.Errorf("GetErrorType() = %v, want %v", got, scanerrors.ClassifierUnavailable)
			}
		})
	}
}

func TestTokenize(t *testing.T) {
	got := tokenize("ORA-00933: mysql_fetch_array() a <b>")
	want := []string{"ora", "00933", "mysql_fetch_array"}
	if len(got) != len(want) {
		t.Fatalf("tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("tokenize()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

// ============================================================================
// Selection
// ============================================================================

func TestNew(t *testing.T) {
	tests := []struct {
		kind string
		want string
	}{
		{"", KindRules},
		{"rules", KindRules},
		{"BAYES", KindBayes},
		{"neural", KindRules},
	}
	for _, tt := range tests {
		if got := New(tt.kind, nil).Name(); got != tt.want {
			t.Errorf("New(%q).Name() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
