package parser

import (
	"strings"
)

// FormAnalyzer classifies forms for the credential and probe checks.
type FormAnalyzer struct{}

// NewFormAnalyzer creates a new form analyzer.
func NewFormAnalyzer() *FormAnalyzer {
	return &FormAnalyzer{}
}

// FormType represents the purpose of a form.
type FormType string

const (
	FormTypeLogin   FormType = "login"
	FormTypeSignup  FormType = "signup"
	FormTypeSearch  FormType = "search"
	FormTypeUpload  FormType = "upload"
	FormTypeGeneric FormType = "generic"
)

var csrfPatterns = []string{
	"csrf",
	"csrftoken",
	"csrfmiddlewaretoken",
	"__requestverificationtoken",
	"authenticity_token",
	"_token",
	"xsrf",
	"antiforgery",
	"nonce",
}

// DetectCSRF returns the first hidden field that looks like an anti-CSRF token.
func (a *FormAnalyzer) DetectCSRF(fields []Field) (bool, string) {
	for _, field := range fields {
		if field.Kind != "hidden" {
			continue
		}
		name := strings.ToLower(field.Name)
		for _, pattern := range csrfPatterns {
			if strings.Contains(name, pattern) {
				return true, field.Name
			}
		}
	}
	return false, ""
}

// Classify guesses what form is for.
func (a *FormAnalyzer) Classify(form Form) FormType {
	var names []string
	types := make(map[string]int)
	for _, field := range form.Fields {
		names = append(names, strings.ToLower(field.Name))
		types[field.Kind]++
	}
	allNames := strings.Join(names, " ")
	action := strings.ToLower(form.Action)
	visible := countVisible(types)

	if types["password"] > 0 {
		if visible <= 4 {
			for _, ind := range []string{"login", "signin", "sign-in", "log-in", "auth"} {
				if strings.Contains(allNames, ind) || strings.Contains(action, ind) {
					return FormTypeLogin
				}
			}
			if strings.Contains(allNames, "user") || strings.Contains(allNames, "email") || strings.Contains(allNames, "login") {
				return FormTypeLogin
			}
		}
		if strings.Contains(allNames, "confirm") || strings.Contains(action, "register") || strings.Contains(action, "signup") {
			return FormTypeSignup
		}
		return FormTypeLogin
	}

	if types["search"] > 0 || strings.Contains(allNames, "search") || strings.Contains(allNames, "query") {
		return FormTypeSearch
	}
	if types["file"] > 0 || form.Enctype == "multipart/form-data" {
		return FormTypeUpload
	}
	return FormTypeGeneric
}

// IsLogin reports whether form collects credentials for signing in.
func (a *FormAnalyzer) IsLogin(form Form) bool {
	return a.Classify(form) == FormTypeLogin
}

func countVisible(types map[string]int) int {
	total := 0
	for t, n := range types {
		switch t {
		case "hidden", "submit", "button", "reset", "image":
		default:
			total += n
		}
	}
	return total
}
