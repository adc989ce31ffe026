package authflow

import "strings"

// Detector decides whether a 200 response body is a login page that the
// flow should try to submit credentials to.
type Detector interface {
	IsLoginPage(body string) bool
}

// DefaultPhrases matches hosted login pages titled "Log in to <app>".
var DefaultPhrases = []string{"Log in to"}

// PhraseDetector recognizes a login page by one of its brand phrases
// together with a form that asks for a username (or email) and a password.
type PhraseDetector struct {
	Phrases []string
}

func (d PhraseDetector) IsLoginPage(body string) bool {
	if body == "" {
		return false
	}
	branded := false
	for _, p := range d.Phrases {
		if p != "" && strings.Contains(body, p) {
			branded = true
			break
		}
	}
	if !branded {
		return false
	}
	return strings.Contains(body, "form") &&
		(strings.Contains(body, "username") || strings.Contains(body, "email")) &&
		strings.Contains(body, "password")
}

// DetectorFunc adapts a plain function to Detector.
type DetectorFunc func(body string) bool

func (f DetectorFunc) IsLoginPage(body string) bool {
	return f(body)
}
