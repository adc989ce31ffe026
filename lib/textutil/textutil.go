package textutil

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CollapseWhitespace replaces every whitespace run with a single space and
// trims the ends.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(text, " "))
}

// NormalizeName lowercases the name and removes all whitespace, it is used
// to compare labels that differ only in spacing or case.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

const (
	DiffFromFile = "menu-old"
	DiffToFile   = "menu-new"
)

// UnifiedDiff joins both lists with newlines and returns their unified diff
// with two lines of context. It returns "" when the lists are equal.
func UnifiedDiff(a, b []string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(a, "\n")),
		B:        difflib.SplitLines(strings.Join(b, "\n")),
		FromFile: DiffFromFile,
		ToFile:   DiffToFile,
		Context:  2,
	})
}

// TruncateLines keeps the first max lines of text and returns how many were
// cut off.
func TruncateLines(text string, max int) (string, int) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if max <= 0 || len(lines) <= max {
		return text, 0
	}
	return strings.Join(lines[:max], "\n") + "\n", len(lines) - max
}

// RequestTarget is the path, query and fragment of a url, what a reader
// needs to tell two pages on the same host apart.
func RequestTarget(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	target := u.EscapedPath()
	if target == "" {
		target = "/"
	}
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	if u.Fragment != "" {
		target += "#" + u.EscapedFragment()
	}
	return target
}
