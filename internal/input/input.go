// Package input reads the operator supplied files of a run: url pairs,
// cookies and credentials.
package input

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"menuparity/lib/authflow"
)

var (
	ErrNotHTTPS      = errors.New("only https urls are supported")
	ErrMalformedLine = errors.New("malformed line")
	ErrNoPairs       = errors.New("no url pairs")
)

type Pair struct {
	A string
	B string
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func isHTTPS(u string) bool {
	return len(u) >= len("https://") && strings.EqualFold(u[:len("https://")], "https://")
}

// ParsePairs reads one `urlA, urlB` pair per line. Blank lines and lines
// starting with # are skipped. The line is split on its first comma, so B
// may contain commas.
func ParsePairs(text string) ([]Pair, error) {
	var pairs []Pair
	for i, raw := range splitLines(text) {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		a, b, found := strings.Cut(line, ",")
		if !found {
			return nil, fmt.Errorf(`line %d: %w (expected "urlA, urlB"): %s`, i+1, ErrMalformedLine, line)
		}
		a = strings.TrimSpace(a)
		b = strings.TrimSpace(b)
		if !isHTTPS(a) || !isHTTPS(b) {
			return nil, fmt.Errorf("line %d: %w: %s", i+1, ErrNotHTTPS, line)
		}
		pairs = append(pairs, Pair{A: a, B: b})
	}
	return pairs, nil
}

// Cookies holds the cookie text of each side.
type Cookies struct {
	A string
	B string
}

// CleanCookie trims the cookie text and removes one pair of quotes wrapping
// all of it, as left behind by copying a header value out of devtools.
func CleanCookie(text string) string {
	s := strings.TrimSpace(text)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' && last == '\'') || (first == '"' && last == '"') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.TrimSpace(s)
}

// ParseCookies takes side A from the first line and side B from the second,
// B falls back to A when its line is missing or blank.
func ParseCookies(text string) Cookies {
	lines := splitLines(text)
	c := Cookies{A: CleanCookie(lines[0])}
	if len(lines) > 1 {
		c.B = CleanCookie(lines[1])
	}
	if c.B == "" {
		c.B = c.A
	}
	return c
}

// Credentials holds the login of each side.
type Credentials struct {
	A authflow.Credentials
	B authflow.Credentials
}

func (c Credentials) Any() bool {
	return c.A.Valid() || c.B.Valid()
}

func parseCredentialLine(n int, line string) (authflow.Credentials, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return authflow.Credentials{}, nil
	}
	username, password, found := strings.Cut(line, " ")
	if !found {
		username, password, found = strings.Cut(line, "\t")
	}
	password = strings.TrimSpace(password)
	if !found || password == "" {
		return authflow.Credentials{}, fmt.Errorf(`line %d: %w (expected "username password")`, n, ErrMalformedLine)
	}
	return authflow.Credentials{Username: username, Password: password}, nil
}

// ParseCredentials reads `username password` for side A from the first line
// and for side B from the second, B falls back to A.
func ParseCredentials(text string) (Credentials, error) {
	lines := splitLines(text)

	var c Credentials
	var err error
	c.A, err = parseCredentialLine(1, lines[0])
	if err != nil {
		return Credentials{}, err
	}
	if len(lines) > 1 {
		c.B, err = parseCredentialLine(2, lines[1])
		if err != nil {
			return Credentials{}, err
		}
	}
	if !c.B.Valid() {
		c.B = c.A
	}
	return c, nil
}

// Files names the input files of a run, Credentials is optional.
type Files struct {
	URLs        string
	Cookies     string
	Credentials string
}

type Inputs struct {
	Pairs       []Pair
	Cookies     Cookies
	Credentials Credentials
}

// Load reads and validates every input file. All errors are returned before
// any network activity.
func Load(files Files) (Inputs, error) {
	urls, err := os.ReadFile(files.URLs)
	if err != nil {
		return Inputs{}, fmt.Errorf("read urls file: %w", err)
	}
	cookies, err := os.ReadFile(files.Cookies)
	if err != nil {
		return Inputs{}, fmt.Errorf("read cookies file: %w", err)
	}

	pairs, err := ParsePairs(string(urls))
	if err != nil {
		return Inputs{}, fmt.Errorf("%s: %w", files.URLs, err)
	}
	if len(pairs) == 0 {
		return Inputs{}, fmt.Errorf("%s: %w", files.URLs, ErrNoPairs)
	}

	in := Inputs{
		Pairs:   pairs,
		Cookies: ParseCookies(string(cookies)),
	}

	if files.Credentials != "" {
		text, err := os.ReadFile(files.Credentials)
		if err != nil {
			return Inputs{}, fmt.Errorf("read credentials file: %w", err)
		}
		in.Credentials, err = ParseCredentials(string(text))
		if err != nil {
			return Inputs{}, fmt.Errorf("%s: %w", files.Credentials, err)
		}
	}
	return in, nil
}

// WriteCookies overwrites the cookies file with one line per side.
func WriteCookies(path string, c Cookies) error {
	return os.WriteFile(path, []byte(c.A+"\n"+c.B+"\n"), 0600)
}
