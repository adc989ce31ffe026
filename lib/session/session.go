// Package session holds the cookie state of one side of a comparison run.
//
// A Session is seeded once from operator supplied cookie text and is then
// mutated by every response that passes through a client using its Jar. The
// underlying store is net/http/cookiejar, so domain, path, secure and expiry
// scoping follow RFC 6265.
package session

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

type Session struct {
	Name string
	jar  *cookiejar.Jar
}

func New(name string) *Session {
	// cookiejar.New never returns an error
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		panic(err)
	}
	return &Session{Name: name, jar: jar}
}

// ParseCrumbs splits a `;` delimited cookie string into cookies, silently
// dropping crumbs that are not a valid name=value pair.
func ParseCrumbs(cookieText string) []*http.Cookie {
	var out []*http.Cookie
	for _, crumb := range strings.Split(cookieText, ";") {
		crumb = strings.TrimSpace(crumb)
		if crumb == "" || !strings.Contains(crumb, "=") {
			continue
		}
		parsed, err := http.ParseCookie(crumb)
		if err != nil || len(parsed) != 1 {
			continue
		}
		out = append(out, parsed[0])
	}
	return out
}

// Seed registers every crumb of cookieText as a host-only cookie of
// firstURL's host, valid for every path. It returns the number of cookies
// stored.
func (s *Session) Seed(cookieText string, firstURL string) int {
	u, err := url.Parse(firstURL)
	if err != nil || u.Host == "" {
		return 0
	}

	crumbs := ParseCrumbs(cookieText)
	for _, c := range crumbs {
		c.Path = "/"
	}
	s.jar.SetCookies(u, crumbs)
	return len(crumbs)
}

// CookieHeader returns the value of the Cookie header a request to rawURL
// would carry.
func (s *Session) CookieHeader(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return formatCookies(s.jar.Cookies(u))
}

// Absorb applies the Set-Cookie headers of a response to rawURL.
func (s *Session) Absorb(rawURL string, header http.Header) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return
	}
	res := http.Response{Header: header}
	cookies := res.Cookies()
	if len(cookies) == 0 {
		return
	}
	s.jar.SetCookies(u, cookies)
}

// Serialize returns the cookie text to persist for rawURL, in the same format
// Seed accepts.
func (s *Session) Serialize(rawURL string) string {
	return s.CookieHeader(rawURL)
}

// Jar exposes the store for use as an http.Client cookie jar.
func (s *Session) Jar() http.CookieJar {
	return s.jar
}

func formatCookies(cookies []*http.Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
