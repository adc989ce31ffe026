// Package browser builds request headers that look like a desktop Chrome
// top-level navigation.
package browser

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	FetchSiteNone       = "none"
	FetchSiteSameOrigin = "same-origin"
	FetchSiteSameSite   = "same-site"
	FetchSiteCrossSite  = "cross-site"
)

type Profile struct {
	UserAgent       string
	Accept          string
	AcceptLanguage  string
	SecCHUA         string
	SecCHUAMobile   string
	SecCHUAPlatform string
}

var Chrome = Profile{
	UserAgent:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36",
	Accept:          "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
	AcceptLanguage:  "en-US,en;q=0.9",
	SecCHUA:         `"Google Chrome";v="141", "Not?A_Brand";v="8", "Chromium";v="141"`,
	SecCHUAMobile:   "?0",
	SecCHUAPlatform: `"Windows"`,
}

// RegistrableDomain approximates the registrable domain of a host by keeping
// its last two dot separated labels. This is not public suffix list exact,
// "a.example.co.uk" yields "co.uk".
func RegistrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	labels := strings.Split(host, ".")
	if len(labels) <= 2 {
		return host
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// FetchSite computes the Sec-Fetch-Site value of a navigation to target that
// was initiated from referer.
func FetchSite(target, referer string) string {
	if referer == "" {
		return FetchSiteNone
	}
	refURL, err := url.Parse(referer)
	if err != nil || refURL.Hostname() == "" {
		return FetchSiteNone
	}
	targetURL, err := url.Parse(target)
	if err != nil {
		return FetchSiteNone
	}

	if RegistrableDomain(targetURL.Hostname()) == RegistrableDomain(refURL.Hostname()) {
		return FetchSiteSameSite
	}
	return FetchSiteCrossSite
}

// Headers returns the header set of a navigation to target, referer may be
// empty.
func (p Profile) Headers(target, referer string) http.Header {
	h := http.Header{}
	h.Set("User-Agent", p.UserAgent)
	h.Set("Accept", p.Accept)
	h.Set("Accept-Language", p.AcceptLanguage)
	h.Set("Cache-Control", "no-cache")
	h.Set("Pragma", "no-cache")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Priority", "u=0, i")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", FetchSite(target, referer))
	h.Set("Sec-Fetch-User", "?1")
	h.Set("Sec-CH-UA", p.SecCHUA)
	h.Set("Sec-CH-UA-Mobile", p.SecCHUAMobile)
	h.Set("Sec-CH-UA-Platform", p.SecCHUAPlatform)
	if referer != "" {
		h.Set("Referer", referer)
	}
	return h
}

// Headers is Chrome.Headers.
func Headers(target, referer string) http.Header {
	return Chrome.Headers(target, referer)
}

// FormSubmitHeaders derives the headers of a same-origin form POST made from
// the page at pageURL.
func FormSubmitHeaders(base http.Header, pageURL string) http.Header {
	h := base.Clone()
	h.Set("Content-Type", "application/x-www-form-urlencoded")
	h.Set("Referer", pageURL)
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", FetchSiteSameOrigin)
	h.Set("Sec-Fetch-User", "?1")
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		h.Set("Origin", u.Scheme+"://"+u.Host)
	}
	return h
}
