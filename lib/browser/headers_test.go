package browser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistrableDomain(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "example.com", expected: "example.com"},
		{input: "a.example.com", expected: "example.com"},
		{input: "deep.a.Example.COM", expected: "example.com"},
		{input: "example.com.", expected: "example.com"},
		{input: "localhost", expected: "localhost"},
		{input: "shop.example.co.uk", expected: "co.uk"},
	}

	for _, row := range table {
		require.Equal(t, row.expected, RegistrableDomain(row.input), row.input)
	}
}

func TestFetchSite(t *testing.T) {
	table := []struct {
		target   string
		referer  string
		expected string
	}{
		{target: "https://a.example.com/x", referer: "https://b.other.com/y", expected: FetchSiteCrossSite},
		{target: "https://a.example.com/x", referer: "https://b.example.com/y", expected: FetchSiteSameSite},
		{target: "https://example.com/x", referer: "https://www.example.com/", expected: FetchSiteSameSite},
		{target: "https://login.idp.net/authorize", referer: "https://app.example.com/", expected: FetchSiteCrossSite},
		{target: "https://a.example.com/x", referer: "", expected: FetchSiteNone},
		{target: "https://a.example.com/x", referer: "::not a url", expected: FetchSiteNone},
		{target: "https://a.example.com/x", referer: "relative/path", expected: FetchSiteNone},
	}

	for _, row := range table {
		require.Equal(t, row.expected, FetchSite(row.target, row.referer), "%s <- %s", row.target, row.referer)
	}
}

func TestHeaders(t *testing.T) {
	h := Headers("https://new.test/page", "")
	require.Equal(t, Chrome.UserAgent, h.Get("User-Agent"))
	require.Equal(t, FetchSiteNone, h.Get("Sec-Fetch-Site"))
	require.Equal(t, "navigate", h.Get("Sec-Fetch-Mode"))
	require.Empty(t, h.Get("Referer"))
	require.NotEmpty(t, h.Get("Sec-CH-UA"))

	h = Headers("https://new.test/page", "https://portal.new.test/home")
	require.Equal(t, FetchSiteSameSite, h.Get("Sec-Fetch-Site"))
	require.Equal(t, "https://portal.new.test/home", h.Get("Referer"))
}

func TestFormSubmitHeaders(t *testing.T) {
	base := Headers("https://idp.test/u/login?state=x", "https://app.test/")
	h := FormSubmitHeaders(base, "https://idp.test/u/login?state=x")

	require.Equal(t, "application/x-www-form-urlencoded", h.Get("Content-Type"))
	require.Equal(t, "https://idp.test", h.Get("Origin"))
	require.Equal(t, "https://idp.test/u/login?state=x", h.Get("Referer"))
	require.Equal(t, FetchSiteSameOrigin, h.Get("Sec-Fetch-Site"))
	require.Equal(t, Chrome.UserAgent, h.Get("User-Agent"))

	// base is left untouched
	require.Equal(t, FetchSiteCrossSite, base.Get("Sec-Fetch-Site"))
	require.Empty(t, base.Get("Origin"))
}
