package session

import (
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseCrumbs(t *testing.T) {
	testCases := []struct {
		text     string
		expected []string
	}{
		{text: "a=1; b=2", expected: []string{"a=1", "b=2"}},
		{text: " a=1 ;; b=2 ; ", expected: []string{"a=1", "b=2"}},
		{text: "a=1; garbage; b=", expected: []string{"a=1", "b="}},
		{text: "=novalue; c=3", expected: []string{"c=3"}},
		{text: "", expected: nil},
		{text: "session=eyJhbGciOi.J9.xyz", expected: []string{"session=eyJhbGciOi.J9.xyz"}},
	}

	for _, test := range testCases {
		var got []string
		for _, c := range ParseCrumbs(test.text) {
			got = append(got, c.Name+"="+c.Value)
		}
		diff := cmp.Diff(test.expected, got)
		if diff != "" {
			t.Errorf("ParseCrumbs(%q) (-want +got):\n%s", test.text, diff)
		}
	}
}

func TestSeedAndRead(t *testing.T) {
	s := New("A")
	n := s.Seed("sid=abc; theme=dark; broken", "https://old.test/some/deep/page")
	require.Equal(t, 2, n)

	// seeded cookies apply to every path of the seeding host
	require.Equal(t, "sid=abc; theme=dark", s.CookieHeader("https://old.test/page"))
	require.Equal(t, "sid=abc; theme=dark", s.CookieHeader("https://old.test/"))

	// but never to another host, sibling subdomain, or parent domain
	require.Equal(t, "", s.CookieHeader("https://new.test/page"))
	require.Equal(t, "", s.CookieHeader("https://www.old.test/page"))
}

func TestSeedInvalidURL(t *testing.T) {
	s := New("A")
	require.Equal(t, 0, s.Seed("a=1", "not a url"))
	require.Equal(t, 0, s.Seed("a=1", ""))
}

func TestAbsorb(t *testing.T) {
	s := New("B")
	s.Seed("sid=old", "https://new.test/")

	header := http.Header{}
	header.Add("Set-Cookie", "sid=new; Path=/")
	header.Add("Set-Cookie", "auth=1; Path=/account; Secure")
	header.Add("Set-Cookie", "wide=1; Domain=new.test; Path=/")
	s.Absorb("https://new.test/login", header)

	require.Equal(t, "sid=new; wide=1", s.CookieHeader("https://new.test/"))
	require.Equal(t, "auth=1; sid=new; wide=1", s.CookieHeader("https://new.test/account/settings"))
	require.Equal(t, "wide=1", s.CookieHeader("https://sub.new.test/"))
	require.Equal(t, "sid=new; wide=1", s.Serialize("https://new.test/page"))
}

func TestAbsorbExpiry(t *testing.T) {
	s := New("A")
	s.Seed("sid=abc; keep=1", "https://old.test/")

	header := http.Header{}
	header.Add("Set-Cookie", "sid=; Path=/; Max-Age=0")
	s.Absorb("https://old.test/logout", header)

	require.Equal(t, "keep=1", s.CookieHeader("https://old.test/"))
}

func TestSessionsAreIsolated(t *testing.T) {
	a := New("A")
	b := New("B")
	a.Seed("side=a", "https://shared.test/")
	b.Seed("side=b", "https://shared.test/")

	header := http.Header{}
	header.Add("Set-Cookie", "fresh=1; Path=/")
	a.Absorb("https://shared.test/", header)

	require.Equal(t, "fresh=1; side=a", a.CookieHeader("https://shared.test/x"))
	require.Equal(t, "side=b", b.CookieHeader("https://shared.test/x"))
}
