package textutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollapseWhitespace(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "  Home ", expected: "Home"},
		{input: "My\n\t  Account", expected: "My Account"},
		{input: "", expected: ""},
		{input: " \n ", expected: ""},
	}
	for _, row := range table {
		require.Equal(t, row.expected, CollapseWhitespace(row.input))
	}
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "myaccount", NormalizeName(" My\tAccount "))
	require.Equal(t, NormalizeName("Sign out"), NormalizeName("SIGN  OUT"))
}

func TestUnifiedDiff(t *testing.T) {
	diff, err := UnifiedDiff([]string{"Home", "About"}, []string{"Home", "About"})
	require.NoError(t, err)
	require.Empty(t, diff)

	diff, err = UnifiedDiff(
		[]string{"Home", "About", "Contact"},
		[]string{"Home", "About us", "Contact"},
	)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(diff, "--- menu-old\n+++ menu-new\n"), diff)
	require.Contains(t, diff, "-About\n")
	require.Contains(t, diff, "+About us\n")
	require.Contains(t, diff, " Home\n")
}

func TestTruncateLines(t *testing.T) {
	text := "a\nb\nc\nd\n"

	out, rest := TruncateLines(text, 2)
	require.Equal(t, "a\nb\n", out)
	require.Equal(t, 2, rest)

	out, rest = TruncateLines(text, 10)
	require.Equal(t, text, out)
	require.Zero(t, rest)
}

func TestRequestTarget(t *testing.T) {
	table := []struct {
		input    string
		expected string
	}{
		{input: "https://a.test/account?tab=1#top", expected: "/account?tab=1#top"},
		{input: "https://a.test", expected: "/"},
		{input: "https://a.test/x/y", expected: "/x/y"},
	}
	for _, row := range table {
		require.Equal(t, row.expected, RequestTarget(row.input))
	}
}
