package compare

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOnlyIn(t *testing.T) {
	require.Equal(t, []string{"x", "a"}, onlyIn([]string{"a", "x", "a", "b"}, []string{"a", "b"}))
	require.Empty(t, onlyIn([]string{"a"}, []string{"a", "a"}))
}

func TestRenameHints(t *testing.T) {
	table := []struct {
		name     string
		a        []string
		b        []string
		expected []Hint
	}{
		{
			name:     "identical lists",
			a:        []string{"Home", "About"},
			b:        []string{"Home", "About"},
			expected: nil,
		},
		{
			name:     "case and spacing",
			a:        []string{"Home", "My  Account"},
			b:        []string{"Home", "my account"},
			expected: []Hint{{From: "My  Account", To: "my account", Similarity: 1}},
		},
		{
			name:     "unrelated entries",
			a:        []string{"Careers"},
			b:        []string{"Zebra"},
			expected: nil,
		},
	}

	for _, row := range table {
		t.Run(row.name, func(t *testing.T) {
			require.Equal(t, row.expected, RenameHints(row.a, row.b, DefaultHintThreshold))
		})
	}

	hints := RenameHints([]string{"Settings", "Logout"}, []string{"Log out", "Settings page"}, DefaultHintThreshold)
	require.Len(t, hints, 2)
	// spacing-only renames are linked before similar ones
	require.Equal(t, Hint{From: "Logout", To: "Log out", Similarity: 1}, hints[0])
	require.Equal(t, "Settings", hints[1].From)
	require.Equal(t, "Settings page", hints[1].To)
	for _, h := range hints {
		require.GreaterOrEqual(t, h.Similarity, DefaultHintThreshold)
	}
}
