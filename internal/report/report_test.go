package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"menuparity/internal/compare"

	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

func sampleResults() []compare.Result {
	return []compare.Result{
		{Index: 1, URLA: "https://old.test/a?x=1", URLB: "https://new.test/a", Pass: true, Reason: compare.ReasonIdentical},
		{
			Index:  2,
			URLA:   "https://old.test/b",
			URLB:   "https://new.test/b#top",
			Reason: "Anchor counts: A=2, B=2",
			Diff:   "--- menu-old\n+++ menu-new\n@@ -1,2 +1,2 @@\n Home\n-About\n+About us\n",
			Hints:  []compare.Hint{{From: "About", To: "About us", Similarity: 0.93}},
		},
		{Index: 3, URLA: "https://old.test/<c>", URLB: "https://new.test/c", Reason: "A HTTP 500"},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResults())
	require.Equal(t, Summary{Total: 3, Passed: 1, Failed: 2}, s)
	require.False(t, s.AllPass())
	require.True(t, Summarize(nil).AllPass())
	require.Len(t, Failures(sampleResults()), 2)
}

func TestDiffLines(t *testing.T) {
	var b strings.Builder
	for i := 0; i < MaxDiffLines+5; i++ {
		fmt.Fprintf(&b, "+line %d\n", i)
	}

	lines, rest := diffLines(b.String(), false)
	require.Len(t, lines, MaxDiffLines)
	require.Equal(t, 5, rest)
	require.Equal(t, lineAdd, lines[0].Kind)

	lines, rest = diffLines(b.String(), true)
	require.Len(t, lines, MaxDiffLines+5)
	require.Zero(t, rest)

	lines, _ = diffLines("@@ -1 +1 @@\n-a\n b\n", false)
	require.Equal(t, []diffLine{
		{Kind: lineHunk, Text: "@@ -1 +1 @@"},
		{Kind: lineRemove, Text: "-a"},
		{Kind: lineContext, Text: " b"},
	}, lines)
}

func TestTerminal(t *testing.T) {
	var out bytes.Buffer
	NewTerminal(&out, false, false).Write(sampleResults())

	text := out.String()
	require.Contains(t, text, "URL A")
	require.Contains(t, text, "/a?x=1")
	require.Contains(t, text, "/b#top")
	require.Contains(t, text, "PASS")
	require.Contains(t, text, "Difference for pair #2")
	require.Contains(t, text, "-About\n+About us\n")
	require.Contains(t, text, `hint: "About" looks renamed to "About us" (0.93)`)
	require.NotContains(t, text, "Difference for pair #3")
	require.Contains(t, text, " SOME FAIL  Summary: 1 passed, 2 failed (total 3)")
	require.NotContains(t, text, "\x1b[")
}

func TestTerminalTruncates(t *testing.T) {
	var b strings.Builder
	for i := 0; i < MaxDiffLines+1; i++ {
		fmt.Fprintf(&b, "-entry %d\n", i)
	}

	var out bytes.Buffer
	NewTerminal(&out, false, false).Diff(compare.Result{Index: 9, Diff: b.String()})
	require.Contains(t, out.String(), "... (1 more lines, re-run with --full-diff to see all)")

	out.Reset()
	NewTerminal(&out, false, true).Diff(compare.Result{Index: 9, Diff: b.String()})
	require.NotContains(t, out.String(), "more lines")
}

func TestReportName(t *testing.T) {
	name := ReportName(Metadata{
		URLsFile:    "inputs/urls.prod.txt",
		CookiesFile: "cookies.txt",
		GeneratedAt: generatedAt,
	})
	require.Equal(t, "urls.prod-cookies-2026-03-04T05-06-07", name)
	require.Equal(t, "urls-cookies-2026-03-04T05-06-07", ReportName(Metadata{GeneratedAt: generatedAt}))
}

func TestSaveHTML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	path, err := SaveHTML(dir, sampleResults(), Metadata{
		URLsFile:    "urls.txt",
		CookiesFile: "cookies.txt",
		GeneratedAt: generatedAt,
	})
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "urls-cookies-2026-03-04T05-06-07.html"), path)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(contents)

	require.Contains(t, html, "<title>Menu Parity Report - urls-cookies-2026-03-04T05-06-07</title>")
	require.Contains(t, html, "Summary: 1 passed, 2 failed (total 3)")
	require.Contains(t, html, `<span class="bg-red"> SOME FAIL </span>`)
	require.Contains(t, html, `<div class="diff-line-add">&#43;About us</div>`)
	require.Contains(t, html, `<div class="diff-line-remove">-About</div>`)
	require.Contains(t, html, "Reason: A HTTP 500")
	require.Contains(t, html, "/%3Cc%3E")
	require.NotContains(t, html, "<c>")
}

func TestWriteMarkdown(t *testing.T) {
	var out bytes.Buffer
	err := WriteMarkdown(&out, sampleResults(), Metadata{
		URLsFile:    "urls.txt",
		CookiesFile: "cookies.txt",
		GeneratedAt: generatedAt,
	})
	require.NoError(t, err)

	md := out.String()
	require.Contains(t, md, "# Menu Parity Report")
	require.Contains(t, md, "## Failure Details")
	require.Contains(t, md, "### Pair #2")
	require.Contains(t, md, "```diff")
	require.Contains(t, md, "+About us")
	require.Contains(t, md, "Reason: A HTTP 500")
	require.Contains(t, md, "SOME FAIL")
}
