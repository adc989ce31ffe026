package report

import (
	"fmt"
	"io"
	"strconv"

	"menuparity/internal/compare"
	"menuparity/lib/textutil"

	"github.com/nao1215/markdown"
)

// WriteMarkdown renders the run as GitHub flavored Markdown, suitable for a
// pull request comment or a CI job summary.
func WriteMarkdown(w io.Writer, results []compare.Result, meta Metadata) error {
	md := markdown.NewMarkdown(w)
	summary := Summarize(results)

	md.H1("Menu Parity Report")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"URLs File", "`" + meta.URLsFile + "`"},
			{"Cookies File", "`" + meta.CookiesFile + "`"},
			{"Generated", meta.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Total Comparisons", strconv.Itoa(summary.Total)},
		},
	})
	md.PlainText("")

	if summary.AllPass() {
		md.Tip(fmt.Sprintf("ALL PASS. Summary: %d passed, %d failed (total %d)", summary.Passed, summary.Failed, summary.Total))
	} else {
		md.Cautionf("SOME FAIL. Summary: %d passed, %d failed (total %d)", summary.Passed, summary.Failed, summary.Total)
	}
	md.PlainText("")

	md.H2("Results")
	md.PlainText("")
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "✅ PASS"
		if !r.Pass {
			status = "❌ FAIL"
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Index),
			"`" + textutil.RequestTarget(r.URLA) + "`",
			"`" + textutil.RequestTarget(r.URLB) + "`",
			status,
			r.Reason,
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "URL A", "URL B", "Status", "Reason"},
		Rows:   rows,
	})
	md.PlainText("")

	failures := Failures(results)
	if len(failures) > 0 {
		md.H2("Failure Details")
		md.PlainText("")
	}
	for _, r := range failures {
		md.H3(fmt.Sprintf("Pair #%d", r.Index))
		md.PlainText("")
		md.PlainTextf("`%s` vs `%s`", textutil.RequestTarget(r.URLA), textutil.RequestTarget(r.URLB))
		md.PlainText("")

		if r.Diff == "" {
			md.PlainTextf("Reason: %s", r.Reason)
			md.PlainText("")
			continue
		}

		body, rest := r.Diff, 0
		if !meta.FullDiff {
			body, rest = textutil.TruncateLines(r.Diff, MaxDiffLines)
		}
		md.CodeBlocks(markdown.SyntaxHighlight("diff"), body)
		md.PlainText("")
		if rest > 0 {
			md.Note(fmt.Sprintf("%d more lines, re-run with --full-diff to see all", rest))
			md.PlainText("")
		}

		if len(r.Hints) > 0 {
			hints := make([]string, 0, len(r.Hints))
			for _, h := range r.Hints {
				hints = append(hints, fmt.Sprintf("%q looks renamed to %q (%.2f)", h.From, h.To, h.Similarity))
			}
			md.BulletList(hints...)
			md.PlainText("")
		}
	}

	return md.Build()
}
