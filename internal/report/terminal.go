package report

import (
	"fmt"
	"io"
	"strconv"

	"menuparity/internal/compare"
	"menuparity/lib/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Terminal prints results for a human reading a terminal.
type Terminal struct {
	out      io.Writer
	color    bool
	fullDiff bool
}

func NewTerminal(out io.Writer, color, fullDiff bool) Terminal {
	return Terminal{out: out, color: color, fullDiff: fullDiff}
}

func (t Terminal) paint(s string, colors ...text.Color) string {
	if !t.color {
		return s
	}
	return text.Colors(colors).Sprint(s)
}

func (t Terminal) badge(pass bool) string {
	if pass {
		return t.paint(" PASS ", text.BgGreen, text.FgBlack)
	}
	return t.paint(" FAIL ", text.BgRed, text.FgWhite)
}

// Progress prints the outcome of one pair as soon as it is known.
func (t Terminal) Progress(total int, r compare.Result) {
	status := t.paint("PASS", text.FgGreen)
	if !r.Pass {
		status = t.paint("FAIL", text.FgRed) + " " + r.Reason
	}
	fmt.Fprintf(
		t.out,
		"[%d/%d] %s  vs  %s  %s\n",
		r.Index, total,
		textutil.RequestTarget(r.URLA),
		textutil.RequestTarget(r.URLB),
		status,
	)
}

func (t Terminal) Table(results []compare.Result) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetOutputMirror(t.out)
	tw.AppendHeader(table.Row{"#", "URL A", "URL B", "Status"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 80},
		{Number: 3, WidthMax: 80},
	})
	for _, r := range results {
		tw.AppendRow(table.Row{
			strconv.Itoa(r.Index),
			t.paint(textutil.RequestTarget(r.URLA), text.FgCyan),
			t.paint(textutil.RequestTarget(r.URLB), text.FgCyan),
			t.badge(r.Pass),
		})
	}
	fmt.Fprintln(t.out)
	tw.Render()
	fmt.Fprintln(t.out)
}

// Diff prints the diff of a failed result along with its rename hints.
func (t Terminal) Diff(r compare.Result) {
	fmt.Fprintf(t.out, "\n%s %s\n", t.badge(false), t.paint(fmt.Sprintf("Difference for pair #%d", r.Index), text.Bold))
	fmt.Fprintf(
		t.out,
		"%s  vs  %s\n",
		t.paint(textutil.RequestTarget(r.URLA), text.FgHiBlack),
		t.paint(textutil.RequestTarget(r.URLB), text.FgHiBlack),
	)

	lines, rest := diffLines(r.Diff, t.fullDiff)
	for _, line := range lines {
		switch line.Kind {
		case lineAdd:
			fmt.Fprintln(t.out, t.paint(line.Text, text.FgGreen))
		case lineRemove:
			fmt.Fprintln(t.out, t.paint(line.Text, text.FgRed))
		case lineHunk:
			fmt.Fprintln(t.out, t.paint(line.Text, text.FgCyan))
		default:
			fmt.Fprintln(t.out, line.Text)
		}
	}
	if rest > 0 {
		fmt.Fprintln(t.out, t.paint(fmt.Sprintf("... (%d more lines, re-run with --full-diff to see all)", rest), text.FgHiBlack))
	}

	for _, h := range r.Hints {
		fmt.Fprintln(t.out, t.paint(fmt.Sprintf("hint: %q looks renamed to %q (%.2f)", h.From, h.To, h.Similarity), text.FgYellow))
	}
}

func (t Terminal) Summary(s Summary) {
	status := t.paint(" ALL PASS ", text.BgGreen, text.FgBlack)
	if !s.AllPass() {
		status = t.paint(" SOME FAIL ", text.BgRed, text.FgWhite)
	}
	fmt.Fprintf(
		t.out,
		"%s %s\n",
		status,
		t.paint(fmt.Sprintf("Summary: %d passed, %d failed (total %d)", s.Passed, s.Failed, s.Total), text.Bold),
	)
}

// Write prints the table, the diff of every failure that has one, then the
// summary.
func (t Terminal) Write(results []compare.Result) {
	t.Table(results)
	for _, r := range Failures(results) {
		if r.Diff != "" {
			t.Diff(r)
		}
	}
	t.Summary(Summarize(results))
}
