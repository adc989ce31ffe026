// Package report renders the results of a run for the terminal, as a
// standalone HTML page and as Markdown.
package report

import (
	"strings"
	"time"

	"menuparity/internal/compare"
)

// MaxDiffLines is how many diff lines are shown unless the full diff is
// requested.
const MaxDiffLines = 200

type Summary struct {
	Total  int
	Passed int
	Failed int
}

func (s Summary) AllPass() bool {
	return s.Failed == 0
}

func Summarize(results []compare.Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.Pass {
			s.Passed++
		} else {
			s.Failed++
		}
	}
	return s
}

// Failures returns the failed results in order.
func Failures(results []compare.Result) []compare.Result {
	var out []compare.Result
	for _, r := range results {
		if !r.Pass {
			out = append(out, r)
		}
	}
	return out
}

type Metadata struct {
	URLsFile    string
	CookiesFile string
	GeneratedAt time.Time
	FullDiff    bool
}

type lineKind int

const (
	lineContext lineKind = iota
	lineAdd
	lineRemove
	lineHunk
)

type diffLine struct {
	Kind lineKind
	Text string
}

// diffLines splits a diff into classified lines, keeping at most
// MaxDiffLines unless full is set. It also returns how many lines were cut.
func diffLines(diff string, full bool) ([]diffLine, int) {
	raw := strings.Split(strings.ReplaceAll(strings.TrimRight(diff, "\n"), "\r\n", "\n"), "\n")
	limit := len(raw)
	if !full && limit > MaxDiffLines {
		limit = MaxDiffLines
	}

	lines := make([]diffLine, 0, limit)
	for _, text := range raw[:limit] {
		kind := lineContext
		switch {
		case strings.HasPrefix(text, "+"):
			kind = lineAdd
		case strings.HasPrefix(text, "-"):
			kind = lineRemove
		case strings.HasPrefix(text, "@@"):
			kind = lineHunk
		}
		lines = append(lines, diffLine{Kind: kind, Text: text})
	}
	return lines, len(raw) - limit
}
