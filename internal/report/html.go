package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"menuparity/internal/compare"
	"menuparity/lib/textutil"
)

//go:embed templates/report.html.tmpl
var templates embed.FS

var htmlTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{
			"target":    textutil.RequestTarget,
			"lineClass": lineClass,
		}).
		ParseFS(templates, "templates/report.html.tmpl"),
)

func lineClass(kind lineKind) string {
	switch kind {
	case lineAdd:
		return "diff-line-add"
	case lineRemove:
		return "diff-line-remove"
	case lineHunk:
		return "diff-line-context"
	}
	return ""
}

type htmlFailure struct {
	Result compare.Result
	Lines  []diffLine
	Rest   int
}

type htmlData struct {
	Name        string
	Meta        Metadata
	GeneratedAt time.Time
	Summary     Summary
	Results     []compare.Result
	Failures    []htmlFailure
}

func stem(path string, fallback string) string {
	if path == "" {
		return fallback
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ReportName is `<urls>-<cookies>-<timestamp>` with the file names stripped
// of directories and extensions.
func ReportName(meta Metadata) string {
	return fmt.Sprintf(
		"%s-%s-%s",
		stem(meta.URLsFile, "urls"),
		stem(meta.CookiesFile, "cookies"),
		meta.GeneratedAt.UTC().Format("2006-01-02T15-04-05"),
	)
}

func WriteHTML(w io.Writer, results []compare.Result, meta Metadata) error {
	data := htmlData{
		Name:        ReportName(meta),
		Meta:        meta,
		GeneratedAt: meta.GeneratedAt,
		Summary:     Summarize(results),
		Results:     results,
	}
	for _, r := range Failures(results) {
		lines, rest := diffLines(r.Diff, meta.FullDiff)
		data.Failures = append(data.Failures, htmlFailure{Result: r, Lines: lines, Rest: rest})
	}
	return htmlTemplate.Execute(w, data)
}

// SaveHTML writes the report into dir, creating it when needed, and returns
// the path of the file.
func SaveHTML(dir string, results []compare.Result, meta Metadata) (string, error) {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, ReportName(meta)+".html")
	var buf bytes.Buffer
	err = WriteHTML(&buf, results, meta)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	err = os.WriteFile(path, buf.Bytes(), 0644)
	if err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
