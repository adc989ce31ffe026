package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"menuparity/internal/components/telemetry"
	"menuparity/internal/history"
	"menuparity/internal/input"
	"menuparity/internal/report"
	"menuparity/internal/runner"
	"menuparity/lib/fetch"
	"menuparity/lib/osutil"
	"menuparity/lib/restyutil"

	"github.com/spf13/cobra"
)

var (
	flagFullDiff       bool
	flagHTMLReport     string
	flagMarkdownReport string
	flagNoColor        bool
)

func addCompareFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.BoolVar(&flagFullDiff, "full-diff", false, "Print diffs without truncating them.")
	flags.StringVar(&flagHTMLReport, "html-report", "", "Write an HTML report into this directory.")
	flags.Lookup("html-report").NoOptDefVal = "reports"
	flags.StringVar(&flagMarkdownReport, "markdown-report", "", "Write a Markdown report to this file.")
	flags.BoolVar(&flagNoColor, "no-color", false, "Disable colored output.")
}

func init() {
	addCompareFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare [--urls <urls.txt>] [--cookies <cookies.txt>] [--credentials <file>]",
	Short: "Compares the menu of every url pair, this is the default command.",
	RunE:  runCompare,
}

func newFetcher(tel telemetry.API) (*fetch.Fetcher, error) {
	opts := fetch.FetcherOptions{
		Tel:        tel,
		Login:      config.Login.authflow(),
		MaxRPS:     config.MaxRPS,
		BrowserTLS: config.BrowserTLS,
	}
	if flagDumpHTTP != "" {
		dumper, err := restyutil.NewDumper(flagDumpHTTP)
		if err != nil {
			return nil, fmt.Errorf("create http dump directory: %w", err)
		}
		slog.Info("dumping http exchanges", "dir", dumper.Dir())
		opts.Dump = &dumper
	}
	return fetch.NewFetcher(opts), nil
}

func loadInputs() (input.Inputs, error) {
	return input.Load(input.Files{
		URLs:        flagURLs,
		Cookies:     flagCookies,
		Credentials: flagCredentials,
	})
}

func runCompare(cmd *cobra.Command, args []string) error {
	in, err := loadInputs()
	if err != nil {
		return err
	}

	tel := telemetry.SlogAPI{}
	fetcher, err := newFetcher(tel)
	if err != nil {
		return err
	}

	refererA, refererB := referers()
	r, err := runner.New(fetcher, runner.Config{
		Selector:    config.Selector,
		Delay:       config.Delay(),
		Timeout:     config.Timeout(),
		Retries:     config.Retries,
		Insecure:    config.Insecure,
		AuthFlow:    config.AuthFlow,
		RefererA:    refererA,
		RefererB:    refererB,
		CookiesFile: flagCookies,
	}, tel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	term := report.NewTerminal(out, !flagNoColor && osutil.ColorEnabled(os.Stdout), flagFullDiff)
	r.OnResult = term.Progress

	outcome, runErr := r.Run(cmd.Context(), in)

	term.Write(outcome.Results)
	if outcome.Persisted {
		fmt.Fprintf(out, "\nRefreshed cookies written to %s\n", flagCookies)
	}

	meta := report.Metadata{
		URLsFile:    flagURLs,
		CookiesFile: flagCookies,
		GeneratedAt: outcome.FinishedAt,
		FullDiff:    flagFullDiff,
	}
	err = writeReports(out, outcome, meta)
	if err != nil {
		return err
	}

	if config.HistoryDB != "" && len(outcome.Results) > 0 {
		err = recordHistory(cmd, outcome)
		if err != nil {
			return err
		}
	}

	if runErr != nil {
		return runErr
	}
	return outcome.Err()
}

func writeReports(out io.Writer, outcome runner.Outcome, meta report.Metadata) error {
	if flagHTMLReport != "" {
		path, err := report.SaveHTML(flagHTMLReport, outcome.Results, meta)
		if err != nil {
			return fmt.Errorf("write html report: %w", err)
		}
		fmt.Fprintf(out, "HTML report: %s\n", path)
	}

	if flagMarkdownReport != "" {
		err := os.MkdirAll(filepath.Dir(flagMarkdownReport), 0777)
		if err != nil {
			return fmt.Errorf("write markdown report: %w", err)
		}
		f, err := os.Create(flagMarkdownReport)
		if err != nil {
			return fmt.Errorf("write markdown report: %w", err)
		}
		err = errors.Join(report.WriteMarkdown(f, outcome.Results, meta), f.Close())
		if err != nil {
			return fmt.Errorf("write markdown report: %w", err)
		}
		fmt.Fprintf(out, "Markdown report: %s\n", flagMarkdownReport)
	}
	return nil
}

func recordHistory(cmd *cobra.Command, outcome runner.Outcome) error {
	// the run may have been interrupted, its results are still recorded
	ctx := context.WithoutCancel(cmd.Context())
	store, err := history.Open(ctx, config.HistoryDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	run := history.NewRun(flagURLs, flagCookies, outcome.StartedAt)
	run.FinishedAt = outcome.FinishedAt
	err = store.Record(ctx, run, outcome.Results)
	if err != nil {
		return err
	}
	slog.Debug("recorded run", "id", run.ID, "db", config.HistoryDB)
	return nil
}
