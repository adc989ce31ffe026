package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"menuparity/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	flagURLs        string
	flagCookies     string
	flagCredentials string
	flagSelector    string
	flagDelayMs     int
	flagTimeoutMs   int
	flagRetries     int
	flagInsecure    bool
	flagAuthFlow    bool
	flagMaxRPS      float64
	flagBrowserTLS  bool
	flagReferer     string
	flagRefererA    string
	flagRefererB    string
	flagDumpHTTP    string
	flagHistoryDB   string
	flagVerbose     bool
)

// config is resolved once per invocation before any subcommand runs.
var config Config

var shutdown telemetry.Telemetry

var rootCmd = &cobra.Command{
	Use:   "menuparity",
	Short: "menuparity compares the navigation menus of two deployments of the same site.",
	Long: `menuparity fetches every url pair of the urls file, one url per side, and checks
that the anchors of the navigation menu are identical on both sides.

Each side keeps its own cookie session, seeded from the cookies file and written
back to it when a login or auth redirect refreshed the session.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	RunE:              runCompare,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagURLs, "urls", "urls.txt", "File of `url_a,url_b` pairs, one per line.")
	flags.StringVar(&flagCookies, "cookies", "cookies.txt", "File with the cookie string of side A on the first line and side B on the second.")
	flags.StringVar(&flagCredentials, "credentials", "", "Optional file with `username password` of side A on the first line and side B on the second.")
	flags.StringVar(&flagSelector, "selector", "", "CSS selector of the menu container. (default \"#dropmenu\")")
	flags.IntVar(&flagDelayMs, "delay", 0, "Milliseconds to wait between pairs. (default 1500)")
	flags.IntVar(&flagTimeoutMs, "timeout", 0, "Request timeout in milliseconds. (default 15000)")
	flags.IntVar(&flagRetries, "retries", 0, "Retries of a failed GET request.")
	flags.BoolVar(&flagInsecure, "insecure", false, "Skip TLS certificate verification.")
	flags.BoolVar(&flagAuthFlow, "auth-flow", false, "Follow redirects by hand and sign in when a login page is served.")
	flags.Float64Var(&flagMaxRPS, "max-rps", 0, "Maximum requests per second per host, 0 for no limit.")
	flags.BoolVar(&flagBrowserTLS, "browser-tls", false, "Use a browser-like TLS fingerprint.")
	flags.StringVar(&flagReferer, "referer", "", "Referer of the first request of both sides.")
	flags.StringVarP(&flagRefererA, "referer-a", "a", "", "Referer of the first request of side A, overrides --referer.")
	flags.StringVarP(&flagRefererB, "referer-b", "b", "", "Referer of the first request of side B, overrides --referer.")
	flags.StringVar(&flagDumpHTTP, "dump-http", "", "Directory to write every HTTP exchange to.")
	flags.StringVar(&flagHistoryDB, "history-db", "", "Sqlite database that keeps the results of every run.")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging.")

	addCompareFlags(rootCmd)
}

func setup(cmd *cobra.Command, args []string) error {
	telemetry.InitSlog(flagVerbose)
	if flagVerbose {
		slog.Debug("verbose logging enabled")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, &cfg)
	err = validate(cfg)
	if err != nil {
		return err
	}
	config = cfg

	shutdown, err = telemetry.Setup(cmd.Context(), "menuparity", cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	return nil
}

func ExecuteContext(ctx context.Context) {
	err := rootCmd.ExecuteContext(ctx)

	shutdownErr := shutdown.Shutdown(context.Background())
	if shutdownErr != nil {
		slog.Warn("failed to shutdown telemetry", "err", shutdownErr)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
