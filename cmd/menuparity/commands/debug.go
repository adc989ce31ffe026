package commands

import (
	"errors"
	"fmt"
	"strings"

	"menuparity/internal/components/telemetry"
	"menuparity/lib/fetch"
	"menuparity/lib/session"

	"github.com/spf13/cobra"
)

var flagIndex int

func init() {
	debugCmd.Flags().IntVar(&flagIndex, "index", 1, "1-based index of the pair whose url A is fetched.")
	rootCmd.AddCommand(debugCmd)
}

var debugCmd = &cobra.Command{
	Use:   "debug [--index <n>]",
	Short: "Fetches url A of one pair and prints the cookies sent and received along with the raw html.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := loadInputs()
		if err != nil {
			return err
		}

		fetcher, err := newFetcher(telemetry.SlogAPI{})
		if err != nil {
			return err
		}

		idx := clampIndex(flagIndex, len(in.Pairs))
		target := in.Pairs[idx-1].A

		// the session is seeded against the first url, like a comparison run
		sess := session.New("A")
		sess.Seed(in.Cookies.A, in.Pairs[0].A)
		refererA, _ := referers()

		res := fetcher.Fetch(cmd.Context(), target, fetch.Options{
			Session:    sess,
			Timeout:    config.Timeout(),
			MaxRetries: config.Retries,
			Insecure:   config.Insecure,
			Referer:    refererA,
			AuthFlow:   config.AuthFlow,
			Username:   in.Credentials.A.Username,
			Password:   in.Credentials.A.Password,
			Label:      "debug",
		})

		printDebug(cmd, idx, target, res)
		if !res.OK {
			return failure(res)
		}
		return nil
	},
}

func clampIndex(idx, n int) int {
	return max(1, min(idx, n))
}

func printDebug(cmd *cobra.Command, idx int, target string, res fetch.Response) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pair #%d A: %s\n", idx, target)
	fmt.Fprintf(out, "Status: %d\n", res.StatusCode)
	if res.URL != "" && res.URL != target {
		fmt.Fprintf(out, "Final url: %s\n", res.URL)
	}
	if res.AuthFlowOccurred || res.LoginOccurred {
		fmt.Fprintf(out, "Auth flow: %t, login: %t\n", res.AuthFlowOccurred, res.LoginOccurred)
	}

	fmt.Fprintln(out, "\n--- Cookie header sent ---")
	fmt.Fprintln(out, res.RequestHeader.Get("Cookie"))

	fmt.Fprintln(out, "\n--- Set-Cookie headers received ---")
	setCookies := res.Header.Values("Set-Cookie")
	if len(setCookies) == 0 {
		fmt.Fprintln(out, "(none)")
	}
	for _, c := range setCookies {
		fmt.Fprintln(out, c)
	}

	fmt.Fprintln(out, "\n--- HTML ---")
	fmt.Fprintln(out, res.Body)
}

func failure(res fetch.Response) error {
	parts := []string{fmt.Sprintf("fetch failed with HTTP %d", res.StatusCode)}
	if res.Err != nil {
		parts = append(parts, res.Err.Error())
	}
	return errors.New(strings.Join(parts, ": "))
}
