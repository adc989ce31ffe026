package commands

import (
	"fmt"
	"strconv"
	"time"

	"menuparity/internal/history"
	"menuparity/lib/textutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var flagLimit int

func init() {
	historyCmd.Flags().IntVar(&flagLimit, "limit", 20, "Number of runs to list.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [run id]",
	Short: "Lists the recorded runs, or the results of one run when its id is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if config.HistoryDB == "" {
			return fmt.Errorf("no history database, set --history-db or history_db in %s", configName)
		}
		store, err := history.Open(cmd.Context(), config.HistoryDB)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		tw.SetOutputMirror(cmd.OutOrStdout())

		if len(args) == 1 {
			entries, err := store.Entries(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("run %s not found", args[0])
			}
			tw.AppendHeader(table.Row{"#", "URL A", "URL B", "Status", "Reason"})
			for _, e := range entries {
				status := "PASS"
				if !e.Pass {
					status = "FAIL"
				}
				tw.AppendRow(table.Row{
					e.Index,
					textutil.RequestTarget(e.URLA),
					textutil.RequestTarget(e.URLB),
					status,
					e.Reason,
				})
			}
			tw.Render()
			return nil
		}

		runs, err := store.Runs(cmd.Context(), flagLimit)
		if err != nil {
			return err
		}
		tw.AppendHeader(table.Row{"ID", "Started", "Duration", "URLs", "Cookies", "Passed", "Failed"})
		for _, r := range runs {
			tw.AppendRow(table.Row{
				r.ID,
				r.StartedAt.Local().Format(time.DateTime),
				r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond).String(),
				r.URLsFile,
				r.CookiesFile,
				strconv.Itoa(r.Passed),
				strconv.Itoa(r.Failed),
			})
		}
		tw.Render()
		return nil
	},
}
