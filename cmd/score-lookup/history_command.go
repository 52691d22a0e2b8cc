package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent lookups from the history database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cfg.History.DSN == "" {
				return fmt.Errorf("history is disabled: set HISTORY_DSN")
			}

			return ctx.withApp(cmd, func(a *app) error {
				records, err := a.svc.History(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("load history: %w", err)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, records)
				}
				printHistory(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show (max 100)")
	return cmd
}

func printHistory(w io.Writer, records []domain.LookupRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No lookups recorded yet.")
		return
	}

	if !isTerminal(w) {
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				r.CreatedAt.Format(time.RFC3339), r.Mode, r.Query, r.ResultCount, r.TopTitle, r.TopVerdict)
		}
		return
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		verdict := ""
		if r.TopVerdict != "" {
			verdict = r.TopVerdict.Label()
		}
		rows = append(rows, []string{
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Mode.String(),
			r.Query,
			strconv.Itoa(r.ResultCount),
			r.TopTitle,
			verdict,
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"When", "Mode", "Query", "Results", "Top page", "Verdict"},
		rows,
		map[int]int{2: 30, 4: 40},
	))
}
