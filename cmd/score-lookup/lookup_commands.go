package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kitbuilder587/score-lookup/internal/domain"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query...>",
		Short: "Find pages on IMSLP",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				resp, err := a.svc.Search(cmd.Context(), &domain.LookupRequest{
					Text:     strings.Join(args, " "),
					ClientID: "cli",
				})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				printSearch(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}
}

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:     "check <query...>",
		Aliases: []string{"pd"},
		Short:   "Check whether scores are in the public domain",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, func(a *app) error {
				resp, err := a.svc.CheckPublicDomain(cmd.Context(), &domain.LookupRequest{
					Text:     strings.Join(args, " "),
					ClientID: "cli",
				})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				printCheck(cmd.OutOrStdout(), resp)
				return nil
			})
		},
	}
}

// withApp собирает пайплайн на время одной команды. Метрики не регистрируются.
func (c *commandContext) withApp(cmd *cobra.Command, fn func(*app) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	a, err := newApp(cmd.Context(), cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func printSearch(w io.Writer, resp *domain.SearchResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintf(w, "Nothing found on IMSLP for %q.\n", resp.Query)
		return
	}

	if !isTerminal(w) {
		for _, r := range resp.Results {
			fmt.Fprintf(w, "%s\t%s\n", r.Title, r.Link)
		}
		return
	}

	rows := make([][]string, 0, len(resp.Results))
	for i, r := range resp.Results {
		rows = append(rows, []string{strconv.Itoa(i + 1), r.Title, r.Link})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "Title", "Link"}, rows, map[int]int{1: 60}))
}

func printCheck(w io.Writer, resp *domain.CheckResponse) {
	if len(resp.Results) == 0 {
		fmt.Fprintf(w, "Nothing found on IMSLP for %q.\n", resp.Query)
		return
	}

	if !isTerminal(w) {
		for _, r := range resp.Results {
			fmt.Fprintf(w, "%s\n  %s\n", r.Title, domain.FormatAnswer(r.Verdict, r.Rationale))
		}
		return
	}

	rows := make([][]string, 0, len(resp.Results))
	for i, r := range resp.Results {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Verdict.Label(),
			r.Title,
			strings.Join(r.Rationale, " "),
		})
	}
	fmt.Fprintln(w, renderTable([]string{"#", "Verdict", "Title", "Why"}, rows, map[int]int{2: 40, 3: 60}))
}
