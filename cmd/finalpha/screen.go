package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"FinAlpha/internal/screener"
)

func newScreenCmd(opts *globalOpts) *cobra.Command {
	var (
		top     int
		tickers string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "screen",
		Short: "List the lowest-risk stocks in a universe",
		Long:  "Analyzes every ticker in the universe and prints the LOW risk names ordered by volatility.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			universe := a.cfg.Screener.Universe
			if tickers != "" {
				universe = strings.Split(tickers, ",")
			}
			if len(universe) == 0 {
				universe = screener.DefaultUniverse
			}
			if top <= 0 {
				top = a.cfg.Screener.TopN
			}

			res, err := a.screener.Screen(cmd.Context(), universe, top)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printScreen(cmd.OutOrStdout(), cmd.ErrOrStderr(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "number of stocks to list (default from config, 5)")
	cmd.Flags().StringVar(&tickers, "tickers", "", "comma-separated universe overriding config")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printScreen(out, errOut io.Writer, res *screener.Result) {
	fmt.Fprintf(out, "Top %d Low-Risk Stocks\n\n", len(res.Top))
	if len(res.Top) == 0 {
		fmt.Fprintln(out, "No low-risk stocks found.")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tTICKER\tPRICE\tVOLATILITY\tVAR95\tMAX DD\tSHARPE")
		for i, m := range res.Top {
			fmt.Fprintf(tw, "%d\t%s\t$%.2f\t%.1f%%\t%.2f%%\t%.1f%%\t%.2f\n",
				i+1, m.Ticker, m.CurrentPrice, m.Volatility*100, m.VaR95*100, m.MaxDrawdown*100, m.SharpeRatio)
		}
		tw.Flush()
	}
	fmt.Fprintf(out, "\nScreened %d tickers, %d low risk, %s\n", res.Screened, res.LowCount, res.Elapsed.Round(time.Millisecond))
	for _, f := range res.Failures {
		fmt.Fprintf(errOut, "  %s: %s\n", f.Ticker, f.Error)
	}
}
