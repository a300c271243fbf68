package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"FinAlpha/internal/model"
	"FinAlpha/internal/presenter"
)

func newAnalyzeCmd(opts *globalOpts) *cobra.Command {
	var (
		period string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "analyze TICKER",
		Short: "Analyze the risk of one ticker",
		Long:  "Fetches daily closes for TICKER and prints volatility, VaR, drawdown, Sharpe ratio and risk level.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			lb := a.cfg.Lookback()
			if period != "" {
				if lb, err = model.ParseLookback(period); err != nil {
					return err
				}
			}

			ticker := ""
			if len(args) == 1 {
				ticker = args[0]
			}
			p := presenter.New(a.analyzer, lb, a.metrics)
			v := p.Submit(cmd.Context(), ticker)

			switch v.Style {
			case presenter.StyleSuccess:
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(v.Metrics)
				}
				fmt.Fprintln(cmd.OutOrStdout(), v.Text)
				return nil
			case presenter.StyleError:
				fmt.Fprintln(cmd.ErrOrStderr(), v.Text)
				return &exitError{code: 1, err: v.Err}
			default:
				fmt.Fprintln(cmd.ErrOrStderr(), v.Text)
				return &exitError{code: 2, err: errors.New(v.Text)}
			}
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "history window: 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print metrics as JSON")
	return cmd
}
