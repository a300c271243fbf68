package main

import (
	"context"
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"FinAlpha/internal/notifier"
	"FinAlpha/internal/scheduler"
)

func newWatchCmd(opts *globalOpts) *cobra.Command {
	var (
		runNow bool
		serve  bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the watchlist daemon with Telegram alerts",
		Long: `Runs the daily watchlist analysis and the weekly low-risk screen on cron,
alerts on risk level changes and answers /analyze, /screen and /watchlist
commands over Telegram until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.cfg.ValidateTelegram(); err != nil {
				return err
			}

			ctx := cmd.Context()
			tn := notifier.NewTelegramNotifier(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.cfg.Proxy)
			rec := a.openRecorder()

			sched := scheduler.NewScheduler(ctx, a.analyzer, a.screener, tn, rec, scheduler.Options{
				Watchlist: a.cfg.Watchlist,
				Universe:  a.cfg.Screener.Universe,
				TopN:      a.cfg.Screener.TopN,
				Lookback:  a.cfg.Lookback(),
				Source:    a.fetcher.Name(),
			})
			if err := sched.RegisterAll(a.cfg.Schedule.DailyCron, a.cfg.Schedule.WeeklyCron); err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()

			jobs := []func(context.Context) error{
				func(ctx context.Context) error {
					tn.StartPolling(ctx, sched.HandleCommand)
					return nil
				},
			}
			if runNow || os.Getenv("RUN_ON_START") == "true" {
				log.Info().Msg("running watchlist now")
				jobs = append(jobs, func(ctx context.Context) error {
					sched.RunDaily(ctx)
					return nil
				})
			}
			if serve {
				srv := a.newServer()
				jobs = append(jobs, func(ctx context.Context) error { return runServer(ctx, srv) })
			}

			log.Info().Int("watchlist", len(a.cfg.Watchlist)).Msg(appName + " is running. Press Ctrl+C to stop.")
			err = runJobs(ctx, jobs...)
			if ctx.Err() != nil && err == nil {
				log.Info().Msg("shutdown signal received, stopping")
			}
			return ignoreCanceled(err)
		},
	}
	cmd.Flags().BoolVar(&runNow, "run-now", false, "analyze the watchlist immediately on start")
	cmd.Flags().BoolVar(&serve, "serve", false, "also serve the HTTP API")
	return cmd
}

// runJobs runs every job until all of them return, so nothing still
// holds the recorder when the caller closes it.
func runJobs(ctx context.Context, jobs ...func(context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, job := range jobs {
		g.Go(func() error { return job(gctx) })
	}
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
