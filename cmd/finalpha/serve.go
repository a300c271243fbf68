package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"FinAlpha/internal/server"
)

func newServeCmd(opts *globalOpts) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON HTTP API",
		Long:  "Starts the HTTP API with /health, /metrics and /api/v1/{analyze,series,screen,history} endpoints.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			srv := a.newServer()
			return runServer(cmd.Context(), srv)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

func (a *app) newServer() *server.Server {
	scfg := server.DefaultConfig()
	scfg.Addr = a.cfg.Server.Addr
	return server.New(scfg, server.Deps{
		Analyzer:  a.analyzer,
		Collector: a.collector,
		Screener:  a.screener,
		Recorder:  a.openRecorder(),
		Metrics:   a.metrics,
		Universe:  a.cfg.Screener.Universe,
		TopN:      a.cfg.Screener.TopN,
		Lookback:  a.cfg.Lookback(),
		Source:    a.fetcher.Name(),
	})
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, srv *server.Server) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	err := g.Wait()
	log.Info().Msg("server stopped")
	return err
}
