package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"FinAlpha/internal/config"
)

const (
	appName = "FinAlpha"
	version = "v0.3.0"
)

// globalOpts are the persistent flags shared by every command.
type globalOpts struct {
	configPath string
	source     string
	logLevel   string
}

// exitError carries a process exit code for failures already shown to the user.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	rootCmd := &cobra.Command{
		Use:     "finalpha",
		Short:   "Stock risk analyzer",
		Version: version,
		Long: appName + ` estimates the risk of a stock from one year of daily closes:
annualized volatility, 95%/99% daily VaR, maximum drawdown, Sharpe ratio
and a LOW / MEDIUM / HIGH risk level.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(opts.logLevel)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "config file (default $CONFIG_PATH or "+config.DefaultPath+")")
	pf.StringVar(&opts.source, "source", "", "price source: yahoo, eodhd or mock")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	rootCmd.AddCommand(
		newAnalyzeCmd(opts),
		newScreenCmd(opts),
		newServeCmd(opts),
		newWatchCmd(opts),
	)
	return rootCmd
}

// setupLogging writes human-readable logs on a terminal and JSON otherwise.
func setupLogging(level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	applyLogLevel(level)
}

func applyLogLevel(level string) {
	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Warn().Str("level", level).Msg("unknown log level, using info")
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

// loadConfig resolves the config path, applies flag overrides and validates.
func loadConfig(opts *globalOpts) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.source != "" {
		cfg.DataSource.Source = strings.ToLower(opts.source)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	applyLogLevel(cfg.LogLevel)
	return cfg, nil
}
