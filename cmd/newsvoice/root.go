package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/clobrano/newsvoice/internal/config"
	"github.com/clobrano/newsvoice/internal/fetch"
	"github.com/clobrano/newsvoice/internal/logger"
	"github.com/clobrano/newsvoice/internal/tts"
)

const appName = "newsvoice"

type rootFlags struct {
	configPath string
	provider   string
	verbose    bool
}

// app is what every subcommand works with once the root pre-run finished.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	fetcher  *fetch.Client
	closeLog func() error
	// interactive gates credential prompts; nil never prompts.
	interactive func() bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	a := &app{
		closeLog:    func() error { return nil },
		interactive: config.Interactive,
	}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Turn news articles into audio files",
		Long:          "newsvoice scrapes articles from a news site, converts them to speech with a cloud TTS vendor and writes audio files, run metadata and a playlist.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, flags)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.closeLog()
		},
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default "+config.DefaultPath+", env NEWSVOICE_CONFIG)")
	root.PersistentFlags().StringVarP(&flags.provider, "provider", "p", "", "TTS provider: "+fmt.Sprint(tts.Providers()))
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newRunCmd(a),
		newScheduleCmd(a),
		newInboxCmd(a),
		newVoicesCmd(a),
		newSayCmd(a),
	)

	return root
}

func (a *app) init(cmd *cobra.Command, flags *rootFlags) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not read .env: %v\n", err)
	}

	path := flags.configPath
	explicit := path != ""
	if !explicit {
		if env := os.Getenv("NEWSVOICE_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = config.DefaultPath
		}
	}

	cfg, err := config.Load(path, explicit)
	if err != nil {
		return err
	}
	if flags.provider != "" {
		cfg.TTS.Provider = flags.provider
	}
	if flags.verbose {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	a.cfg = cfg
	a.log = log
	a.closeLog = closeLog
	a.fetcher = fetch.New(cfg.Request.Timeout,
		fetch.WithUserAgent(cfg.Request.UserAgent),
		fetch.WithRetries(cfg.Request.Retries, cfg.Request.RetryDelay),
	)

	log.Debug("Configuration loaded", "file", path, "provider", cfg.TTS.Provider, "output", cfg.Output.Dir)
	return nil
}

// synthesizer builds the configured vendor client, prompting for missing
// credentials on a terminal.
func (a *app) synthesizer(ctx context.Context) (tts.Synthesizer, error) {
	if missing := a.cfg.MissingCredentials(); len(missing) > 0 && a.interactive != nil && a.interactive() {
		if err := a.cfg.PromptCredentials(os.Stdin, os.Stderr); err != nil {
			return nil, err
		}
	}

	return tts.New(ctx, a.cfg.TTS.Provider, a.cfg.Credentials, tts.Settings{
		HTTPClient: a.fetcher.HTTPClient(),
		UserAgent:  a.cfg.Request.UserAgent,
	})
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
