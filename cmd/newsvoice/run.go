package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/clobrano/newsvoice/internal/notifier"
	"github.com/clobrano/newsvoice/internal/runner"
	"github.com/clobrano/newsvoice/internal/scrape"
	"github.com/clobrano/newsvoice/internal/tts"
)

func newRunCmd(a *app) *cobra.Command {
	var exportText bool
	var maxArticles int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Scrape the configured site once and synthesize every article",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("export-text") {
				a.cfg.Output.ExportText = exportText
			}
			if cmd.Flags().Changed("max-articles") {
				a.cfg.Output.MaxArticles = maxArticles
			}

			ctx, stop := signalContext()
			defer stop()

			return a.runOnce(ctx)
		},
	}

	cmd.Flags().BoolVar(&exportText, "export-text", false, "also write every article as a text file into the inbox directory")
	cmd.Flags().IntVarP(&maxArticles, "max-articles", "n", 0, "maximum number of articles (0 = no cap)")

	return cmd
}

// runOnce performs a single scrape and synthesis pass and notifies its
// outcome.
func (a *app) runOnce(ctx context.Context) error {
	lister, err := scrape.NewLister(a.fetcher, a.cfg.Site,
		scrape.WithDelay(a.cfg.Request.Delay),
		scrape.WithLogger(a.log),
	)
	if err != nil {
		return err
	}

	var synth tts.Synthesizer
	s, err := a.synthesizer(ctx)
	if err != nil {
		a.log.Error("TTS provider unavailable", "provider", a.cfg.TTS.Provider, "err", err)
	} else {
		synth = tts.Paced(s, a.cfg.TTS.Interval)
		a.log.Info("TTS provider ready", "provider", s.Name())
	}

	r := runner.New(lister, synth, runner.Options{
		OutputDir:      a.cfg.Output.Dir,
		MaxArticles:    a.cfg.Output.MaxArticles,
		MaxChunkLength: a.cfg.TTS.MaxChunkLength,
		Voice:          a.cfg.Voice(),
		Playlist:       a.cfg.Output.Playlist,
		PlaylistName:   a.cfg.Output.PlaylistName,
		ExportText:     a.cfg.Output.ExportText,
		TextDir:        a.cfg.Inbox.Dir,
	}, runner.WithLogger(a.log))

	report, err := r.Run(ctx)
	if report != nil && !errors.Is(err, context.Canceled) {
		ntfy := notifier.New(a.cfg.Notify.NtfyServer, a.cfg.Notify.NtfyTopic)
		if nerr := ntfy.SendRun(context.WithoutCancel(ctx), report.Summary(), report.Failed); nerr != nil {
			a.log.Warn("Notification failed", "err", nerr)
		}
	}
	return err
}
