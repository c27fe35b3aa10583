package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/clobrano/newsvoice/internal/notifier"
	"github.com/clobrano/newsvoice/internal/output"
	"github.com/clobrano/newsvoice/internal/processor"
	"github.com/clobrano/newsvoice/internal/queue"
	"github.com/clobrano/newsvoice/internal/tts"
	"github.com/clobrano/newsvoice/internal/watcher"
)

const queueFile = ".inbox_queue.json"

func newInboxCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "inbox",
		Short: "Watch the inbox directory and synthesize every text file dropped in it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			dir := a.cfg.Inbox.Dir
			if err := output.EnsureDir(dir); err != nil {
				return err
			}
			if err := output.EnsureDir(a.cfg.Output.Dir); err != nil {
				return err
			}
			if err := checkWritePermission(a.cfg.Output.Dir); err != nil {
				return fmt.Errorf("output directory not writable: %w", err)
			}

			s, err := a.synthesizer(ctx)
			if err != nil {
				return fmt.Errorf("TTS provider unavailable: %w", err)
			}
			synth := tts.Paced(s, a.cfg.TTS.Interval)

			q, err := queue.New(filepath.Join(a.cfg.Output.Dir, queueFile))
			if err != nil {
				return err
			}

			ntfy := notifier.New(a.cfg.Notify.NtfyServer, a.cfg.Notify.NtfyTopic)
			proc := processor.New(processor.Options{
				OutputDir:      a.cfg.Output.Dir,
				DoneDir:        filepath.Join(dir, "done"),
				MaxChunkLength: a.cfg.TTS.MaxChunkLength,
				MaxRetries:     a.cfg.Inbox.Retries,
				Voice:          a.cfg.Voice(),
				Playlist:       a.cfg.Output.Playlist,
				PlaylistName:   a.cfg.Output.PlaylistName,
			}, q, synth, ntfy, a.log)

			w, err := watcher.New(dir, q, a.cfg.Inbox.Debounce, a.log)
			if err != nil {
				return err
			}

			proc.Start()
			if err := w.Start(); err != nil {
				proc.Stop()
				return err
			}

			a.log.Info("Watching inbox", "dir", dir, "provider", s.Name(), "pending", q.PendingCount())
			<-ctx.Done()

			a.log.Info("Shutting down")
			if err := w.Stop(); err != nil {
				a.log.Warn("Stopping watcher failed", "err", err)
			}
			proc.Stop()
			return nil
		},
	}
}

func checkWritePermission(dir string) error {
	testFile := filepath.Join(dir, ".write_test")
	f, err := os.Create(testFile)
	if err != nil {
		return err
	}
	f.Close()
	return os.Remove(testFile)
}
