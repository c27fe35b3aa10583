package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/clobrano/newsvoice/internal/chunker"
	"github.com/clobrano/newsvoice/internal/output"
	"github.com/clobrano/newsvoice/internal/runner"
	"github.com/clobrano/newsvoice/internal/tts"
)

func newSayCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "say [TEXT]",
		Short: "Synthesize a piece of text, the demo text when none is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := runner.DemoText
			if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
				text = args[0]
			}

			ctx, stop := signalContext()
			defer stop()

			s, err := a.synthesizer(ctx)
			if err != nil {
				return err
			}
			synth := tts.Paced(s, a.cfg.TTS.Interval)
			voice := a.cfg.Voice()

			dir, base := a.cfg.Output.Dir, strings.TrimSuffix(output.DemoName(time.Now(), voice.Ext()), "."+voice.Ext())
			if out != "" {
				dir = filepath.Dir(out)
				base = strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
			}
			if err := output.EnsureDir(dir); err != nil {
				return err
			}

			chunks := chunker.Split(text, a.cfg.TTS.MaxChunkLength)
			for i, chunk := range chunks {
				audio, err := synth.Synthesize(ctx, chunk, voice)
				if err != nil {
					return fmt.Errorf("part %d/%d: %w", i+1, len(chunks), err)
				}
				path, size, err := output.WriteAudio(dir, output.PartName(base, i+1, len(chunks), voice.Ext()), audio)
				if err != nil {
					return err
				}
				a.log.Info("Generated audio", "file", path, "bytes", size)
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file; parts get a _partNN suffix")

	return cmd
}
