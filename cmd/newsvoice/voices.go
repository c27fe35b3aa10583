package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clobrano/newsvoice/internal/tts"
)

func newVoicesCmd(a *app) *cobra.Command {
	var language string

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List the voices of the selected provider",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			s, err := a.synthesizer(ctx)
			if err != nil {
				return err
			}
			lister, ok := s.(tts.VoiceLister)
			if !ok {
				return fmt.Errorf("provider %s cannot list voices", s.Name())
			}
			if language == "" {
				language = a.cfg.Voice().Language
			}

			voices, err := lister.Voices(ctx, language)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tLANGUAGE\tGENDER")
			for _, v := range voices {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", v.ID, v.Name, v.Language, v.Gender)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&language, "language", "l", "", "language filter (default from the configured voice)")

	return cmd
}
