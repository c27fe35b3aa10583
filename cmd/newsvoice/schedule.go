package main

import (
	"github.com/spf13/cobra"

	"github.com/clobrano/newsvoice/internal/schedule"
)

func newScheduleCmd(a *app) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run now and then every day at the configured time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if at == "" {
				at = a.cfg.Schedule.Time
			}

			ctx, stop := signalContext()
			defer stop()

			d := &schedule.Daily{
				At:     at,
				Poll:   a.cfg.Schedule.Poll,
				Logger: a.log,
			}
			a.log.Info("Scheduler started", "at", at)
			return d.Run(ctx, a.runOnce)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "time of day, HH:MM (default from config)")

	return cmd
}
