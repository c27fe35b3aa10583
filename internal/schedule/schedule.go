// Package schedule repeats a job at a wall-clock time of day.
package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/clobrano/newsvoice/internal/logger"
)

// DefaultPoll is how often the clock is checked against the next run time.
const DefaultPoll = time.Minute

// Job is one scheduled unit of work. Its error is logged; it never stops
// the schedule.
type Job func(ctx context.Context) error

// Daily runs a job once immediately and then every day at At ("HH:MM",
// local time). The clock is polled every Poll, so a run can start up to Poll
// late.
type Daily struct {
	At   string
	Poll time.Duration

	Now    func() time.Time
	Logger *slog.Logger
}

// ParseClock parses "HH:MM" into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q, want HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Next returns the first occurrence of hour:minute strictly after now, in
// now's location.
func Next(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = time.Date(now.Year(), now.Month(), now.Day()+1, hour, minute, 0, 0, now.Location())
	}
	return next
}

// Run blocks until ctx is cancelled.
func (d *Daily) Run(ctx context.Context, job Job) error {
	hour, minute, err := ParseClock(d.At)
	if err != nil {
		return err
	}
	poll := d.Poll
	if poll <= 0 {
		poll = DefaultPoll
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}
	log := logger.OrDefault(d.Logger)

	d.run(ctx, log, job)
	next := Next(now(), hour, minute)
	log.Info("Next run scheduled", "at", next.Format(time.DateTime))

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("Scheduler stopped")
			return nil
		case <-ticker.C:
			if now().Before(next) {
				continue
			}
			d.run(ctx, log, job)
			next = Next(now(), hour, minute)
			log.Info("Next run scheduled", "at", next.Format(time.DateTime))
		}
	}
}

func (d *Daily) run(ctx context.Context, log *slog.Logger, job Job) {
	if ctx.Err() != nil {
		return
	}
	if err := job(ctx); err != nil {
		log.Error("Scheduled run failed", "err", err)
	}
}
