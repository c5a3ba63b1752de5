// Package sched runs the daily listening-summary trigger at a fixed local hour.
package sched

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/onnwee/charbot/telemetry"
)

// Poster posts a scheduled summary into a channel.
type Poster interface {
	Post(ctx context.Context, channelID string, scheduled bool) error
}

// StartDaily schedules one cron entry (spec, evaluated in the IANA zone tz) that
// posts the scheduled summary into channelID. The cron runner stops when ctx is
// cancelled. Returns an error for an invalid zone or spec.
func StartDaily(ctx context.Context, spec, tz, channelID string, poster Poster) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(spec, func() {
		runCtx := telemetry.WithCorrelation(ctx, uuid.NewString())
		logger := telemetry.LoggerWithCorr(runCtx).With(slog.String("component", "sched"))
		logger.Info("running daily top tracks post", slog.String("channel", channelID))
		if err := poster.Post(runCtx, channelID, true); err != nil {
			// Failure is isolated to this run; the next trigger fires regardless.
			logger.Error("scheduled summary failed", slog.Any("err", err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	c.Start()
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	slog.Info("daily summary scheduled", slog.String("spec", spec), slog.String("tz", tz))
	return nil
}
