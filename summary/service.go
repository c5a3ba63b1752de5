package summary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/charbot/lastfm"
	"github.com/onnwee/charbot/telemetry"
)

// Poster delivers a top-level channel message (for tests/mocks).
type Poster interface {
	PostChannel(ctx context.Context, channelID, text string) error
}

// Service fetches the day's scrobble log and posts the ranked summary.
type Service struct {
	Scrobbles *lastfm.Client
	Poster    Poster
	User      string

	// now is overridable for tests; defaults to time.Now.
	now func() time.Time
}

func (s *Service) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// window returns the closed UNIX interval from the start of the current UTC day
// through now, matching the scrobble service's day boundary.
func (s *Service) window() (int64, int64) {
	now := s.clock().Unix()
	return now - now%86400, now
}

// Post fetches today's scrobbles, aggregates them, and posts the summary into
// channelID. scheduled selects the nightly lead line. An empty log still posts
// (the no-tracks variant); only fetch or delivery failures return an error.
func (s *Service) Post(ctx context.Context, channelID string, scheduled bool) error {
	ctx, span := telemetry.StartSpan(ctx, "summary", "summary.post",
		attribute.Bool("scheduled", scheduled))
	defer span.End()
	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "summary"))

	from, to := s.window()
	var (
		log []lastfm.Scrobble
		err error
	)
	telemetry.TimeFunc(telemetry.ScrobbleFetchDuration, func() {
		log, err = s.Scrobbles.RecentTracks(ctx, from, to)
	})
	if err != nil {
		telemetry.SummariesFailed.Inc()
		telemetry.RecordError(span, err)
		return fmt.Errorf("fetch scrobbles: %w", err)
	}

	tracks := TopTracks(log, 5)
	if err := s.Poster.PostChannel(ctx, channelID, Message(scheduled, s.User, tracks)); err != nil {
		telemetry.SummariesFailed.Inc()
		telemetry.RecordError(span, err)
		return fmt.Errorf("post summary: %w", err)
	}
	if len(tracks) == 0 {
		telemetry.SummariesEmpty.Inc()
	}
	telemetry.SummariesPosted.Inc()
	telemetry.SetSpanSuccess(span)
	logger.Info("listening summary posted",
		slog.String("channel", channelID),
		slog.Bool("scheduled", scheduled),
		slog.Int("tracks", len(tracks)),
		slog.Int("scrobbles", len(log)))
	return nil
}
