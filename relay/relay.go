// Package relay implements the attachment relay pipeline: a mention event's first
// attachment is fetched from Slack and re-uploaded to the destination service, with
// the outcome reported as a threaded reply on the originating message.
//
// The pipeline is linear with early exit: authorize → check intent → parse target →
// fetch source → upload → report. Unauthorized actors and events without upload
// intent (no text or no attachment) terminate without any chat output; everything
// after that reports either the public reference or a failure reason in-thread.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/charbot/slackapi"
	"github.com/onnwee/charbot/telemetry"
	"github.com/onnwee/charbot/zipline"
)

// AttachmentRef points at a binary hosted by the source chat platform.
type AttachmentRef struct {
	SourceURL     string
	MimeType      string
	SuggestedName string
}

// Event is one inbound mention: free text plus attachments. Only the first
// attachment is processed; the rest are ignored.
type Event struct {
	Channel     string
	ThreadTS    string
	Actor       string
	Text        string
	Attachments []AttachmentRef
}

// UploadTarget is parsed from the event's free text. An empty Folder means the
// text carried no path separator.
type UploadTarget struct {
	Folder   string
	Filename string
}

// ParseTarget splits text on the last path separator: everything before it is the
// folder, everything after is the filename.
func ParseTarget(text string) UploadTarget {
	if i := strings.LastIndex(text, "/"); i >= 0 {
		return UploadTarget{Folder: text[:i], Filename: text[i+1:]}
	}
	return UploadTarget{Filename: text}
}

// Authorizer gates the pipeline on the acting identity.
type Authorizer interface {
	IsOwner(actorID string) bool
}

// Fetcher retrieves the attachment binary from the source platform.
type Fetcher interface {
	FetchFile(ctx context.Context, url string) ([]byte, error)
}

// Uploader sends the binary to the destination service.
type Uploader interface {
	Upload(ctx context.Context, ur zipline.UploadRequest) (string, error)
}

// Replier delivers a threaded reply anchored to the originating message.
type Replier interface {
	PostThread(ctx context.Context, channel, threadTS, text string) error
}

// Pipeline wires the relay stages together. All fields are required.
type Pipeline struct {
	Guard  Authorizer
	Source Fetcher
	Dest   Uploader
	Reply  Replier
}

// Run executes the pipeline for one event. It never returns an error: every
// failure past the intent check is reported into the originating thread, and
// reply delivery failures are only logged so one broken invocation cannot take
// the process down.
func (p *Pipeline) Run(ctx context.Context, ev Event) {
	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "relay"))
	if !p.Guard.IsOwner(ev.Actor) {
		logger.Debug("relay denied: actor is not the owner", slog.String("actor", ev.Actor))
		return
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" || len(ev.Attachments) == 0 {
		// Absence of intent is not a failure: no output at all.
		logger.Debug("mention without upload intent ignored",
			slog.Bool("has_text", text != ""), slog.Int("attachments", len(ev.Attachments)))
		return
	}

	ctx, span := telemetry.StartSpan(ctx, "relay", "relay.run",
		attribute.String("channel", ev.Channel))
	defer span.End()
	telemetry.RelaysStarted.Inc()

	var notice string
	telemetry.TimeFunc(telemetry.RelayDuration, func() {
		notice = p.execute(ctx, ev, text, logger)
	})
	if err := p.Reply.PostThread(ctx, ev.Channel, ev.ThreadTS, notice); err != nil {
		logger.Error("failed to post relay outcome", slog.Any("err", err))
		telemetry.RecordError(span, err)
	}
}

// execute runs stages 3-5 and returns the notice text for the thread reply.
func (p *Pipeline) execute(ctx context.Context, ev Event, text string, logger *slog.Logger) string {
	target := ParseTarget(text)
	att := ev.Attachments[0]
	name := target.Filename
	if name == "" {
		name = att.SuggestedName
	}

	var (
		data []byte
		err  error
	)
	telemetry.TimeFunc(telemetry.AttachmentFetchDuration, func() {
		data, err = p.Source.FetchFile(ctx, att.SourceURL)
	})
	if err != nil {
		var se *slackapi.StatusError
		if errors.As(err, &se) {
			logger.Warn("attachment fetch rejected", slog.String("status", se.Status))
			telemetry.RelayFailed("fetch")
			return fmt.Sprintf("Failed to fetch file from Slack: %s", se.Status)
		}
		logger.Error("attachment fetch failed", slog.Any("err", err))
		telemetry.RelayFailed("internal")
		return fmt.Sprintf("File relay failed: %s", err)
	}

	var publicURL string
	telemetry.TimeFunc(telemetry.UploadDuration, func() {
		publicURL, err = p.Dest.Upload(ctx, zipline.UploadRequest{
			Filename: name,
			MimeType: att.MimeType,
			Data:     data,
			Folder:   target.Folder,
		})
	})
	if err != nil {
		var de *zipline.DecodeError
		if errors.As(err, &de) {
			logger.Error("upload response undecodable", slog.Int("body_len", len(de.Body)))
			telemetry.RelayFailed("decode")
			return fmt.Sprintf("Invalid response: %s", de.Body)
		}
		var sve *zipline.ServiceError
		if errors.As(err, &sve) {
			logger.Warn("upload rejected by destination", slog.String("reason", sve.Reason))
			telemetry.RelayFailed("service")
			return fmt.Sprintf("Upload failed: %s", sve.Reason)
		}
		logger.Error("upload failed", slog.Any("err", err))
		telemetry.RelayFailed("internal")
		return fmt.Sprintf("File relay failed: %s", err)
	}

	telemetry.RelaysSucceeded.Inc()
	logger.Info("attachment relayed",
		slog.String("filename", name),
		slog.String("folder", target.Folder),
		slog.String("url", publicURL))
	return fmt.Sprintf("File uploaded: %s", publicURL)
}
