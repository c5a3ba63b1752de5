// Package bot is the dispatcher: it maps inbound Socket Mode envelopes (slash
// commands and app_mention events) to the summary and relay pipelines. Every
// trigger runs independently with its own correlation id; handlers share only
// immutable configuration and concurrency-safe clients.
package bot

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/onnwee/charbot/access"
	"github.com/onnwee/charbot/notify"
	"github.com/onnwee/charbot/relay"
	"github.com/onnwee/charbot/slackapi"
	"github.com/onnwee/charbot/summary"
	"github.com/onnwee/charbot/telemetry"
)

// Dispatcher routes envelopes to pipelines. Summary and Relay may be nil when
// their feature set is not configured; the corresponding triggers become no-ops
// (with an ephemeral notice for commands).
type Dispatcher struct {
	Slack    *slackapi.Client
	Notifier *notify.Notifier
	Guard    *access.Guard
	Summary  *summary.Service
	Relay    *relay.Pipeline
}

// Run connects to Socket Mode and dispatches until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	return d.Slack.RunSocket(ctx, d.Handle)
}

// Handle processes one envelope. The socket layer already runs it on its own
// goroutine, so a slow pipeline never blocks the read loop.
func (d *Dispatcher) Handle(ctx context.Context, env slackapi.Envelope) {
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString())
	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("component", "bot"))

	switch env.Type {
	case "slash_commands":
		var cmd slackapi.SlashCommand
		if err := json.Unmarshal(env.Payload, &cmd); err != nil {
			logger.Warn("undecodable slash command payload", slog.Any("err", err))
			return
		}
		d.handleCommand(ctx, cmd, logger)
	case "events_api":
		var cb slackapi.EventCallback
		if err := json.Unmarshal(env.Payload, &cb); err != nil {
			logger.Warn("undecodable events_api payload", slog.Any("err", err))
			return
		}
		var ev slackapi.MentionEvent
		if err := json.Unmarshal(cb.Event, &ev); err != nil {
			logger.Warn("undecodable inner event", slog.Any("err", err))
			return
		}
		if ev.Type != "app_mention" {
			logger.Debug("ignoring event", slog.String("type", ev.Type))
			return
		}
		d.handleMention(ctx, ev)
	default:
		logger.Debug("ignoring envelope", slog.String("type", env.Type))
	}
}

func (d *Dispatcher) handleCommand(ctx context.Context, cmd slackapi.SlashCommand, logger *slog.Logger) {
	if !d.Guard.IsOwner(cmd.UserID) {
		telemetry.CommandDenied()
		logger.Info("command denied", slog.String("command", cmd.Command), slog.String("user", cmd.UserID))
		if err := d.Notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID, notify.DeniedText); err != nil {
			logger.Warn("failed to post denial", slog.Any("err", err))
		}
		return
	}

	switch cmd.Command {
	case "/tracknow":
		if d.Summary == nil {
			d.ephemeral(ctx, cmd, "Listening summaries are not configured.", logger)
			return
		}
		if err := d.Summary.Post(ctx, cmd.ChannelID, false); err != nil {
			logger.Error("on-demand summary failed", slog.Any("err", err))
			d.ephemeral(ctx, cmd, "Failed to fetch top tracks.", logger)
			return
		}
		d.ephemeral(ctx, cmd, "Posted top tracks!", logger)
	case "/echo":
		d.handleEcho(ctx, cmd, logger)
	default:
		logger.Debug("unknown command", slog.String("command", cmd.Command))
	}
}

func (d *Dispatcher) ephemeral(ctx context.Context, cmd slackapi.SlashCommand, text string, logger *slog.Logger) {
	if err := d.Notifier.PostEphemeral(ctx, cmd.ChannelID, cmd.UserID, text); err != nil {
		logger.Warn("failed to post ephemeral response", slog.Any("err", err))
	}
}

// handleEcho re-posts the command text with the invoker's display name and avatar,
// so the message appears to come from them.
func (d *Dispatcher) handleEcho(ctx context.Context, cmd slackapi.SlashCommand, logger *slog.Logger) {
	if strings.TrimSpace(cmd.Text) == "" {
		logger.Debug("echo with empty text ignored")
		return
	}
	profile, err := d.Slack.UserProfile(ctx, cmd.UserID)
	if err != nil {
		logger.Error("profile lookup failed", slog.Any("err", err))
		return
	}
	_, err = d.Slack.PostMessage(ctx, cmd.ChannelID, cmd.Text, &slackapi.PostMessageOpts{
		Username: profile.Name(),
		IconURL:  profile.Image192,
	})
	if err != nil {
		logger.Error("echo post failed", slog.Any("err", err))
	}
}

var mentionToken = regexp.MustCompile(`<@[^>]+>`)

// stripMentions removes user mention tokens so only the free text (the upload
// target path) reaches the relay.
func stripMentions(text string) string {
	return strings.TrimSpace(mentionToken.ReplaceAllString(text, ""))
}

func (d *Dispatcher) handleMention(ctx context.Context, ev slackapi.MentionEvent) {
	if d.Relay == nil {
		return
	}
	atts := make([]relay.AttachmentRef, 0, len(ev.Files))
	for _, f := range ev.Files {
		atts = append(atts, relay.AttachmentRef{
			SourceURL:     f.URLPrivateDownload,
			MimeType:      f.Mimetype,
			SuggestedName: f.Name,
		})
	}
	d.Relay.Run(ctx, relay.Event{
		Channel:     ev.Channel,
		ThreadTS:    ev.TS,
		Actor:       ev.User,
		Text:        stripMentions(ev.Text),
		Attachments: atts,
	})
}
