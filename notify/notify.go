// Package notify adapts the Slack client to the delivery modes the pipelines use:
// top-level channel posts, threaded replies, and ephemeral responses.
package notify

import (
	"context"

	"github.com/onnwee/charbot/slackapi"
)

// DeniedText is the ephemeral response for non-owner command attempts.
const DeniedText = "You don't have permission to use this command."

// Notifier delivers pipeline outcomes. It satisfies the Poster/Replier interfaces
// declared by the summary and relay packages.
type Notifier struct {
	Slack *slackapi.Client
}

// PostChannel posts a top-level message into a channel.
func (n *Notifier) PostChannel(ctx context.Context, channelID, text string) error {
	_, err := n.Slack.PostMessage(ctx, channelID, text, nil)
	return err
}

// PostThread posts a reply anchored to the message at threadTS.
func (n *Notifier) PostThread(ctx context.Context, channel, threadTS, text string) error {
	_, err := n.Slack.PostMessage(ctx, channel, text, &slackapi.PostMessageOpts{ThreadTS: threadTS})
	return err
}

// PostEphemeral posts a response visible only to user.
func (n *Notifier) PostEphemeral(ctx context.Context, channel, user, text string) error {
	return n.Slack.PostEphemeral(ctx, channel, user, text)
}
