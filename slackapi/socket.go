package slackapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"

	"github.com/onnwee/charbot/telemetry"
)

// Envelope is one Socket Mode frame. Payload shape depends on Type
// ("events_api", "slash_commands"); control frames ("hello", "disconnect")
// carry no envelope id.
type Envelope struct {
	Type       string          `json:"type"`
	EnvelopeID string          `json:"envelope_id"`
	Payload    json.RawMessage `json:"payload"`
	Reason     string          `json:"reason"`
}

type envelopeAck struct {
	EnvelopeID string `json:"envelope_id"`
}

// Handler consumes one acked envelope. It runs on its own goroutine per envelope.
type Handler func(ctx context.Context, env Envelope)

// ConnectionsOpen requests a Socket Mode websocket URL using the app-level token.
func (c *Client) ConnectionsOpen(ctx context.Context) (string, error) {
	if c.AppToken == "" {
		return "", fmt.Errorf("missing app token for socket mode")
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := c.call(ctx, "apps.connections.open", c.AppToken, map[string]string{}, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("empty websocket url in slack response")
	}
	return out.URL, nil
}

// RunSocket keeps a Socket Mode connection alive until ctx is cancelled,
// reconnecting after disconnects and transport errors. Every payload-bearing
// envelope is acked before being handed to handle.
func (c *Client) RunSocket(ctx context.Context, handle Handler) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.runSocketOnce(ctx, handle); err != nil && ctx.Err() == nil {
			slog.Warn("socket mode connection ended", slog.Any("err", err))
		}
		if ctx.Err() == nil {
			telemetry.SocketReconnected()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
}

func (c *Client) runSocketOnce(ctx context.Context, handle Handler) error {
	wssURL, err := c.ConnectionsOpen(ctx)
	if err != nil {
		return fmt.Errorf("connections open: %w", err)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, wssURL, nil)
	if err != nil {
		return fmt.Errorf("dial socket: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	// Close the connection on shutdown so ReadJSON unblocks.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()
	defer close(done)
	defer func() {
		if err := conn.Close(); err != nil && ctx.Err() == nil {
			slog.Debug("socket close", slog.Any("err", err))
		}
	}()

	slog.Info("socket mode connected")
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}
		switch env.Type {
		case "hello":
			slog.Debug("socket mode hello received")
		case "disconnect":
			// Slack asks clients to reconnect (e.g. refresh_requested).
			slog.Info("socket mode disconnect requested", slog.String("reason", env.Reason))
			return nil
		default:
			if env.EnvelopeID != "" {
				if err := conn.WriteJSON(envelopeAck{EnvelopeID: env.EnvelopeID}); err != nil {
					return fmt.Errorf("ack envelope: %w", err)
				}
			}
			go handle(ctx, env)
		}
	}
}
