// Package slackapi contains minimal helpers to interact with the Slack Web API
// (message delivery, profile lookup, authenticated file download) and the Socket
// Mode event stream. Only the handful of methods the bot needs are wrapped.
package slackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DefaultBaseURL is the public Slack Web API root.
const DefaultBaseURL = "https://slack.com/api"

// Client talks to the Slack Web API. BotToken authenticates all message and file
// operations; AppToken is only used to open Socket Mode connections.
type Client struct {
	BotToken   string
	AppToken   string
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) apiURL(method string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return base + "/" + method
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// call posts a JSON payload to a Web API method and decodes the response into out
// (which may be nil). Slack-level failures (ok=false) are returned as errors.
func (c *Client) call(ctx context.Context, method, token string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL(method), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http().Do(req)
	if err != nil {
		return fmt.Errorf("slack %s: %w", method, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("slack %s: read body: %w", method, err)
	}
	var status apiResponse
	if err := json.Unmarshal(raw, &status); err != nil {
		return fmt.Errorf("slack %s: decode: %w", method, err)
	}
	if !status.OK {
		return fmt.Errorf("slack %s: %s", method, status.Error)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("slack %s: decode: %w", method, err)
		}
	}
	return nil
}

// PostMessageOpts carries the optional chat.postMessage fields the bot uses.
type PostMessageOpts struct {
	ThreadTS string // anchor for a threaded reply
	Username string // puppeted display name
	IconURL  string // puppeted avatar
}

// PostMessage posts a top-level channel message, or a threaded reply when
// opts.ThreadTS is set. Returns the posted message timestamp.
func (c *Client) PostMessage(ctx context.Context, channel, text string, opts *PostMessageOpts) (string, error) {
	payload := map[string]string{"channel": channel, "text": text}
	if opts != nil {
		if opts.ThreadTS != "" {
			payload["thread_ts"] = opts.ThreadTS
		}
		if opts.Username != "" {
			payload["username"] = opts.Username
		}
		if opts.IconURL != "" {
			payload["icon_url"] = opts.IconURL
		}
	}
	var out struct {
		TS string `json:"ts"`
	}
	if err := c.call(ctx, "chat.postMessage", c.BotToken, payload, &out); err != nil {
		return "", err
	}
	return out.TS, nil
}

// PostEphemeral posts a message visible only to user, never persisted in the
// channel's shared history.
func (c *Client) PostEphemeral(ctx context.Context, channel, user, text string) error {
	payload := map[string]string{"channel": channel, "user": user, "text": text}
	return c.call(ctx, "chat.postEphemeral", c.BotToken, payload, nil)
}

// Profile is the subset of a Slack user profile used for the puppeted echo.
type Profile struct {
	DisplayName string `json:"display_name"`
	RealName    string `json:"real_name"`
	Image192    string `json:"image_192"`
}

// Name returns the display name, falling back to the real name.
func (p Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.RealName
}

// UserProfile fetches the profile of a user via users.info.
func (c *Client) UserProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL("users.info"), nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("user", userID)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Authorization", "Bearer "+c.BotToken)
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack users.info: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	var body struct {
		apiResponse
		User struct {
			Profile Profile `json:"profile"`
		} `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("slack users.info: decode: %w", err)
	}
	if !body.OK {
		return nil, fmt.Errorf("slack users.info: %s", body.Error)
	}
	return &body.User.Profile, nil
}

// StatusError reports a non-success HTTP status from an attachment download.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %s", e.Status)
}

// FetchFile downloads a file hosted by Slack (url_private_download) using the bot
// token. Any non-2xx status is returned as a *StatusError.
func (c *Client) FetchFile(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.BotToken)
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch file: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch file: read body: %w", err)
	}
	return data, nil
}
