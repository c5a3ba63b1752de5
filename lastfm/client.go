// Package lastfm contains a minimal client for the Last.fm user.getrecenttracks
// endpoint, which is the only scrobble query the bot needs.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// DefaultBaseURL is the public Last.fm API root.
const DefaultBaseURL = "https://ws.audioscrobbler.com/2.0/"

// Scrobble is one logged play from the recent-tracks response. NowPlaying marks a
// stream still in progress, which has no final play count yet.
type Scrobble struct {
	Track      string
	Artist     string
	NowPlaying bool
	Timestamp  int64
}

// Client queries the Last.fm API for a single configured user.
type Client struct {
	APIKey     string
	User       string
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) http() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return DefaultBaseURL
}

// recentTracksResponse mirrors the wire shape: artist name lives under "#text" and
// the now-playing flag under "@attr".
type recentTracksResponse struct {
	RecentTracks struct {
		Track []struct {
			Name   string `json:"name"`
			Artist struct {
				Text string `json:"#text"`
			} `json:"artist"`
			Attr *struct {
				NowPlaying string `json:"nowplaying"`
			} `json:"@attr"`
			Date *struct {
				UTS string `json:"uts"`
			} `json:"date"`
		} `json:"track"`
	} `json:"recenttracks"`
}

// RecentTracks fetches the scrobble log for the closed UNIX-time interval [from, to].
// A single request is issued with a 200-row ceiling; whatever truncation the API
// applies is accepted as-is. An empty or absent log yields an empty slice, not an error.
func (c *Client) RecentTracks(ctx context.Context, from, to int64) ([]Scrobble, error) {
	if c.APIKey == "" || c.User == "" {
		return nil, fmt.Errorf("lastfm client missing api key or user")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL(), nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	q.Set("method", "user.getrecenttracks")
	q.Set("user", c.User)
	q.Set("api_key", c.APIKey)
	q.Set("format", "json")
	q.Set("from", strconv.FormatInt(from, 10))
	q.Set("to", strconv.FormatInt(to, 10))
	q.Set("limit", "200")
	req.URL.RawQuery = q.Encode()
	resp, err := c.http().Do(req)
	if err != nil {
		return nil, fmt.Errorf("lastfm request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lastfm request failed: %s", resp.Status)
	}
	var body recentTracksResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("lastfm decode: %w", err)
	}
	out := make([]Scrobble, 0, len(body.RecentTracks.Track))
	for _, t := range body.RecentTracks.Track {
		s := Scrobble{Track: t.Name, Artist: t.Artist.Text}
		if t.Attr != nil && t.Attr.NowPlaying == "true" {
			s.NowPlaying = true
		}
		if t.Date != nil {
			if uts, err := strconv.ParseInt(t.Date.UTS, 10, 64); err == nil {
				s.Timestamp = uts
			}
		}
		out = append(out, s)
	}
	return out, nil
}
