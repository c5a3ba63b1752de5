package slackapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPostMessage(t *testing.T) {
	tests := []struct {
		name        string
		opts        *PostMessageOpts
		response    string
		wantFields  map[string]string
		absent      []string
		wantTS      string
		wantErr     bool
		errContains string
	}{
		{
			name:       "top-level post",
			response:   `{"ok":true,"ts":"111.222"}`,
			wantFields: map[string]string{"channel": "C1", "text": "hello"},
			absent:     []string{"thread_ts", "username", "icon_url"},
			wantTS:     "111.222",
		},
		{
			name:       "threaded reply",
			opts:       &PostMessageOpts{ThreadTS: "100.001"},
			response:   `{"ok":true,"ts":"111.333"}`,
			wantFields: map[string]string{"thread_ts": "100.001"},
			absent:     []string{"username", "icon_url"},
			wantTS:     "111.333",
		},
		{
			name:       "puppeted identity",
			opts:       &PostMessageOpts{Username: "Ivie", IconURL: "https://img.example/192.png"},
			response:   `{"ok":true,"ts":"111.444"}`,
			wantFields: map[string]string{"username": "Ivie", "icon_url": "https://img.example/192.png"},
			wantTS:     "111.444",
		},
		{
			name:        "slack-level failure",
			response:    `{"ok":false,"error":"channel_not_found"}`,
			wantErr:     true,
			errContains: "channel_not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/chat.postMessage" {
					t.Errorf("path = %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer xoxb-test" {
					t.Errorf("missing bot token auth header")
				}
				var payload map[string]string
				if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
					t.Fatalf("decode payload: %v", err)
				}
				for k, v := range tt.wantFields {
					if payload[k] != v {
						t.Errorf("payload[%q] = %q, want %q", k, payload[k], v)
					}
				}
				for _, k := range tt.absent {
					if _, ok := payload[k]; ok {
						t.Errorf("payload unexpectedly contains %q", k)
					}
				}
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			c := &Client{BotToken: "xoxb-test", BaseURL: server.URL}
			ts, err := c.PostMessage(context.Background(), "C1", "hello", tt.opts)
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("error = %v, want contains %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ts != tt.wantTS {
				t.Errorf("ts = %q, want %q", ts, tt.wantTS)
			}
		})
	}
}

func TestPostEphemeral(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat.postEphemeral" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		if payload["channel"] != "C1" || payload["user"] != "U1" || payload["text"] == "" {
			t.Errorf("unexpected payload: %v", payload)
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := &Client{BotToken: "xoxb-test", BaseURL: server.URL}
	if err := c.PostEphemeral(context.Background(), "C1", "U1", "denied"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestUserProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users.info" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("user") != "U42" {
			t.Errorf("user param = %q", r.URL.Query().Get("user"))
		}
		_, _ = w.Write([]byte(`{"ok":true,"user":{"profile":{"display_name":"ivie","real_name":"Ivie R","image_192":"https://img.example/192.png"}}}`))
	}))
	defer server.Close()

	c := &Client{BotToken: "xoxb-test", BaseURL: server.URL}
	p, err := c.UserProfile(context.Background(), "U42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "ivie" {
		t.Errorf("Name() = %q, want display name", p.Name())
	}
	if p.Image192 != "https://img.example/192.png" {
		t.Errorf("Image192 = %q", p.Image192)
	}
}

func TestProfileNameFallback(t *testing.T) {
	p := Profile{RealName: "Ivie R"}
	if p.Name() != "Ivie R" {
		t.Errorf("Name() = %q, want real name fallback", p.Name())
	}
}

func TestUserProfileEmptyID(t *testing.T) {
	c := &Client{BotToken: "xoxb-test"}
	if _, err := c.UserProfile(context.Background(), ""); err == nil {
		t.Error("expected error for empty user id")
	}
}

func TestFetchFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer xoxb-test" {
			t.Errorf("missing bot token auth header")
		}
		_, _ = w.Write([]byte("binary-bytes"))
	}))
	defer server.Close()

	c := &Client{BotToken: "xoxb-test"}
	data, err := c.FetchFile(context.Background(), server.URL+"/files/F1/download")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "binary-bytes" {
		t.Errorf("data = %q", data)
	}
}

func TestFetchFileStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	c := &Client{BotToken: "xoxb-test"}
	_, err := c.FetchFile(context.Background(), server.URL+"/files/F1/download")
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusForbidden {
		t.Errorf("Code = %d, want 403", se.Code)
	}
	if !strings.Contains(se.Status, "403") {
		t.Errorf("Status = %q, want to reference 403", se.Status)
	}
}

func TestConnectionsOpen(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/apps.connections.open" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer xapp-test" {
			t.Errorf("connections.open must use the app token, got %q", r.Header.Get("Authorization"))
		}
		_, _ = w.Write([]byte(`{"ok":true,"url":"wss://example.invalid/link"}`))
	}))
	defer server.Close()

	c := &Client{BotToken: "xoxb-test", AppToken: "xapp-test", BaseURL: server.URL}
	url, err := c.ConnectionsOpen(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "wss://example.invalid/link" {
		t.Errorf("url = %q", url)
	}

	c.AppToken = ""
	if _, err := c.ConnectionsOpen(context.Background()); err == nil {
		t.Error("expected error when app token missing")
	}
}
