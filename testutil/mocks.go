// Package testutil provides httptest-backed mocks for the external services the
// bot talks to: the Slack Web API, the Last.fm API, and the destination upload API.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// MockSlackServer mocks the Slack Web API. It records chat.postMessage and
// chat.postEphemeral payloads for assertions.
type MockSlackServer struct {
	*httptest.Server

	mu         sync.Mutex
	Posts      []map[string]string
	Ephemerals []map[string]string
	Profile    map[string]string // users.info profile fields
}

// NewMockSlackServer creates a Slack Web API mock that accepts all deliveries.
func NewMockSlackServer(t *testing.T) *MockSlackServer {
	t.Helper()
	m := &MockSlackServer{
		Profile: map[string]string{"display_name": "ivie", "real_name": "Ivie R", "image_192": "https://img.example/192.png"},
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/chat.postMessage":
			var payload map[string]string
			_ = json.NewDecoder(r.Body).Decode(&payload)
			m.mu.Lock()
			m.Posts = append(m.Posts, payload)
			m.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "ts": "111.222"})
		case "/chat.postEphemeral":
			var payload map[string]string
			_ = json.NewDecoder(r.Body).Decode(&payload)
			m.mu.Lock()
			m.Ephemerals = append(m.Ephemerals, payload)
			m.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		case "/users.info":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"ok":   true,
				"user": map[string]any{"profile": m.Profile},
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(m.Close)
	return m
}

// PostCount returns the number of chat.postMessage deliveries so far.
func (m *MockSlackServer) PostCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Posts)
}

// LastPost returns the most recent chat.postMessage payload, or nil.
func (m *MockSlackServer) LastPost() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Posts) == 0 {
		return nil
	}
	return m.Posts[len(m.Posts)-1]
}

// LastEphemeral returns the most recent chat.postEphemeral payload, or nil.
func (m *MockSlackServer) LastEphemeral() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Ephemerals) == 0 {
		return nil
	}
	return m.Ephemerals[len(m.Ephemerals)-1]
}

// NewMockLastFMServer creates a Last.fm API mock returning the given scrobbles as
// [track, artist] pairs; pairs with artist "nowplaying" are flagged in-progress.
func NewMockLastFMServer(t *testing.T, pairs [][2]string, nowPlaying bool) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracks := make([]map[string]any, 0, len(pairs))
		for i, p := range pairs {
			entry := map[string]any{
				"name":   p[0],
				"artist": map[string]string{"#text": p[1]},
			}
			if nowPlaying && i == 0 {
				entry["@attr"] = map[string]string{"nowplaying": "true"}
			} else {
				entry["date"] = map[string]string{"uts": "1700000000"}
			}
			tracks = append(tracks, entry)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"recenttracks": map[string]any{"track": tracks},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

// MockUploadServer mocks the destination upload API.
type MockUploadServer struct {
	*httptest.Server

	mu       sync.Mutex
	Requests int
	Response string // JSON body returned to uploads
	Status   int
}

// NewMockUploadServer creates an upload API mock. Response/Status may be changed
// between requests.
func NewMockUploadServer(t *testing.T) *MockUploadServer {
	t.Helper()
	m := &MockUploadServer{Response: `{"success":true,"files":[{"id":"abc123"}]}`, Status: http.StatusOK}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/upload" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		m.mu.Lock()
		m.Requests++
		resp, status := m.Response, m.Status
		m.mu.Unlock()
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(m.Close)
	return m
}

// RequestCount returns the number of upload attempts so far.
func (m *MockUploadServer) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Requests
}
