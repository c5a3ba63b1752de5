package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/onnwee/charbot/config"
	"github.com/onnwee/charbot/telemetry"
)

func readyConfig() *config.Config {
	return &config.Config{
		SlackBotToken: "xoxb",
		SlackAppToken: "xapp",
		BotOwnerID:    "U1",
		ChannelID:     "C1",
		LastFMAPIKey:  "key",
		LastFMUser:    "listener",
		UploadBaseURL: "https://files.example.com",
		UploadToken:   "tok",
		DailySpec:     "0 19 * * *",
		Timezone:      "America/New_York",
	}
}

func TestHealthz(t *testing.T) {
	mux := NewMux(readyConfig(), time.Now())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		mux := NewMux(readyConfig(), time.Now())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("missing lastfm creds", func(t *testing.T) {
		cfg := readyConfig()
		cfg.LastFMAPIKey = ""
		mux := NewMux(cfg, time.Now())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("status = %d, want 503", rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["failed_check"] != "summary" {
			t.Errorf("failed_check = %q, want summary", body["failed_check"])
		}
	})
}

func TestStatus(t *testing.T) {
	mux := NewMux(readyConfig(), time.Now().Add(-time.Minute))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["service"] != "charbot" {
		t.Errorf("service = %v", body["service"])
	}
	if body["uptime_seconds"].(float64) < 59 {
		t.Errorf("uptime_seconds = %v, want >= 59", body["uptime_seconds"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	telemetry.Init()
	mux := NewMux(readyConfig(), time.Now())
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty metrics body")
	}
}
