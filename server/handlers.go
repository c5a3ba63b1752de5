package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/onnwee/charbot/config"
)

type handlers struct {
	cfg       *config.Config
	startedAt time.Time
}

// handleHealthz responds to liveness probes. The process has no backing store to
// ping; being able to serve the request is the check.
func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReadyz reports whether the configured feature sets are usable.
func (h *handlers) handleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"slack", h.cfg.ValidateSlackReady},
		{"summary", h.cfg.ValidateSummaryReady},
		{"relay", h.cfg.ValidateRelayReady},
	}
	w.Header().Set("Content-Type", "application/json")
	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// handleStatus reports coarse process info.
func (h *handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"service":        "charbot",
		"started_at":     h.startedAt.Format(time.RFC3339),
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
		"daily_spec":     h.cfg.DailySpec,
		"daily_tz":       h.cfg.Timezone,
	})
}
