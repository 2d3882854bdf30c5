package health

import (
	"context"
	"net/http"
	"time"

	"github.com/btmxh/gym-tsfr/internal/infrastructure/json"
)

const checkTimeout = 2 * time.Second

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

type Handler struct {
	startedAt time.Time
	checks    map[string]Check
}

func NewHandler(checks map[string]Check) *Handler {
	return &Handler{
		startedAt: time.Now(),
		checks:    checks,
	}
}

// GetLive only says the process answers.
func (h *Handler) GetLive(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, h.response("ok", nil))
}

// GetHealth runs every dependency check and answers 503 when one fails.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	results := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			results[name] = "unavailable"
			status, code = "unhealthy", http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	json.Write(w, code, h.response(status, results))
}

func (h *Handler) response(status string, checks map[string]string) healthResponse {
	return healthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Checks:    checks,
	}
}
