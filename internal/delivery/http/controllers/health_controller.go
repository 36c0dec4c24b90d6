package controllers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"eventplanner/internal/delivery/http/helpers"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// HealthController reports whether the service's dependencies answer.
type HealthController struct {
	Logger  *slog.Logger
	Checks  map[string]HealthCheck
	Timeout time.Duration
}

func NewHealthController(logger *slog.Logger, checks map[string]HealthCheck, timeout time.Duration) *HealthController {
	return &HealthController{Logger: logger, Checks: checks, Timeout: timeout}
}

// HealthResponse lists each dependency as "ok" or "down".
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Healthz godoc
// @Summary Health check
// @Description Pings the database and other configured dependencies.
// @Tags ops
// @Produce json
// @Success 200 {object} helpers.APIResponse "data.status: ok"
// @Failure 503 {object} helpers.APIResponse "data.status: degraded"
// @Router /healthz [get]
func (c *HealthController) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.Timeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(c.Checks))}
	for name, check := range c.Checks {
		if err := check(ctx); err != nil {
			c.Logger.WarnContext(ctx, "health check failed", "check", name, "err", err)
			resp.Checks[name] = "down"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}
	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	helpers.WriteJSONSuccess(w, status, resp)
}
