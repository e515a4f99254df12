package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/nsit-tools/attendance-dashboard/internal/model"
	"github.com/nsit-tools/attendance-dashboard/internal/response"
)

const backendProbeTimeout = 3 * time.Second

// HealthChecker reports the attendance backend's status.
type HealthChecker interface {
	Health(ctx context.Context) (*model.HealthResponse, error)
}

// SystemHandler serves liveness and backend reachability.
type SystemHandler struct {
	backend   HealthChecker
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(backend HealthChecker, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		backend:   backend,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type backendStatus struct {
	Reachable      bool   `json:"reachable"`
	Status         string `json:"status,omitempty"`
	ActiveSessions int    `json:"active_sessions"`
}

type healthBody struct {
	Status     string        `json:"status"`
	Uptime     string        `json:"uptime"`
	GoVersion  string        `json:"go_version"`
	Goroutines int           `json:"goroutines"`
	Backend    backendStatus `json:"backend"`
}

// Health godoc
// GET /health
// Always 200 while the process is up; backend reachability is reported,
// not enforced.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), backendProbeTimeout)
	defer cancel()

	body := healthBody{
		Status:     "ok",
		Uptime:     formatDuration(time.Since(h.startTime)),
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
	}

	if res, err := h.backend.Health(ctx); err != nil {
		h.log.Warn().Err(err).Msg("backend health probe failed")
	} else {
		body.Backend = backendStatus{
			Reachable:      true,
			Status:         res.Status,
			ActiveSessions: res.ActiveSessions,
		}
	}

	response.Success(c, http.StatusOK, body)
}

// ---------- Helpers ----------

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
