package httpx

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/dtapi/booking-engine/internal/adapters/eligibility"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandlers exposes liveness and readiness probes.
type HealthHandlers struct {
	DB          *sql.DB
	Eligibility *eligibility.RedisProvider
}

// Live reports process liveness. It never touches dependencies.
func (h *HealthHandlers) Live(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the backing stores answer. A failing dependency
// returns 503 with the per-check detail.
func (h *HealthHandlers) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	checks := map[string]string{}
	healthy := true

	if err := h.DB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		healthy = false
	} else {
		checks["database"] = "ok"
	}

	if h.Eligibility != nil {
		if err := h.Eligibility.Health(ctx); err != nil {
			checks["redis"] = err.Error()
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	WriteJSON(w, status, map[string]any{"healthy": healthy, "checks": checks})
}
