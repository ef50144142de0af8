package httpx

import (
	"errors"
	"net/http"

	"github.com/dtapi/booking-engine/internal/domain/model"
	"github.com/dtapi/booking-engine/internal/service"
)

// TelemetryHandlers receives distance-feed callbacks. The feed authenticates
// through the same gateway headers as everything else but always posts as an
// admin-tier principal.
type TelemetryHandlers struct {
	Telemetry *service.TelemetryService
}

// Apply handles a feed update for one job. The payload carries stringly-typed
// fields; the service normalizes them.
func (h *TelemetryHandlers) Apply(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if !actor.IsAdmin() {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "forbidden",
			Err:     errors.New("feed updates require an admin principal"),
		})
		return
	}

	var update model.TelemetryUpdate
	if !DecodeJSON(w, r, &update) {
		return
	}

	job, err := h.Telemetry.Apply(r.Context(), r.PathValue("id"), update)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Record updated",
		"job":     job,
	})
}
