package httpx

import (
	"errors"
	"net/http"

	"github.com/dtapi/booking-engine/internal/core"
	"github.com/dtapi/booking-engine/internal/service"
)

var errAdminOnly = errors.New("admin access required")

// NotificationHandlers covers manual resends and the attempt audit log. The
// resend endpoints are intentionally separate so an operator can retry one
// channel without touching the other.
type NotificationHandlers struct {
	Booking  *service.BookingService
	Attempts core.AttemptRepository
}

// ResendPush re-sends the assignment push notification for a job.
func (h *NotificationHandlers) ResendPush(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.Booking.ResendPush(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// ResendSMS re-sends the assignment SMS for a job.
func (h *NotificationHandlers) ResendSMS(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	result, err := h.Booking.ResendSMS(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// ListAttempts returns the delivery log for a job, oldest first.
func (h *NotificationHandlers) ListAttempts(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	// The log exposes recipient IDs, so reading it is admin-only like the
	// resend endpoints.
	if !actor.IsAdmin() {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "forbidden",
			Err:     errAdminOnly,
		})
		return
	}

	attempts, err := h.Attempts.ListByJob(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, attempts)
}
