package httpx

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtapi/booking-engine/internal/adapters/eligibility"
	"github.com/dtapi/booking-engine/internal/core"
	"github.com/dtapi/booking-engine/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Booking    *service.BookingService
	Assignment *service.AssignmentService
	Telemetry  *service.TelemetryService
	Attempts   core.AttemptRepository

	// Health probe dependencies
	DB          *sql.DB
	Eligibility *eligibility.RedisProvider

	Logger *slog.Logger // Optional: request logger
}

// NewRouter creates and configures the HTTP router. Health probes and
// /metrics stay outside the actor middleware; everything under /api requires
// the gateway identity headers.
func NewRouter(services RouterServices) http.Handler {
	api := http.NewServeMux()

	jobHandlers := &JobHandlers{Booking: services.Booking, Assignment: services.Assignment}
	telemetryHandlers := &TelemetryHandlers{Telemetry: services.Telemetry}
	notificationHandlers := &NotificationHandlers{
		Booking:  services.Booking,
		Attempts: services.Attempts,
	}

	registerJobRoutes(api, jobHandlers)
	registerTelemetryRoutes(api, telemetryHandlers)
	registerNotificationRoutes(api, notificationHandlers)

	root := http.NewServeMux()
	root.Handle("/api/", ActorMiddleware(api))

	healthHandlers := &HealthHandlers{DB: services.DB, Eligibility: services.Eligibility}
	root.HandleFunc("GET /healthz", healthHandlers.Live)
	root.HandleFunc("HEAD /healthz", healthHandlers.Live)
	root.HandleFunc("GET /readyz", healthHandlers.Ready)
	root.Handle("GET /metrics", promhttp.Handler())

	return RequestLogger(services.Logger, root)
}

func registerJobRoutes(mux *http.ServeMux, h *JobHandlers) {
	mux.HandleFunc("POST /api/jobs", h.CreateJob)
	mux.HandleFunc("GET /api/jobs", h.ListAll)
	mux.HandleFunc("GET /api/jobs/mine", h.ListMine)
	mux.HandleFunc("GET /api/jobs/history", h.History)
	mux.HandleFunc("GET /api/jobs/potential", h.PotentialJobs)
	mux.HandleFunc("GET /api/jobs/stats", h.Stats)
	mux.HandleFunc("GET /api/jobs/{id}", h.GetJob)
	mux.HandleFunc("GET /api/jobs/{id}/offers", h.ListOffers)
	mux.HandleFunc("PATCH /api/jobs/{id}", h.UpdateJob)

	mux.HandleFunc("POST /api/jobs/accept", h.AcceptByPayload)
	mux.HandleFunc("POST /api/jobs/{id}/accept", h.Accept)
	mux.HandleFunc("POST /api/jobs/{id}/decline", h.Decline)
	mux.HandleFunc("POST /api/jobs/{id}/start", h.Start)
	mux.HandleFunc("POST /api/jobs/{id}/cancel", h.Cancel)
	mux.HandleFunc("POST /api/jobs/{id}/withdraw", h.Withdraw)
	mux.HandleFunc("POST /api/jobs/{id}/end", h.End)
	mux.HandleFunc("POST /api/jobs/{id}/not-carried-out", h.NotCarriedOut)
	mux.HandleFunc("POST /api/jobs/{id}/reopen", h.Reopen)
}

func registerTelemetryRoutes(mux *http.ServeMux, h *TelemetryHandlers) {
	mux.HandleFunc("POST /api/jobs/{id}/telemetry", h.Apply)
}

func registerNotificationRoutes(mux *http.ServeMux, h *NotificationHandlers) {
	mux.HandleFunc("POST /api/jobs/{id}/notifications/push", h.ResendPush)
	mux.HandleFunc("POST /api/jobs/{id}/notifications/sms", h.ResendSMS)
	mux.HandleFunc("GET /api/jobs/{id}/notifications", h.ListAttempts)
}
