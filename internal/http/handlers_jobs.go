package httpx

import (
	"errors"
	"net/http"

	"github.com/dtapi/booking-engine/internal/domain/auth"
	"github.com/dtapi/booking-engine/internal/domain/model"
	"github.com/dtapi/booking-engine/internal/service"
)

// JobHandlers provides HTTP handlers for job lifecycle operations.
type JobHandlers struct {
	Booking    *service.BookingService
	Assignment *service.AssignmentService
}

func requireActor(w http.ResponseWriter, r *http.Request) (auth.Actor, bool) {
	actor, ok := GetActorFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "missing_actor",
			Err:     errors.New("no actor in request context"),
		})
	}
	return actor, ok
}

// createJobBody is the request payload for CreateJob. The customer is taken
// from the actor unless an admin books on a customer's behalf.
type createJobBody struct {
	CustomerID   string `json:"customer_id,omitempty"`
	LanguagePair string `json:"language_pair"`
	Remarks      string `json:"remarks,omitempty"`
	Channel      string `json:"channel,omitempty"`
}

// CreateJob handles HTTP requests to create and publish a new job.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var body createJobBody
	if !DecodeJSON(w, r, &body) {
		return
	}

	customerID := actor.ID
	if actor.IsAdmin() && body.CustomerID != "" {
		customerID = body.CustomerID
	}

	channel := body.Channel
	if channel == "" {
		channel = model.ChannelHintDefault
	}

	job, dispatch, err := h.Booking.CreateJob(r.Context(), &model.CreateJobRequest{
		CustomerID:   customerID,
		LanguagePair: body.LanguagePair,
		Remarks:      body.Remarks,
	}, channel)
	if err != nil {
		WriteAppError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, map[string]any{
		"job":      job,
		"dispatch": dispatch,
	})
}

// GetJob handles HTTP requests to fetch one job with its offers.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	job, err := h.Booking.GetJob(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// ListMine handles HTTP requests for the actor's active jobs.
func (h *JobHandlers) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	jobs, err := h.Booking.GetUserJobs(r.Context(), actor)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

// History handles HTTP requests for the actor's finished jobs.
func (h *JobHandlers) History(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	status := model.JobStatus(r.URL.Query().Get("status"))
	jobs, err := h.Booking.GetJobHistory(r.Context(), actor, status)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

// ListAll handles HTTP requests for the filtered admin overview.
func (h *JobHandlers) ListAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	filter := &model.JobFilter{
		Status:       model.JobStatus(r.URL.Query().Get("status")),
		CustomerID:   r.URL.Query().Get("customer_id"),
		TranslatorID: r.URL.Query().Get("translator_id"),
		LanguagePair: r.URL.Query().Get("language_pair"),
		Limit:        parseIntQuery(r, "limit", 0),
		Offset:       parseIntQuery(r, "offset", 0),
	}

	jobs, err := h.Booking.GetAllJobs(r.Context(), actor, filter)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

// Stats handles HTTP requests for the admin status dashboard.
func (h *JobHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	stats, err := h.Booking.GetStats(r.Context(), actor)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// ListOffers handles HTTP requests for a job's offer rows (admin view).
func (h *JobHandlers) ListOffers(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	offers, err := h.Booking.ListJobOffers(r.Context(), actor, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, offers)
}

// UpdateJob handles HTTP requests to patch a job's details.
func (h *JobHandlers) UpdateJob(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req model.UpdateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Booking.UpdateJob(r.Context(), actor, r.PathValue("id"), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// PotentialJobs handles HTTP requests for jobs a translator could accept.
func (h *JobHandlers) PotentialJobs(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != auth.RoleTranslator {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "forbidden",
			Err:     errors.New("only translators have potential jobs"),
		})
		return
	}

	jobs, err := h.Assignment.ListPotentialJobs(r.Context(), actor.ID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, jobs)
}

// Accept handles a translator's attempt to claim a pending job. Losing the
// race is a normal outcome and renders as 200 with the outcome field.
func (h *JobHandlers) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != auth.RoleTranslator {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "forbidden",
			Err:     errors.New("only translators may accept jobs"),
		})
		return
	}

	result, err := h.Booking.AcceptJob(r.Context(), actor.ID, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// acceptBody carries the job reference for the payload-shaped accept.
type acceptBody struct {
	JobID string `json:"job_id"`
}

// AcceptByPayload is the body-shaped variant of Accept for clients that send
// the job reference in the request body instead of the path.
func (h *JobHandlers) AcceptByPayload(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != auth.RoleTranslator {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "forbidden",
			Err:     errors.New("only translators may accept jobs"),
		})
		return
	}

	var body acceptBody
	if !DecodeJSON(w, r, &body) {
		return
	}
	if body.JobID == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "validation",
			Err:     errors.New("job_id is required"),
		})
		return
	}

	result, err := h.Booking.AcceptJob(r.Context(), actor.ID, body.JobID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

// Decline handles a translator turning down an open offer.
func (h *JobHandlers) Decline(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}
	if actor.Role != auth.RoleTranslator {
		WriteError(w, ErrorParams{
			Code:    http.StatusForbidden,
			ErrCode: "forbidden",
			Err:     errors.New("only translators may decline offers"),
		})
		return
	}

	offer, err := h.Assignment.Decline(r.Context(), r.PathValue("id"), actor.ID)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, offer)
}

// Start handles the translator starting the session.
func (h *JobHandlers) Start(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(actor auth.Actor, id string) (*model.Job, error) {
		return h.Booking.StartJob(r.Context(), actor, id)
	})
}

type cancelBody struct {
	Reason string `json:"reason,omitempty"`
}

// Cancel handles cancelling an assigned or running job.
func (h *JobHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	var body cancelBody
	if r.ContentLength > 0 && !DecodeJSON(w, r, &body) {
		return
	}
	h.lifecycle(w, r, func(actor auth.Actor, id string) (*model.Job, error) {
		return h.Booking.CancelJob(r.Context(), actor, id, body.Reason)
	})
}

// Withdraw handles the customer pulling a job back.
func (h *JobHandlers) Withdraw(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(actor auth.Actor, id string) (*model.Job, error) {
		return h.Booking.WithdrawJob(r.Context(), actor, id)
	})
}

type endBody struct {
	SessionMinutes *int `json:"session_minutes,omitempty"`
}

// End handles completing a running session.
func (h *JobHandlers) End(w http.ResponseWriter, r *http.Request) {
	var body endBody
	if r.ContentLength > 0 && !DecodeJSON(w, r, &body) {
		return
	}
	h.lifecycle(w, r, func(actor auth.Actor, id string) (*model.Job, error) {
		return h.Booking.EndJob(r.Context(), actor, id, body.SessionMinutes)
	})
}

// NotCarriedOut records that the customer never called in.
func (h *JobHandlers) NotCarriedOut(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(actor auth.Actor, id string) (*model.Job, error) {
		return h.Booking.MarkNotCarriedOut(r.Context(), actor, id)
	})
}

// Reopen puts a job back on the market.
func (h *JobHandlers) Reopen(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(actor auth.Actor, id string) (*model.Job, error) {
		return h.Booking.ReopenJob(r.Context(), actor, id)
	})
}

func (h *JobHandlers) lifecycle(
	w http.ResponseWriter,
	r *http.Request,
	fn func(actor auth.Actor, id string) (*model.Job, error),
) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	job, err := fn(actor, r.PathValue("id"))
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}
