package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	apperrors "github.com/dtapi/booking-engine/internal/errors"

	"github.com/dtapi/booking-engine/internal/core"
	"github.com/dtapi/booking-engine/internal/data"
	"github.com/dtapi/booking-engine/internal/domain/auth"
	"github.com/dtapi/booking-engine/internal/domain/lifecycle"
	"github.com/dtapi/booking-engine/internal/domain/model"
	"github.com/dtapi/booking-engine/pkg/metrics"
)

// BookingServiceOptions groups dependencies for BookingService.
type BookingServiceOptions struct {
	Jobs       core.JobRepository // Required: job repository
	Assignment *AssignmentService // Required: offer round + accept resolution
	Dispatch   *DispatchService   // Required: notification fan-out
	Logger     *slog.Logger       // Optional: structured logger
}

// BookingService is the facade the transport layer talks to. It owns the
// read paths, the actor-driven lifecycle actions, and the orchestration of
// job creation: store, publish, open the offer round, notify.
type BookingService struct {
	jobs       core.JobRepository
	assignment *AssignmentService
	dispatch   *DispatchService
	logger     *slog.Logger
}

// NewBookingService constructs a new BookingService.
func NewBookingService(opts BookingServiceOptions) *BookingService {
	if opts.Jobs == nil {
		panic("JobRepository is required")
	}
	if opts.Assignment == nil {
		panic("AssignmentService is required")
	}
	if opts.Dispatch == nil {
		panic("DispatchService is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &BookingService{
		jobs:       opts.Jobs,
		assignment: opts.Assignment,
		dispatch:   opts.Dispatch,
		logger:     logger.With("component", "booking_service"),
	}
}

// CreateJob stores a new job, publishes it for acceptance, opens the offer
// round, and notifies the eligible translators. The notification outcome is
// reported alongside the job and never fails the booking itself.
func (s *BookingService) CreateJob(
	ctx context.Context,
	req *model.CreateJobRequest,
	channelHint string,
) (*model.Job, model.DispatchResult, error) {
	if req == nil {
		return nil, model.DispatchResult{}, apperrors.Validation("Create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, model.DispatchResult{}, apperrors.Validation(err.Error())
	}

	job, err := s.jobs.Create(ctx, req)
	if err != nil {
		return nil, model.DispatchResult{}, apperrors.MapDBError(err)
	}

	job, err = s.transitionSystem(ctx, job, lifecycle.ActionPublish, nil)
	if err != nil {
		return nil, model.DispatchResult{}, err
	}

	translatorIDs, err := s.assignment.OfferRound(ctx, job)
	if err != nil {
		return nil, model.DispatchResult{}, err
	}

	result := s.dispatch.NotifyJobOffer(ctx, job, translatorIDs, channelHint)

	s.logger.InfoContext(ctx, "job created",
		"job_id", job.ID,
		"customer_id", job.CustomerID,
		"language_pair", job.LanguagePair,
		"offers", len(translatorIDs),
		"dispatch_status", result.Status,
	)
	return job, result, nil
}

// GetJob returns one job with its offers, enforcing actor visibility:
// customers see their own jobs, translators see jobs they were offered or
// assigned, admins see everything.
func (s *BookingService) GetJob(ctx context.Context, actor auth.Actor, id string) (*model.Job, error) {
	job, err := s.jobs.GetByIDWithOffers(ctx, id)
	if errors.Is(err, data.ErrJobNotFound) {
		return nil, apperrors.NotFoundf("Job %s not found", id)
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	if !s.canSee(actor, job) {
		return nil, apperrors.Forbidden("You do not have access to this job")
	}
	return job, nil
}

func (s *BookingService) canSee(actor auth.Actor, job *model.Job) bool {
	if actor.IsAdmin() {
		return true
	}
	switch actor.Role {
	case auth.RoleCustomer:
		return job.CustomerID == actor.ID
	case auth.RoleTranslator:
		if job.AssignedTranslatorID != nil && *job.AssignedTranslatorID == actor.ID {
			return true
		}
		for _, offer := range job.Offers {
			if offer.TranslatorID == actor.ID {
				return true
			}
		}
	}
	return false
}

// GetUserJobs returns the actor's active jobs: created jobs for customers,
// assigned jobs for translators.
func (s *BookingService) GetUserJobs(ctx context.Context, actor auth.Actor) ([]*model.Job, error) {
	switch actor.Role {
	case auth.RoleTranslator:
		jobs, err := s.jobs.ListByTranslator(ctx, actor.ID)
		return jobs, apperrors.MapDBError(err)
	default:
		jobs, err := s.jobs.ListByCustomer(ctx, actor.ID)
		return jobs, apperrors.MapDBError(err)
	}
}

// GetJobHistory returns the actor's finished jobs, both sides of the
// engagement included. A non-empty status narrows the listing to that
// terminal status.
func (s *BookingService) GetJobHistory(
	ctx context.Context,
	actor auth.Actor,
	status model.JobStatus,
) ([]*model.Job, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.Validation("Unknown job status " + string(status))
	}
	jobs, err := s.jobs.History(ctx, actor.ID, status)
	return jobs, apperrors.MapDBError(err)
}

// GetAllJobs returns the filtered admin overview. Non-admin actors are
// rejected.
func (s *BookingService) GetAllJobs(
	ctx context.Context,
	actor auth.Actor,
	filter *model.JobFilter,
) ([]*model.Job, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only administrators may list all jobs")
	}
	jobs, err := s.jobs.List(ctx, filter)
	return jobs, apperrors.MapDBError(err)
}

// AcceptJob claims a pending job for a translator and, when the claim wins,
// notifies the winner that the job is theirs. The confirmation follows the
// dispatcher's never-fail policy: a delivery fault cannot undo the win.
func (s *BookingService) AcceptJob(
	ctx context.Context,
	translatorID, jobID string,
) (*model.AcceptResult, error) {
	result, err := s.assignment.Accept(ctx, jobID, translatorID)
	if err != nil {
		return nil, err
	}
	if result.Outcome == model.AcceptWon && result.Job != nil {
		s.dispatch.NotifyAssignment(ctx, result.Job, translatorID)
	}
	return result, nil
}

// ListJobOffers returns the offer rows for a job. Offer rounds expose every
// invited translator, so the listing is restricted to administrators.
func (s *BookingService) ListJobOffers(
	ctx context.Context,
	actor auth.Actor,
	id string,
) ([]*model.TranslatorJobOffer, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only administrators may view job offers")
	}
	if _, err := s.loadForActor(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.assignment.ListOffers(ctx, id)
}

// GetStats returns job counts per lifecycle status for the admin dashboard.
func (s *BookingService) GetStats(ctx context.Context, actor auth.Actor) (*model.JobStats, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Only administrators may view job statistics")
	}
	stats, err := s.jobs.Stats(ctx)
	return stats, apperrors.MapDBError(err)
}

// UpdateJob applies a partial edit. Only the owning customer or an admin may
// edit, and only while the job has not finished.
func (s *BookingService) UpdateJob(
	ctx context.Context,
	actor auth.Actor,
	id string,
	req *model.UpdateJobRequest,
) (*model.Job, error) {
	job, err := s.loadForActor(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == auth.RoleCustomer && job.CustomerID != actor.ID {
		return nil, apperrors.Forbidden("You may only edit your own jobs")
	}
	if actor.Role == auth.RoleTranslator {
		return nil, apperrors.Forbidden("Translators may not edit job details")
	}
	if job.Status.Terminal() {
		return nil, apperrors.InvalidTransition("Finished jobs cannot be edited")
	}

	updated, err := s.jobs.UpdatePatch(ctx, id, req)
	if errors.Is(err, data.ErrJobNotFound) {
		return nil, apperrors.NotFoundf("Job %s not found", id)
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return updated, nil
}

// StartJob marks the interpreting session as running.
func (s *BookingService) StartJob(ctx context.Context, actor auth.Actor, id string) (*model.Job, error) {
	return s.applyAction(ctx, actor, id, lifecycle.ActionStart, core.TransitionParams{})
}

// CancelJob cancels an assigned or running job, recording the reason.
func (s *BookingService) CancelJob(
	ctx context.Context,
	actor auth.Actor,
	id, reason string,
) (*model.Job, error) {
	params := core.TransitionParams{}
	if reason = strings.TrimSpace(reason); reason != "" {
		params.CancelReason = &reason
	}
	return s.applyAction(ctx, actor, id, lifecycle.ActionCancel, params)
}

// WithdrawJob lets the customer pull a job back before it runs.
func (s *BookingService) WithdrawJob(ctx context.Context, actor auth.Actor, id string) (*model.Job, error) {
	return s.applyAction(ctx, actor, id, lifecycle.ActionWithdraw, core.TransitionParams{})
}

// EndJob completes a running session, recording its length when supplied.
func (s *BookingService) EndJob(
	ctx context.Context,
	actor auth.Actor,
	id string,
	sessionMinutes *int,
) (*model.Job, error) {
	return s.applyAction(ctx, actor, id, lifecycle.ActionEnd, core.TransitionParams{
		SessionMinutes: sessionMinutes,
	})
}

// MarkNotCarriedOut records that the customer never called in.
func (s *BookingService) MarkNotCarriedOut(ctx context.Context, actor auth.Actor, id string) (*model.Job, error) {
	return s.applyAction(ctx, actor, id, lifecycle.ActionNotCarriedOut, core.TransitionParams{})
}

// ReopenJob puts a job back on the market. The assignment is cleared, the
// previous offer round is closed, and a fresh round is opened and
// dispatched. Closing the old round also retires the previous winner's
// accepted row; leaving it would block every accept on the reopened job via
// the one-accepted-per-job guard.
func (s *BookingService) ReopenJob(ctx context.Context, actor auth.Actor, id string) (*model.Job, error) {
	job, err := s.applyAction(ctx, actor, id, lifecycle.ActionReopen, core.TransitionParams{
		ClearAssignment: true,
	})
	if err != nil {
		return nil, err
	}

	if err := s.assignment.CloseRound(ctx, job.ID); err != nil {
		return nil, apperrors.MapDBError(err)
	}

	translatorIDs, err := s.assignment.OfferRound(ctx, job)
	if err != nil {
		return nil, err
	}
	s.dispatch.NotifyJobOffer(ctx, job, translatorIDs, model.ChannelHintDefault)
	return job, nil
}

// ResendPush re-pushes the assignment notification to the assigned translator.
func (s *BookingService) ResendPush(ctx context.Context, actor auth.Actor, id string) (model.DispatchResult, error) {
	return s.resend(ctx, actor, id, model.ChannelPush)
}

// ResendSMS re-sends the assignment notification by SMS.
func (s *BookingService) ResendSMS(ctx context.Context, actor auth.Actor, id string) (model.DispatchResult, error) {
	return s.resend(ctx, actor, id, model.ChannelSMS)
}

func (s *BookingService) resend(
	ctx context.Context,
	actor auth.Actor,
	id string,
	channel model.Channel,
) (model.DispatchResult, error) {
	if !actor.IsAdmin() {
		return model.DispatchResult{}, apperrors.Forbidden("Only administrators may resend notifications")
	}

	job, err := s.loadForActor(ctx, actor, id)
	if err != nil {
		return model.DispatchResult{}, err
	}
	if job.AssignedTranslatorID == nil {
		return model.DispatchResult{}, apperrors.Validation("Job has no assigned translator to notify")
	}

	if channel == model.ChannelSMS {
		return s.dispatch.ResendSMS(ctx, job, *job.AssignedTranslatorID), nil
	}
	return s.dispatch.ResendPush(ctx, job, *job.AssignedTranslatorID), nil
}

// applyAction resolves the lifecycle rule for the actor, performs the CAS
// transition, and classifies a lost race as an invalid transition against
// the now-current status.
func (s *BookingService) applyAction(
	ctx context.Context,
	actor auth.Actor,
	id string,
	action lifecycle.Action,
	params core.TransitionParams,
) (*model.Job, error) {
	job, err := s.loadForActor(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if err := s.checkOwnership(actor, job, action); err != nil {
		return nil, err
	}

	target, err := lifecycle.Resolve(job.Status, action, actor.Role)
	if err != nil {
		metrics.JobTransitions.WithLabelValues(string(action), "rejected").Inc()
		return nil, mapLifecycleError(err)
	}

	params.JobID = id
	params.From = lifecycle.From(action)
	params.To = target

	updated, err := s.jobs.Transition(ctx, params)
	if errors.Is(err, data.ErrStaleStatus) {
		metrics.JobTransitions.WithLabelValues(string(action), "stale").Inc()
		current, getErr := s.jobs.GetByID(ctx, id)
		if getErr != nil {
			return nil, apperrors.MapDBError(getErr)
		}
		return nil, apperrors.InvalidTransition(
			fmt.Sprintf("Action %s is no longer possible: job is now %s", action, current.Status),
		)
	}
	if errors.Is(err, data.ErrJobNotFound) {
		return nil, apperrors.NotFoundf("Job %s not found", id)
	}
	if err != nil {
		metrics.JobTransitions.WithLabelValues(string(action), "error").Inc()
		return nil, apperrors.MapDBError(err)
	}

	metrics.JobTransitions.WithLabelValues(string(action), "applied").Inc()
	s.logger.InfoContext(ctx, "job transition applied",
		"job_id", id,
		"action", action,
		"from", job.Status,
		"to", updated.Status,
		"actor_id", actor.ID,
		"actor_role", actor.Role,
	)
	return updated, nil
}

// checkOwnership ties role-level permissions to the concrete job: customers
// act on their own jobs, translators on jobs assigned to them.
func (s *BookingService) checkOwnership(actor auth.Actor, job *model.Job, action lifecycle.Action) error {
	if actor.IsAdmin() {
		return nil
	}
	switch actor.Role {
	case auth.RoleCustomer:
		if job.CustomerID != actor.ID {
			return apperrors.Forbidden("You may only act on your own jobs")
		}
	case auth.RoleTranslator:
		if job.AssignedTranslatorID == nil || *job.AssignedTranslatorID != actor.ID {
			return apperrors.Forbidden("You may only act on jobs assigned to you")
		}
	default:
		return apperrors.Forbidden(fmt.Sprintf("Role %s may not perform %s", actor.Role, action))
	}
	return nil
}

func (s *BookingService) loadForActor(ctx context.Context, actor auth.Actor, id string) (*model.Job, error) {
	job, err := s.jobs.GetByIDWithOffers(ctx, id)
	if errors.Is(err, data.ErrJobNotFound) {
		return nil, apperrors.NotFoundf("Job %s not found", id)
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if !s.canSee(actor, job) {
		return nil, apperrors.Forbidden("You do not have access to this job")
	}
	return job, nil
}

// transitionSystem applies an internally-triggered action with no actor.
func (s *BookingService) transitionSystem(
	ctx context.Context,
	job *model.Job,
	action lifecycle.Action,
	params *core.TransitionParams,
) (*model.Job, error) {
	target, err := lifecycle.ResolveSystem(job.Status, action)
	if err != nil {
		return nil, mapLifecycleError(err)
	}

	p := core.TransitionParams{}
	if params != nil {
		p = *params
	}
	p.JobID = job.ID
	p.From = lifecycle.From(action)
	p.To = target

	updated, err := s.jobs.Transition(ctx, p)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	metrics.JobTransitions.WithLabelValues(string(action), "applied").Inc()
	return updated, nil
}

func mapLifecycleError(err error) error {
	var transitionErr *lifecycle.TransitionError
	if errors.As(err, &transitionErr) {
		return apperrors.Wrap(err, apperrors.ErrCodeInvalidTransition, transitionErr.Error())
	}
	var roleErr *lifecycle.RoleError
	if errors.As(err, &roleErr) {
		return apperrors.Wrap(err, apperrors.ErrCodeForbidden, roleErr.Error())
	}
	return err
}
