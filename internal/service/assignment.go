package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	apperrors "github.com/dtapi/booking-engine/internal/errors"

	"github.com/dtapi/booking-engine/internal/core"
	"github.com/dtapi/booking-engine/internal/data"
	"github.com/dtapi/booking-engine/internal/domain/model"
	"github.com/dtapi/booking-engine/pkg/metrics"
)

// acceptRetryLimit bounds how often a claim is retried after losing a
// storage-level race. Past the limit the job is reported as already taken.
const acceptRetryLimit = 2

// AssignmentRepos groups the repositories AssignmentService depends on.
type AssignmentRepos struct {
	Jobs        core.JobRepository
	Offers      core.OfferRepository
	Assignments core.AssignmentStore
}

// AssignmentServiceOptions groups dependencies for AssignmentService.
type AssignmentServiceOptions struct {
	Repos       AssignmentRepos
	Eligibility core.EligibilityProvider // Required: roster read path
	Logger      *slog.Logger             // Optional: structured logger
}

// AssignmentService resolves which translator wins a pending job. Every
// claim goes through the storage-level single-winner guard, so concurrent
// accepts produce exactly one assignment no matter how the requests
// interleave.
type AssignmentService struct {
	jobs        core.JobRepository
	offers      core.OfferRepository
	assignments core.AssignmentStore
	eligibility core.EligibilityProvider
	logger      *slog.Logger
}

// NewAssignmentService constructs a new AssignmentService.
func NewAssignmentService(opts AssignmentServiceOptions) *AssignmentService {
	if opts.Repos.Jobs == nil {
		panic("JobRepository is required")
	}
	if opts.Repos.Offers == nil {
		panic("OfferRepository is required")
	}
	if opts.Repos.Assignments == nil {
		panic("AssignmentStore is required")
	}
	if opts.Eligibility == nil {
		panic("EligibilityProvider is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AssignmentService{
		jobs:        opts.Repos.Jobs,
		offers:      opts.Repos.Offers,
		assignments: opts.Repos.Assignments,
		eligibility: opts.Eligibility,
		logger:      logger.With("component", "assignment_service"),
	}
}

// ListPotentialJobs returns the pending jobs a translator could accept,
// based on the language pairs the roster says they serve. A translator with
// no registered pairs sees an empty list.
func (s *AssignmentService) ListPotentialJobs(
	ctx context.Context,
	translatorID string,
) ([]*model.Job, error) {
	pairs, err := s.eligibility.LanguagePairs(ctx, translatorID)
	if err != nil {
		return nil, fmt.Errorf("load translator language pairs: %w", err)
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	jobs, err := s.jobs.ListPendingByLanguages(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	return jobs, nil
}

// Accept claims a pending job for a translator. A lost storage race is
// retried a bounded number of times; once another translator's claim has
// durably won, the outcome is AlreadyTaken rather than an error.
func (s *AssignmentService) Accept(
	ctx context.Context,
	jobID, translatorID string,
) (*model.AcceptResult, error) {
	var result *model.AcceptResult
	var err error

	for attempt := 0; attempt <= acceptRetryLimit; attempt++ {
		result, err = s.assignments.Accept(ctx, jobID, translatorID)
		if err == nil {
			break
		}
		if !apperrors.IsConflict(err) {
			metrics.AcceptAttempts.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("accept job: %w", err)
		}
		s.logger.DebugContext(ctx, "accept lost storage race, retrying",
			"job_id", jobID,
			"translator_id", translatorID,
			"attempt", attempt+1,
		)
	}
	if err != nil {
		// The guard index kept rejecting us; someone else holds the job.
		result = &model.AcceptResult{Outcome: model.AcceptAlreadyTaken}
	}

	metrics.AcceptAttempts.WithLabelValues(string(result.Outcome)).Inc()
	if result.Outcome == model.AcceptWon {
		s.logger.InfoContext(ctx, "job accepted",
			"job_id", jobID,
			"translator_id", translatorID,
		)
	}
	return result, nil
}

// Decline records a translator turning down an open offer.
func (s *AssignmentService) Decline(
	ctx context.Context,
	jobID, translatorID string,
) (*model.TranslatorJobOffer, error) {
	offer, err := s.offers.Decline(ctx, jobID, translatorID)
	if errors.Is(err, data.ErrOfferNotFound) {
		return nil, apperrors.NotFoundf("No open offer on job %s for translator %s", jobID, translatorID)
	}
	if err != nil {
		return nil, fmt.Errorf("decline offer: %w", err)
	}
	return offer, nil
}

// ListOffers returns every offer row recorded for a job, oldest first.
func (s *AssignmentService) ListOffers(
	ctx context.Context,
	jobID string,
) ([]*model.TranslatorJobOffer, error) {
	offers, err := s.offers.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	return offers, nil
}

// CloseRound expires a job's open and accepted offer rows so a fresh round
// can be opened. Must run before re-offering a reopened job: the stale
// accepted row would otherwise trip the single-winner guard on the next
// accept.
func (s *AssignmentService) CloseRound(ctx context.Context, jobID string) error {
	closed, err := s.offers.CloseRound(ctx, jobID)
	if err != nil {
		return fmt.Errorf("close offer round: %w", err)
	}
	if closed > 0 {
		s.logger.InfoContext(ctx, "offer round closed",
			"job_id", jobID,
			"offers_closed", closed,
		)
	}
	return nil
}

// OfferRound selects the eligible translators for a job and opens offer rows
// for them. An empty eligible set opens no offers; the job simply stays
// pending until the sweeper expires it.
func (s *AssignmentService) OfferRound(
	ctx context.Context,
	job *model.Job,
) ([]string, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}

	translatorIDs, err := s.eligibility.EligibleTranslators(ctx, job.LanguagePair)
	if err != nil {
		return nil, fmt.Errorf("load eligible translators: %w", err)
	}
	if len(translatorIDs) == 0 {
		s.logger.WarnContext(ctx, "no eligible translators for job",
			"job_id", job.ID,
			"language_pair", job.LanguagePair,
		)
		return nil, nil
	}

	if _, err := s.offers.OpenRound(ctx, job.ID, translatorIDs); err != nil {
		return nil, fmt.Errorf("open offer round: %w", err)
	}
	return translatorIDs, nil
}
