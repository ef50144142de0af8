package core

import (
	"context"
	"time"

	"github.com/dtapi/booking-engine/internal/domain/model"
)

// This file contains repository and gateway interface definitions (ports in
// hexagonal architecture). These interfaces define the contracts between the
// service layer and the data/adapter layers. Service implementations should
// depend on these interfaces, not concrete implementations.

// JobRepository defines the interface for job data operations.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// GetByIDWithOffers loads a job together with its offer rows.
	GetByIDWithOffers(ctx context.Context, id string) (*model.Job, error)
	ListByCustomer(ctx context.Context, customerID string) ([]*model.Job, error)
	ListByTranslator(ctx context.Context, translatorID string) ([]*model.Job, error)
	// History returns terminal-status jobs the user participated in. A
	// non-empty status narrows the result to that terminal status.
	History(ctx context.Context, userID string, status model.JobStatus) ([]*model.Job, error)
	List(ctx context.Context, filter *model.JobFilter) ([]*model.Job, error)
	// ListPendingByLanguages returns pending jobs for any of the given
	// language pairs. An empty pair list yields no jobs.
	ListPendingByLanguages(ctx context.Context, pairs []string) ([]*model.Job, error)

	// Transition performs a compare-and-set status update. The update only
	// applies while the job is still in one of params.From; zero rows means
	// the job moved concurrently or does not exist, and the repo re-reads
	// to classify which.
	Transition(ctx context.Context, params TransitionParams) (*model.Job, error)

	// UpdatePatch applies a partial edit of the request fields.
	UpdatePatch(ctx context.Context, id string, req *model.UpdateJobRequest) (*model.Job, error)

	// ApplyTelemetry writes the measurement and flag groups in one
	// statement per group, skipping groups with no data.
	ApplyTelemetry(ctx context.Context, id string, fields *model.TelemetryFields) (*model.Job, error)

	// ExpireStalePending marks pending jobs older than maxAge as expired.
	// Processes up to batchSize jobs per call to prevent long locks.
	// Returns the IDs of the jobs expired.
	ExpireStalePending(ctx context.Context, maxAge time.Duration, batchSize int) ([]string, error)

	Stats(ctx context.Context) (*model.JobStats, error)
}

// TransitionParams groups parameters for JobRepository.Transition.
type TransitionParams struct {
	JobID string
	From  []model.JobStatus
	To    model.JobStatus
	// AssignedTranslatorID, when non-nil, is written alongside the status.
	AssignedTranslatorID *string
	// ClearAssignment clears assigned_translator_id (reopen).
	ClearAssignment bool
	// CancelReason, when non-nil, is recorded with a cancellation.
	CancelReason *string
	// SessionMinutes, when non-nil, is recorded with a completion.
	SessionMinutes *int
}

// OfferRepository defines the interface for translator offer data operations.
type OfferRepository interface {
	// OpenRound inserts offered rows for the given translators, ignoring
	// translators that already hold a row for the job.
	OpenRound(ctx context.Context, jobID string, translatorIDs []string) ([]*model.TranslatorJobOffer, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.TranslatorJobOffer, error)
	// CloseRound expires every offered and accepted row for a job. Reopen
	// must call this before a new round: a surviving accepted row would
	// collide with the one-accepted-per-job guard index and lock out every
	// subsequent accept.
	CloseRound(ctx context.Context, jobID string) (int64, error)
	Decline(ctx context.Context, jobID, translatorID string) (*model.TranslatorJobOffer, error)
}

// AssignmentStore performs the atomic accept: job CAS to assigned, the
// accepted offer upsert, and sibling expiry, all in one transaction. The
// single-accepted-offer guard index makes concurrent winners impossible.
type AssignmentStore interface {
	Accept(ctx context.Context, jobID, translatorID string) (*model.AcceptResult, error)
}

// AttemptRepository defines the interface for the notification attempt log.
// The log is append-only; attempts are never updated or deleted.
type AttemptRepository interface {
	Record(ctx context.Context, attempt *model.NotificationAttempt) (*model.NotificationAttempt, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.NotificationAttempt, error)
}

// PushGateway delivers push notifications to a translator's devices.
type PushGateway interface {
	// Send pushes a message to the recipient. A nil error means the
	// provider accepted the message, not that a device displayed it.
	Send(ctx context.Context, req *model.PushRequest) error
}

// SMSGateway delivers SMS messages.
type SMSGateway interface {
	Send(ctx context.Context, req *model.SMSRequest) error
}

// EligibilityProvider answers which translators may serve a language pair.
// Eligibility is maintained outside this service; the provider is a read path.
type EligibilityProvider interface {
	// EligibleTranslators returns translator IDs able to serve the pair.
	// An empty result is a valid answer, not an error.
	EligibleTranslators(ctx context.Context, languagePair string) ([]string, error)
	// LanguagePairs returns the pairs a translator can serve.
	LanguagePairs(ctx context.Context, translatorID string) ([]string, error)
}
