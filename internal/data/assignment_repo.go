package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	apperrors "github.com/dtapi/booking-engine/internal/errors"

	"github.com/dtapi/booking-engine/internal/data/pgxutil"
	"github.com/dtapi/booking-engine/internal/domain/model"
)

// AssignmentRepo performs the atomic accept of a pending job by a translator.
type AssignmentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewAssignmentRepo creates a new AssignmentRepo instance.
func NewAssignmentRepo(db *sql.DB, cfg RepoConfig) *AssignmentRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}

	return &AssignmentRepo{
		DB:           db,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

// Accept claims a pending job for a translator. The whole claim runs in one
// transaction:
//
//  1. CAS the job from pending to assigned. Zero rows means another writer
//     got there first (or the job is gone) and the re-read classifies the
//     outcome.
//  2. Upsert the translator's offer row to accepted. The partial unique
//     index on (job_id) WHERE status = 'accepted' makes a second accepted
//     row impossible even under concurrent transactions.
//  3. Expire the remaining open offers for the job.
//
// A unique violation from step 2 surfaces as a Conflict AppError; callers
// retry the whole claim, which then resolves via the re-read path.
func (r *AssignmentRepo) Accept(
	ctx context.Context,
	jobID, translatorID string,
) (*model.AcceptResult, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.New("job id is required")
	}
	if strings.TrimSpace(translatorID) == "" {
		return nil, errors.New("translator id is required")
	}

	var result *model.AcceptResult
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Opts: &sql.TxOptions{Isolation: sql.LevelReadCommitted},
		Fn: func(tx pgx.Tx) error {
			var claimErr error
			result, claimErr = r.claimInTx(ctx, tx, jobID, translatorID)
			return claimErr
		},
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return result, nil
}

func (r *AssignmentRepo) claimInTx(
	ctx context.Context,
	tx pgx.Tx,
	jobID, translatorID string,
) (*model.AcceptResult, error) {
	now := r.timeProvider.Now().UTC()

	rows, err := tx.Query(ctx, `
		UPDATE jobs
		SET status = 'assigned',
		    assigned_translator_id = $2,
		    updated_at = $3
		WHERE id = $1 AND status = 'pending'
		RETURNING `+jobColumns,
		jobID, translatorID, now,
	)
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	job, collectErr := collectJobFromRows(rows)
	rows.Close()

	if errors.Is(collectErr, pgx.ErrNoRows) {
		return r.classifyLostClaim(ctx, tx, jobID, translatorID)
	}
	if collectErr != nil {
		return nil, fmt.Errorf("collect claimed job: %w", collectErr)
	}

	if err := r.recordAcceptedOffer(ctx, tx, jobID, translatorID); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE translator_job_offers
		SET status = 'expired', responded_at = $2
		WHERE job_id = $1 AND status = 'offered'
	`, jobID, now); err != nil {
		return nil, fmt.Errorf("expire sibling offers: %w", err)
	}

	return &model.AcceptResult{Outcome: model.AcceptWon, Job: job}, nil
}

// classifyLostClaim explains a zero-row CAS: the job is gone, already ours
// (an idempotent repeat), taken by someone else, or simply not open.
func (r *AssignmentRepo) classifyLostClaim(
	ctx context.Context,
	tx pgx.Tx,
	jobID, translatorID string,
) (*model.AcceptResult, error) {
	rows, err := tx.Query(ctx, `
		SELECT `+jobColumns+`
		FROM jobs
		WHERE id = $1
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("re-read job: %w", err)
	}
	job, collectErr := collectJobFromRows(rows)
	rows.Close()

	if errors.Is(collectErr, pgx.ErrNoRows) {
		return nil, apperrors.NotFoundf("Job %s not found", jobID)
	}
	if collectErr != nil {
		return nil, fmt.Errorf("re-read job: %w", collectErr)
	}

	switch {
	case job.Status == model.JobStatusAssigned &&
		job.AssignedTranslatorID != nil &&
		*job.AssignedTranslatorID == translatorID:
		return &model.AcceptResult{Outcome: model.AcceptWon, Job: job}, nil
	case job.Status == model.JobStatusAssigned || job.Status == model.JobStatusStarted:
		return &model.AcceptResult{Outcome: model.AcceptAlreadyTaken}, nil
	default:
		return &model.AcceptResult{Outcome: model.AcceptNotAvailable}, nil
	}
}

func (r *AssignmentRepo) recordAcceptedOffer(
	ctx context.Context,
	tx pgx.Tx,
	jobID, translatorID string,
) error {
	now := r.timeProvider.Now().UTC()
	if _, err := tx.Exec(ctx, `
		INSERT INTO translator_job_offers(id, job_id, translator_id, status, offered_at, responded_at)
		VALUES ($1, $2, $3, 'accepted', $4, $4)
		ON CONFLICT (job_id, translator_id) DO UPDATE
		SET status = 'accepted',
		    responded_at = EXCLUDED.responded_at
	`, uuid.NewString(), jobID, translatorID, now); err != nil {
		return fmt.Errorf("record accepted offer: %w", err)
	}
	return nil
}
